package client

import (
	"context"
	"fmt"
	"time"

	pb "github.com/dmitrijs2005/zkvault/internal/proto"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
)

const defaultCallTimeout = 12 * time.Second

type GRPCClient struct {
	conn    *grpc.ClientConn
	client  pb.ProfileServiceClient
	timeout time.Duration
}

// NewGRPCClient connects lazily to endpoint. Extra dial options are appended
// after the default insecure transport credentials.
func NewGRPCClient(endpoint string, opts ...grpc.DialOption) (*GRPCClient, error) {
	dialOpts := append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)

	conn, err := grpc.NewClient(endpoint, dialOpts...)
	if err != nil {
		return nil, err
	}
	return &GRPCClient{conn: conn, client: pb.NewProfileServiceClient(conn), timeout: defaultCallTimeout}, nil
}

func (c *GRPCClient) Close() error {
	return c.conn.Close()
}

func (c *GRPCClient) GetProfile(ctx context.Context, user string) (pb.ProfileRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.GetProfile(ctx, pb.ProfileRecord{User: user}.ToStruct())
	if err != nil {
		return pb.ProfileRecord{}, mapError(err)
	}

	rec, err := pb.ProfileRecordFromStruct(resp)
	if err != nil {
		return pb.ProfileRecord{}, err
	}
	return rec, nil
}

func (c *GRPCClient) SetSalt(ctx context.Context, user, salt string) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	_, err := c.client.SetSalt(ctx, pb.ProfileRecord{User: user, Salt: salt}.ToStruct())
	return mapError(err)
}

func (c *GRPCClient) SetCanary(ctx context.Context, user, iv, ciphertext string) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req := pb.ProfileRecord{User: user, CanaryIV: iv, CanaryCiphertext: ciphertext}
	_, err := c.client.SetCanary(ctx, req.ToStruct())
	return mapError(err)
}

func mapError(err error) error {
	if err == nil {
		return nil
	}
	st, _ := status.FromError(err)
	switch st.Code() {
	case codes.AlreadyExists:
		return ErrAlreadyExists
	case codes.InvalidArgument:
		return fmt.Errorf("%w: %s", ErrInvalidRequest, st.Message())
	case codes.Unavailable, codes.DeadlineExceeded:
		return ErrUnavailable
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
}
