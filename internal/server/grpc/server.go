// Package grpc exposes ProfileService over gRPC.
package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/zkvault/internal/logging"
	pb "github.com/dmitrijs2005/zkvault/internal/proto"
	"github.com/dmitrijs2005/zkvault/internal/server/models"
	"google.golang.org/grpc"
)

// ProfileService is the business logic behind the handlers; see
// services.ProfileService.
type ProfileService interface {
	GetProfile(ctx context.Context, userName string) (*models.Profile, error)
	SetSalt(ctx context.Context, userName, salt string) error
	SetCanary(ctx context.Context, userName, iv, ciphertext string) error
}

type GRPCServer struct {
	address  string
	profiles ProfileService
	logger   logging.Logger
}

var _ pb.ProfileServiceServer = (*GRPCServer)(nil)

func NewGRPCServer(a string, l logging.Logger, ps ProfileService) *GRPCServer {
	return &GRPCServer{
		address:  a,
		logger:   l.With("module", "grpc_server"),
		profiles: ps,
	}
}

// Run listens on the configured address and serves until ctx is done.
func (s *GRPCServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve serves on lis and stops gracefully when ctx is done.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.loggingInterceptor))
	pb.RegisterProfileServiceServer(srv, s)

	stopped := make(chan struct{})
	defer close(stopped)
	go func() {
		select {
		case <-ctx.Done():
			s.logger.Info(ctx, "Stopping gRPC server...")
			srv.GracefulStop()
		case <-stopped:
		}
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	return srv.Serve(lis)
}
