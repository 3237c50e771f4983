package grpc

import (
	"context"
	"errors"

	pb "github.com/dmitrijs2005/zkvault/internal/proto"
	"github.com/dmitrijs2005/zkvault/internal/server/services"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

func (s *GRPCServer) GetProfile(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	rec, err := pb.ProfileRecordFromStruct(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	p, err := s.profiles.GetProfile(ctx, rec.User)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	return pb.ProfileRecord{
		User:             p.UserName,
		Salt:             p.Salt,
		CanaryIV:         p.CanaryIV,
		CanaryCiphertext: p.CanaryCiphertext,
	}.ToStruct(), nil
}

func (s *GRPCServer) SetSalt(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error) {
	rec, err := pb.ProfileRecordFromStruct(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	if err := s.profiles.SetSalt(ctx, rec.User, rec.Salt); err != nil {
		return nil, s.toStatus(ctx, err)
	}

	s.logger.Info(ctx, "Salt stored", "user", rec.User)
	return &emptypb.Empty{}, nil
}

func (s *GRPCServer) SetCanary(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error) {
	rec, err := pb.ProfileRecordFromStruct(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	if err := s.profiles.SetCanary(ctx, rec.User, rec.CanaryIV, rec.CanaryCiphertext); err != nil {
		return nil, s.toStatus(ctx, err)
	}

	s.logger.Info(ctx, "Canary stored", "user", rec.User)
	return &emptypb.Empty{}, nil
}

func (s *GRPCServer) toStatus(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, services.ErrAlreadySet):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, services.ErrInvalidInput):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return status.FromContextError(err).Err()
	}
	s.logger.Error(ctx, err.Error())
	return status.Error(codes.Internal, "internal error")
}
