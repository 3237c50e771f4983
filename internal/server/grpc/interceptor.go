package grpc

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// loggingInterceptor logs every call with its status code and duration.
// Server-side failures are logged at warn, everything else at debug.
func (s *GRPCServer) loggingInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)

	code := status.Code(err)
	args := []any{"method", info.FullMethod, "code", code.String(), "duration", time.Since(start)}

	switch code {
	case codes.Internal, codes.Unknown, codes.Unavailable:
		s.logger.Warn(ctx, "rpc failed", args...)
	default:
		s.logger.Debug(ctx, "rpc", args...)
	}
	return resp, err
}
