package interceptor

import (
	"context"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"book-reservation-backend/internal/logger"
)

// Logging tags each unary call with a request ID (taken from the
// x-request-id metadata when present) and logs its outcome
func Logging() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		requestID := ""
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if ids := md.Get("x-request-id"); len(ids) > 0 {
				requestID = ids[0]
			}
		}
		if requestID == "" {
			requestID = uuid.NewString()
		}
		ctx = logger.WithRequestID(ctx, requestID)

		start := time.Now()
		resp, err := handler(ctx, req)

		code := status.Code(err)
		if err != nil {
			logger.WarnContext(ctx, "gRPC call failed", "method", info.FullMethod, "code", code.String(), "error", err)
		} else {
			logger.DebugContext(ctx, "gRPC call", "method", info.FullMethod, "code", code.String(), "duration_ms", time.Since(start).Milliseconds())
		}
		return resp, err
	}
}
