package interceptor

import (
	"context"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"book-rental-backend/internal/logger"
)

// Logging records method, status code and latency for every unary call. The
// caller's x-request-id metadata, or a fresh uuid, tags every log record
// written while the call runs.
func Logging() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		reqID := ""
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if v := md.Get("x-request-id"); len(v) > 0 {
				reqID = v[0]
			}
		}
		if reqID == "" {
			reqID = uuid.NewString()
		}
		ctx = logger.WithRequestID(ctx, reqID)

		resp, err := handler(ctx, req)
		code := status.Code(err)
		logger.InfoContext(ctx, "gRPC call", "method", info.FullMethod, "code", code.String(), "duration", time.Since(start))
		return resp, err
	}
}
