// Package interceptor contains the unary interceptors of the gRPC server.
package interceptor

import (
	"context"
	"time"

	"github.com/thoas/go-funk"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"

	"github.com/patric-chuzhbe/usrsvc/internal/logger"
)

// UnaryLoggingInterceptor logs each incoming unary gRPC request with method, duration and code.
// Methods missing from loggedMethods are passed through silently.
func UnaryLoggingInterceptor(loggedMethods []string) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (resp interface{}, err error) {
		if !funk.ContainsString(loggedMethods, info.FullMethod) {
			return handler(ctx, req)
		}

		start := time.Now()

		resp, err = handler(ctx, req)

		duration := time.Since(start)
		st, _ := status.FromError(err)

		logger.Log.Infoln(
			"gRPC request",
			"method", info.FullMethod,
			"duration", duration,
			"code", st.Code().String(),
			"message", st.Message(),
		)

		return resp, err
	}
}
