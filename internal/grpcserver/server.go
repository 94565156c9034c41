// Package grpcserver serves the user service over gRPC with a JSON codec.
package grpcserver

import (
	"net"

	"google.golang.org/grpc"

	"github.com/patric-chuzhbe/usrsvc/internal/grpcserver/interceptor"
)

func NewGRPCServer(
	addr string,
	handler UserServiceServer,
) (*grpc.Server, net.Listener, error) {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, nil, err
	}

	server := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			interceptor.UnaryLoggingInterceptor(MethodNames()),
		),
	)
	RegisterUserServiceServer(server, handler)

	return server, lis, nil
}
