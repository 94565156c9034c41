package grpcserver

import (
	"context"

	"github.com/thoas/go-funk"
	"google.golang.org/grpc"

	"github.com/patric-chuzhbe/usrsvc/internal/user"
)

// ServiceName is the fully qualified name of the gRPC user service.
const ServiceName = "usrsvc.UserService"

// CreateRequest carries the user to persist.
type CreateRequest struct {
	User *user.User `json:"user"`
}

// GetRequest identifies the user to look up.
type GetRequest struct {
	ID int64 `json:"id"`
}

// UpdateRequest carries the ID of the user to update and the new payload.
type UpdateRequest struct {
	ID   int64      `json:"id"`
	User *user.User `json:"user"`
}

// DeleteRequest identifies the user to remove.
type DeleteRequest struct {
	ID int64 `json:"id"`
}

// UserResponse is returned by Create, Get and Update.
type UserResponse struct {
	User *user.User `json:"user,omitempty"`
}

// DeleteResponse is returned by Delete.
type DeleteResponse struct{}

// UserServiceServer is the server API of the user service.
type UserServiceServer interface {
	Create(ctx context.Context, req *CreateRequest) (*UserResponse, error)
	Get(ctx context.Context, req *GetRequest) (*UserResponse, error)
	Update(ctx context.Context, req *UpdateRequest) (*UserResponse, error)
	Delete(ctx context.Context, req *DeleteRequest) (*DeleteResponse, error)
}

func fullMethodName(method string) string {
	return "/" + ServiceName + "/" + method
}

func unaryHandler[Req, Resp any](
	method string,
	call func(UserServiceServer, context.Context, *Req) (*Resp, error),
) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(
		srv any,
		ctx context.Context,
		dec func(any) error,
		interceptor grpc.UnaryServerInterceptor,
	) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}

		if interceptor == nil {
			return call(srv.(UserServiceServer), ctx, in)
		}

		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethodName(method),
		}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(UserServiceServer), ctx, req.(*Req))
		}

		return interceptor(ctx, in, info, handler)
	}
}

var userServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*UserServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Create", Handler: unaryHandler("Create", UserServiceServer.Create)},
		{MethodName: "Get", Handler: unaryHandler("Get", UserServiceServer.Get)},
		{MethodName: "Update", Handler: unaryHandler("Update", UserServiceServer.Update)},
		{MethodName: "Delete", Handler: unaryHandler("Delete", UserServiceServer.Delete)},
	},
	Streams: []grpc.StreamDesc{},
}

// RegisterUserServiceServer registers srv on the gRPC server s.
func RegisterUserServiceServer(s grpc.ServiceRegistrar, srv UserServiceServer) {
	s.RegisterService(&userServiceDesc, srv)
}

// MethodNames returns the full names of all the user service methods.
func MethodNames() []string {
	return funk.Map(userServiceDesc.Methods, func(method grpc.MethodDesc) string {
		return fullMethodName(method.MethodName)
	}).([]string)
}

// UserServiceClient calls the user service using the JSON codec.
type UserServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewUserServiceClient wraps an established connection.
func NewUserServiceClient(cc grpc.ClientConnInterface) *UserServiceClient {
	return &UserServiceClient{cc: cc}
}

func (c *UserServiceClient) invoke(ctx context.Context, method string, in, out any, opts []grpc.CallOption) error {
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	return c.cc.Invoke(ctx, fullMethodName(method), in, out, opts...)
}

// Create calls UserService.Create.
func (c *UserServiceClient) Create(ctx context.Context, in *CreateRequest, opts ...grpc.CallOption) (*UserResponse, error) {
	out := new(UserResponse)
	if err := c.invoke(ctx, "Create", in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

// Get calls UserService.Get.
func (c *UserServiceClient) Get(ctx context.Context, in *GetRequest, opts ...grpc.CallOption) (*UserResponse, error) {
	out := new(UserResponse)
	if err := c.invoke(ctx, "Get", in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

// Update calls UserService.Update.
func (c *UserServiceClient) Update(ctx context.Context, in *UpdateRequest, opts ...grpc.CallOption) (*UserResponse, error) {
	out := new(UserResponse)
	if err := c.invoke(ctx, "Update", in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

// Delete calls UserService.Delete.
func (c *UserServiceClient) Delete(ctx context.Context, in *DeleteRequest, opts ...grpc.CallOption) (*DeleteResponse, error) {
	out := new(DeleteResponse)
	if err := c.invoke(ctx, "Delete", in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}
