package grpcserver

import (
	"context"
	"net/http"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/patric-chuzhbe/usrsvc/internal/logger"
	"github.com/patric-chuzhbe/usrsvc/internal/models"
	"github.com/patric-chuzhbe/usrsvc/internal/service"
	"github.com/patric-chuzhbe/usrsvc/internal/user"
)

type userService interface {
	Create(ctx context.Context, usr *user.User) (service.Response, error)
	Get(ctx context.Context, userID int64) (service.Response, error)
	Update(ctx context.Context, userID int64, newUser *user.User) (service.Response, error)
	Delete(ctx context.Context, userID int64) (service.Response, error)
}

// UserHandler implements UserServiceServer on top of the user service.
type UserHandler struct {
	svc userService
}

func NewUserHandler(svc userService) *UserHandler {
	return &UserHandler{svc: svc}
}

func (h *UserHandler) Create(ctx context.Context, req *CreateRequest) (*UserResponse, error) {
	if req.User == nil {
		return nil, status.Error(codes.InvalidArgument, models.ErrMissingUser.Error())
	}

	result, err := h.svc.Create(ctx, req.User)
	if statusErr := toStatusError(result, err, "h.svc.Create()"); statusErr != nil {
		return nil, statusErr
	}

	return &UserResponse{User: result.Body}, nil
}

func (h *UserHandler) Get(ctx context.Context, req *GetRequest) (*UserResponse, error) {
	result, err := h.svc.Get(ctx, req.ID)
	if statusErr := toStatusError(result, err, "h.svc.Get()"); statusErr != nil {
		return nil, statusErr
	}

	return &UserResponse{User: result.Body}, nil
}

func (h *UserHandler) Update(ctx context.Context, req *UpdateRequest) (*UserResponse, error) {
	if req.User == nil {
		return nil, status.Error(codes.InvalidArgument, models.ErrMissingUser.Error())
	}

	result, err := h.svc.Update(ctx, req.ID, req.User)
	if statusErr := toStatusError(result, err, "h.svc.Update()"); statusErr != nil {
		return nil, statusErr
	}

	return &UserResponse{User: result.Body}, nil
}

func (h *UserHandler) Delete(ctx context.Context, req *DeleteRequest) (*DeleteResponse, error) {
	result, err := h.svc.Delete(ctx, req.ID)
	if statusErr := toStatusError(result, err, "h.svc.Delete()"); statusErr != nil {
		return nil, statusErr
	}

	return &DeleteResponse{}, nil
}

func toStatusError(result service.Response, err error, call string) error {
	if err != nil {
		logger.Log.Debugln("Error calling the `"+call+"`:", zap.Error(err))
		return status.Error(codes.Internal, "storage failure")
	}

	if result.Status == http.StatusNotFound {
		return status.Error(codes.NotFound, "user not found")
	}

	return nil
}
