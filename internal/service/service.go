// Package service implements the request-handling core of the user API.
// Every operation consults the storage and translates the outcome into
// a Response carrying an HTTP status and an optional body.
package service

import (
	"context"
	"errors"
	"net/http"

	"github.com/patric-chuzhbe/usrsvc/internal/models"
	"github.com/patric-chuzhbe/usrsvc/internal/user"
)

type userSaver interface {
	Save(ctx context.Context, usr *user.User) (*user.User, error)
}

type userFinder interface {
	FindByID(ctx context.Context, userID int64) (*user.User, bool, error)
}

type userRemover interface {
	Delete(ctx context.Context, usr *user.User) error
}

type storage interface {
	userSaver
	userFinder
	userRemover
}

type usersCounter interface {
	Count(ctx context.Context) (int64, error)
}

type pinger interface {
	Ping(ctx context.Context) error
}

// ErrStatsUnsupported is returned by Stats when the storage cannot count users.
var ErrStatsUnsupported = errors.New("the storage does not support users counting")

// Response is the outcome of a service operation. Body is nil
// for 404 and 204 responses.
type Response struct {
	Status int
	Body   *user.User
}

type Service struct {
	db storage
}

func New(db storage) *Service {
	return &Service{
		db: db,
	}
}

// Create saves the user unconditionally and responds with whatever the storage returned.
func (s *Service) Create(ctx context.Context, usr *user.User) (Response, error) {
	saved, err := s.db.Save(ctx, usr)
	if err != nil {
		return Response{}, err
	}

	return Response{Status: http.StatusCreated, Body: saved}, nil
}

// Get looks the user up by ID.
func (s *Service) Get(ctx context.Context, userID int64) (Response, error) {
	usr, found, err := s.db.FindByID(ctx, userID)
	if err != nil {
		return Response{}, err
	}
	if !found {
		return Response{Status: http.StatusNotFound}, nil
	}

	return Response{Status: http.StatusOK, Body: usr}, nil
}

// Update saves the record found by userID. The fields of newUser are not
// copied onto the found record: the stored record is saved as is and the
// value returned by the storage becomes the response body.
func (s *Service) Update(ctx context.Context, userID int64, newUser *user.User) (Response, error) {
	existing, found, err := s.db.FindByID(ctx, userID)
	if err != nil {
		return Response{}, err
	}
	if !found {
		return Response{Status: http.StatusNotFound}, nil
	}

	saved, err := s.db.Save(ctx, existing)
	if err != nil {
		return Response{}, err
	}

	return Response{Status: http.StatusOK, Body: saved}, nil
}

// Delete removes the user found by userID.
func (s *Service) Delete(ctx context.Context, userID int64) (Response, error) {
	existing, found, err := s.db.FindByID(ctx, userID)
	if err != nil {
		return Response{}, err
	}
	if !found {
		return Response{Status: http.StatusNotFound}, nil
	}

	if err := s.db.Delete(ctx, existing); err != nil {
		return Response{}, err
	}

	return Response{Status: http.StatusNoContent}, nil
}

// GetInternalStats returns the number of persisted users.
func (s *Service) GetInternalStats(ctx context.Context) (models.InternalStatsResponse, error) {
	counter, ok := s.db.(usersCounter)
	if !ok {
		return models.InternalStatsResponse{}, ErrStatsUnsupported
	}

	users, err := counter.Count(ctx)
	if err != nil {
		return models.InternalStatsResponse{}, err
	}

	return models.InternalStatsResponse{Users: users}, nil
}

// Ping checks the health of the storage layer. Storages without
// a health check are considered healthy.
func (s *Service) Ping(ctx context.Context) error {
	p, ok := s.db.(pinger)
	if !ok {
		return nil
	}

	return p.Ping(ctx)
}
