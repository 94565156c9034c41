// Package mockstorage provides a testify-based mock implementation
// of the storage interfaces used by the service, router and gRPC packages.
// It is used for unit testing handlers by simulating storage behavior.
package mockstorage

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/patric-chuzhbe/usrsvc/internal/user"
)

// StorageMock is a testify mock that implements all interfaces
// used by the service for storage operations.
type StorageMock struct {
	mock.Mock

	// OnCount is an optional function field that can be assigned
	// to define custom mock behavior for Count in tests.
	//
	// If set, Count will delegate to this function instead of
	// using testify's generic mock handler.
	OnCount func(ctx context.Context) (int64, error)
}

// Save mocks persisting a user.
func (m *StorageMock) Save(ctx context.Context, usr *user.User) (*user.User, error) {
	args := m.Called(ctx, usr)
	saved, _ := args.Get(0).(*user.User)
	return saved, args.Error(1)
}

// FindByID mocks looking a user up by its ID.
func (m *StorageMock) FindByID(ctx context.Context, userID int64) (*user.User, bool, error) {
	args := m.Called(ctx, userID)
	found, _ := args.Get(0).(*user.User)
	return found, args.Bool(1), args.Error(2)
}

// Delete mocks removing a user.
func (m *StorageMock) Delete(ctx context.Context, usr *user.User) error {
	args := m.Called(ctx, usr)
	return args.Error(0)
}

// Ping mocks the pinger interface to simulate a health check.
func (m *StorageMock) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// Close mocks closing the storage and releasing resources.
func (m *StorageMock) Close() error {
	args := m.Called()
	return args.Error(0)
}

// Count returns the number of users as defined by the mock.
//
// If OnCount is non-nil, it will be called to produce the result.
// Otherwise, the method returns 0 and no error by default.
func (m *StorageMock) Count(ctx context.Context) (int64, error) {
	if m.OnCount != nil {
		return m.OnCount(ctx)
	}
	return 0, nil
}
