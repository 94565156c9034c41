package grpcserver

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	"github.com/patric-chuzhbe/usrsvc/internal/db/memorystorage"
	"github.com/patric-chuzhbe/usrsvc/internal/logger"
	"github.com/patric-chuzhbe/usrsvc/internal/mockstorage"
	"github.com/patric-chuzhbe/usrsvc/internal/service"
	"github.com/patric-chuzhbe/usrsvc/internal/user"
)

type testStorage interface {
	Save(ctx context.Context, usr *user.User) (*user.User, error)
	FindByID(ctx context.Context, userID int64) (*user.User, bool, error)
	Delete(ctx context.Context, usr *user.User) error
}

type initOptions struct {
	mockStorage testStorage
}

type initOption func(*initOptions)

const (
	addr        = "localhost:0"
	dialTimeout = 5 * time.Second
)

func withMockStorage(db testStorage) initOption {
	return func(options *initOptions) {
		options.mockStorage = db
	}
}

// startTestGRPCServer boots up a test gRPC server and returns the client and shutdown function.
func startTestGRPCServer(t *testing.T, optionsProto ...initOption) (*UserServiceClient, func(), testStorage) {
	options := &initOptions{}
	for _, protoOption := range optionsProto {
		protoOption(options)
	}

	err := logger.Init("debug")
	require.NoError(t, err)

	var db testStorage
	if options.mockStorage != nil {
		db = options.mockStorage
	} else {
		db, err = memorystorage.New()
		require.NoError(t, err)
	}

	server, lis, err := NewGRPCServer(addr, NewUserHandler(service.New(db)))
	require.NoError(t, err)

	go func() {
		if err := server.Serve(lis); err != nil {
			t.Logf("gRPC server stopped: %v", err)
		}
	}()

	dialContext, cancelDial := context.WithTimeout(context.Background(), dialTimeout)
	defer cancelDial()

	conn, err := grpc.DialContext(
		dialContext,
		lis.Addr().String(),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithBlock(),
	)
	require.NoError(t, err)

	return NewUserServiceClient(conn),
		func() {
			server.Stop()
			conn.Close()
			lis.Close()
		},
		db
}

func requireCode(t *testing.T, expected codes.Code, err error) {
	t.Helper()
	require.Error(t, err)
	st, ok := status.FromError(err)
	require.True(t, ok)
	assert.Equal(t, expected, st.Code())
}

func TestCreateAndGet(t *testing.T) {
	client, shutdown, _ := startTestGRPCServer(t)
	defer shutdown()

	ctx := context.Background()

	created, err := client.Create(ctx, &CreateRequest{
		User: &user.User{Name: "John Doe", Email: "john@example.com"},
	})
	require.NoError(t, err)
	assert.Equal(t, &user.User{ID: 1, Name: "John Doe", Email: "john@example.com"}, created.User)

	found, err := client.Get(ctx, &GetRequest{ID: created.User.ID})
	require.NoError(t, err)
	assert.Equal(t, created.User, found.User)

	_, err = client.Get(ctx, &GetRequest{ID: 2})
	requireCode(t, codes.NotFound, err)
}

func TestCreate_MissingUser(t *testing.T) {
	client, shutdown, _ := startTestGRPCServer(t)
	defer shutdown()

	_, err := client.Create(context.Background(), &CreateRequest{})
	requireCode(t, codes.InvalidArgument, err)
}

func TestUpdate(t *testing.T) {
	client, shutdown, _ := startTestGRPCServer(t)
	defer shutdown()

	ctx := context.Background()

	created, err := client.Create(ctx, &CreateRequest{
		User: &user.User{Name: "John Doe", Email: "john@example.com"},
	})
	require.NoError(t, err)

	updated, err := client.Update(ctx, &UpdateRequest{
		ID:   created.User.ID,
		User: &user.User{Name: "Jane Smith", Email: "jane@example.com"},
	})
	require.NoError(t, err)
	assert.Equal(t, created.User, updated.User)

	_, err = client.Update(ctx, &UpdateRequest{
		ID:   42,
		User: &user.User{Name: "Jane Smith"},
	})
	requireCode(t, codes.NotFound, err)

	_, err = client.Update(ctx, &UpdateRequest{ID: created.User.ID})
	requireCode(t, codes.InvalidArgument, err)
}

func TestDelete(t *testing.T) {
	client, shutdown, _ := startTestGRPCServer(t)
	defer shutdown()

	ctx := context.Background()

	created, err := client.Create(ctx, &CreateRequest{User: &user.User{Name: "John Doe"}})
	require.NoError(t, err)

	_, err = client.Delete(ctx, &DeleteRequest{ID: created.User.ID})
	require.NoError(t, err)

	_, err = client.Delete(ctx, &DeleteRequest{ID: created.User.ID})
	requireCode(t, codes.NotFound, err)

	_, err = client.Get(ctx, &GetRequest{ID: created.User.ID})
	requireCode(t, codes.NotFound, err)
}

func TestStorageErrors(t *testing.T) {
	db := new(mockstorage.StorageMock)
	client, shutdown, _ := startTestGRPCServer(t, withMockStorage(db))
	defer shutdown()

	db.On("FindByID", mock.Anything, int64(1)).Return(nil, false, errors.New("db error"))
	db.On("Save", mock.Anything, mock.Anything).Return(nil, errors.New("db error"))

	ctx := context.Background()

	_, err := client.Get(ctx, &GetRequest{ID: 1})
	requireCode(t, codes.Internal, err)

	_, err = client.Create(ctx, &CreateRequest{User: &user.User{Name: "John Doe"}})
	requireCode(t, codes.Internal, err)

	db.AssertNumberOfCalls(t, "FindByID", 1)
	db.AssertNumberOfCalls(t, "Save", 1)
}

func TestMethodNames(t *testing.T) {
	assert.Equal(t, []string{
		"/usrsvc.UserService/Create",
		"/usrsvc.UserService/Get",
		"/usrsvc.UserService/Update",
		"/usrsvc.UserService/Delete",
	}, MethodNames())
}
