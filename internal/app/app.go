// Package app initializes and runs the user service.
// It configures logging, storage, metrics and routing,
// starts the HTTP and gRPC servers and handles graceful shutdown.
package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/patric-chuzhbe/usrsvc/internal/config"
	"github.com/patric-chuzhbe/usrsvc/internal/db/cachedstorage"
	"github.com/patric-chuzhbe/usrsvc/internal/db/jsondb"
	"github.com/patric-chuzhbe/usrsvc/internal/db/memorystorage"
	"github.com/patric-chuzhbe/usrsvc/internal/db/postgresdb"
	"github.com/patric-chuzhbe/usrsvc/internal/grpcserver"
	"github.com/patric-chuzhbe/usrsvc/internal/ipchecker"
	"github.com/patric-chuzhbe/usrsvc/internal/logger"
	"github.com/patric-chuzhbe/usrsvc/internal/metrics"
	"github.com/patric-chuzhbe/usrsvc/internal/models"
	"github.com/patric-chuzhbe/usrsvc/internal/router"
	"github.com/patric-chuzhbe/usrsvc/internal/service"
	"github.com/patric-chuzhbe/usrsvc/internal/user"
)

const shutdownTimeout = 10 * time.Second

type storage interface {
	Save(ctx context.Context, usr *user.User) (*user.User, error)
	FindByID(ctx context.Context, userID int64) (*user.User, bool, error)
	Delete(ctx context.Context, usr *user.User) error
	Count(ctx context.Context) (int64, error)
	Ping(ctx context.Context) error
	Close() error
}

// App encapsulates the configuration, storage backend and the servers
// needed to run the user service.
type App struct {
	cfg         *config.Config
	db          storage
	httpHandler http.Handler
	grpcServer  *grpc.Server
	grpcLis     net.Listener
}

// New initializes a new instance of App by:
// - loading configuration
// - initializing logger
// - selecting and setting up storage
// - setting up the router, metrics and the optional gRPC server
func New() (*App, error) {
	var err error
	app := &App{}

	app.cfg, err = config.New()
	if err != nil {
		return nil, err
	}

	err = logger.Init(app.cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	app.db, err = getStorageByType(app.cfg)
	if err != nil {
		return nil, err
	}

	checker, err := ipchecker.New(app.cfg.TrustedSubnet)
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	svc := service.New(app.db)

	app.httpHandler = router.New(
		svc,
		checker,
		metrics.New(registry),
	)

	if app.cfg.GRPCAddr != "" {
		app.grpcServer, app.grpcLis, err = grpcserver.NewGRPCServer(
			app.cfg.GRPCAddr,
			grpcserver.NewUserHandler(svc),
		)
		if err != nil {
			return nil, err
		}
	}

	return app, nil
}

// Run starts the HTTP server (and the gRPC server when configured) with
// graceful shutdown support. It listens for system signals and cleans up
// resources upon termination.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Log.Infoln("server running", "RunAddr", a.cfg.RunAddr)

	server := &http.Server{
		Addr:    a.cfg.RunAddr,
		Handler: a.httpHandler,
	}

	serverErrCh := make(chan error, 2)
	go func() {
		serverErrCh <- server.ListenAndServe()
	}()

	if a.grpcServer != nil {
		logger.Log.Infoln("gRPC server running", "GRPCAddr", a.grpcLis.Addr().String())
		go func() {
			serverErrCh <- a.grpcServer.Serve(a.grpcLis)
		}()
	}

	select {
	case <-ctx.Done():
		logger.Log.Infoln("Received shutdown signal. Saving database and exiting...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if a.grpcServer != nil {
			a.grpcServer.GracefulStop()
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}

		return a.db.Close()

	case err := <-serverErrCh:
		if a.grpcServer != nil {
			a.grpcServer.Stop()
		}
		if closeErr := a.db.Close(); closeErr != nil {
			logger.Log.Debugln("Error calling the `a.db.Close()`:", zap.Error(closeErr))
		}
		return fmt.Errorf("server error: %w", err)
	}
}

// Close finalizes resources used by App such as logging.
func (a *App) Close() {
	if err := logger.Sync(); err != nil {
		fmt.Println("Logger sync error:", err)
	}
}

func getAvailableStorageType(cfg *config.Config) int {
	if cfg.DatabaseDSN != "" {
		return models.StorageTypePostgresql
	}

	if cfg.DBFileName != "" {
		return models.StorageTypeFile
	}

	return models.StorageTypeMemory
}

func getBaseStorage(cfg *config.Config) (storage, error) {
	switch getAvailableStorageType(cfg) {
	case models.StorageTypeUnknown:
		return nil, errors.New("unknown storage type")

	case models.StorageTypePostgresql:
		return postgresdb.New(
			context.Background(),
			cfg.DatabaseDSN,
			cfg.DBConnectionTimeout,
			cfg.MigrationsDir,
			postgresdb.WithDriverName(cfg.DatabaseDriver),
		)

	case models.StorageTypeFile:
		return jsondb.New(cfg.DBFileName)
	}

	return memorystorage.New()
}

func getStorageByType(cfg *config.Config) (storage, error) {
	db, err := getBaseStorage(cfg)
	if err != nil {
		return nil, err
	}

	if cfg.RedisAddr == "" {
		return db, nil
	}

	cached, err := cachedstorage.New(db, cfg.RedisAddr, cfg.RedisTTL)
	if err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logger.Log.Debugln("Error calling the `db.Close()`:", zap.Error(closeErr))
		}
		return nil, err
	}

	return cached, nil
}
