package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/nkiryanov/cardpay/internal/db"
	"github.com/nkiryanov/cardpay/internal/handlers"
	"github.com/nkiryanov/cardpay/internal/logger"
	"github.com/nkiryanov/cardpay/internal/metrics"
	"github.com/nkiryanov/cardpay/internal/repository/postgres"
	"github.com/nkiryanov/cardpay/internal/service/account"
	"github.com/nkiryanov/cardpay/internal/service/deviceauth"
	"github.com/nkiryanov/cardpay/internal/service/registry"
	"github.com/nkiryanov/cardpay/internal/service/settlement"
	"github.com/nkiryanov/cardpay/internal/service/status"
)

type ServerApp struct {
	ListenAddr string
	Handler    http.Handler

	logger logger.Logger
	pool   *pgxpool.Pool
}

func NewServerApp(ctx context.Context, c *Config) (*ServerApp, error) {
	// Initialize logger
	l, err := logger.New(c.Environment, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("error while initializing logger: %w", err)
	}

	auth, err := deviceauth.New(c.DeviceAuth, c.DeviceKey)
	if err != nil {
		return nil, fmt.Errorf("error while creating device authenticator. Err: %w", err)
	}

	// Connect to the database and run migrations
	pool, err := db.ConnectAndMigrate(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("error while connecting to db. Err: %w", err)
	}

	storage := postgres.NewStorage(pool)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	router := handlers.NewRouter(handlers.Services{
		Registry:      registry.NewService(storage, registry.WithMetrics(m)),
		Settlement:    settlement.NewService(storage, settlement.WithMetrics(m), settlement.WithLogger(l)),
		Status:        status.NewService(storage, status.WithMetrics(m)),
		Accounts:      account.NewService(account.DefaultHasher, storage),
		Authenticator: auth,
	}, handlers.RouterConfig{
		StatusPage: c.StatusPage,
		Gatherer:   reg,
	}, l)

	return &ServerApp{
		ListenAddr: c.ListenAddr,
		Handler:    router,
		logger:     l,
		pool:       pool,
	}, nil
}

// Run starts http server and closes gracefully on context cancellation
func (s *ServerApp) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.ListenAddr,
		Handler:           s.Handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	idleConnsClosed := make(chan struct{})
	srvCtx, srvCtxCancel := context.WithCancel(ctx)
	defer srvCtxCancel()

	go func() {
		<-srvCtx.Done()

		timeoutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(timeoutCtx); errors.Is(err, context.DeadlineExceeded) {
			s.logger.Error("HTTP server shutdown timeout exceeded, forcing shutdown...")
		}
		s.logger.Info("HTTP server stopped")
		close(idleConnsClosed)
	}()

	// Listen and serve until context is cancelled; then close gracefully connections
	s.logger.Info("Starting server", "address", s.ListenAddr)
	err := httpServer.ListenAndServe()
	srvCtxCancel()
	<-idleConnsClosed

	return err
}

func (s *ServerApp) Close() {
	s.pool.Close()
}
