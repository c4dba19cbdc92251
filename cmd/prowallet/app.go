package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/proconnect/prowallet/internal/db"
	"github.com/proconnect/prowallet/internal/handlers"
	"github.com/proconnect/prowallet/internal/logger"
	"github.com/proconnect/prowallet/internal/repository/postgres"
	"github.com/proconnect/prowallet/internal/service/billing"
	"github.com/proconnect/prowallet/internal/service/deposit"
	"github.com/proconnect/prowallet/internal/service/identity"
	"github.com/proconnect/prowallet/internal/service/ledger"
	"github.com/proconnect/prowallet/internal/service/payment"
)

type ServerApp struct {
	ListenAddr string
	Handler    http.Handler
}

func NewServerApp(ctx context.Context, c *Config) (*ServerApp, error) {
	// Initialize logger
	logger, err := logger.New(c.Environment, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("error while initializing logger: %w", err)
	}

	// Connect to the database and run migrations
	pool, err := db.ConnectAndMigrate(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("error while connecting to db. Err: %w", err)
	}

	// Initialize repositories
	storage := postgres.NewStorage(pool)

	// Initialize services
	verifier, err := identity.New(identity.Config{SecretKey: c.SecretKey})
	if err != nil {
		return nil, fmt.Errorf("error while creating token verifier. Err: %w", err)
	}
	ledgerService := ledger.NewService(ledger.Config{LowBalanceThreshold: c.LowBalanceThreshold}, storage)
	billingService := billing.NewService(billing.Config{ClickFee: c.ClickFee}, storage, ledgerService)
	paymentClient := payment.NewClient(payment.Config{
		BaseURL:       c.PaymentBaseURL,
		APIKey:        c.PaymentAPIKey,
		WebhookSecret: c.PaymentWebhookSecret,
		Timeout:       c.PaymentTimeout,
	}, logger)
	depositService := deposit.NewService(storage, ledgerService, paymentClient, logger)

	mux := handlers.NewRouter(
		ledgerService,
		billingService,
		depositService,
		paymentClient,
		verifier,
		logger,
	)

	return &ServerApp{
		ListenAddr: c.ListenAddr,
		Handler:    mux,
	}, nil
}

// Run starts http server and closes gracefully on context cancellation
func (s *ServerApp) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:    s.ListenAddr,
		Handler: s.Handler,
	}

	idleConnsClosed := make(chan struct{})
	srvCtx, srvCtxCancel := context.WithCancel(ctx)
	defer srvCtxCancel()

	go func() {
		<-srvCtx.Done()

		timeoutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(timeoutCtx); err == context.DeadlineExceeded {
			slog.Error("HTTP server shutdown timeout exceeded, forcing shutdown...")
		}
		slog.Info("HTTP server stopped")
		close(idleConnsClosed)
	}()

	// Listen and serve until context is cancelled; then close gracefully connections
	slog.Info("Starting server", "address", s.ListenAddr)
	err := httpServer.ListenAndServe()
	srvCtxCancel()
	<-idleConnsClosed

	return err
}
