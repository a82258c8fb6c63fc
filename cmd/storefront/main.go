package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fjod/go_storefront/internal/backend"
	"github.com/fjod/go_storefront/internal/cart"
	"github.com/fjod/go_storefront/internal/catalog"
	"github.com/fjod/go_storefront/internal/checkout"
	"github.com/fjod/go_storefront/internal/config"
	"github.com/fjod/go_storefront/internal/events"
	h "github.com/fjod/go_storefront/internal/http"
	"github.com/fjod/go_storefront/internal/observability"
	"github.com/fjod/go_storefront/internal/orders"
	"github.com/fjod/go_storefront/internal/session"
	"github.com/fjod/go_storefront/internal/storage"
	"go.uber.org/zap"
)

const startupTimeout = 30 * time.Second

func main() {
	logger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}

	os.Exit(exitCode(logger, run(logger)))
}

// exitCode logs a fatal run error and flushes the logger before the process exits.
func exitCode(logger *zap.Logger, err error) int {
	code := 0
	if err != nil {
		logger.Error("storefront stopped", zap.Error(err))
		code = 1
	}
	_ = logger.Sync()
	return code
}

func run(logger *zap.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	startCtx, cancelStart := context.WithTimeout(ctx, startupTimeout)
	defer cancelStart()

	cartStorage, err := storage.Open(startCtx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("open cart storage (%s): %w", cfg.Storage.Driver, err)
	}
	defer func() {
		if err := cartStorage.Close(); err != nil {
			logger.Warn("failed to close cart storage", zap.Error(err))
		}
	}()
	logger.Info("cart storage ready", zap.String("driver", cfg.Storage.Driver))

	client, err := backend.New(cfg.Backend, logger)
	if err != nil {
		return fmt.Errorf("create backend client: %w", err)
	}

	publisher := newPublisher(cfg.Events, logger)
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Warn("failed to close event publisher", zap.Error(err))
		}
	}()

	loader := catalog.NewLoader(client, logger)
	defer loader.Close()

	store := cart.NewStore(cartStorage, loader, logger)
	store.Restore(startCtx)

	sessions := session.NewManager(client, logger)
	if _, err := sessions.Validate(startCtx); err != nil {
		logger.Info("no backend session at startup", zap.Error(err))
	}

	// the storefront is usable before the catalog arrives
	go func() {
		if err := loader.Load(ctx); err != nil {
			logger.Warn("initial catalog load failed", zap.Error(err))
			return
		}
		logger.Info("catalog loaded", zap.Int("products", len(loader.Products())))
	}()

	checkoutSvc := checkout.NewService(client, store, loader, sessions, publisher, cfg.Checkout.ShippingFee, logger)

	router := h.NewRouter(*cfg, h.Deps{
		Catalog:  loader,
		Products: client,
		Cart:     store,
		Checkout: checkoutSvc,
		Orders:   orders.NewService(client),
		Sessions: sessions,
		Accounts: client,
		Admin:    client,
		Logger:   logger,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("storefront starting",
			zap.String("addr", srv.Addr),
			zap.String("backend", cfg.Backend.BaseURL),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	logger.Info("server exited")
	return nil
}

func newPublisher(cfg config.EventsConfig, logger *zap.Logger) events.Publisher {
	if len(cfg.Brokers) == 0 {
		logger.Info("no kafka brokers configured, checkout events disabled")
		return events.NopPublisher{}
	}
	logger.Info("publishing checkout events",
		zap.Strings("brokers", cfg.Brokers),
		zap.String("topic", cfg.Topic),
	)
	return events.NewKafkaPublisher(cfg.Brokers, cfg.Topic, logger)
}
