package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/01moynul/taptosell-orders/internal/config"
	"github.com/01moynul/taptosell-orders/internal/database"
	"github.com/01moynul/taptosell-orders/internal/handlers"
	"github.com/01moynul/taptosell-orders/internal/middleware"
	"github.com/01moynul/taptosell-orders/internal/models"
	"github.com/01moynul/taptosell-orders/internal/notify"
	"github.com/01moynul/taptosell-orders/internal/orders"
	"github.com/01moynul/taptosell-orders/internal/routes"
	"github.com/01moynul/taptosell-orders/internal/store"
	"github.com/01moynul/taptosell-orders/internal/store/memory"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// backend bundles what both store drivers provide.
type backend interface {
	orders.Store
	handlers.Catalog
	middleware.UserLookup
}

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", "taptosell-orders").Logger()

	// 0. --- Load Configuration (.env + environment) ---
	cf, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}
	if lvl, err := zerolog.ParseLevel(cf.LogLevel); err == nil {
		logger = logger.Level(lvl)
	}
	if cf.GinMode != "" {
		gin.SetMode(cf.GinMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. --- Store ---
	var st backend
	switch cf.StoreDriver {
	case config.StoreMemory:
		mem := memory.New()
		mem.SeedUser(models.User{ID: 1, Email: "admin@taptosell.local", FullName: "Local Admin", Role: models.RoleAdmin})
		mem.SeedUser(models.User{ID: 2, Email: "customer@taptosell.local", FullName: "Local Customer", Role: models.RoleCustomer})
		logger.Warn().Msg("using in-memory store; data is lost on exit (seeded users 1=admin, 2=customer)")
		st = mem

	default:
		if cf.MigrateOnStart {
			if err := database.Migrate(cf.DSN, logger); err != nil {
				logger.Fatal().Err(err).Msg("failed to migrate database")
			}
		}
		db, err := database.OpenDB(ctx, cf.DSN, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to primary database")
		}
		defer db.Close()
		st = store.New(db)
	}

	// 2. --- Notifications ---
	sink, err := openSink(cf, logger)
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cf.NotifyDriver).Msg("failed to open notification sink")
	}
	dispatcher := notify.NewDispatcher(sink, cf.NotifyBuffer, logger)

	// --- Application Setup ---
	app := &handlers.Handlers{
		Orders:        orders.NewService(st, dispatcher, logger),
		Catalog:       st,
		Log:           logger,
		RetryAttempts: cf.TxRetryAttempts,
	}

	// --- Router Setup ---
	router := routes.SetupRouter(app, routes.Options{
		JWTSecret:  []byte(cf.JWTSecret),
		Users:      st,
		CORSOrigin: cf.CORSOrigin,
		Logger:     logger,
	})

	srv := &http.Server{
		Addr:              ":" + cf.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// --- Start Server ---
	go func() {
		logger.Info().Str("addr", srv.Addr).Str("store", cf.StoreDriver).Str("notify", cf.NotifyDriver).Msg("starting TapToSell orders API")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
	}
	// Requests are done; flush what they published.
	if err := dispatcher.Close(); err != nil {
		logger.Error().Err(err).Msg("notification sink close failed")
	}
}

func openSink(cf *config.Config, logger zerolog.Logger) (notify.Sink, error) {
	switch cf.NotifyDriver {
	case config.NotifyAMQP:
		return notify.DialAMQP(cf.AMQPURL, cf.AMQPQueue)
	case config.NotifyKafka:
		return notify.NewKafkaSink(cf.KafkaBrokers, cf.KafkaTopic)
	default:
		return notify.NewLogSink(logger), nil
	}
}
