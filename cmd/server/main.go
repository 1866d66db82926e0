// Package main provides the API server entry point for the crypto dashboard.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/crypto-dashboard/internal/api"
	"github.com/crypto-dashboard/internal/config"
	"github.com/crypto-dashboard/internal/controller"
	"github.com/crypto-dashboard/internal/logging"
	"github.com/crypto-dashboard/internal/marketdata"
	"github.com/crypto-dashboard/internal/ratelimit"
	"github.com/crypto-dashboard/internal/retry"
	"github.com/crypto-dashboard/internal/service"
	"github.com/crypto-dashboard/internal/session"
	"github.com/crypto-dashboard/internal/storage"
	"github.com/crypto-dashboard/internal/worker"
)

func main() {
	fmt.Println("Crypto Dashboard API Server")
	log.Println("Server starting...")

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize structured logging
	logLevel, levelOK := logging.ParseLogLevel(cfg.Logging.Level)
	logFormat, formatOK := logging.ParseLogFormat(cfg.Logging.Format)
	logging.InitGlobalLogger(logLevel, logFormat)

	logger := logging.GetGlobalLogger()
	logger.WithFields(map[string]interface{}{
		"level":  logLevel,
		"format": logFormat,
	}).Info("Structured logging initialized")
	if !levelOK || !formatOK {
		logger.WithFields(map[string]interface{}{
			"level":  cfg.Logging.Level,
			"format": cfg.Logging.Format,
		}).Warn("Unknown logging settings, using defaults")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Account backend; the dashboard runs degraded without one
	var backend *service.Backend
	if cfg.Database.Postgres.Enabled() {
		logger.Info("Connecting to Postgres...")

		// Postgres may still be starting alongside the server
		err := retry.Do(ctx, retry.DefaultConfig(), func(ctx context.Context, attempt int) error {
			return storage.RunMigrations(cfg.Database.Postgres.URL, cfg.Database.Postgres.MigrationsPath)
		})
		if err != nil {
			logger.WithError(err).Fatal("Failed to run Postgres migrations")
		}

		var postgres *storage.PostgresDB
		err = retry.Do(ctx, retry.DefaultConfig(), func(ctx context.Context, attempt int) error {
			db, err := storage.NewPostgresDB(ctx, &cfg.Database.Postgres)
			if err != nil {
				return err
			}
			postgres = db
			return nil
		})
		if err != nil {
			logger.WithError(err).Fatal("Failed to connect to Postgres")
		}
		defer postgres.Close()

		backend = service.NewPostgresBackend(postgres)
		logger.Info("Account backend connected")
	} else {
		logger.Warn("DATABASE_URL not set - account data will only be kept in the snapshot store")
	}

	// Snapshot store for the settings backup
	snapshots, err := storage.OpenSnapshotStore(ctx, cfg)
	if err != nil {
		logger.WithError(err).Fatal("Failed to open snapshot store")
	}
	defer snapshots.Close()
	logger.WithField("store", snapshots.Name()).Info("Snapshot store opened")

	// Market data
	proxy := marketdata.NewProxyFromConfig(&cfg.MarketData)
	if !proxy.Live() {
		logger.Warn("COINMARKETCAP_API_KEY not set - serving fallback market data")
	}
	if proxy.Live() && cfg.MarketData.CreditBudget > 0 {
		budgetRedis, err := storage.NewRedisDB(ctx, &cfg.Database.Redis)
		if err != nil {
			logger.WithError(err).Warn("Redis unavailable - provider credit budget disabled")
		} else {
			defer budgetRedis.Close()
			budget, err := ratelimit.NewCreditBudget(&ratelimit.CreditBudgetConfig{
				Redis:    budgetRedis.Client(),
				Budget:   cfg.MarketData.CreditBudget,
				Reserved: cfg.MarketData.CreditReserved,
				Window:   cfg.MarketData.CreditWindow,
			})
			if err != nil {
				logger.WithError(err).Fatal("Failed to create provider credit budget")
			}
			proxy.SetBudget(budget)
			logger.WithFields(map[string]interface{}{
				"credits": cfg.MarketData.CreditBudget,
				"window":  cfg.MarketData.CreditWindow,
			}).Info("Provider credit budget enabled")
		}
	}
	fetcher := marketdata.NewProxyFetcher(proxy)

	// Services and controllers
	accounts := service.NewAccountService(backend, fetcher)
	registry := controller.NewRegistry(accounts, snapshots, controller.Options{
		KeyPrefix:        cfg.Snapshot.KeyPrefix,
		StatusResetDelay: cfg.Settings.StatusResetDelay,
	})
	defer registry.Close()
	header := controller.NewProfileHeaderController(accounts, snapshots, cfg.Snapshot.KeyPrefix)

	// Widget pollers
	board := worker.NewBoard()
	var pool *worker.Pool
	if cfg.Polling.Enabled {
		pool, err = worker.NewPool(worker.DefaultWidgets(cfg.Polling), fetcher, board)
		if err != nil {
			logger.WithError(err).Fatal("Failed to create widget pollers")
		}
		if err := pool.Start(ctx); err != nil {
			logger.WithError(err).Fatal("Failed to start widget pollers")
		}
		logger.Info("Widget pollers started")
	}

	// Create server configuration
	serverConfig := &api.ServerConfig{
		Host:            cfg.Server.Host,
		Port:            cfg.Server.Port,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		IdleTimeout:     60 * time.Second,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		RateLimitRPS:    cfg.RateLimit.RequestsPerSecond,
		RateLimitBurst:  cfg.RateLimit.Burst,
		SecureCookies:   cfg.Session.SecureCookies,
	}

	server := api.NewServer(serverConfig, api.Dependencies{
		Accounts:      accounts,
		Settings:      registry,
		ProfileHeader: header,
		Proxy:         proxy,
		Widgets:       board,
		Tokens:        session.NewTokenManager(cfg.Session.Secret, cfg.Session.TTL),
		Authenticator: session.NewDemoAuthenticator(session.NewDemoIdentity(cfg.Session.DemoEmail)),
	})

	// Start server in a goroutine
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Server failed to start")
		}
	}()

	logger.WithFields(map[string]interface{}{
		"host": cfg.Server.Host,
		"port": cfg.Server.Port,
	}).Info("Server started successfully")

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), serverConfig.ShutdownTimeout)
	defer shutdownCancel()

	if pool != nil {
		if err := pool.Stop(shutdownCtx); err != nil {
			logger.WithError(err).Warn("Widget pollers did not stop cleanly")
		}
	}

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Fatal("Server forced to shutdown")
	}

	logger.Info("Server exited")
}
