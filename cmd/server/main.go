package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mcoot/s3arena/internal/api"
	"github.com/mcoot/s3arena/internal/config"
	"github.com/mcoot/s3arena/internal/factory"
	"github.com/mcoot/s3arena/internal/metrics"
	"github.com/mcoot/s3arena/internal/services/auth"
	redisstorage "github.com/mcoot/s3arena/internal/storage/redis"
)

// hubSweepInterval is how often idle per-user event hubs are closed
const hubSweepInterval = time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Set up logging with JSON output
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)

	if cfg.InsecureSecret() {
		logger.Warn("JWT_SECRET not set, using the development secret")
	}

	authCfg := auth.DefaultConfig()
	authCfg.Secret = cfg.JWTSecret
	authCfg.AccessTTL = cfg.AccessTokenTTL
	authCfg.RefreshTTL = cfg.RefreshTokenTTL

	factoryCfg := factory.Config{
		AuthConfig:  authCfg,
		Logger:      logger,
		StorageType: cfg.StorageType,
		MediaRoot:   cfg.MediaRoot,
	}

	// Configure Redis if storage type is redis
	if cfg.StorageType == config.StorageRedis {
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = cfg.RedisURL
		factoryCfg.RedisConfig = &redisCfg
	}

	// Create application factory
	app, err := factory.New(factoryCfg)
	if err != nil {
		logger.Error("failed to create application", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer app.HubManager.Close()

	router := api.NewRouter(api.RouterConfig{
		Logger:         logger,
		Clock:          app.Clock,
		AuthService:    app.AuthService,
		AccountService: app.AccountService,
		TaskService:    app.TaskService,
		HubManager:     app.HubManager,
		Metrics:        app.Metrics,
		MetricsHandler: metrics.Handler(app.Registry),
		MediaRoot:      app.Photos.Root(),
		LoginRate:      cfg.LoginRate,
		LoginBurst:     cfg.LoginBurst,
	})

	// Create server
	serverConfig := api.DefaultServerConfig()
	serverConfig.Host = cfg.HTTPHost
	serverConfig.Port = cfg.HTTPPort
	server := api.NewServer(router, serverConfig, logger)

	// Handle graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go sweepHubs(ctx, app)

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	logger.Info("server started",
		slog.String("addr", server.Addr()),
		slog.String("storage", cfg.StorageType),
	)

	// Wait for shutdown or error
	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		if err := server.Shutdown(context.Background()); err != nil {
			logger.Error("shutdown error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	logger.Info("server stopped")
}

// sweepHubs periodically drops hubs whose streams have all disconnected
func sweepHubs(ctx context.Context, app *factory.App) {
	ticker := app.Clock.NewTicker(hubSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
			app.HubManager.CleanupEmptyHubs()
		}
	}
}
