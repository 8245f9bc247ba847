package factory

import (
	"errors"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mcoot/s3arena/internal/dependencies/clock"
	"github.com/mcoot/s3arena/internal/dependencies/random"
	"github.com/mcoot/s3arena/internal/events"
	"github.com/mcoot/s3arena/internal/metrics"
	"github.com/mcoot/s3arena/internal/photo"
	"github.com/mcoot/s3arena/internal/services/account"
	"github.com/mcoot/s3arena/internal/services/auth"
	"github.com/mcoot/s3arena/internal/services/tasks"
	"github.com/mcoot/s3arena/internal/storage"
	"github.com/mcoot/s3arena/internal/storage/memory"
	redisstorage "github.com/mcoot/s3arena/internal/storage/redis"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Metrics
	Registry *prometheus.Registry
	Metrics  *metrics.Collector

	// Services
	Photos         *photo.Store
	AuthService    *auth.Service
	AccountService *account.Service
	TaskService    *tasks.Service
	HubManager     *events.HubManager
}

// Config holds configuration for the application factory
type Config struct {
	// AuthConfig holds configuration for the auth service (optional)
	// If the secret is empty, auth.DefaultConfig() is used with a development secret
	AuthConfig auth.Config
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory" or "redis")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// MediaRoot is where processed photos are written
	// If empty, defaults to "media"
	MediaRoot string
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	// Create storage based on type
	var store storage.Storage
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		store = memory.New()
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		store = redisStore
	default:
		return nil, errors.New("invalid StorageType: must be 'memory' or 'redis'")
	}

	authCfg := cfg.AuthConfig
	if authCfg.Secret == "" {
		authCfg = auth.DefaultConfig()
		authCfg.Secret = "s3arena-dev-secret"
	}

	mediaRoot := cfg.MediaRoot
	if mediaRoot == "" {
		mediaRoot = "media"
	}

	return newWithDependencies(store, clock.New(), random.New(), authCfg, mediaRoot, logger), nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(
	store storage.Storage,
	clk clock.Clock,
	rnd random.Random,
	authCfg auth.Config,
	mediaRoot string,
	logger *slog.Logger,
) *App {
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	photos := photo.NewStore(mediaRoot)
	hubManager := events.NewHubManager(logger)
	publisher := events.NewPublisher(hubManager, logger)

	return &App{
		Storage:        store,
		Clock:          clk,
		Random:         rnd,
		Registry:       registry,
		Metrics:        collector,
		Photos:         photos,
		AuthService:    auth.New(store, clk, rnd, authCfg),
		AccountService: account.New(store, photos, clk, logger),
		TaskService:    tasks.New(store, clk, publisher, collector, logger),
		HubManager:     hubManager,
	}
}
