package factory

import (
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/rsheldon/quorum/internal/api/apierr"
	"github.com/rsheldon/quorum/internal/dependencies/clock"
	"github.com/rsheldon/quorum/internal/dependencies/random"
	"github.com/rsheldon/quorum/internal/locks"
	"github.com/rsheldon/quorum/internal/reaper"
	"github.com/rsheldon/quorum/internal/services/auth"
	"github.com/rsheldon/quorum/internal/services/join"
	"github.com/rsheldon/quorum/internal/services/registry"
	"github.com/rsheldon/quorum/internal/storage"
	"github.com/rsheldon/quorum/internal/storage/memory"
	redisstorage "github.com/rsheldon/quorum/internal/storage/redis"
	"github.com/rsheldon/quorum/internal/ws"
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

	// Services
	RegistryService *registry.Service
	JoinService     *join.Service
	AuthService     *auth.Service

	// Connection layer
	HubManager  *ws.HubManager
	Broadcaster *ws.Broadcaster
	WSHandler   *ws.Handler

	// Background work
	Reaper *reaper.Reaper

	// Error presentation
	ErrorTranslator *apierr.Translator
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory" or "redis")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// SessionTTL is the idle duration after which sessions are reaped
	SessionTTL time.Duration
	// Development surfaces unexpected errors verbatim instead of masking them
	Development bool
	// RegistryConfig overrides the session limits (optional)
	RegistryConfig registry.Config
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

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

	return newWithDependencies(store, clock.New(), random.New(), cfg, logger), nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(store storage.Storage, clk clock.Clock, rnd random.Random, cfg Config, logger *slog.Logger) *App {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	regCfg := cfg.RegistryConfig
	if regCfg == (registry.Config{}) {
		regCfg = registry.DefaultConfig()
	}

	ttl := cfg.SessionTTL
	if ttl == 0 {
		ttl = 10 * time.Minute
	}

	sessionLocks := locks.New()
	registryService := registry.New(store, clk, rnd, sessionLocks, regCfg, logger)
	joinService := join.New(store, rnd, sessionLocks, logger)
	authService := auth.New(store, logger)

	hubManager := ws.NewHubManager(logger)
	broadcaster := ws.NewBroadcaster(hubManager, store, sessionLocks, logger)
	wsHandler := ws.NewHandler(authService, joinService, hubManager, broadcaster, cfg.Development, logger)

	return &App{
		Storage:         store,
		Clock:           clk,
		Random:          rnd,
		RegistryService: registryService,
		JoinService:     joinService,
		AuthService:     authService,
		HubManager:      hubManager,
		Broadcaster:     broadcaster,
		WSHandler:       wsHandler,
		Reaper:          reaper.New(store, registryService, clk, ttl, logger),
		ErrorTranslator: apierr.NewTranslator(cfg.Development, logger),
	}
}
