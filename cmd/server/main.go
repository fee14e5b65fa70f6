package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/rsheldon/quorum/internal/api"
	"github.com/rsheldon/quorum/internal/api/handler"
	"github.com/rsheldon/quorum/internal/factory"
	redisstorage "github.com/rsheldon/quorum/internal/storage/redis"
)

func main() {
	cfg := &config{}
	cmd := newCmd(cfg)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cmd.ExecuteContext(ctx); err != nil {
		slog.Error("fatal", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config) error {
	// JSON logs in production; text is easier on the eyes locally
	var loggerHandler slog.Handler
	if cfg.development() {
		loggerHandler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	} else {
		loggerHandler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	logger := slog.New(loggerHandler)
	slog.SetDefault(logger)

	factoryCfg := factory.Config{
		Logger:      logger,
		StorageType: cfg.storage,
		SessionTTL:  cfg.effectiveTTL(),
		Development: cfg.development(),
	}
	if cfg.storage == factory.StorageTypeRedis {
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = cfg.redisURL
		factoryCfg.RedisConfig = &redisCfg
	}

	app, err := factory.New(factoryCfg)
	if err != nil {
		return err
	}

	// The reaper starts only once the store connection is live
	reaperCtx, stopReaper := context.WithCancel(ctx)
	defer stopReaper()
	go app.Reaper.Run(reaperCtx)

	router := api.NewRouter(api.RouterDeps{
		Join:   handler.NewJoinHandler(app.RegistryService, app.JoinService, app.ErrorTranslator, logger),
		Health: handler.NewHealthHandler(app.Storage, logger),
		WS:     app.WSHandler,
		Logger: logger,
	})

	serverCfg := api.DefaultServerConfig()
	serverCfg.Host = cfg.bind
	serverCfg.Port = cfg.port
	server := api.NewServer(router, serverCfg, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	logger.Info("server started",
		slog.String("addr", server.Addr()),
		slog.String("storage", cfg.storage),
		slog.String("environment", cfg.environment),
		slog.Duration("session_ttl", cfg.effectiveTTL()),
	)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		stopReaper()
		return server.Shutdown(context.Background())
	}
}
