package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"

	"adpilot/internal/adapter/copywriter"
	"adpilot/internal/adapter/datasync"
	httpadapter "adpilot/internal/adapter/http"
	"adpilot/internal/adapter/platform"
	"adpilot/internal/adapter/postgres"
	"adpilot/internal/adapter/usecase"
	"adpilot/internal/cache"
	"adpilot/internal/config"
	"adpilot/internal/core/port"
	"adpilot/internal/db"
	"adpilot/internal/retry"
	"adpilot/internal/scheduler"
)

// main loads configuration, runs migrations if requested, wires the
// adapters into the automation engine and serves HTTP until a
// termination signal arrives.
func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	var logger *slog.Logger
	{
		var handler slog.Handler
		level := cfg.Log.SlogLevel()
		switch cfg.Log.SlogFormat() {
		case "json":
			handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
		default:
			handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
		}
		logger = slog.New(handler)
	}

	if cfg.Psql.RunMigrations {
		if err = db.Migrate(cfg.Psql.Addr.String()); err != nil {
			logger.Error("migration error", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("migrations applied successfully")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	pool, err := db.NewPostgresPool(ctx, cfg.Psql)
	if err != nil {
		logger.Error("database connection error", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()
	store := postgres.NewEngineStore(pool)

	var cacheStore port.Cache
	if cfg.Redis.Enabled {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		cacheStore = cache.NewRedis(client)
		logger.Info("using redis cache", slog.String("addr", cfg.Redis.Addr))
	} else {
		cacheStore = cache.NewMemory()
	}

	exec := retry.New(retry.Policy{
		MaxAttempts: cfg.Engine.MaxAttempts,
		Timeout:     cfg.Engine.CallTimeout,
	}, logger)

	registry := platform.NewRegistry(
		platform.NewMeta(cfg.Platforms.Meta, exec, logger),
		platform.NewTikTok(cfg.Platforms.TikTok, exec, logger),
		platform.NewGoogle(cfg.Platforms.Google, exec, logger),
	)
	syncClient := datasync.New(cfg.DataSync, exec, logger)

	var writer port.CopyWriter = copywriter.Template{}
	if cfg.GenAI.Enabled {
		gemini, err := copywriter.NewGemini(ctx, cfg.GenAI, logger)
		if err != nil {
			logger.Warn("genai client unavailable, using template copy", slog.Any("error", err))
		} else {
			writer = gemini
		}
	}

	engine, err := usecase.NewEngine(registry, syncClient, store, cacheStore, writer, cfg.Engine, logger)
	if err != nil {
		logger.Error("engine wiring error", slog.Any("error", err))
		os.Exit(1)
	}

	sched, err := scheduler.New(engine, cfg.Engine.RuleCheckSpec, logger)
	if err != nil {
		logger.Error("scheduler error", slog.Any("error", err))
		os.Exit(1)
	}
	sched.Start()
	defer sched.Stop()

	handler := httpadapter.NewHandler(engine, logger)
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler: handler.Router(),
	}

	go func() {
		logger.Info("server listening", slog.Int("port", int(cfg.HTTP.Port)))
		if err = srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.Any("error", err))
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err = srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
	} else {
		logger.Info("server gracefully stopped")
	}
}
