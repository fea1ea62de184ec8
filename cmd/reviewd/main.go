// Command reviewd is the contract review orchestrator's process entrypoint:
// it wires configuration, the Postgres-backed session/upload stores, the
// domain plugin registry, the skill dispatcher, the review graph engine,
// the upload worker pool, and the gin HTTP server, then serves until
// terminated.
package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/cosiris15/contract-review/pkg/api"
	"github.com/cosiris15/contract-review/pkg/cleanup"
	"github.com/cosiris15/contract-review/pkg/config"
	"github.com/cosiris15/contract-review/pkg/database"
	"github.com/cosiris15/contract-review/pkg/document"
	"github.com/cosiris15/contract-review/pkg/events"
	"github.com/cosiris15/contract-review/pkg/graph"
	"github.com/cosiris15/contract-review/pkg/llm"
	"github.com/cosiris15/contract-review/pkg/plugins"
	"github.com/cosiris15/contract-review/pkg/prompt"
	"github.com/cosiris15/contract-review/pkg/queue"
	"github.com/cosiris15/contract-review/pkg/session"
	"github.com/cosiris15/contract-review/pkg/skills"
	"github.com/cosiris15/contract-review/pkg/skills/generic"
	"github.com/cosiris15/contract-review/pkg/upload"
)

func main() {
	configDir := flag.String("config-dir", getEnv("CONFIG_DIR", "./deploy/config"), "path to configuration directory")
	flag.Parse()

	logger := slog.Default()

	envPath := filepath.Join(*configDir, ".env")
	if err := godotenv.Load(envPath); err != nil {
		logger.Warn("could not load .env file, continuing with existing environment", "path", envPath, "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Initialize(ctx, *configDir)
	if err != nil {
		logger.Error("failed to initialize configuration", "error", err)
		os.Exit(1)
	}

	dbCfg, err := database.LoadConfigFromEnv()
	if err != nil {
		logger.Error("failed to load database config", "error", err)
		os.Exit(1)
	}

	pool, err := database.NewPool(ctx, dbCfg)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("connected to postgres", "database", dbCfg.Database)

	sessions := session.NewManager(session.NewPostgresStore(pool))
	uploads := upload.NewManager(upload.NewPostgresStore(pool))
	objects := upload.NewMemoryObjectStore()

	registry := plugins.NewRegistry(logger)
	registry.Register(plugins.NewFIDICPlugin())
	registry.Register(plugins.NewSHASPAPlugin())

	var llmClient llm.Client = llm.NullClient{}
	if cfg.LLM.Enabled {
		logger.Warn("llm.enabled is set but no live LLM backend is wired in this build; falling back to NullClient")
	}

	dispatcher := skills.NewDispatcher(nil, logger)
	if err := generic.RegisterAll(dispatcher, generic.Deps{LLMClient: llmClient}); err != nil {
		logger.Error("failed to register generic skills", "error", err)
		os.Exit(1)
	}

	engineOpts := cfg.Engine()
	reviewGraph := &graph.Engine{
		Dispatcher:         dispatcher,
		LLMClient:          llmClient,
		Prompt:             prompt.NewBuilder(),
		Checkpointer:       sessions,
		Logger:             logger,
		Mode:               engineOpts.Mode,
		ReactMaxIterations: engineOpts.ReactMaxIterations,
		ReactClauseTimeout: time.Duration(engineOpts.ReactClauseTimeout),
		ReactTemperature:   engineOpts.ReactTemperature,
		DefaultMaxRetries:  engineOpts.DefaultMaxRetries,
	}
	graphRegistry := graph.NewRegistry()

	cache := events.NewCache(cfg.Retention.EventCacheWindow)
	bus := events.NewBus(cache)
	stopCacheSweep := cache.StartSweeper(time.Minute)
	defer close(stopCacheSweep)

	executor := document.NewExecutor(objects, uploads, sessions)
	workerPool := queue.NewWorkerPool(uploads, executor, queue.DefaultConfig())
	workerPool.Start(ctx)
	defer workerPool.Stop()

	cleanupService := cleanup.NewService(cfg.Retention.GraphIdleWindow, time.Minute, sessions, cache)
	cleanupService.Start(ctx)
	defer cleanupService.Stop()

	server := api.NewServer(api.Deps{
		DB:          pool,
		Sessions:    sessions,
		Uploads:     uploads,
		Objects:     objects,
		ReviewGraph: reviewGraph,
		Registry:    graphRegistry,
		Bus:         bus,
		Cache:       cache,
		Plugins:     registry,
		WorkerPool:  workerPool,
	})

	httpServer := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      server.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("http server listening", "addr", cfg.Server.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server exited unexpectedly", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
