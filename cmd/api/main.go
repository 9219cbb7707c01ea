package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/mipractice/mipractice/internal/api"
	"github.com/mipractice/mipractice/internal/assistant"
	"github.com/mipractice/mipractice/internal/cache"
	"github.com/mipractice/mipractice/internal/config"
	"github.com/mipractice/mipractice/internal/orchestrator"
	"github.com/mipractice/mipractice/internal/persona"
	iredis "github.com/mipractice/mipractice/internal/redis"
	"github.com/mipractice/mipractice/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("loading config", "error", err)
		os.Exit(1)
	}

	setupLogger(cfg.Log)

	if err := cfg.Validate(); err != nil {
		slog.Error("validating config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	// Remote assistant service
	client := assistant.NewOpenAIClient(cfg.OpenAI.APIKey)
	if err := client.RetrieveAssistant(ctx, cfg.Assistant.PersonaID); err != nil {
		slog.Error("verifying persona assistant", "error", err)
		os.Exit(1)
	}
	if err := client.RetrieveAssistant(ctx, cfg.Assistant.MonitorID); err != nil {
		slog.Error("verifying monitor assistant", "error", err)
		os.Exit(1)
	}

	// Content-addressed cache
	readyChecks := map[string]func() error{}
	var backend cache.Backend
	switch cfg.Cache.Backend {
	case "memory":
		backend = cache.NewMemoryBackend()
	default:
		redisClient, err := iredis.NewClient(ctx, cfg.Redis)
		if err != nil {
			slog.Error("connecting to redis", "error", err)
			os.Exit(1)
		}
		defer redisClient.Close()
		backend = cache.NewRedisBackend(redisClient)
		readyChecks["cache"] = func() error {
			return redisClient.Ping(context.Background()).Err()
		}
	}
	store := cache.New(backend)

	// Orchestration core
	personaMgr := persona.NewManager()
	orch := orchestrator.New(client, cfg.Run, cfg.Assistant, personaMgr, store)
	handler := orchestrator.NewHandler(orch)

	// Router
	router := api.NewRouter(api.RouterConfig{
		CORSAllowedOrigins: cfg.CORS.AllowedOrigins,
		ReadyChecks:        readyChecks,
	}, api.HandlerSet{
		CreatePersona:  handler.CreatePersona,
		UpdatePersona:  handler.UpdatePersona,
		CreateThread:   handler.CreateThread,
		SendMessage:    handler.SendMessage,
		GetHistory:     handler.GetHistory,
		AnalyzeMessage: handler.AnalyzeMessage,
	})

	// Start server
	srv := server.New(cfg.Server, router)
	if err := srv.Start(); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func setupLogger(cfg config.LogConfig) {
	var handler slog.Handler

	opts := &slog.HandlerOptions{}
	switch cfg.Level {
	case "debug":
		opts.Level = slog.LevelDebug
	case "info":
		opts.Level = slog.LevelInfo
	case "warn":
		opts.Level = slog.LevelWarn
	case "error":
		opts.Level = slog.LevelError
	default:
		opts.Level = slog.LevelInfo
	}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}
