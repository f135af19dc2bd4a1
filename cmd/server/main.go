package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/cognify-app/cognify-backend/internal/ai"
	"github.com/cognify-app/cognify-backend/internal/analytics"
	"github.com/cognify-app/cognify-backend/internal/content"
	"github.com/cognify-app/cognify-backend/internal/extract"
	"github.com/cognify-app/cognify-backend/internal/motivation"
	"github.com/cognify-app/cognify-backend/internal/pipeline"
	"github.com/cognify-app/cognify-backend/internal/platform/cache"
	"github.com/cognify-app/cognify-backend/internal/platform/config"
	"github.com/cognify-app/cognify-backend/internal/platform/database"
	"github.com/cognify-app/cognify-backend/internal/server"
	"github.com/cognify-app/cognify-backend/internal/tos"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	slog.SetDefault(newLogger(cfg.Log))

	ctx := context.Background()

	db, err := database.New(ctx, cfg.Database.URL, cfg.Database.MaxConns, cfg.Database.MinConns)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Setup(ctx); err != nil {
		slog.Error("failed to apply schema", "error", err)
		os.Exit(1)
	}

	redis, err := cache.New(ctx, cfg.Cache.URL)
	if err != nil {
		slog.Error("failed to connect to cache", "error", err)
		os.Exit(1)
	}
	defer redis.Close()

	router := newAIRouter(cfg)

	tosStore, err := tos.NewPostgresStore(db.Pool)
	if err != nil {
		slog.Error("failed to create tos store", "error", err)
		os.Exit(1)
	}
	if cfg.TOSPath != "" {
		if n, err := tos.LoadDir(ctx, tosStore, cfg.TOSPath); err != nil {
			slog.Warn("tos seed load failed", "path", cfg.TOSPath, "error", err)
		} else if n > 0 {
			slog.Info("tos blueprints loaded", "count", n)
		}
	}

	moduleStore, err := content.NewPostgresModuleStore(db.Pool)
	if err != nil {
		slog.Error("failed to create module store", "error", err)
		os.Exit(1)
	}
	artifactStore, err := content.NewPostgresStore(db.Pool)
	if err != nil {
		slog.Error("failed to create artifact store", "error", err)
		os.Exit(1)
	}
	runStore, err := pipeline.NewPostgresRunStore(db.Pool)
	if err != nil {
		slog.Error("failed to create run store", "error", err)
		os.Exit(1)
	}
	activityStore, err := analytics.NewPostgresStore(db.Pool)
	if err != nil {
		slog.Error("failed to create activity store", "error", err)
		os.Exit(1)
	}
	motivationStore, err := motivation.NewPostgresStore(db.Pool)
	if err != nil {
		slog.Error("failed to create motivation store", "error", err)
		os.Exit(1)
	}

	// An explicit 0 in the environment means no retries; the generator's own
	// zero value means "use the default".
	maxRetries := cfg.Pipeline.MaxRetries
	if maxRetries == 0 {
		maxRetries = -1
	}

	orchestrator := pipeline.NewOrchestrator(pipeline.OrchestratorConfig{
		Runs:      runStore,
		Modules:   moduleStore,
		TOS:       tosStore,
		Extractor: extract.New(),
		Generator: pipeline.NewGenerator(pipeline.GeneratorConfig{
			Completer:      router,
			MaxModuleChars: cfg.Pipeline.MaxModuleChars,
			MaxRetries:     maxRetries,
		}),
		Artifacts:   artifactStore,
		Events:      pipeline.NewPostgresEventLogger(db.Pool),
		StaleRunTTL: cfg.Pipeline.StaleRunTTL,
		RunTimeout:  cfg.Pipeline.RunTimeout,
	})

	reporter := analytics.NewReporter(analytics.ReporterConfig{
		Store: activityStore,
		Predictor: analytics.NewPredictor(analytics.PredictorConfig{
			OverallWeight: cfg.Analytics.OverallWeight,
			BalanceWeight: cfg.Analytics.BalanceWeight,
		}),
		Cache: redis,
		TTL:   cfg.Analytics.ReportTTL,
	})

	motivationSvc := motivation.NewService(motivation.ServiceConfig{
		Store:     motivationStore,
		Reports:   reporter,
		Completer: router,
	})

	api := server.New(server.Config{
		Orchestrator: orchestrator,
		Runs:         runStore,
		Artifacts:    artifactStore,
		Reporter:     reporter,
		Motivation:   motivationSvc,
		TOS:          tosStore,
		Dependencies: map[string]server.HealthChecker{
			"database": db,
			"cache":    redis,
		},
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      api.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGTERM/SIGINT.
	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	go func() {
		slog.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-sigCtx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}

	// Let in-flight generation runs reach a terminal state.
	orchestrator.Wait()
}

// newLogger builds the process logger from config. Unrecognized values fall
// back to info-level JSON.
func newLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if strings.ToLower(cfg.Format) == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}

// newAIRouter registers whichever providers have keys configured. Google is
// primary; OpenAI is the fallback.
func newAIRouter(cfg *config.Config) *ai.Router {
	router := ai.NewRouter()
	if cfg.AI.Google.APIKey != "" {
		router.Register("google", ai.NewGoogleProvider(cfg.AI.Google.APIKey))
		slog.Info("AI provider registered", "provider", "google")
	}
	if cfg.AI.OpenAI.APIKey != "" {
		router.Register("openai", ai.NewOpenAIProvider(cfg.AI.OpenAI.APIKey))
		slog.Info("AI provider registered", "provider", "openai")
	}
	return router
}
