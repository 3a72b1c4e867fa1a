// Package main provides the entrypoint for the EcoTrace tips worker.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ecotrace/ecotrace/internal/assistant"
	"github.com/ecotrace/ecotrace/internal/calculation"
	"github.com/ecotrace/ecotrace/internal/config"
	"github.com/ecotrace/ecotrace/internal/database"
	"github.com/ecotrace/ecotrace/internal/featureflags"
	"github.com/ecotrace/ecotrace/internal/provider/resilience"
	"github.com/ecotrace/ecotrace/internal/telemetry"
	"github.com/ecotrace/ecotrace/internal/tips"
	"github.com/ecotrace/ecotrace/internal/worker"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

const serviceName = "ecotrace-worker"

func main() {
	cfg := config.Load()

	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()
	if level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel)); err == nil {
		log = log.Level(level)
	}

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	if !cfg.PubSubEnabled() {
		log.Fatal().Msg("PUBSUB_PROJECT_ID is required for the worker")
	}

	log.Info().Str("build_time", BuildTime).Msg("starting EcoTrace worker")

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("worker exited")
	}
	log.Info().Msg("worker stopped")
}

func run(cfg *config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		Enabled:        cfg.OTelEnabled,
	})
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("failed to shutdown telemetry")
		}
	}()

	instruments, err := telemetry.NewInstruments(tp.Meter)
	if err != nil {
		return err
	}

	dbConfig := database.ConfigFromEnv()
	if err := dbConfig.Validate(); err != nil {
		return err
	}
	pool, err := database.Connect(ctx, dbConfig)
	if err != nil {
		return err
	}
	defer pool.Close()

	flags := featureflags.NewService(featureflags.ServiceConfig{
		Repository: featureflags.NewPostgresRepository(pool),
		Logger:     log,
		CacheTTL:   cfg.FlagCacheTTL,
	})

	var generator assistant.Generator
	if cfg.AssistantEnabled() {
		gen, err := assistant.NewGenAIGenerator(ctx, assistant.GenAIConfig{
			APIKey: cfg.GeminiAPIKey,
			Model:  cfg.AssistantModel,
		})
		if err != nil {
			return err
		}
		generator = gen
	} else {
		log.Warn().Msg("GEMINI_API_KEY not set - storing local suggestions only")
	}

	registry := resilience.NewRegistry()
	rc := resilience.DefaultConfig(assistant.ProviderName)
	rc.Timeout = cfg.AssistantTimeout
	rc.Registry = registry
	rc.Logger = log

	job := worker.NewTipsJob(worker.TipsJobConfig{
		Config: worker.DefaultTipsConfig(),
		Calculations: calculation.NewService(calculation.ServiceConfig{
			Repository: calculation.NewPostgresRepository(pool),
			Logger:     log,
		}),
		Generator: assistant.NewService(assistant.ServiceConfig{
			Generator:   generator,
			Switch:      flags,
			Resilience:  rc,
			Instruments: instruments,
			Logger:      log,
		}),
		Repository:  tips.NewPostgresRepository(pool),
		Switch:      flags,
		Instruments: instruments,
		Logger:      log,
	})

	handler, err := worker.NewPubSubHandler(ctx, worker.PubSubConfig{
		ProjectID:        cfg.PubSubProjectID,
		SubscriptionName: cfg.PubSubSubscription,
		Job:              job,
		Logger:           log,
	})
	if err != nil {
		return err
	}
	defer handler.Close()

	// Cloud Run needs a listening port even for background workers.
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":   "healthy",
			"version":  Version,
			"metrics":  job.Metrics(),
			"provider": registry.GetHealth(assistant.ProviderName),
		})
	})
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", server.Addr).Msg("health server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return handler.Start(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
