// Package main provides the entrypoint for the EcoTrace API server.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ecotrace/ecotrace/internal/api"
	"github.com/ecotrace/ecotrace/internal/api/middleware"
	"github.com/ecotrace/ecotrace/internal/assistant"
	"github.com/ecotrace/ecotrace/internal/auth"
	"github.com/ecotrace/ecotrace/internal/calculation"
	"github.com/ecotrace/ecotrace/internal/config"
	"github.com/ecotrace/ecotrace/internal/database"
	"github.com/ecotrace/ecotrace/internal/emission"
	"github.com/ecotrace/ecotrace/internal/events"
	"github.com/ecotrace/ecotrace/internal/featureflags"
	"github.com/ecotrace/ecotrace/internal/provider/resilience"
	"github.com/ecotrace/ecotrace/internal/telemetry"
	"github.com/ecotrace/ecotrace/internal/tips"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

const serviceName = "ecotrace-api"

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

	log.Info().
		Str("build_time", BuildTime).
		Str("environment", cfg.Environment).
		Msg("starting EcoTrace API")

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
	log.Info().Msg("server stopped")
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
	if cfg.OTelEnabled {
		log.Info().Str("otlp_endpoint", cfg.OTLPEndpoint).Msg("OpenTelemetry initialized")
	}

	httpMetrics, err := middleware.NewMetrics()
	if err != nil {
		return err
	}
	instruments, err := telemetry.NewInstruments(tp.Meter)
	if err != nil {
		return err
	}

	dbConfig := database.ConfigFromEnv()
	if err := dbConfig.Validate(); err != nil {
		return err
	}
	if dbConfig.AutoMigrate {
		if err := database.Migrate(dbConfig); err != nil {
			return err
		}
		log.Info().Msg("database migrations applied")
	}
	if version, dirty, err := database.MigrationVersion(dbConfig); err != nil {
		log.Warn().Err(err).Msg("reading schema version failed")
	} else {
		log.Info().Uint("schema_version", version).Bool("dirty", dirty).Msg("database schema")
	}
	pool, err := database.Connect(ctx, dbConfig)
	if err != nil {
		return err
	}
	defer pool.Close()
	log.Info().
		Str("host", dbConfig.Host).
		Int("port", dbConfig.Port).
		Str("database", dbConfig.Database).
		Msg("database connected")

	factors := emission.DefaultFactors()
	if cfg.EmissionFactorsFile != "" {
		factors, err = emission.LoadFactorsFile(cfg.EmissionFactorsFile)
		if err != nil {
			return err
		}
		log.Info().Str("file", cfg.EmissionFactorsFile).Msg("emission factors loaded")
	}

	var publisher events.Publisher = events.NewLogPublisher(log)
	if cfg.PubSubEnabled() {
		ps, err := events.NewPubSubPublisher(ctx, events.PubSubConfig{
			ProjectID: cfg.PubSubProjectID,
			Topic:     cfg.PubSubTopic,
			Logger:    log,
		})
		if err != nil {
			return err
		}
		defer ps.Close()
		publisher = ps
		log.Info().Str("topic", cfg.PubSubTopic).Msg("publishing calculation events to pubsub")
	}

	authService := auth.NewService(auth.ServiceConfig{
		JWTService: auth.NewJWTService(auth.JWTConfig{
			SigningKey: cfg.JWTSigningKey,
			Issuer:     cfg.JWTIssuer,
			Audience:   cfg.JWTAudience,
		}),
		UserRepo:    auth.NewPostgresUserRepository(pool),
		RefreshRepo: auth.NewPostgresRefreshTokenRepository(pool),
		Logger:      log,
	})
	if cfg.JWTSigningKey == config.DevSigningKey {
		log.Warn().Msg("using default JWT signing key - not secure for production")
	}

	calcService := calculation.NewService(calculation.ServiceConfig{
		Repository:  calculation.NewPostgresRepository(pool),
		Factors:     factors,
		Publisher:   publisher,
		Instruments: instruments,
		Logger:      log,
	})

	flags := featureflags.NewService(featureflags.ServiceConfig{
		Repository: featureflags.NewPostgresRepository(pool),
		Logger:     log,
		CacheTTL:   cfg.FlagCacheTTL,
	})

	registry := resilience.NewRegistry()
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
		log.Info().Str("model", gen.Model()).Msg("assistant initialized")
	} else {
		log.Warn().Msg("GEMINI_API_KEY not set - assistant endpoints will return 503")
	}

	rc := resilience.DefaultConfig(assistant.ProviderName)
	rc.Timeout = cfg.AssistantTimeout
	rc.Registry = registry
	rc.Logger = log
	assistantService := assistant.NewService(assistant.ServiceConfig{
		Generator:   generator,
		Switch:      flags,
		Resilience:  rc,
		Instruments: instruments,
		Logger:      log,
	})

	router := api.NewRouter(api.RouterConfig{
		Version:            Version,
		BuildTime:          BuildTime,
		ServiceName:        serviceName,
		Logger:             log,
		Metrics:            httpMetrics,
		RequireTLS:         cfg.RequireTLS,
		SecureCookie:       cfg.IsProduction(),
		AuthService:        authService,
		CalculationService: calcService,
		TipsRepository:     tips.NewPostgresRepository(pool),
		AssistantService:   assistantService,
		FeatureFlagService: flags,
		Registry:           registry,
		Database:           pool,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", server.Addr).Msg("server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
