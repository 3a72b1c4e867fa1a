// Package api wires the HTTP API of EcoTrace.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/ecotrace/ecotrace/internal/api/handler"
	"github.com/ecotrace/ecotrace/internal/api/middleware"
	"github.com/ecotrace/ecotrace/internal/api/response"
	"github.com/ecotrace/ecotrace/internal/assistant"
	"github.com/ecotrace/ecotrace/internal/auth"
	"github.com/ecotrace/ecotrace/internal/calculation"
	"github.com/ecotrace/ecotrace/internal/featureflags"
	"github.com/ecotrace/ecotrace/internal/provider/resilience"
	"github.com/ecotrace/ecotrace/internal/tips"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version     string
	BuildTime   string
	ServiceName string
	Logger      zerolog.Logger
	Metrics     *middleware.Metrics

	RequireTLS   bool
	SecureCookie bool

	AuthService        *auth.Service
	CalculationService *calculation.Service
	TipsRepository     tips.Repository
	AssistantService   *assistant.Service
	FeatureFlagService *featureflags.Service
	Registry           *resilience.Registry
	// Database is pinged by the readiness check. Nil means in-memory storage.
	Database handler.Pinger
}

// NewRouter creates a chi router with every API route.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "ecotrace-api"
	}

	// Order matters: the request ID must exist before anything logs.
	r.Use(middleware.RequestID)
	r.Use(middleware.Tracing(serviceName))
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware())
	}
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.RequireTLS(cfg.RequireTLS))
	r.Use(middleware.RequireJSON)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.NotFound(w, r, "resource not found")
	})

	opsHandler := handler.NewOpsHandler(handler.OpsHandlerConfig{
		Version:   cfg.Version,
		BuildTime: cfg.BuildTime,
		Database:  cfg.Database,
		Registry:  cfg.Registry,
		Flags:     cfg.FeatureFlagService,
		Logger:    cfg.Logger,
	})
	authHandler := handler.NewAuthHandler(handler.AuthHandlerConfig{
		Service:      cfg.AuthService,
		Signup:       cfg.FeatureFlagService,
		SecureCookie: cfg.SecureCookie,
		Logger:       cfg.Logger,
	})
	emissionHandler := handler.NewEmissionHandler(cfg.CalculationService)
	calculationHandler := handler.NewCalculationHandler(cfg.CalculationService, cfg.TipsRepository, cfg.Logger)
	dashboardHandler := handler.NewDashboardHandler(cfg.CalculationService, cfg.FeatureFlagService, cfg.Logger)
	assistantHandler := handler.NewAssistantHandler(cfg.AssistantService, cfg.Logger)
	featureFlagsHandler := handler.NewFeatureFlagsHandler(cfg.FeatureFlagService, cfg.Logger)

	authMiddleware := middleware.Auth(cfg.AuthService)
	authRateLimit := middleware.RateLimitByIP(middleware.AuthRateLimit)
	expensiveRateLimit := middleware.RateLimitByIP(middleware.ExpensiveRateLimit)
	standardRateLimit := middleware.RateLimitByIP(middleware.StandardRateLimit)

	r.Route("/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Use(authRateLimit)
			r.Post("/signup", authHandler.Signup)
			r.Post("/login", authHandler.Login)
			r.Post("/refresh", authHandler.RefreshToken)
			r.Post("/logout", authHandler.Logout)
			r.Get("/verify", authHandler.Verify)
			r.With(authMiddleware).Post("/logout-all", authHandler.LogoutAll)
		})

		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
			r.With(authMiddleware).Get("/status", opsHandler.SystemStatus)
		})

		// Public calculator
		r.With(standardRateLimit).Get("/factors", emissionHandler.ListFactors)
		r.With(expensiveRateLimit).Post("/estimate", emissionHandler.Estimate)

		r.Route("/me", func(r chi.Router) {
			r.Use(authMiddleware)
			r.Use(middleware.RateLimitByUser(middleware.StandardRateLimit))
			r.Get("/", authHandler.Me)
			r.Get("/dashboard", dashboardHandler.GetDashboard)

			r.Route("/calculations", func(r chi.Router) {
				r.Use(middleware.RateLimitByUser(middleware.CalculationRateLimit))
				r.Get("/", calculationHandler.ListCalculations)
				r.Post("/", calculationHandler.CreateCalculation)
				r.Route("/{calculationId}", func(r chi.Router) {
					r.Get("/", calculationHandler.GetCalculation)
					r.Delete("/", calculationHandler.DeleteCalculation)
					r.Get("/tips", calculationHandler.GetTips)
				})
			})
		})

		r.Route("/assistant", func(r chi.Router) {
			r.Use(authMiddleware)
			r.Use(middleware.RateLimitByUser(middleware.ExpensiveRateLimit))
			r.Post("/chat", assistantHandler.Chat)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(authMiddleware)
			r.Use(standardRateLimit)
			r.Route("/feature-flags", func(r chi.Router) {
				r.Get("/", featureFlagsHandler.ListFeatureFlags)
				r.Put("/", featureFlagsHandler.UpsertFeatureFlags)
				r.Post("/invalidate", featureFlagsHandler.InvalidateCache)
			})
		})
	})

	return r
}
