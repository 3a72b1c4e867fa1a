// Package handler provides the HTTP handlers of the EcoTrace API.
package handler

import (
	"context"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ecotrace/ecotrace/internal/api/models"
	"github.com/ecotrace/ecotrace/internal/api/response"
	"github.com/ecotrace/ecotrace/internal/featureflags"
	"github.com/ecotrace/ecotrace/internal/provider/resilience"
)

// Pinger checks a dependency, typically the database pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// OpsHandlerConfig holds configuration for the ops handler.
type OpsHandlerConfig struct {
	Version   string
	BuildTime string
	// Database is nil when running on in-memory storage.
	Database Pinger
	Registry *resilience.Registry
	Flags    *featureflags.Service
	Logger   zerolog.Logger
}

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	version   string
	buildTime string
	db        Pinger
	registry  *resilience.Registry
	flags     *featureflags.Service
	logger    zerolog.Logger
}

// NewOpsHandler creates a new OpsHandler.
func NewOpsHandler(cfg OpsHandlerConfig) *OpsHandler {
	return &OpsHandler{
		version:   cfg.Version,
		buildTime: cfg.BuildTime,
		db:        cfg.Database,
		registry:  cfg.Registry,
		flags:     cfg.Flags,
		logger:    cfg.Logger,
	}
}

// HealthCheck handles GET /v1/ops/health. It only proves the process serves.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, r, http.StatusOK, models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
		Details: map[string]string{
			"version":   h.version,
			"buildTime": h.buildTime,
		},
	})
}

// ReadinessCheck handles GET /v1/ops/ready. It fails with 503 when the
// database does not answer.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	db := h.checkDatabase(r.Context())

	health := models.Health{Status: db.Status, Time: models.Timestamp(time.Now())}
	if db.Detail != nil {
		health.Details = map[string]string{db.Name: *db.Detail}
	}

	status := http.StatusOK
	if db.Status == models.HealthStatusFail {
		status = http.StatusServiceUnavailable
	}
	response.JSON(w, r, status, health)
}

// SystemStatus handles GET /v1/ops/status. External providers only degrade
// the status; the database failing fails it. ActiveFlags lists the kill
// switches that are on.
func (h *OpsHandler) SystemStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	status := models.SystemStatus{
		Status:     models.HealthStatusOK,
		Time:       models.Timestamp(time.Now()),
		Subsystems: []models.SubsystemStatus{h.checkDatabase(ctx)},
		Providers:  []models.ProviderStatus{},
	}
	if status.Subsystems[0].Status == models.HealthStatusFail {
		status.Status = models.HealthStatusFail
	}

	if h.registry != nil {
		for _, ph := range h.registry.GetAllHealth() {
			p := providerStatus(ph)
			if p.Status != models.HealthStatusOK && status.Status == models.HealthStatusOK {
				status.Status = models.HealthStatusDegraded
			}
			status.Providers = append(status.Providers, p)
		}
	}

	if h.flags != nil {
		for key, f := range h.flags.GetAllFlags(ctx) {
			if strings.HasPrefix(key, "disable_") && f.BoolValue(false) {
				status.ActiveFlags = append(status.ActiveFlags, key)
			}
		}
		sort.Strings(status.ActiveFlags)
	}

	response.JSON(w, r, http.StatusOK, status)
}

func (h *OpsHandler) checkDatabase(ctx context.Context) models.SubsystemStatus {
	s := models.SubsystemStatus{Name: "database", Status: models.HealthStatusOK}
	if h.db == nil {
		detail := "in-memory storage"
		s.Detail = &detail
		return s
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := h.db.Ping(ctx); err != nil {
		h.logger.Warn().Err(err).Msg("database ping failed")
		detail := "database unreachable"
		s.Status = models.HealthStatusFail
		s.Detail = &detail
	}
	return s
}

func providerStatus(ph *resilience.ProviderHealth) models.ProviderStatus {
	p := models.ProviderStatus{Provider: ph.Name, Status: models.HealthStatusOK}
	switch {
	case ph.IsUnhealthy():
		p.Status = models.HealthStatusFail
	case ph.IsDegraded():
		p.Status = models.HealthStatusDegraded
	}
	if ph.LastSuccessAt != nil {
		p.LastSuccessAt = timestampPtr(*ph.LastSuccessAt)
	}
	if ph.LastFailureAt != nil {
		p.LastFailureAt = timestampPtr(*ph.LastFailureAt)
	}
	if ph.LastError != "" {
		msg := ph.LastError
		p.Message = &msg
	}
	return p
}
