package handler

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/ecotrace/ecotrace/internal/api/models"
	"github.com/ecotrace/ecotrace/internal/api/response"
	"github.com/ecotrace/ecotrace/internal/calculation"
	"github.com/ecotrace/ecotrace/internal/dashboard"
	"github.com/ecotrace/ecotrace/internal/emission"
)

// SeriesLength returns the number of entries in the dashboard chart.
type SeriesLength interface {
	DashboardSeriesLength(ctx context.Context) int
}

// DashboardHandler serves the dashboard.
type DashboardHandler struct {
	calcs  *calculation.Service
	series SeriesLength
	logger zerolog.Logger
}

// NewDashboardHandler creates a new DashboardHandler. series may be nil.
func NewDashboardHandler(calcs *calculation.Service, series SeriesLength, logger zerolog.Logger) *DashboardHandler {
	return &DashboardHandler{calcs: calcs, series: series, logger: logger}
}

// GetDashboard handles GET /v1/me/dashboard.
func (h *DashboardHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	calcs, err := h.calcs.List(ctx, GetUserID(ctx))
	if err != nil {
		h.logger.Error().Err(err).Msg("loading dashboard failed")
		response.InternalError(w, r, "failed to load dashboard")
		return
	}

	n := dashboard.DefaultSeriesLength
	if h.series != nil {
		n = h.series.DashboardSeriesLength(ctx)
	}

	records := calculation.Records(calcs)
	dashboard.SortNewestFirst(records)
	suggestions := []string{}
	if len(records) > 0 {
		suggestions = emission.Suggestions(records[0].Results)
	}

	w.Header().Set("Cache-Control", "no-store")
	response.JSON(w, r, http.StatusOK, models.Dashboard{
		Summary:     dashboard.Summarize(records),
		Series:      dashboard.MonthlySeries(records, n),
		Suggestions: suggestions,
	})
}
