package handler

import (
	"net/http"

	"github.com/ecotrace/ecotrace/internal/api/models"
	"github.com/ecotrace/ecotrace/internal/api/response"
	"github.com/ecotrace/ecotrace/internal/calculation"
	"github.com/ecotrace/ecotrace/internal/emission"
)

// EmissionHandler serves the public calculator endpoints.
type EmissionHandler struct {
	calcs *calculation.Service
}

// NewEmissionHandler creates a new EmissionHandler.
func NewEmissionHandler(calcs *calculation.Service) *EmissionHandler {
	return &EmissionHandler{calcs: calcs}
}

// ListFactors handles GET /v1/factors.
func (h *EmissionHandler) ListFactors(w http.ResponseWriter, r *http.Request) {
	entries := h.calcs.Factors().Entries()
	items := make([]models.FactorEntry, 0, len(entries))
	for _, e := range entries {
		items = append(items, models.FactorEntry{
			Key:      string(e.Key),
			Category: string(e.Category),
			Factor:   e.Factor,
		})
	}
	w.Header().Set("Cache-Control", "public, max-age=3600")
	response.JSON(w, r, http.StatusOK, models.Factors{Items: items})
}

// Estimate handles POST /v1/estimate. Nothing is stored.
func (h *EmissionHandler) Estimate(w http.ResponseWriter, r *http.Request) {
	var req models.CalculationRequest
	if err := response.Decode(w, r, &req); err != nil {
		response.BadRequest(w, r, err.Error(), nil)
		return
	}

	result := h.calcs.Estimate(toSaveInput(&req))
	response.JSON(w, r, http.StatusOK, models.Estimate{
		Results:     result,
		Suggestions: emission.Suggestions(result),
	})
}
