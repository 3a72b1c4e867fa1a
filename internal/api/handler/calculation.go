package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/ecotrace/ecotrace/internal/api/models"
	"github.com/ecotrace/ecotrace/internal/api/response"
	"github.com/ecotrace/ecotrace/internal/calculation"
	"github.com/ecotrace/ecotrace/internal/tips"
)

// CalculationHandler handles the saved calculation endpoints.
type CalculationHandler struct {
	calcs  *calculation.Service
	tips   tips.Repository
	logger zerolog.Logger
}

// NewCalculationHandler creates a new CalculationHandler.
func NewCalculationHandler(calcs *calculation.Service, tipsRepo tips.Repository, logger zerolog.Logger) *CalculationHandler {
	return &CalculationHandler{calcs: calcs, tips: tipsRepo, logger: logger}
}

// ListCalculations handles GET /v1/me/calculations.
func (h *CalculationHandler) ListCalculations(w http.ResponseWriter, r *http.Request) {
	calcs, err := h.calcs.List(r.Context(), GetUserID(r.Context()))
	if err != nil {
		h.logger.Error().Err(err).Msg("listing calculations failed")
		response.InternalError(w, r, "failed to list calculations")
		return
	}

	items := make([]models.Calculation, 0, len(calcs))
	for _, c := range calcs {
		items = append(items, toCalculation(c))
	}

	w.Header().Set("Cache-Control", "no-store")
	response.JSON(w, r, http.StatusOK, models.CalculationList{Items: items, Count: len(items)})
}

// CreateCalculation handles POST /v1/me/calculations.
func (h *CalculationHandler) CreateCalculation(w http.ResponseWriter, r *http.Request) {
	var req models.CalculationRequest
	if err := response.Decode(w, r, &req); err != nil {
		response.BadRequest(w, r, err.Error(), nil)
		return
	}

	calc, err := h.calcs.Save(r.Context(), GetUserID(r.Context()), toSaveInput(&req))
	if err != nil {
		var verr *calculation.ValidationError
		if errors.As(err, &verr) {
			response.ValidationFailed(w, r, verr.Errors)
			return
		}
		h.logger.Error().Err(err).Msg("saving calculation failed")
		response.InternalError(w, r, "failed to save calculation")
		return
	}

	response.Created(w, r, "/v1/me/calculations/"+calc.ID, toCalculation(calc))
}

// GetCalculation handles GET /v1/me/calculations/{calculationId}.
func (h *CalculationHandler) GetCalculation(w http.ResponseWriter, r *http.Request) {
	calc, ok := h.load(w, r)
	if !ok {
		return
	}
	response.JSON(w, r, http.StatusOK, toCalculation(calc))
}

// DeleteCalculation handles DELETE /v1/me/calculations/{calculationId}.
func (h *CalculationHandler) DeleteCalculation(w http.ResponseWriter, r *http.Request) {
	err := h.calcs.Delete(r.Context(), GetUserID(r.Context()), chi.URLParam(r, "calculationId"))
	if err != nil {
		if errors.Is(err, calculation.ErrCalculationNotFound) {
			response.NotFound(w, r, "calculation not found")
			return
		}
		h.logger.Error().Err(err).Msg("deleting calculation failed")
		response.InternalError(w, r, "failed to delete calculation")
		return
	}
	response.NoContent(w, r)
}

// GetTips handles GET /v1/me/calculations/{calculationId}/tips. Until the
// worker has stored tips, local suggestions are returned.
func (h *CalculationHandler) GetTips(w http.ResponseWriter, r *http.Request) {
	calc, ok := h.load(w, r)
	if !ok {
		return
	}

	t, err := tips.ForCalculation(r.Context(), h.tips, calc)
	if err != nil {
		h.logger.Error().Err(err).Str("calculation_id", calc.ID).Msg("loading tips failed")
		response.InternalError(w, r, "failed to load tips")
		return
	}

	response.JSON(w, r, http.StatusOK, models.Tips{
		CalculationID: t.CalculationID,
		Tips:          t.Tips,
		Source:        t.Source,
		GeneratedAt:   timestampPtr(t.CreatedAt),
	})
}

// load fetches the calculation named in the URL and writes the error
// response itself when it cannot.
func (h *CalculationHandler) load(w http.ResponseWriter, r *http.Request) (*calculation.Calculation, bool) {
	calc, err := h.calcs.Get(r.Context(), GetUserID(r.Context()), chi.URLParam(r, "calculationId"))
	if err != nil {
		if errors.Is(err, calculation.ErrCalculationNotFound) {
			response.NotFound(w, r, "calculation not found")
			return nil, false
		}
		h.logger.Error().Err(err).Msg("loading calculation failed")
		response.InternalError(w, r, "failed to load calculation")
		return nil, false
	}
	return calc, true
}
