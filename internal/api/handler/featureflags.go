package handler

import (
	"errors"
	"net/http"
	"sort"

	"github.com/rs/zerolog"

	"github.com/ecotrace/ecotrace/internal/api/models"
	"github.com/ecotrace/ecotrace/internal/api/response"
	"github.com/ecotrace/ecotrace/internal/featureflags"
)

// FeatureFlagsHandler handles the admin feature flag endpoints.
type FeatureFlagsHandler struct {
	service *featureflags.Service
	logger  zerolog.Logger
}

// NewFeatureFlagsHandler creates a new FeatureFlagsHandler.
func NewFeatureFlagsHandler(service *featureflags.Service, logger zerolog.Logger) *FeatureFlagsHandler {
	return &FeatureFlagsHandler{service: service, logger: logger}
}

// ListFeatureFlags handles GET /v1/admin/feature-flags.
func (h *FeatureFlagsHandler) ListFeatureFlags(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, r, http.StatusOK, h.list(r))
}

// UpsertFeatureFlags handles PUT /v1/admin/feature-flags.
func (h *FeatureFlagsHandler) UpsertFeatureFlags(w http.ResponseWriter, r *http.Request) {
	var req featureflags.FlagUpdateRequest
	if err := response.Decode(w, r, &req); err != nil {
		response.BadRequest(w, r, err.Error(), nil)
		return
	}
	if len(req.Updates) == 0 {
		response.ValidationFailed(w, r, []models.FieldError{{Field: "updates", Message: "must not be empty", Code: "required"}})
		return
	}

	flags := make([]*featureflags.Flag, 0, len(req.Updates))
	for _, u := range req.Updates {
		flags = append(flags, &featureflags.Flag{Key: u.Key, Value: u.Value})
	}

	if err := h.service.SetFlags(r.Context(), flags); err != nil {
		if errors.Is(err, featureflags.ErrUnknownFlag) {
			response.BadRequest(w, r, err.Error(), nil)
			return
		}
		h.logger.Error().Err(err).Msg("updating feature flags failed")
		response.InternalError(w, r, "failed to update feature flags")
		return
	}

	h.logger.Info().
		Str("user_id", GetUserID(r.Context())).
		Str("reason", req.Reason).
		Int("updates", len(flags)).
		Msg("feature flags updated")

	response.JSON(w, r, http.StatusOK, h.list(r))
}

// InvalidateCache handles POST /v1/admin/feature-flags/invalidate.
func (h *FeatureFlagsHandler) InvalidateCache(w http.ResponseWriter, r *http.Request) {
	h.service.InvalidateCache()
	response.NoContent(w, r)
}

func (h *FeatureFlagsHandler) list(r *http.Request) featureflags.FlagList {
	all := h.service.GetAllFlags(r.Context())
	items := make([]featureflags.Flag, 0, len(all))
	for _, f := range all {
		items = append(items, *f)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Key < items[j].Key })
	return featureflags.FlagList{Items: items}
}
