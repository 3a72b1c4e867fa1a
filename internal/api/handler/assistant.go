package handler

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/ecotrace/ecotrace/internal/api/models"
	"github.com/ecotrace/ecotrace/internal/api/response"
	"github.com/ecotrace/ecotrace/internal/assistant"
)

// AssistantHandler handles the chat assistant endpoint.
type AssistantHandler struct {
	service *assistant.Service
	logger  zerolog.Logger
}

// NewAssistantHandler creates a new AssistantHandler.
func NewAssistantHandler(service *assistant.Service, logger zerolog.Logger) *AssistantHandler {
	return &AssistantHandler{service: service, logger: logger}
}

// Chat handles POST /v1/assistant/chat.
func (h *AssistantHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	if err := response.Decode(w, r, &req); err != nil {
		response.BadRequest(w, r, err.Error(), nil)
		return
	}

	reply, err := h.service.Chat(r.Context(), req.Prompt, req.Context)
	if err != nil {
		switch {
		case errors.Is(err, assistant.ErrEmptyPrompt):
			response.ValidationFailed(w, r, []models.FieldError{{Field: "prompt", Message: "is required", Code: "REQUIRED"}})
		case errors.Is(err, assistant.ErrAssistantUnavailable):
			response.ServiceUnavailable(w, r, "the assistant is not available")
		default:
			h.logger.Warn().Err(err).Msg("assistant chat failed")
			response.ServiceUnavailable(w, r, "the assistant could not answer, try again later")
		}
		return
	}

	response.JSON(w, r, http.StatusOK, models.ChatResponse{Response: reply.Text, Tips: reply.Tips})
}
