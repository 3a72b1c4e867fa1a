// Package response writes JSON and problem responses and decodes JSON bodies.
package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/ecotrace/ecotrace/internal/api/middleware"
	"github.com/ecotrace/ecotrace/internal/api/models"
)

// MaxBodyBytes caps request bodies.
const MaxBodyBytes = 1 << 20

// ErrEmptyBody is returned by Decode for a request without a body.
var ErrEmptyBody = errors.New("request body is empty")

// Decode reads a JSON body into dst. Unknown fields are ignored so older
// clients keep working.
func Decode(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return ErrEmptyBody
		case errors.As(err, &maxErr):
			return fmt.Errorf("request body exceeds %d bytes", maxErr.Limit)
		default:
			return fmt.Errorf("invalid JSON body: %w", err)
		}
	}
	return nil
}

// JSON writes data with the given status.
func JSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	setRequestID(w, r)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// Created writes a 201 with a Location header when location is set.
func Created(w http.ResponseWriter, r *http.Request, location string, data any) {
	if location != "" {
		w.Header().Set("Location", location)
	}
	JSON(w, r, http.StatusCreated, data)
}

// NoContent writes a 204.
func NoContent(w http.ResponseWriter, r *http.Request) {
	setRequestID(w, r)
	w.WriteHeader(http.StatusNoContent)
}

func setRequestID(w http.ResponseWriter, r *http.Request) {
	if id := middleware.GetRequestID(r.Context()); id != "" {
		w.Header().Set(middleware.RequestIDHeader, id)
	}
}

// Error writes problem with the request path as its instance.
func Error(w http.ResponseWriter, r *http.Request, problem *models.Problem) {
	setRequestID(w, r)
	problem.Instance = r.URL.Path
	problem.Write(w)
}

func traceID(r *http.Request) string {
	return middleware.GetRequestID(r.Context())
}

// BadRequest writes a 400. errs may be nil.
func BadRequest(w http.ResponseWriter, r *http.Request, detail string, errs []models.FieldError) {
	Error(w, r, models.NewBadRequest(traceID(r), detail, errs))
}

// ValidationFailed writes a 400 listing field errors.
func ValidationFailed(w http.ResponseWriter, r *http.Request, errs []models.FieldError) {
	BadRequest(w, r, "validation error", errs)
}

// Unauthorized writes a 401.
func Unauthorized(w http.ResponseWriter, r *http.Request, detail string) {
	Error(w, r, models.NewUnauthorized(traceID(r), detail))
}

// Forbidden writes a 403.
func Forbidden(w http.ResponseWriter, r *http.Request, detail string) {
	Error(w, r, models.NewForbidden(traceID(r), detail))
}

// NotFound writes a 404.
func NotFound(w http.ResponseWriter, r *http.Request, detail string) {
	Error(w, r, models.NewNotFound(traceID(r), detail))
}

// Conflict writes a 409.
func Conflict(w http.ResponseWriter, r *http.Request, detail string) {
	Error(w, r, models.NewConflict(traceID(r), detail))
}

// InternalError writes a 500. detail must not leak internals.
func InternalError(w http.ResponseWriter, r *http.Request, detail string) {
	Error(w, r, models.NewInternalError(traceID(r), detail))
}

// ServiceUnavailable writes a 503.
func ServiceUnavailable(w http.ResponseWriter, r *http.Request, detail string) {
	Error(w, r, models.NewServiceUnavailable(traceID(r), detail))
}
