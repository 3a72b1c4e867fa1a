package models_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecotrace/ecotrace/internal/api/models"
)

func TestProblem_Builders(t *testing.T) {
	p := models.NewProblem(models.ProblemTypeValidation, "Validation error", http.StatusBadRequest, "req_1").
		WithDetail("period.from is required").
		WithInstance("/v1/me/calculations").
		WithErrors([]models.FieldError{{Field: "period.from", Message: "is required", Code: "REQUIRED"}})

	assert.Equal(t, "period.from is required", p.Detail)
	assert.Equal(t, "/v1/me/calculations", p.Instance)
	require.Len(t, p.Errors, 1)
	assert.Equal(t, "REQUIRED", p.Errors[0].Code)
	assert.True(t, strings.HasPrefix(p.Type, "https://api.ecotrace.dev/problems/"))
}

func TestProblem_Write(t *testing.T) {
	p := models.NewBadRequest("req_test123", "invalid input", []models.FieldError{
		{Field: "inputs", Message: "at least one activity quantity must be greater than zero"},
	})
	p.Instance = "/v1/me/calculations"

	w := httptest.NewRecorder()
	p.Write(w)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))
	assert.Equal(t, "req_test123", w.Header().Get("X-Request-Id"))

	var got models.Problem
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "invalid input", got.Detail)
	assert.Equal(t, "/v1/me/calculations", got.Instance)
	require.Len(t, got.Errors, 1)
	assert.Equal(t, "inputs", got.Errors[0].Field)
}

func TestProblem_Constructors(t *testing.T) {
	tests := []struct {
		name    string
		problem *models.Problem
		typ     string
		title   string
		status  int
	}{
		{"bad request", models.NewBadRequest("req", "d", nil), models.ProblemTypeValidation, "Validation error", http.StatusBadRequest},
		{"unauthorized", models.NewUnauthorized("req", "d"), models.ProblemTypeUnauthorized, "Unauthorized", http.StatusUnauthorized},
		{"forbidden", models.NewForbidden("req", "d"), models.ProblemTypeForbidden, "Forbidden", http.StatusForbidden},
		{"not found", models.NewNotFound("req", "d"), models.ProblemTypeNotFound, "Not found", http.StatusNotFound},
		{"conflict", models.NewConflict("req", "d"), models.ProblemTypeConflict, "Conflict", http.StatusConflict},
		{"too many", models.NewTooManyRequests("req", "d"), models.ProblemTypeTooManyRequests, "Too many requests", http.StatusTooManyRequests},
		{"internal", models.NewInternalError("req", "d"), models.ProblemTypeInternal, "Internal server error", http.StatusInternalServerError},
		{"unavailable", models.NewServiceUnavailable("req", "d"), models.ProblemTypeUnavailable, "Service unavailable", http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.typ, tt.problem.Type)
			assert.Equal(t, tt.title, tt.problem.Title)
			assert.Equal(t, tt.status, tt.problem.Status)
			assert.Equal(t, "d", tt.problem.Detail)
			assert.Equal(t, "req", tt.problem.TraceID)
		})
	}
}

func TestDate_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    time.Time
		wantErr bool
	}{
		{"date only", `"2024-01-31"`, time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), false},
		{"rfc3339", `"2024-01-31T18:30:00Z"`, time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), false},
		{"garbage", `"yesterday"`, time.Time{}, true},
		{"number", `20240131`, time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d models.Date
			err := json.Unmarshal([]byte(tt.input), &d)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(d.Time()), "got %s", d.Time())
		})
	}
}

func TestDate_MarshalJSON(t *testing.T) {
	data, err := json.Marshal(models.Date(time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, err)
	assert.Equal(t, `"2024-03-05"`, string(data))
}

func TestCalculationRequest_NullDates(t *testing.T) {
	var req models.CalculationRequest
	err := json.Unmarshal([]byte(`{"period":{"from":null},"userType":"family","householdSize":3,"inputs":{"energy":{"electricity":100}}}`), &req)
	require.NoError(t, err)

	assert.Nil(t, req.Period.From)
	assert.Nil(t, req.Period.To)
	assert.Equal(t, "family", req.UserType)
	assert.InDelta(t, 100.0, req.Inputs.Energy.Electricity, 1e-9)
}

func TestCalculationRequest_AcceptsDateRangeAlias(t *testing.T) {
	var req models.CalculationRequest
	err := json.Unmarshal([]byte(`{"dateRange":{"from":"2024-01-01","to":"2024-01-31"},"inputs":{}}`), &req)
	require.NoError(t, err)

	period := req.EffectivePeriod()
	require.NotNil(t, period.From)
	require.NotNil(t, period.To)
	assert.Equal(t, 31, period.To.Time().Day())
}
