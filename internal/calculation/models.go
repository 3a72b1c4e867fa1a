// Package calculation stores and serves saved carbon footprint calculations.
//
// A calculation is immutable once created: the only mutation is deletion by
// its owner. Results are always recomputed on the server from the inputs.
package calculation

import (
	"errors"
	"time"

	"github.com/ecotrace/ecotrace/internal/api/models"
	"github.com/ecotrace/ecotrace/internal/dashboard"
	"github.com/ecotrace/ecotrace/internal/emission"
)

// Repository errors.
var (
	ErrCalculationNotFound = errors.New("calculation not found")
)

// Calculation is one persisted snapshot of inputs, period, subject and results.
type Calculation struct {
	ID        string
	UserID    string
	Period    Period
	Subject   emission.Subject
	Inputs    emission.Activity
	Results   emission.Result
	CreatedAt time.Time
}

// Period is the stored date range with its day count.
type Period struct {
	From time.Time
	To   time.Time
	Days int
}

// EmissionPeriod converts the stored range for the emission model.
func (p Period) EmissionPeriod() emission.Period {
	return emission.Period{From: p.From, To: p.To}
}

// Record projects the calculation for the dashboard aggregator.
func (c *Calculation) Record() dashboard.Record {
	return dashboard.Record{
		Results:   c.Results,
		Days:      c.Period.Days,
		From:      c.Period.From,
		CreatedAt: c.CreatedAt,
	}
}

// Records projects calculations for the dashboard aggregator, keeping their order.
func Records(calcs []*Calculation) []dashboard.Record {
	out := make([]dashboard.Record, 0, len(calcs))
	for _, c := range calcs {
		out = append(out, c.Record())
	}
	return out
}

// SaveInput is the user-supplied part of a calculation.
type SaveInput struct {
	From          *time.Time
	To            *time.Time
	SubjectType   emission.SubjectType
	HouseholdSize int
	Inputs        emission.Activity
}

// ValidationError represents validation errors.
type ValidationError struct {
	Errors []models.FieldError
}

func (e *ValidationError) Error() string {
	return "validation failed"
}
