// Package tips stores reduction tips generated for saved calculations.
package tips

import (
	"context"
	"errors"
	"time"

	"github.com/ecotrace/ecotrace/internal/calculation"
	"github.com/ecotrace/ecotrace/internal/emission"
)

// Tip sources.
const (
	SourceAssistant = "assistant"
	SourceLocal     = "local"
)

// ErrTipsNotFound is returned when no tips were stored for a calculation.
var ErrTipsNotFound = errors.New("tips not found")

// Tips is the list of tips for one calculation.
type Tips struct {
	CalculationID string
	UserID        string
	Tips          []string
	Source        string
	CreatedAt     time.Time
}

// Repository stores tips per calculation.
type Repository interface {
	// Save replaces any tips stored for the calculation.
	Save(ctx context.Context, t *Tips) error

	// Get returns ErrTipsNotFound when nothing is stored or the user does not own it.
	Get(ctx context.Context, userID, calculationID string) (*Tips, error)

	Delete(ctx context.Context, calculationID string) error
}

// ForCalculation returns the stored tips for calc, or the local suggestions
// when none have been generated yet. The returned CreatedAt is zero for local tips.
func ForCalculation(ctx context.Context, repo Repository, calc *calculation.Calculation) (*Tips, error) {
	stored, err := repo.Get(ctx, calc.UserID, calc.ID)
	if err == nil {
		return stored, nil
	}
	if !errors.Is(err, ErrTipsNotFound) {
		return nil, err
	}

	return &Tips{
		CalculationID: calc.ID,
		UserID:        calc.UserID,
		Tips:          emission.Suggestions(calc.Results),
		Source:        SourceLocal,
	}, nil
}
