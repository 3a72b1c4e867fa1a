package calculation

import "context"

// Repository defines the interface for calculation persistence.
type Repository interface {
	// Create stores a new calculation.
	Create(ctx context.Context, calc *Calculation) error

	// ListByUser returns all calculations of a user, newest first.
	ListByUser(ctx context.Context, userID string) ([]*Calculation, error)

	// GetByUserAndID returns ErrCalculationNotFound when the calculation does
	// not exist or belongs to another user.
	GetByUserAndID(ctx context.Context, userID, id string) (*Calculation, error)

	// Delete removes a calculation. Returns ErrCalculationNotFound when nothing was deleted.
	Delete(ctx context.Context, id string) error
}
