package tips

import (
	"context"
	"slices"
	"sync"
)

// InMemoryRepository is an in-memory implementation of Repository.
type InMemoryRepository struct {
	mu   sync.RWMutex
	tips map[string]*Tips
}

// NewInMemoryRepository creates a new in-memory tips repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{tips: make(map[string]*Tips)}
}

// Save replaces any tips stored for the calculation.
func (r *InMemoryRepository) Save(_ context.Context, t *Tips) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cpy := *t
	cpy.Tips = slices.Clone(t.Tips)
	r.tips[t.CalculationID] = &cpy
	return nil
}

// Get returns the tips of a calculation owned by userID.
func (r *InMemoryRepository) Get(_ context.Context, userID, calculationID string) (*Tips, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tips[calculationID]
	if !ok || t.UserID != userID {
		return nil, ErrTipsNotFound
	}
	cpy := *t
	cpy.Tips = slices.Clone(t.Tips)
	return &cpy, nil
}

// Delete removes the tips of a calculation. Missing tips are not an error.
func (r *InMemoryRepository) Delete(_ context.Context, calculationID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.tips, calculationID)
	return nil
}

var _ Repository = (*InMemoryRepository)(nil)
