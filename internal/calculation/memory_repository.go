package calculation

import (
	"context"
	"sort"
	"sync"
)

// InMemoryRepository is an in-memory implementation of Repository.
// This is intended for testing. Production should use PostgresRepository.
type InMemoryRepository struct {
	mu    sync.RWMutex
	calcs map[string]*Calculation
}

// NewInMemoryRepository creates a new in-memory calculation repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		calcs: make(map[string]*Calculation),
	}
}

// Create stores a new calculation.
func (r *InMemoryRepository) Create(_ context.Context, c *Calculation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cpy := *c
	r.calcs[c.ID] = &cpy
	return nil
}

// ListByUser returns all calculations of a user, newest first.
func (r *InMemoryRepository) ListByUser(_ context.Context, userID string) ([]*Calculation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Calculation
	for _, c := range r.calcs {
		if c.UserID == userID {
			cpy := *c
			out = append(out, &cpy)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// GetByUserAndID retrieves a calculation owned by userID.
func (r *InMemoryRepository) GetByUserAndID(_ context.Context, userID, id string) (*Calculation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.calcs[id]
	if !ok || c.UserID != userID {
		return nil, ErrCalculationNotFound
	}

	cpy := *c
	return &cpy, nil
}

// Delete removes a calculation.
func (r *InMemoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.calcs[id]; !ok {
		return ErrCalculationNotFound
	}
	delete(r.calcs, id)
	return nil
}

// Ensure InMemoryRepository implements Repository interface.
var _ Repository = (*InMemoryRepository)(nil)
