package featureflags

import (
	"context"
	"sync"
	"time"
)

// InMemoryRepository is an in-memory implementation of Repository for tests
// and database-less runs.
type InMemoryRepository struct {
	mu    sync.RWMutex
	flags map[string]*Flag
}

// NewInMemoryRepository creates a repository seeded with DefaultFlags.
func NewInMemoryRepository() *InMemoryRepository {
	return NewInMemoryRepositoryWithFlags(DefaultFlags())
}

// NewInMemoryRepositoryWithFlags creates a repository with initial flags.
func NewInMemoryRepositoryWithFlags(flags map[string]*Flag) *InMemoryRepository {
	repo := &InMemoryRepository{
		flags: make(map[string]*Flag, len(flags)),
	}
	for k, v := range flags {
		cpy := *v
		repo.flags[k] = &cpy
	}
	return repo
}

// GetFlag retrieves a single feature flag by key.
func (r *InMemoryRepository) GetFlag(_ context.Context, key string) (*Flag, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	flag, ok := r.flags[key]
	if !ok {
		return nil, ErrFlagNotFound
	}
	cpy := *flag
	return &cpy, nil
}

// GetAllFlags retrieves all feature flags.
func (r *InMemoryRepository) GetAllFlags(_ context.Context) (map[string]*Flag, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make(map[string]*Flag, len(r.flags))
	for k, v := range r.flags {
		cpy := *v
		result[k] = &cpy
	}
	return result, nil
}

// SetFlag creates or updates a feature flag.
func (r *InMemoryRepository) SetFlag(ctx context.Context, flag *Flag) error {
	return r.SetFlags(ctx, []*Flag{flag})
}

// SetFlags creates or updates multiple feature flags.
func (r *InMemoryRepository) SetFlags(_ context.Context, flags []*Flag) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	for _, flag := range flags {
		r.flags[flag.Key] = &Flag{Key: flag.Key, Value: flag.Value, UpdatedAt: now}
	}
	return nil
}

// DeleteFlag removes a feature flag by key.
func (r *InMemoryRepository) DeleteFlag(_ context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.flags[key]; !ok {
		return ErrFlagNotFound
	}
	delete(r.flags, key)
	return nil
}

// Ensure InMemoryRepository implements Repository interface.
var _ Repository = (*InMemoryRepository)(nil)
