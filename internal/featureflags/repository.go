package featureflags

import (
	"context"
	"errors"
)

// ErrFlagNotFound reports a key with no stored switch. Callers fall back to
// the built-in default from DefaultFlags.
var ErrFlagNotFound = errors.New("feature flag not found")

// Repository persists the runtime switches operators flip without a
// redeploy, such as the assistant kill switch, signup gating and the
// dashboard series length. PostgresRepository keeps them in the
// feature_flags table with JSONB values; InMemoryRepository backs tests.
type Repository interface {
	// GetFlag returns the switch stored under key, or ErrFlagNotFound.
	GetFlag(ctx context.Context, key string) (*Flag, error)

	// GetAllFlags returns every stored switch keyed by name. Keys that were
	// never written are absent rather than defaulted.
	GetAllFlags(ctx context.Context) (map[string]*Flag, error)

	// SetFlag upserts one switch and stamps its update time.
	SetFlag(ctx context.Context, flag *Flag) error

	// SetFlags upserts a batch in a single transaction, so an admin update
	// either lands whole or not at all.
	SetFlags(ctx context.Context, flags []*Flag) error

	// DeleteFlag removes a stored switch, reverting it to its default.
	DeleteFlag(ctx context.Context, key string) error
}
