package store

import (
	"context"

	"github.com/nikhil123421/theGlobalMixtape/internal/domain"
)

// StateStore mirrors the playback session state in external storage.
// The in-memory session stays authoritative; the mirror is written
// best-effort after each mutation and read once at startup, so a
// restarted server picks the tape back up where it left off.
type StateStore interface {
	// Load retrieves the mirrored state. Returns nil when nothing has
	// been stored yet.
	Load(ctx context.Context) (*domain.SessionState, error)

	// Save overwrites the mirrored state.
	Save(ctx context.Context, state domain.SessionState) error
}

// NoOpStateStore is used when no external store is configured or
// reachable. Load finds nothing, Save discards.
type NoOpStateStore struct{}

// NewNoOpStateStore creates a new no-op state store.
func NewNoOpStateStore() *NoOpStateStore {
	return &NoOpStateStore{}
}

// Load always returns nil (no mirrored state).
func (s *NoOpStateStore) Load(ctx context.Context) (*domain.SessionState, error) {
	return nil, nil
}

// Save discards the state.
func (s *NoOpStateStore) Save(ctx context.Context, state domain.SessionState) error {
	return nil
}
