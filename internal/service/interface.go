package service

import (
	"context"

	"github.com/nikhil123421/theGlobalMixtape/internal/domain"
)

// RadioService defines the business logic of the shared radio: the
// transport-independent core behind both the HTTP handlers and the
// websocket commands.
type RadioService interface {
	// AddTrack resolves a submitted URL and appends the track to the
	// queue. Returns the resolved track.
	AddTrack(ctx context.Context, rawURL string) (*domain.Track, error)

	// ReportEnded processes an end-of-track signal from a client.
	// Returns true when the signal won the arbitration and the queue
	// advanced; false for stale/duplicate signals.
	ReportEnded(ctx context.Context, trackID string) (bool, error)

	// StartPlayback promotes the first queued track when the session
	// is idle. Returns true when playback actually started.
	StartPlayback(ctx context.Context) (bool, error)

	// Snapshot assembles a fresh point-in-time view of the session.
	Snapshot() domain.Snapshot
}

// Publisher delivers a snapshot to every connected push client. The
// service calls it after releasing the session lock, with a snapshot
// copy, so a slow consumer can never hold up a mutation.
type Publisher interface {
	BroadcastSnapshot(snap domain.Snapshot)
}

// NoOpPublisher is used when no push transport is wired (pull-only
// deployments and tests).
type NoOpPublisher struct{}

// BroadcastSnapshot discards the snapshot.
func (NoOpPublisher) BroadcastSnapshot(domain.Snapshot) {}
