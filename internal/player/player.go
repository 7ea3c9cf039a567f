// Package player defines the capability interface the reconciler
// drives, plus implementations: mpv over JSON IPC for real listening,
// and a mock for tests.
package player

import (
	"context"
	"errors"
	"time"
)

// ErrNotReady means the backend exists but cannot honor the command
// yet (still starting, nothing loaded, property not available). This
// is an expected outcome, not an exception path: the reconciler treats
// it as "try again next pass".
var ErrNotReady = errors.New("player not ready")

// State is the playback state of the local widget.
type State int

const (
	StateIdle State = iota
	StatePlaying
	StatePaused
	StateBuffering
	StateEnded
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateBuffering:
		return "buffering"
	case StateEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// Player encapsulates the capabilities of a local media backend. Every
// call may return ErrNotReady.
type Player interface {
	// Load replaces whatever is playing with the given track, starting
	// at the given offset.
	Load(ctx context.Context, trackID string, start time.Duration) error

	// Play resumes/starts playback of the loaded track.
	Play(ctx context.Context) error

	// Stop halts playback and unloads the track.
	Stop(ctx context.Context) error

	// Seek moves to an absolute position in the loaded track.
	Seek(ctx context.Context, pos time.Duration) error

	// Position reports the current playback position.
	Position(ctx context.Context) (time.Duration, error)

	// State reports the playback state.
	State(ctx context.Context) (State, error)

	// SetVolume sets the output volume in percent (0-100+).
	SetVolume(ctx context.Context, percent int) error
}
