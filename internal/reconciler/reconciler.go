// Package reconciler converges the local player onto server
// snapshots. It owns no timeline state of its own: every pass derives
// the target position from the snapshot it was handed and issues the
// smallest set of player commands that closes the gap.
package reconciler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/nikhil123421/theGlobalMixtape/internal/domain"
	"github.com/nikhil123421/theGlobalMixtape/internal/player"
	"github.com/nikhil123421/theGlobalMixtape/pkg/log"
)

// Control is the slice of server operations the reconciler needs: the
// end-of-track report and the idle-session start request. Transports
// implement it over their respective channels.
type Control interface {
	// ReportEnded tells the server the given track finished locally.
	// The server decides whether that advances anything.
	ReportEnded(ctx context.Context, trackID string) error

	// StartPlayback asks the server to begin playing an idle session's
	// queue.
	StartPlayback(ctx context.Context) error
}

// Reconciler applies snapshots to a Player. Safe for use from multiple
// goroutines; one Apply runs at a time.
type Reconciler struct {
	mu             sync.Mutex
	player         player.Player
	control        Control
	driftThreshold time.Duration
	autoStart      bool

	started        bool
	currentTrackID string
	endedReported  bool
	startRequested bool
}

// Config carries the reconciler's knobs.
type Config struct {
	// DriftThreshold is the largest tolerated gap between the local
	// position and the snapshot-derived target before a corrective
	// seek.
	DriftThreshold time.Duration

	// AutoStart makes the reconciler request playback when it sees an
	// idle session with a non-empty queue.
	AutoStart bool
}

func New(p player.Player, control Control, cfg Config) *Reconciler {
	return &Reconciler{
		player:         p,
		control:        control,
		driftThreshold: cfg.DriftThreshold,
		autoStart:      cfg.AutoStart,
	}
}

// Start releases the reconciler to drive the player. Until then every
// Apply is display-only, so the listener can wait for the user before
// making noise.
func (r *Reconciler) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started = true
}

// CurrentTrackID reports the id the player was last successfully
// loaded with, or empty when nothing is loaded.
func (r *Reconciler) CurrentTrackID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.currentTrackID
}

// Apply converges the player onto one snapshot. Player not-ready
// conditions are contained here: the next snapshot retries.
func (r *Reconciler) Apply(ctx context.Context, snap domain.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	l := log.Ctx(ctx)

	if snap.CurrentTrack == nil {
		return r.applyIdle(ctx, snap)
	}
	r.startRequested = false

	if !r.started {
		return nil
	}

	target := snap.Elapsed()

	if snap.CurrentTrack.ID != r.currentTrackID {
		if err := r.player.Load(ctx, snap.CurrentTrack.ID, target); err != nil {
			l.Warn().Err(err).
				Str(log.FieldTrackID, snap.CurrentTrack.ID).
				Msg("failed to load track, will retry on next snapshot")
			return nil
		}
		r.currentTrackID = snap.CurrentTrack.ID
		r.endedReported = false
		l.Info().
			Str(log.FieldTrackID, snap.CurrentTrack.ID).
			Str("title", snap.CurrentTrack.Title).
			Dur("start_offset", target).
			Msg("now playing")
		return nil
	}

	st, err := r.player.State(ctx)
	if err != nil {
		if errors.Is(err, player.ErrNotReady) {
			return nil
		}
		return err
	}

	switch st {
	case player.StateEnded:
		return r.reportEndedLocked(ctx)
	case player.StateBuffering:
		return nil
	case player.StateIdle:
		// The backend lost the track (crash, external stop) while the
		// server still says it is playing. There is nothing to resume,
		// so load it again at the target position.
		if err := r.player.Load(ctx, r.currentTrackID, target); err != nil {
			l.Warn().Err(err).
				Str(log.FieldTrackID, r.currentTrackID).
				Msg("failed to reload track, will retry on next snapshot")
			return nil
		}
		r.endedReported = false
		return nil
	case player.StatePaused:
		// Server state wins; a locally paused widget gets resumed.
		if err := r.player.Play(ctx); err != nil && !errors.Is(err, player.ErrNotReady) {
			return err
		}
	}

	pos, err := r.player.Position(ctx)
	if err != nil {
		if errors.Is(err, player.ErrNotReady) {
			return nil
		}
		return err
	}

	drift := target - pos
	if drift < 0 {
		drift = -drift
	}
	if drift > r.driftThreshold {
		l.Debug().
			Dur("drift", drift).
			Dur("target", target).
			Msg("drift above threshold, seeking")
		if err := r.player.Seek(ctx, target); err != nil && !errors.Is(err, player.ErrNotReady) {
			return err
		}
	}
	return nil
}

// applyIdle handles the no-current-track snapshot: stop whatever is
// loaded, and optionally nudge the server when tracks are queued.
func (r *Reconciler) applyIdle(ctx context.Context, snap domain.Snapshot) error {
	l := log.Ctx(ctx)

	if r.currentTrackID != "" {
		if err := r.player.Stop(ctx); err != nil && !errors.Is(err, player.ErrNotReady) {
			return err
		}
		r.currentTrackID = ""
		r.endedReported = false
		l.Info().Msg("session idle, playback stopped")
	}

	if r.autoStart && r.started && len(snap.Playlist) > 0 && !r.startRequested {
		if err := r.control.StartPlayback(ctx); err != nil {
			l.Warn().Err(err).Msg("failed to request playback start")
			return nil
		}
		r.startRequested = true
	}
	return nil
}

// NotifyEnded reports a locally observed end of the given track. The
// player's own end event arrives here so the advance signal does not
// have to wait for the next reconcile pass.
func (r *Reconciler) NotifyEnded(ctx context.Context, trackID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if trackID == "" || trackID != r.currentTrackID {
		return nil
	}
	return r.reportEndedLocked(ctx)
}

func (r *Reconciler) reportEndedLocked(ctx context.Context) error {
	if r.endedReported {
		return nil
	}
	if err := r.control.ReportEnded(ctx, r.currentTrackID); err != nil {
		logger := log.Ctx(ctx)
		logger.Warn().Err(err).
			Str(log.FieldTrackID, r.currentTrackID).
			Msg("failed to report track ended")
		return nil
	}
	r.endedReported = true
	return nil
}
