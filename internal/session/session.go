// Package session holds the authoritative playback state for the one
// shared room: the current track, the moment it started, and the queue
// of upcoming tracks.
package session

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/nikhil123421/theGlobalMixtape/internal/domain"
)

var (
	// ErrInvalidTrack rejects a track with a missing/empty id.
	ErrInvalidTrack = errors.New("invalid track: empty id")

	// ErrMalformedSignal rejects an end-of-track report that names no
	// track at all. Distinct from a stale report, which is a no-op.
	ErrMalformedSignal = errors.New("ended signal missing track id")
)

// Session is the process-wide playback state machine. Every field is
// guarded by one mutex; in particular the check-and-advance in
// ReportEnded must be a single atomic unit, or two clients reporting
// the same ended track would each pop a track. Operations here are
// human-timescale events, not a hot path, so one lock is plenty.
//
// The invariant readers rely on: currentTrack and startedAt change
// together. No reader may observe a new track with a stale start time.
type Session struct {
	mu        sync.Mutex
	current   *domain.Track
	startedAt time.Time
	queue     []domain.Track
	seq       uint64

	now func() time.Time
}

// New creates an idle session with an empty queue.
func New() *Session {
	return NewWithClock(time.Now)
}

// NewWithClock creates a session using the given clock. Tests use this
// to pin timestamps.
func NewWithClock(now func() time.Time) *Session {
	return &Session{
		queue: make([]domain.Track, 0, 16),
		now:   now,
	}
}

// Enqueue appends a track to the tail of the queue. It never touches
// the current track.
func (s *Session) Enqueue(t domain.Track) error {
	if strings.TrimSpace(t.ID) == "" {
		return ErrInvalidTrack
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue = append(s.queue, t)
	s.seq++
	return nil
}

// PeekCurrent returns a copy of the current track, or nil when idle.
func (s *Session) PeekCurrent() *domain.Track {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return nil
	}
	t := *s.current
	return &t
}

// Advance retires the current track and promotes the head of the
// queue, resetting the start time to now in the same critical section.
// On an empty queue the session goes idle and nil is returned.
func (s *Session) Advance() *domain.Track {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.advanceLocked()
}

func (s *Session) advanceLocked() *domain.Track {
	s.seq++
	if len(s.queue) == 0 {
		s.current = nil
		s.startedAt = time.Time{}
		return nil
	}

	next := s.queue[0]
	s.queue = s.queue[1:]
	s.current = &next
	s.startedAt = s.now()

	t := next
	return &t
}

// ReportEnded arbitrates an end-of-track signal. The signal wins, and
// the queue advances, only when the reported id still names the
// current track at the moment the signal is processed. Every later
// report for the same track finds a different current track and is
// dropped, so N viewers reporting the same ending cause exactly one
// advance. An idle session drops everything.
//
// An empty id is malformed, not a wildcard.
func (s *Session) ReportEnded(trackID string) (bool, error) {
	if strings.TrimSpace(trackID) == "" {
		return false, ErrMalformedSignal
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil || s.current.ID != trackID {
		return false, nil // stale or idle: silent no-op
	}

	s.advanceLocked()
	return true, nil
}

// StartIfIdle advances only when nothing is playing. Racing callers
// are safe for the same reason ReportEnded is: after the first one
// advances, the session is no longer idle.
func (s *Session) StartIfIdle() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != nil || len(s.queue) == 0 {
		return false
	}
	s.advanceLocked()
	return true
}

// Snapshot assembles a consistent point-in-time view: current track,
// its start time, the queue, and the server clock at assembly, all
// read under the same lock.
func (s *Session) Snapshot() domain.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := domain.Snapshot{
		SessionState: domain.SessionState{
			Playlist: make([]domain.Track, len(s.queue)),
		},
		ServerTime: domain.UnixSeconds(s.now()),
		Seq:        s.seq,
	}
	copy(snap.Playlist, s.queue)

	if s.current != nil {
		t := *s.current
		snap.CurrentTrack = &t
		snap.StartTime = domain.UnixSeconds(s.startedAt)
	}

	return snap
}

// Restore replaces the session contents from a previously persisted
// state. Used once at startup when the state mirror has data.
func (s *Session) Restore(state domain.SessionState) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	s.queue = make([]domain.Track, len(state.Playlist))
	copy(s.queue, state.Playlist)

	if state.CurrentTrack != nil {
		t := *state.CurrentTrack
		s.current = &t
		sec := int64(state.StartTime)
		nsec := int64((state.StartTime - float64(sec)) * float64(time.Second))
		s.startedAt = time.Unix(sec, nsec)
	} else {
		s.current = nil
		s.startedAt = time.Time{}
	}
}
