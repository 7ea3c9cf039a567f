package service

import (
	"context"
	"errors"

	"github.com/nikhil123421/theGlobalMixtape/internal/audit"
	"github.com/nikhil123421/theGlobalMixtape/internal/domain"
	"github.com/nikhil123421/theGlobalMixtape/internal/resolver"
	"github.com/nikhil123421/theGlobalMixtape/internal/session"
	"github.com/nikhil123421/theGlobalMixtape/internal/store"
	"github.com/nikhil123421/theGlobalMixtape/pkg/log"
)

var (
	// ErrInvalidTrack rejects a submission that cannot become a track.
	ErrInvalidTrack = errors.New("invalid track submission")

	// ErrMalformedSignal rejects an ended report naming no track.
	ErrMalformedSignal = errors.New("malformed ended signal")
)

// radioServiceImpl implements RadioService on top of the session state
// machine.
type radioServiceImpl struct {
	session   *session.Session
	resolver  resolver.Resolver
	publisher Publisher
	store     store.StateStore
}

// NewRadioService creates the radio service.
func NewRadioService(sess *session.Session, res resolver.Resolver, pub Publisher, st store.StateStore) RadioService {
	if pub == nil {
		pub = NoOpPublisher{}
	}
	if st == nil {
		st = store.NewNoOpStateStore()
	}
	return &radioServiceImpl{
		session:   sess,
		resolver:  res,
		publisher: pub,
		store:     st,
	}
}

// AddTrack resolves the URL and enqueues the track.
func (s *radioServiceImpl) AddTrack(ctx context.Context, rawURL string) (*domain.Track, error) {
	track, err := s.resolver.Resolve(ctx, rawURL)
	if err != nil {
		if errors.Is(err, resolver.ErrInvalidURL) {
			return nil, ErrInvalidTrack
		}
		return nil, err
	}

	if err := s.session.Enqueue(*track); err != nil {
		if errors.Is(err, session.ErrInvalidTrack) {
			return nil, ErrInvalidTrack
		}
		return nil, err
	}

	audit.Log(ctx, audit.ActionAddTrack, track.ID, "track added to queue")
	s.publishState(ctx)

	return track, nil
}

// ReportEnded runs the advance arbitration.
func (s *radioServiceImpl) ReportEnded(ctx context.Context, trackID string) (bool, error) {
	advanced, err := s.session.ReportEnded(trackID)
	if err != nil {
		if errors.Is(err, session.ErrMalformedSignal) {
			return false, ErrMalformedSignal
		}
		return false, err
	}

	if !advanced {
		// Stale or idle. Silent for the caller; still worth a trace.
		audit.Log(ctx, audit.ActionStaleEnded, trackID, "stale ended signal ignored")
		return false, nil
	}

	detail := "session idle"
	if cur := s.session.PeekCurrent(); cur != nil {
		detail = "now playing " + cur.ID
	}
	audit.LogWithDetail(ctx, audit.ActionAdvance, trackID, detail, "track advanced")
	s.publishState(ctx)

	return true, nil
}

// StartPlayback starts an idle session.
func (s *radioServiceImpl) StartPlayback(ctx context.Context) (bool, error) {
	if !s.session.StartIfIdle() {
		return false, nil
	}

	cur := s.session.PeekCurrent()
	id := ""
	if cur != nil {
		id = cur.ID
	}
	audit.Log(ctx, audit.ActionStart, id, "playback started")
	s.publishState(ctx)

	return true, nil
}

// Snapshot assembles a fresh snapshot.
func (s *radioServiceImpl) Snapshot() domain.Snapshot {
	return s.session.Snapshot()
}

// publishState mirrors the new state and fans it out to push clients.
// Both happen outside the session lock, on a snapshot copy. The mirror
// is best effort: a dead Redis degrades restarts, never playback.
func (s *radioServiceImpl) publishState(ctx context.Context) {
	snap := s.session.Snapshot()

	if err := s.store.Save(ctx, snap.SessionState); err != nil {
		logger := log.Ctx(ctx)
		logger.Warn().Err(err).Msg("failed to mirror session state")
	}

	s.publisher.BroadcastSnapshot(snap)
}

// Ensure radioServiceImpl implements RadioService interface
var _ RadioService = (*radioServiceImpl)(nil)
