package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/nikhil123421/theGlobalMixtape/internal/domain"
	"github.com/nikhil123421/theGlobalMixtape/internal/resolver"
	"github.com/nikhil123421/theGlobalMixtape/internal/session"
)

// fakeResolver resolves any URL ending in an 11-char id-ish suffix.
type fakeResolver struct {
	tracks map[string]domain.Track
	err    error
}

func (r *fakeResolver) Resolve(ctx context.Context, rawURL string) (*domain.Track, error) {
	if r.err != nil {
		return nil, r.err
	}
	if t, ok := r.tracks[rawURL]; ok {
		return &t, nil
	}
	return nil, resolver.ErrInvalidURL
}

// recordingPublisher counts broadcasts and keeps the last snapshot.
type recordingPublisher struct {
	mu    sync.Mutex
	count int
	last  domain.Snapshot
}

func (p *recordingPublisher) BroadcastSnapshot(snap domain.Snapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.count++
	p.last = snap
}

func (p *recordingPublisher) snapshot() (int, domain.Snapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.count, p.last
}

// recordingStore counts saves.
type recordingStore struct {
	mu    sync.Mutex
	saves int
	last  domain.SessionState
	err   error
}

func (s *recordingStore) Load(ctx context.Context) (*domain.SessionState, error) {
	return nil, nil
}

func (s *recordingStore) Save(ctx context.Context, state domain.SessionState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	s.last = state
	return s.err
}

func newTestService() (RadioService, *session.Session, *recordingPublisher, *recordingStore) {
	sess := session.New()
	res := &fakeResolver{tracks: map[string]domain.Track{
		"https://youtu.be/aaaaaaaaaaa": {ID: "aaaaaaaaaaa", Title: "First"},
		"https://youtu.be/bbbbbbbbbbb": {ID: "bbbbbbbbbbb", Title: "Second"},
	}}
	pub := &recordingPublisher{}
	st := &recordingStore{}
	return NewRadioService(sess, res, pub, st), sess, pub, st
}

func TestAddTrack_EnqueuesAndBroadcasts(t *testing.T) {
	svc, sess, pub, st := newTestService()

	track, err := svc.AddTrack(context.Background(), "https://youtu.be/aaaaaaaaaaa")
	if err != nil {
		t.Fatalf("AddTrack failed: %v", err)
	}
	if track.ID != "aaaaaaaaaaa" {
		t.Errorf("resolved track id = %q", track.ID)
	}

	if cur := sess.PeekCurrent(); cur != nil {
		t.Errorf("AddTrack must not start playback, current = %v", cur)
	}

	count, last := pub.snapshot()
	if count != 1 {
		t.Errorf("broadcast count = %d, want 1", count)
	}
	if len(last.Playlist) != 1 || last.Playlist[0].ID != "aaaaaaaaaaa" {
		t.Errorf("broadcast playlist = %v", last.Playlist)
	}

	st.mu.Lock()
	saves := st.saves
	st.mu.Unlock()
	if saves != 1 {
		t.Errorf("state mirror saves = %d, want 1", saves)
	}
}

func TestAddTrack_InvalidURL(t *testing.T) {
	svc, _, pub, _ := newTestService()

	_, err := svc.AddTrack(context.Background(), "https://example.com/nope")
	if !errors.Is(err, ErrInvalidTrack) {
		t.Fatalf("AddTrack(bad url) = %v, want ErrInvalidTrack", err)
	}

	if count, _ := pub.snapshot(); count != 0 {
		t.Error("rejected submission must not broadcast")
	}
}

func TestReportEnded_BroadcastsOnlyOnAdvance(t *testing.T) {
	svc, _, pub, _ := newTestService()
	ctx := context.Background()

	svc.AddTrack(ctx, "https://youtu.be/aaaaaaaaaaa")
	svc.AddTrack(ctx, "https://youtu.be/bbbbbbbbbbb")
	svc.StartPlayback(ctx)

	base, _ := pub.snapshot()

	advanced, err := svc.ReportEnded(ctx, "aaaaaaaaaaa")
	if err != nil || !advanced {
		t.Fatalf("ReportEnded = (%v, %v), want (true, nil)", advanced, err)
	}
	if count, last := pub.snapshot(); count != base+1 {
		t.Errorf("broadcast count = %d, want %d", count, base+1)
	} else if last.CurrentTrack == nil || last.CurrentTrack.ID != "bbbbbbbbbbb" {
		t.Errorf("broadcast current = %v, want bbbbbbbbbbb", last.CurrentTrack)
	}

	// Stale repeat: acknowledged, no broadcast.
	advanced, err = svc.ReportEnded(ctx, "aaaaaaaaaaa")
	if err != nil {
		t.Fatalf("stale report errored: %v", err)
	}
	if advanced {
		t.Error("stale report advanced")
	}
	if count, _ := pub.snapshot(); count != base+1 {
		t.Error("stale report must not broadcast")
	}
}

func TestReportEnded_EmptyID(t *testing.T) {
	svc, _, _, _ := newTestService()

	if _, err := svc.ReportEnded(context.Background(), ""); !errors.Is(err, ErrMalformedSignal) {
		t.Errorf("ReportEnded(\"\") = %v, want ErrMalformedSignal", err)
	}
}

func TestStartPlayback(t *testing.T) {
	svc, sess, _, _ := newTestService()
	ctx := context.Background()

	started, err := svc.StartPlayback(ctx)
	if err != nil || started {
		t.Fatalf("StartPlayback on empty session = (%v, %v), want (false, nil)", started, err)
	}

	svc.AddTrack(ctx, "https://youtu.be/aaaaaaaaaaa")

	started, err = svc.StartPlayback(ctx)
	if err != nil || !started {
		t.Fatalf("StartPlayback = (%v, %v), want (true, nil)", started, err)
	}
	if cur := sess.PeekCurrent(); cur == nil || cur.ID != "aaaaaaaaaaa" {
		t.Errorf("current = %v, want aaaaaaaaaaa", cur)
	}

	// Already playing: no-op.
	started, _ = svc.StartPlayback(ctx)
	if started {
		t.Error("StartPlayback while playing should report false")
	}
}

func TestMirrorFailureDoesNotFailMutation(t *testing.T) {
	sess := session.New()
	res := &fakeResolver{tracks: map[string]domain.Track{
		"https://youtu.be/aaaaaaaaaaa": {ID: "aaaaaaaaaaa", Title: "First"},
	}}
	st := &recordingStore{err: errors.New("redis down")}
	svc := NewRadioService(sess, res, &recordingPublisher{}, st)

	if _, err := svc.AddTrack(context.Background(), "https://youtu.be/aaaaaaaaaaa"); err != nil {
		t.Fatalf("AddTrack failed because of mirror error: %v", err)
	}
}
