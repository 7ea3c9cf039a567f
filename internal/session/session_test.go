package session

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/nikhil123421/theGlobalMixtape/internal/domain"
)

func track(id string) domain.Track {
	return domain.Track{ID: id, Title: "Track " + id}
}

func mustEnqueue(t *testing.T, s *Session, ids ...string) {
	t.Helper()
	for _, id := range ids {
		if err := s.Enqueue(track(id)); err != nil {
			t.Fatalf("Enqueue(%q) failed: %v", id, err)
		}
	}
}

func TestEnqueue_RejectsEmptyID(t *testing.T) {
	s := New()

	if err := s.Enqueue(domain.Track{Title: "no id"}); !errors.Is(err, ErrInvalidTrack) {
		t.Errorf("Enqueue with empty id = %v, want ErrInvalidTrack", err)
	}
	if err := s.Enqueue(domain.Track{ID: "   "}); !errors.Is(err, ErrInvalidTrack) {
		t.Errorf("Enqueue with blank id = %v, want ErrInvalidTrack", err)
	}
	if len(s.Snapshot().Playlist) != 0 {
		t.Error("rejected tracks must not mutate the queue")
	}
}

func TestEnqueue_DoesNotTouchCurrent(t *testing.T) {
	s := New()
	mustEnqueue(t, s, "A")

	if cur := s.PeekCurrent(); cur != nil {
		t.Errorf("PeekCurrent() = %v after Enqueue, want nil", cur)
	}
}

func TestAdvance_PopsHeadAndResetsStart(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	s := NewWithClock(func() time.Time { return now })
	mustEnqueue(t, s, "A", "B")

	cur := s.Advance()
	if cur == nil || cur.ID != "A" {
		t.Fatalf("Advance() = %v, want track A", cur)
	}

	snap := s.Snapshot()
	if snap.CurrentTrack == nil || snap.CurrentTrack.ID != "A" {
		t.Fatalf("snapshot current = %v, want A", snap.CurrentTrack)
	}
	if snap.StartTime != domain.UnixSeconds(now) {
		t.Errorf("snapshot start_time = %v, want %v", snap.StartTime, domain.UnixSeconds(now))
	}
	if len(snap.Playlist) != 1 || snap.Playlist[0].ID != "B" {
		t.Errorf("snapshot playlist = %v, want [B]", snap.Playlist)
	}
}

func TestAdvance_EmptyQueueGoesIdle(t *testing.T) {
	s := New()
	mustEnqueue(t, s, "A")
	s.Advance()

	if cur := s.Advance(); cur != nil {
		t.Fatalf("Advance() on empty queue = %v, want nil", cur)
	}
	if cur := s.PeekCurrent(); cur != nil {
		t.Errorf("PeekCurrent() = %v after draining, want nil", cur)
	}
}

func TestReportEnded_AtMostOneAdvance(t *testing.T) {
	const k = 64

	s := New()
	mustEnqueue(t, s, "A", "B")
	s.Advance() // current = A

	var (
		wg       sync.WaitGroup
		advanced int64
		mu       sync.Mutex
	)
	start := make(chan struct{})

	for i := 0; i < k; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			ok, err := s.ReportEnded("A")
			if err != nil {
				t.Errorf("ReportEnded returned error: %v", err)
			}
			if ok {
				mu.Lock()
				advanced++
				mu.Unlock()
			}
		}()
	}
	close(start)
	wg.Wait()

	if advanced != 1 {
		t.Errorf("%d of %d concurrent reports advanced, want exactly 1", advanced, k)
	}
	cur := s.PeekCurrent()
	if cur == nil || cur.ID != "B" {
		t.Errorf("current after race = %v, want B (popped exactly once)", cur)
	}
}

func TestReportEnded_StaleIsNoOp(t *testing.T) {
	s := New()
	mustEnqueue(t, s, "A", "B")
	s.Advance()

	if ok, _ := s.ReportEnded("A"); !ok {
		t.Fatal("first report for A should advance")
	}

	ok, err := s.ReportEnded("A")
	if err != nil {
		t.Fatalf("stale report returned error: %v", err)
	}
	if ok {
		t.Error("late report for A advanced again")
	}
	if cur := s.PeekCurrent(); cur == nil || cur.ID != "B" {
		t.Errorf("current after stale report = %v, want B unchanged", cur)
	}
}

func TestReportEnded_IdleSessionRejectsAll(t *testing.T) {
	s := New()

	ok, err := s.ReportEnded("anything")
	if err != nil {
		t.Fatalf("report on idle session returned error: %v", err)
	}
	if ok {
		t.Error("report on idle session advanced")
	}
}

func TestReportEnded_EmptyIDIsMalformed(t *testing.T) {
	s := New()
	mustEnqueue(t, s, "A")
	s.Advance()

	if _, err := s.ReportEnded(""); !errors.Is(err, ErrMalformedSignal) {
		t.Errorf("ReportEnded(\"\") = %v, want ErrMalformedSignal", err)
	}
	if _, err := s.ReportEnded("  "); !errors.Is(err, ErrMalformedSignal) {
		t.Errorf("ReportEnded(blank) = %v, want ErrMalformedSignal", err)
	}
	if cur := s.PeekCurrent(); cur == nil || cur.ID != "A" {
		t.Error("malformed signal must not mutate the session")
	}
}

func TestStartIfIdle(t *testing.T) {
	s := New()

	if s.StartIfIdle() {
		t.Error("StartIfIdle with empty queue should report false")
	}

	mustEnqueue(t, s, "A")
	if !s.StartIfIdle() {
		t.Error("StartIfIdle with queued track should advance")
	}
	if s.StartIfIdle() {
		t.Error("StartIfIdle while playing should be a no-op")
	}
	if cur := s.PeekCurrent(); cur == nil || cur.ID != "A" {
		t.Errorf("current = %v, want A", cur)
	}
}

func TestSnapshot_IdleSession(t *testing.T) {
	s := New()
	snap := s.Snapshot()

	if snap.CurrentTrack != nil {
		t.Error("idle snapshot must carry no current track")
	}
	if snap.StartTime != 0 {
		t.Errorf("idle snapshot start_time = %v, want 0", snap.StartTime)
	}
	if snap.Playlist == nil {
		t.Error("playlist must be an empty list, never null on the wire")
	}
}

func TestSnapshot_IsACopy(t *testing.T) {
	s := New()
	mustEnqueue(t, s, "A", "B")

	snap := s.Snapshot()
	snap.Playlist[0] = track("mutated")

	if got := s.Snapshot().Playlist[0].ID; got != "A" {
		t.Errorf("session queue head = %q after mutating a snapshot, want A", got)
	}
}

// Elapsed must depend only on the two server-clock fields, so a
// receiver gets the same answer no matter how wrong its own clock is.
func TestSnapshot_ElapsedIsSkewFree(t *testing.T) {
	start := time.Unix(1_700_000_000, 0)
	server := start.Add(42 * time.Second)

	snap := domain.Snapshot{
		SessionState: domain.SessionState{
			CurrentTrack: &domain.Track{ID: "A"},
			StartTime:    domain.UnixSeconds(start),
		},
		ServerTime: domain.UnixSeconds(server),
	}

	if got := snap.Elapsed(); got != 42*time.Second {
		t.Errorf("Elapsed() = %v, want 42s", got)
	}
}

func TestSnapshot_SequenceAdvancesWithEveryMutation(t *testing.T) {
	s := New()
	last := s.Snapshot().Seq

	step := func(name string) {
		t.Helper()
		seq := s.Snapshot().Seq
		if seq <= last {
			t.Fatalf("%s: seq = %d, want > %d", name, seq, last)
		}
		last = seq
	}

	mustEnqueue(t, s, "A")
	step("Enqueue")
	if !s.StartIfIdle() {
		t.Fatal("StartIfIdle failed")
	}
	step("StartIfIdle")
	mustEnqueue(t, s, "B")
	step("Enqueue B")
	if ok, _ := s.ReportEnded("A"); !ok {
		t.Fatal("ReportEnded should advance")
	}
	step("ReportEnded")

	// A snapshot on its own does not move the sequence.
	if seq := s.Snapshot().Seq; seq != last {
		t.Errorf("Snapshot alone moved seq to %d, want %d", seq, last)
	}
}

func TestEmptyQueueConvergence(t *testing.T) {
	s := New()
	mustEnqueue(t, s, "A")
	s.Advance()

	// Queue drains: session goes idle.
	if ok, _ := s.ReportEnded("A"); !ok {
		t.Fatal("report for A should advance to idle")
	}
	if s.PeekCurrent() != nil {
		t.Fatal("session should be idle after draining")
	}

	// A fresh add and start must not be blocked by residual state.
	mustEnqueue(t, s, "B")
	if !s.StartIfIdle() {
		t.Fatal("StartIfIdle should promote B")
	}
	if ok, _ := s.ReportEnded("B"); !ok {
		t.Error("ended signal for B should advance normally")
	}
}

// The full timeline from the protocol description: queue [A, B], three
// concurrent ended-reports for A, a late straggler, then draining.
func TestEndToEndScenario(t *testing.T) {
	s := New()
	mustEnqueue(t, s, "A", "B")

	if cur := s.Advance(); cur == nil || cur.ID != "A" {
		t.Fatalf("Advance() = %v, want A", cur)
	}

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.ReportEnded("A")
		}()
	}
	wg.Wait()

	if cur := s.PeekCurrent(); cur == nil || cur.ID != "B" {
		t.Fatalf("after 3 concurrent reports current = %v, want B", cur)
	}
	if n := len(s.Snapshot().Playlist); n != 0 {
		t.Fatalf("playlist length = %d, want 0", n)
	}

	// Fourth, late report for A: no-op.
	if ok, _ := s.ReportEnded("A"); ok {
		t.Fatal("late report for A advanced")
	}
	if cur := s.PeekCurrent(); cur == nil || cur.ID != "B" {
		t.Fatal("late report changed current track")
	}

	// B ends, queue empty: idle.
	if ok, _ := s.ReportEnded("B"); !ok {
		t.Fatal("report for B should advance")
	}
	if s.PeekCurrent() != nil {
		t.Fatal("session should be idle")
	}

	// Adding C enqueues only; current stays none until the next advance.
	mustEnqueue(t, s, "C")
	if s.PeekCurrent() != nil {
		t.Fatal("enqueue must not set the current track")
	}
	if got := s.Snapshot().Playlist; len(got) != 1 || got[0].ID != "C" {
		t.Fatalf("playlist = %v, want [C]", got)
	}
}

func TestRestore_RoundTrip(t *testing.T) {
	s := New()
	mustEnqueue(t, s, "A", "B", "C")
	s.Advance()

	snap := s.Snapshot()

	restored := New()
	restored.Restore(snap.SessionState)

	got := restored.Snapshot()
	if got.CurrentTrack == nil || got.CurrentTrack.ID != "A" {
		t.Fatalf("restored current = %v, want A", got.CurrentTrack)
	}
	if len(got.Playlist) != 2 {
		t.Fatalf("restored playlist = %v, want [B C]", got.Playlist)
	}
	if diff := got.StartTime - snap.StartTime; diff > 1e-6 || diff < -1e-6 {
		t.Errorf("restored start_time = %v, want %v", got.StartTime, snap.StartTime)
	}
}

func TestConcurrentMixedOperations(t *testing.T) {
	s := New()
	mustEnqueue(t, s, "seed")
	s.Advance()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			s.Enqueue(track(fmt.Sprintf("t%d", n)))
			s.Snapshot()
			s.ReportEnded("seed")
		}(i)
	}
	wg.Wait()

	// Exactly one of the reports advanced past "seed".
	cur := s.PeekCurrent()
	if cur == nil || cur.ID == "seed" {
		t.Errorf("current = %v, want the single next-in-queue track", cur)
	}
}
