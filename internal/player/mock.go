package player

import (
	"context"
	"sync"
	"time"
)

// LoadCall records one Load invocation.
type LoadCall struct {
	TrackID string
	Start   time.Duration
}

// Mock is an in-memory Player for tests. It records every call and
// can be scripted to fail.
type Mock struct {
	mu sync.Mutex

	state    State
	position time.Duration
	volume   int
	loaded   string

	failNext error

	Loads   []LoadCall
	Seeks   []time.Duration
	Plays   int
	Stops   int
	Volumes []int
}

// NewMock creates a mock player in the idle state.
func NewMock() *Mock {
	return &Mock{state: StateIdle}
}

// FailNext makes every subsequent call return err until cleared with
// FailNext(nil).
func (m *Mock) FailNext(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failNext = err
}

// SetState scripts the reported state.
func (m *Mock) SetState(s State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = s
}

// SetPosition scripts the reported position.
func (m *Mock) SetPosition(pos time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.position = pos
}

// Loaded reports the currently loaded track id.
func (m *Mock) Loaded() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loaded
}

func (m *Mock) Load(ctx context.Context, trackID string, start time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failNext != nil {
		return m.failNext
	}
	m.Loads = append(m.Loads, LoadCall{TrackID: trackID, Start: start})
	m.loaded = trackID
	m.position = start
	m.state = StatePlaying
	return nil
}

func (m *Mock) Play(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failNext != nil {
		return m.failNext
	}
	m.Plays++
	m.state = StatePlaying
	return nil
}

func (m *Mock) Stop(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failNext != nil {
		return m.failNext
	}
	m.Stops++
	m.loaded = ""
	m.state = StateIdle
	return nil
}

func (m *Mock) Seek(ctx context.Context, pos time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failNext != nil {
		return m.failNext
	}
	m.Seeks = append(m.Seeks, pos)
	m.position = pos
	return nil
}

func (m *Mock) Position(ctx context.Context) (time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failNext != nil {
		return 0, m.failNext
	}
	return m.position, nil
}

func (m *Mock) State(ctx context.Context) (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failNext != nil {
		return StateIdle, m.failNext
	}
	return m.state, nil
}

func (m *Mock) SetVolume(ctx context.Context, percent int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failNext != nil {
		return m.failNext
	}
	m.volume = percent
	m.Volumes = append(m.Volumes, percent)
	return nil
}

var _ Player = (*Mock)(nil)
