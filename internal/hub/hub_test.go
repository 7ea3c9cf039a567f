package hub

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/nikhil123421/theGlobalMixtape/internal/config"
	"github.com/nikhil123421/theGlobalMixtape/internal/domain"
)

func testWSConfig() config.WebSocketConfig {
	return config.WebSocketConfig{
		PingInterval:   30 * time.Second,
		PongWait:       60 * time.Second,
		WriteWait:      10 * time.Second,
		MaxMessageSize: 4096,
	}
}

func waitForClientCount(t *testing.T, h *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if h.ClientCount() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("client count = %d, want %d", h.ClientCount(), want)
}

func readSyncEvent(t *testing.T, c *Client) domain.SyncEvent {
	t.Helper()
	select {
	case data := <-c.Send:
		var event domain.SyncEvent
		if err := json.Unmarshal(data, &event); err != nil {
			t.Fatalf("failed to unmarshal sync event: %v", err)
		}
		return event
	case <-time.After(2 * time.Second):
		t.Fatal("no message delivered")
		return domain.SyncEvent{}
	}
}

func snapshotWithSeq(seq uint64, currentID string) domain.Snapshot {
	return domain.Snapshot{
		SessionState: domain.SessionState{
			CurrentTrack: &domain.Track{ID: currentID},
			Playlist:     []domain.Track{},
		},
		ServerTime: 100,
		Seq:        seq,
	}
}

func TestBroadcastSnapshot_ReachesEveryClient(t *testing.T) {
	h := NewHub(testWSConfig())
	go h.Run()

	c1 := NewClient("c1", h, nil, testWSConfig())
	c2 := NewClient("c2", h, nil, testWSConfig())
	h.Register(c1)
	h.Register(c2)
	waitForClientCount(t, h, 2)

	h.BroadcastSnapshot(snapshotWithSeq(1, "aaaaaaaaaaa"))

	for _, c := range []*Client{c1, c2} {
		event := readSyncEvent(t, c)
		if event.Type != domain.MsgTypeSync {
			t.Errorf("client %s got type %q, want %q", c.ID, event.Type, domain.MsgTypeSync)
		}
		if event.CurrentTrack == nil || event.CurrentTrack.ID != "aaaaaaaaaaa" {
			t.Errorf("client %s got snapshot %+v", c.ID, event.Snapshot)
		}
	}
}

func TestBroadcastSnapshot_DropsStaleSequence(t *testing.T) {
	h := NewHub(testWSConfig())
	go h.Run()

	c := NewClient("c1", h, nil, testWSConfig())
	h.Register(c)
	waitForClientCount(t, h, 1)

	h.BroadcastSnapshot(snapshotWithSeq(2, "bbbbbbbbbbb"))
	if got := readSyncEvent(t, c); got.CurrentTrack.ID != "bbbbbbbbbbb" {
		t.Fatalf("got %q, want bbbbbbbbbbb", got.CurrentTrack.ID)
	}

	// Assembled before the one above, delivered after. Must not reach
	// any client.
	h.BroadcastSnapshot(snapshotWithSeq(1, "aaaaaaaaaaa"))
	select {
	case data := <-c.Send:
		t.Fatalf("stale snapshot was delivered: %s", data)
	case <-time.After(100 * time.Millisecond):
	}

	// Newer sequences still flow.
	h.BroadcastSnapshot(snapshotWithSeq(3, "ccccccccccc"))
	if got := readSyncEvent(t, c); got.CurrentTrack.ID != "ccccccccccc" {
		t.Fatalf("got %q, want ccccccccccc", got.CurrentTrack.ID)
	}
}

func TestRun_SlowClientOnlyDegradesItself(t *testing.T) {
	h := NewHub(testWSConfig())
	go h.Run()

	// The fast client is drained continuously; the slow one is never
	// read, so its send buffer eventually fills.
	fast := NewClient("fast", h, nil, testWSConfig())
	slow := NewClient("slow", h, nil, testWSConfig())
	h.Register(fast)
	h.Register(slow)
	waitForClientCount(t, h, 2)

	received := make(chan []byte, 1024)
	go func() {
		for data := range fast.Send {
			select {
			case received <- data:
			default:
			}
		}
	}()

	for i := 0; i < 600; i++ {
		h.BroadcastSnapshot(snapshotWithSeq(uint64(i+1), "aaaaaaaaaaa"))
	}

	// The slow client gets dropped once its buffer is full.
	waitForClientCount(t, h, 1)

	// The survivor keeps receiving. Earlier broadcasts may still be in
	// flight, so scan until the marker snapshot shows up.
	h.BroadcastSnapshot(snapshotWithSeq(700, "bbbbbbbbbbb"))
	deadline := time.After(2 * time.Second)
	for {
		select {
		case data := <-received:
			var event domain.SyncEvent
			if err := json.Unmarshal(data, &event); err != nil {
				t.Fatalf("failed to unmarshal sync event: %v", err)
			}
			if event.CurrentTrack.ID == "bbbbbbbbbbb" {
				return
			}
		case <-deadline:
			t.Fatal("fast client stopped receiving after slow client was dropped")
		}
	}
}
