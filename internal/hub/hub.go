// Package hub fans playback snapshots out to connected websocket
// listeners. There is one shared room, so the hub is flat: every
// registered client gets every broadcast.
package hub

import (
	"encoding/json"
	"sync"

	"github.com/nikhil123421/theGlobalMixtape/internal/config"
	"github.com/nikhil123421/theGlobalMixtape/internal/domain"
	"github.com/nikhil123421/theGlobalMixtape/pkg/log"
)

type Hub struct {
	clients    map[string]*Client // clientID -> client
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	mu         sync.RWMutex
	config     config.WebSocketConfig

	seqMu   sync.Mutex
	lastSeq uint64
}

func NewHub(cfg config.WebSocketConfig) *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 256),
		config:     cfg,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ID] = client
			h.mu.Unlock()
			l := log.L()
			l.Debug().Str(log.FieldClientID, client.ID).Msg("listener connected")

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.ID]; ok {
				delete(h.clients, client.ID)
				close(client.Send)
			}
			h.mu.Unlock()
			l := log.L()
			l.Debug().Str(log.FieldClientID, client.ID).Msg("listener disconnected")

		case msg := <-h.broadcast:
			h.mu.RLock()
			for _, client := range h.clients {
				select {
				case client.Send <- msg:
				default:
					// A client that cannot keep up only degrades its
					// own view; drop it rather than stall the rest.
					go h.removeClient(client)
				}
			}
			h.mu.RUnlock()
		}
	}
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// BroadcastSnapshot wraps the snapshot as a sync_event and queues it
// for every connected listener. Never blocks the caller.
//
// Snapshots are assembled and broadcast outside the session lock, so
// two concurrent mutations can arrive here out of order. The sequence
// check drops the older one; the newer snapshot already carries the
// older mutation's effect.
func (h *Hub) BroadcastSnapshot(snap domain.Snapshot) {
	h.seqMu.Lock()
	if snap.Seq <= h.lastSeq {
		h.seqMu.Unlock()
		return
	}
	h.lastSeq = snap.Seq
	h.seqMu.Unlock()

	data, err := json.Marshal(domain.NewSyncEvent(snap))
	if err != nil {
		l := log.L()
		l.Error().Err(err).Msg("failed to marshal sync event")
		return
	}

	select {
	case h.broadcast <- data:
	default:
		l := log.L()
		l.Warn().Msg("broadcast queue full, dropping sync event")
	}
}

// ClientCount reports the number of connected listeners.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) removeClient(client *Client) {
	h.unregister <- client
}
