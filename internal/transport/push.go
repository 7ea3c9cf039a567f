package transport

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nikhil123421/theGlobalMixtape/internal/domain"
	"github.com/nikhil123421/theGlobalMixtape/pkg/log"
)

const (
	pushWriteWait  = 10 * time.Second
	pushPongWait   = 90 * time.Second
	reconnectMin   = time.Second
	reconnectMax   = 30 * time.Second
	reconnectScale = 2
)

// ErrNotConnected is returned from control calls while the websocket
// is down. The reconciler retries on the next snapshot, which by then
// arrives over the reestablished connection.
var ErrNotConnected = errors.New("websocket not connected")

// PushTransport receives snapshots the moment the server broadcasts
// them. Snapshots are latest-wins: if the reconciler is mid-apply when
// a newer one lands, the stale one is replaced, never queued behind.
type PushTransport struct {
	wsURL string

	mu   sync.Mutex
	conn *websocket.Conn

	latest chan domain.Snapshot
}

// NewPush builds a push transport against the server's HTTP base URL.
func NewPush(serverURL string) *PushTransport {
	return &PushTransport{
		wsURL:  websocketURL(serverURL),
		latest: make(chan domain.Snapshot, 1),
	}
}

// websocketURL maps the HTTP base URL onto the /ws endpoint.
func websocketURL(serverURL string) string {
	u := strings.TrimRight(serverURL, "/")
	switch {
	case strings.HasPrefix(u, "https://"):
		u = "wss://" + strings.TrimPrefix(u, "https://")
	case strings.HasPrefix(u, "http://"):
		u = "ws://" + strings.TrimPrefix(u, "http://")
	}
	return u + "/ws"
}

func (t *PushTransport) Run(ctx context.Context, apply ApplyFunc) error {
	l := log.Ctx(ctx)

	applyErr := make(chan error, 1)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case snap := <-t.latest:
				if err := apply(ctx, snap); err != nil {
					applyErr <- err
					return
				}
			}
		}
	}()

	backoff := reconnectMin
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-applyErr:
			return err
		default:
		}

		conn, _, err := websocket.DefaultDialer.DialContext(ctx, t.wsURL, nil)
		if err != nil {
			l.Warn().Err(err).
				Str("ws_url", t.wsURL).
				Dur("retry_in", backoff).
				Msg("websocket dial failed")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= reconnectScale
			if backoff > reconnectMax {
				backoff = reconnectMax
			}
			continue
		}

		l.Info().Str("ws_url", t.wsURL).Msg("websocket connected")
		backoff = reconnectMin
		t.setConn(conn)

		// Unblock the read on shutdown; ReadMessage has no ctx hook.
		watchDone := make(chan struct{})
		go func() {
			select {
			case <-ctx.Done():
				conn.Close()
			case <-watchDone:
			}
		}()

		if err := t.readLoop(ctx, conn); err != nil && ctx.Err() == nil {
			l.Warn().Err(err).Msg("websocket connection lost, reconnecting")
		}
		close(watchDone)
		t.setConn(nil)
		conn.Close()

		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

func (t *PushTransport) readLoop(ctx context.Context, conn *websocket.Conn) error {
	conn.SetReadDeadline(time.Now().Add(pushPongWait))
	conn.SetPingHandler(func(appData string) error {
		conn.SetReadDeadline(time.Now().Add(pushPongWait))
		return conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(pushWriteWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		conn.SetReadDeadline(time.Now().Add(pushPongWait))

		var envelope struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(data, &envelope); err != nil {
			logger := log.Ctx(ctx)
			logger.Warn().Err(err).Msg("discarding unparseable message")
			continue
		}
		if envelope.Type != domain.MsgTypeSync {
			continue
		}

		var event domain.SyncEvent
		if err := json.Unmarshal(data, &event); err != nil {
			logger := log.Ctx(ctx)
			logger.Warn().Err(err).Msg("discarding malformed sync event")
			continue
		}

		// Drop-and-replace keeps only the newest snapshot pending.
		select {
		case t.latest <- event.Snapshot:
		default:
			select {
			case <-t.latest:
			default:
			}
			t.latest <- event.Snapshot
		}
	}
}

func (t *PushTransport) setConn(conn *websocket.Conn) {
	t.mu.Lock()
	t.conn = conn
	t.mu.Unlock()
}

func (t *PushTransport) ReportEnded(ctx context.Context, trackID string) error {
	return t.writeCommand(domain.Command{Type: domain.MsgTypeTrackEnded, TrackID: trackID})
}

func (t *PushTransport) StartPlayback(ctx context.Context) error {
	return t.writeCommand(domain.Command{Type: domain.MsgTypePlay})
}

func (t *PushTransport) writeCommand(cmd domain.Command) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.conn == nil {
		return ErrNotConnected
	}
	t.conn.SetWriteDeadline(time.Now().Add(pushWriteWait))
	return t.conn.WriteJSON(cmd)
}

var _ Transport = (*PushTransport)(nil)
