package player

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/nikhil123421/theGlobalMixtape/pkg/log"
)

// MPVConfig configures the mpv backend.
type MPVConfig struct {
	// Path is the mpv binary.
	Path string

	// SocketPath is the JSON IPC socket; empty picks a per-process
	// path under the temp dir.
	SocketPath string
}

// MPV drives an mpv subprocess over its JSON IPC socket. Audio only;
// track ids are resolved through mpv's ytdl hook.
type MPV struct {
	cmd  *exec.Cmd
	conn net.Conn

	writeMu sync.Mutex
	mu      sync.Mutex
	pending map[int64]chan mpvResponse
	nextID  int64

	loadedID string
	ended    chan string
	done     chan struct{}
}

type mpvResponse struct {
	RequestID int64           `json:"request_id"`
	Error     string          `json:"error"`
	Data      json.RawMessage `json:"data"`
	Event     string          `json:"event"`
	Reason    string          `json:"reason"`
}

const mpvDialRetries = 20

// NewMPV launches mpv and connects to its IPC socket.
func NewMPV(cfg MPVConfig) (*MPV, error) {
	path := cfg.Path
	if path == "" {
		path = "mpv"
	}

	sock := cfg.SocketPath
	if sock == "" {
		sock = filepath.Join(os.TempDir(), fmt.Sprintf("mixtape-mpv-%d.sock", os.Getpid()))
	}

	cmd := exec.Command(path,
		"--idle=yes",
		"--no-video",
		"--really-quiet",
		"--ytdl=yes",
		"--input-ipc-server="+sock,
	)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start mpv: %w", err)
	}

	var (
		conn net.Conn
		err  error
	)
	for i := 0; i < mpvDialRetries; i++ {
		conn, err = net.Dial("unix", sock)
		if err == nil {
			break
		}
		time.Sleep(250 * time.Millisecond)
	}
	if err != nil {
		cmd.Process.Kill()
		return nil, fmt.Errorf("failed to connect to mpv ipc socket: %w", err)
	}

	m := &MPV{
		cmd:     cmd,
		conn:    conn,
		pending: make(map[int64]chan mpvResponse),
		ended:   make(chan string, 8),
		done:    make(chan struct{}),
	}
	go m.readLoop()

	return m, nil
}

// Ended delivers the id of a track whose playback reached its natural
// end. The channel is buffered; events are dropped rather than ever
// blocking the read loop.
func (m *MPV) Ended() <-chan string {
	return m.ended
}

// Close shuts down the IPC connection and the mpv process.
func (m *MPV) Close() error {
	close(m.done)
	m.conn.Close()
	if m.cmd.Process != nil {
		m.cmd.Process.Kill()
	}
	return m.cmd.Wait()
}

func (m *MPV) readLoop() {
	scanner := bufio.NewScanner(m.conn)
	for scanner.Scan() {
		var resp mpvResponse
		if err := json.Unmarshal(scanner.Bytes(), &resp); err != nil {
			continue
		}

		if resp.Event != "" {
			m.handleEvent(resp)
			continue
		}

		m.mu.Lock()
		ch, ok := m.pending[resp.RequestID]
		if ok {
			delete(m.pending, resp.RequestID)
		}
		m.mu.Unlock()
		if ok {
			ch <- resp
		}
	}

	select {
	case <-m.done:
	default:
		l := log.L()
		l.Warn().Msg("mpv ipc connection closed")
	}
}

func (m *MPV) handleEvent(resp mpvResponse) {
	if resp.Event != "end-file" || resp.Reason != "eof" {
		return
	}

	m.mu.Lock()
	id := m.loadedID
	m.mu.Unlock()
	if id == "" {
		return
	}

	select {
	case m.ended <- id:
	default:
	}
}

// command sends one IPC request and waits for its matching response.
func (m *MPV) command(ctx context.Context, args ...interface{}) (json.RawMessage, error) {
	m.mu.Lock()
	m.nextID++
	id := m.nextID
	ch := make(chan mpvResponse, 1)
	m.pending[id] = ch
	m.mu.Unlock()

	payload, err := json.Marshal(map[string]interface{}{
		"command":    args,
		"request_id": id,
	})
	if err != nil {
		return nil, err
	}

	m.writeMu.Lock()
	_, err = m.conn.Write(append(payload, '\n'))
	m.writeMu.Unlock()
	if err != nil {
		m.mu.Lock()
		delete(m.pending, id)
		m.mu.Unlock()
		return nil, ErrNotReady
	}

	select {
	case resp := <-ch:
		if resp.Error != "success" {
			return nil, mapMPVError(resp.Error)
		}
		return resp.Data, nil
	case <-ctx.Done():
		m.mu.Lock()
		delete(m.pending, id)
		m.mu.Unlock()
		return nil, ctx.Err()
	case <-m.done:
		return nil, ErrNotReady
	}
}

// mapMPVError folds the "nothing is loaded yet" family of IPC errors
// into ErrNotReady.
func mapMPVError(msg string) error {
	switch {
	case strings.Contains(msg, "property unavailable"),
		strings.Contains(msg, "property not found"):
		return ErrNotReady
	default:
		return fmt.Errorf("mpv: %s", msg)
	}
}

func (m *MPV) getProperty(ctx context.Context, name string, out interface{}) error {
	data, err := m.command(ctx, "get_property", name)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

func (m *MPV) Load(ctx context.Context, trackID string, start time.Duration) error {
	url := "https://www.youtube.com/watch?v=" + trackID
	opts := fmt.Sprintf("start=%.3f", start.Seconds())

	if _, err := m.command(ctx, "loadfile", url, "replace", opts); err != nil {
		return err
	}
	if _, err := m.command(ctx, "set_property", "pause", false); err != nil {
		return err
	}

	m.mu.Lock()
	m.loadedID = trackID
	m.mu.Unlock()
	return nil
}

func (m *MPV) Play(ctx context.Context) error {
	_, err := m.command(ctx, "set_property", "pause", false)
	return err
}

func (m *MPV) Stop(ctx context.Context) error {
	_, err := m.command(ctx, "stop")
	if err == nil {
		m.mu.Lock()
		m.loadedID = ""
		m.mu.Unlock()
	}
	return err
}

func (m *MPV) Seek(ctx context.Context, pos time.Duration) error {
	_, err := m.command(ctx, "seek", pos.Seconds(), "absolute")
	return err
}

func (m *MPV) Position(ctx context.Context) (time.Duration, error) {
	var secs float64
	if err := m.getProperty(ctx, "playback-time", &secs); err != nil {
		return 0, err
	}
	return time.Duration(secs * float64(time.Second)), nil
}

func (m *MPV) State(ctx context.Context) (State, error) {
	var idle bool
	if err := m.getProperty(ctx, "idle-active", &idle); err != nil {
		return StateIdle, err
	}
	if idle {
		return StateIdle, nil
	}

	var eof bool
	if err := m.getProperty(ctx, "eof-reached", &eof); err == nil && eof {
		return StateEnded, nil
	}

	var buffering bool
	if err := m.getProperty(ctx, "paused-for-cache", &buffering); err == nil && buffering {
		return StateBuffering, nil
	}

	var paused bool
	if err := m.getProperty(ctx, "pause", &paused); err != nil {
		return StateIdle, err
	}
	if paused {
		return StatePaused, nil
	}
	return StatePlaying, nil
}

func (m *MPV) SetVolume(ctx context.Context, percent int) error {
	_, err := m.command(ctx, "set_property", "volume", percent)
	return err
}

var _ Player = (*MPV)(nil)
