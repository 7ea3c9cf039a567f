package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/nikhil123421/theGlobalMixtape/internal/domain"
	"github.com/nikhil123421/theGlobalMixtape/pkg/log"
)

// PollTransport fetches snapshots on a fixed interval over plain HTTP.
// It is the degraded-but-correct mode: a failed poll is logged and the
// next tick simply tries again, so a flapping network only widens the
// window in which drift goes uncorrected.
type PollTransport struct {
	baseURL  string
	client   *http.Client
	interval time.Duration
}

// NewPoll builds a polling transport against the server's HTTP base
// URL (scheme and host, no path).
func NewPoll(serverURL string, interval time.Duration) *PollTransport {
	return &PollTransport{
		baseURL:  strings.TrimRight(serverURL, "/"),
		client:   &http.Client{Timeout: 10 * time.Second},
		interval: interval,
	}
}

func (t *PollTransport) Run(ctx context.Context, apply ApplyFunc) error {
	l := log.Ctx(ctx)
	l.Info().
		Str("server_url", t.baseURL).
		Dur("interval", t.interval).
		Msg("polling for snapshots")

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		snap, err := t.fetchSnapshot(ctx)
		if err != nil {
			l.Warn().Err(err).Msg("snapshot poll failed, will retry")
		} else if err := apply(ctx, *snap); err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (t *PollTransport) fetchSnapshot(ctx context.Context) (*domain.Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.baseURL+"/api/v1/sync", nil)
	if err != nil {
		return nil, err
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("sync returned status %d", resp.StatusCode)
	}

	var snap domain.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return &snap, nil
}

func (t *PollTransport) ReportEnded(ctx context.Context, trackID string) error {
	body := domain.ReportEndedRequest{EndedTrackID: trackID}
	return t.post(ctx, "/api/v1/next", body)
}

func (t *PollTransport) StartPlayback(ctx context.Context) error {
	return t.post(ctx, "/api/v1/play", nil)
}

func (t *PollTransport) post(ctx context.Context, path string, body interface{}) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("%s returned status %d", path, resp.StatusCode)
	}
	return nil
}

var _ Transport = (*PollTransport)(nil)
