// Package resolver turns submitted URLs into playable tracks.
package resolver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"time"

	"github.com/nikhil123421/theGlobalMixtape/internal/domain"
	"github.com/nikhil123421/theGlobalMixtape/internal/repository"
	"github.com/nikhil123421/theGlobalMixtape/pkg/log"
)

// ErrInvalidURL rejects a submission that names no resolvable video.
var ErrInvalidURL = errors.New("invalid video url")

// videoIDPatterns match the 11-character YouTube video id in the URL
// forms users actually paste (watch?v=, youtu.be/, embed/).
var videoIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:v=|/)([0-9A-Za-z_-]{11})`),
	regexp.MustCompile(`(?:youtu\.be/)([0-9A-Za-z_-]{11})`),
}

// oEmbed carries no duration, so tracks get a nominal one. The server
// never uses it to advance; only the ended reports from clients do.
const defaultDurationSec = 240

const defaultOEmbedEndpoint = "https://www.youtube.com/oembed"

// Resolver resolves a submitted URL to a Track.
type Resolver interface {
	Resolve(ctx context.Context, rawURL string) (*domain.Track, error)
}

// OEmbedResolver resolves metadata through the YouTube oEmbed endpoint,
// consulting the track cache first.
type OEmbedResolver struct {
	client   *http.Client
	endpoint string
	cache    repository.TrackRepository
}

// Option configures an OEmbedResolver.
type Option func(*OEmbedResolver)

// WithEndpoint overrides the oEmbed endpoint. Tests point this at a
// local server.
func WithEndpoint(endpoint string) Option {
	return func(r *OEmbedResolver) { r.endpoint = endpoint }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(r *OEmbedResolver) { r.client = c }
}

// NewOEmbedResolver creates a resolver backed by the given cache.
func NewOEmbedResolver(cache repository.TrackRepository, opts ...Option) *OEmbedResolver {
	r := &OEmbedResolver{
		client:   &http.Client{Timeout: 3 * time.Second},
		endpoint: defaultOEmbedEndpoint,
		cache:    cache,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ExtractVideoID pulls the video id out of a pasted URL. Empty string
// means the URL is not recognizable.
func ExtractVideoID(rawURL string) string {
	for _, p := range videoIDPatterns {
		if m := p.FindStringSubmatch(rawURL); m != nil {
			return m[1]
		}
	}
	return ""
}

// Resolve extracts the video id, then fills title and thumbnail from
// the cache or the oEmbed endpoint.
func (r *OEmbedResolver) Resolve(ctx context.Context, rawURL string) (*domain.Track, error) {
	l := log.Ctx(ctx)

	videoID := ExtractVideoID(rawURL)
	if videoID == "" {
		return nil, ErrInvalidURL
	}

	if cached, err := r.cache.Get(ctx, videoID); err == nil {
		l.Debug().Str(log.FieldTrackID, videoID).Msg("track resolved from cache")
		return cached, nil
	} else if !errors.Is(err, repository.ErrTrackNotCached) {
		l.Warn().Err(err).Str(log.FieldTrackID, videoID).Msg("track cache lookup failed")
	}

	track, err := r.fetchDetails(ctx, videoID)
	if err != nil {
		return nil, err
	}

	if err := r.cache.Put(ctx, *track); err != nil {
		l.Warn().Err(err).Str(log.FieldTrackID, videoID).Msg("failed to cache resolved track")
	}

	return track, nil
}

func (r *OEmbedResolver) fetchDetails(ctx context.Context, videoID string) (*domain.Track, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.endpoint, nil)
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("url", "https://www.youtube.com/watch?v="+videoID)
	q.Set("format", "json")
	req.URL.RawQuery = q.Encode()

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("oembed request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// oEmbed answers 400/404 for ids that do not exist.
		return nil, ErrInvalidURL
	}

	var body struct {
		Title        string `json:"title"`
		ThumbnailURL string `json:"thumbnail_url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("oembed response malformed: %w", err)
	}

	title := body.Title
	if title == "" {
		title = "Unknown Track"
	}

	return &domain.Track{
		ID:        videoID,
		Title:     title,
		Thumbnail: body.ThumbnailURL,
		Duration:  defaultDurationSec,
	}, nil
}

// Ensure OEmbedResolver implements Resolver interface
var _ Resolver = (*OEmbedResolver)(nil)
