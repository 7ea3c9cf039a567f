package repository

import (
	"context"
	"errors"

	"github.com/nikhil123421/theGlobalMixtape/internal/domain"
)

// ErrTrackNotCached is returned when no cached metadata exists for a
// video id.
var ErrTrackNotCached = errors.New("track not cached")

// TrackRepository caches resolved track metadata so resubmitting a URL
// does not cost another oEmbed round trip.
type TrackRepository interface {
	Get(ctx context.Context, videoID string) (*domain.Track, error)
	Put(ctx context.Context, track domain.Track) error
}

// NoOpTrackRepository disables caching: every lookup misses.
type NoOpTrackRepository struct{}

// NewNoOpTrackRepository creates a new no-op track repository.
func NewNoOpTrackRepository() *NoOpTrackRepository {
	return &NoOpTrackRepository{}
}

// Get always misses.
func (r *NoOpTrackRepository) Get(ctx context.Context, videoID string) (*domain.Track, error) {
	return nil, ErrTrackNotCached
}

// Put discards the track.
func (r *NoOpTrackRepository) Put(ctx context.Context, track domain.Track) error {
	return nil
}
