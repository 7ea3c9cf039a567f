package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/nikhil123421/theGlobalMixtape/internal/domain"
	"github.com/nikhil123421/theGlobalMixtape/pkg/log"
)

// TrackModel is the GORM model for cached track metadata.
type TrackModel struct {
	VideoID   string `gorm:"primaryKey"`
	Title     string
	Thumbnail string
	Duration  int64
	CreatedAt time.Time
}

// TableName overrides the table name.
func (TrackModel) TableName() string {
	return "tracks"
}

// ToDomain converts the model to a domain track.
func (m *TrackModel) ToDomain() *domain.Track {
	return &domain.Track{
		ID:        m.VideoID,
		Title:     m.Title,
		Thumbnail: m.Thumbnail,
		Duration:  m.Duration,
	}
}

// GormTrackRepository implements TrackRepository using GORM over SQLite.
type GormTrackRepository struct {
	db *gorm.DB
}

// NewGormTrackRepository opens (or creates) the SQLite cache database
// and migrates the schema.
func NewGormTrackRepository(path string) (*GormTrackRepository, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open track cache db: %w", err)
	}

	if err := db.AutoMigrate(&TrackModel{}); err != nil {
		return nil, fmt.Errorf("failed to migrate track cache: %w", err)
	}

	return &GormTrackRepository{db: db}, nil
}

// Get retrieves cached metadata for a video id.
func (r *GormTrackRepository) Get(ctx context.Context, videoID string) (*domain.Track, error) {
	var model TrackModel
	result := r.db.WithContext(ctx).First(&model, "video_id = ?", videoID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrTrackNotCached
		}
		return nil, result.Error
	}
	return model.ToDomain(), nil
}

// Put stores resolved metadata, replacing any previous row for the id.
func (r *GormTrackRepository) Put(ctx context.Context, track domain.Track) error {
	l := log.Ctx(ctx)

	model := TrackModel{
		VideoID:   track.ID,
		Title:     track.Title,
		Thumbnail: track.Thumbnail,
		Duration:  track.Duration,
	}

	result := r.db.WithContext(ctx).Save(&model)
	if result.Error != nil {
		l.Error().Err(result.Error).Str(log.FieldTrackID, track.ID).Msg("failed to cache track")
		return result.Error
	}

	l.Debug().Str(log.FieldTrackID, track.ID).Msg("track metadata cached")
	return nil
}

// Ensure GormTrackRepository implements TrackRepository interface
var _ TrackRepository = (*GormTrackRepository)(nil)
