package domain

// Track is a single queued piece of media. Identity is the ID (the
// external media identifier), never the title. Tracks are immutable
// once created.
type Track struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Thumbnail string `json:"thumbnail,omitempty"`
	Duration  int64  `json:"duration,omitempty"` // seconds, best effort
}
