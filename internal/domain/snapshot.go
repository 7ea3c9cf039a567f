package domain

import "time"

// SessionState is the persisted shape of the playback session: what is
// playing, since when, and what comes next. It is also the part of a
// Snapshot that outlives the moment of assembly.
//
// The queue field is named "playlist" on the wire. That name is
// load-bearing: an earlier revision of this protocol renamed it on one
// side only and broke every consumer. Do not change it; version the
// payload instead.
type SessionState struct {
	CurrentTrack *Track  `json:"current_track"`
	StartTime    float64 `json:"start_time"` // unix seconds, server clock
	Playlist     []Track `json:"playlist"`
}

// Snapshot is an immutable point-in-time projection of the playback
// session, assembled fresh on every publish. ServerTime lets receivers
// compute the elapsed position without trusting their own wall clock:
// both timestamps originate from the server's clock, so any skew
// between server and receiver cancels out.
type Snapshot struct {
	SessionState
	ServerTime float64 `json:"server_time"` // unix seconds, server clock

	// Seq orders snapshots of the same session: every mutation bumps
	// it under the session lock. Broadcast paths use it to drop a
	// snapshot that was assembled before one already delivered. Not
	// part of the wire payload.
	Seq uint64 `json:"-"`
}

// Elapsed returns how far into the current track the server says
// playback is. Meaningless when CurrentTrack is nil.
func (s Snapshot) Elapsed() time.Duration {
	return time.Duration((s.ServerTime - s.StartTime) * float64(time.Second))
}

// UnixSeconds converts a time.Time to the float epoch-seconds form
// used on the wire.
func UnixSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}
