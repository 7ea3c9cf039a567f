package domain

// WebSocket message types.
const (
	MsgTypeSync       = "sync_event"
	MsgTypeTrackEnded = "track_ended"
	MsgTypePlay       = "play"
	MsgTypePing       = "ping"
	MsgTypePong       = "pong"
	MsgTypeError      = "error"
)

// Command is a client-to-server websocket message.
type Command struct {
	Type    string `json:"type"`
	TrackID string `json:"track_id,omitempty"`
}

// SyncEvent is the push-mode framing of a Snapshot. The embedded
// Snapshot keeps the wire fields identical to the pull-mode body, so
// the reconciler never has to care which transport delivered it.
type SyncEvent struct {
	Type string `json:"type"`
	Snapshot
}

// NewSyncEvent wraps a snapshot for broadcast.
func NewSyncEvent(s Snapshot) SyncEvent {
	return SyncEvent{Type: MsgTypeSync, Snapshot: s}
}

// ErrorMessage is sent to a websocket client on a malformed command.
type ErrorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// NewErrorMessage builds an error message.
func NewErrorMessage(msg string) ErrorMessage {
	return ErrorMessage{Type: MsgTypeError, Message: msg}
}

// AddTrackRequest is the body of POST /api/v1/tracks.
type AddTrackRequest struct {
	URL string `json:"url" binding:"required"`
}

// ReportEndedRequest is the body of POST /api/v1/next.
type ReportEndedRequest struct {
	EndedTrackID string `json:"ended_track_id"`
}

// AdvanceResult reports whether an end-of-track signal won the
// arbitration and actually advanced the queue.
type AdvanceResult struct {
	Advanced bool `json:"advanced"`
}

// StartResult reports whether a play request started an idle session.
type StartResult struct {
	Started bool `json:"started"`
}
