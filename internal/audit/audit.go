package audit

import (
	"context"

	"github.com/nikhil123421/theGlobalMixtape/pkg/log"
)

// Audit actions for the radio service.
const (
	ActionAddTrack   = "track.add"
	ActionAdvance    = "track.advance"
	ActionStart      = "playback.start"
	ActionStaleEnded = "track.ended_stale"
)

// Field constants for audit entries.
const (
	FieldAction = "action"
	FieldDetail = "detail"
)

// Log emits a structured audit log entry via the context logger.
func Log(ctx context.Context, action, trackID, msg string) {
	l := log.Ctx(ctx)
	l.Info().
		Str(log.FieldLogType, log.LogTypeAudit).
		Str(FieldAction, action).
		Str(log.FieldTrackID, trackID).
		Msg(msg)
}

// LogWithDetail emits an audit log with an extra detail field.
func LogWithDetail(ctx context.Context, action, trackID, detail, msg string) {
	l := log.Ctx(ctx)
	l.Info().
		Str(log.FieldLogType, log.LogTypeAudit).
		Str(FieldAction, action).
		Str(log.FieldTrackID, trackID).
		Str(FieldDetail, detail).
		Msg(msg)
}
