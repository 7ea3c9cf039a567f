// Package transport moves snapshots from the server to the listener
// and carries control signals back. Two implementations share one
// contract: push over websocket, poll over plain HTTP. Both feed the
// same apply callback, so the reconciler never knows which one is
// underneath.
package transport

import (
	"context"

	"github.com/nikhil123421/theGlobalMixtape/internal/domain"
)

// ApplyFunc receives each snapshot the transport obtains. Transports
// treat its errors as fatal to the run loop; transient delivery
// problems on the wire are the transport's own business and are
// retried without surfacing here.
type ApplyFunc func(ctx context.Context, snap domain.Snapshot) error

// Transport obtains snapshots until the context is canceled and
// carries the two control signals back to the server.
type Transport interface {
	// Run blocks, delivering snapshots to apply, until ctx is
	// canceled. Connection loss is handled internally.
	Run(ctx context.Context, apply ApplyFunc) error

	// ReportEnded signals that the given track finished locally.
	ReportEnded(ctx context.Context, trackID string) error

	// StartPlayback asks the server to start an idle session.
	StartPlayback(ctx context.Context) error
}
