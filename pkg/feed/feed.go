package feed

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrUnsupportedTopology is returned by Watch when the underlying broker
// cannot serve a change feed (e.g. JetStream is disabled on the server).
// Callers are expected to fall back to polling permanently.
var ErrUnsupportedTopology = errors.New("change feed unsupported by broker topology")

// Event is one observed change on the documents collection.
type Event struct {
	OperationType string // "insert" or "update"
	DocumentId    uuid.UUID
}

// Feed delivers document change events as they happen.
type Feed interface {
	// Watch starts delivering events on the returned channel until ctx is
	// cancelled. The channel is closed when the feed stops.
	Watch(ctx context.Context) (<-chan Event, error)

	// Close releases the underlying connection.
	Close()
}
