package ports

import (
	"context"
	"time"
)

// Heartbeat reads the liveness file the watcher maintains.
type Heartbeat interface {
	LastSeen(ctx context.Context) (time.Time, bool)
}

// CancelSignaler drops the sentinel the watcher polls for cancelled turns.
type CancelSignaler interface {
	SignalCancel(ctx context.Context, turnID string) error
}
