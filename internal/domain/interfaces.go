package domain

import (
	"context"
)

// Journal records executed pool operations. Implementations must be safe for
// use by several sequencers at once.
type Journal interface {
	Append(ctx context.Context, entry *JournalEntry) error
}

// SnapshotObserver receives the pool state after every operation.
type SnapshotObserver interface {
	Observe(snap PoolSnapshot)
}
