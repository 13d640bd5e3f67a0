package synclog

import (
	"context"
	"time"
)

// Store defines persistence operations for sync audit logs.
type Store interface {
	// CreateEntry persists a new sync log entry.
	CreateEntry(ctx context.Context, e *Entry) error

	// ListEntries returns sync log entries matching the filter, newest first.
	ListEntries(ctx context.Context, filter *QueryFilter) ([]*Entry, error)

	// CountEntries returns the number of entries matching the filter.
	CountEntries(ctx context.Context, filter *QueryFilter) (int64, error)

	// PurgeEntries removes sync log entries older than the given time.
	PurgeEntries(ctx context.Context, before time.Time) (int64, error)
}
