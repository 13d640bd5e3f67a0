// Package synclog defines the dispatch audit log Entry entity. Every
// synchronizer dispatch can be recorded: which entity changed, which event
// fired, whether the store converged, and how long it took.
package synclog

import "time"

// Entry is a single synchronizer dispatch audit record.
type Entry struct {
	ID         string         `json:"id" db:"id"`
	TenantID   string         `json:"tenant_id" db:"tenant_id"`
	AppID      string         `json:"app_id" db:"app_id"`
	EntityKind string         `json:"entity_kind" db:"entity_kind"`
	Event      string         `json:"event" db:"event"`
	Outcome    string         `json:"outcome" db:"outcome"`
	Reason     string         `json:"reason,omitempty" db:"reason"`
	DurationNs int64          `json:"duration_ns" db:"duration_ns"`
	Metadata   map[string]any `json:"metadata,omitempty" db:"metadata"`
	CreatedAt  time.Time      `json:"created_at" db:"created_at"`
}

// Dispatch outcomes.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// QueryFilter contains filters for querying sync logs.
type QueryFilter struct {
	TenantID   string     `json:"tenant_id,omitempty"`
	EntityKind string     `json:"entity_kind,omitempty"`
	Event      string     `json:"event,omitempty"`
	Outcome    string     `json:"outcome,omitempty"`
	After      *time.Time `json:"after,omitempty"`
	Before     *time.Time `json:"before,omitempty"`
	Limit      int        `json:"limit,omitempty"`
	Offset     int        `json:"offset,omitempty"`
}
