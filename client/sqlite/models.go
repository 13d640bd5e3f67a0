package sqlite

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/xraph/grove"

	"github.com/testmytrinh/tmt-lms-backend/relation"
	"github.com/testmytrinh/tmt-lms-backend/synclog"
)

// ──────────────────────────────────────────────────
// Relation tuple model
// ──────────────────────────────────────────────────

type tupleModel struct {
	grove.BaseModel `grove:"table:lms_relation_tuples"`
	ID              string    `grove:"id,pk"`
	SubjectType     string    `grove:"subject_type,notnull"`
	SubjectID       string    `grove:"subject_id,notnull"`
	Relation        string    `grove:"relation,notnull"`
	ObjectType      string    `grove:"object_type,notnull"`
	ObjectID        string    `grove:"object_id,notnull"`
	CreatedAt       time.Time `grove:"created_at,notnull"`
}

func tupleToModel(t relation.Tuple) *tupleModel {
	return &tupleModel{
		ID:          t.String(),
		SubjectType: t.SubjectType,
		SubjectID:   t.SubjectID,
		Relation:    t.Relation,
		ObjectType:  t.ObjectType,
		ObjectID:    t.ObjectID,
		CreatedAt:   time.Now().UTC(),
	}
}

func tupleFromModel(m *tupleModel) relation.Tuple {
	return relation.Tuple{
		SubjectType: m.SubjectType,
		SubjectID:   m.SubjectID,
		Relation:    m.Relation,
		ObjectType:  m.ObjectType,
		ObjectID:    m.ObjectID,
	}
}

// ──────────────────────────────────────────────────
// Sync log model
// ──────────────────────────────────────────────────

type syncLogModel struct {
	grove.BaseModel `grove:"table:lms_sync_logs"`
	ID              string    `grove:"id,pk"`
	TenantID        string    `grove:"tenant_id,notnull"`
	AppID           string    `grove:"app_id,notnull"`
	EntityKind      string    `grove:"entity_kind,notnull"`
	Event           string    `grove:"event,notnull"`
	Outcome         string    `grove:"outcome,notnull"`
	Reason          string    `grove:"reason"`
	DurationNs      int64     `grove:"duration_ns,notnull"`
	Metadata        string    `grove:"metadata"` // JSON text
	CreatedAt       time.Time `grove:"created_at,notnull"`
}

func syncLogToModel(e *synclog.Entry) (*syncLogModel, error) {
	metadata, err := json.Marshal(e.Metadata)
	if err != nil {
		return nil, fmt.Errorf("marshal sync log metadata: %w", err)
	}
	return &syncLogModel{
		ID:         e.ID,
		TenantID:   e.TenantID,
		AppID:      e.AppID,
		EntityKind: e.EntityKind,
		Event:      e.Event,
		Outcome:    e.Outcome,
		Reason:     e.Reason,
		DurationNs: e.DurationNs,
		Metadata:   string(metadata),
		CreatedAt:  e.CreatedAt,
	}, nil
}

func syncLogFromModel(m *syncLogModel) *synclog.Entry {
	var metadata map[string]any
	if m.Metadata != "" {
		_ = json.Unmarshal([]byte(m.Metadata), &metadata) //nolint:errcheck // stored JSON is always valid
	}
	return &synclog.Entry{
		ID:         m.ID,
		TenantID:   m.TenantID,
		AppID:      m.AppID,
		EntityKind: m.EntityKind,
		Event:      m.Event,
		Outcome:    m.Outcome,
		Reason:     m.Reason,
		DurationNs: m.DurationNs,
		Metadata:   metadata,
		CreatedAt:  m.CreatedAt,
	}
}
