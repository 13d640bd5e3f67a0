package postgres

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the authz store (PostgreSQL).
var Migrations = migrate.NewGroup("lms_authz")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_relation_tuples",
			Version: "20250301000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS lms_relation_tuples (
    id              TEXT PRIMARY KEY,
    subject_type    TEXT NOT NULL,
    subject_id      TEXT NOT NULL,
    relation        TEXT NOT NULL,
    object_type     TEXT NOT NULL,
    object_id       TEXT NOT NULL,
    created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_lms_tuples_object ON lms_relation_tuples (object_type, object_id);
CREATE INDEX IF NOT EXISTS idx_lms_tuples_subject ON lms_relation_tuples (subject_type, subject_id);
CREATE INDEX IF NOT EXISTS idx_lms_tuples_relation ON lms_relation_tuples (object_type, object_id, relation);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS lms_relation_tuples`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_sync_logs",
			Version: "20250301000002",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS lms_sync_logs (
    id              TEXT PRIMARY KEY,
    tenant_id       TEXT NOT NULL DEFAULT '',
    app_id          TEXT NOT NULL DEFAULT '',
    entity_kind     TEXT NOT NULL,
    event           TEXT NOT NULL,
    outcome         TEXT NOT NULL,
    reason          TEXT NOT NULL DEFAULT '',
    duration_ns     BIGINT NOT NULL DEFAULT 0,
    metadata        JSONB NOT NULL DEFAULT '{}',
    created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_lms_sync_logs_tenant ON lms_sync_logs (tenant_id, created_at);
CREATE INDEX IF NOT EXISTS idx_lms_sync_logs_entity ON lms_sync_logs (entity_kind, event);
CREATE INDEX IF NOT EXISTS idx_lms_sync_logs_outcome ON lms_sync_logs (outcome, created_at);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS lms_sync_logs`)
				return err
			},
		},
	)
}
