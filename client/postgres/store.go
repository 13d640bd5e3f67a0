// Package postgres provides a PostgreSQL-backed relationship store using
// grove ORM with Go-based migrations. It mirrors raw tuples in a relational
// table for deployments without an OpenFGA server; checks expand the static
// relation catalogue, so computed permissions resolve the same way the
// in-memory store resolves them.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/pgdriver"
	_ "github.com/xraph/grove/drivers/pgdriver/pgmigrate" // migration executor registration
	"github.com/xraph/grove/migrate"

	"github.com/testmytrinh/tmt-lms-backend/id"
	"github.com/testmytrinh/tmt-lms-backend/relation"
	"github.com/testmytrinh/tmt-lms-backend/schema"
	"github.com/testmytrinh/tmt-lms-backend/synclog"
)

// Compile-time interface checks.
var (
	_ relation.Client = (*Store)(nil)
	_ synclog.Store   = (*Store)(nil)
)

// Store is a PostgreSQL tuple mirror and sync log store.
type Store struct {
	db   *grove.DB
	pgdb *pgdriver.PgDB
}

// New creates a new PostgreSQL store.
func New(db *grove.DB) *Store {
	return &Store{
		db:   db,
		pgdb: pgdriver.Unwrap(db),
	}
}

// Migrate runs programmatic migrations via the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.pgdb)
	if err != nil {
		return fmt.Errorf("authz/postgres: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("authz/postgres: migration failed: %w", err)
	}
	return nil
}

// Ping verifies the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ──────────────────────────────────────────────────
// Relation tuple operations
// ──────────────────────────────────────────────────

// Read returns tuples matching the filter. The ObjectKey may be a bare
// "type:" prefix, matching every object of the type.
func (s *Store) Read(ctx context.Context, f relation.Filter) ([]relation.Tuple, error) {
	var models []tupleModel
	q := s.pgdb.NewSelect(&models).OrderExpr("created_at ASC")
	if f.ObjectKey != "" {
		objectType, objectID := relation.SplitKey(f.ObjectKey)
		q = q.Where("object_type = ?", objectType)
		if objectID != "" {
			q = q.Where("object_id = ?", objectID)
		}
	}
	if f.Relation != "" {
		q = q.Where("relation = ?", f.Relation)
	}
	if f.SubjectKey != "" {
		subjectType, subjectID := relation.SplitKey(f.SubjectKey)
		q = q.Where("subject_type = ?", subjectType).Where("subject_id = ?", subjectID)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("authz/postgres: read tuples: %w", err)
	}

	out := make([]relation.Tuple, len(models))
	for i := range models {
		out[i] = tupleFromModel(&models[i])
	}
	return out, nil
}

// Write applies the mutation in one transaction. Writes replace any
// existing row with the same key, and deleting an absent tuple is a no-op,
// so replaying a partially applied batch converges.
func (s *Store) Write(ctx context.Context, writes, deletes []relation.Tuple) error {
	if len(writes) == 0 && len(deletes) == 0 {
		return nil
	}
	tx, err := s.pgdb.BeginTxQuery(ctx, nil)
	if err != nil {
		return fmt.Errorf("authz/postgres: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback on error is intentional

	for _, t := range writes {
		m := tupleToModel(t)
		if _, err := tx.NewDelete((*tupleModel)(nil)).Where("id = ?", m.ID).Exec(ctx); err != nil {
			return fmt.Errorf("authz/postgres: replace tuple %s: %w", m.ID, err)
		}
		if _, err := tx.NewInsert(m).Exec(ctx); err != nil {
			return fmt.Errorf("authz/postgres: write tuple %s: %w", m.ID, err)
		}
	}
	for _, t := range deletes {
		if _, err := tx.NewDelete((*tupleModel)(nil)).Where("id = ?", t.String()).Exec(ctx); err != nil {
			return fmt.Errorf("authz/postgres: delete tuple %s: %w", t.String(), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("authz/postgres: commit tx: %w", err)
	}
	return nil
}

// Check evaluates subject#rel@object over the object's stored tuples,
// expanding rel through the static relation catalogue and honoring the
// type wildcard subject.
func (s *Store) Check(ctx context.Context, subjectKey, rel, objectKey string) (bool, error) {
	tuples, err := s.Read(ctx, relation.Filter{ObjectKey: objectKey})
	if err != nil {
		return false, err
	}
	return allowed(tuples, subjectKey, rel), nil
}

// BatchCheck evaluates every item and keys the results by correlation id.
func (s *Store) BatchCheck(ctx context.Context, items []relation.CheckItem) (map[string]bool, error) {
	out := make(map[string]bool, len(items))
	for _, it := range items {
		corr := it.CorrelationID
		if corr == "" {
			corr = id.NewCheckID().String()
		}
		ok, err := s.Check(ctx, it.SubjectKey, it.Relation, it.ObjectKey)
		if err != nil {
			return nil, err
		}
		out[corr] = ok
	}
	return out, nil
}

// ListObjects returns the ids of objects of objectType the subject holds
// rel on, catalogue expansion included.
func (s *Store) ListObjects(ctx context.Context, subjectKey, rel, objectType string) ([]string, error) {
	tuples, err := s.Read(ctx, relation.Filter{ObjectKey: objectType + ":"})
	if err != nil {
		return nil, err
	}

	byObject := make(map[string][]relation.Tuple)
	for _, t := range tuples {
		byObject[t.ObjectID] = append(byObject[t.ObjectID], t)
	}
	var ids []string
	for objectID, ts := range byObject {
		if allowed(ts, subjectKey, rel) {
			ids = append(ids, objectID)
		}
	}
	return ids, nil
}

// allowed checks direct tuples, the type wildcard, and the catalogue's
// implied-relation expansion over one object's tuples.
func allowed(tuples []relation.Tuple, subjectKey, rel string) bool {
	if len(tuples) == 0 {
		return false
	}
	objectType := schema.ObjectType(tuples[0].ObjectType)
	subjectType, subjectID := relation.SplitKey(subjectKey)

	granting := make(map[string]struct{})
	for _, g := range schema.GrantingRelations(objectType, schema.Relation(rel)) {
		granting[string(g)] = struct{}{}
	}
	for _, t := range tuples {
		if _, ok := granting[t.Relation]; !ok {
			continue
		}
		if t.SubjectType != subjectType {
			continue
		}
		if t.SubjectID == subjectID || t.SubjectID == relation.WildcardID {
			return true
		}
	}
	return false
}

// ──────────────────────────────────────────────────
// Sync log operations
// ──────────────────────────────────────────────────

// CreateEntry persists a new sync log entry.
func (s *Store) CreateEntry(ctx context.Context, e *synclog.Entry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	m := syncLogToModel(e)
	if _, err := s.pgdb.NewInsert(m).Exec(ctx); err != nil {
		return fmt.Errorf("authz/postgres: create sync log: %w", err)
	}
	return nil
}

// ListEntries returns sync log entries matching the filter, newest first.
func (s *Store) ListEntries(ctx context.Context, filter *synclog.QueryFilter) ([]*synclog.Entry, error) {
	var models []syncLogModel
	q := s.pgdb.NewSelect(&models).OrderExpr("created_at DESC")
	if filter != nil {
		if filter.TenantID != "" {
			q = q.Where("tenant_id = ?", filter.TenantID)
		}
		if filter.EntityKind != "" {
			q = q.Where("entity_kind = ?", filter.EntityKind)
		}
		if filter.Event != "" {
			q = q.Where("event = ?", filter.Event)
		}
		if filter.Outcome != "" {
			q = q.Where("outcome = ?", filter.Outcome)
		}
		if filter.After != nil {
			q = q.Where("created_at >= ?", *filter.After)
		}
		if filter.Before != nil {
			q = q.Where("created_at <= ?", *filter.Before)
		}
		if filter.Limit > 0 {
			q = q.Limit(filter.Limit)
		}
		if filter.Offset > 0 {
			q = q.Offset(filter.Offset)
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("authz/postgres: list sync logs: %w", err)
	}
	result := make([]*synclog.Entry, len(models))
	for i := range models {
		result[i] = syncLogFromModel(&models[i])
	}
	return result, nil
}

// CountEntries returns the number of entries matching the filter.
func (s *Store) CountEntries(ctx context.Context, filter *synclog.QueryFilter) (int64, error) {
	q := s.pgdb.NewSelect((*syncLogModel)(nil))
	if filter != nil {
		if filter.TenantID != "" {
			q = q.Where("tenant_id = ?", filter.TenantID)
		}
		if filter.EntityKind != "" {
			q = q.Where("entity_kind = ?", filter.EntityKind)
		}
		if filter.Event != "" {
			q = q.Where("event = ?", filter.Event)
		}
		if filter.Outcome != "" {
			q = q.Where("outcome = ?", filter.Outcome)
		}
		if filter.After != nil {
			q = q.Where("created_at >= ?", *filter.After)
		}
		if filter.Before != nil {
			q = q.Where("created_at <= ?", *filter.Before)
		}
	}
	n, err := q.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("authz/postgres: count sync logs: %w", err)
	}
	return int64(n), nil
}

// PurgeEntries removes sync log entries older than the given time.
func (s *Store) PurgeEntries(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.pgdb.NewDelete((*syncLogModel)(nil)).
		Where("created_at < ?", before).Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("authz/postgres: purge sync logs: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("authz/postgres: purge sync logs rows: %w", err)
	}
	return n, nil
}
