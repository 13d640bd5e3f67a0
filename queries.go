package authz

import (
	"context"
	"fmt"

	"github.com/testmytrinh/tmt-lms-backend/id"
	"github.com/testmytrinh/tmt-lms-backend/relation"
	"github.com/testmytrinh/tmt-lms-backend/schema"
)

// HasPermission checks whether the subject holds the relation on the object.
// Fail-closed: an adapter error propagates alongside false and must not be
// read as a deny decision by the caller.
func (e *Engine) HasPermission(ctx context.Context, subjectKey string, rel schema.Relation, objectKey string) (bool, error) {
	ok, err := e.client.Check(ctx, subjectKey, string(rel), objectKey)
	if err != nil {
		return false, fmt.Errorf("authz: check %s#%s@%s: %w", subjectKey, rel, objectKey, err)
	}
	return ok, nil
}

// FilterAllowedRelations returns the subset of candidate relations the
// subject holds on the object, in candidate order. All candidates go out in
// batched check round trips keyed by minted correlation ids; any item error
// fails the whole query (fail-closed, no partial answers).
func (e *Engine) FilterAllowedRelations(ctx context.Context, subjectKey string, candidates []schema.Relation, objectKey string) ([]schema.Relation, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	items := make([]relation.CheckItem, len(candidates))
	corr := make([]string, len(candidates))
	for i, rel := range candidates {
		corr[i] = id.NewCheckID().String()
		items[i] = relation.CheckItem{
			SubjectKey:    subjectKey,
			Relation:      string(rel),
			ObjectKey:     objectKey,
			CorrelationID: corr[i],
		}
	}

	results := make(map[string]bool, len(items))
	for start := 0; start < len(items); start += e.config.BatchCheckSize {
		end := min(start+e.config.BatchCheckSize, len(items))
		chunk, err := e.client.BatchCheck(ctx, items[start:end])
		if err != nil {
			return nil, fmt.Errorf("authz: batch check %s@%s: %w", subjectKey, objectKey, err)
		}
		for k, v := range chunk {
			results[k] = v
		}
	}

	var allowed []schema.Relation
	for i, rel := range candidates {
		if results[corr[i]] {
			allowed = append(allowed, rel)
		}
	}
	return allowed, nil
}

// ListSubjectsForRelation returns the ids of subjects of subjectType holding
// the relation directly on the object. Only raw tuples are reported; the
// wildcard subject comes back as "*". Subjects granted through the model's
// computed relations do not appear.
func (e *Engine) ListSubjectsForRelation(ctx context.Context, objectKey string, rel schema.Relation, subjectType schema.ObjectType) ([]string, error) {
	tuples, err := e.client.Read(ctx, relation.Filter{
		ObjectKey: objectKey,
		Relation:  string(rel),
	})
	if err != nil {
		return nil, fmt.Errorf("authz: list subjects of %s#%s: %w", objectKey, rel, err)
	}
	var ids []string
	for _, t := range tuples {
		if t.SubjectType != string(subjectType) {
			continue
		}
		ids = append(ids, t.SubjectID)
	}
	return ids, nil
}

// ListObjectsForSubject returns the ids of objects of objectType the subject
// holds the relation on, model expansion included.
func (e *Engine) ListObjectsForSubject(ctx context.Context, subjectKey string, rel schema.Relation, objectType schema.ObjectType) ([]string, error) {
	ids, err := e.client.ListObjects(ctx, subjectKey, string(rel), string(objectType))
	if err != nil {
		return nil, fmt.Errorf("authz: list %s objects for %s#%s: %w", objectType, subjectKey, rel, err)
	}
	return ids, nil
}
