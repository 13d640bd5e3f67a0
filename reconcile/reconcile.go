// Package reconcile implements the set-diff primitives that converge the
// relationship store onto a desired tuple set. Each primitive reads the
// current state through the client, computes the symmetric difference
// against the desired set, and issues at most one batched write. Running a
// primitive twice with the same desired state issues zero mutations the
// second time.
//
// Primitives never reject a desired state; they only compute and apply it.
// Concurrent callers targeting the same object are not coordinated here —
// the read-diff-write cycle carries no optimistic lock, and last write wins
// at the store.
package reconcile

import (
	"context"
	"fmt"

	"github.com/testmytrinh/tmt-lms-backend/relation"
)

// SyncSingleTypeSubjects makes the set of subjects of subjectType holding
// rel on objectKey equal exactly desiredIDs. Subjects of other types on the
// same relation are left untouched. Returns the number of tuples written
// and deleted.
//
// This is the workhorse for both single-valued edges (desired set of size
// ≤ 1, e.g. a node's parent) and set-valued edges (e.g. the wildcard
// subject expressing open access).
func SyncSingleTypeSubjects(ctx context.Context, c relation.Client, objectKey, subjectType, rel string, desiredIDs []string) (written, deleted int, err error) {
	existing, err := c.Read(ctx, relation.Filter{
		ObjectKey: objectKey,
		Relation:  rel,
	})
	if err != nil {
		return 0, 0, fmt.Errorf("reconcile: read subjects of %s#%s: %w", objectKey, rel, err)
	}

	// The relation may carry subjects of unrelated types; diff only ours.
	existingIDs := make(map[string]struct{}, len(existing))
	for _, t := range existing {
		if t.SubjectType == subjectType {
			existingIDs[t.SubjectID] = struct{}{}
		}
	}

	toAdd, toDel := diff(desiredIDs, existingIDs)

	makeTuple := func(id string) relation.Tuple {
		return relation.New(relation.Key(subjectType, id), rel, objectKey)
	}
	writes := make([]relation.Tuple, 0, len(toAdd))
	for _, id := range toAdd {
		writes = append(writes, makeTuple(id))
	}
	deletes := make([]relation.Tuple, 0, len(toDel))
	for _, id := range toDel {
		deletes = append(deletes, makeTuple(id))
	}

	if len(writes) == 0 && len(deletes) == 0 {
		return 0, 0, nil
	}
	if err := c.Write(ctx, writes, deletes); err != nil {
		return 0, 0, fmt.Errorf("reconcile: write subjects of %s#%s: %w", objectKey, rel, err)
	}
	return len(writes), len(deletes), nil
}

// SyncSingleTypeObjects is the object-side mirror of SyncSingleTypeSubjects:
// it makes the set of objects of objectType that subjectKey holds rel on
// equal exactly desiredIDs. Used where the "many" side of the edge is
// objects, e.g. a user's group memberships.
func SyncSingleTypeObjects(ctx context.Context, c relation.Client, subjectKey, objectType, rel string, desiredIDs []string) (written, deleted int, err error) {
	existing, err := c.Read(ctx, relation.Filter{
		SubjectKey: subjectKey,
		Relation:   rel,
		ObjectKey:  objectType + ":",
	})
	if err != nil {
		return 0, 0, fmt.Errorf("reconcile: read objects of %s#%s: %w", subjectKey, rel, err)
	}

	existingIDs := make(map[string]struct{}, len(existing))
	for _, t := range existing {
		if t.ObjectType == objectType {
			existingIDs[t.ObjectID] = struct{}{}
		}
	}

	toAdd, toDel := diff(desiredIDs, existingIDs)

	makeTuple := func(id string) relation.Tuple {
		return relation.New(subjectKey, rel, relation.Key(objectType, id))
	}
	writes := make([]relation.Tuple, 0, len(toAdd))
	for _, id := range toAdd {
		writes = append(writes, makeTuple(id))
	}
	deletes := make([]relation.Tuple, 0, len(toDel))
	for _, id := range toDel {
		deletes = append(deletes, makeTuple(id))
	}

	if len(writes) == 0 && len(deletes) == 0 {
		return 0, 0, nil
	}
	if err := c.Write(ctx, writes, deletes); err != nil {
		return 0, 0, fmt.Errorf("reconcile: write objects of %s#%s: %w", subjectKey, rel, err)
	}
	return len(writes), len(deletes), nil
}

// SyncRelations makes the set of relations held between a fixed subject and
// object equal exactly desiredRels. Reassigning an enrollment role is a
// singleton desired set: the old role tuple is deleted in the same batch
// that adds the new one, so there is no window where the pair has both
// roles or neither.
func SyncRelations(ctx context.Context, c relation.Client, subjectKey, objectKey string, desiredRels []string) (written, deleted int, err error) {
	existing, err := c.Read(ctx, relation.Filter{
		SubjectKey: subjectKey,
		ObjectKey:  objectKey,
	})
	if err != nil {
		return 0, 0, fmt.Errorf("reconcile: read relations of %s@%s: %w", subjectKey, objectKey, err)
	}

	existingRels := make(map[string]struct{}, len(existing))
	for _, t := range existing {
		existingRels[t.Relation] = struct{}{}
	}

	toAdd, toDel := diff(desiredRels, existingRels)

	writes := make([]relation.Tuple, 0, len(toAdd))
	for _, rel := range toAdd {
		writes = append(writes, relation.New(subjectKey, rel, objectKey))
	}
	deletes := make([]relation.Tuple, 0, len(toDel))
	for _, rel := range toDel {
		deletes = append(deletes, relation.New(subjectKey, rel, objectKey))
	}

	if len(writes) == 0 && len(deletes) == 0 {
		return 0, 0, nil
	}
	if err := c.Write(ctx, writes, deletes); err != nil {
		return 0, 0, fmt.Errorf("reconcile: write relations of %s@%s: %w", subjectKey, objectKey, err)
	}
	return len(writes), len(deletes), nil
}

// DeleteAllForObject removes every tuple whose object is objectKey. Zero
// matching tuples is a no-op, not an error. Called on entity deletion so
// tuples never outlive the entity they point at.
func DeleteAllForObject(ctx context.Context, c relation.Client, objectKey string) (deleted int, err error) {
	existing, err := c.Read(ctx, relation.Filter{ObjectKey: objectKey})
	if err != nil {
		return 0, fmt.Errorf("reconcile: read tuples of object %s: %w", objectKey, err)
	}
	if len(existing) == 0 {
		return 0, nil
	}
	if err := c.Write(ctx, nil, existing); err != nil {
		return 0, fmt.Errorf("reconcile: delete tuples of object %s: %w", objectKey, err)
	}
	return len(existing), nil
}

// DeleteAllForSubject removes every tuple where subjectKey appears as
// subject on objects of objectType. The type filter is required because the
// store cannot read by subject alone.
func DeleteAllForSubject(ctx context.Context, c relation.Client, subjectKey, objectType string) (deleted int, err error) {
	existing, err := c.Read(ctx, relation.Filter{
		SubjectKey: subjectKey,
		ObjectKey:  objectType + ":",
	})
	if err != nil {
		return 0, fmt.Errorf("reconcile: read tuples of subject %s: %w", subjectKey, err)
	}
	if len(existing) == 0 {
		return 0, nil
	}
	if err := c.Write(ctx, nil, existing); err != nil {
		return 0, fmt.Errorf("reconcile: delete tuples of subject %s: %w", subjectKey, err)
	}
	return len(existing), nil
}

// diff splits desired against existing into additions and removals.
func diff(desired []string, existing map[string]struct{}) (toAdd, toDel []string) {
	desiredSet := make(map[string]struct{}, len(desired))
	for _, d := range desired {
		desiredSet[d] = struct{}{}
		if _, ok := existing[d]; !ok {
			toAdd = append(toAdd, d)
		}
	}
	for e := range existing {
		if _, ok := desiredSet[e]; !ok {
			toDel = append(toDel, e)
		}
	}
	return toAdd, toDel
}
