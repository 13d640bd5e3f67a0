package syncer

import (
	"context"

	"github.com/testmytrinh/tmt-lms-backend/reconcile"
	"github.com/testmytrinh/tmt-lms-backend/relation"
	"github.com/testmytrinh/tmt-lms-backend/schema"
)

// ContentNodeSaved reconciles a node's class link, parent link, and owner.
// Each edge is synced by its own self-contained call; the parent edge's
// desired set has size ≤ 1, so moving a node deletes the old parent tuple
// and adds the new one in a single batch.
func (s *Syncer) ContentNodeSaved(ctx context.Context, n ContentNode) error {
	objectKey := relation.Key(string(schema.TypeContentNode), n.ID)

	written, deleted, err := reconcile.SyncSingleTypeSubjects(
		ctx, s.client, objectKey,
		string(schema.TypeCourseClass), string(schema.RelationCourseClass),
		[]string{n.CourseClassID},
	)
	if err != nil {
		return err
	}
	s.logSync("content_node.course_class", objectKey, written, deleted)

	var parents []string
	if n.ParentID != "" {
		parents = []string{n.ParentID}
	}
	written, deleted, err = reconcile.SyncSingleTypeSubjects(
		ctx, s.client, objectKey,
		string(schema.TypeContentNode), string(schema.RelationParent),
		parents,
	)
	if err != nil {
		return err
	}
	s.logSync("content_node.parent", objectKey, written, deleted)

	var owners []string
	if n.OwnerID != "" {
		owners = []string{n.OwnerID}
	}
	written, deleted, err = reconcile.SyncSingleTypeSubjects(
		ctx, s.client, objectKey,
		string(schema.TypeUser), string(schema.RelationOwner),
		owners,
	)
	if err != nil {
		return err
	}
	s.logSync("content_node.owner", objectKey, written, deleted)
	return nil
}

// ContentNodeDeleted removes every tuple keyed to the node. Children's
// parent tuples are not re-pointed: the relational cascade deletes children
// first, and each child's own deletion event cleans its tuples.
func (s *Syncer) ContentNodeDeleted(ctx context.Context, nodeID string) error {
	objectKey := relation.Key(string(schema.TypeContentNode), nodeID)
	deleted, err := reconcile.DeleteAllForObject(ctx, s.client, objectKey)
	if err != nil {
		return err
	}
	s.logSync("content_node.delete", objectKey, 0, deleted)
	return nil
}
