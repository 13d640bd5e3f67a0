package syncer

import (
	"context"

	"github.com/testmytrinh/tmt-lms-backend/reconcile"
	"github.com/testmytrinh/tmt-lms-backend/relation"
	"github.com/testmytrinh/tmt-lms-backend/schema"
)

// UserGroupsChanged reconciles the full set of group memberships for one
// user. The desired set is authoritative: membership tuples for groups not
// listed are deleted in the same batch.
func (s *Syncer) UserGroupsChanged(ctx context.Context, ug UserGroups) error {
	subjectKey := relation.Key(string(schema.TypeUser), ug.UserID)
	written, deleted, err := reconcile.SyncSingleTypeObjects(
		ctx, s.client, subjectKey,
		string(schema.TypeGroup), string(schema.RelationMember),
		ug.GroupIDs,
	)
	if err != nil {
		return err
	}
	s.logSync("user.groups", subjectKey, written, deleted)
	return nil
}

// UserDeleted strips the user's group membership tuples. Tuples where the
// user appears on other object types (enrollment roles, ownership) are torn
// down by the owning entity's deletion events, not here.
func (s *Syncer) UserDeleted(ctx context.Context, userID string) error {
	subjectKey := relation.Key(string(schema.TypeUser), userID)
	deleted, err := reconcile.DeleteAllForSubject(ctx, s.client, subjectKey, string(schema.TypeGroup))
	if err != nil {
		return err
	}
	s.logSync("user.delete", subjectKey, 0, deleted)
	return nil
}
