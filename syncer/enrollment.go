package syncer

import (
	"context"
	"fmt"

	"github.com/testmytrinh/tmt-lms-backend/reconcile"
	"github.com/testmytrinh/tmt-lms-backend/relation"
	"github.com/testmytrinh/tmt-lms-backend/schema"
)

// EnrollmentSaved reconciles the role relation for a user/class pair.
// Exactly one of the role relations holds afterwards: the desired set is a
// singleton, so a role change deletes the old role tuple in the same batch
// that adds the new one.
//
// A guest enrollment on an open class is skipped: the class's wildcard
// guest tuple already grants view access, and a per-user guest tuple would
// only be stale noise once the class closes.
func (s *Syncer) EnrollmentSaved(ctx context.Context, e Enrollment) error {
	if e.Role == schema.RoleGuest && e.ClassIsOpen {
		return nil
	}
	rel := e.Role.Relation()
	if rel == "" {
		return fmt.Errorf("syncer: enrollment %s@%s has unknown role %d", e.UserID, e.CourseClassID, e.Role)
	}

	subjectKey := relation.Key(string(schema.TypeUser), e.UserID)
	objectKey := relation.Key(string(schema.TypeCourseClass), e.CourseClassID)
	written, deleted, err := reconcile.SyncRelations(ctx, s.client, subjectKey, objectKey, []string{string(rel)})
	if err != nil {
		return err
	}
	s.logSync("enrollment.role", subjectKey+"@"+objectKey, written, deleted)
	return nil
}

// EnrollmentDeleted clears every relation between the user and the class.
func (s *Syncer) EnrollmentDeleted(ctx context.Context, e Enrollment) error {
	subjectKey := relation.Key(string(schema.TypeUser), e.UserID)
	objectKey := relation.Key(string(schema.TypeCourseClass), e.CourseClassID)
	written, deleted, err := reconcile.SyncRelations(ctx, s.client, subjectKey, objectKey, nil)
	if err != nil {
		return err
	}
	s.logSync("enrollment.delete", subjectKey+"@"+objectKey, written, deleted)
	return nil
}
