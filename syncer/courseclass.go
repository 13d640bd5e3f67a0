package syncer

import (
	"context"

	"github.com/testmytrinh/tmt-lms-backend/reconcile"
	"github.com/testmytrinh/tmt-lms-backend/relation"
	"github.com/testmytrinh/tmt-lms-backend/schema"
)

// CourseClassSaved reconciles a class's open-access wildcard and template
// link after a save. An open class is expressed as a single user:* guest
// tuple; the model computes can_view from it, so no per-user tuples exist.
func (s *Syncer) CourseClassSaved(ctx context.Context, cc CourseClass) error {
	objectKey := relation.Key(string(schema.TypeCourseClass), cc.ID)

	var openSubjects []string
	if cc.IsOpen {
		openSubjects = []string{relation.WildcardID}
	}
	written, deleted, err := reconcile.SyncSingleTypeSubjects(
		ctx, s.client, objectKey,
		string(schema.TypeUser), string(schema.RelationGuest),
		openSubjects,
	)
	if err != nil {
		return err
	}
	s.logSync("course_class.open_access", objectKey, written, deleted)

	var templates []string
	if cc.TemplateID != "" {
		templates = []string{cc.TemplateID}
	}
	written, deleted, err = reconcile.SyncSingleTypeSubjects(
		ctx, s.client, objectKey,
		string(schema.TypeCourseTemplate), string(schema.RelationCourseTemplate),
		templates,
	)
	if err != nil {
		return err
	}
	s.logSync("course_class.template", objectKey, written, deleted)
	return nil
}

// CourseClassDeleted removes every tuple keyed to the class itself. Tuples
// of cascaded children (enrollments, content nodes) are cleaned up by their
// own deletion events, not here.
func (s *Syncer) CourseClassDeleted(ctx context.Context, classID string) error {
	objectKey := relation.Key(string(schema.TypeCourseClass), classID)
	deleted, err := reconcile.DeleteAllForObject(ctx, s.client, objectKey)
	if err != nil {
		return err
	}
	s.logSync("course_class.delete", objectKey, 0, deleted)
	return nil
}
