package syncer

import (
	"context"

	"github.com/testmytrinh/tmt-lms-backend/reconcile"
	"github.com/testmytrinh/tmt-lms-backend/relation"
	"github.com/testmytrinh/tmt-lms-backend/schema"
)

// TemplateSaved reconciles the template's owner edge. Ownership is a
// singleton set, so a handover deletes the previous owner tuple in the
// same batch that writes the new one.
func (s *Syncer) TemplateSaved(ctx context.Context, t CourseTemplate) error {
	objectKey := relation.Key(string(schema.TypeCourseTemplate), t.ID)

	var owners []string
	if t.OwnerID != "" {
		owners = []string{t.OwnerID}
	}
	written, deleted, err := reconcile.SyncSingleTypeSubjects(
		ctx, s.client, objectKey,
		string(schema.TypeUser), string(schema.RelationOwner),
		owners,
	)
	if err != nil {
		return err
	}
	s.logSync("course_template.owner", objectKey, written, deleted)
	return nil
}

// TemplateDeleted removes the template's own tuples. Classes that linked
// to the template drop their course_template edge through their own save
// events; this cleanup only covers tuples keyed to the template object.
func (s *Syncer) TemplateDeleted(ctx context.Context, templateID string) error {
	objectKey := relation.Key(string(schema.TypeCourseTemplate), templateID)
	deleted, err := reconcile.DeleteAllForObject(ctx, s.client, objectKey)
	if err != nil {
		return err
	}
	s.logSync("course_template.delete", objectKey, 0, deleted)
	return nil
}
