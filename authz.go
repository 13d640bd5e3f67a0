// Package authz keeps the LMS relationship store converged with the
// relational database.
//
// The relational database is the source of truth for entities; the external
// relationship store (OpenFGA or a compatible adapter) is a derived
// projection of relation tuples that the authorization model evaluates.
// After every entity commit the host dispatches the change through the
// Engine, which runs the registered synchronizer hooks; each hook computes
// the entity's desired tuple state and converges the store through the
// reconcile primitives.
//
//	eng, err := authz.New(
//	    authz.WithClient(fgaClient),
//	)
//	err = eng.Dispatch(ctx, authz.EntityEnrollment, authz.EventSaved, syncer.Enrollment{
//	    UserID:        "u1",
//	    CourseClassID: "cc1",
//	    Role:          schema.RoleStudent,
//	})
//	ok, err := eng.HasPermission(ctx, "user:u1", schema.RelationCanView, "course_class:cc1")
package authz

// EntityKind identifies the kind of entity a dispatched change belongs to.
type EntityKind string

const (
	EntityCourseClass    EntityKind = "course_class"
	EntityEnrollment     EntityKind = "enrollment"
	EntityContentNode    EntityKind = "content_node"
	EntityCourseTemplate EntityKind = "course_template"
	EntityFolder         EntityKind = "folder"
	EntityFile           EntityKind = "file"
	EntityUser           EntityKind = "user"
)

// Event is the lifecycle event of a dispatched change. Creates and updates
// both dispatch as EventSaved; synchronizers reconcile from the snapshot, so
// the distinction carries no weight.
type Event string

const (
	EventSaved   Event = "saved"
	EventDeleted Event = "deleted"
)
