// Package syncer translates committed entity state into desired relation
// tuples and converges the relationship store through the reconcile
// primitives. One method per entity kind and lifecycle event; each runs
// strictly after the relational commit and computes its desired set from
// nothing but the snapshot it is handed, so overlapping synchronizers stay
// correct under any interleaving.
package syncer

import "github.com/testmytrinh/tmt-lms-backend/schema"

// CourseClass is the post-commit snapshot of a course class.
type CourseClass struct {
	ID     string
	IsOpen bool

	// TemplateID links the class to the template it was instantiated
	// from; empty means no template.
	TemplateID string
}

// Enrollment is the post-commit snapshot of a user's enrollment on a class.
type Enrollment struct {
	UserID        string
	CourseClassID string
	Role          schema.EnrollmentRole

	// ClassIsOpen carries the class's open flag so the guest-on-open-class
	// skip rule needs no extra read.
	ClassIsOpen bool
}

// ContentNode is the post-commit snapshot of a node in a class's content
// tree.
type ContentNode struct {
	ID            string
	CourseClassID string

	// ParentID is empty for root nodes.
	ParentID string

	// OwnerID is empty for nodes without an explicit owner.
	OwnerID string
}

// CourseTemplate is the post-commit snapshot of a course template.
type CourseTemplate struct {
	ID string

	// OwnerID is empty when ownership was cleared (owner deleted).
	OwnerID string
}

// UserGroups is the post-commit snapshot of a user's group memberships.
// GroupIDs is the complete set; groups not listed are removed.
type UserGroups struct {
	UserID   string
	GroupIDs []string
}

// Folder is the post-commit snapshot of a storage folder.
type Folder struct {
	ID      string
	OwnerID string

	// ParentID is empty for top-level folders.
	ParentID string
}

// File is the post-commit snapshot of a stored file.
type File struct {
	ID      string
	OwnerID string

	// FolderID is empty for files outside any folder.
	FolderID string
}
