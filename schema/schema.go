// Package schema is the closed catalogue of object types and relation names
// in the LMS authorization model. The model itself is owned and versioned by
// the external relationship store; this package mirrors its vocabulary so
// synchronizers and queries get compile-time exhaustiveness instead of
// runtime string matching. Adding an object type or relation here means a
// new synchronizer row, never a change to the reconciliation engine.
package schema

// ObjectType identifies a kind of object (or subject) in the model.
type ObjectType string

// Object types in the authorization model.
const (
	TypeUser           ObjectType = "user"
	TypeGroup          ObjectType = "group"
	TypeCourseClass    ObjectType = "course_class"
	TypeCourseTemplate ObjectType = "course_template"
	TypeContentNode    ObjectType = "content_node"
	TypeFolder         ObjectType = "folder"
	TypeFile           ObjectType = "file"
)

// Relation is a relation name valid for some object type.
type Relation string

// Relations in the authorization model. Raw relations are written by
// synchronizers; can_* relations are computed by the store's model from the
// raw ones and are only ever checked, never written.
const (
	// group
	RelationMember Relation = "member"

	// course_class
	RelationTeacher        Relation = "teacher"
	RelationEditor         Relation = "editor"
	RelationStudent        Relation = "student"
	RelationGuest          Relation = "guest"
	RelationCourseTemplate Relation = "course_template"

	// content_node / folder / file
	RelationOwner       Relation = "owner"
	RelationParent      Relation = "parent"
	RelationViewer      Relation = "viewer"
	RelationCourseClass Relation = "course_class"

	// computed permissions
	RelationCanModify Relation = "can_modify"
	RelationCanEdit   Relation = "can_edit"
	RelationCanView   Relation = "can_view"
)

// Types returns every object type in the catalogue.
func Types() []ObjectType {
	return []ObjectType{
		TypeUser,
		TypeGroup,
		TypeCourseClass,
		TypeCourseTemplate,
		TypeContentNode,
		TypeFolder,
		TypeFile,
	}
}

// Relations returns the valid relations for an object type. An unknown type
// returns nil.
func Relations(t ObjectType) []Relation {
	switch t {
	case TypeUser:
		return nil
	case TypeGroup:
		return []Relation{RelationMember}
	case TypeCourseClass:
		return []Relation{
			RelationTeacher, RelationEditor, RelationStudent, RelationGuest,
			RelationCourseTemplate,
			RelationCanModify, RelationCanEdit, RelationCanView,
		}
	case TypeCourseTemplate:
		return []Relation{RelationOwner}
	case TypeContentNode:
		return []Relation{
			RelationCourseClass, RelationParent, RelationOwner,
			RelationEditor, RelationViewer,
			RelationCanModify, RelationCanEdit, RelationCanView,
		}
	case TypeFolder, TypeFile:
		return []Relation{
			RelationOwner, RelationParent, RelationEditor, RelationViewer,
			RelationCanEdit, RelationCanView,
		}
	}
	return nil
}

// EnrollmentRole is a user's role on a course class. Exactly one role
// relation holds per user/class pair at any time.
type EnrollmentRole int

// Enrollment roles, in decreasing order of privilege.
const (
	RoleTeacher EnrollmentRole = iota + 1
	RoleStudent
	RoleGuest
)

// RoleRelations is the full set of relations an enrollment role may map to.
// Role reassignment reconciles against this set so the old role tuple is
// removed in the same batch that adds the new one.
var RoleRelations = []Relation{RelationTeacher, RelationStudent, RelationGuest}

// Relation maps the role to its relation tuple name.
func (r EnrollmentRole) Relation() Relation {
	switch r {
	case RoleTeacher:
		return RelationTeacher
	case RoleStudent:
		return RelationStudent
	case RoleGuest:
		return RelationGuest
	}
	return ""
}

// String implements fmt.Stringer.
func (r EnrollmentRole) String() string { return string(r.Relation()) }

// grantedBy lists, per object type, the raw relations whose holders are
// granted each computed relation. This mirrors the store's authorization
// model; it is consumed only by store doubles that have to emulate the
// store's own evaluation (the reconciliation core never evaluates policy).
var grantedBy = map[ObjectType]map[Relation][]Relation{
	TypeCourseClass: {
		RelationCanModify: {RelationTeacher},
		RelationCanEdit:   {RelationCanModify, RelationEditor},
		RelationCanView:   {RelationCanEdit, RelationStudent, RelationGuest},
	},
	TypeContentNode: {
		RelationCanModify: {RelationOwner},
		RelationCanEdit:   {RelationCanModify, RelationEditor},
		RelationCanView:   {RelationCanEdit, RelationViewer},
	},
	TypeFolder: {
		RelationCanEdit: {RelationOwner, RelationEditor},
		RelationCanView: {RelationCanEdit, RelationViewer},
	},
	TypeFile: {
		RelationCanEdit: {RelationOwner, RelationEditor},
		RelationCanView: {RelationCanEdit, RelationViewer},
	},
}

// GrantingRelations returns every relation on the object type whose holders
// are granted rel, rel itself included. The expansion is transitive: for a
// course class, can_view expands through can_edit and can_modify down to
// teacher.
func GrantingRelations(t ObjectType, rel Relation) []Relation {
	out := []Relation{rel}
	seen := map[Relation]struct{}{rel: {}}
	for i := 0; i < len(out); i++ {
		for _, g := range grantedBy[t][out[i]] {
			if _, ok := seen[g]; ok {
				continue
			}
			seen[g] = struct{}{}
			out = append(out, g)
		}
	}
	return out
}
