// Package relation defines the relationship tuple for the LMS authorization
// graph (Zanzibar-style relations) and the client contract for the external
// relationship store.
//
//	user:42#teacher@course_class:7
//	content_node:19#parent@content_node:3
//	user:*#guest@course_class:7   (wildcard: every user)
package relation

import (
	"fmt"
	"strings"
)

// WildcardID is the subject id meaning "every subject of this type".
const WildcardID = "*"

// Tuple represents a relationship between a subject and an object.
// Existence of the tuple is the whole of its state; tuples carry no
// lifecycle fields of their own.
type Tuple struct {
	SubjectType string `json:"subject_type"`
	SubjectID   string `json:"subject_id"`
	Relation    string `json:"relation"`
	ObjectType  string `json:"object_type"`
	ObjectID    string `json:"object_id"`
}

// SubjectKey returns the composite subject identity, "type:id".
func (t Tuple) SubjectKey() string { return Key(t.SubjectType, t.SubjectID) }

// ObjectKey returns the composite object identity, "type:id".
func (t Tuple) ObjectKey() string { return Key(t.ObjectType, t.ObjectID) }

// IsWildcard reports whether the tuple's subject is the type wildcard.
func (t Tuple) IsWildcard() bool { return t.SubjectID == WildcardID }

// String renders the tuple in subject#relation@object notation.
func (t Tuple) String() string {
	return fmt.Sprintf("%s#%s@%s", t.SubjectKey(), t.Relation, t.ObjectKey())
}

// New builds a tuple from composite keys. Keys must be "type:id".
func New(subjectKey, rel, objectKey string) Tuple {
	st, sid := SplitKey(subjectKey)
	ot, oid := SplitKey(objectKey)
	return Tuple{
		SubjectType: st,
		SubjectID:   sid,
		Relation:    rel,
		ObjectType:  ot,
		ObjectID:    oid,
	}
}

// Key formats a composite identity key, "type:id".
func Key(objectType, id string) string {
	return objectType + ":" + id
}

// WildcardKey formats the wildcard subject key for a type, "type:*".
func WildcardKey(subjectType string) string {
	return Key(subjectType, WildcardID)
}

// SplitKey splits a composite "type:id" key. The id portion may itself
// contain colons; only the first separator is significant. A key with no
// separator is treated as a bare type with an empty id.
func SplitKey(key string) (objectType, id string) {
	objectType, id, _ = strings.Cut(key, ":")
	return objectType, id
}
