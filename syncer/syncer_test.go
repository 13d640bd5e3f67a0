package syncer

import (
	"context"
	"testing"

	"github.com/testmytrinh/tmt-lms-backend/client/memory"
	"github.com/testmytrinh/tmt-lms-backend/relation"
	"github.com/testmytrinh/tmt-lms-backend/schema"
)

// countingClient counts Write calls so tests can assert the empty-diff
// short-circuit.
type countingClient struct {
	*memory.Client
	writes int
}

func (c *countingClient) Write(ctx context.Context, writes, deletes []relation.Tuple) error {
	c.writes++
	return c.Client.Write(ctx, writes, deletes)
}

func TestCourseClassOpenAccess(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	s := New(store)

	if err := s.CourseClassSaved(ctx, CourseClass{ID: "cc1", IsOpen: true}); err != nil {
		t.Fatal(err)
	}
	ok, err := store.Check(ctx, "user:alice", string(schema.RelationCanView), "course_class:cc1")
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("any user should view an open class")
	}

	// Closing the class strips the wildcard tuple.
	if err := s.CourseClassSaved(ctx, CourseClass{ID: "cc1", IsOpen: false}); err != nil {
		t.Fatal(err)
	}
	ok, err = store.Check(ctx, "user:alice", string(schema.RelationCanView), "course_class:cc1")
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("closed class should not be viewable by arbitrary users")
	}
}

func TestCourseClassSavedIdempotent(t *testing.T) {
	ctx := context.Background()
	c := &countingClient{Client: memory.New()}
	s := New(c)

	cc := CourseClass{ID: "cc1", IsOpen: true, TemplateID: "t1"}
	if err := s.CourseClassSaved(ctx, cc); err != nil {
		t.Fatal(err)
	}
	before := c.writes
	if err := s.CourseClassSaved(ctx, cc); err != nil {
		t.Fatal(err)
	}
	if c.writes != before {
		t.Fatalf("second identical save issued %d extra writes", c.writes-before)
	}
}

func TestCourseClassTemplateLink(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	s := New(store)

	if err := s.CourseClassSaved(ctx, CourseClass{ID: "cc1", TemplateID: "t1"}); err != nil {
		t.Fatal(err)
	}
	got, err := store.Read(ctx, relation.Filter{ObjectKey: "course_class:cc1", Relation: string(schema.RelationCourseTemplate)})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].SubjectKey() != "course_template:t1" {
		t.Fatalf("template link tuples = %v", got)
	}

	// Detaching the template removes the link.
	if err := s.CourseClassSaved(ctx, CourseClass{ID: "cc1"}); err != nil {
		t.Fatal(err)
	}
	got, err = store.Read(ctx, relation.Filter{ObjectKey: "course_class:cc1"})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no tuples after detach, got %v", got)
	}
}

func TestEnrollmentRoleExclusive(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	s := New(store)

	e := Enrollment{UserID: "alice", CourseClassID: "cc1", Role: schema.RoleStudent}
	if err := s.EnrollmentSaved(ctx, e); err != nil {
		t.Fatal(err)
	}
	e.Role = schema.RoleTeacher
	if err := s.EnrollmentSaved(ctx, e); err != nil {
		t.Fatal(err)
	}

	got, err := store.Read(ctx, relation.Filter{SubjectKey: "user:alice", ObjectKey: "course_class:cc1"})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Relation != string(schema.RelationTeacher) {
		t.Fatalf("expected single teacher tuple, got %v", got)
	}
	ok, err := store.Check(ctx, "user:alice", string(schema.RelationCanModify), "course_class:cc1")
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("teacher should hold can_modify")
	}
}

func TestEnrollmentGuestOnOpenClassSkipped(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	s := New(store)

	e := Enrollment{UserID: "bob", CourseClassID: "cc1", Role: schema.RoleGuest, ClassIsOpen: true}
	if err := s.EnrollmentSaved(ctx, e); err != nil {
		t.Fatal(err)
	}
	if n := store.Len(); n != 0 {
		t.Fatalf("guest enrollment on open class wrote %d tuples", n)
	}

	// Same enrollment on a closed class does sync.
	e.ClassIsOpen = false
	if err := s.EnrollmentSaved(ctx, e); err != nil {
		t.Fatal(err)
	}
	got, err := store.Read(ctx, relation.Filter{SubjectKey: "user:bob", ObjectKey: "course_class:cc1"})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Relation != string(schema.RelationGuest) {
		t.Fatalf("expected guest tuple, got %v", got)
	}
}

func TestEnrollmentUnknownRole(t *testing.T) {
	s := New(memory.New())
	err := s.EnrollmentSaved(context.Background(), Enrollment{UserID: "u", CourseClassID: "c", Role: 99})
	if err == nil {
		t.Fatal("expected error for unknown role")
	}
}

func TestEnrollmentDeleted(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	s := New(store)

	e := Enrollment{UserID: "alice", CourseClassID: "cc1", Role: schema.RoleStudent}
	if err := s.EnrollmentSaved(ctx, e); err != nil {
		t.Fatal(err)
	}
	if err := s.EnrollmentDeleted(ctx, e); err != nil {
		t.Fatal(err)
	}
	if n := store.Len(); n != 0 {
		t.Fatalf("expected empty store after unenroll, got %d tuples", n)
	}
}

func TestContentNodeParentMove(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	s := New(store)

	n := ContentNode{ID: "n2", CourseClassID: "cc1", ParentID: "n1", OwnerID: "alice"}
	if err := s.ContentNodeSaved(ctx, n); err != nil {
		t.Fatal(err)
	}
	n.ParentID = "n3"
	if err := s.ContentNodeSaved(ctx, n); err != nil {
		t.Fatal(err)
	}

	got, err := store.Read(ctx, relation.Filter{ObjectKey: "content_node:n2", Relation: string(schema.RelationParent)})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].SubjectKey() != "content_node:n3" {
		t.Fatalf("expected single parent tuple for n3, got %v", got)
	}
}

func TestContentNodeDeleted(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	s := New(store)

	if err := s.ContentNodeSaved(ctx, ContentNode{ID: "n1", CourseClassID: "cc1", OwnerID: "alice"}); err != nil {
		t.Fatal(err)
	}
	if err := s.ContentNodeDeleted(ctx, "n1"); err != nil {
		t.Fatal(err)
	}
	got, err := store.Read(ctx, relation.Filter{ObjectKey: "content_node:n1"})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no tuples after delete, got %v", got)
	}
}

func TestTemplateOwnerHandover(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	s := New(store)

	if err := s.TemplateSaved(ctx, CourseTemplate{ID: "t1", OwnerID: "alice"}); err != nil {
		t.Fatal(err)
	}
	if err := s.TemplateSaved(ctx, CourseTemplate{ID: "t1", OwnerID: "bob"}); err != nil {
		t.Fatal(err)
	}

	got, err := store.Read(ctx, relation.Filter{ObjectKey: "course_template:t1", Relation: string(schema.RelationOwner)})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].SubjectKey() != "user:bob" {
		t.Fatalf("expected bob as sole owner, got %v", got)
	}
}

func TestContentNodeClassLinks(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	s := New(store)

	root := ContentNode{ID: "n1", CourseClassID: "cc1"}
	child := ContentNode{ID: "n2", CourseClassID: "cc1", ParentID: "n1"}
	if err := s.ContentNodeSaved(ctx, root); err != nil {
		t.Fatal(err)
	}
	if err := s.ContentNodeSaved(ctx, child); err != nil {
		t.Fatal(err)
	}

	res, err := store.BatchCheck(ctx, []relation.CheckItem{
		{SubjectKey: "course_class:cc1", Relation: string(schema.RelationCourseClass), ObjectKey: "content_node:n1", CorrelationID: "root"},
		{SubjectKey: "course_class:cc1", Relation: string(schema.RelationCourseClass), ObjectKey: "content_node:n2", CorrelationID: "child"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if !res["root"] || !res["child"] {
		t.Fatalf("both nodes should link to the class, got %v", res)
	}
}

func TestFolderAndFileSync(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	s := New(store)

	if err := s.FolderSaved(ctx, Folder{ID: "d1", OwnerID: "alice"}); err != nil {
		t.Fatal(err)
	}
	if err := s.FileSaved(ctx, File{ID: "f1", OwnerID: "alice", FolderID: "d1"}); err != nil {
		t.Fatal(err)
	}

	ok, err := store.Check(ctx, "user:alice", string(schema.RelationCanEdit), "file:f1")
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("owner should edit the file")
	}

	// Moving the file out of any folder strips the parent tuple.
	if err := s.FileSaved(ctx, File{ID: "f1", OwnerID: "alice"}); err != nil {
		t.Fatal(err)
	}
	got, err := store.Read(ctx, relation.Filter{ObjectKey: "file:f1", Relation: string(schema.RelationParent)})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no parent tuple, got %v", got)
	}

	if err := s.FileDeleted(ctx, "f1"); err != nil {
		t.Fatal(err)
	}
	if err := s.FolderDeleted(ctx, "d1"); err != nil {
		t.Fatal(err)
	}
	if n := store.Len(); n != 0 {
		t.Fatalf("expected empty store, got %d tuples", n)
	}
}

func TestUserGroupsChanged(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	s := New(store)

	if err := s.UserGroupsChanged(ctx, UserGroups{UserID: "alice", GroupIDs: []string{"g1", "g2"}}); err != nil {
		t.Fatal(err)
	}
	if err := s.UserGroupsChanged(ctx, UserGroups{UserID: "alice", GroupIDs: []string{"g2", "g3"}}); err != nil {
		t.Fatal(err)
	}

	got, err := store.ListObjects(ctx, "user:alice", string(schema.RelationMember), string(schema.TypeGroup))
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]bool{"g2": true, "g3": true}
	if len(got) != 2 || !want[got[0]] || !want[got[1]] {
		t.Fatalf("groups = %v, want g2 and g3", got)
	}

	// Membership tuples are user#member@group, never the other way around.
	tuples, err := store.Read(ctx, relation.Filter{SubjectKey: "user:alice"})
	if err != nil {
		t.Fatal(err)
	}
	for _, tup := range tuples {
		if tup.Relation != string(schema.RelationMember) || tup.ObjectType != string(schema.TypeGroup) {
			t.Fatalf("malformed membership tuple %s", tup)
		}
	}
}

func TestUserDeleted(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	s := New(store)

	if err := s.UserGroupsChanged(ctx, UserGroups{UserID: "alice", GroupIDs: []string{"g1", "g2"}}); err != nil {
		t.Fatal(err)
	}
	if err := s.UserGroupsChanged(ctx, UserGroups{UserID: "bob", GroupIDs: []string{"g1"}}); err != nil {
		t.Fatal(err)
	}
	if err := s.UserDeleted(ctx, "alice"); err != nil {
		t.Fatal(err)
	}

	got, err := store.Read(ctx, relation.Filter{SubjectKey: "user:alice"})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Fatalf("alice still has tuples: %v", got)
	}
	got, err = store.Read(ctx, relation.Filter{SubjectKey: "user:bob"})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("bob's membership should survive, got %v", got)
	}
}
