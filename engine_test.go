package authz

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/testmytrinh/tmt-lms-backend/client/memory"
	"github.com/testmytrinh/tmt-lms-backend/relation"
	"github.com/testmytrinh/tmt-lms-backend/schema"
	"github.com/testmytrinh/tmt-lms-backend/syncer"
	"github.com/testmytrinh/tmt-lms-backend/synclog"
)

func newTestEngine(t *testing.T, opts ...Option) (*Engine, *memory.Client) {
	t.Helper()
	store := memory.New()
	eng, err := New(append([]Option{WithClient(store)}, opts...)...)
	if err != nil {
		t.Fatal(err)
	}
	return eng, store
}

func TestNew_RequiresClient(t *testing.T) {
	_, err := New()
	if !errors.Is(err, ErrClientRequired) {
		t.Fatalf("expected ErrClientRequired, got %v", err)
	}
}

func TestEnrollmentFlow(t *testing.T) {
	ctx := WithTenant(context.Background(), "app1", "t1")
	eng, _ := newTestEngine(t)

	err := eng.Dispatch(ctx, EntityEnrollment, EventSaved, syncer.Enrollment{
		UserID:        "u1",
		CourseClassID: "cc1",
		Role:          schema.RoleStudent,
	})
	if err != nil {
		t.Fatal(err)
	}

	ok, err := eng.HasPermission(ctx, "user:u1", schema.RelationCanView, "course_class:cc1")
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("student should view the class")
	}
	ok, err = eng.HasPermission(ctx, "user:u1", schema.RelationCanModify, "course_class:cc1")
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("student should not modify the class")
	}

	// Promote to teacher: exactly the teacher tuple remains.
	err = eng.Dispatch(ctx, EntityEnrollment, EventSaved, syncer.Enrollment{
		UserID:        "u1",
		CourseClassID: "cc1",
		Role:          schema.RoleTeacher,
	})
	if err != nil {
		t.Fatal(err)
	}
	ok, err = eng.HasPermission(ctx, "user:u1", schema.RelationCanModify, "course_class:cc1")
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("teacher should modify the class")
	}
}

func TestOpenAccessToggleFlow(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t)

	cc := syncer.CourseClass{ID: "cc1", IsOpen: true}
	if err := eng.Dispatch(ctx, EntityCourseClass, EventSaved, cc); err != nil {
		t.Fatal(err)
	}
	ok, err := eng.HasPermission(ctx, "user:anyone", schema.RelationCanView, "course_class:cc1")
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("open class should be viewable")
	}

	cc.IsOpen = false
	if err := eng.Dispatch(ctx, EntityCourseClass, EventSaved, cc); err != nil {
		t.Fatal(err)
	}
	ok, err = eng.HasPermission(ctx, "user:anyone", schema.RelationCanView, "course_class:cc1")
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("closed class should not be viewable")
	}
}

func TestCascadeCleanupFlow(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t)

	node := syncer.ContentNode{ID: "n1", CourseClassID: "cc1", ParentID: "n0", OwnerID: "u1"}
	if err := eng.Dispatch(ctx, EntityContentNode, EventSaved, node); err != nil {
		t.Fatal(err)
	}
	if err := eng.Dispatch(ctx, EntityContentNode, EventDeleted, "n1"); err != nil {
		t.Fatal(err)
	}

	allowed, err := eng.FilterAllowedRelations(ctx, "course_class:cc1",
		[]schema.Relation{schema.RelationCourseClass}, "content_node:n1")
	if err != nil {
		t.Fatal(err)
	}
	if len(allowed) != 0 {
		t.Fatalf("deleted node retains relations: %v", allowed)
	}
	allowed, err = eng.FilterAllowedRelations(ctx, "content_node:n0",
		[]schema.Relation{schema.RelationParent}, "content_node:n1")
	if err != nil {
		t.Fatal(err)
	}
	if len(allowed) != 0 {
		t.Fatalf("deleted node retains parent relation: %v", allowed)
	}
}

func TestFilterAllowedRelations(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t)

	err := eng.Dispatch(ctx, EntityEnrollment, EventSaved, syncer.Enrollment{
		UserID:        "u1",
		CourseClassID: "cc1",
		Role:          schema.RoleTeacher,
	})
	if err != nil {
		t.Fatal(err)
	}

	allowed, err := eng.FilterAllowedRelations(ctx, "user:u1", []schema.Relation{
		schema.RelationCanModify,
		schema.RelationCanEdit,
		schema.RelationCanView,
		schema.RelationStudent,
	}, "course_class:cc1")
	if err != nil {
		t.Fatal(err)
	}
	want := []schema.Relation{schema.RelationCanModify, schema.RelationCanEdit, schema.RelationCanView}
	if len(allowed) != len(want) {
		t.Fatalf("allowed = %v, want %v", allowed, want)
	}
	for i := range want {
		if allowed[i] != want[i] {
			t.Fatalf("allowed = %v, want %v", allowed, want)
		}
	}
}

func TestFilterAllowedRelations_Chunked(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t, WithConfig(Config{BatchCheckSize: 2}))

	err := eng.Dispatch(ctx, EntityEnrollment, EventSaved, syncer.Enrollment{
		UserID:        "u1",
		CourseClassID: "cc1",
		Role:          schema.RoleStudent,
	})
	if err != nil {
		t.Fatal(err)
	}

	// Five candidates against chunk size two exercises the chunk loop.
	allowed, err := eng.FilterAllowedRelations(ctx, "user:u1", []schema.Relation{
		schema.RelationTeacher,
		schema.RelationStudent,
		schema.RelationCanModify,
		schema.RelationCanEdit,
		schema.RelationCanView,
	}, "course_class:cc1")
	if err != nil {
		t.Fatal(err)
	}
	if len(allowed) != 2 || allowed[0] != schema.RelationStudent || allowed[1] != schema.RelationCanView {
		t.Fatalf("allowed = %v, want [student can_view]", allowed)
	}
}

func TestListQueries(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t)

	for _, e := range []syncer.Enrollment{
		{UserID: "u1", CourseClassID: "cc1", Role: schema.RoleStudent},
		{UserID: "u2", CourseClassID: "cc1", Role: schema.RoleStudent},
		{UserID: "u3", CourseClassID: "cc1", Role: schema.RoleTeacher},
	} {
		if err := eng.Dispatch(ctx, EntityEnrollment, EventSaved, e); err != nil {
			t.Fatal(err)
		}
	}

	students, err := eng.ListSubjectsForRelation(ctx, "course_class:cc1", schema.RelationStudent, schema.TypeUser)
	if err != nil {
		t.Fatal(err)
	}
	if len(students) != 2 {
		t.Fatalf("students = %v, want two", students)
	}

	classes, err := eng.ListObjectsForSubject(ctx, "user:u3", schema.RelationCanModify, schema.TypeCourseClass)
	if err != nil {
		t.Fatal(err)
	}
	if len(classes) != 1 || classes[0] != "cc1" {
		t.Fatalf("classes = %v, want [cc1]", classes)
	}
}

func TestDispatch_NoHook(t *testing.T) {
	eng, _ := newTestEngine(t)
	err := eng.Dispatch(context.Background(), EntityKind("course"), EventSaved, nil)
	if !errors.Is(err, ErrNoHook) {
		t.Fatalf("expected ErrNoHook, got %v", err)
	}
}

func TestDispatch_BadPayload(t *testing.T) {
	eng, _ := newTestEngine(t)
	err := eng.Dispatch(context.Background(), EntityEnrollment, EventSaved, "not a snapshot")
	if !errors.Is(err, ErrBadPayload) {
		t.Fatalf("expected ErrBadPayload, got %v", err)
	}
}

// failingClient errors on every operation.
type failingClient struct{ err error }

func (f *failingClient) Read(context.Context, relation.Filter) ([]relation.Tuple, error) {
	return nil, f.err
}
func (f *failingClient) Write(context.Context, []relation.Tuple, []relation.Tuple) error {
	return f.err
}
func (f *failingClient) Check(context.Context, string, string, string) (bool, error) {
	return false, f.err
}
func (f *failingClient) BatchCheck(context.Context, []relation.CheckItem) (map[string]bool, error) {
	return nil, f.err
}
func (f *failingClient) ListObjects(context.Context, string, string, string) ([]string, error) {
	return nil, f.err
}

func TestQueries_FailClosed(t *testing.T) {
	ctx := context.Background()
	storeErr := errors.New("store unavailable")
	eng, err := New(WithClient(&failingClient{err: storeErr}))
	if err != nil {
		t.Fatal(err)
	}

	if _, err := eng.HasPermission(ctx, "user:u1", schema.RelationCanView, "course_class:cc1"); !errors.Is(err, storeErr) {
		t.Fatalf("expected store error, got %v", err)
	}
	if _, err := eng.FilterAllowedRelations(ctx, "user:u1", []schema.Relation{schema.RelationCanView}, "course_class:cc1"); !errors.Is(err, storeErr) {
		t.Fatalf("expected store error, got %v", err)
	}
	if _, err := eng.ListSubjectsForRelation(ctx, "course_class:cc1", schema.RelationStudent, schema.TypeUser); !errors.Is(err, storeErr) {
		t.Fatalf("expected store error, got %v", err)
	}
	if _, err := eng.ListObjectsForSubject(ctx, "user:u1", schema.RelationCanView, schema.TypeCourseClass); !errors.Is(err, storeErr) {
		t.Fatalf("expected store error, got %v", err)
	}
}

func TestSaveFailsLoud_TemplateDeleteBestEffort(t *testing.T) {
	ctx := context.Background()
	storeErr := errors.New("store unavailable")
	eng, err := New(WithClient(&failingClient{err: storeErr}))
	if err != nil {
		t.Fatal(err)
	}

	err = eng.Dispatch(ctx, EntityCourseTemplate, EventSaved, syncer.CourseTemplate{ID: "t1", OwnerID: "u1"})
	if !errors.Is(err, storeErr) {
		t.Fatalf("template save should fail loud, got %v", err)
	}

	// Deletion cleanup is best-effort: the error is logged, not returned.
	if err := eng.Dispatch(ctx, EntityCourseTemplate, EventDeleted, "t1"); err != nil {
		t.Fatalf("template delete should swallow store errors, got %v", err)
	}
}

// recordingSyncLog captures audit entries in memory.
type recordingSyncLog struct {
	entries []*synclog.Entry
}

func (r *recordingSyncLog) CreateEntry(_ context.Context, e *synclog.Entry) error {
	r.entries = append(r.entries, e)
	return nil
}
func (r *recordingSyncLog) ListEntries(context.Context, *synclog.QueryFilter) ([]*synclog.Entry, error) {
	return r.entries, nil
}
func (r *recordingSyncLog) CountEntries(context.Context, *synclog.QueryFilter) (int64, error) {
	return int64(len(r.entries)), nil
}
func (r *recordingSyncLog) PurgeEntries(context.Context, time.Time) (int64, error) { return 0, nil }

func TestSyncLogRecordsDispatches(t *testing.T) {
	ctx := WithTenant(context.Background(), "app1", "t1")
	log := &recordingSyncLog{}
	eng, _ := newTestEngine(t, WithSyncLog(log))

	err := eng.Dispatch(ctx, EntityEnrollment, EventSaved, syncer.Enrollment{
		UserID: "u1", CourseClassID: "cc1", Role: schema.RoleStudent,
	})
	if err != nil {
		t.Fatal(err)
	}
	_ = eng.Dispatch(ctx, EntityEnrollment, EventSaved, "bad payload")

	if len(log.entries) != 2 {
		t.Fatalf("expected two audit entries, got %d", len(log.entries))
	}
	if log.entries[0].Outcome != synclog.OutcomeOK || log.entries[0].TenantID != "t1" {
		t.Fatalf("first entry = %+v", log.entries[0])
	}
	if log.entries[1].Outcome != synclog.OutcomeError || log.entries[1].Reason == "" {
		t.Fatalf("second entry = %+v", log.entries[1])
	}
}
