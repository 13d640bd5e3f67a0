package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/xraph/forge"

	authz "github.com/testmytrinh/tmt-lms-backend"
	"github.com/testmytrinh/tmt-lms-backend/client/memory"
	"github.com/testmytrinh/tmt-lms-backend/relation"
	"github.com/testmytrinh/tmt-lms-backend/schema"
)

// forgeContext renames forge.Context so it can be embedded alongside the
// Context() method below (an embedded field may not share a method's name).
type forgeContext = forge.Context

// fakeRequestContext implements the handful of forge.Context methods the
// middleware touches. Anything else panics on the embedded nil interface.
type fakeRequestContext struct {
	forgeContext
	ctx    context.Context
	params map[string]string
	rec    *httptest.ResponseRecorder
}

func (f *fakeRequestContext) Context() context.Context      { return f.ctx }
func (f *fakeRequestContext) Param(name string) string      { return f.params[name] }
func (f *fakeRequestContext) SetHeader(key, value string)   { f.rec.Header().Set(key, value) }
func (f *fakeRequestContext) Response() http.ResponseWriter { return f.rec }

func newRequestContext(userID, objectID string) *fakeRequestContext {
	ctx := context.Background()
	if userID != "" {
		ctx = forge.WithUserID(ctx, userID)
	}
	return &fakeRequestContext{
		ctx:    ctx,
		params: map[string]string{"id": objectID},
		rec:    httptest.NewRecorder(),
	}
}

func newTestEngine(t *testing.T) (*authz.Engine, *memory.Client) {
	t.Helper()
	store := memory.New()
	eng, err := authz.New(authz.WithClient(store))
	if err != nil {
		t.Fatal(err)
	}
	return eng, store
}

func TestRequire(t *testing.T) {
	eng, store := newTestEngine(t)
	if err := store.Write(context.Background(), []relation.Tuple{
		relation.New("user:alice", string(schema.RelationTeacher), "course_class:c1"),
	}, nil); err != nil {
		t.Fatal(err)
	}

	var called bool
	next := func(ctx forge.Context) error {
		called = true
		return nil
	}
	handler := Require(eng, schema.RelationCanModify, schema.TypeCourseClass)(next)

	fctx := newRequestContext("alice", "c1")
	if err := handler(fctx); err != nil {
		t.Fatal(err)
	}
	if !called {
		t.Fatal("authorized request should reach the handler")
	}

	called = false
	fctx = newRequestContext("bob", "c1")
	if err := handler(fctx); err != nil {
		t.Fatal(err)
	}
	if called {
		t.Fatal("unauthorized request should not reach the handler")
	}
	if fctx.rec.Code != 403 {
		t.Fatalf("status = %d, want 403", fctx.rec.Code)
	}
}

func TestRequire_AnonymousDenied(t *testing.T) {
	eng, _ := newTestEngine(t)

	var called bool
	handler := Require(eng, schema.RelationCanView, schema.TypeCourseClass)(func(ctx forge.Context) error {
		called = true
		return nil
	})

	fctx := newRequestContext("", "c1")
	if err := handler(fctx); err != nil {
		t.Fatal(err)
	}
	if called {
		t.Fatal("anonymous request should not reach the handler")
	}
	if fctx.rec.Code != 403 {
		t.Fatalf("status = %d, want 403", fctx.rec.Code)
	}
}

func TestRequireAny(t *testing.T) {
	eng, store := newTestEngine(t)
	if err := store.Write(context.Background(), []relation.Tuple{
		relation.New("user:alice", string(schema.RelationStudent), "course_class:c1"),
	}, nil); err != nil {
		t.Fatal(err)
	}

	var called bool
	handler := RequireAny(eng,
		Check{Relation: schema.RelationCanModify, ObjectType: schema.TypeCourseClass},
		Check{Relation: schema.RelationCanView, ObjectType: schema.TypeCourseClass},
	)(func(ctx forge.Context) error {
		called = true
		return nil
	})

	fctx := newRequestContext("alice", "c1")
	if err := handler(fctx); err != nil {
		t.Fatal(err)
	}
	if !called {
		t.Fatal("student holds can_view, request should pass")
	}
}

// brokenClient fails every operation, standing in for an unreachable store.
type brokenClient struct{}

var errStoreDown = errors.New("store unreachable")

func (brokenClient) Read(context.Context, relation.Filter) ([]relation.Tuple, error) {
	return nil, errStoreDown
}
func (brokenClient) Write(context.Context, []relation.Tuple, []relation.Tuple) error {
	return errStoreDown
}
func (brokenClient) Check(context.Context, string, string, string) (bool, error) {
	return false, errStoreDown
}
func (brokenClient) BatchCheck(context.Context, []relation.CheckItem) (map[string]bool, error) {
	return nil, errStoreDown
}
func (brokenClient) ListObjects(context.Context, string, string, string) ([]string, error) {
	return nil, errStoreDown
}

func TestRequire_StoreErrorIsNotADeny(t *testing.T) {
	eng, err := authz.New(authz.WithClient(brokenClient{}))
	if err != nil {
		t.Fatal(err)
	}

	var called bool
	handler := Require(eng, schema.RelationCanView, schema.TypeCourseClass)(func(ctx forge.Context) error {
		called = true
		return nil
	})

	fctx := newRequestContext("alice", "c1")
	err = handler(fctx)
	if !errors.Is(err, errStoreDown) {
		t.Fatalf("expected the store error to propagate, got %v", err)
	}
	if called {
		t.Fatal("handler must not run when the check errors")
	}
	if fctx.rec.Code == 403 {
		t.Fatal("store failure must not be reported as a deny")
	}
}
