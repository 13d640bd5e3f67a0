package authz

import (
	"context"
	"log/slog"
	"time"

	"github.com/testmytrinh/tmt-lms-backend/id"
	"github.com/testmytrinh/tmt-lms-backend/relation"
	"github.com/testmytrinh/tmt-lms-backend/syncer"
	"github.com/testmytrinh/tmt-lms-backend/synclog"
)

// Engine coordinates tuple synchronization and authorization queries over
// one relationship store client. Dispatched entity changes fan out through
// the hook registry; queries go straight to the client.
type Engine struct {
	client   relation.Client
	syncer   *syncer.Syncer
	registry *Registry
	synclog  synclog.Store
	logger   *slog.Logger
	config   Config
}

// New creates an engine with the given options. Unless WithRegistry is
// used, the default hook wiring applies: every entity save fails loud so a
// non-converged store surfaces to the caller, and template deletion cleanup
// is best-effort because the tuples it would leave behind are keyed to a
// template that no longer exists.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{
		logger: slog.Default(),
		config: DefaultConfig(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.client == nil {
		return nil, ErrClientRequired
	}
	if e.config.BatchCheckSize <= 0 {
		e.config.BatchCheckSize = DefaultConfig().BatchCheckSize
	}
	e.syncer = syncer.New(e.client, syncer.WithLogger(e.logger))
	if e.registry == nil {
		e.registry = defaultRegistry(e.syncer, e.logger)
	}
	return e, nil
}

// Client returns the underlying relationship store client.
func (e *Engine) Client() relation.Client { return e.client }

// Registry returns the hook registry, for hosts adding hooks beyond the
// default wiring.
func (e *Engine) Registry() *Registry { return e.registry }

// Dispatch routes one committed entity change through the registered hooks.
// Call it strictly after the relational commit; the payload must be the
// snapshot type of the entity kind (see package syncer).
func (e *Engine) Dispatch(ctx context.Context, kind EntityKind, event Event, payload any) error {
	start := time.Now()
	err := e.registry.Dispatch(ctx, kind, event, payload)
	e.audit(ctx, kind, event, time.Since(start), err)
	return err
}

// audit records the dispatch outcome best-effort. The log store never
// fails a dispatch.
func (e *Engine) audit(ctx context.Context, kind EntityKind, event Event, d time.Duration, dispatchErr error) {
	if e.synclog == nil {
		return
	}
	scope := scopeFromContext(ctx)
	entry := &synclog.Entry{
		ID:         id.NewDispatchID().String(),
		TenantID:   scope.tenantID,
		AppID:      scope.appID,
		EntityKind: string(kind),
		Event:      string(event),
		Outcome:    synclog.OutcomeOK,
		DurationNs: d.Nanoseconds(),
		CreatedAt:  time.Now().UTC(),
	}
	if dispatchErr != nil {
		entry.Outcome = synclog.OutcomeError
		entry.Reason = dispatchErr.Error()
	}
	if err := e.synclog.CreateEntry(ctx, entry); err != nil {
		e.logger.Error("sync log write failed", slog.Any("error", err))
	}
}

// defaultRegistry wires every entity kind and event to its synchronizer.
// The fail policy is chosen per registration: RunOrAbort for mutations whose
// missed sync leaves live entities with wrong permissions, RunBestEffort for
// cleanup of entities that no longer exist.
func defaultRegistry(s *syncer.Syncer, logger *slog.Logger) *Registry {
	r := NewRegistry(logger)

	r.Register(EntityCourseClass, EventSaved,
		RunOrAbort("course_class.saved", payloadHook(s.CourseClassSaved)))
	r.Register(EntityCourseClass, EventDeleted,
		RunOrAbort("course_class.deleted", payloadHook(s.CourseClassDeleted)))

	r.Register(EntityEnrollment, EventSaved,
		RunOrAbort("enrollment.saved", payloadHook(s.EnrollmentSaved)))
	r.Register(EntityEnrollment, EventDeleted,
		RunOrAbort("enrollment.deleted", payloadHook(s.EnrollmentDeleted)))

	r.Register(EntityContentNode, EventSaved,
		RunOrAbort("content_node.saved", payloadHook(s.ContentNodeSaved)))
	r.Register(EntityContentNode, EventDeleted,
		RunOrAbort("content_node.deleted", payloadHook(s.ContentNodeDeleted)))

	r.Register(EntityCourseTemplate, EventSaved,
		RunOrAbort("course_template.saved", payloadHook(s.TemplateSaved)))
	r.Register(EntityCourseTemplate, EventDeleted,
		RunBestEffort(logger, "course_template.deleted", payloadHook(s.TemplateDeleted)))

	r.Register(EntityFolder, EventSaved,
		RunOrAbort("folder.saved", payloadHook(s.FolderSaved)))
	r.Register(EntityFolder, EventDeleted,
		RunOrAbort("folder.deleted", payloadHook(s.FolderDeleted)))

	r.Register(EntityFile, EventSaved,
		RunOrAbort("file.saved", payloadHook(s.FileSaved)))
	r.Register(EntityFile, EventDeleted,
		RunOrAbort("file.deleted", payloadHook(s.FileDeleted)))

	r.Register(EntityUser, EventSaved,
		RunOrAbort("user.groups", payloadHook(s.UserGroupsChanged)))
	r.Register(EntityUser, EventDeleted,
		RunOrAbort("user.deleted", payloadHook(s.UserDeleted)))

	return r
}
