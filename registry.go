package authz

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/testmytrinh/tmt-lms-backend/id"
)

// Hook reacts to one entity lifecycle event. The payload is the entity's
// post-commit snapshot; hooks assert it to the concrete type they expect.
type Hook func(ctx context.Context, payload any) error

// RunOrAbort wraps a synchronizer call in a hook that propagates its error.
// The dispatch aborts and the caller sees the failure; use it where a missed
// sync must surface (an entity save whose permissions would otherwise be
// silently wrong).
func RunOrAbort(name string, fn Hook) Hook {
	return func(ctx context.Context, payload any) error {
		if err := fn(ctx, payload); err != nil {
			return fmt.Errorf("authz: hook %s: %w", name, err)
		}
		return nil
	}
}

// RunBestEffort wraps a synchronizer call in a hook that logs its error and
// reports success. Use it for cleanup that must not block the triggering
// operation; the stale tuples it leaves are keyed to an entity that no
// longer exists and grant nothing.
func RunBestEffort(logger *slog.Logger, name string, fn Hook) Hook {
	return func(ctx context.Context, payload any) error {
		if err := fn(ctx, payload); err != nil {
			logger.Error("best-effort hook failed",
				slog.String("hook", name),
				slog.Any("error", err),
			)
		}
		return nil
	}
}

// payloadHook adapts a typed synchronizer method into a Hook, rejecting
// payloads of the wrong type.
func payloadHook[T any](fn func(context.Context, T) error) Hook {
	return func(ctx context.Context, payload any) error {
		v, ok := payload.(T)
		if !ok {
			return fmt.Errorf("%w: got %T", ErrBadPayload, payload)
		}
		return fn(ctx, v)
	}
}

type hookKey struct {
	kind  EntityKind
	event Event
}

// Registry maps (entity kind, event) pairs to synchronizer hooks. Every pair
// is wired explicitly at construction; dispatching an unregistered pair is
// an error rather than a silent no-op.
type Registry struct {
	hooks  map[hookKey][]Hook
	logger *slog.Logger
}

// NewRegistry creates an empty hook registry.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		hooks:  make(map[hookKey][]Hook),
		logger: logger,
	}
}

// Register appends a hook for the entity kind and event. Hooks run in
// registration order.
func (r *Registry) Register(kind EntityKind, event Event, h Hook) {
	k := hookKey{kind, event}
	r.hooks[k] = append(r.hooks[k], h)
}

// Dispatch runs every hook registered for the pair, stopping at the first
// error. Each dispatch gets an operation id carried through the logs so one
// entity change can be traced across its hooks.
func (r *Registry) Dispatch(ctx context.Context, kind EntityKind, event Event, payload any) error {
	hooks := r.hooks[hookKey{kind, event}]
	if len(hooks) == 0 {
		return fmt.Errorf("%w: %s/%s", ErrNoHook, kind, event)
	}

	opID := id.NewDispatchID()
	scope := scopeFromContext(ctx)
	r.logger.Debug("dispatching entity change",
		slog.String("op_id", opID.String()),
		slog.String("entity", string(kind)),
		slog.String("event", string(event)),
		slog.String("tenant", scope.tenantID),
	)
	for _, h := range hooks {
		if err := h(ctx, payload); err != nil {
			r.logger.Error("dispatch failed",
				slog.String("op_id", opID.String()),
				slog.String("entity", string(kind)),
				slog.String("event", string(event)),
				slog.Any("error", err),
			)
			return err
		}
	}
	return nil
}
