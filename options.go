package authz

import (
	"log/slog"

	"github.com/testmytrinh/tmt-lms-backend/relation"
	"github.com/testmytrinh/tmt-lms-backend/synclog"
)

// Option is a functional option for the Engine.
type Option func(*Engine)

// WithClient sets the relationship store client.
func WithClient(c relation.Client) Option { return func(e *Engine) { e.client = c } }

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option { return func(e *Engine) { e.logger = l } }

// WithConfig sets the engine configuration.
func WithConfig(c Config) Option { return func(e *Engine) { e.config = c } }

// WithRegistry replaces the default hook registry. The caller owns the full
// wiring; none of the default synchronizer hooks are registered.
func WithRegistry(r *Registry) Option { return func(e *Engine) { e.registry = r } }

// WithSyncLog enables persistent auditing of dispatches. Entries are
// recorded best-effort; a failing log store never fails a dispatch.
func WithSyncLog(s synclog.Store) Option { return func(e *Engine) { e.synclog = s } }
