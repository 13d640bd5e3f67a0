package extension

import (
	"log/slog"

	authz "github.com/testmytrinh/tmt-lms-backend"
	"github.com/testmytrinh/tmt-lms-backend/relation"
)

// ExtOption configures the authorization Forge extension.
type ExtOption func(*Extension)

// WithClient sets the tuple store client, bypassing DI resolution.
func WithClient(c relation.Client) ExtOption {
	return func(e *Extension) {
		e.client = c
	}
}

// WithConfig sets the extension configuration.
func WithConfig(cfg Config) ExtOption {
	return func(e *Extension) {
		e.config = cfg
	}
}

// WithEngineOptions adds engine-level options.
func WithEngineOptions(opts ...authz.Option) ExtOption {
	return func(e *Extension) {
		e.engineOpts = append(e.engineOpts, opts...)
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) ExtOption {
	return func(e *Extension) {
		e.logger = l
	}
}

// WithDisableMigrate disables auto-migration on start.
func WithDisableMigrate() ExtOption {
	return func(e *Extension) {
		e.config.DisableMigrate = true
	}
}
