// Package extension provides a Forge extension entry point for the
// authorization engine.
package extension

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/xraph/forge"
	"github.com/xraph/grove"
	"github.com/xraph/vessel"

	authz "github.com/testmytrinh/tmt-lms-backend"
	"github.com/testmytrinh/tmt-lms-backend/client/openfga"
	"github.com/testmytrinh/tmt-lms-backend/client/postgres"
	"github.com/testmytrinh/tmt-lms-backend/client/sqlite"
	"github.com/testmytrinh/tmt-lms-backend/relation"
	"github.com/testmytrinh/tmt-lms-backend/synclog"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "authz"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Relationship-tuple authorization engine for LMS entities"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// lifecycleStore is the subset of the grove-backed stores the extension
// drives during Start and Health.
type lifecycleStore interface {
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
}

// Extension adapts the authorization engine as a Forge extension.
type Extension struct {
	config     Config
	eng        *authz.Engine
	logger     *slog.Logger
	client     relation.Client
	store      lifecycleStore
	engineOpts []authz.Option
}

// New creates an authorization Forge extension with the given options.
func New(opts ...ExtOption) *Extension {
	e := &Extension{config: DefaultConfig()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name returns the extension name.
func (e *Extension) Name() string { return ExtensionName }

// Description returns the extension description.
func (e *Extension) Description() string { return ExtensionDescription }

// Version returns the semantic version.
func (e *Extension) Version() string { return ExtensionVersion }

// Dependencies returns the list of extension names this extension depends on.
func (e *Extension) Dependencies() []string { return []string{} }

// Engine returns the underlying authorization engine.
func (e *Extension) Engine() *authz.Engine { return e.eng }

// Register implements [forge.Extension]. It builds the tuple client, creates
// the engine, and registers it in the DI container.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.init(fapp); err != nil {
		return err
	}

	if err := vessel.Provide(fapp.Container(), func() (*authz.Engine, error) {
		return e.eng, nil
	}); err != nil {
		return fmt.Errorf("authz: register engine in container: %w", err)
	}

	return nil
}

func (e *Extension) init(fapp forge.App) error {
	logger := e.logger
	if logger == nil {
		logger = slog.Default()
	}

	client, err := e.resolveClient(fapp)
	if err != nil {
		return err
	}

	opts := make([]authz.Option, 0, len(e.engineOpts)+3)
	opts = append(opts, authz.WithLogger(logger), authz.WithClient(client))

	// Grove-backed stores double as the dispatch audit log.
	if s, ok := client.(synclog.Store); ok {
		opts = append(opts, authz.WithSyncLog(s))
	}

	// User-provided options come last and may override the above.
	opts = append(opts, e.engineOpts...)

	eng, err := authz.New(opts...)
	if err != nil {
		return fmt.Errorf("authz: create engine: %w", err)
	}
	e.eng = eng

	return nil
}

// resolveClient picks the tuple client, in priority order: option-provided,
// OpenFGA when configured, a relation.Client from the DI container, then a
// grove.DB from the DI container wrapped per the configured driver.
func (e *Extension) resolveClient(fapp forge.App) (relation.Client, error) {
	if e.client != nil {
		return e.client, nil
	}

	if e.config.OpenFGA.APIURL != "" {
		c, err := openfga.New(openfga.Config{
			APIURL:               e.config.OpenFGA.APIURL,
			StoreID:              e.config.OpenFGA.StoreID,
			AuthorizationModelID: e.config.OpenFGA.AuthorizationModelID,
			APIToken:             e.config.OpenFGA.APIToken,
		})
		if err != nil {
			return nil, fmt.Errorf("authz: create openfga client: %w", err)
		}
		return c, nil
	}

	if c, err := forge.Inject[relation.Client](fapp.Container()); err == nil {
		return c, nil
	}

	db, err := forge.Inject[*grove.DB](fapp.Container())
	if err != nil {
		return nil, errors.New("authz: no tuple client configured and no grove.DB in container")
	}

	switch e.config.Driver {
	case DriverSQLite:
		s := sqlite.New(db)
		e.store = s
		return s, nil
	case DriverPostgres, "":
		s := postgres.New(db)
		e.store = s
		return s, nil
	default:
		return nil, fmt.Errorf("authz: unknown driver %q", e.config.Driver)
	}
}

// Start runs store migrations unless disabled.
func (e *Extension) Start(ctx context.Context) error {
	if e.eng == nil {
		return errors.New("authz: extension not initialized")
	}

	if !e.config.DisableMigrate && e.store != nil {
		if err := e.store.Migrate(ctx); err != nil {
			return fmt.Errorf("authz: migration failed: %w", err)
		}
	}

	return nil
}

// Stop implements [forge.Extension].
func (e *Extension) Stop(ctx context.Context) error { return nil }

// Health implements [forge.Extension].
func (e *Extension) Health(ctx context.Context) error {
	if e.eng == nil {
		return errors.New("authz: extension not initialized")
	}
	if e.store != nil {
		return e.store.Ping(ctx)
	}
	return nil
}
