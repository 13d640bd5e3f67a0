package authz

import "errors"

var (
	// ErrClientRequired is returned by New when no store client is set.
	ErrClientRequired = errors.New("authz: store client is required")

	// ErrNoHook is returned by Dispatch when no hook is registered for the
	// entity kind and event. Registration is explicit, so an unknown pair
	// is a wiring mistake, not a quiet no-op.
	ErrNoHook = errors.New("authz: no hook registered")

	// ErrBadPayload is returned when a dispatched payload does not have the
	// snapshot type the hook expects.
	ErrBadPayload = errors.New("authz: payload has wrong type")
)
