package openfga

import "context"

type contextKey int

const ctxKeyStoreID contextKey = iota

// WithStore returns a context that pins every operation to the given store,
// overriding the resolver and the default store. Used by tests running
// against cloned stores and by maintenance tooling.
func WithStore(ctx context.Context, storeID string) context.Context {
	return context.WithValue(ctx, ctxKeyStoreID, storeID)
}

func storeFromContext(ctx context.Context) string {
	v, ok := ctx.Value(ctxKeyStoreID).(string)
	if !ok {
		return ""
	}
	return v
}
