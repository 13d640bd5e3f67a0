package relation

import "context"

// Filter selects tuples on a read. Any subset of the fields may be set;
// empty fields match everything. ObjectKey may be a full "type:id" key or a
// bare "type:" prefix to match every object of that type (the store requires
// at least the type when filtering by subject).
type Filter struct {
	ObjectKey  string
	Relation   string
	SubjectKey string
}

// CheckItem is one question in a batched authorization check. CorrelationID
// is mandatory: the store does not guarantee result ordering, so the answer
// for an item is matched back by its correlation id.
type CheckItem struct {
	SubjectKey    string
	Relation      string
	ObjectKey     string
	CorrelationID string
}

// Client is the narrow contract this core consumes from the external
// relationship store. Every call is a network round trip; the client holds
// no local cache, so staleness is bounded only by the latency of the last
// reconciliation. Transport errors propagate to the caller unchanged —
// retry, where wanted, belongs to the synchronizer layer.
type Client interface {
	// Read returns the tuples matching the filter.
	Read(ctx context.Context, f Filter) ([]Tuple, error)

	// Write submits one batched mutation of adds and deletes. The store's
	// own atomicity guarantee is adopted as-is; this layer adds none.
	Write(ctx context.Context, writes, deletes []Tuple) error

	// Check answers a single allow/deny question against the store's
	// authorization model (computed relations included).
	Check(ctx context.Context, subjectKey, rel, objectKey string) (bool, error)

	// BatchCheck answers many questions in one round trip. The result map
	// is keyed by each item's correlation id.
	BatchCheck(ctx context.Context, items []CheckItem) (map[string]bool, error)

	// ListObjects returns the ids of every object of the given type the
	// subject holds the relation on.
	ListObjects(ctx context.Context, subjectKey, rel, objectType string) ([]string, error)
}

// StoreManager manages isolated store instances. Test runs (and, in
// multi-tenant deployments, tenants) get their own store cloned from a
// reference store's authorization model.
type StoreManager interface {
	// CloneStore creates a fresh store seeded with the reference store's
	// latest authorization model and returns its id.
	CloneStore(ctx context.Context, name string) (string, error)

	// DeleteStore tears down a store created by CloneStore.
	DeleteStore(ctx context.Context, storeID string) error
}
