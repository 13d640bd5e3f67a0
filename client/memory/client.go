// Package memory provides an in-memory implementation of the relationship
// store client. It is intended for testing and development: it stores raw
// tuples and emulates the external store's model evaluation through the
// schema catalogue's implied-relation table, so checks against computed
// relations (can_view and friends) behave like the real store.
package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/testmytrinh/tmt-lms-backend/id"
	"github.com/testmytrinh/tmt-lms-backend/relation"
	"github.com/testmytrinh/tmt-lms-backend/schema"
)

// Compile-time interface checks.
var (
	_ relation.Client       = (*Client)(nil)
	_ relation.StoreManager = (*Manager)(nil)
)

// Client is a thread-safe in-memory relationship store.
type Client struct {
	mu     sync.RWMutex
	tuples map[string]relation.Tuple
}

// New creates a new empty in-memory store client.
func New() *Client {
	return &Client{tuples: make(map[string]relation.Tuple)}
}

// Read returns tuples matching the filter. An empty filter matches every
// tuple. The ObjectKey may be a bare "type:" prefix.
func (c *Client) Read(_ context.Context, f relation.Filter) ([]relation.Tuple, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []relation.Tuple
	for _, t := range c.tuples {
		if !matchKey(f.ObjectKey, t.ObjectKey()) {
			continue
		}
		if f.Relation != "" && t.Relation != f.Relation {
			continue
		}
		if f.SubjectKey != "" && t.SubjectKey() != f.SubjectKey {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

// Write applies one batched mutation. Deleting an absent tuple is a no-op.
func (c *Client) Write(_ context.Context, writes, deletes []relation.Tuple) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, t := range writes {
		c.tuples[t.String()] = t
	}
	for _, t := range deletes {
		delete(c.tuples, t.String())
	}
	return nil
}

// Check evaluates subject#rel@object against the stored tuples: a direct
// tuple, the type wildcard, or any raw relation the model expands rel into.
func (c *Client) Check(_ context.Context, subjectKey, rel, objectKey string) (bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.allowed(subjectKey, rel, objectKey), nil
}

// BatchCheck evaluates every item and keys the results by correlation id.
func (c *Client) BatchCheck(_ context.Context, items []relation.CheckItem) (map[string]bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]bool, len(items))
	for _, it := range items {
		corr := it.CorrelationID
		if corr == "" {
			corr = id.NewCheckID().String()
		}
		out[corr] = c.allowed(it.SubjectKey, it.Relation, it.ObjectKey)
	}
	return out, nil
}

// ListObjects returns the ids of objects of objectType the subject holds
// rel on, model expansion included.
func (c *Client) ListObjects(_ context.Context, subjectKey, rel, objectType string) ([]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	seen := make(map[string]struct{})
	var out []string
	for _, t := range c.tuples {
		if t.ObjectType != objectType {
			continue
		}
		if _, ok := seen[t.ObjectID]; ok {
			continue
		}
		if c.allowed(subjectKey, rel, t.ObjectKey()) {
			seen[t.ObjectID] = struct{}{}
			out = append(out, t.ObjectID)
		}
	}
	return out, nil
}

// Flush deletes every tuple in the store and returns how many were removed.
// Test-harness helper mirroring the store's flush maintenance operation.
func (c *Client) Flush() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := len(c.tuples)
	c.tuples = make(map[string]relation.Tuple)
	return n
}

// Len returns the number of stored tuples.
func (c *Client) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.tuples)
}

// allowed checks direct tuples, the type wildcard, and the model's
// implied-relation expansion. Callers hold the read lock.
func (c *Client) allowed(subjectKey, rel, objectKey string) bool {
	objectType, _ := relation.SplitKey(objectKey)
	subjectType, subjectID := relation.SplitKey(subjectKey)

	for _, granting := range schema.GrantingRelations(schema.ObjectType(objectType), schema.Relation(rel)) {
		direct := relation.New(subjectKey, string(granting), objectKey)
		if _, ok := c.tuples[direct.String()]; ok {
			return true
		}
		if subjectID != relation.WildcardID {
			wild := relation.New(relation.WildcardKey(subjectType), string(granting), objectKey)
			if _, ok := c.tuples[wild.String()]; ok {
				return true
			}
		}
	}
	return false
}

// matchKey matches a filter key against a tuple key. A filter key ending in
// ":" matches every key of that type; empty matches everything.
func matchKey(filterKey, tupleKey string) bool {
	if filterKey == "" {
		return true
	}
	if strings.HasSuffix(filterKey, ":") {
		return strings.HasPrefix(tupleKey, filterKey)
	}
	return filterKey == tupleKey
}

// Manager implements the store lifecycle over in-memory stores. Cloned
// stores start empty; the model they share is the static schema catalogue.
type Manager struct {
	mu     sync.Mutex
	stores map[string]*Client
}

// NewManager creates an empty in-memory store manager.
func NewManager() *Manager {
	return &Manager{stores: make(map[string]*Client)}
}

// CloneStore creates a fresh isolated store and returns its id. The name is
// used as the id when non-empty and free, otherwise a unique id is minted.
func (m *Manager) CloneStore(_ context.Context, name string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	storeID := name
	if storeID == "" {
		storeID = id.NewStoreName()
	}
	if _, exists := m.stores[storeID]; exists {
		storeID = id.NewStoreName()
	}
	m.stores[storeID] = New()
	return storeID, nil
}

// DeleteStore tears down a cloned store. Unknown ids are a no-op.
func (m *Manager) DeleteStore(_ context.Context, storeID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.stores, storeID)
	return nil
}

// Store returns the client for a cloned store, or nil if unknown.
func (m *Manager) Store(storeID string) *Client {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stores[storeID]
}
