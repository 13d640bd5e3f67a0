// Package openfga provides the production relationship store client over
// the OpenFGA HTTP API. One Client serves many stores: the store for a
// request resolves from a context override, then the configured resolver,
// then the default store, and each store gets its own SDK client because
// the SDK binds a store id at construction.
package openfga

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	openfga "github.com/openfga/go-sdk"
	"github.com/openfga/go-sdk/client"
	"github.com/openfga/go-sdk/credentials"

	"github.com/testmytrinh/tmt-lms-backend/id"
	"github.com/testmytrinh/tmt-lms-backend/relation"
)

// Compile-time interface checks.
var (
	_ relation.Client       = (*Client)(nil)
	_ relation.StoreManager = (*Client)(nil)
)

// Config holds connection settings for the OpenFGA API.
type Config struct {
	// APIURL is the base URL of the OpenFGA server.
	APIURL string `json:"api_url"`

	// StoreID is the default store used when no override or resolver
	// applies.
	StoreID string `json:"store_id"`

	// AuthorizationModelID pins reads and checks to one model version.
	// Empty means the store's latest model.
	AuthorizationModelID string `json:"authorization_model_id,omitempty"`

	// APIToken enables pre-shared-key authentication when non-empty.
	APIToken string `json:"api_token,omitempty"`

	// PageSize is the read page size. Defaults to 100.
	PageSize int32 `json:"page_size,omitempty"`

	// MaxWriteBatch caps tuples per write request; larger mutations are
	// split. Defaults to 100, the server's write limit.
	MaxWriteBatch int `json:"max_write_batch,omitempty"`
}

// StoreResolver maps a request context to a store id. Returning "" falls
// back to the default store.
type StoreResolver func(ctx context.Context) string

// Option is a functional option for the Client.
type Option func(*Client)

// WithStoreResolver sets the per-request store resolver, typically derived
// from the tenant scope.
func WithStoreResolver(r StoreResolver) Option { return func(c *Client) { c.resolver = r } }

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option { return func(c *Client) { c.logger = l } }

// Client is an OpenFGA-backed relationship store client.
type Client struct {
	cfg      Config
	resolver StoreResolver
	logger   *slog.Logger

	mu   sync.Mutex
	sdks map[string]*client.OpenFgaClient
}

// New creates a client for the given OpenFGA server.
func New(cfg Config, opts ...Option) (*Client, error) {
	if cfg.APIURL == "" {
		return nil, fmt.Errorf("openfga: api url is required")
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 100
	}
	if cfg.MaxWriteBatch <= 0 {
		cfg.MaxWriteBatch = 100
	}
	c := &Client{
		cfg:    cfg,
		logger: slog.Default(),
		sdks:   make(map[string]*client.OpenFgaClient),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// sdkFor returns the SDK client bound to the store the context resolves to.
func (c *Client) sdkFor(ctx context.Context) (*client.OpenFgaClient, error) {
	storeID := storeFromContext(ctx)
	if storeID == "" && c.resolver != nil {
		storeID = c.resolver(ctx)
	}
	if storeID == "" {
		storeID = c.cfg.StoreID
	}
	return c.sdk(storeID)
}

// sdk returns (building if needed) the SDK client for a store id. An empty
// id yields a storeless client, valid only for store lifecycle calls.
func (c *Client) sdk(storeID string) (*client.OpenFgaClient, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if sdk, ok := c.sdks[storeID]; ok {
		return sdk, nil
	}

	cfg := &client.ClientConfiguration{
		ApiUrl:               c.cfg.APIURL,
		StoreId:              storeID,
		AuthorizationModelId: c.cfg.AuthorizationModelID,
	}
	if c.cfg.APIToken != "" {
		cfg.Credentials = &credentials.Credentials{
			Method: credentials.CredentialsMethodApiToken,
			Config: &credentials.Config{ApiToken: c.cfg.APIToken},
		}
	}
	sdk, err := client.NewSdkClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("openfga: build client for store %q: %w", storeID, err)
	}
	c.sdks[storeID] = sdk
	return sdk, nil
}

// Read returns tuples matching the filter, following pagination to the end.
func (c *Client) Read(ctx context.Context, f relation.Filter) ([]relation.Tuple, error) {
	sdk, err := c.sdkFor(ctx)
	if err != nil {
		return nil, err
	}

	body := client.ClientReadRequest{}
	if f.SubjectKey != "" {
		body.User = openfga.PtrString(f.SubjectKey)
	}
	if f.Relation != "" {
		body.Relation = openfga.PtrString(f.Relation)
	}
	if f.ObjectKey != "" {
		body.Object = openfga.PtrString(f.ObjectKey)
	}

	var out []relation.Tuple
	var token string
	for {
		opts := client.ClientReadOptions{PageSize: openfga.PtrInt32(c.cfg.PageSize)}
		if token != "" {
			opts.ContinuationToken = openfga.PtrString(token)
		}
		resp, err := sdk.Read(ctx).Body(body).Options(opts).Execute()
		if err != nil {
			return nil, fmt.Errorf("openfga: read tuples: %w", err)
		}
		for _, t := range resp.GetTuples() {
			key := t.GetKey()
			out = append(out, relation.New(key.GetUser(), key.GetRelation(), key.GetObject()))
		}
		token = resp.GetContinuationToken()
		if token == "" {
			break
		}
	}
	return out, nil
}

// Write applies the mutation, split into requests of at most MaxWriteBatch
// tuples. Splitting trades the store's single-request atomicity for
// unbounded batch size; each request is still atomic.
func (c *Client) Write(ctx context.Context, writes, deletes []relation.Tuple) error {
	if len(writes) == 0 && len(deletes) == 0 {
		return nil
	}
	sdk, err := c.sdkFor(ctx)
	if err != nil {
		return err
	}

	w := make([]client.ClientTupleKey, len(writes))
	for i, t := range writes {
		w[i] = client.ClientTupleKey{
			User:     t.SubjectKey(),
			Relation: t.Relation,
			Object:   t.ObjectKey(),
		}
	}
	d := make([]client.ClientTupleKeyWithoutCondition, len(deletes))
	for i, t := range deletes {
		d[i] = client.ClientTupleKeyWithoutCondition{
			User:     t.SubjectKey(),
			Relation: t.Relation,
			Object:   t.ObjectKey(),
		}
	}

	batch := c.cfg.MaxWriteBatch
	for len(w) > 0 || len(d) > 0 {
		body := client.ClientWriteRequest{}
		if len(w) > 0 {
			n := min(batch, len(w))
			body.Writes, w = w[:n], w[n:]
		}
		if len(d) > 0 {
			n := min(batch, len(d))
			body.Deletes, d = d[:n], d[n:]
		}
		if _, err := sdk.Write(ctx).Body(body).Execute(); err != nil {
			return fmt.Errorf("openfga: write tuples: %w", err)
		}
	}
	return nil
}

// Check evaluates subject#rel@object against the store's model.
func (c *Client) Check(ctx context.Context, subjectKey, rel, objectKey string) (bool, error) {
	sdk, err := c.sdkFor(ctx)
	if err != nil {
		return false, err
	}
	resp, err := sdk.Check(ctx).Body(client.ClientCheckRequest{
		User:     subjectKey,
		Relation: rel,
		Object:   objectKey,
	}).Execute()
	if err != nil {
		return false, fmt.Errorf("openfga: check %s#%s@%s: %w", subjectKey, rel, objectKey, err)
	}
	return resp.GetAllowed(), nil
}

// BatchCheck evaluates every item in one server round trip, keying results
// by correlation id. Items without a correlation id get one minted.
func (c *Client) BatchCheck(ctx context.Context, items []relation.CheckItem) (map[string]bool, error) {
	if len(items) == 0 {
		return map[string]bool{}, nil
	}
	sdk, err := c.sdkFor(ctx)
	if err != nil {
		return nil, err
	}

	checks := make([]client.ClientBatchCheckItem, len(items))
	for i, it := range items {
		corr := it.CorrelationID
		if corr == "" {
			corr = id.NewCheckID().String()
		}
		checks[i] = client.ClientBatchCheckItem{
			User:          it.SubjectKey,
			Relation:      it.Relation,
			Object:        it.ObjectKey,
			CorrelationId: corr,
		}
	}
	resp, err := sdk.BatchCheck(ctx).Body(client.ClientBatchCheckRequest{Checks: checks}).Execute()
	if err != nil {
		return nil, fmt.Errorf("openfga: batch check: %w", err)
	}

	out := make(map[string]bool, len(checks))
	for corr, r := range resp.GetResult() {
		out[corr] = r.GetAllowed()
	}
	return out, nil
}

// ListObjects returns the ids of objects of objectType the subject holds
// rel on, model expansion included.
func (c *Client) ListObjects(ctx context.Context, subjectKey, rel, objectType string) ([]string, error) {
	sdk, err := c.sdkFor(ctx)
	if err != nil {
		return nil, err
	}
	resp, err := sdk.ListObjects(ctx).Body(client.ClientListObjectsRequest{
		User:     subjectKey,
		Relation: rel,
		Type:     objectType,
	}).Execute()
	if err != nil {
		return nil, fmt.Errorf("openfga: list %s objects for %s#%s: %w", objectType, subjectKey, rel, err)
	}

	objects := resp.GetObjects()
	ids := make([]string, 0, len(objects))
	for _, key := range objects {
		_, objectID := relation.SplitKey(key)
		ids = append(ids, objectID)
	}
	return ids, nil
}
