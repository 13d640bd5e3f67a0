package openfga

import (
	"context"
	"fmt"

	openfga "github.com/openfga/go-sdk"
	"github.com/openfga/go-sdk/client"

	"github.com/testmytrinh/tmt-lms-backend/id"
	"github.com/testmytrinh/tmt-lms-backend/relation"
)

// CloneStore creates a new store seeded with the default store's latest
// authorization model, so tuples written into the clone evaluate under the
// same schema. The name is used when non-empty, otherwise one is minted.
func (c *Client) CloneStore(ctx context.Context, name string) (string, error) {
	source, err := c.sdk(c.cfg.StoreID)
	if err != nil {
		return "", err
	}
	modelResp, err := source.ReadLatestAuthorizationModel(ctx).Execute()
	if err != nil {
		return "", fmt.Errorf("openfga: read source model: %w", err)
	}
	model := modelResp.GetAuthorizationModel()

	if name == "" {
		name = id.NewStoreName()
	}
	createResp, err := source.CreateStore(ctx).Body(client.ClientCreateStoreRequest{Name: name}).Execute()
	if err != nil {
		return "", fmt.Errorf("openfga: create store %q: %w", name, err)
	}
	storeID := createResp.GetId()

	clone, err := c.sdk(storeID)
	if err != nil {
		return "", err
	}
	_, err = clone.WriteAuthorizationModel(ctx).Body(openfga.WriteAuthorizationModelRequest{
		SchemaVersion:   model.GetSchemaVersion(),
		TypeDefinitions: model.GetTypeDefinitions(),
		Conditions:      model.Conditions,
	}).Execute()
	if err != nil {
		return "", fmt.Errorf("openfga: seed model into store %s: %w", storeID, err)
	}
	return storeID, nil
}

// DeleteStore tears down a store.
func (c *Client) DeleteStore(ctx context.Context, storeID string) error {
	sdk, err := c.sdk(storeID)
	if err != nil {
		return err
	}
	if _, err := sdk.DeleteStore(ctx).Execute(); err != nil {
		return fmt.Errorf("openfga: delete store %s: %w", storeID, err)
	}

	c.mu.Lock()
	delete(c.sdks, storeID)
	c.mu.Unlock()
	return nil
}

// FlushAllTuples deletes every tuple in the store the context resolves to.
// Maintenance and test-harness helper; the authorization model is kept.
func (c *Client) FlushAllTuples(ctx context.Context) (int, error) {
	tuples, err := c.Read(ctx, relation.Filter{})
	if err != nil {
		return 0, err
	}
	if len(tuples) == 0 {
		return 0, nil
	}
	if err := c.Write(ctx, nil, tuples); err != nil {
		return 0, err
	}
	return len(tuples), nil
}
