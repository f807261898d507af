// Package metadata is a key/value repository over the local metadata table.
// The durable session record keeps its access token and user snapshot here.
package metadata

import "context"

type Repository interface {
	// Get returns (nil, nil) when key is absent.
	Get(ctx context.Context, key string) ([]byte, error)
	// GetMany returns the values of the present keys; absent keys are
	// simply missing from the map.
	GetMany(ctx context.Context, keys ...string) (map[string][]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	// Delete removes the given keys. Missing keys are not an error.
	Delete(ctx context.Context, keys ...string) error
}
