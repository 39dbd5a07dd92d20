package port

import "context"

// KeyValueStore persists small string values, e.g. the selected wallet name.
type KeyValueStore interface {
	// Get returns the value and whether it exists.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}
