package snapshot

import (
	"context"
)

// Storage persists collection snapshots.
// Implementations must be safe for concurrent use.
type Storage interface {
	// Write stores data under key, replacing what was there.
	Write(ctx context.Context, key string, data []byte) error

	// Read returns the data stored under key.
	// Returns os.ErrNotExist if the key does not exist.
	Read(ctx context.Context, key string) ([]byte, error)

	// List returns keys starting with prefix, newest first (descending).
	List(ctx context.Context, prefix string) ([]string, error)

	// Delete removes key. Missing keys are not an error.
	Delete(ctx context.Context, key string) error

	Close() error
}
