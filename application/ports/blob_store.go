package ports

import "context"

// BlobStore persists raw file bytes keyed by an opaque path. The domain
// service owns key generation; keys never contain user input. Implementations
// report a missing key as a NotFound error from pkg/errors.
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}
