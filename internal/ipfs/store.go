// Package ipfs provides the content-addressed storage clients used by the
// upload pipeline. The retrieval key is derived from the content itself, so
// uploading identical bytes twice yields the same hash and is always safe to
// repeat after a partial failure.
package ipfs

import "context"

// ContentStore uploads bytes to content-addressed storage and returns the
// content hash. Implementations must be idempotent by content.
type ContentStore interface {
	PutBytes(ctx context.Context, data []byte) (string, error)
}
