// Package kv provides the durable key-value storage used for advisory
// snapshots such as the in-progress journey.
package kv

import "context"

// Repository is a minimal durable key-value store. Get returns (nil, nil)
// when the key is absent.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, key string) error
}
