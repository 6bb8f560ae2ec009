// Package kv provides the key-value persistence used to keep the business
// data profile between sessions.
package kv

import "context"

// Store is a minimal byte-oriented key-value store. Get returns nil, nil when
// the key does not exist.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}
