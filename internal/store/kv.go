// Package store implements the on-device key/value persistence used for the
// offline cache and for secure values such as the guest token.
//
// Storage tiers:
//   - SQLite buckets: durable, one table per bucket ("cache", "secure")
//   - Memory: process-local, used for tests and ephemeral runs
//
// Callers that must never fail on storage go through Scoped, which logs
// errors and degrades to "absent" / no-op.
package store

import (
	"context"
	"errors"
)

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("store closed")

// KVReader defines the read side of the store.
type KVReader interface {
	// Get returns the value for key. A missing key is ("", false, nil).
	Get(ctx context.Context, key string) (string, bool, error)
}

// KVWriter defines the write and delete side of the store.
type KVWriter interface {
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// KV is the full key/value contract.
type KV interface {
	KVReader
	KVWriter
}
