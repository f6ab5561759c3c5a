// Package kv defines the key/value storage port used by the persistent cache
// and provides in-memory and file-backed implementations. SQLite and Redis
// backends live in the sqlitekv and rediskv subpackages.
package kv

import (
	"context"
	"errors"
)

// Common key/value errors.
var (
	ErrEmptyKey    = errors.New("key cannot be empty")
	ErrUnavailable = errors.New("key/value store unavailable")
)

// Store is a byte-oriented key/value store.
//
// Get reports a missing key as (nil, false, nil). Delete of a missing key is
// not an error. Keys returns every key starting with prefix, in no particular order.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context, prefix string) ([]string, error)
}
