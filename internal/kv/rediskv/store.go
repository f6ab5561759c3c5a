// Package rediskv provides a Redis-backed kv.Store so several clients can share one cache.
package rediskv

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/rshade/piante/internal/kv"
)

var _ kv.Store = (*Store)(nil)

// scanBatch is the COUNT hint passed to SCAN.
const scanBatch = 200

// Store keeps values in Redis under an optional namespace prefix.
type Store struct {
	client    redis.UniversalClient
	namespace string
}

// Open parses redisURL, connects and pings the server.
func Open(ctx context.Context, redisURL, namespace string) (*Store, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: failed to connect to redis: %w", kv.ErrUnavailable, err)
	}
	return New(client, namespace), nil
}

// New wraps an existing client.
func New(client redis.UniversalClient, namespace string) *Store {
	return &Store{client: client, namespace: namespace}
}

// Close closes the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}

// Get returns the value stored under key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if key == "" {
		return nil, false, kv.ErrEmptyKey
	}
	value, err := s.client.Get(ctx, s.namespace+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%w: get %q: %w", kv.ErrUnavailable, key, err)
	}
	return value, true, nil
}

// Set stores value under key without a Redis-side expiry; TTL is enforced on read.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if key == "" {
		return kv.ErrEmptyKey
	}
	if err := s.client.Set(ctx, s.namespace+key, value, 0).Err(); err != nil {
		return fmt.Errorf("%w: set %q: %w", kv.ErrUnavailable, key, err)
	}
	return nil
}

// Delete removes key.
func (s *Store) Delete(ctx context.Context, key string) error {
	if key == "" {
		return kv.ErrEmptyKey
	}
	if err := s.client.Del(ctx, s.namespace+key).Err(); err != nil {
		return fmt.Errorf("%w: delete %q: %w", kv.ErrUnavailable, key, err)
	}
	return nil
}

// Keys scans for keys starting with prefix and strips the namespace.
func (s *Store) Keys(ctx context.Context, prefix string) ([]string, error) {
	pattern := escapeGlob(s.namespace+prefix) + "*"
	var keys []string
	iter := s.client.Scan(ctx, 0, pattern, scanBatch).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, strings.TrimPrefix(iter.Val(), s.namespace))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("%w: scan %q: %w", kv.ErrUnavailable, prefix, err)
	}
	return keys, nil
}

// escapeGlob escapes Redis glob metacharacters so prefix matches literally.
func escapeGlob(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '\\', '^', '-':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
