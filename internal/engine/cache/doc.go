// Package cache provides the persistent catalog cache: deterministic cache keys
// derived from a category and filter set, and a TTL-enforcing, schema-versioned
// wrapper over a kv.Store.
//
// Key features:
//   - Canonical keys: the same category and filter values always produce the
//     same key, and distinct values never collide
//   - JSON envelopes {data, timestamp, schema} compatible with any kv backend
//   - Per-data-category TTL (catalog pages 1 hour, category list 24 hours)
//   - Best-effort semantics: storage failures and malformed entries are logged
//     and absorbed, never returned to callers
package cache
