package cache

import (
	"encoding/json"
	"errors"
	"time"
)

// Envelope is the stored form of a cache entry.
// It wraps arbitrary JSON-serializable data with the time it was stored and the
// schema version of the writer.
type Envelope struct {
	// Data is the cached payload.
	Data json.RawMessage `json:"data"`

	// Timestamp is the Unix time in milliseconds when the entry was stored.
	Timestamp int64 `json:"timestamp"`

	// Schema is the semantic version of the payload layout.
	Schema string `json:"schema,omitempty"`
}

// errEmptyEnvelope reports an envelope without data or timestamp.
var errEmptyEnvelope = errors.New("envelope is missing data or timestamp")

// NewEnvelope encodes payload into an envelope stored at now.
func NewEnvelope(payload any, now time.Time, schema string) (*Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Envelope{
		Data:      data,
		Timestamp: now.UnixMilli(),
		Schema:    schema,
	}, nil
}

// DecodeEnvelope parses a stored envelope.
func DecodeEnvelope(raw []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, err
	}
	if len(env.Data) == 0 || string(env.Data) == "null" || env.Timestamp <= 0 {
		return nil, errEmptyEnvelope
	}
	return &env, nil
}

// StoredAt returns the time the entry was written.
func (e *Envelope) StoredAt() time.Time {
	return time.UnixMilli(e.Timestamp)
}

// Age returns how old the entry is at now.
func (e *Envelope) Age(now time.Time) time.Duration {
	return now.Sub(e.StoredAt())
}

// IsExpired reports whether the entry is stale at now under ttl.
// An entry is fresh for ages strictly below ttl.
func (e *Envelope) IsExpired(now time.Time, ttl time.Duration) bool {
	return e.Age(now) >= ttl
}

// TimeUntilExpiration returns the time left before expiry, or 0 if already expired.
func (e *Envelope) TimeUntilExpiration(now time.Time, ttl time.Duration) time.Duration {
	remaining := ttl - e.Age(now)
	if remaining < 0 {
		return 0
	}
	return remaining
}
