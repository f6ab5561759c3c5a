package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"

	"github.com/rshade/piante/internal/catalog"
	"github.com/rshade/piante/internal/kv"
	"github.com/rshade/piante/internal/logging"
)

// SchemaVersion is the envelope schema written by this build.
// Readers accept any entry whose schema shares its major version.
const SchemaVersion = "1.0.0"

// ErrIncompatibleSchema marks an entry written with an unsupported schema.
var ErrIncompatibleSchema = errors.New("incompatible cache schema")

// Persistent is a TTL-enforcing, best-effort cache over a kv.Store.
// No method returns an error: failures are logged and reported as misses.
type Persistent struct {
	store      kv.Store
	now        func() time.Time
	schema     string
	constraint *semver.Constraints
}

// Option configures a Persistent.
type Option func(*Persistent)

// WithClock overrides the time source used for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(p *Persistent) {
		if now != nil {
			p.now = now
		}
	}
}

// withSchema overrides the schema version written. Used by tests.
func withSchema(version string) Option {
	return func(p *Persistent) {
		p.schema = version
	}
}

// NewPersistent wraps store.
func NewPersistent(store kv.Store, opts ...Option) *Persistent {
	p := &Persistent{
		store:  store,
		now:    time.Now,
		schema: SchemaVersion,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.constraint = majorConstraint(SchemaVersion)
	return p
}

// majorConstraint builds "^<major>" for version. A version that does not
// parse yields nil, which accepts nothing.
func majorConstraint(version string) *semver.Constraints {
	v, err := semver.NewVersion(version)
	if err != nil {
		return nil
	}
	c, err := semver.NewConstraint(fmt.Sprintf("^%d", v.Major()))
	if err != nil {
		return nil
	}
	return c
}

// Now returns the cache's current time.
func (p *Persistent) Now() time.Time {
	return p.now()
}

// Store exposes the underlying key/value store.
func (p *Persistent) Store() kv.Store {
	return p.store
}

// Read loads key into dst if a fresh, compatible entry exists.
// It returns the time the entry was stored and whether dst was populated.
func (p *Persistent) Read(ctx context.Context, key Key, ttl time.Duration, dst any) (time.Time, bool) {
	log := logging.FromContext(ctx)
	raw, found, err := p.store.Get(ctx, key.String())
	if err != nil {
		log.Warn().Ctx(ctx).
			Str("component", "cache").
			Str("operation", "read").
			Err(&catalog.CacheError{Op: "read", Key: key.String(), Err: err}).
			Msg("cache read failed")
		return time.Time{}, false
	}
	if !found {
		log.Debug().Ctx(ctx).
			Str("component", "cache").
			Str("cache_key", key.String()).
			Msg("cache miss")
		return time.Time{}, false
	}

	env, err := DecodeEnvelope(raw)
	if err != nil {
		log.Warn().Ctx(ctx).
			Str("component", "cache").
			Str("operation", "read").
			Str("cache_key", key.String()).
			Err(err).
			Msg("malformed cache entry ignored")
		return time.Time{}, false
	}

	if err := p.checkSchema(env.Schema); err != nil {
		log.Debug().Ctx(ctx).
			Str("component", "cache").
			Str("cache_key", key.String()).
			Str("schema", env.Schema).
			Err(err).
			Msg("cache entry schema rejected")
		return time.Time{}, false
	}

	now := p.now()
	if env.IsExpired(now, ttl) {
		log.Debug().Ctx(ctx).
			Str("component", "cache").
			Str("cache_key", key.String()).
			Dur("age", env.Age(now)).
			Msg("cache entry expired")
		return time.Time{}, false
	}

	if err := json.Unmarshal(env.Data, dst); err != nil {
		log.Warn().Ctx(ctx).
			Str("component", "cache").
			Str("operation", "read").
			Str("cache_key", key.String()).
			Err(err).
			Msg("cache payload does not decode")
		return time.Time{}, false
	}

	log.Debug().Ctx(ctx).
		Str("component", "cache").
		Str("cache_key", key.String()).
		Dur("expires_in", env.TimeUntilExpiration(now, ttl)).
		Msg("cache hit")
	return env.StoredAt(), true
}

func (p *Persistent) checkSchema(schema string) error {
	if schema == "" {
		return fmt.Errorf("%w: missing schema", ErrIncompatibleSchema)
	}
	v, err := semver.NewVersion(schema)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrIncompatibleSchema, err)
	}
	if p.constraint == nil || !p.constraint.Check(v) {
		return fmt.Errorf("%w: %s", ErrIncompatibleSchema, schema)
	}
	return nil
}

// Write stores payload under key, stamped with now.
func (p *Persistent) Write(ctx context.Context, key Key, payload any, now time.Time) {
	env, err := NewEnvelope(payload, now, p.schema)
	if err == nil {
		var raw []byte
		raw, err = json.Marshal(env)
		if err == nil {
			err = p.store.Set(ctx, key.String(), raw)
		}
	}
	if err != nil {
		logging.FromContext(ctx).Warn().Ctx(ctx).
			Str("component", "cache").
			Str("operation", "write").
			Err(&catalog.CacheError{Op: "write", Key: key.String(), Err: err}).
			Msg("cache write failed")
		return
	}
	logging.FromContext(ctx).Debug().Ctx(ctx).
		Str("component", "cache").
		Str("cache_key", key.String()).
		Msg("cache entry written")
}

// Delete removes key. Absent keys are not an error.
func (p *Persistent) Delete(ctx context.Context, key Key) {
	if err := p.store.Delete(ctx, key.String()); err != nil {
		logging.FromContext(ctx).Warn().Ctx(ctx).
			Str("component", "cache").
			Str("operation", "delete").
			Err(&catalog.CacheError{Op: "delete", Key: key.String(), Err: err}).
			Msg("cache delete failed")
	}
}

// InvalidateNamespace deletes every entry whose key starts with prefix and
// returns how many were removed.
func (p *Persistent) InvalidateNamespace(ctx context.Context, prefix string) int {
	log := logging.FromContext(ctx)
	keys, err := p.store.Keys(ctx, prefix)
	if err != nil {
		log.Warn().Ctx(ctx).
			Str("component", "cache").
			Str("operation", "invalidate_namespace").
			Err(&catalog.CacheError{Op: "keys", Key: prefix, Err: err}).
			Msg("cache enumeration failed")
		return 0
	}

	removed := 0
	for _, key := range keys {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		if err := p.store.Delete(ctx, key); err != nil {
			log.Warn().Ctx(ctx).
				Str("component", "cache").
				Str("operation", "invalidate_namespace").
				Err(&catalog.CacheError{Op: "delete", Key: key, Err: err}).
				Msg("cache delete failed")
			continue
		}
		removed++
	}
	log.Info().Ctx(ctx).
		Str("component", "cache").
		Str("prefix", prefix).
		Int("removed", removed).
		Msg("cache namespace invalidated")
	return removed
}

// Stats summarizes the entries under prefix.
type Stats struct {
	Entries int
	Fresh   int
	Expired int
	Invalid int
	Oldest  time.Time
	Newest  time.Time
}

// Stats scans every entry under prefix and classifies it against ttl.
func (p *Persistent) Stats(ctx context.Context, prefix string, ttl time.Duration) (Stats, error) {
	var s Stats
	keys, err := p.store.Keys(ctx, prefix)
	if err != nil {
		return s, fmt.Errorf("listing cache keys: %w", err)
	}
	now := p.now()
	for _, key := range keys {
		raw, found, getErr := p.store.Get(ctx, key)
		if getErr != nil {
			return s, fmt.Errorf("reading cache entry %q: %w", key, getErr)
		}
		if !found {
			continue
		}
		s.Entries++
		env, decErr := DecodeEnvelope(raw)
		if decErr != nil || p.checkSchema(env.Schema) != nil {
			s.Invalid++
			continue
		}
		if env.IsExpired(now, ttl) {
			s.Expired++
		} else {
			s.Fresh++
		}
		at := env.StoredAt()
		if s.Oldest.IsZero() || at.Before(s.Oldest) {
			s.Oldest = at
		}
		if at.After(s.Newest) {
			s.Newest = at
		}
	}
	return s, nil
}
