package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/piante/internal/catalog"
	"github.com/rshade/piante/internal/kv"
)

type payload struct {
	Names []string `json:"names"`
}

// failingStore fails every operation.
type failingStore struct{}

var errBroken = errors.New("disk on fire")

func (failingStore) Get(context.Context, string) ([]byte, bool, error) { return nil, false, errBroken }
func (failingStore) Set(context.Context, string, []byte) error        { return errBroken }
func (failingStore) Delete(context.Context, string) error             { return errBroken }
func (failingStore) Keys(context.Context, string) ([]string, error)   { return nil, errBroken }

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func TestDeriveKey(t *testing.T) {
	f := catalog.DefaultFilters().WithFlag(catalog.FlagIndoor, true)

	t.Run("construction order does not matter", func(t *testing.T) {
		patched := catalog.DefaultFilters().Apply(catalog.FilterPatch{
			Search: catalog.StringPtr("felce"),
			Flags:  map[string]bool{catalog.FlagEdible: true, catalog.FlagIndoor: true},
		})
		chained := catalog.DefaultFilters().
			WithFlag(catalog.FlagIndoor, true).
			WithFlag(catalog.FlagEdible, true)
		chained.Search = "felce"

		assert.Equal(t, DeriveKey("piante-fiorite", patched), DeriveKey("piante-fiorite", chained))
		assert.Equal(t,
			Key(`piante_piante-fiorite_{"flags":{"edible":true,"indoor":true},"limit":20,"page":1,"search":"felce"}`),
			DeriveKey("piante-fiorite", chained))
	})

	t.Run("reserved all slug shares the whole-catalog key and endpoint", func(t *testing.T) {
		routes := catalog.DefaultRoutes()
		assert.Equal(t, DeriveKey(catalog.All, f), DeriveKey("all", f))
		assert.Equal(t, routes.Endpoint(catalog.All), routes.Endpoint("all"))
		assert.NotEqual(t, DeriveKey(catalog.All, f), DeriveKey("allium", f))
	})

	t.Run("format", func(t *testing.T) {
		assert.Equal(t,
			Key(`piante_all_{"flags":{"indoor":true},"limit":20,"page":1}`),
			DeriveKey(catalog.All, f))
	})

	t.Run("distinct inputs distinct keys", func(t *testing.T) {
		keys := map[Key]bool{}
		for _, k := range []Key{
			DeriveKey(catalog.All, f),
			DeriveKey("piante-fiorite", f),
			DeriveKey(catalog.All, f.WithPage(2)),
			DeriveKey(catalog.All, f.WithFlag(catalog.FlagIndoor, false)),
			DeriveKey(catalog.All, catalog.DefaultFilters()),
			DeriveKey("allium", f),
		} {
			keys[k] = true
		}
		assert.Len(t, keys, 6)
	})

	t.Run("catalog namespace", func(t *testing.T) {
		assert.Contains(t, DeriveKey("x", f).String(), NamespaceCatalog)
		assert.NotContains(t, CategoriesKey.String(), NamespaceCatalog)
	})
}

func TestEnvelope(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)
	env, err := NewEnvelope(payload{Names: []string{"ficus"}}, now, SchemaVersion)
	require.NoError(t, err)

	assert.Equal(t, now, env.StoredAt())
	assert.False(t, env.IsExpired(now.Add(time.Hour-time.Millisecond), time.Hour))
	assert.True(t, env.IsExpired(now.Add(time.Hour), time.Hour), "age equal to ttl is stale")
	assert.Equal(t, 30*time.Minute, env.TimeUntilExpiration(now.Add(30*time.Minute), time.Hour))
	assert.Zero(t, env.TimeUntilExpiration(now.Add(2*time.Hour), time.Hour))

	for _, raw := range []string{`{`, `{"timestamp":5}`, `{"data":null,"timestamp":5}`, `{"data":{}}`} {
		_, decErr := DecodeEnvelope([]byte(raw))
		assert.Error(t, decErr, raw)
	}
}

func TestPersistentReadWrite(t *testing.T) {
	ctx := context.Background()
	clock := newClock()
	store := kv.NewMemory()
	p := NewPersistent(store, WithClock(clock.Now))
	key := DeriveKey(catalog.All, catalog.DefaultFilters())

	var out payload
	_, ok := p.Read(ctx, key, CatalogTTL, &out)
	assert.False(t, ok, "empty cache misses")

	p.Write(ctx, key, payload{Names: []string{"monstera"}}, clock.Now())

	storedAt, ok := p.Read(ctx, key, CatalogTTL, &out)
	require.True(t, ok)
	assert.Equal(t, clock.Now().UnixMilli(), storedAt.UnixMilli())
	assert.Equal(t, []string{"monstera"}, out.Names)

	clock.Advance(CatalogTTL - time.Second)
	_, ok = p.Read(ctx, key, CatalogTTL, &out)
	assert.True(t, ok, "still fresh just before ttl")

	clock.Advance(time.Second)
	_, ok = p.Read(ctx, key, CatalogTTL, &out)
	assert.False(t, ok, "stale at exactly ttl")

	_, ok = p.Read(ctx, key, CategoriesTTL, &out)
	assert.True(t, ok, "ttl is per read")

	p.Delete(ctx, key)
	_, ok = p.Read(ctx, key, CategoriesTTL, &out)
	assert.False(t, ok)
}

func TestPersistentMalformedEntries(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()
	p := NewPersistent(store)

	tests := []struct {
		name string
		raw  string
	}{
		{"not json", `{oops`},
		{"missing timestamp", `{"data":{"names":[]}}`},
		{"missing schema", `{"data":{"names":[]},"timestamp":9999999999999}`},
		{"wrong payload shape", `{"data":"ficus","timestamp":9999999999999,"schema":"1.0.0"}`},
		{"bad schema", `{"data":{"names":[]},"timestamp":9999999999999,"schema":"v-one"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, store.Set(ctx, "k", []byte(tt.raw)))
			var out payload
			_, ok := p.Read(ctx, "k", MaxTTL, &out)
			assert.False(t, ok)
		})
	}
}

func TestPersistentSchemaCompatibility(t *testing.T) {
	ctx := context.Background()
	clock := newClock()
	store := kv.NewMemory()
	reader := NewPersistent(store, WithClock(clock.Now))

	tests := []struct {
		schema string
		ok     bool
	}{
		{"1.0.0", true},
		{"1.4.2", true},
		{"2.0.0", false},
		{"0.9.0", false},
	}
	for _, tt := range tests {
		t.Run(tt.schema, func(t *testing.T) {
			writer := NewPersistent(store, withSchema(tt.schema))
			writer.Write(ctx, "k", payload{Names: []string{"a"}}, clock.Now())

			var out payload
			_, ok := reader.Read(ctx, "k", CatalogTTL, &out)
			assert.Equal(t, tt.ok, ok)
		})
	}
}

func TestPersistentAbsorbsStoreFailures(t *testing.T) {
	ctx := context.Background()
	p := NewPersistent(failingStore{})

	assert.NotPanics(t, func() {
		p.Write(ctx, "k", payload{}, time.Now())
		p.Delete(ctx, "k")
	})
	var out payload
	_, ok := p.Read(ctx, "k", CatalogTTL, &out)
	assert.False(t, ok)
	assert.Zero(t, p.InvalidateNamespace(ctx, NamespaceCatalog))

	_, err := p.Stats(ctx, NamespaceCatalog, CatalogTTL)
	assert.ErrorIs(t, err, errBroken)
}

func TestPersistentInvalidateNamespace(t *testing.T) {
	ctx := context.Background()
	clock := newClock()
	p := NewPersistent(kv.NewMemory(), WithClock(clock.Now))

	f := catalog.DefaultFilters()
	p.Write(ctx, DeriveKey(catalog.All, f), payload{}, clock.Now())
	p.Write(ctx, DeriveKey(catalog.All, f.WithPage(2)), payload{}, clock.Now())
	p.Write(ctx, DeriveKey("piante-fiorite", f), payload{}, clock.Now())
	p.Write(ctx, CategoriesKey, payload{}, clock.Now())

	assert.Equal(t, 3, p.InvalidateNamespace(ctx, NamespaceCatalog))

	var out payload
	_, ok := p.Read(ctx, CategoriesKey, CategoriesTTL, &out)
	assert.True(t, ok, "category list survives a catalog bust")
	assert.Zero(t, p.InvalidateNamespace(ctx, NamespaceCatalog))
}

func TestPersistentStats(t *testing.T) {
	ctx := context.Background()
	clock := newClock()
	store := kv.NewMemory()
	p := NewPersistent(store, WithClock(clock.Now))

	first := clock.Now()
	p.Write(ctx, "piante_a", payload{}, first)
	clock.Advance(2 * time.Hour)
	p.Write(ctx, "piante_b", payload{}, clock.Now())
	require.NoError(t, store.Set(ctx, "piante_c", []byte("garbage")))

	s, err := p.Stats(ctx, NamespaceCatalog, CatalogTTL)
	require.NoError(t, err)
	assert.Equal(t, 3, s.Entries)
	assert.Equal(t, 1, s.Fresh)
	assert.Equal(t, 1, s.Expired)
	assert.Equal(t, 1, s.Invalid)
	assert.Equal(t, first.UnixMilli(), s.Oldest.UnixMilli())
	assert.Equal(t, clock.Now().UnixMilli(), s.Newest.UnixMilli())
}

func TestTTL(t *testing.T) {
	t.Run("parse", func(t *testing.T) {
		tests := []struct {
			in      string
			want    time.Duration
			wantErr bool
		}{
			{"3600", time.Hour, false},
			{"30m", 30 * time.Minute, false},
			{"1h30m", 90 * time.Minute, false},
			{"168h", MaxTTL, false},
			{"30s", 0, true},
			{"200h", 0, true},
			{"soon", 0, true},
		}
		for _, tt := range tests {
			got, err := ParseTTL(tt.in)
			if tt.wantErr {
				assert.Error(t, err, tt.in)
				continue
			}
			require.NoError(t, err, tt.in)
			assert.Equal(t, tt.want, got)
		}
	})

	t.Run("out of range is ErrInvalidTTL", func(t *testing.T) {
		assert.ErrorIs(t, ValidateTTL(time.Second), ErrInvalidTTL)
		assert.NoError(t, ValidateTTL(CategoriesTTL))
	})

	t.Run("format", func(t *testing.T) {
		assert.Equal(t, "45s", FormatDuration(45*time.Second))
		assert.Equal(t, "5m30s", FormatDuration(5*time.Minute+30*time.Second))
		assert.Equal(t, "1h", FormatDuration(CatalogTTL))
		assert.Equal(t, "1d", FormatDuration(CategoriesTTL))
		assert.Equal(t, "1d2h", FormatDuration(26*time.Hour))
	})
}
