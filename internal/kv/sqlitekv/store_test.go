package sqlitekv

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/piante/internal/kv"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open("  ")
	require.Error(t, err)
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	_, ok, err := store.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(ctx, "k", []byte("v1")))
	require.NoError(t, store.Set(ctx, "k", []byte("v2")))

	got, ok, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v2", string(got))

	require.NoError(t, store.Delete(ctx, "k"))
	require.NoError(t, store.Delete(ctx, "k"))
	_, ok, err = store.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.ErrorIs(t, store.Set(ctx, "", nil), kv.ErrEmptyKey)
}

func TestStoreKeysMatchesPrefixLiterally(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	for _, k := range []string{"piante_all_{}", "piante_x", "pianteX", "categorie", "piante%_"} {
		require.NoError(t, store.Set(ctx, k, []byte("1")))
	}

	keys, err := store.Keys(ctx, "piante_")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"piante_all_{}", "piante_x"}, keys)

	keys, err = store.Keys(ctx, "piante%")
	require.NoError(t, err)
	assert.Equal(t, []string{"piante%_"}, keys)
}

func TestStoreReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cache.db")

	store, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, "persist", []byte("yes")))
	require.NoError(t, store.Close())

	store, err = Open(path)
	require.NoError(t, err)
	defer store.Close()

	got, ok, err := store.Get(ctx, "persist")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "yes", string(got))
}
