package rediskv

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEscapeGlob(t *testing.T) {
	assert.Equal(t, `piante_all_{"page":1}`, escapeGlob(`piante_all_{"page":1}`))
	assert.Equal(t, `a\*b\?c\[d\]`, escapeGlob(`a*b?c[d]`))
	assert.Equal(t, `x\\y`, escapeGlob(`x\y`))
}

// TestStoreAgainstServer runs only when PIANTE_TEST_REDIS_URL points at a disposable server.
func TestStoreAgainstServer(t *testing.T) {
	url := os.Getenv("PIANTE_TEST_REDIS_URL")
	if url == "" {
		t.Skip("PIANTE_TEST_REDIS_URL not set")
	}

	ctx := context.Background()
	store, err := Open(ctx, url, "piante-test:")
	require.NoError(t, err)
	defer store.Close()

	key := `piante_all_{"limit":20,"page":1}`
	require.NoError(t, store.Set(ctx, key, []byte(`{"data":1}`)))
	t.Cleanup(func() { _ = store.Delete(ctx, key) })

	got, ok, err := store.Get(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"data":1}`, string(got))

	keys, err := store.Keys(ctx, "piante_")
	require.NoError(t, err)
	assert.Contains(t, keys, key)

	require.NoError(t, store.Delete(ctx, key))
	_, ok, err = store.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)
}
