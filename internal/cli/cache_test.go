package cli_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type statsDoc struct {
	Backend    string `json:"backend"`
	Namespaces []struct {
		Name  string `json:"name"`
		TTL   string `json:"ttl"`
		Stats struct {
			Entries int
			Fresh   int
			Expired int
			Invalid int
		} `json:"stats"`
	} `json:"namespaces"`
}

func TestCacheStats(t *testing.T) {
	api := newFakeAPI(t)
	ws := newWorkspace(t, api)

	_, _, err := ws.run(t, "list", "--limit", "3")
	require.NoError(t, err)
	_, _, err = ws.run(t, "list", "--limit", "3", "--page", "2")
	require.NoError(t, err)

	out, _, err := ws.run(t, "cache", "stats", "--output", "json")
	require.NoError(t, err)

	var doc statsDoc
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, "file", doc.Backend)
	require.Len(t, doc.Namespaces, 2)
	assert.Equal(t, "pages", doc.Namespaces[0].Name)
	assert.Equal(t, "1h", doc.Namespaces[0].TTL)
	assert.Equal(t, 2, doc.Namespaces[0].Stats.Entries)
	assert.Equal(t, 2, doc.Namespaces[0].Stats.Fresh)
	assert.Equal(t, "categories", doc.Namespaces[1].Name)
	assert.Zero(t, doc.Namespaces[1].Stats.Entries)

	table, _, err := ws.run(t, "cache", "stats")
	require.NoError(t, err)
	assert.Contains(t, table, "Cache backend: file")
	assert.Contains(t, table, "pages")
}

func TestCacheInvalidate(t *testing.T) {
	api := newFakeAPI(t)
	ws := newWorkspace(t, api)

	_, _, err := ws.run(t, "list", "--limit", "3", "--indoor")
	require.NoError(t, err)

	// A different page size is a different entry.
	_, _, err = ws.run(t, "cache", "invalidate", "--indoor")
	require.NoError(t, err)
	_, _, err = ws.run(t, "list", "--limit", "3", "--indoor")
	require.NoError(t, err)
	assert.Len(t, api.Requests(), 1)

	out, _, err := ws.run(t, "cache", "invalidate", "--limit", "3", "--indoor")
	require.NoError(t, err)
	assert.Contains(t, out, "Invalidated all page 1.")

	_, _, err = ws.run(t, "list", "--limit", "3", "--indoor")
	require.NoError(t, err)
	assert.Len(t, api.Requests(), 2)
}

func TestCacheInvalidateCategories(t *testing.T) {
	api := newFakeAPI(t)
	ws := newWorkspace(t, api)

	_, _, err := ws.run(t, "categories")
	require.NoError(t, err)
	_, _, err = ws.run(t, "cache", "invalidate", "--categories")
	require.NoError(t, err)
	_, _, err = ws.run(t, "categories")
	require.NoError(t, err)

	assert.Equal(t, []string{"/categorie?", "/categorie?"}, api.Requests())
}

func TestCacheClear(t *testing.T) {
	api := newFakeAPI(t)
	ws := newWorkspace(t, api)

	for _, limit := range []string{"3", "4"} {
		_, _, err := ws.run(t, "list", "--limit", limit)
		require.NoError(t, err)
	}

	out, _, err := ws.run(t, "cache", "clear")
	require.NoError(t, err)
	assert.Contains(t, out, "Removed 2 cached pages.")

	_, _, err = ws.run(t, "list", "--limit", "3")
	require.NoError(t, err)
	assert.Len(t, api.Requests(), 3)
}

func TestCacheWarm(t *testing.T) {
	api := newFakeAPI(t)
	ws := newWorkspace(t, api)

	out, stderr, err := ws.run(t, "cache", "warm", "--limit", "5", "--concurrency", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "Warmed 5 categories, 0 failed.")
	assert.Contains(t, stderr, "Warming 5/5 categories (100%)")
	assert.Len(t, api.Requests(), 6, "five pages and the category list")

	for _, args := range [][]string{
		{"list", "--limit", "5"},
		{"list", "--limit", "5", "--category", "piante-fiorite"},
		{"list", "--limit", "5", "--category", "orto-e-commestibili"},
		{"categories"},
	} {
		_, _, err = ws.run(t, args...)
		require.NoError(t, err, args)
	}
	assert.Len(t, api.Requests(), 6, "everything served from the warmed cache")
}

func TestCacheWarmReportsFailures(t *testing.T) {
	api := newFakeAPI(t)
	api.setFail(true)
	ws := newWorkspace(t, api)

	out, _, err := ws.run(t, "cache", "warm")
	require.NoError(t, err)
	assert.Contains(t, out, "Warmed 0 categories, 5 failed.")
	assert.Contains(t, out, "piante-fiorite")
	assert.Contains(t, out, "category list")
}

func TestCacheCommandsRequireCache(t *testing.T) {
	api := newFakeAPI(t)
	ws := newWorkspace(t, api)

	for _, args := range [][]string{
		{"--no-cache", "cache", "stats"},
		{"--no-cache", "cache", "clear"},
		{"--no-cache", "cache", "warm"},
		{"--no-cache", "cache", "invalidate"},
	} {
		_, _, err := ws.run(t, args...)
		require.Error(t, err, args)
		assert.Contains(t, err.Error(), "persistent cache is disabled")
	}
	assert.Empty(t, api.Requests())
}
