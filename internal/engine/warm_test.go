package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/piante/internal/catalog"
	"github.com/rshade/piante/internal/engine/batch"
	"github.com/rshade/piante/internal/engine/cache"
	"github.com/rshade/piante/internal/kv"
)

func TestWarm(t *testing.T) {
	ctx := context.Background()
	persistent := cache.NewPersistent(kv.NewMemory())
	routes := catalog.DefaultRoutes()

	ok := newFakeFetcher(map[int]catalog.Page{
		1: {Records: plants("A"), Pagination: catalog.PaginationInfo{CurrentPage: 1, TotalPages: 1, Total: 1, PerPage: 20}, Dropped: 1},
	})
	failing := newFakeFetcher(nil)
	failing.err = &catalog.NetworkError{Path: "/piante/categoria/piante-fiorite", StatusCode: 502}

	byCategory := map[catalog.Category]Fetcher{catalog.All: ok}
	for _, slug := range routes.Slugs() {
		byCategory[slug] = ok
	}
	byCategory["piante-fiorite"] = failing

	var progress []batch.ProgressSnapshot
	report, err := Warm(ctx, &routingFetcher{byCategory: byCategory}, persistent, routes, WarmOptions{
		Concurrency: 2,
		Progress:    func(s batch.ProgressSnapshot) { progress = append(progress, s) },
	})
	require.NoError(t, err)

	assert.ElementsMatch(t, []catalog.Category{
		catalog.All, "piante-da-interno", "piante-da-esterno", "orto-e-commestibili",
	}, report.Warmed)
	require.Contains(t, report.Failed, catalog.Category("piante-fiorite"))
	assert.Equal(t, 4, report.Dropped)
	require.NotEmpty(t, progress)
	assert.Equal(t, 5, progress[len(progress)-1].CompletedBatches)

	t.Run("warmed pages are cache hits", func(t *testing.T) {
		s := NewStore(newFakeFetcher(nil), WithCache(persistent), WithRoutes(routes))
		s.FetchCatalog(ctx, "piante-da-interno", catalog.DefaultFilters(), false)
		st := s.Snapshot()
		assert.Nil(t, st.Err)
		assert.Equal(t, []string{"A"}, ids(st.Records))
	})
}

func TestWarmRequiresCache(t *testing.T) {
	_, err := Warm(context.Background(), newFakeFetcher(nil), nil, catalog.DefaultRoutes(), WarmOptions{})
	assert.ErrorIs(t, err, ErrNoCache)
}
