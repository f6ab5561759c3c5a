package engine

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/rshade/piante/internal/catalog"
	"github.com/rshade/piante/internal/engine/cache"
	"github.com/rshade/piante/internal/logging"
)

// CategoryFetcher retrieves the list of browsable categories.
type CategoryFetcher interface {
	FetchCategories(ctx context.Context) ([]catalog.CategoryInfo, error)
}

// CategoryState is a snapshot of the category store.
type CategoryState struct {
	Categories  []catalog.CategoryInfo `json:"categories"`
	Loading     bool                   `json:"loading"`
	Err         *StateError            `json:"error,omitempty"`
	LastFetched time.Time              `json:"lastFetched"`
}

func (s CategoryState) clone() CategoryState {
	out := s
	out.Categories = slices.Clone(s.Categories)
	if s.Err != nil {
		e := *s.Err
		out.Err = &e
	}
	return out
}

// CategoryStore holds the category list. It is refreshed at most once per
// TTL unless forced.
type CategoryStore struct {
	fetcher CategoryFetcher
	cache   *cache.Persistent
	ttl     time.Duration
	timeout time.Duration
	now     func() time.Time

	notifyMu  sync.Mutex
	mu        sync.Mutex
	state     CategoryState
	seq       uint64
	listeners map[int]func(CategoryState)
	nextID    int
}

// CategoryOption configures a CategoryStore.
type CategoryOption func(*CategoryStore)

// WithCategoryTimeout bounds each category request.
func WithCategoryTimeout(d time.Duration) CategoryOption {
	return func(c *CategoryStore) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithCategoryClock overrides the time source used for freshness checks.
func WithCategoryClock(now func() time.Time) CategoryOption {
	return func(c *CategoryStore) {
		if now != nil {
			c.now = now
		}
	}
}

// NewCategoryStore creates a category store. persistent may be nil.
func NewCategoryStore(fetcher CategoryFetcher, persistent *cache.Persistent, opts ...CategoryOption) *CategoryStore {
	c := &CategoryStore{
		fetcher:   fetcher,
		cache:     persistent,
		ttl:       cache.CategoriesTTL,
		timeout:   DefaultFetchTimeout,
		now:       time.Now,
		state:     CategoryState{Categories: []catalog.CategoryInfo{}},
		listeners: make(map[int]func(CategoryState)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Snapshot returns a copy of the current state.
func (c *CategoryStore) Snapshot() CategoryState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

// Subscribe registers listener and returns a function that removes it.
func (c *CategoryStore) Subscribe(listener func(CategoryState)) func() {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = listener
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.listeners, id)
			c.mu.Unlock()
		})
	}
}

func (c *CategoryStore) transition(fn func(st *CategoryState) bool) bool {
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()

	c.mu.Lock()
	if !fn(&c.state) {
		c.mu.Unlock()
		return false
	}
	snap := c.state.clone()
	ids := make([]int, 0, len(c.listeners))
	for id := range c.listeners {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	listeners := make([]func(CategoryState), 0, len(ids))
	for _, id := range ids {
		listeners = append(listeners, c.listeners[id])
	}
	c.mu.Unlock()

	for _, l := range listeners {
		l(snap)
	}
	return true
}

// Fetch loads the category list. A non-empty list younger than the TTL is
// kept as is; otherwise the persistent cache is consulted before the API.
func (c *CategoryStore) Fetch(ctx context.Context, forceRefresh bool) {
	log := logging.FromContext(ctx)

	var ticket uint64
	started := c.transition(func(st *CategoryState) bool {
		if !forceRefresh && len(st.Categories) > 0 && c.now().Sub(st.LastFetched) < c.ttl {
			return false
		}
		c.seq++
		ticket = c.seq
		st.Loading = true
		st.Err = nil
		return true
	})
	if !started {
		log.Debug().Ctx(ctx).
			Str("component", "categories").
			Msg("category list still fresh")
		return
	}

	if c.cache != nil && !forceRefresh {
		var cached []catalog.CategoryInfo
		if storedAt, ok := c.cache.Read(ctx, cache.CategoriesKey, c.ttl, &cached); ok {
			c.settle(ctx, ticket, func(st *CategoryState) {
				st.Categories = cached
				st.LastFetched = storedAt
				st.Loading = false
			})
			return
		}
	}

	fetchCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	cats, err := c.fetcher.FetchCategories(fetchCtx)
	if err != nil {
		log.Warn().Ctx(ctx).
			Str("component", "categories").
			Str("operation", "fetch").
			Err(err).
			Msg("category fetch failed")
		c.settle(ctx, ticket, func(st *CategoryState) {
			st.Loading = false
			st.Err = stateError(err)
		})
		return
	}

	now := c.now()
	if c.cache != nil {
		c.cache.Write(ctx, cache.CategoriesKey, cats, now)
	}
	c.settle(ctx, ticket, func(st *CategoryState) {
		st.Categories = cats
		if st.Categories == nil {
			st.Categories = []catalog.CategoryInfo{}
		}
		st.LastFetched = now
		st.Loading = false
	})
}

func (c *CategoryStore) settle(ctx context.Context, ticket uint64, fn func(st *CategoryState)) {
	applied := c.transition(func(st *CategoryState) bool {
		if ticket != c.seq {
			return false
		}
		fn(st)
		return true
	})
	if !applied {
		logging.FromContext(ctx).Debug().Ctx(ctx).
			Str("component", "categories").
			Err(catalog.ErrStaleResponse).
			Msg("result discarded")
	}
}

// Invalidate drops the cached list and resets the in-memory state.
func (c *CategoryStore) Invalidate(ctx context.Context) {
	if c.cache != nil {
		c.cache.Delete(ctx, cache.CategoriesKey)
	}
	c.Reset()
}

// Reset restores the empty state. In-flight results are discarded.
func (c *CategoryStore) Reset() {
	c.transition(func(st *CategoryState) bool {
		c.seq++
		*st = CategoryState{Categories: []catalog.CategoryInfo{}}
		return true
	})
}
