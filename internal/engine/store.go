package engine

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/rshade/piante/internal/catalog"
	"github.com/rshade/piante/internal/engine/cache"
	"github.com/rshade/piante/internal/logging"
)

// DefaultFetchTimeout bounds every dispatched request.
const DefaultFetchTimeout = 15 * time.Second

// Phase is the store's activity state.
type Phase int

// Phases. Loading and LoadingMore are mutually exclusive.
const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseLoadingMore
	PhaseError
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseLoading:
		return "loading"
	case PhaseLoadingMore:
		return "loading_more"
	case PhaseError:
		return "error"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// StateError is the failure recorded on the state by the last operation.
type StateError struct {
	Kind    catalog.ErrorKind `json:"kind"`
	Message string            `json:"message"`
}

func (e *StateError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// State is a snapshot of the catalog store.
type State struct {
	Records     []catalog.Plant        `json:"records"`
	Phase       Phase                  `json:"phase"`
	Err         *StateError            `json:"error,omitempty"`
	Pagination  catalog.PaginationInfo `json:"pagination"`
	Filters     catalog.FilterSet      `json:"filters"`
	Category    catalog.Category       `json:"category"`
	LastFetched time.Time              `json:"lastFetched"`
	HasMore     bool                   `json:"hasMore"`

	// Dropped counts malformed records skipped while building Records.
	Dropped int `json:"dropped"`
}

// IsLoading reports whether a replacing fetch is in flight.
func (s State) IsLoading() bool { return s.Phase == PhaseLoading }

// IsLoadingMore reports whether an incremental fetch is in flight.
func (s State) IsLoadingMore() bool { return s.Phase == PhaseLoadingMore }

func (s State) clone() State {
	out := s
	out.Records = slices.Clone(s.Records)
	out.Filters = s.Filters.Clone()
	if s.Err != nil {
		e := *s.Err
		out.Err = &e
	}
	return out
}

func initialState() State {
	return State{
		Records:    []catalog.Plant{},
		Phase:      PhaseIdle,
		Pagination: catalog.DefaultPagination(),
		Filters:    catalog.DefaultFilters(),
		Category:   catalog.All,
	}
}

// Fetcher retrieves one page of the catalog.
type Fetcher interface {
	Fetch(ctx context.Context, category catalog.Category, filters catalog.FilterSet) (catalog.Page, error)
}

// Listener receives a snapshot after every state transition. Listeners run
// synchronously on the goroutine that made the transition and must not call
// store operations directly.
type Listener func(State)

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithCache enables the persistent cache. Without it every intent dispatches.
func WithCache(p *cache.Persistent) StoreOption {
	return func(s *Store) { s.cache = p }
}

// WithRoutes sets the category routing table.
func WithRoutes(routes catalog.Routes) StoreOption {
	return func(s *Store) { s.routes = routes }
}

// WithTTL sets how long cached pages are served.
func WithTTL(ttl time.Duration) StoreOption {
	return func(s *Store) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithFetchTimeout bounds each dispatched request.
func WithFetchTimeout(d time.Duration) StoreOption {
	return func(s *Store) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithStoreClock overrides the time source used for LastFetched and cache writes.
func WithStoreClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// Store holds the catalog state and drives fetches, caching and pagination.
//
// Operations block until their work is done and never return errors; failures
// are recorded in State.Err. Every intent takes a ticket from a monotonically
// increasing sequence and results carrying an outdated ticket are discarded.
type Store struct {
	fetcher Fetcher
	cache   *cache.Persistent
	routes  catalog.Routes
	ttl     time.Duration
	timeout time.Duration
	now     func() time.Time

	// notifyMu orders mutate+emit pairs so listeners observe transitions in order.
	notifyMu sync.Mutex

	mu        sync.Mutex
	state     State
	seq       uint64
	listeners map[int]Listener
	nextID    int
}

// NewStore creates a store backed by fetcher.
func NewStore(fetcher Fetcher, opts ...StoreOption) *Store {
	s := &Store{
		fetcher:   fetcher,
		routes:    catalog.DefaultRoutes(),
		ttl:       cache.CatalogTTL,
		timeout:   DefaultFetchTimeout,
		now:       time.Now,
		state:     initialState(),
		listeners: make(map[int]Listener),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// Subscribe registers listener and returns a function that removes it.
// The listener is not called with the current state; use Snapshot for that.
func (s *Store) Subscribe(listener Listener) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = listener
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}

// transition applies fn under the state lock and, when fn returns true,
// delivers the resulting snapshot to every listener.
func (s *Store) transition(fn func(st *State) bool) bool {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	if !fn(&s.state) {
		s.mu.Unlock()
		return false
	}
	snap := s.state.clone()
	ids := make([]int, 0, len(s.listeners))
	for id := range s.listeners {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	listeners := make([]Listener, 0, len(ids))
	for _, id := range ids {
		listeners = append(listeners, s.listeners[id])
	}
	s.mu.Unlock()

	for _, l := range listeners {
		l(snap)
	}
	return true
}

// begin starts a new intent: it bumps the sequence and applies fn.
func (s *Store) begin(fn func(st *State)) uint64 {
	var ticket uint64
	s.transition(func(st *State) bool {
		s.seq++
		ticket = s.seq
		fn(st)
		return true
	})
	return ticket
}

// settle applies fn only if ticket is still the latest intent.
func (s *Store) settle(ctx context.Context, ticket uint64, op string, fn func(st *State)) {
	applied := s.transition(func(st *State) bool {
		if ticket != s.seq {
			return false
		}
		fn(st)
		return true
	})
	if !applied {
		logging.FromContext(ctx).Debug().Ctx(ctx).
			Str("component", "store").
			Str("operation", op).
			Uint64("ticket", ticket).
			Err(catalog.ErrStaleResponse).
			Msg("result discarded")
	}
}

// FetchCatalog loads the page described by category and filters, replacing
// the current records. Unless forceRefresh is set, a fresh cache entry
// satisfies the request without a network call.
func (s *Store) FetchCatalog(ctx context.Context, category catalog.Category, filters catalog.FilterSet, forceRefresh bool) {
	filters = s.routes.Apply(category, filters)
	ticket := s.begin(func(st *State) {
		st.Phase = PhaseLoading
		st.Err = nil
		st.Category = category
		st.Filters = filters
	})
	s.fetchReplacing(ctx, ticket, "fetch_catalog", category, filters, forceRefresh)
}

// SetFilters merges patch into the current filters, returns to page 1 and
// refetches. Records are cleared before the fetch starts.
func (s *Store) SetFilters(ctx context.Context, patch catalog.FilterPatch) {
	var category catalog.Category
	var filters catalog.FilterSet
	ticket := s.begin(func(st *State) {
		category = st.Category
		filters = s.routes.Apply(category, st.Filters.Apply(patch).WithPage(catalog.DefaultPage))
		st.Phase = PhaseLoading
		st.Err = nil
		st.Filters = filters
		st.Records = []catalog.Plant{}
		st.Dropped = 0
		st.Pagination = catalog.PaginationInfo{PerPage: filters.Limit}
		st.HasMore = true
	})
	s.fetchReplacing(ctx, ticket, "set_filters", category, filters, false)
}

// GoToPage replaces the records with those of page. Pages below 1 load page 1.
func (s *Store) GoToPage(ctx context.Context, page int) {
	page = max(page, catalog.DefaultPage)
	var category catalog.Category
	var filters catalog.FilterSet
	ticket := s.begin(func(st *State) {
		category = st.Category
		filters = s.routes.Apply(category, st.Filters.WithPage(page))
		st.Phase = PhaseLoading
		st.Err = nil
		st.Filters = filters
	})
	s.fetchReplacing(ctx, ticket, "go_to_page", category, filters, false)
}

func (s *Store) fetchReplacing(
	ctx context.Context,
	ticket uint64,
	op string,
	category catalog.Category,
	filters catalog.FilterSet,
	forceRefresh bool,
) {
	page, storedAt, err := s.load(ctx, op, category, filters, forceRefresh)
	s.settle(ctx, ticket, op, func(st *State) {
		if err != nil {
			st.Phase = PhaseError
			st.Err = stateError(err)
			return
		}
		st.Records = page.Records
		if st.Records == nil {
			st.Records = []catalog.Plant{}
		}
		st.Pagination = page.Pagination
		st.HasMore = page.Pagination.HasMore()
		st.Dropped = page.Dropped
		st.LastFetched = storedAt
		st.Phase = PhaseIdle
		st.Err = nil
	})
}

// LoadMore appends the next page to the current records. It does nothing
// while another fetch is in flight or when no further pages exist.
func (s *Store) LoadMore(ctx context.Context) {
	var category catalog.Category
	var filters catalog.FilterSet
	var ticket uint64
	started := s.transition(func(st *State) bool {
		if st.Phase == PhaseLoading || st.Phase == PhaseLoadingMore || !st.HasMore {
			return false
		}
		s.seq++
		ticket = s.seq
		category = st.Category
		next := st.Pagination.CurrentPage + 1
		if len(st.Records) == 0 {
			// Nothing loaded yet: retry the page the filters point at.
			next = st.Filters.Page
		}
		filters = s.routes.Apply(category, st.Filters.WithPage(next))
		st.Phase = PhaseLoadingMore
		st.Err = nil
		return true
	})
	if !started {
		logging.FromContext(ctx).Debug().Ctx(ctx).
			Str("component", "store").
			Str("operation", "load_more").
			Msg("load more ignored")
		return
	}

	page, storedAt, err := s.load(ctx, "load_more", category, filters, false)
	s.settle(ctx, ticket, "load_more", func(st *State) {
		if err != nil {
			st.Phase = PhaseError
			st.Err = stateError(err)
			return
		}
		st.Records = append(slices.Clip(st.Records), page.Records...)
		st.Pagination = page.Pagination
		st.HasMore = page.Pagination.HasMore()
		st.Dropped += page.Dropped
		st.Filters = filters
		st.LastFetched = storedAt
		st.Phase = PhaseIdle
		st.Err = nil
	})
}

// load serves a page from the cache or the fetcher. The returned time is when
// the data was obtained.
func (s *Store) load(
	ctx context.Context,
	op string,
	category catalog.Category,
	filters catalog.FilterSet,
	forceRefresh bool,
) (catalog.Page, time.Time, error) {
	log := logging.FromContext(ctx)
	key := cache.DeriveKey(category, filters)

	if s.cache != nil && !forceRefresh {
		var cached catalog.Page
		if storedAt, ok := s.cache.Read(ctx, key, s.ttl, &cached); ok {
			log.Debug().Ctx(ctx).
				Str("component", "store").
				Str("operation", op).
				Str("category", category.String()).
				Int("page", filters.Page).
				Msg("served from cache")
			return cached, storedAt, nil
		}
	}

	fetchCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	page, err := s.fetcher.Fetch(fetchCtx, category, filters)
	if err != nil {
		if errors.Is(fetchCtx.Err(), context.DeadlineExceeded) && catalog.ClassifyError(err) != catalog.KindTimeout {
			err = &catalog.NetworkError{Path: s.routes.Endpoint(category), Timeout: true, Err: err}
		}
		log.Warn().Ctx(ctx).
			Str("component", "store").
			Str("operation", op).
			Str("category", category.String()).
			Int("page", filters.Page).
			Err(err).
			Msg("catalog fetch failed")
		return catalog.Page{}, time.Time{}, err
	}
	if page.Dropped > 0 {
		log.Warn().Ctx(ctx).
			Str("component", "store").
			Str("operation", op).
			Int("dropped", page.Dropped).
			Msg("page contained malformed records")
	}

	now := s.now()
	if s.cache != nil {
		s.cache.Write(ctx, key, page, now)
	}
	return page, now, nil
}

// InvalidateCache deletes the cached page for category and filters. The
// category's forced filters are applied first so the key matches what was
// stored. In-memory state is untouched.
func (s *Store) InvalidateCache(ctx context.Context, category catalog.Category, filters catalog.FilterSet) {
	if s.cache == nil {
		return
	}
	key := cache.DeriveKey(category, s.routes.Apply(category, filters))
	s.cache.Delete(ctx, key)
	logging.FromContext(ctx).Info().Ctx(ctx).
		Str("component", "store").
		Str("operation", "invalidate_cache").
		Str("cache_key", key.String()).
		Msg("cache entry invalidated")
}

// InvalidateAll deletes every cached catalog page and returns how many were removed.
func (s *Store) InvalidateAll(ctx context.Context) int {
	if s.cache == nil {
		return 0
	}
	return s.cache.InvalidateNamespace(ctx, cache.NamespaceCatalog)
}

// Reset restores the initial state. Results of in-flight requests are discarded.
func (s *Store) Reset() {
	s.transition(func(st *State) bool {
		s.seq++
		*st = initialState()
		return true
	})
}

func stateError(err error) *StateError {
	return &StateError{Kind: catalog.ClassifyError(err), Message: err.Error()}
}
