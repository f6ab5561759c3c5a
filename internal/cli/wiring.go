package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/rshade/piante/internal/config"
	"github.com/rshade/piante/internal/engine"
	"github.com/rshade/piante/internal/engine/cache"
	"github.com/rshade/piante/internal/engine/dispatch"
	"github.com/rshade/piante/internal/kv"
	"github.com/rshade/piante/internal/kv/rediskv"
	"github.com/rshade/piante/internal/kv/sqlitekv"
	"github.com/rshade/piante/internal/logging"
)

// redisNamespace prefixes every key piante writes to a shared Redis.
const redisNamespace = "piante:"

// errCacheDisabled is returned by cache commands when no persistent cache is configured.
var errCacheDisabled = errors.New("persistent cache is disabled (remove --no-cache or set cache.enabled)")

// services holds the components a command needs, built from one Config.
type services struct {
	cfg        *config.Config
	persistent *cache.Persistent
	dispatcher *dispatch.Dispatcher

	// cacheErr records why the persistent cache could not be opened.
	cacheErr error
	closers  []func() error
}

// newServices builds the KV backend, persistent cache and dispatcher for cfg.
// A cache backend that cannot be opened is logged and bypassed so that
// catalog commands still work against the API.
func newServices(ctx context.Context, cfg *config.Config) *services {
	s := &services{cfg: cfg}

	transport := dispatch.NewHTTPTransport(cfg.API.BaseURL, cfg.API.UserAgent, &http.Client{})
	s.dispatcher = dispatch.New(transport, cfg.Routes())

	if !cfg.Cache.Enabled {
		s.cacheErr = errCacheDisabled
		return s
	}

	store, closer, err := openKV(ctx, cfg.Cache)
	if err != nil {
		s.cacheErr = err
		logging.FromContext(ctx).Warn().Ctx(ctx).
			Str("component", "cli").
			Str("operation", "open_cache").
			Str("backend", cfg.Cache.Backend).
			Err(err).
			Msg("cache backend unavailable, continuing without cache")
		return s
	}
	if closer != nil {
		s.closers = append(s.closers, closer)
	}
	s.persistent = cache.NewPersistent(store)
	return s
}

// openKV opens the configured backend. The returned closer may be nil.
func openKV(ctx context.Context, cfg config.CacheConfig) (kv.Store, func() error, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		return kv.NewMemory(), nil, nil
	case config.BackendFile:
		store, err := kv.NewFileStore(cfg.Dir)
		if err != nil {
			return nil, nil, fmt.Errorf("opening file cache %s: %w", cfg.Dir, err)
		}
		if _, err = config.EnsureGitignore(cfg.Dir); err != nil {
			logging.FromContext(ctx).Debug().Ctx(ctx).
				Str("component", "cli").
				Str("cache_dir", cfg.Dir).
				Err(err).
				Msg("could not write cache .gitignore")
		}
		return store, nil, nil
	case config.BackendSQLite:
		if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0o700); err != nil {
			return nil, nil, fmt.Errorf("creating sqlite cache directory: %w", err)
		}
		store, err := sqlitekv.Open(cfg.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("opening sqlite cache %s: %w", cfg.SQLitePath, err)
		}
		return store, store.Close, nil
	case config.BackendRedis:
		store, err := rediskv.Open(ctx, cfg.RedisURL, redisNamespace)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	default:
		return nil, nil, fmt.Errorf("%w: got %q", config.ErrInvalidBackend, cfg.Backend)
	}
}

// catalogStore builds a catalog store over the shared cache and dispatcher.
func (s *services) catalogStore() *engine.Store {
	opts := []engine.StoreOption{
		engine.WithRoutes(s.cfg.Routes()),
		engine.WithTTL(s.cfg.Cache.TTL.Duration()),
		engine.WithFetchTimeout(s.cfg.API.Timeout),
	}
	if s.persistent != nil {
		opts = append(opts, engine.WithCache(s.persistent))
	}
	return engine.NewStore(s.dispatcher, opts...)
}

// categoryStore builds a category store over the shared cache and dispatcher.
func (s *services) categoryStore() *engine.CategoryStore {
	return engine.NewCategoryStore(s.dispatcher, s.persistent, engine.WithCategoryTimeout(s.cfg.API.Timeout))
}

// requireCache returns the persistent cache or the reason there is none.
func (s *services) requireCache() (*cache.Persistent, error) {
	if s.persistent == nil {
		return nil, s.cacheErr
	}
	return s.persistent, nil
}

// Close releases backend handles.
func (s *services) Close() error {
	var errs []error
	for _, c := range s.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}
