package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rshade/piante/internal/catalog"
	"github.com/rshade/piante/internal/engine/batch"
	"github.com/rshade/piante/internal/engine/cache"
	"github.com/rshade/piante/internal/logging"
)

// ErrNoCache is returned by Warm when there is nowhere to store pages.
var ErrNoCache = errors.New("cache warming requires a persistent cache")

// WarmOptions configures Warm.
type WarmOptions struct {
	// Limit is the page size to prefetch. Defaults to catalog.DefaultLimit.
	Limit int
	// Concurrency bounds parallel requests. Defaults to batch.DefaultConcurrency.
	Concurrency int
	// Timeout bounds each request. Defaults to DefaultFetchTimeout.
	Timeout time.Duration
	// Progress, if set, is called after each category completes.
	Progress batch.ProgressCallback
}

// WarmReport summarizes a Warm run.
type WarmReport struct {
	Warmed  []catalog.Category
	Failed  map[catalog.Category]error
	Dropped int
}

// Warm fetches page 1 of the whole catalog and of every routed category and
// writes each page to the persistent cache. Failures of individual categories
// are reported, not returned.
func Warm(
	ctx context.Context,
	fetcher Fetcher,
	persistent *cache.Persistent,
	routes catalog.Routes,
	opts WarmOptions,
) (WarmReport, error) {
	report := WarmReport{Failed: make(map[catalog.Category]error)}
	if persistent == nil {
		return report, ErrNoCache
	}
	if opts.Limit < 1 {
		opts.Limit = catalog.DefaultLimit
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultFetchTimeout
	}

	categories := append([]catalog.Category{catalog.All}, routes.Slugs()...)
	base := catalog.FilterSet{Page: catalog.DefaultPage, Limit: opts.Limit}
	log := logging.FromContext(ctx)

	var mu sync.Mutex
	processor := batch.NewProcessorWithDefaults[catalog.Category]()
	if opts.Progress != nil {
		processor.WithProgressCallback(opts.Progress)
	}

	err := processor.ProcessConcurrent(ctx, categories, func(ctx context.Context, items []catalog.Category, _ int) error {
		for _, category := range items {
			filters := routes.Apply(category, base)
			fetchCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
			page, err := fetcher.Fetch(fetchCtx, category, filters)
			cancel()

			mu.Lock()
			if err != nil {
				report.Failed[category] = err
				mu.Unlock()
				log.Warn().Ctx(ctx).
					Str("component", "warm").
					Str("category", category.String()).
					Err(err).
					Msg("category warm failed")
				return err
			}
			report.Warmed = append(report.Warmed, category)
			report.Dropped += page.Dropped
			mu.Unlock()

			persistent.Write(ctx, cache.DeriveKey(category, filters), page, persistent.Now())
			log.Debug().Ctx(ctx).
				Str("component", "warm").
				Str("category", category.String()).
				Int("records", len(page.Records)).
				Msg("category warmed")
		}
		return nil
	}, opts.Concurrency)

	log.Info().Ctx(ctx).
		Str("component", "warm").
		Int("warmed", len(report.Warmed)).
		Int("failed", len(report.Failed)).
		Msg("cache warm finished")

	// Per-category failures are already in the report; only cancellation is fatal.
	if ctxErr := ctx.Err(); ctxErr != nil && err != nil {
		return report, ctxErr
	}
	return report, nil
}
