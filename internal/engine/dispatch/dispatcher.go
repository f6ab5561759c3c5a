package dispatch

import (
	"cmp"
	"context"
	"encoding/json"
	"slices"

	"golang.org/x/sync/singleflight"

	"github.com/rshade/piante/internal/catalog"
	"github.com/rshade/piante/internal/logging"
)

// Dispatcher turns (category, filters) into API requests and maps responses
// into catalog pages. Identical concurrent requests share one transport call.
type Dispatcher struct {
	transport Transport
	routes    catalog.Routes
	group     singleflight.Group
}

// New creates a Dispatcher.
func New(transport Transport, routes catalog.Routes) *Dispatcher {
	return &Dispatcher{transport: transport, routes: routes}
}

// Routes returns the category routing table.
func (d *Dispatcher) Routes() catalog.Routes {
	return d.routes
}

// Fetch retrieves one page. Records that fail validation are dropped and
// counted in Page.Dropped; an envelope that cannot be parsed fails the call.
func (d *Dispatcher) Fetch(ctx context.Context, category catalog.Category, filters catalog.FilterSet) (catalog.Page, error) {
	filters = filters.Normalize()
	path := d.routes.Endpoint(category)
	query := BuildQuery(filters)

	body, err := d.request(ctx, path, query.Encode(), func() ([]byte, error) {
		return d.transport.Request(ctx, path, query)
	})
	if err != nil {
		return catalog.Page{}, err
	}

	data, err := decodeEnvelope(path, body)
	if err != nil {
		return catalog.Page{}, err
	}

	log := logging.FromContext(ctx)
	page := catalog.Page{Records: make([]catalog.Plant, 0, len(data.Data))}
	for i, raw := range data.Data {
		var dto plantDTO
		plant, mapErr := func() (catalog.Plant, error) {
			if err := json.Unmarshal(raw, &dto); err != nil {
				return catalog.Plant{}, err
			}
			return dto.toPlant()
		}()
		if mapErr != nil {
			page.Dropped++
			log.Warn().Ctx(ctx).
				Str("component", "dispatch").
				Str("operation", "fetch").
				Str("path", path).
				Int("index", i).
				Err(mapErr).
				Msg("dropping malformed record")
			continue
		}
		page.Records = append(page.Records, plant)
	}
	page.Pagination = data.pagination(filters, len(data.Data))

	log.Debug().Ctx(ctx).
		Str("component", "dispatch").
		Str("operation", "fetch").
		Str("path", path).
		Int("records", len(page.Records)).
		Int("dropped", page.Dropped).
		Int("page", page.Pagination.CurrentPage).
		Int("total_pages", page.Pagination.TotalPages).
		Msg("page fetched")
	return page, nil
}

// FetchCategories retrieves the active categories ordered by their position.
func (d *Dispatcher) FetchCategories(ctx context.Context) ([]catalog.CategoryInfo, error) {
	path := catalog.CategoriesEndpoint
	body, err := d.request(ctx, path, "", func() ([]byte, error) {
		return d.transport.Request(ctx, path, nil)
	})
	if err != nil {
		return nil, err
	}

	data, err := decodeEnvelope(path, body)
	if err != nil {
		return nil, err
	}

	log := logging.FromContext(ctx)
	out := make([]catalog.CategoryInfo, 0, len(data.Data))
	for i, raw := range data.Data {
		var dto categoryDTO
		if err := json.Unmarshal(raw, &dto); err != nil {
			log.Warn().Ctx(ctx).Str("component", "dispatch").Int("index", i).Err(err).
				Msg("dropping malformed category")
			continue
		}
		info, err := dto.toCategory()
		if err != nil {
			log.Warn().Ctx(ctx).Str("component", "dispatch").Int("index", i).Err(err).
				Msg("dropping malformed category")
			continue
		}
		if !info.Active {
			continue
		}
		out = append(out, info)
	}
	slices.SortStableFunc(out, func(a, b catalog.CategoryInfo) int {
		return cmp.Compare(a.Order, b.Order)
	})
	return out, nil
}

// request runs fn once per distinct (path, query) among concurrent callers.
// Each caller gets its own copy of the body and stops waiting when its own
// ctx is done, even if the shared call is still running.
func (d *Dispatcher) request(ctx context.Context, path, encodedQuery string, fn func() ([]byte, error)) ([]byte, error) {
	key := path + "?" + encodedQuery
	ch := d.group.DoChan(key, func() (any, error) {
		return fn()
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if res.Shared {
		logging.FromContext(ctx).Debug().Ctx(ctx).
			Str("component", "dispatch").
			Str("request", key).
			Msg("joined in-flight request")
	}
	if res.Err != nil {
		return nil, res.Err
	}
	return slices.Clone(res.Val.([]byte)), nil
}
