package catalog

import (
	"strings"
)

// Category selects the slice of the catalog being browsed. All is the empty value.
type Category string

// All selects the whole catalog.
const All Category = ""

// Endpoints used by the remote API.
const (
	PlantsEndpoint          = "/piante"
	CategoryEndpointPrefix  = "/piante/categoria/"
	CategoriesEndpoint      = "/categorie"
	allCategoryKeyComponent = "all"
)

// IsAll reports whether c selects the whole catalog. The reserved slug "all"
// does too, since it is how the whole catalog appears in cache keys.
func (c Category) IsAll() bool {
	slug := strings.TrimSpace(string(c))
	return slug == "" || slug == allCategoryKeyComponent
}

// String returns the slug, or "all".
func (c Category) String() string {
	if c.IsAll() {
		return allCategoryKeyComponent
	}
	return string(c)
}

// CategoryRoute binds a category slug to its endpoint and forced filters.
type CategoryRoute struct {
	Slug     Category
	Endpoint string
	Forced   FilterPatch
}

// Routes is the category routing table.
type Routes struct {
	byslug map[Category]CategoryRoute
	order  []Category
}

// NewRoutes builds a routing table. Later routes with the same slug replace earlier ones.
func NewRoutes(routes ...CategoryRoute) Routes {
	r := Routes{byslug: make(map[Category]CategoryRoute, len(routes))}
	for _, route := range routes {
		if route.Slug.IsAll() {
			continue
		}
		if _, seen := r.byslug[route.Slug]; !seen {
			r.order = append(r.order, route.Slug)
		}
		if route.Endpoint == "" {
			route.Endpoint = CategoryEndpointPrefix + string(route.Slug)
		}
		r.byslug[route.Slug] = route
	}
	return r
}

// DefaultRoutes returns the built-in category table.
func DefaultRoutes() Routes {
	return NewRoutes(
		CategoryRoute{Slug: "piante-da-interno", Forced: FilterPatch{Flags: map[string]bool{FlagIndoor: true}}},
		CategoryRoute{Slug: "piante-da-esterno", Forced: FilterPatch{Flags: map[string]bool{FlagIndoor: false}}},
		CategoryRoute{Slug: "piante-fiorite", Forced: FilterPatch{Flags: map[string]bool{FlagFlowers: true}}},
		CategoryRoute{Slug: "orto-e-commestibili", Forced: FilterPatch{Flags: map[string]bool{FlagEdible: true}}},
	)
}

// Lookup returns the route for c.
func (r Routes) Lookup(c Category) (CategoryRoute, bool) {
	route, ok := r.byslug[c]
	return route, ok
}

// Slugs returns configured category slugs in declaration order.
func (r Routes) Slugs() []Category {
	out := make([]Category, len(r.order))
	copy(out, r.order)
	return out
}

// Endpoint returns the API path serving c.
func (r Routes) Endpoint(c Category) string {
	if c.IsAll() {
		return PlantsEndpoint
	}
	if route, ok := r.byslug[c]; ok {
		return route.Endpoint
	}
	return CategoryEndpointPrefix + string(c)
}

// Apply returns f with c's forced filters layered on top. Forced values always
// win over caller-supplied values for the same field. Pagination is normalized.
func (r Routes) Apply(c Category, f FilterSet) FilterSet {
	out := f.Normalize()
	if route, ok := r.byslug[c]; ok {
		out = out.Apply(route.Forced)
	}
	return out
}
