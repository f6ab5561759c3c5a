package config

import (
	"maps"

	"github.com/rshade/piante/internal/catalog"
)

// Routes returns the category routing table. With no categories configured
// the built-in table is used.
func (c *Config) Routes() catalog.Routes {
	if len(c.Categories) == 0 {
		return catalog.DefaultRoutes()
	}
	routes := make([]catalog.CategoryRoute, 0, len(c.Categories))
	for _, cc := range c.Categories {
		routes = append(routes, catalog.CategoryRoute{
			Slug:     catalog.Category(cc.Category),
			Endpoint: cc.Endpoint,
			Forced: catalog.FilterPatch{
				Search:   cc.Forced.Search,
				Watering: cc.Forced.Watering,
				Flags:    maps.Clone(cc.Forced.Flags),
				Limit:    cc.Forced.Limit,
			},
		})
	}
	return catalog.NewRoutes(routes...)
}
