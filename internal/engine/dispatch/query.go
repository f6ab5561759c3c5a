package dispatch

import (
	"net/url"
	"slices"
	"strconv"

	"github.com/rshade/piante/internal/catalog"
)

// BuildQuery translates filters into API query parameters.
// page and limit are always present; search and watering only when set;
// every set flag is encoded as "1" or "0".
func BuildQuery(filters catalog.FilterSet) url.Values {
	f := filters.Normalize()
	q := url.Values{}
	q.Set("page", strconv.Itoa(f.Page))
	q.Set("limit", strconv.Itoa(f.Limit))
	if f.Search != "" {
		q.Set("search", f.Search)
	}
	if f.Watering != "" {
		q.Set("watering", f.Watering)
	}
	names := make([]string, 0, len(f.Flags))
	for name := range f.Flags {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		if f.Flags[name] {
			q.Set(name, "1")
		} else {
			q.Set(name, "0")
		}
	}
	return q
}
