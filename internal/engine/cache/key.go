package cache

import (
	"github.com/rshade/piante/internal/catalog"
)

// Key namespaces. Every catalog page key starts with NamespaceCatalog.
const (
	NamespaceCatalog    = "piante_"
	NamespaceCategories = "categorie"
)

// Key identifies one cache entry.
type Key string

// CategoriesKey is the key of the cached category list.
const CategoriesKey Key = NamespaceCategories

// DeriveKey maps (category, filters) to a cache key.
// The filters are encoded canonically, so construction order of the FilterSet
// never changes the key while any differing value does.
func DeriveKey(category catalog.Category, filters catalog.FilterSet) Key {
	return Key(NamespaceCatalog + category.String() + "_" + string(filters.Canonical()))
}

// String returns the key as stored.
func (k Key) String() string { return string(k) }
