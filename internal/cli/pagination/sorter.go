package pagination

import (
	"slices"
	"sort"
	"strings"

	"github.com/rshade/piante/internal/catalog"
)

// Sorter orders the records of a page for display.
type Sorter interface {
	Sort(plants []catalog.Plant, field, order string) []catalog.Plant
	IsValidField(field string) bool
	GetValidFields() []string
}

// PlantSorter implements Sorter for catalog.Plant.
type PlantSorter struct {
	validFields map[string]bool
}

// NewPlantSorter creates a PlantSorter.
func NewPlantSorter() *PlantSorter {
	return &PlantSorter{
		validFields: map[string]bool{
			"name":       true,
			"scientific": true,
			"family":     true,
			"watering":   true,
			"difficulty": true,
		},
	}
}

// IsValidField checks if the field is valid for sorting.
func (s *PlantSorter) IsValidField(field string) bool {
	return s.validFields[field]
}

// GetValidFields returns all valid sort fields in alphabetical order.
func (s *PlantSorter) GetValidFields() []string {
	fields := make([]string, 0, len(s.validFields))
	for field := range s.validFields {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return fields
}

// Sort returns a sorted copy of plants. Comparison is case-insensitive and
// stable. An invalid field returns plants unchanged.
func (s *PlantSorter) Sort(plants []catalog.Plant, field, order string) []catalog.Plant {
	if !s.IsValidField(field) {
		return plants
	}

	sorted := slices.Clone(plants)
	sort.SliceStable(sorted, func(i, j int) bool {
		// Swapping keeps the sort stable in descending order.
		if order == SortOrderDesc {
			i, j = j, i
		}
		return strings.ToLower(sortValue(sorted[i], field)) < strings.ToLower(sortValue(sorted[j], field))
	})
	return sorted
}

func sortValue(p catalog.Plant, field string) string {
	switch field {
	case "name":
		return p.Name
	case "scientific":
		return p.ScientificName
	case "family":
		return p.Family
	case "watering":
		return p.Watering
	case "difficulty":
		return p.Difficulty
	default:
		return ""
	}
}
