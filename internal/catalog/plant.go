package catalog

// Plant is a catalog record as the rest of the application sees it.
type Plant struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	ScientificName string   `json:"scientificName,omitempty"`
	Family         string   `json:"family,omitempty"`
	Slug           string   `json:"slug,omitempty"`
	Description    string   `json:"description,omitempty"`
	Image          string   `json:"image,omitempty"`
	Indoor         bool     `json:"indoor"`
	Flowers        bool     `json:"flowers"`
	Edible         bool     `json:"edible"`
	Watering       string   `json:"watering,omitempty"`
	Difficulty     string   `json:"difficulty,omitempty"`
	Categories     []string `json:"categories,omitempty"`
}

// CategoryInfo is a browsable category as listed by the API.
type CategoryInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description,omitempty"`
	Order       int    `json:"order"`
	Active      bool   `json:"active"`
}

// Page is one page of catalog results.
type Page struct {
	Records    []Plant        `json:"records"`
	Pagination PaginationInfo `json:"pagination"`

	// Dropped counts records the API returned that could not be mapped.
	// It is not persisted with cached pages.
	Dropped int `json:"-"`
}
