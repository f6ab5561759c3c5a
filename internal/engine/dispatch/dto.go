package dispatch

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/rshade/piante/internal/catalog"
)

// envelope is the API's standard response wrapper.
type envelope struct {
	Success    *bool           `json:"success"`
	StatusCode int             `json:"statusCode"`
	Message    string          `json:"message"`
	Data       json.RawMessage `json:"data"`
	Error      *string         `json:"error"`
	Timestamp  string          `json:"timestamp"`
	Path       string          `json:"path"`
}

// paginated is the data object of list endpoints.
type paginated struct {
	Data []json.RawMessage `json:"data"`
	Meta *paginationMeta   `json:"meta"`
}

type paginationMeta struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"totalPages"`
}

// plantDTO is a plant as the API serves it.
type plantDTO struct {
	ID             string   `json:"_id"`
	Name           string   `json:"nome"`
	ScientificName string   `json:"nomeScientifico"`
	Family         string   `json:"famiglia"`
	Slug           string   `json:"slug"`
	Description    string   `json:"descrizione"`
	Image          string   `json:"immagine"`
	Indoor         bool     `json:"indoor"`
	Flowers        bool     `json:"flowers"`
	Edible         bool     `json:"edible"`
	Watering       string   `json:"watering"`
	Difficulty     string   `json:"difficoltaColtivazione"`
	Categories     []string `json:"categorie"`
}

// categoryDTO is a category as the API serves it.
type categoryDTO struct {
	ID          string `json:"_id"`
	Name        string `json:"nome"`
	Slug        string `json:"slug"`
	Description string `json:"descrizione"`
	Order       int    `json:"ordine"`
	Active      bool   `json:"attiva"`
}

// Record validation errors.
var (
	errMissingID   = errors.New("record has no _id")
	errMissingName = errors.New("record has no nome")
	errMissingData = errors.New("envelope has no data object")
)

func (d plantDTO) toPlant() (catalog.Plant, error) {
	if strings.TrimSpace(d.ID) == "" {
		return catalog.Plant{}, errMissingID
	}
	if strings.TrimSpace(d.Name) == "" {
		return catalog.Plant{}, errMissingName
	}
	return catalog.Plant{
		ID:             d.ID,
		Name:           d.Name,
		ScientificName: d.ScientificName,
		Family:         d.Family,
		Slug:           d.Slug,
		Description:    d.Description,
		Image:          d.Image,
		Indoor:         d.Indoor,
		Flowers:        d.Flowers,
		Edible:         d.Edible,
		Watering:       d.Watering,
		Difficulty:     d.Difficulty,
		Categories:     d.Categories,
	}, nil
}

func (d categoryDTO) toCategory() (catalog.CategoryInfo, error) {
	if strings.TrimSpace(d.ID) == "" {
		return catalog.CategoryInfo{}, errMissingID
	}
	if strings.TrimSpace(d.Name) == "" {
		return catalog.CategoryInfo{}, errMissingName
	}
	return catalog.CategoryInfo{
		ID:          d.ID,
		Name:        d.Name,
		Slug:        d.Slug,
		Description: d.Description,
		Order:       d.Order,
		Active:      d.Active,
	}, nil
}

// decodeEnvelope unwraps body into its paginated data object.
func decodeEnvelope(path string, body []byte) (paginated, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return paginated{}, &catalog.SchemaError{Path: path, Err: err}
	}
	if env.Success != nil && !*env.Success {
		msg := env.Message
		if msg == "" && env.Error != nil {
			msg = *env.Error
		}
		if msg == "" {
			msg = "request unsuccessful"
		}
		return paginated{}, &catalog.NetworkError{Path: path, StatusCode: env.StatusCode, Err: errors.New(msg)}
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return paginated{}, &catalog.SchemaError{Path: path, Err: errMissingData}
	}

	var page paginated
	if err := json.Unmarshal(env.Data, &page); err != nil {
		return paginated{}, &catalog.SchemaError{Path: path, Err: err}
	}
	if page.Data == nil {
		return paginated{}, &catalog.SchemaError{Path: path, Err: errMissingData}
	}
	return page, nil
}

// pagination maps meta onto PaginationInfo. Missing meta is derived from the
// request and the record count.
func (p paginated) pagination(requested catalog.FilterSet, count int) catalog.PaginationInfo {
	if p.Meta == nil {
		info := catalog.PaginationInfo{
			CurrentPage: requested.Page,
			TotalPages:  requested.Page,
			Total:       (requested.Page-1)*requested.Limit + count,
			PerPage:     requested.Limit,
		}
		return info.Normalize(requested.Limit)
	}
	current := p.Meta.Page
	if current < 1 {
		current = requested.Page
	}
	return catalog.PaginationInfo{
		CurrentPage: current,
		TotalPages:  p.Meta.TotalPages,
		Total:       p.Meta.Total,
		PerPage:     p.Meta.Limit,
	}.Normalize(requested.Limit)
}
