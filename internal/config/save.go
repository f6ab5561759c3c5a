package config

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/rshade/piante/internal/catalog"
)

// ErrConfigExists is returned by Save when the target exists and overwrite is false.
var ErrConfigExists = errors.New("configuration file already exists, use --force to overwrite")

// Save writes cfg as YAML to path, creating parent directories.
func Save(cfg *Config, path string, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%w: %s", ErrConfigExists, path)
		} else if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("cannot access config path %s: %w", path, err)
		}
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err = os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err = os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config file %s: %w", path, err)
	}
	return nil
}

// ProjectTemplate is the overlay written by "config init --project": the
// built-in category table spelled out so it can be edited in place.
type ProjectTemplate struct {
	Categories []CategoryConfig `yaml:"categories"`
}

// NewProjectTemplate returns the built-in routing table as an overlay.
func NewProjectTemplate() ProjectTemplate {
	routes := catalog.DefaultRoutes()
	out := ProjectTemplate{Categories: make([]CategoryConfig, 0, len(routes.Slugs()))}
	for _, slug := range routes.Slugs() {
		r, _ := routes.Lookup(slug)
		out.Categories = append(out.Categories, CategoryConfig{
			Category: string(r.Slug),
			Endpoint: r.Endpoint,
			Forced: ForcedFilters{
				Search:   r.Forced.Search,
				Watering: r.Forced.Watering,
				Flags:    maps.Clone(r.Forced.Flags),
				Limit:    r.Forced.Limit,
			},
		})
	}
	return out
}

// SaveProjectTemplate writes NewProjectTemplate to path.
func SaveProjectTemplate(path string, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%w: %s", ErrConfigExists, path)
		}
	}
	data, err := yaml.Marshal(NewProjectTemplate())
	if err != nil {
		return fmt.Errorf("marshal project config: %w", err)
	}
	//nolint:gosec // Project overlays are meant to be committed and shared.
	if err = os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing project config %s: %w", path, err)
	}
	return nil
}
