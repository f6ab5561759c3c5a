package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Top-level YAML config key names.
const (
	keyAPI        = "api"
	keyCache      = "cache"
	keyLogging    = "logging"
	keyCategories = "categories"
)

// MergeYAML loads a YAML file and merges it onto target.
//
// Mapping sections (api, cache, logging) merge field by field: keys present in
// the file replace the target's values and absent keys are left unchanged.
// The categories list, when present, replaces the whole routing table.
// Unknown top-level keys are ignored.
func MergeYAML(target *Config, path string) error {
	if target == nil {
		return errors.New("nil target *Config in MergeYAML")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file %s: %w", path, err)
	}

	var overlay map[string]yaml.Node
	if err = yaml.Unmarshal(data, &overlay); err != nil {
		return fmt.Errorf("parsing config YAML from %s: %w", path, err)
	}

	// An empty or comment-only file yields no keys.
	for key, node := range overlay {
		if err = mergeSection(target, key, &node); err != nil {
			return fmt.Errorf("applying config section %q from %s: %w", key, path, err)
		}
	}
	return nil
}

func mergeSection(target *Config, key string, node *yaml.Node) error {
	switch key {
	case keyAPI:
		return node.Decode(&target.API)
	case keyCache:
		return node.Decode(&target.Cache)
	case keyLogging:
		return node.Decode(&target.Logging)
	case keyCategories:
		var v []CategoryConfig
		if err := node.Decode(&v); err != nil {
			return err
		}
		target.Categories = v
		return nil
	default:
		return nil
	}
}
