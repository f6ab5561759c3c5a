package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/rshade/piante/internal/logging"
)

// ProjectFileName is the project-local overlay looked up from the working directory.
const ProjectFileName = ".piante.yaml"

// FindProjectFile walks up from startDir looking for ProjectFileName and
// returns its absolute path, or "" if none exists.
func FindProjectFile(startDir string) string {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return ""
	}
	for {
		candidate := filepath.Join(dir, ProjectFileName)
		if info, statErr := os.Stat(candidate); statErr == nil && !info.IsDir() {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// LoadLayered loads the user config at userPath, merges the project overlay at
// projectPath on top when it exists, then applies the environment. A broken
// project overlay is logged and skipped; a broken user config is an error.
func LoadLayered(ctx context.Context, userPath, projectPath string) (*Config, error) {
	cfg := New()
	if userPath != "" {
		if err := MergeYAML(cfg, userPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	if projectPath != "" {
		overlay := *cfg
		overlay.Categories = append([]CategoryConfig(nil), cfg.Categories...)
		if err := MergeYAML(&overlay, projectPath); err != nil {
			logging.FromContext(ctx).Warn().Ctx(ctx).
				Str("component", "config").
				Str("operation", "merge_project_config").
				Str("overlay_path", projectPath).
				Err(err).
				Msg("failed to merge project config, using user config")
		} else {
			cfg = &overlay
		}
	}

	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
