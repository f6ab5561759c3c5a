// Package config loads piante's configuration: built-in defaults, a YAML file
// in the user's home directory, an optional project-local overlay and
// PIANTE_* environment variables, applied in that order.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog"

	"github.com/rshade/piante/internal/catalog"
	"github.com/rshade/piante/internal/engine/cache"
)

// Cache backends.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// Defaults.
const (
	DefaultBaseURL   = "http://localhost:3000"
	DefaultTimeout   = 15 * time.Second
	DefaultUserAgent = "piante-cli"
	DefaultBackend   = BackendFile

	configDirName  = ".piante"
	configFileName = "config.yaml"
)

// Validation errors.
var (
	ErrInvalidBaseURL  = errors.New("api.base_url must be an absolute http(s) URL")
	ErrInvalidTimeout  = errors.New("api.timeout must be positive")
	ErrInvalidBackend  = errors.New("cache.backend must be one of memory, file, sqlite, redis")
	ErrMissingRedisURL = errors.New("cache.redis_url is required for the redis backend")
	ErrInvalidLogLevel = errors.New("logging.level is not a valid level")
	ErrInvalidFormat   = errors.New("logging.format must be console or json")
	ErrInvalidCategory = errors.New("invalid category route")
)

// Config is the full piante configuration.
type Config struct {
	API        APIConfig        `yaml:"api"`
	Cache      CacheConfig      `yaml:"cache"`
	Logging    LoggingConfig    `yaml:"logging"`
	Categories []CategoryConfig `yaml:"categories"`
}

// APIConfig describes the remote catalog API.
type APIConfig struct {
	BaseURL   string        `yaml:"base_url"   env:"PIANTE_API_URL"`
	Timeout   time.Duration `yaml:"timeout"    env:"PIANTE_API_TIMEOUT"`
	UserAgent string        `yaml:"user_agent" env:"PIANTE_USER_AGENT"`
}

// CacheConfig selects and tunes the persistent cache.
type CacheConfig struct {
	Enabled    bool          `yaml:"enabled"     env:"PIANTE_CACHE_ENABLED"`
	Backend    string        `yaml:"backend"     env:"PIANTE_CACHE_BACKEND"`
	Dir        string        `yaml:"dir"         env:"PIANTE_CACHE_DIR"`
	SQLitePath string        `yaml:"sqlite_path" env:"PIANTE_CACHE_SQLITE_PATH"`
	RedisURL   string        `yaml:"redis_url"   env:"PIANTE_REDIS_URL"`
	TTL        TTL           `yaml:"ttl"         env:"PIANTE_CACHE_TTL"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `yaml:"level"  env:"PIANTE_LOG_LEVEL"`
	Format string `yaml:"format" env:"PIANTE_LOG_FORMAT"`
	File   string `yaml:"file"   env:"PIANTE_LOG_FILE"`
}

// CategoryConfig is one entry of the category routing table.
type CategoryConfig struct {
	Category string        `yaml:"category"`
	Endpoint string        `yaml:"endpoint,omitempty"`
	Forced   ForcedFilters `yaml:"forced,omitempty"`
}

// ForcedFilters are the filter values a category imposes.
type ForcedFilters struct {
	Search   *string         `yaml:"search,omitempty"`
	Watering *string         `yaml:"watering,omitempty"`
	Flags    map[string]bool `yaml:"flags,omitempty"`
	Limit    *int            `yaml:"limit,omitempty"`
}

// New returns the built-in defaults.
func New() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:   DefaultBaseURL,
			Timeout:   DefaultTimeout,
			UserAgent: DefaultUserAgent,
		},
		Cache: CacheConfig{
			Enabled:    true,
			Backend:    DefaultBackend,
			Dir:        filepath.Join(Dir(), "cache"),
			SQLitePath: filepath.Join(Dir(), "cache.db"),
			TTL:        TTL(cache.CatalogTTL),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Dir returns the piante configuration directory, ~/.piante. When the home
// directory cannot be determined the working directory is used.
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return configDirName
	}
	return filepath.Join(home, configDirName)
}

// DefaultPath returns the user configuration file path. PIANTE_CONFIG overrides it.
func DefaultPath() string {
	if p := os.Getenv("PIANTE_CONFIG"); p != "" {
		return p
	}
	return filepath.Join(Dir(), configFileName)
}

// Load builds a Config from defaults, the YAML file at path (a missing file
// is not an error) and the environment. The result is not validated.
func Load(path string) (*Config, error) {
	cfg := New()
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := MergeYAML(cfg, path); err != nil {
				return nil, err
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("checking config file %s: %w", path, err)
		}
	}
	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overlays PIANTE_* environment variables onto cfg. Unset variables
// leave the current values in place.
func ApplyEnv(cfg *Config) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Validate checks cfg for values the rest of the program cannot work with.
func (c *Config) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrInvalidBaseURL, c.API.BaseURL)
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("%w: %s", ErrInvalidTimeout, c.API.Timeout)
	}

	if !slices.Contains([]string{BackendMemory, BackendFile, BackendSQLite, BackendRedis}, c.Cache.Backend) {
		return fmt.Errorf("%w: got %q", ErrInvalidBackend, c.Cache.Backend)
	}
	if c.Cache.Backend == BackendRedis && c.Cache.RedisURL == "" {
		return ErrMissingRedisURL
	}
	if err := cache.ValidateTTL(c.Cache.TTL.Duration()); err != nil {
		return fmt.Errorf("cache.ttl: %w", err)
	}

	if _, err := zerolog.ParseLevel(strings.ToLower(c.Logging.Level)); err != nil || c.Logging.Level == "" {
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.Logging.Level)
	}
	if c.Logging.Format != "console" && c.Logging.Format != "json" {
		return fmt.Errorf("%w: got %q", ErrInvalidFormat, c.Logging.Format)
	}

	seen := make(map[string]bool, len(c.Categories))
	for i, cat := range c.Categories {
		slug := strings.TrimSpace(cat.Category)
		switch {
		case slug == "":
			return fmt.Errorf("%w: categories[%d] has no category", ErrInvalidCategory, i)
		case catalog.Category(slug).IsAll():
			return fmt.Errorf("%w: %q is reserved for the whole catalog", ErrInvalidCategory, slug)
		case seen[slug]:
			return fmt.Errorf("%w: category %q listed twice", ErrInvalidCategory, slug)
		case cat.Endpoint != "" && !strings.HasPrefix(cat.Endpoint, "/"):
			return fmt.Errorf("%w: endpoint %q for %q must start with /", ErrInvalidCategory, cat.Endpoint, slug)
		case cat.Forced.Limit != nil && *cat.Forced.Limit < 1:
			return fmt.Errorf("%w: forced limit for %q must be positive", ErrInvalidCategory, slug)
		}
		seen[slug] = true
	}
	return nil
}
