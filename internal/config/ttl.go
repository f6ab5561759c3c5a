package config

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rshade/piante/internal/engine/cache"
)

// TTL is a cache lifetime as written in configuration: integer seconds
// ("3600") or a Go duration ("1h", "90m").
type TTL time.Duration

// Duration returns t as a time.Duration.
func (t TTL) Duration() time.Duration { return time.Duration(t) }

// String formats t the way cache stats print it.
func (t TTL) String() string { return cache.FormatDuration(t.Duration()) }

// UnmarshalText implements encoding.TextUnmarshaler, used for PIANTE_CACHE_TTL.
func (t *TTL) UnmarshalText(text []byte) error {
	d, err := cache.ParseTTL(strings.TrimSpace(string(text)))
	if err != nil {
		return err
	}
	*t = TTL(d)
	return nil
}

// UnmarshalYAML accepts both integer and string scalars.
func (t *TTL) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("ttl must be a scalar, got line %d", node.Line)
	}
	return t.UnmarshalText([]byte(node.Value))
}

// MarshalYAML writes t as a Go duration string.
func (t TTL) MarshalYAML() (any, error) {
	return t.Duration().String(), nil
}
