package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/piante/internal/config"
)

func writeOverlay(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "overlay.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestMergeYAML_SingleKeyOverride(t *testing.T) {
	t.Parallel()

	target := config.New()
	require.NoError(t, config.MergeYAML(target, writeOverlay(t, "api:\n  timeout: 3s\n")))

	assert.Equal(t, 3*time.Second, target.API.Timeout)
	assert.Equal(t, config.DefaultBaseURL, target.API.BaseURL)
	assert.Equal(t, config.DefaultUserAgent, target.API.UserAgent)
}

func TestMergeYAML_AbsentSectionsPreserved(t *testing.T) {
	t.Parallel()

	target := config.New()
	target.Categories = []config.CategoryConfig{{Category: "succulente"}}

	require.NoError(t, config.MergeYAML(target, writeOverlay(t, "logging:\n  format: json\n")))

	assert.Equal(t, "json", target.Logging.Format)
	assert.Equal(t, "info", target.Logging.Level)
	assert.Equal(t, config.DefaultBackend, target.Cache.Backend)
	require.Len(t, target.Categories, 1)
	assert.Equal(t, "succulente", target.Categories[0].Category)
}

func TestMergeYAML_CategoriesReplaceWholeTable(t *testing.T) {
	t.Parallel()

	target := config.New()
	target.Categories = []config.CategoryConfig{{Category: "succulente"}, {Category: "cactus"}}

	overlay := `
categories:
  - category: aromatiche
    endpoint: /piante/aromatiche
    forced:
      watering: bassa
      flags:
        edible: true
`
	require.NoError(t, config.MergeYAML(target, writeOverlay(t, overlay)))

	require.Len(t, target.Categories, 1)
	got := target.Categories[0]
	assert.Equal(t, "aromatiche", got.Category)
	assert.Equal(t, "/piante/aromatiche", got.Endpoint)
	require.NotNil(t, got.Forced.Watering)
	assert.Equal(t, "bassa", *got.Forced.Watering)
	assert.Equal(t, map[string]bool{"edible": true}, got.Forced.Flags)
	assert.Nil(t, got.Forced.Search)
}

func TestMergeYAML_ZeroValuesReplaceDefaults(t *testing.T) {
	t.Parallel()

	target := config.New()
	require.NoError(t, config.MergeYAML(target, writeOverlay(t, "cache:\n  enabled: false\n")))

	assert.False(t, target.Cache.Enabled)
	assert.Equal(t, config.DefaultBackend, target.Cache.Backend)
}

func TestMergeYAML_CommentOnlyFile(t *testing.T) {
	t.Parallel()

	target := config.New()
	require.NoError(t, config.MergeYAML(target, writeOverlay(t, "# nothing\n")))
	assert.Equal(t, config.New(), target)
}

func TestMergeYAML_Errors(t *testing.T) {
	t.Parallel()

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()
		err := config.MergeYAML(config.New(), filepath.Join(t.TempDir(), "absent.yaml"))
		require.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("corrupted yaml", func(t *testing.T) {
		t.Parallel()
		err := config.MergeYAML(config.New(), writeOverlay(t, "cache: [\n"))
		assert.Error(t, err)
	})

	t.Run("wrong section shape", func(t *testing.T) {
		t.Parallel()
		err := config.MergeYAML(config.New(), writeOverlay(t, "api: [1, 2]\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), `"api"`)
	})

	t.Run("nil target", func(t *testing.T) {
		t.Parallel()
		assert.Error(t, config.MergeYAML(nil, writeOverlay(t, "api: {}\n")))
	})
}
