package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.NotEmpty(t, cfg.Listen)
	assert.NotEmpty(t, cfg.Feeds)
	assert.NotEmpty(t, cfg.Categories)
	assert.NotEmpty(t, cfg.EmbeddingModel)
}

func TestNewEmptyPathUsesDefaults(t *testing.T) {
	cfg, err := New("")
	require.NoError(t, err)
	assert.Equal(t, Default().Listen, cfg.Listen)
}

func TestNewMissingFile(t *testing.T) {
	_, err := New("/nonexistent/config.yml")
	require.Error(t, err)
}

func TestNewPartialFileFallsBackToDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	data := `
listen: ":8080"
feeds:
  - https://example.com/rss
categories:
  - name: Energy markets
    keywords: [oil, gas]
    subcategories:
      - title: Renewables
        description: Solar and wind projects
        keywords: [solar, wind]
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := New(path)
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Listen)
	assert.Equal(t, []string{"https://example.com/rss"}, cfg.Feeds)

	require.Len(t, cfg.Categories, 1)
	assert.Equal(t, "Energy markets", cfg.Categories[0].Name)
	require.Len(t, cfg.Categories[0].Subcategories, 1)
	assert.Equal(t, []string{"solar", "wind"}, cfg.Categories[0].Subcategories[0].Keywords)

	// Unset fields fall back to defaults.
	assert.Equal(t, Default().DBPath, cfg.DBPath)
	assert.Equal(t, 5*time.Minute, cfg.PullInterval)
	assert.Equal(t, Default().EmbeddingModel, cfg.EmbeddingModel)
}

func TestNewInvalidYaml(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("listen: [broken"), 0o644))

	_, err := New(path)
	require.Error(t, err)
}
