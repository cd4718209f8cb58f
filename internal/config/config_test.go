package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, 8000, cfg.Port)
	assert.Equal(t, "news.db", cfg.DBFile)
	assert.Equal(t, []string{"news_data.json"}, cfg.LegacyDataFiles)
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL)
	assert.Equal(t, 100, cfg.DefaultLimit)
	assert.Equal(t, 500, cfg.MaxLimit)
	assert.Equal(t, "@every 30m", cfg.ScrapeSchedule)
	assert.True(t, cfg.ScrapeOnStartup)
	assert.True(t, cfg.ScheduledClassify)

	assert.Equal(t, 15*time.Second, cfg.Scraper.ListingTimeout)
	assert.Equal(t, 10*time.Second, cfg.Scraper.DetailTimeout)
	assert.Equal(t, 20, cfg.Scraper.MinHeadlineLength)
	assert.NotEmpty(t, cfg.Scraper.UserAgent)

	assert.Equal(t, "gpt-3.5-turbo", cfg.Classifier.Model)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.Security.AllowedOrigins)

	assert.Equal(t, "CNN", cfg.Source.Name)
	assert.Equal(t, "top-stories", cfg.Source.HomeCategory)
	assert.Len(t, cfg.Source.Categories, 12)
}

func TestLoadConfig_EnvironmentVariables(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("CACHE_TTL", "30s")
	t.Setenv("SCRAPE_SCHEDULE", "")
	t.Setenv("SCHEDULED_CLASSIFY", "false")
	t.Setenv("MIN_HEADLINE_LENGTH", "10")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("OPENAI_MODEL", "gpt-4o-mini")
	t.Setenv("ALLOWED_ORIGINS", "http://a.example, http://b.example")
	t.Setenv("DEFAULT_LIMIT", "50")
	t.Setenv("MAX_LIMIT", "20")

	cfg := Load()

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, 30*time.Second, cfg.CacheTTL)
	assert.Empty(t, cfg.ScrapeSchedule, "explicit empty schedule disables cron")
	assert.False(t, cfg.ScheduledClassify)
	assert.Equal(t, 10, cfg.Scraper.MinHeadlineLength)
	assert.Equal(t, "sk-test", cfg.Classifier.APIKey)
	assert.Equal(t, "gpt-4o-mini", cfg.Classifier.Model)
	assert.Equal(t, []string{"http://a.example", "http://b.example"}, cfg.Security.AllowedOrigins)
	assert.Equal(t, 50, cfg.DefaultLimit)
	assert.Equal(t, 50, cfg.MaxLimit, "max limit never below default")
}

func TestLoadConfig_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("PORT", "not-a-number")
	t.Setenv("DETAIL_TIMEOUT", "soon")
	t.Setenv("READABILITY_FALLBACK", "maybe")

	cfg := Load()

	assert.Equal(t, 8000, cfg.Port)
	assert.Equal(t, 10*time.Second, cfg.Scraper.DetailTimeout)
	assert.True(t, cfg.Scraper.ReadabilityFallback)
}

func TestParseSource(t *testing.T) {
	data := []byte(`
name: Example News
base_url: https://news.example.com/
categories:
  - name: World
    path: /world
  - name: sports
    path: /sport
`)

	src, err := ParseSource(data)
	require.NoError(t, err)

	assert.Equal(t, "Example News", src.Name)
	assert.Equal(t, "https://news.example.com", src.BaseURL)
	assert.Equal(t, "top-stories", src.HomeCategory)
	assert.Equal(t, []string{"world", "sports"}, src.CategoryNames())
	assert.Equal(t, "/sport", src.Categories[1].Path)
}

func TestParseSource_Invalid(t *testing.T) {
	_, err := ParseSource([]byte("categories: []"))
	assert.Error(t, err, "base_url is required")

	_, err = ParseSource([]byte("base_url: https://x.example\ncategories:\n  - name: a\n  - name: A\n"))
	assert.Error(t, err, "duplicate category")

	_, err = ParseSource([]byte("base_url: [unclosed"))
	assert.Error(t, err)
}

func TestLoadConfig_SourcesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sources.yaml")
	require.NoError(t, os.WriteFile(path, []byte("base_url: https://local.test\ncategories:\n  - name: health\n    path: /health\n"), 0600))
	t.Setenv("SOURCES_FILE", path)

	cfg := Load()

	assert.Equal(t, "https://local.test", cfg.Source.BaseURL)
	assert.Equal(t, []string{"health"}, cfg.Source.CategoryNames())
}

func TestLoadConfig_MissingSourcesFileUsesDefaults(t *testing.T) {
	t.Setenv("SOURCES_FILE", filepath.Join(t.TempDir(), "missing.yaml"))

	cfg := Load()

	assert.Equal(t, DefaultSource().BaseURL, cfg.Source.BaseURL)
}
