package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, Validate(cfg))

	assert.Equal(t, "https://www.aldiwan.net/", cfg.Site.BaseURL)
	assert.Equal(t, 15*time.Second, cfg.Fetcher.RequestTimeout)
	assert.Equal(t, time.Second, cfg.Crawl.PoemDelay)
	assert.Equal(t, time.Second, cfg.Crawl.PoetDelay)
	assert.Equal(t, "raw_data/al_diwan", cfg.Crawl.OutputDir)
	assert.Len(t, cfg.Prepare.ValidMeters, 16)
	assert.Equal(t, uint64(42), cfg.Prepare.Seed)
	assert.NotEqual(t, cfg.Prepare.InputPath, cfg.Export.OutputPath)
}

func TestDefaultConfigMetersAreCopied(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Prepare.ValidMeters[0] = "changed"
	assert.Equal(t, "الطويل", DefaultMeters[0])
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "diwancrawl.yaml")
	content := `
site:
  base_url: "http://localhost:8080/"
crawl:
  output_dir: "/tmp/out"
  poem_delay: 0s
  eras:
    - "العصر الجاهلي"
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8080/", cfg.Site.BaseURL)
	assert.Equal(t, "/tmp/out", cfg.Crawl.OutputDir)
	assert.Equal(t, time.Duration(0), cfg.Crawl.PoemDelay)
	assert.Equal(t, time.Second, cfg.Crawl.PoetDelay, "unset keys keep defaults")
	assert.Equal(t, []string{"العصر الجاهلي"}, cfg.Crawl.Eras)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, cfg.Site.UserAgent, DefaultConfig().Site.UserAgent)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("DIWANCRAWL_CRAWL_OUTPUT_DIR", "/env/out")
	t.Setenv("DIWANCRAWL_FETCHER_REQUEST_TIMEOUT", "3s")

	path := filepath.Join(t.TempDir(), "empty.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: info\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/env/out", cfg.Crawl.OutputDir)
	assert.Equal(t, 3*time.Second, cfg.Fetcher.RequestTimeout)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad base url", func(c *Config) { c.Site.BaseURL = "ftp://example.com" }},
		{"no host", func(c *Config) { c.Site.BaseURL = "https://" }},
		{"empty user agent", func(c *Config) { c.Site.UserAgent = "" }},
		{"zero timeout", func(c *Config) { c.Fetcher.RequestTimeout = 0 }},
		{"negative poem delay", func(c *Config) { c.Crawl.PoemDelay = -time.Second }},
		{"empty output", func(c *Config) { c.Crawl.OutputDir = "" }},
		{"mongo without uri", func(c *Config) {
			c.Storage.Mongo.Enabled = true
			c.Storage.Mongo.URI = ""
		}},
		{"ratio too large", func(c *Config) { c.Prepare.ValidationRatio = 1 }},
		{"no meters", func(c *Config) { c.Prepare.ValidMeters = nil }},
		{"empty export output", func(c *Config) { c.Export.OutputPath = "" }},
		{"export over verse table", func(c *Config) { c.Export.OutputPath = "./" + c.Prepare.InputPath }},
		{"bad log level", func(c *Config) { c.Logging.Level = "trace" }},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }},
		{"bad metrics port", func(c *Config) {
			c.Metrics.Enabled = true
			c.Metrics.Port = 0
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, Validate(cfg))
		})
	}
}
