package config

import (
	"fmt"
	"net/url"
	"path/filepath"
)

// Validate checks the configuration for invalid values.
func Validate(cfg *Config) error {
	if err := ValidateURL(cfg.Site.BaseURL); err != nil {
		return fmt.Errorf("site.base_url: %w", err)
	}
	if cfg.Site.UserAgent == "" {
		return fmt.Errorf("site.user_agent must not be empty")
	}

	if cfg.Fetcher.RequestTimeout <= 0 {
		return fmt.Errorf("fetcher.request_timeout must be > 0")
	}
	if cfg.Fetcher.MaxBodySize <= 0 {
		return fmt.Errorf("fetcher.max_body_size must be > 0")
	}
	if cfg.Fetcher.MaxRedirects < 0 {
		return fmt.Errorf("fetcher.max_redirects must be >= 0")
	}

	if cfg.Crawl.OutputDir == "" {
		return fmt.Errorf("crawl.output_dir must not be empty")
	}
	if cfg.Crawl.PoemDelay < 0 {
		return fmt.Errorf("crawl.poem_delay must be >= 0")
	}
	if cfg.Crawl.PoetDelay < 0 {
		return fmt.Errorf("crawl.poet_delay must be >= 0")
	}

	if cfg.Storage.Mongo.Enabled {
		if cfg.Storage.Mongo.URI == "" {
			return fmt.Errorf("storage.mongo.uri is required when mongo is enabled")
		}
		if cfg.Storage.Mongo.Database == "" || cfg.Storage.Mongo.Collection == "" {
			return fmt.Errorf("storage.mongo.database and storage.mongo.collection are required")
		}
	}

	if cfg.Prepare.ValidationRatio < 0 || cfg.Prepare.ValidationRatio >= 1 {
		return fmt.Errorf("prepare.validation_ratio must be in [0, 1), got %v", cfg.Prepare.ValidationRatio)
	}
	if len(cfg.Prepare.ValidMeters) == 0 {
		return fmt.Errorf("prepare.valid_meters must list at least one meter")
	}

	if cfg.Export.OutputPath == "" {
		return fmt.Errorf("export.output_path must not be empty")
	}
	if filepath.Clean(cfg.Export.OutputPath) == filepath.Clean(cfg.Prepare.InputPath) {
		return fmt.Errorf("export.output_path must differ from prepare.input_path")
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level must be debug/info/warn/error, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" && cfg.Logging.Format != "json" {
		return fmt.Errorf("logging.format must be 'text' or 'json', got %q", cfg.Logging.Format)
	}

	if cfg.Metrics.Enabled {
		if cfg.Metrics.Port < 1 || cfg.Metrics.Port > 65535 {
			return fmt.Errorf("metrics.port must be 1-65535, got %d", cfg.Metrics.Port)
		}
	}

	return nil
}

// ValidateURL checks if a URL string is usable as a crawl root.
func ValidateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("URL must have a host")
	}
	return nil
}
