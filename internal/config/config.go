package config

import (
	"time"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Config is the root configuration for diwancrawl.
type Config struct {
	Site    SiteConfig    `mapstructure:"site"    yaml:"site"`
	Fetcher FetcherConfig `mapstructure:"fetcher" yaml:"fetcher"`
	Crawl   CrawlConfig   `mapstructure:"crawl"   yaml:"crawl"`
	Storage StorageConfig `mapstructure:"storage" yaml:"storage"`
	Prepare PrepareConfig `mapstructure:"prepare" yaml:"prepare"`
	Export  ExportConfig  `mapstructure:"export"  yaml:"export"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
}

// SiteConfig identifies the target site and how we present ourselves to it.
type SiteConfig struct {
	BaseURL   string `mapstructure:"base_url"   yaml:"base_url"`
	UserAgent string `mapstructure:"user_agent" yaml:"user_agent"`
}

// FetcherConfig controls the document fetcher.
type FetcherConfig struct {
	RequestTimeout  time.Duration `mapstructure:"request_timeout"  yaml:"request_timeout"`
	MaxBodySize     int64         `mapstructure:"max_body_size"    yaml:"max_body_size"`
	FollowRedirects bool          `mapstructure:"follow_redirects" yaml:"follow_redirects"`
	MaxRedirects    int           `mapstructure:"max_redirects"    yaml:"max_redirects"`
}

// CrawlConfig controls traversal, throttling and where poem files land.
type CrawlConfig struct {
	OutputDir string        `mapstructure:"output_dir" yaml:"output_dir"`
	PoemDelay time.Duration `mapstructure:"poem_delay" yaml:"poem_delay"`
	PoetDelay time.Duration `mapstructure:"poet_delay" yaml:"poet_delay"`
	// Eras restricts the crawl to these era names. Empty means all eras.
	Eras []string `mapstructure:"eras" yaml:"eras"`
}

// StorageConfig controls secondary poem sinks.
type StorageConfig struct {
	Mongo MongoConfig `mapstructure:"mongo" yaml:"mongo"`
}

// MongoConfig controls the optional MongoDB mirror.
type MongoConfig struct {
	Enabled    bool   `mapstructure:"enabled"    yaml:"enabled"`
	URI        string `mapstructure:"uri"        yaml:"uri"`
	Database   string `mapstructure:"database"   yaml:"database"`
	Collection string `mapstructure:"collection" yaml:"collection"`
}

// PrepareConfig controls the training corpus build.
type PrepareConfig struct {
	InputPath       string   `mapstructure:"input_path"       yaml:"input_path"`
	OutputDir       string   `mapstructure:"output_dir"       yaml:"output_dir"`
	ValidationRatio float64  `mapstructure:"validation_ratio" yaml:"validation_ratio"`
	Seed            uint64   `mapstructure:"seed"             yaml:"seed"`
	ValidMeters     []string `mapstructure:"valid_meters"     yaml:"valid_meters"`
}

// ExportConfig controls the crawl tree to verse table export.
type ExportConfig struct {
	OutputPath string `mapstructure:"output_path" yaml:"output_path"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
	Output string `mapstructure:"output" yaml:"output"`
}

// MetricsConfig controls the Prometheus text endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Port    int    `mapstructure:"port"    yaml:"port"`
	Path    string `mapstructure:"path"    yaml:"path"`
}

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/114.0.0.0 Safari/537.36"

// DefaultMeters is the set of classical Arabic meters accepted by prepare.
var DefaultMeters = []string{
	"الطويل", "الكامل", "البسيط", "الخفيف",
	"الوافر", "الرجز", "الرمل", "المتقارب",
	"السريع", "المنسرح", "المجتث", "المديد",
	"الهزج", "المتدارك", "المقتضب", "المضارع",
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Site: SiteConfig{
			BaseURL:   "https://www.aldiwan.net/",
			UserAgent: defaultUserAgent,
		},
		Fetcher: FetcherConfig{
			RequestTimeout:  15 * time.Second,
			MaxBodySize:     10 * 1024 * 1024, // 10MB
			FollowRedirects: true,
			MaxRedirects:    10,
		},
		Crawl: CrawlConfig{
			OutputDir: "raw_data/al_diwan",
			PoemDelay: 1 * time.Second,
			PoetDelay: 1 * time.Second,
		},
		Storage: StorageConfig{
			Mongo: MongoConfig{
				Enabled:    false,
				URI:        "mongodb://localhost:27017",
				Database:   "diwan",
				Collection: "poems",
			},
		},
		Prepare: PrepareConfig{
			InputPath:       "data/raw/APCD.csv",
			OutputDir:       "data/processed",
			ValidationRatio: 0.025,
			Seed:            42,
			ValidMeters:     append([]string(nil), DefaultMeters...),
		},
		Export: ExportConfig{
			OutputPath: "data/raw/aldiwan.csv",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Port:    9090,
			Path:    "/metrics",
		},
	}
}
