package config

import (
	"time"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Config is the root configuration for a lead-extraction run.
type Config struct {
	Crawl   CrawlConfig   `mapstructure:"crawl"   yaml:"crawl"`
	Fetcher FetcherConfig `mapstructure:"fetcher" yaml:"fetcher"`
	Store   StoreConfig   `mapstructure:"store"   yaml:"store"`
	Export  ExportConfig  `mapstructure:"export"  yaml:"export"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

// CrawlConfig controls what gets crawled and how politely.
type CrawlConfig struct {
	Site            string        `mapstructure:"site"             yaml:"site"`
	City            string        `mapstructure:"city"             yaml:"city"`
	State           string        `mapstructure:"state"            yaml:"state"`
	MaxPages        int           `mapstructure:"max_pages"        yaml:"max_pages"`
	PolitenessDelay time.Duration `mapstructure:"politeness_delay" yaml:"politeness_delay"`
	MaxRetries      int           `mapstructure:"max_retries"      yaml:"max_retries"`
	RetryDelay      time.Duration `mapstructure:"retry_delay"      yaml:"retry_delay"`
	TargetPhones    int           `mapstructure:"target_phones"    yaml:"target_phones"`
}

// FetcherConfig controls the page fetcher.
type FetcherConfig struct {
	Type            string        `mapstructure:"type"              yaml:"type"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"   yaml:"request_timeout"`
	FollowRedirects bool          `mapstructure:"follow_redirects"  yaml:"follow_redirects"`
	MaxRedirects    int           `mapstructure:"max_redirects"     yaml:"max_redirects"`
	MaxBodySize     int64         `mapstructure:"max_body_size"     yaml:"max_body_size"`
	TLSInsecure     bool          `mapstructure:"tls_insecure"      yaml:"tls_insecure"`
	IdleConnTimeout time.Duration `mapstructure:"idle_conn_timeout" yaml:"idle_conn_timeout"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"    yaml:"max_idle_conns"`
	UserAgents      []string      `mapstructure:"user_agents"       yaml:"user_agents"`
	Stealth         bool          `mapstructure:"stealth"           yaml:"stealth"`
	WaitStable      time.Duration `mapstructure:"wait_stable"       yaml:"wait_stable"`
}

// StoreConfig controls the lead database.
type StoreConfig struct {
	// Path is the SQLite file; {site} expands to the crawl site name so each
	// target keeps its own database.
	Path string `mapstructure:"path" yaml:"path"`
}

// ExportConfig controls CSV output.
type ExportConfig struct {
	// Path is the CSV file; {site} expands to the crawl site name.
	Path string `mapstructure:"path" yaml:"path"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
	Output string `mapstructure:"output" yaml:"output"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Crawl: CrawlConfig{
			Site:            "apartments",
			City:            "Atlanta",
			State:           "GA",
			MaxPages:        5,
			PolitenessDelay: 2 * time.Second,
			MaxRetries:      3,
			RetryDelay:      1 * time.Second,
			TargetPhones:    0, // 0 means no cap
		},
		Fetcher: FetcherConfig{
			Type:            "http",
			RequestTimeout:  30 * time.Second,
			FollowRedirects: true,
			MaxRedirects:    10,
			MaxBodySize:     10 * 1024 * 1024, // 10MB
			IdleConnTimeout: 90 * time.Second,
			MaxIdleConns:    100,
			UserAgents: []string{
				"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
				"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			},
			Stealth:    true,
			WaitStable: 300 * time.Millisecond,
		},
		Store: StoreConfig{
			Path: "./data/{site}.db",
		},
		Export: ExportConfig{
			Path: "./data/{site}_leads.csv",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
	}
}

// StorePath resolves the store path for the configured site.
func (c *Config) StorePath() string {
	return expandSite(c.Store.Path, c.Crawl.Site)
}

// ExportPath resolves the export path for the configured site.
func (c *Config) ExportPath() string {
	return expandSite(c.Export.Path, c.Crawl.Site)
}
