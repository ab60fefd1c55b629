package config

import (
	"testing"
	"time"
)

func TestDefaultConfigValidates(t *testing.T) {
	if err := Validate(DefaultConfig()); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown site", func(c *Config) { c.Crawl.Site = "craigslist" }},
		{"empty city", func(c *Config) { c.Crawl.City = "" }},
		{"zero max pages", func(c *Config) { c.Crawl.MaxPages = 0 }},
		{"negative target", func(c *Config) { c.Crawl.TargetPhones = -1 }},
		{"bad fetcher type", func(c *Config) { c.Fetcher.Type = "carrier-pigeon" }},
		{"zero timeout", func(c *Config) { c.Fetcher.RequestTimeout = 0 }},
		{"empty store path", func(c *Config) { c.Store.Path = "" }},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := Validate(cfg); err == nil {
				t.Error("expected a validation error")
			}
		})
	}
}

func TestSitePathExpansion(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Crawl.Site = "zillow"
	cfg.Store.Path = "./data/{site}.db"
	cfg.Export.Path = "./data/{site}_leads.csv"

	if got := cfg.StorePath(); got != "./data/zillow.db" {
		t.Errorf("StorePath = %q", got)
	}
	if got := cfg.ExportPath(); got != "./data/zillow_leads.csv" {
		t.Errorf("ExportPath = %q", got)
	}
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load without config file: %v", err)
	}
	if cfg.Crawl.MaxPages != 5 {
		t.Errorf("max_pages = %d, want default 5", cfg.Crawl.MaxPages)
	}
	if cfg.Fetcher.RequestTimeout != 30*time.Second {
		t.Errorf("request_timeout = %v, want 30s", cfg.Fetcher.RequestTimeout)
	}
}
