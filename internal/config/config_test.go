package config

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestLoad_Defaults(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set(KeyDataDir, t.TempDir())

	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if cfg.CacheTTL != 7*24*time.Hour {
		t.Errorf("CacheTTL = %v, want 7 days", cfg.CacheTTL)
	}
	if cfg.MaxResults != 10 {
		t.Errorf("MaxResults = %d, want 10", cfg.MaxResults)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want info", cfg.LogLevel)
	}
	if cfg.HTTPAddr != ":18080" {
		t.Errorf("HTTPAddr = %q", cfg.HTTPAddr)
	}
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("DOCSEARCH_SOURCE", "  https://example.org/dev/search_index.js ")
	t.Setenv("DOCSEARCH_MAX_RESULTS", "25")
	t.Setenv("DOCSEARCH_CACHE_TTL", "1h")
	t.Setenv("DOCSEARCH_DATA_DIR", "/tmp/documenter-mcp-test")

	v := viper.New()
	SetDefaults(v)

	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if cfg.Source != "https://example.org/dev/search_index.js" {
		t.Errorf("Source = %q", cfg.Source)
	}
	if cfg.MaxResults != 25 {
		t.Errorf("MaxResults = %d, want 25", cfg.MaxResults)
	}
	if cfg.CacheTTL != time.Hour {
		t.Errorf("CacheTTL = %v, want 1h", cfg.CacheTTL)
	}
	if cfg.DataDir != "/tmp/documenter-mcp-test" {
		t.Errorf("DataDir = %q", cfg.DataDir)
	}
}

func TestLoad_YAMLFile(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.SetConfigType("yaml")
	err := v.ReadConfig(strings.NewReader(`
source: s3://docs-previews/previews/PR52/search_index.js
base_url: https://example.org/previews/PR52/
max_results: 5
`))
	if err != nil {
		t.Fatalf("Failed to read config: %v", err)
	}

	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if cfg.Source != "s3://docs-previews/previews/PR52/search_index.js" {
		t.Errorf("Source = %q", cfg.Source)
	}
	if cfg.BaseURL != "https://example.org/previews/PR52/" {
		t.Errorf("BaseURL = %q", cfg.BaseURL)
	}
	if cfg.MaxResults != 5 {
		t.Errorf("MaxResults = %d", cfg.MaxResults)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value interface{}
	}{
		{"zero max results", KeyMaxResults, 0},
		{"max results over limit", KeyMaxResults, MaxResultsLimit + 1},
		{"negative ttl", KeyCacheTTL, "-1h"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := viper.New()
			SetDefaults(v)
			v.Set(tt.key, tt.value)
			if _, err := Load(v); err == nil {
				t.Error("Expected validation error")
			}
		})
	}
}

func TestLoad_DefaultDataDir(t *testing.T) {
	t.Setenv("HOME", "/home/tester")

	v := viper.New()
	SetDefaults(v)
	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if cfg.DataDir != filepath.Join("/home/tester", ".documenter-mcp") {
		t.Errorf("DataDir = %q", cfg.DataDir)
	}
}

func TestClampLimit(t *testing.T) {
	tests := []struct {
		requested, fallback, expected int
	}{
		{0, 10, 10},
		{-3, 10, 10},
		{5, 10, 5},
		{500, 10, MaxResultsLimit},
	}
	for _, tt := range tests {
		if got := ClampLimit(tt.requested, tt.fallback); got != tt.expected {
			t.Errorf("ClampLimit(%d, %d) = %d, want %d", tt.requested, tt.fallback, got, tt.expected)
		}
	}
}
