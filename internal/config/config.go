// Package config resolves runtime settings from flags, environment,
// an optional YAML file and .env.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	// EnvPrefix prefixes every environment variable, e.g. DOCSEARCH_SOURCE
	EnvPrefix = "DOCSEARCH"

	// MaxResultsLimit caps max_results and per-request limits
	MaxResultsLimit = 50

	userDataDirName = ".documenter-mcp"
)

// Keys understood by Load
const (
	KeySource     = "source"
	KeyDataDir    = "data_dir"
	KeyCacheTTL   = "cache_ttl"
	KeyMaxResults = "max_results"
	KeyBaseURL    = "base_url"
	KeyLogLevel   = "log_level"
	KeyHTTPAddr   = "http_addr"
)

type Config struct {
	// Source is a path, http(s) URL or s3://bucket/key of search_index.js
	Source string

	// DataDir holds the cached artifact, the keyword index and the lock file
	DataDir string

	CacheTTL   time.Duration
	MaxResults int

	// BaseURL, when set, turns locations into absolute links
	BaseURL string

	LogLevel string
	HTTPAddr string
}

// SetDefaults registers default values and environment binding on v
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyCacheTTL, 7*24*time.Hour)
	v.SetDefault(KeyMaxResults, 10)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyHTTPAddr, ":18080")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
}

// Load reads settings from v and validates them. The data directory is
// resolved but not created.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Source:     strings.TrimSpace(v.GetString(KeySource)),
		DataDir:    v.GetString(KeyDataDir),
		CacheTTL:   v.GetDuration(KeyCacheTTL),
		MaxResults: v.GetInt(KeyMaxResults),
		BaseURL:    v.GetString(KeyBaseURL),
		LogLevel:   v.GetString(KeyLogLevel),
		HTTPAddr:   v.GetString(KeyHTTPAddr),
	}

	if cfg.CacheTTL <= 0 {
		return nil, fmt.Errorf("cache_ttl must be positive, got %s", cfg.CacheTTL)
	}
	if cfg.MaxResults <= 0 || cfg.MaxResults > MaxResultsLimit {
		return nil, fmt.Errorf("max_results must be between 1 and %d, got %d", MaxResultsLimit, cfg.MaxResults)
	}

	if cfg.DataDir == "" {
		cfg.DataDir = DefaultDataDir()
	}
	return cfg, nil
}

// DefaultDataDir picks ~/.documenter-mcp when the home directory is known,
// and ./data otherwise.
func DefaultDataDir() string {
	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(homeDir, userDataDirName)
	}
	return filepath.Join(".", "data")
}

// ClampLimit maps a requested result count onto [1, MaxResultsLimit],
// using fallback for zero or negative requests.
func ClampLimit(requested, fallback int) int {
	if requested <= 0 {
		return fallback
	}
	return min(requested, MaxResultsLimit)
}
