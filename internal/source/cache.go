package source

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	// DefaultTTL is how long a cached artifact is considered fresh
	DefaultTTL = 7 * 24 * time.Hour // 7 days

	artifactFile = "search_index.js"
	metaFile     = "cache.meta"
)

// Meta describes the cached artifact
type Meta struct {
	LastUpdate time.Time
	Source     string
}

// Cache stores the last fetched artifact under <data>/docs
type Cache struct {
	dir string
}

func NewCache(dataDir string) *Cache {
	return &Cache{dir: filepath.Join(dataDir, "docs")}
}

// ArtifactPath is where the cached search_index.js lives
func (c *Cache) ArtifactPath() string {
	return filepath.Join(c.dir, artifactFile)
}

// Read returns the cached artifact. A missing cache yields an error
// matching os.ErrNotExist.
func (c *Cache) Read() ([]byte, error) {
	return os.ReadFile(c.ArtifactPath())
}

// Write replaces the cached artifact and records where it came from
func (c *Cache) Write(data []byte, source string) error {
	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return fmt.Errorf("failed to create docs directory: %w", err)
	}

	tmp := c.ArtifactPath() + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := os.Rename(tmp, c.ArtifactPath()); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace cached artifact: %w", err)
	}

	var meta bytes.Buffer
	fmt.Fprintf(&meta, "last_update: %s\n", time.Now().UTC().Format(time.RFC3339))
	fmt.Fprintf(&meta, "source: %s\n", source)
	if err := os.WriteFile(filepath.Join(c.dir, metaFile), meta.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write meta file: %w", err)
	}
	return nil
}

// Meta reads cache.meta. LastUpdate falls back to the file's mtime when the
// timestamp line is missing or unparsable.
func (c *Cache) Meta() (Meta, error) {
	path := filepath.Join(c.dir, metaFile)
	info, err := os.Stat(path)
	if err != nil {
		return Meta{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Meta{}, err
	}

	meta := Meta{LastUpdate: info.ModTime()}
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		key, value, ok := strings.Cut(scanner.Text(), ":")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		switch strings.TrimSpace(key) {
		case "last_update":
			if ts, err := time.Parse(time.RFC3339, value); err == nil {
				meta.LastUpdate = ts
			}
		case "source":
			meta.Source = value
		}
	}
	return meta, nil
}

// NeedsRefresh reports whether the cache is missing, older than ttl, or was
// fetched from a different source than the one configured now.
func (c *Cache) NeedsRefresh(ttl time.Duration, source string) bool {
	if _, err := os.Stat(c.ArtifactPath()); err != nil {
		return true
	}
	meta, err := c.Meta()
	if err != nil {
		return true // No cache, needs refresh
	}
	if source != "" && meta.Source != source {
		return true
	}
	return time.Since(meta.LastUpdate) > ttl
}
