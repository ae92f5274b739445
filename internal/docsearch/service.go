// Package docsearch owns the live search index of a documentation site:
// it loads the cached artifact, keeps a keyword index next to it, and
// swaps both atomically when the documentation is refreshed.
package docsearch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/docsearch/documenter-mcp/internal/config"
	"github.com/docsearch/documenter-mcp/internal/keyword"
	"github.com/docsearch/documenter-mcp/internal/searchindex"
	"github.com/docsearch/documenter-mcp/internal/source"
	"github.com/rs/zerolog"
)

const (
	lockFile         = "search/index.lock"
	indexDirPrefix   = "index-"
	indexVersionFile = "search/.index_version"
)

var (
	// ErrClosed is returned by every operation after Close
	ErrClosed = errors.New("documentation search is closed")

	// ErrNoSource is returned when there is neither a cached artifact nor a
	// configured source to fetch one from.
	ErrNoSource = errors.New("no search index source configured")
)

// snapshot pairs a loaded record set with the keyword index built from it.
// Readers hold mu.RLock for the duration of a query; retire takes the write
// lock, so the keyword index is closed only after in-flight queries finish.
type snapshot struct {
	records  *searchindex.Index
	keywords *keyword.Searcher
	indexDir string

	mu      sync.RWMutex
	retired bool
}

func (s *snapshot) retire() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.retired {
		return nil
	}
	s.retired = true
	return s.keywords.Close()
}

// Service answers documentation lookups. It is safe for concurrent use.
type Service struct {
	cfg     *config.Config
	fetcher *source.Fetcher
	cache   *source.Cache
	lock    *fileLock
	logger  *zerolog.Logger

	// current holds the active snapshot (atomic access for lock-free reads)
	current atomic.Pointer[snapshot]

	// refreshMu serializes Initialize, Refresh and Close; searches never take it
	refreshMu sync.Mutex

	// retiring tracks background closes of replaced snapshots
	retiring sync.WaitGroup

	closed atomic.Bool
}

func New(cfg *config.Config, fetcher *source.Fetcher, logger *zerolog.Logger) *Service {
	return &Service{
		cfg:     cfg,
		fetcher: fetcher,
		cache:   source.NewCache(cfg.DataDir),
		lock:    newFileLock(filepath.Join(cfg.DataDir, lockFile), logger),
		logger:  logger,
	}
}

// Initialize loads the documentation index. The cached artifact is used when
// present and fetched from the configured source otherwise. Calling it on an
// initialized service is a no-op.
func (s *Service) Initialize(ctx context.Context) error {
	if s.closed.Load() {
		return ErrClosed
	}

	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	if s.current.Load() != nil {
		return nil
	}

	startTime := time.Now()
	s.logger.Info().Str("data_dir", s.cfg.DataDir).Msg("Initializing documentation search...")

	if err := os.MkdirAll(filepath.Join(s.cfg.DataDir, "search"), 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	lockStart := time.Now()
	if err := s.lock.acquire(); err != nil {
		return fmt.Errorf("failed to acquire index lock: %w", err)
	}
	s.logger.Debug().Dur("elapsed", time.Since(lockStart)).Msg("Lock acquired")

	snap, err := s.loadSnapshot(ctx)
	if err != nil {
		// Nothing is served, so let other processes use the data directory
		if releaseErr := s.lock.release(); releaseErr != nil {
			s.logger.Warn().Err(releaseErr).Msg("Warning: Failed to release index lock")
		}
		return err
	}
	records := snap.records
	s.current.Store(snap)
	s.pruneIndexes(snap.indexDir)

	s.logger.Info().
		Int("records", records.Len()).
		Int("pages", len(records.Pages())).
		Dur("elapsed", time.Since(startTime).Round(time.Millisecond)).
		Msg("✓ Documentation search initialized")

	if s.cache.NeedsRefresh(s.cfg.CacheTTL, "") {
		s.logger.Info().Msg("ℹ️  Cached documentation is older than the cache TTL. Consider refreshing it.")
	}
	return nil
}

func (s *Service) loadSnapshot(ctx context.Context) (*snapshot, error) {
	records, err := s.loadRecords(ctx)
	if err != nil {
		return nil, err
	}
	return s.openSnapshot(records)
}

// loadRecords returns the cached artifact when it came from the configured
// source, and fetches otherwise. A fetched artifact is cached only once it
// has loaded cleanly.
func (s *Service) loadRecords(ctx context.Context) (*searchindex.Index, error) {
	cached, cacheErr := s.cache.Read()
	if cacheErr == nil {
		meta, _ := s.cache.Meta()
		if s.cfg.Source == "" || meta.Source == s.cfg.Source {
			records, err := searchindex.Load(cached)
			if err == nil {
				return records, nil
			}
			s.logger.Warn().Err(err).Msg("Warning: Cached search index is malformed, fetching again...")
		} else {
			s.logger.Info().Str("cached", meta.Source).Str("configured", s.cfg.Source).Msg("Configured source changed, fetching...")
		}
	} else if !errors.Is(cacheErr, os.ErrNotExist) {
		s.logger.Warn().Err(cacheErr).Msg("Warning: Could not read cached search index")
	}

	if s.cfg.Source == "" {
		return nil, ErrNoSource
	}

	records, err := s.fetchRecords(ctx)
	if err != nil {
		if cacheErr == nil {
			if fallback, loadErr := searchindex.Load(cached); loadErr == nil {
				s.logger.Warn().Err(err).Msg("Warning: Fetch failed, using cached search index")
				return fallback, nil
			}
		}
		return nil, err
	}
	return records, nil
}

// fetchRecords downloads and parses the configured source, then caches it
func (s *Service) fetchRecords(ctx context.Context) (*searchindex.Index, error) {
	fetchStart := time.Now()
	raw, err := s.fetcher.Fetch(ctx, s.cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", s.cfg.Source, err)
	}

	records, err := searchindex.Load(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", s.cfg.Source, err)
	}

	if err := s.cache.Write(raw, s.cfg.Source); err != nil {
		s.logger.Warn().Err(err).Msg("Warning: Failed to cache search index")
	}

	s.logger.Info().
		Str("source", s.cfg.Source).
		Int("bytes", len(raw)).
		Dur("elapsed", time.Since(fetchStart).Round(time.Millisecond)).
		Msg("Search index fetched")
	return records, nil
}

// openSnapshot opens the persisted keyword index for records, rebuilding it
// when the schema version or content fingerprint does not match.
func (s *Service) openSnapshot(records *searchindex.Index) (*snapshot, error) {
	persisted, ok := s.readIndexVersion()
	switch {
	case ok && persisted.Version == searchindex.IndexSchemaVersion && persisted.Fingerprint == records.Fingerprint():
		dir := filepath.Join(s.cfg.DataDir, "search", persisted.Dir)
		index, err := keyword.Open(dir)
		if err == nil {
			s.logger.Debug().Str("dir", dir).Msg("Opened persisted keyword index")
			return &snapshot{records: records, keywords: keyword.NewSearcher(index, records), indexDir: dir}, nil
		}
		s.logger.Warn().Err(err).Msg("Warning: Keyword index corrupted, rebuilding...")
	case ok:
		s.logger.Info().
			Int("have", persisted.Version).
			Int("want", searchindex.IndexSchemaVersion).
			Msg("Keyword index is stale, rebuilding...")
	}

	return s.buildSnapshot(records)
}

func (s *Service) buildSnapshot(records *searchindex.Index) (*snapshot, error) {
	version := indexVersion{
		Version:     searchindex.IndexSchemaVersion,
		Fingerprint: records.Fingerprint(),
		Dir:         generationDir(records),
	}
	dir := filepath.Join(s.cfg.DataDir, "search", version.Dir)

	buildStart := time.Now()
	index, err := keyword.Rebuild(dir, records)
	if err != nil {
		return nil, fmt.Errorf("failed to build keyword index: %w", err)
	}
	s.logger.Info().
		Int("records", records.Len()).
		Dur("elapsed", time.Since(buildStart).Round(time.Millisecond)).
		Msg("Keyword index built")

	if err := s.writeIndexVersion(version); err != nil {
		s.logger.Warn().Err(err).Msg("Warning: Failed to write index version")
	}

	return &snapshot{records: records, keywords: keyword.NewSearcher(index, records), indexDir: dir}, nil
}

// generationDir names a fresh keyword index directory. Every build gets its
// own directory, so retiring an old snapshot never touches a live one.
func generationDir(records *searchindex.Index) string {
	return fmt.Sprintf("%s%s-%s", indexDirPrefix, records.Fingerprint()[:12], strconv.FormatInt(time.Now().UnixNano(), 36))
}

// pruneIndexes removes keyword index directories other than keep
func (s *Service) pruneIndexes(keep string) {
	matches, err := filepath.Glob(filepath.Join(s.cfg.DataDir, "search", indexDirPrefix+"*"))
	if err != nil {
		return
	}
	for _, dir := range matches {
		if dir == keep {
			continue
		}
		if err := os.RemoveAll(dir); err != nil {
			s.logger.Warn().Err(err).Str("dir", dir).Msg("Warning: Failed to remove old keyword index")
		}
	}
}

// indexVersion is the content of the version file: the schema version,
// the fingerprint of the records indexed and the index directory name.
type indexVersion struct {
	Version     int
	Fingerprint string
	Dir         string
}

// readIndexVersion returns the persisted index version, or false when
// there is none or it cannot be parsed.
func (s *Service) readIndexVersion() (indexVersion, bool) {
	data, err := os.ReadFile(filepath.Join(s.cfg.DataDir, indexVersionFile))
	if err != nil {
		return indexVersion{}, false // No version file = nothing persisted
	}

	fields := strings.Fields(string(data))
	if len(fields) != 3 {
		return indexVersion{}, false
	}
	version, err := strconv.Atoi(fields[0])
	if err != nil {
		return indexVersion{}, false
	}
	return indexVersion{Version: version, Fingerprint: fields[1], Dir: fields[2]}, true
}

func (s *Service) writeIndexVersion(v indexVersion) error {
	path := filepath.Join(s.cfg.DataDir, indexVersionFile)
	content := fmt.Sprintf("%d\n%s\n%s\n", v.Version, v.Fingerprint, v.Dir)
	return os.WriteFile(path, []byte(content), 0644)
}

// RefreshResult reports what a refresh did
type RefreshResult struct {
	Updated        bool      `json:"updated" yaml:"updated"`
	Changed        bool      `json:"changed" yaml:"changed"`
	LastUpdate     time.Time `json:"last_update" yaml:"last_update"`
	RecordsIndexed int       `json:"records_indexed" yaml:"records_indexed"`
	Message        string    `json:"message" yaml:"message"`
}

// Refresh re-fetches the configured source when the cache has expired, or
// unconditionally when force is set. Searches keep running against the old
// index until the new one is swapped in.
func (s *Service) Refresh(ctx context.Context, force bool) (RefreshResult, error) {
	if s.closed.Load() {
		return RefreshResult{}, ErrClosed
	}

	if !force && !s.cache.NeedsRefresh(s.cfg.CacheTTL, s.cfg.Source) {
		return s.freshResult(), nil
	}

	// Serialize refresh operations (prevent concurrent refreshes)
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	// Re-check after acquiring lock, another goroutine may have refreshed
	if !force && !s.cache.NeedsRefresh(s.cfg.CacheTTL, s.cfg.Source) {
		s.logger.Debug().Msg("Documentation was refreshed by another goroutine, skipping")
		return s.freshResult(), nil
	}
	if s.closed.Load() {
		return RefreshResult{}, ErrClosed
	}
	if s.cfg.Source == "" {
		return RefreshResult{}, ErrNoSource
	}

	startTime := time.Now()
	s.logger.Info().Bool("force", force).Msg("Starting documentation refresh...")

	if err := os.MkdirAll(filepath.Join(s.cfg.DataDir, "search"), 0755); err != nil {
		return RefreshResult{}, fmt.Errorf("failed to create data directory: %w", err)
	}
	if err := s.lock.acquire(); err != nil {
		return RefreshResult{}, fmt.Errorf("failed to acquire lock for refresh: %w", err)
	}

	records, err := s.fetchRecords(ctx)
	if err != nil {
		return RefreshResult{}, err
	}

	result := RefreshResult{
		Updated:        true,
		LastUpdate:     time.Now(),
		RecordsIndexed: records.Len(),
	}

	current := s.current.Load()
	if current != nil && current.records.Fingerprint() == records.Fingerprint() {
		result.Message = fmt.Sprintf("Documentation unchanged, %d records indexed", records.Len())
		s.logger.Info().Msg("✓ Documentation refresh completed, content unchanged")
		return result, nil
	}

	snap, err := s.buildSnapshot(records)
	if err != nil {
		return RefreshResult{}, err
	}

	old := s.current.Swap(snap)
	if old != nil {
		s.retiring.Add(1)
		go func() {
			defer s.retiring.Done()
			s.retireSnapshot(old)
		}()
	}

	result.Changed = true
	result.Message = fmt.Sprintf("Documentation refreshed successfully, %d records indexed", records.Len())
	s.logger.Info().
		Int("records", records.Len()).
		Dur("elapsed", time.Since(startTime).Round(time.Millisecond)).
		Msg("✓ Documentation refresh completed")
	return result, nil
}

// retireSnapshot waits for in-flight searches on old, closes it and
// removes its directory.
func (s *Service) retireSnapshot(old *snapshot) {
	waitStart := time.Now()
	if err := old.retire(); err != nil {
		s.logger.Warn().Err(err).Msg("Warning: Error closing old keyword index")
		return
	}
	s.logger.Debug().Dur("waited", time.Since(waitStart).Round(time.Millisecond)).Msg("✓ Old keyword index closed")

	if err := os.RemoveAll(old.indexDir); err != nil {
		s.logger.Warn().Err(err).Msg("Warning: Failed to remove old keyword index")
	}
}

func (s *Service) freshResult() RefreshResult {
	result := RefreshResult{}
	if meta, err := s.cache.Meta(); err == nil {
		result.LastUpdate = meta.LastUpdate
		result.Message = fmt.Sprintf("Cache is fresh (last updated: %s)", meta.LastUpdate.Format(time.RFC3339))
	}
	if snap := s.current.Load(); snap != nil {
		result.RecordsIndexed = snap.records.Len()
	}
	return result
}

// Close releases the index and the data-directory lock. In-flight searches
// finish first.
func (s *Service) Close() error {
	s.closed.Store(true)

	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	var closeErr error
	if snap := s.current.Swap(nil); snap != nil {
		s.logger.Debug().Msg("Waiting for in-flight searches to complete before closing...")
		if closeErr = snap.retire(); closeErr != nil {
			s.logger.Error().Err(closeErr).Msg("Error closing keyword index")
		}
	}
	s.retiring.Wait()

	// Always attempt to release inter-process lock, even if close failed
	if err := s.lock.release(); err != nil {
		s.logger.Error().Err(err).Msg("Error releasing lock")
		if closeErr == nil {
			closeErr = err
		}
	}
	return closeErr
}

// acquire returns the current snapshot read-locked, initializing the
// service on first use. The caller must call release.
func (s *Service) acquire(ctx context.Context) (snap *snapshot, release func(), err error) {
	for {
		if s.closed.Load() {
			return nil, nil, ErrClosed
		}

		snap = s.current.Load()
		if snap == nil {
			s.logger.Info().Msg("Documentation index not initialized, initializing now...")
			if err := s.Initialize(ctx); err != nil {
				return nil, nil, fmt.Errorf("failed to initialize documentation index: %w", err)
			}
			continue
		}

		snap.mu.RLock()
		if !snap.retired {
			return snap, snap.mu.RUnlock, nil
		}
		// Swapped out between Load and RLock, pick up the replacement
		snap.mu.RUnlock()
	}
}
