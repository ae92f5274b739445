// Command indexer prepares a documenter-mcp data directory offline: it
// fetches and validates a search index, caches it and builds the
// persistent keyword index next to it.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/docsearch/documenter-mcp/internal/config"
	"github.com/docsearch/documenter-mcp/internal/docsearch"
	"github.com/docsearch/documenter-mcp/internal/logging"
	"github.com/docsearch/documenter-mcp/internal/searchindex"
	"github.com/docsearch/documenter-mcp/internal/source"
)

func main() {
	if len(os.Args) != 3 {
		fmt.Fprintf(os.Stderr, "Usage: %s <search_index.js> <data-dir>\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nThe source may be a path, an http(s):// URL or s3://bucket/key.\n")
		fmt.Fprintf(os.Stderr, "\nExample:\n")
		fmt.Fprintf(os.Stderr, "  %s build/search_index.js ~/.documenter-mcp\n", os.Args[0])
		os.Exit(1)
	}

	logger := logging.New("info", os.Stderr, true)

	cfg := &config.Config{
		Source:     os.Args[1],
		DataDir:    os.Args[2],
		CacheTTL:   source.DefaultTTL,
		MaxResults: config.MaxResultsLimit,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info().Msgf("Documentation Indexer v%d", searchindex.IndexSchemaVersion)
	logger.Info().Msg("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")

	startTime := time.Now()
	service := docsearch.New(cfg, source.NewFetcher(&logger), &logger)

	if err := service.Initialize(ctx); err != nil {
		service.Close()
		logger.Fatal().Err(err).Msg("Failed to initialize data directory")
	}

	// Initialize may have reused a cached copy; always index the source as it is now
	result, err := service.Refresh(ctx, true)
	if err != nil {
		service.Close()
		logger.Fatal().Err(err).Msg("Failed to index source")
	}

	stats, err := service.Stats(ctx)
	if err != nil {
		service.Close()
		logger.Fatal().Err(err).Msg("Failed to read index statistics")
	}

	if err := service.Close(); err != nil {
		logger.Fatal().Err(err).Msg("Failed to close index")
	}

	logger.Info().Msg("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	logger.Info().Msg("✓ Indexing complete!")
	logger.Info().
		Str("data_dir", cfg.DataDir).
		Int("records", stats.Records).
		Int("pages", stats.Pages).
		Uint64("keyword_docs", stats.KeywordDocs).
		Bool("changed", result.Changed).
		Str("fingerprint", stats.Fingerprint).
		Int("schema", searchindex.IndexSchemaVersion).
		Dur("elapsed", time.Since(startTime).Round(time.Millisecond)).
		Msg("Index details")
}
