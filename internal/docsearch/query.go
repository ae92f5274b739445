package docsearch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/docsearch/documenter-mcp/internal/config"
	"github.com/docsearch/documenter-mcp/internal/searchindex"
)

// Mode selects how a query is matched
type Mode string

const (
	// ModeSubstring matches the query as a case-insensitive substring of
	// title or text
	ModeSubstring Mode = "substring"

	// ModeKeyword matches analyzed terms of the query through the keyword index
	ModeKeyword Mode = "keyword"
)

// ParseMode maps a user-supplied mode onto a Mode. Empty means substring.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeSubstring:
		return ModeSubstring, nil
	case ModeKeyword:
		return ModeKeyword, nil
	default:
		return "", fmt.Errorf("unknown search mode %q (expected %q or %q)", s, ModeSubstring, ModeKeyword)
	}
}

// Hit is a matched record prepared for display
type Hit struct {
	searchindex.Record `yaml:",inline"`

	Snippet string `json:"snippet" yaml:"snippet"`
	URL     string `json:"url,omitempty" yaml:"url,omitempty"`
}

// Results of a single lookup. Total counts every match, Hits holds at most
// the requested limit.
type Results struct {
	Query string `json:"query" yaml:"query"`
	Mode  Mode   `json:"mode" yaml:"mode"`
	Hits  []Hit  `json:"results" yaml:"results"`
	Total int    `json:"total_hits" yaml:"total_hits"`
}

// Lookup runs query in the given mode and returns up to limit hits in
// source order. limit is clamped the same way for every caller.
func (s *Service) Lookup(ctx context.Context, mode Mode, query string, limit int) (*Results, error) {
	switch mode {
	case ModeSubstring, "":
		return s.Search(ctx, query, limit)
	case ModeKeyword:
		return s.Keyword(ctx, query, limit)
	default:
		return nil, fmt.Errorf("unknown search mode %q", mode)
	}
}

// Search returns records whose title or text contains query, ignoring case
func (s *Service) Search(ctx context.Context, query string, limit int) (*Results, error) {
	snap, release, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	limit = config.ClampLimit(limit, s.cfg.MaxResults)
	results := &Results{Query: query, Mode: ModeSubstring, Hits: []Hit{}}

	// Keep counting past the limit so Total reports every match
	for r := range snap.records.Search(query) {
		if len(results.Hits) < limit {
			results.Hits = append(results.Hits, s.hit(r, query))
		}
		results.Total++
	}
	return results, nil
}

// Keyword returns records matching any analyzed term of query
func (s *Service) Keyword(ctx context.Context, query string, limit int) (*Results, error) {
	snap, release, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	limit = config.ClampLimit(limit, s.cfg.MaxResults)
	records, total, err := snap.keywords.Lookup(query, limit)
	if err != nil {
		return nil, err
	}

	results := &Results{Query: query, Mode: ModeKeyword, Hits: make([]Hit, 0, len(records)), Total: total}
	for _, r := range records {
		results.Hits = append(results.Hits, s.hit(r, query))
	}
	return results, nil
}

func (s *Service) hit(r searchindex.Record, query string) Hit {
	return Hit{
		Record:  r,
		Snippet: searchindex.Snippet(r.Text, query, searchindex.DefaultSnippetWidth),
		URL:     searchindex.PageURL(s.cfg.BaseURL, r.Location),
	}
}

// ByLocation returns the record at location, or an error wrapping
// searchindex.ErrNotFound.
func (s *Service) ByLocation(ctx context.Context, location string) (searchindex.Record, error) {
	snap, release, err := s.acquire(ctx)
	if err != nil {
		return searchindex.Record{}, err
	}
	defer release()

	return snap.records.ByLocation(location)
}

// Fragments returns every record at location as display hits
func (s *Service) Fragments(ctx context.Context, location string) ([]Hit, error) {
	snap, release, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	records, err := snap.records.Fragments(location)
	if err != nil {
		return nil, err
	}
	hits := make([]Hit, len(records))
	for i, r := range records {
		hits[i] = Hit{
			Record:  r,
			Snippet: searchindex.Snippet(r.Text, "", searchindex.DefaultSnippetWidth),
			URL:     searchindex.PageURL(s.cfg.BaseURL, r.Location),
		}
	}
	return hits, nil
}

// Pages lists the documentation pages in order of first appearance
func (s *Service) Pages(ctx context.Context) ([]searchindex.Page, error) {
	snap, release, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	return snap.records.Pages(), nil
}

// Stats describes the loaded index
type Stats struct {
	Records     int       `json:"records" yaml:"records"`
	Pages       int       `json:"pages" yaml:"pages"`
	KeywordDocs uint64    `json:"keyword_docs" yaml:"keyword_docs"`
	Fingerprint string    `json:"fingerprint" yaml:"fingerprint"`
	Source      string    `json:"source,omitempty" yaml:"source,omitempty"`
	LastUpdate  time.Time `json:"last_update,omitzero" yaml:"last_update,omitempty"`
}

func (s *Service) Stats(ctx context.Context) (Stats, error) {
	snap, release, err := s.acquire(ctx)
	if err != nil {
		return Stats{}, err
	}
	defer release()

	stats := Stats{
		Records:     snap.records.Len(),
		Pages:       len(snap.records.Pages()),
		Fingerprint: snap.records.Fingerprint(),
	}
	if docs, err := snap.keywords.DocCount(); err == nil {
		stats.KeywordDocs = docs
	}
	if meta, err := s.cache.Meta(); err == nil {
		stats.Source = meta.Source
		stats.LastUpdate = meta.LastUpdate
	}
	return stats, nil
}
