// Package keyword keeps a bleve index over the loaded search records so
// lookups can match analyzed terms instead of raw substrings. Matches are
// always reported in source order.
package keyword

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	regexpchar "github.com/blevesearch/bleve/v2/analysis/char/regexp"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/analysis/tokenizer/unicode"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/docsearch/documenter-mcp/internal/searchindex"
)

const (
	// batchSize is the number of documents submitted per bleve batch
	batchSize = 100

	// idWidth zero-pads document IDs so that sorting by _id is source order
	idWidth = 8

	dotsCharFilter = "dots_to_space"
	titleAnalyzer  = "qualified_title"
)

// document is the bleve representation of one record
type document struct {
	Ord      int    `json:"ord"`
	Location string `json:"location"`
	Page     string `json:"page"`
	Title    string `json:"title"`
	Text     string `json:"text"`
	Category string `json:"category"`
}

func documentID(ord int) string {
	return fmt.Sprintf("%0*d", idWidth, ord)
}

func ordinalFromID(id string) (int, error) {
	return strconv.Atoi(id)
}

// NewMapping returns the index mapping: analyzed page/text, titles analyzed
// with qualified names split at dots, exact location/category, numeric ordinal.
func NewMapping() (mapping.IndexMapping, error) {
	m := bleve.NewIndexMapping()

	// The unicode tokenizer keeps "SpecialMatrices.Cauchy" as one token
	err := m.AddCustomCharFilter(dotsCharFilter, map[string]interface{}{
		"type":    regexpchar.Name,
		"regexp":  `\.`,
		"replace": " ",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to register char filter: %w", err)
	}
	err = m.AddCustomAnalyzer(titleAnalyzer, map[string]interface{}{
		"type":          custom.Name,
		"char_filters":  []string{dotsCharFilter},
		"tokenizer":     unicode.Name,
		"token_filters": []string{lowercase.Name},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to register title analyzer: %w", err)
	}

	text := bleve.NewTextFieldMapping()
	title := bleve.NewTextFieldMapping()
	title.Analyzer = titleAnalyzer
	exact := bleve.NewKeywordFieldMapping()
	ord := bleve.NewNumericFieldMapping()

	doc := bleve.NewDocumentMapping()
	doc.AddFieldMappingsAt("ord", ord)
	doc.AddFieldMappingsAt("location", exact)
	doc.AddFieldMappingsAt("category", exact)
	doc.AddFieldMappingsAt("page", text)
	doc.AddFieldMappingsAt("title", title)
	doc.AddFieldMappingsAt("text", text)

	m.DefaultMapping = doc
	return m, nil
}

// Build indexes every record of records. An empty dir builds an in-memory
// index; otherwise dir must not exist yet.
func Build(dir string, records *searchindex.Index) (Index, error) {
	m, err := NewMapping()
	if err != nil {
		return nil, err
	}

	var index bleve.Index
	if dir == "" {
		index, err = bleve.NewMemOnly(m)
	} else {
		index, err = bleve.New(dir, m)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create index: %w", err)
	}

	if err := indexRecords(index, records); err != nil {
		index.Close()
		if dir != "" {
			os.RemoveAll(dir)
		}
		return nil, err
	}

	return newBleveIndex(index), nil
}

func indexRecords(index bleve.Index, records *searchindex.Index) error {
	batch := index.NewBatch()
	ord := 0
	for r := range records.Records() {
		doc := document{
			Ord:      ord,
			Location: r.Location,
			Page:     r.Page,
			Title:    r.Title,
			Text:     r.Text,
			Category: string(r.Category),
		}
		if err := batch.Index(documentID(ord), doc); err != nil {
			return fmt.Errorf("failed to add record %q to batch: %w", r.Location, err)
		}
		ord++

		// Submit batch every 100 documents
		if batch.Size() >= batchSize {
			if err := index.Batch(batch); err != nil {
				return fmt.Errorf("failed to index batch: %w", err)
			}
			batch = index.NewBatch()
		}
	}

	// Submit remaining
	if batch.Size() > 0 {
		if err := index.Batch(batch); err != nil {
			return fmt.Errorf("failed to index final batch: %w", err)
		}
	}
	return nil
}

// Open opens a persisted index created by Build or Rebuild
func Open(dir string) (Index, error) {
	index, err := bleve.Open(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open index %s: %w", dir, err)
	}
	return newBleveIndex(index), nil
}

// Rebuild builds a fresh index next to dir and renames it into place,
// so a crash never leaves a half-written index at dir.
func Rebuild(dir string, records *searchindex.Index) (Index, error) {
	tempDir := dir + ".tmp"

	// Clean up any leftover temp index from previous crash
	os.RemoveAll(tempDir)

	if err := os.MkdirAll(filepath.Dir(tempDir), 0755); err != nil {
		return nil, fmt.Errorf("failed to create index directory: %w", err)
	}

	built, err := Build(tempDir, records)
	if err != nil {
		return nil, err
	}

	// Close temp index before moving
	if err := built.Close(); err != nil {
		os.RemoveAll(tempDir)
		return nil, fmt.Errorf("failed to close temp index: %w", err)
	}

	if err := os.RemoveAll(dir); err != nil && !os.IsNotExist(err) {
		os.RemoveAll(tempDir)
		return nil, fmt.Errorf("failed to remove old index: %w", err)
	}

	// Rename temp to final location (atomic operation on POSIX)
	if err := os.Rename(tempDir, dir); err != nil {
		os.RemoveAll(tempDir)
		return nil, fmt.Errorf("failed to rename temp index: %w", err)
	}

	return Open(dir)
}
