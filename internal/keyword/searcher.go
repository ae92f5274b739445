package keyword

import (
	"fmt"

	"github.com/docsearch/documenter-mcp/internal/searchindex"
)

// Searcher resolves keyword matches back to the records they were built from.
// The bleve index must have been built from the same records.
type Searcher struct {
	index   Index
	records *searchindex.Index
}

func NewSearcher(index Index, records *searchindex.Index) *Searcher {
	return &Searcher{index: index, records: records}
}

// Lookup returns up to limit records whose title or text contains any of
// the analyzed terms of query, in source order, plus the total number of
// matching records. An empty query returns the first limit records.
// limit <= 0 means no limit.
func (s *Searcher) Lookup(query string, limit int) ([]searchindex.Record, int, error) {
	if limit <= 0 {
		limit = s.records.Len()
	}

	if query == "" {
		out := make([]searchindex.Record, 0, min(limit, s.records.Len()))
		for r := range s.records.Records() {
			if len(out) == limit {
				break
			}
			out = append(out, r)
		}
		return out, s.records.Len(), nil
	}

	ords, total, err := s.index.Match(query, limit)
	if err != nil {
		return nil, 0, err
	}

	out := make([]searchindex.Record, 0, len(ords))
	for _, ord := range ords {
		r, ok := s.records.At(ord)
		if !ok {
			return nil, 0, fmt.Errorf("record %d is out of range, index is stale", ord)
		}
		out = append(out, r)
	}

	return out, total, nil
}

// DocCount returns the number of indexed documents
func (s *Searcher) DocCount() (uint64, error) {
	return s.index.DocCount()
}

// Close closes the underlying bleve index
func (s *Searcher) Close() error {
	return s.index.Close()
}
