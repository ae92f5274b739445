package keyword

import (
	"fmt"

	"github.com/blevesearch/bleve/v2"
)

// Index matches queries against indexed records and answers with record
// ordinals. Searcher only talks to this, so tests can swap in a fake.
type Index interface {
	// Match returns, in ascending order, the ordinals of at most limit
	// records whose title or text contains an analyzed term of query,
	// along with the number of matching records.
	Match(query string, limit int) ([]int, int, error)

	DocCount() (uint64, error)
	Close() error
}

// bleveIndex serves Index from a bleve index built by Build
type bleveIndex struct {
	index bleve.Index
}

func newBleveIndex(index bleve.Index) Index {
	return &bleveIndex{index: index}
}

func (b *bleveIndex) Match(query string, limit int) ([]int, int, error) {
	title := bleve.NewMatchQuery(query)
	title.SetField("title")
	text := bleve.NewMatchQuery(query)
	text.SetField("text")

	// Zero-padded IDs sort in source order
	req := bleve.NewSearchRequestOptions(bleve.NewDisjunctionQuery(title, text), limit, 0, false)
	req.SortBy([]string{"_id"})

	result, err := b.index.Search(req)
	if err != nil {
		return nil, 0, fmt.Errorf("keyword search failed: %w", err)
	}

	ords := make([]int, 0, len(result.Hits))
	for _, hit := range result.Hits {
		ord, err := ordinalFromID(hit.ID)
		if err != nil {
			return nil, 0, fmt.Errorf("unexpected document id %q: %w", hit.ID, err)
		}
		ords = append(ords, ord)
	}
	return ords, int(result.Total), nil
}

func (b *bleveIndex) DocCount() (uint64, error) {
	return b.index.DocCount()
}

func (b *bleveIndex) Close() error {
	return b.index.Close()
}
