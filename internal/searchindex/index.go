// Package searchindex loads the search index emitted by a documentation
// generator and answers substring and location lookups against it.
package searchindex

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"iter"
	"strings"
)

// Index is the loaded fragment collection. It is never mutated after Load,
// so any number of goroutines may query it without locking.
type Index struct {
	records []Record

	// folded holds lowercased title and text, aligned with records
	folded []foldedRecord

	// locations maps a location to the ordinals of its records, in source order
	locations map[string][]int

	pages       []Page
	fingerprint string
}

type foldedRecord struct {
	title string
	text  string
}

func newIndex(records []Record) *Index {
	idx := &Index{
		records:   records,
		folded:    make([]foldedRecord, len(records)),
		locations: make(map[string][]int, len(records)),
	}

	pageOrdinal := make(map[string]int)
	for i, r := range records {
		idx.folded[i] = foldedRecord{
			title: strings.ToLower(r.Title),
			text:  strings.ToLower(r.Text),
		}
		idx.locations[r.Location] = append(idx.locations[r.Location], i)

		if p, ok := pageOrdinal[r.Page]; ok {
			idx.pages[p].Fragments++
			continue
		}
		pageOrdinal[r.Page] = len(idx.pages)
		idx.pages = append(idx.pages, Page{Title: r.Page, Path: r.Path(), Fragments: 1})
	}

	idx.fingerprint = computeFingerprint(records)
	return idx
}

// Len returns the number of records
func (idx *Index) Len() int {
	return len(idx.records)
}

// At returns the record at ordinal i in source order.
func (idx *Index) At(i int) (Record, bool) {
	if i < 0 || i >= len(idx.records) {
		return Record{}, false
	}
	return idx.records[i], true
}

// Records iterates over every record in source order.
func (idx *Index) Records() iter.Seq[Record] {
	return idx.Search("")
}

// Search yields, in source order, every record whose title or text contains
// query case-insensitively. The empty query matches every record.
// The sequence is lazy and may be ranged over any number of times.
func (idx *Index) Search(query string) iter.Seq[Record] {
	needle := strings.ToLower(query)
	return func(yield func(Record) bool) {
		for i, f := range idx.folded {
			if needle != "" && !strings.Contains(f.title, needle) && !strings.Contains(f.text, needle) {
				continue
			}
			if !yield(idx.records[i]) {
				return
			}
		}
	}
}

// ByLocation returns the record stored under location. When the generator
// emitted several fragments for the same location, the first one wins;
// use Fragments to get all of them.
func (idx *Index) ByLocation(location string) (Record, error) {
	ordinals, ok := idx.locations[location]
	if !ok {
		return Record{}, fmt.Errorf("%w: %q", ErrNotFound, location)
	}
	return idx.records[ordinals[0]], nil
}

// Fragments returns every record at location in source order, or ErrNotFound.
func (idx *Index) Fragments(location string) ([]Record, error) {
	ordinals, ok := idx.locations[location]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, location)
	}
	out := make([]Record, len(ordinals))
	for i, ord := range ordinals {
		out[i] = idx.records[ord]
	}
	return out, nil
}

// Pages lists page titles in order of first appearance
func (idx *Index) Pages() []Page {
	out := make([]Page, len(idx.pages))
	copy(out, idx.pages)
	return out
}

// Fingerprint is a stable hash of the records in order. Two indexes with the
// same fingerprint hold the same content.
func (idx *Index) Fingerprint() string {
	return idx.fingerprint
}

func computeFingerprint(records []Record) string {
	h := sha256.New()
	for _, r := range records {
		h.Write([]byte(r.Location))
		h.Write([]byte{0}) // separator
		h.Write([]byte(r.Page))
		h.Write([]byte{0})
		h.Write([]byte(r.Title))
		h.Write([]byte{0})
		h.Write([]byte(r.Text))
		h.Write([]byte{0})
		h.Write([]byte(r.Category))
		h.Write([]byte{1}) // record terminator
	}
	return hex.EncodeToString(h.Sum(nil))
}
