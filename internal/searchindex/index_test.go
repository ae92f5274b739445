package searchindex_test

import (
	"errors"
	"slices"
	"sync"
	"testing"

	"github.com/docsearch/documenter-mcp/internal/searchindex"
)

func loadFixture(t *testing.T) *searchindex.Index {
	t.Helper()
	idx, err := searchindex.LoadFile("testdata/search_index.js")
	if err != nil {
		t.Fatalf("Failed to load fixture: %v", err)
	}
	return idx
}

func locations(records []searchindex.Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Location
	}
	return out
}

func TestSearch_EmptyQueryReturnsAllInOrder(t *testing.T) {
	idx := loadFixture(t)

	all := slices.Collect(idx.Search(""))
	if len(all) != idx.Len() {
		t.Fatalf("Expected %d records, got %d", idx.Len(), len(all))
	}
	for i, r := range all {
		want, _ := idx.At(i)
		if r != want {
			t.Errorf("Record %d out of order: got %q, want %q", i, r.Location, want.Location)
		}
	}
}

func TestSearch_CaseInsensitive(t *testing.T) {
	idx := loadFixture(t)

	tests := []struct {
		query    string
		expected []string
	}{
		{
			query:    "hilbert",
			expected: []string{"methods/#SpecialMatrices.Hilbert"},
		},
		{
			query:    "HILBERT",
			expected: []string{"methods/#SpecialMatrices.Hilbert"},
		},
		{
			query:    "cauchy",
			expected: []string{"methods/#SpecialMatrices.Cauchy", "examples/1-overview/#Cauchy", "examples/1-overview/"},
		},
		{
			query: "vandermonde",
			expected: []string{
				"methods/#SpecialMatrices.Vandermonde",
				"methods/#SpecialMatrices.dvand!-Tuple{Any, Any}",
				"methods/#SpecialMatrices.pvand!-Tuple{Any, Any}",
				"methods/#SpecialMatrices.vandtype-Tuple{Type, Type}",
			},
		},
		{
			query:    "Package README",
			expected: []string{""},
		},
		{
			query:    "no such fragment anywhere",
			expected: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got := locations(slices.Collect(idx.Search(tt.query)))
			if !slices.Equal(got, tt.expected) {
				t.Errorf("Search(%q) = %q, want %q", tt.query, got, tt.expected)
			}
		})
	}
}

func TestSearch_SingleRecordExample(t *testing.T) {
	idx, err := searchindex.Load([]byte(`{"docs":[` + hilbertRecord + `]}`))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	hits := slices.Collect(idx.Search("hilbert"))
	if len(hits) != 1 || hits[0].Title != "SpecialMatrices.Hilbert" {
		t.Errorf("Expected exactly the Hilbert record, got %+v", hits)
	}

	if hits := slices.Collect(idx.Search("riemann")); len(hits) != 0 {
		t.Errorf("Expected no results for riemann, got %d", len(hits))
	}
}

func TestSearch_MatchesTitleOrText(t *testing.T) {
	idx, err := searchindex.Load([]byte(`{"docs":[
		{"location":"a/","page":"A","title":"Cauchy matrix","text":"","category":"page"},
		{"location":"b/","page":"B","title":"Other","text":"mentions CAUCHY in text","category":"page"},
		{"location":"c/","page":"C","title":"Unrelated","text":"nothing","category":"page"}
	]}`))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	got := locations(slices.Collect(idx.Search("cauchy")))
	if !slices.Equal(got, []string{"a/", "b/"}) {
		t.Errorf("Search(cauchy) = %q, want [a/ b/]", got)
	}
}

func TestSearch_Restartable(t *testing.T) {
	idx := loadFixture(t)
	seq := idx.Search("matrix")

	first := slices.Collect(seq)
	second := slices.Collect(seq)
	if len(first) == 0 {
		t.Fatal("Expected matches for 'matrix'")
	}
	if !slices.Equal(first, second) {
		t.Error("Ranging the same sequence twice should yield the same records")
	}
}

func TestSearch_EarlyBreak(t *testing.T) {
	idx := loadFixture(t)

	count := 0
	for range idx.Search("") {
		count++
		if count == 3 {
			break
		}
	}
	if count != 3 {
		t.Errorf("Expected to stop after 3 records, got %d", count)
	}
}

func TestByLocation_UniqueLocationsReturnThemselves(t *testing.T) {
	idx, err := searchindex.Load([]byte(`{"docs":[
		{"location":"methods/#SpecialMatrices.Hilbert","page":"Methods","title":"SpecialMatrices.Hilbert","text":"Hilbert matrix","category":"type"},
		{"location":"methods/#SpecialMatrices.Kahan","page":"Methods","title":"SpecialMatrices.Kahan","text":"Kahan matrix","category":"type"},
		{"location":"methods/","page":"Methods","title":"Methods","text":"","category":"page"}
	]}`))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	for r := range idx.Records() {
		got, err := idx.ByLocation(r.Location)
		if err != nil {
			t.Errorf("ByLocation(%q) failed: %v", r.Location, err)
			continue
		}
		if got != r {
			t.Errorf("ByLocation(%q) = %+v, want %+v", r.Location, got, r)
		}
	}
}

func TestByLocation_NotFound(t *testing.T) {
	idx := loadFixture(t)

	_, err := idx.ByLocation("methods/#SpecialMatrices.Nope")
	if !errors.Is(err, searchindex.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestByLocation_DuplicatesReturnFirst(t *testing.T) {
	idx := loadFixture(t)

	r, err := idx.ByLocation("methods/")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if r.Text != "" {
		t.Errorf("Expected first 'methods/' record (empty text), got %q", r.Text)
	}

	home, err := idx.ByLocation("")
	if err != nil {
		t.Fatalf("The empty location is valid: %v", err)
	}
	if home.Page != "Home" || home.Text != "CurrentModule = SpecialMatrices" {
		t.Errorf("Unexpected home record: %+v", home)
	}
}

func TestFragments(t *testing.T) {
	idx := loadFixture(t)

	frags, err := idx.Fragments("methods/")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(frags) != 2 {
		t.Fatalf("Expected 2 fragments at methods/, got %d", len(frags))
	}
	if frags[1].Text != "Modules = [SpecialMatrices]" {
		t.Errorf("Unexpected second fragment: %q", frags[1].Text)
	}

	if _, err := idx.Fragments("missing/"); !errors.Is(err, searchindex.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestPages(t *testing.T) {
	idx := loadFixture(t)

	expected := []searchindex.Page{
		{Title: "Methods", Path: "methods/", Fragments: 15},
		{Title: "SpecialMatrices overview", Path: "examples/1-overview/", Fragments: 10},
		{Title: "Home", Path: "", Fragments: 7},
	}
	if got := idx.Pages(); !slices.Equal(got, expected) {
		t.Errorf("Pages() = %+v, want %+v", got, expected)
	}

	// Callers get a copy
	pages := idx.Pages()
	pages[0].Title = "changed"
	if idx.Pages()[0].Title != "Methods" {
		t.Error("Pages() must not expose internal state")
	}
}

func TestAt_OutOfRange(t *testing.T) {
	idx := loadFixture(t)
	if _, ok := idx.At(-1); ok {
		t.Error("At(-1) should report false")
	}
	if _, ok := idx.At(idx.Len()); ok {
		t.Error("At(Len()) should report false")
	}
}

func TestFingerprint(t *testing.T) {
	a, _ := searchindex.Load([]byte(`{"docs":[` + hilbertRecord + `]}`))
	b, _ := searchindex.Load([]byte(`var documenterSearchIndex = {"docs":[` + hilbertRecord + `]};`))
	c, _ := searchindex.Load([]byte(`{"docs":[]}`))

	if a.Fingerprint() != b.Fingerprint() {
		t.Error("Same records should have the same fingerprint regardless of wrapper")
	}
	if a.Fingerprint() == c.Fingerprint() {
		t.Error("Different records should have different fingerprints")
	}
	if len(a.Fingerprint()) != 64 {
		t.Errorf("Expected hex SHA-256, got %q", a.Fingerprint())
	}
}

func TestSearch_ConcurrentReaders(t *testing.T) {
	idx := loadFixture(t)
	want := len(slices.Collect(idx.Search("matrix")))

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if got := len(slices.Collect(idx.Search("matrix"))); got != want {
				t.Errorf("Concurrent search got %d results, want %d", got, want)
			}
		}()
	}
	wg.Wait()
}
