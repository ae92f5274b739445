package searchindex_test

import (
	"errors"
	"os"
	"slices"
	"strings"
	"testing"

	"github.com/docsearch/documenter-mcp/internal/searchindex"
)

const hilbertRecord = `{"location":"methods/#SpecialMatrices.Hilbert","page":"Methods","title":"SpecialMatrices.Hilbert","text":"Hilbert matrix","category":"type"}`

func TestStripWrapper(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "var assignment",
			input:    `var documenterSearchIndex = {"docs": []}`,
			expected: `{"docs": []}`,
		},
		{
			name:     "assignment with trailing semicolon and newlines",
			input:    "var documenterSearchIndex = {\"docs\":\n[]\n};\n",
			expected: "{\"docs\":\n[]\n}",
		},
		{
			name:     "const assignment",
			input:    `const documenterSearchIndex={"docs":[]}`,
			expected: `{"docs":[]}`,
		},
		{
			name:     "window property",
			input:    `window.documenterSearchIndex = {"docs":[]};`,
			expected: `{"docs":[]}`,
		},
		{
			name:     "bare JSON",
			input:    `  {"docs":[]}  `,
			expected: `{"docs":[]}`,
		},
		{
			name:     "byte order mark",
			input:    "\xef\xbb\xbfvar documenterSearchIndex = {\"docs\":[]}",
			expected: `{"docs":[]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := searchindex.StripWrapper([]byte(tt.input))
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if string(result) != tt.expected {
				t.Errorf("StripWrapper() = %q, want %q", result, tt.expected)
			}
		})
	}
}

func TestStripWrapper_Rejects(t *testing.T) {
	inputs := []string{
		"",
		"   \n",
		"documenterSearchIndex",
		`console.log("x") = {"docs":[]}`,
		`var a b = {"docs":[]}`,
	}

	for _, input := range inputs {
		if _, err := searchindex.StripWrapper([]byte(input)); !errors.Is(err, searchindex.ErrMalformedInput) {
			t.Errorf("StripWrapper(%q) error = %v, want ErrMalformedInput", input, err)
		}
	}
}

func TestLoad_SingleRecord(t *testing.T) {
	idx, err := searchindex.Load([]byte(`var documenterSearchIndex = {"docs":[` + hilbertRecord + `]}`))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if idx.Len() != 1 {
		t.Fatalf("Expected 1 record, got %d", idx.Len())
	}

	r, _ := idx.At(0)
	expected := searchindex.Record{
		Location: "methods/#SpecialMatrices.Hilbert",
		Page:     "Methods",
		Title:    "SpecialMatrices.Hilbert",
		Text:     "Hilbert matrix",
		Category: searchindex.CategoryType,
	}
	if r != expected {
		t.Errorf("Record = %+v, want %+v", r, expected)
	}
}

func TestLoad_EmptyDocs(t *testing.T) {
	idx, err := searchindex.Load([]byte(`var documenterSearchIndex = {"docs": []}`))
	if err != nil {
		t.Fatalf("Empty docs should be valid, got error: %v", err)
	}
	if idx.Len() != 0 {
		t.Errorf("Expected empty index, got %d records", idx.Len())
	}
	if got := slices.Collect(idx.Search("")); len(got) != 0 {
		t.Errorf("Expected no records from empty index, got %d", len(got))
	}
	if len(idx.Pages()) != 0 {
		t.Errorf("Expected no pages, got %d", len(idx.Pages()))
	}
}

func TestLoad_IgnoresUnknownProperties(t *testing.T) {
	payload := `{"docs":[{"location":"a/","page":"A","title":"A","text":"","category":"page","extra":1}],"version":"1.0"}`
	idx, err := searchindex.Load([]byte(payload))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if idx.Len() != 1 {
		t.Errorf("Expected 1 record, got %d", idx.Len())
	}
}

func TestLoad_KeepsUnknownCategory(t *testing.T) {
	payload := `{"docs":[{"location":"api/#f","page":"API","title":"f","text":"","category":"function"}]}`
	idx, err := searchindex.Load([]byte(payload))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	r, _ := idx.At(0)
	if r.Category != "function" {
		t.Errorf("Category = %q, want %q", r.Category, "function")
	}
	if r.Category.Known() {
		t.Error("Category 'function' should not be reported as known")
	}
}

func TestLoad_Malformed(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantPath string
	}{
		{name: "not JSON", input: `var documenterSearchIndex = {"docs": [}`},
		{name: "missing docs", input: `{"pages": []}`, wantPath: "/"},
		{name: "top-level array", input: `[` + hilbertRecord + `]`, wantPath: "/"},
		{name: "docs is object", input: `{"docs": {}}`, wantPath: "/docs"},
		{name: "docs is null", input: `{"docs": null}`, wantPath: "/docs"},
		{name: "record is string", input: `{"docs": ["x"]}`, wantPath: "/docs/0"},
		{
			name:     "missing title",
			input:    `{"docs":[` + hilbertRecord + `,{"location":"a","page":"A","text":"","category":"page"}]}`,
			wantPath: "/docs/1",
		},
		{
			name:     "numeric text",
			input:    `{"docs":[{"location":"a","page":"A","title":"A","text":42,"category":"page"}]}`,
			wantPath: "/docs/0/text",
		},
		{
			name:     "null category",
			input:    `{"docs":[{"location":"a","page":"A","title":"A","text":"","category":null}]}`,
			wantPath: "/docs/0/category",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx, err := searchindex.Load([]byte(tt.input))
			if err == nil {
				t.Fatal("Expected error, got nil")
			}
			if idx != nil {
				t.Error("Expected no index on malformed input")
			}
			if !errors.Is(err, searchindex.ErrMalformedInput) {
				t.Fatalf("Expected ErrMalformedInput, got %v", err)
			}

			var malformedErr *searchindex.MalformedInputError
			if !errors.As(err, &malformedErr) {
				t.Fatalf("Expected *MalformedInputError, got %T", err)
			}
			if tt.wantPath != "" && malformedErr.Path != tt.wantPath {
				t.Errorf("Path = %q, want %q (reason: %s)", malformedErr.Path, tt.wantPath, malformedErr.Reason)
			}
		})
	}
}

func TestLoadFile_Fixture(t *testing.T) {
	idx, err := searchindex.LoadFile("testdata/search_index.js")
	if err != nil {
		t.Fatalf("Failed to load fixture: %v", err)
	}

	if idx.Len() != 32 {
		t.Errorf("Expected 32 records, got %d", idx.Len())
	}

	first, _ := idx.At(0)
	if first.Location != "methods/#Methods-list" || first.Category != searchindex.CategorySection {
		t.Errorf("Unexpected first record: %+v", first)
	}

	for r := range idx.Records() {
		if !r.Category.Known() {
			t.Errorf("Fixture record %q has unknown category %q", r.Location, r.Category)
		}
	}
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := searchindex.LoadFile("testdata/does-not-exist.js")
	if err == nil {
		t.Fatal("Expected error for missing file")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Expected os.ErrNotExist, got %v", err)
	}
	if errors.Is(err, searchindex.ErrMalformedInput) {
		t.Error("A missing file is not malformed input")
	}
}

func TestMalformedInputError_Message(t *testing.T) {
	_, err := searchindex.Load([]byte(`{"docs": [1]}`))
	if err == nil {
		t.Fatal("Expected error")
	}
	if !strings.HasPrefix(err.Error(), "malformed search index") {
		t.Errorf("Unexpected message: %s", err.Error())
	}
	if !strings.Contains(err.Error(), "/docs/0") {
		t.Errorf("Expected message to name the offending record, got: %s", err.Error())
	}
}
