package searchindex

import "strings"

// Category is the structural role of a fragment within the generated docs.
type Category string

const (
	CategoryPage    Category = "page"
	CategorySection Category = "section"
	CategoryType    Category = "type"
	CategoryMethod  Category = "method"
)

// Known reports whether c is one of the four categories emitted for
// pages, sections, types and methods. Other values are kept as-is.
func (c Category) Known() bool {
	switch c {
	case CategoryPage, CategorySection, CategoryType, CategoryMethod:
		return true
	}
	return false
}

// Record is one fragment of the search index
type Record struct {
	Location string   `json:"location"` // page path with optional "#anchor"
	Page     string   `json:"page"`
	Title    string   `json:"title"`
	Text     string   `json:"text"`
	Category Category `json:"category"`
}

// Path returns the location without its anchor.
func (r Record) Path() string {
	path, _ := SplitLocation(r.Location)
	return path
}

// Anchor returns the same-page anchor of the location, or "" if there is none.
func (r Record) Anchor() string {
	_, anchor := SplitLocation(r.Location)
	return anchor
}

// Breadcrumb renders "Page > Title", collapsing the title when it repeats the page.
func (r Record) Breadcrumb() string {
	if r.Title == "" || r.Title == r.Page {
		return r.Page
	}
	if r.Page == "" {
		return r.Title
	}
	return r.Page + " > " + r.Title
}

// Page groups the fragments that share a page title
type Page struct {
	Title     string `json:"title"`
	Path      string `json:"path"`
	Fragments int    `json:"fragments"`
}

// SplitLocation splits "methods/#SpecialMatrices.Cauchy" into
// "methods/" and "SpecialMatrices.Cauchy".
func SplitLocation(location string) (path, anchor string) {
	path, anchor, _ = strings.Cut(location, "#")
	return path, anchor
}
