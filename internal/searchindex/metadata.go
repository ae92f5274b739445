package searchindex

import (
	"strings"
	"unicode"
)

// PageURL builds an absolute link to a fragment.
// Example: ("https://example.org/dev/", "methods/#X") -> "https://example.org/dev/methods/#X"
func PageURL(baseURL, location string) string {
	if baseURL == "" {
		return location
	}
	return strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(location, "/")
}

// Snippet returns up to width runes of text centred on the first
// case-insensitive match of query, with runs of whitespace collapsed.
// Elided ends are marked with "…".
func Snippet(text, query string, width int) string {
	if width <= 0 {
		width = DefaultSnippetWidth
	}

	runes := []rune(strings.Join(strings.Fields(text), " "))
	if len(runes) <= width {
		return string(runes)
	}

	start := 0
	if q := []rune(query); len(q) > 0 {
		if at := indexFold(runes, q); at >= 0 {
			start = at - (width-len(q))/2
		}
	}
	start = max(0, min(start, len(runes)-width))
	end := start + width

	var b strings.Builder
	if start > 0 {
		b.WriteString("…")
	}
	b.WriteString(strings.TrimSpace(string(runes[start:end])))
	if end < len(runes) {
		b.WriteString("…")
	}
	return b.String()
}

// indexFold is a rune-wise case-insensitive index of needle in haystack
func indexFold(haystack, needle []rune) int {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		matched := true
		for j, r := range needle {
			if unicode.ToLower(haystack[i+j]) != unicode.ToLower(r) {
				matched = false
				break
			}
		}
		if matched {
			return i
		}
	}
	return -1
}
