package searchindex

const (
	// VariableName is the script variable the generator assigns the index to
	VariableName = "documenterSearchIndex"

	// DefaultSnippetWidth is the number of runes shown around a match
	DefaultSnippetWidth = 160

	// IndexSchemaVersion increments when the persisted keyword index layout changes
	// v1: one bleve document per record, keyed by ordinal
	// v2: titles split qualified names at dots
	IndexSchemaVersion = 2
)
