package searchindex

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const schemaLocation = "search-index.schema.json"

// searchIndexSchema is the minimum structure every payload must have.
// Unknown properties are allowed; the generator adds fields between releases.
const searchIndexSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["docs"],
  "properties": {
    "docs": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["location", "page", "title", "text", "category"],
        "properties": {
          "location": {"type": "string"},
          "page":     {"type": "string"},
          "title":    {"type": "string"},
          "text":     {"type": "string"},
          "category": {"type": "string"}
        }
      }
    }
  }
}`

var utf8BOM = []byte("\xef\xbb\xbf")

// assignmentTargetRegex matches the left-hand side of the script wrapper,
// e.g. "var documenterSearchIndex" or "window.documenterSearchIndex".
var assignmentTargetRegex = regexp.MustCompile(`^(?:(?:var|let|const)\s+)?(?:window\.)?[A-Za-z_$][\w$]*\s*$`)

var compileSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	var schemaDoc interface{}
	if err := json.Unmarshal([]byte(searchIndexSchema), &schemaDoc); err != nil {
		return nil, fmt.Errorf("failed to parse search index schema: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(schemaLocation, schemaDoc); err != nil {
		return nil, fmt.Errorf("failed to add search index schema: %w", err)
	}
	return compiler.Compile(schemaLocation)
})

// StripWrapper removes the script assignment around the JSON payload:
//
//	var documenterSearchIndex = {"docs": [...]};
//
// becomes {"docs": [...]}. A payload that is already bare JSON is returned as-is.
func StripWrapper(raw []byte) ([]byte, error) {
	payload := bytes.TrimPrefix(bytes.TrimSpace(raw), utf8BOM)
	payload = bytes.TrimSpace(payload)
	if len(payload) == 0 {
		return nil, malformed("", "empty payload", nil)
	}

	if payload[0] != '{' && payload[0] != '[' {
		lhs, rhs, found := bytes.Cut(payload, []byte("="))
		if !found || !assignmentTargetRegex.Match(bytes.TrimSpace(lhs)) {
			return nil, malformed("", "no JSON payload or script assignment found", nil)
		}
		payload = bytes.TrimSpace(rhs)
	}

	payload = bytes.TrimSuffix(payload, []byte(";"))
	return bytes.TrimSpace(payload), nil
}

// Load parses a search index artifact into an immutable Index.
// Any structural problem yields an error matching ErrMalformedInput.
func Load(raw []byte) (*Index, error) {
	payload, err := StripWrapper(raw)
	if err != nil {
		return nil, err
	}

	var doc interface{}
	if err := json.Unmarshal(payload, &doc); err != nil {
		return nil, malformed("", "invalid JSON", err)
	}

	schema, err := compileSchema()
	if err != nil {
		return nil, err
	}
	if err := schema.Validate(doc); err != nil {
		if validationErr, ok := err.(*jsonschema.ValidationError); ok {
			return nil, schemaViolation(validationErr)
		}
		return nil, malformed("", err.Error(), err)
	}

	var parsed struct {
		Docs []Record `json:"docs"`
	}
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return nil, malformed("", "invalid record list", err)
	}

	return newIndex(parsed.Docs), nil
}

// LoadFile reads and parses a search_index.js file
func LoadFile(path string) (*Index, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read search index %s: %w", path, err)
	}
	return Load(raw)
}

// schemaViolation reports the deepest cause, which names the exact record and field.
func schemaViolation(validationErr *jsonschema.ValidationError) error {
	leaf := validationErr
	for len(leaf.Causes) > 0 {
		leaf = leaf.Causes[0]
	}

	path := "/" + strings.Join(leaf.InstanceLocation, "/")
	reason := validationErr.Error()
	if leaf.ErrorKind != nil {
		reason = leaf.ErrorKind.LocalizedString(message.NewPrinter(language.English))
	}
	return malformed(path, reason, validationErr)
}
