package searchindex

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedInput is returned by Load when the payload is not a
	// well-formed search index. It is never accompanied by a partial index.
	ErrMalformedInput = errors.New("malformed search index")

	// ErrNotFound is returned by location lookups that match no record.
	ErrNotFound = errors.New("fragment not found")
)

// MalformedInputError describes why a payload was rejected.
// It matches ErrMalformedInput under errors.Is.
type MalformedInputError struct {
	// Path is the JSON pointer of the offending value, "" for the whole payload
	Path   string
	Reason string
	Err    error
}

func (e *MalformedInputError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s at %s", ErrMalformedInput, e.Reason, e.Path)
	}
	return fmt.Sprintf("%s: %s", ErrMalformedInput, e.Reason)
}

func (e *MalformedInputError) Is(target error) bool {
	return target == ErrMalformedInput
}

func (e *MalformedInputError) Unwrap() error {
	return e.Err
}

func malformed(path, reason string, err error) error {
	return &MalformedInputError{Path: path, Reason: reason, Err: err}
}
