package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for the failure taxonomy. Fetch and storage failures are
// isolated per listing during ingestion; embedding failures abort a query
// but only degrade an ingest.
var (
	ErrEmptyQuery    = errors.New("empty query")
	ErrInvalidLimit  = errors.New("invalid limit")
	ErrInvalidRange  = errors.New("invalid range")
	ErrFetchFailed   = errors.New("fetch failed")
	ErrEmbedFailed   = errors.New("embedding failed")
	ErrNoEmbedding   = errors.New("document has no embedding")
	ErrStorageFailed = errors.New("storage failed")
	ErrNotFound      = errors.New("not found")
)

// FilterError wraps a sentinel with the offending field and value.
type FilterError struct {
	Field   string
	Value   string
	Wrapped error
}

func (e *FilterError) Error() string {
	return fmt.Sprintf("filter: %s: %s (value=%q)", e.Wrapped, e.Field, e.Value)
}

func (e *FilterError) Unwrap() error { return e.Wrapped }

// NewFilterError creates a FilterError.
func NewFilterError(field, value string, wrapped error) *FilterError {
	return &FilterError{Field: field, Value: value, Wrapped: wrapped}
}
