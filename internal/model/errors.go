package model

import "errors"

// Sentinel errors shared across the ingestion and query paths. Callers
// match them with errors.Is after wrapping.
var (
	// ErrNotFound signals a missing blob or record.
	ErrNotFound = errors.New("not found")
	// ErrUnsupportedFormat marks a file whose extension has no extractor.
	// Ingestion treats it as a skip, not a failure.
	ErrUnsupportedFormat = errors.New("unsupported file format")
	// ErrRetrievalUnavailable signals that the vector index could not be
	// queried. The query pipeline must surface this rather than answer
	// without context.
	ErrRetrievalUnavailable = errors.New("retrieval unavailable")
	// ErrGenerationUnavailable signals a failed model call. The chat path
	// degrades to a fixed fallback answer instead of returning it.
	ErrGenerationUnavailable = errors.New("generation unavailable")
	// ErrValidation marks a request missing required fields.
	ErrValidation = errors.New("validation failed")
	// ErrDimensionMismatch means an embedding does not match the index
	// dimension. This is a configuration bug and fails ingestion hard.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)
