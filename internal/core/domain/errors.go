package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrInvalidConfig indicates missing or invalid settings.
	// Fatal, surfaced immediately, never retried.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrDimensionMismatch indicates the embedding dimensionality does
	// not match the vector store's configured dimensionality. A fatal
	// configuration error surfaced at startup, not per call.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrModelNotFitted indicates a sparse encoding was requested
	// before the model was fitted or loaded. Recoverable by fitting
	// or loading a snapshot before retrying.
	ErrModelNotFitted = errors.New("sparse model not fitted")

	// ErrEmbeddingUnavailable indicates the embedding service kept
	// failing after the configured retry attempts were exhausted.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrGenerationUnavailable indicates the generation service kept
	// failing after the configured retry attempts were exhausted.
	ErrGenerationUnavailable = errors.New("generation service unavailable")

	// ErrIndexingIncomplete indicates an indexing run failed part way.
	// The index is left in a state Status does not report as Ready and
	// the whole run is safe to retry.
	ErrIndexingIncomplete = errors.New("indexing incomplete")

	// ErrNoDocuments indicates the corpus directory holds no documents
	// to index.
	ErrNoDocuments = errors.New("no documents found")
)
