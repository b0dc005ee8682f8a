package domain

import "time"

// RetrievalResult is a ranked hit produced at query time. It is
// ephemeral: produced per query, never persisted.
type RetrievalResult struct {
	// ChunkID is the matched chunk.
	ChunkID string

	// Score is the fused dense+sparse relevance score.
	Score float64

	// Metadata carries the chunk text and citation fields.
	Metadata EntryMetadata
}

// Citation points a reader at the evidence behind an answer.
type Citation struct {
	// DocumentID is the source filename.
	DocumentID string

	// Page is the 1-based page number.
	Page int
}

// IndexState describes where the persisted index is in its lifecycle.
type IndexState string

const (
	// IndexStateEmpty means the vector store holds no entries.
	IndexStateEmpty IndexState = "empty"

	// IndexStateIndexing means entries exist but the last indexing
	// run has not been acknowledged as complete.
	IndexStateIndexing IndexState = "indexing"

	// IndexStateReady means the store holds exactly the entries the
	// last completed indexing run produced.
	IndexStateReady IndexState = "ready"
)

// IndexStatus is the observable status of the persisted index.
type IndexStatus struct {
	// State is the lifecycle state.
	State IndexState

	// EntryCount is the number of entries currently in the store.
	EntryCount int64
}

// IndexManifest records what a completed indexing run wrote. It is
// persisted next to the sparse model snapshot and consulted by Status:
// the index is Ready only when the manifest is complete and the store
// entry count matches it.
type IndexManifest struct {
	// ChunkCount is the number of entries the run upserted.
	ChunkCount int64

	// Completed is set only after every upsert was acknowledged.
	Completed bool

	// CompletedAt is when the run finished.
	CompletedAt time.Time
}
