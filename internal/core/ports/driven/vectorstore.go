package driven

import (
	"context"

	"github.com/Pranavharshans/pdf-rag/internal/core/domain"
)

// VectorStore is the persisted hybrid index. Each entry carries both a
// dense and a sparse vector under one chunk ID; queries fuse the two
// with a single dot-product over the combined representation, so the
// store must support dot-product similarity (cosine-only stores are
// incompatible).
type VectorStore interface {
	// Upsert writes entries keyed by chunk ID. Entries with the same
	// ID replace each other, so upserts of distinct IDs commute.
	Upsert(ctx context.Context, entries []domain.IndexEntry) error

	// Query runs a fused nearest-neighbour search. The caller scales
	// the dense vector by alpha and the sparse weights by (1-alpha)
	// before the call; the store computes one dot-product against
	// each entry's combined representation. Results arrive ranked by
	// descending score.
	Query(ctx context.Context, dense domain.DenseVector, sparse domain.SparseVector, topK int) ([]domain.RetrievalResult, error)

	// DeleteAll removes every entry. Used by forced reindexing.
	DeleteAll(ctx context.Context) error

	// Describe reports the store's current shape.
	Describe(ctx context.Context) (IndexDescription, error)
}

// IndexDescription is the result of VectorStore.Describe.
type IndexDescription struct {
	// Count is the approximate number of entries in the store.
	Count int64

	// Dimension is the dense dimensionality the store is configured
	// for. Zero when the store does not report one.
	Dimension int

	// Ready reports whether the store service is reachable and
	// accepting queries.
	Ready bool
}
