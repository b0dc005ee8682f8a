package driven

import (
	"context"

	"github.com/Pranavharshans/pdf-rag/internal/core/domain"
)

// EmbeddingService generates dense vector embeddings from text via an
// external provider. Implementations batch texts per request, retry
// transient failures with bounded backoff and surface
// domain.ErrEmbeddingUnavailable once attempts are exhausted.
type EmbeddingService interface {
	// EmbedBatch generates embeddings for the given texts, preserving
	// input order. Implementations split the input into provider-side
	// batches as needed.
	EmbedBatch(ctx context.Context, texts []string) ([]domain.DenseVector, error)

	// Dimensions returns the embedding vector size (e.g. 1536).
	// It must match the vector store's configured dimensionality.
	Dimensions() int
}
