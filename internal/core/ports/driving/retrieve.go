package driving

import (
	"context"

	"github.com/Pranavharshans/pdf-rag/internal/core/domain"
)

// Retriever answers a question with the top-k most relevant chunks,
// ranked by fused dense+sparse score. An empty index yields an empty
// result set, not an error.
type Retriever interface {
	Retrieve(ctx context.Context, question string) ([]domain.RetrievalResult, error)
}
