package driven

import (
	"context"

	"github.com/Pranavharshans/pdf-rag/internal/core/domain"
)

// DocumentSource loads the extracted corpus. PDF byte-to-text
// extraction happens upstream of this system; the source only reads
// its output.
type DocumentSource interface {
	// Load returns every document in the corpus in a stable order.
	Load(ctx context.Context) ([]domain.Document, error)
}
