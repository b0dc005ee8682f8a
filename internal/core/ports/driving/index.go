package driving

import (
	"context"

	"github.com/Pranavharshans/pdf-rag/internal/core/domain"
)

// IndexService owns the lifecycle of the persisted index.
type IndexService interface {
	// Status reports the observable state of the index: Empty when
	// the store holds nothing, Ready when it holds exactly what the
	// last completed run wrote, Indexing otherwise.
	Status(ctx context.Context) (domain.IndexStatus, error)

	// EnsureIndexed indexes the corpus if the index is not Ready.
	// Calling it on a Ready index is a no-op: zero upserts happen.
	EnsureIndexed(ctx context.Context) error

	// ForceReindex wipes the store and the sparse model and rebuilds
	// both from the current corpus unconditionally.
	ForceReindex(ctx context.Context) error
}
