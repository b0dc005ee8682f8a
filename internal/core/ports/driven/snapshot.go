package driven

import (
	"context"

	"github.com/Pranavharshans/pdf-rag/internal/core/domain"
)

// SnapshotStore persists the fitted sparse model and the index
// manifest so that encoding is reproducible across process restarts
// without re-fitting. The snapshot is written once per indexing run
// and read-only afterwards.
type SnapshotStore interface {
	// SaveSparseModel replaces the persisted model snapshot.
	SaveSparseModel(ctx context.Context, snap domain.SparseModelSnapshot) error

	// LoadSparseModel returns the persisted snapshot. ok is false
	// when no snapshot has been written yet.
	LoadSparseModel(ctx context.Context) (snap domain.SparseModelSnapshot, ok bool, err error)

	// SaveManifest replaces the persisted index manifest.
	SaveManifest(ctx context.Context, m domain.IndexManifest) error

	// LoadManifest returns the persisted manifest. ok is false when
	// no indexing run has written one yet.
	LoadManifest(ctx context.Context) (m domain.IndexManifest, ok bool, err error)

	// Reset clears both the snapshot and the manifest. Called at the
	// start of a forced reindex, before the store is wiped.
	Reset(ctx context.Context) error
}
