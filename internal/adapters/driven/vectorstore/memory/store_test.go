package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pranavharshans/pdf-rag/internal/core/domain"
)

func entry(id string, dense domain.DenseVector, sparse domain.SparseVector) domain.IndexEntry {
	return domain.IndexEntry{
		ID:     id,
		Dense:  dense,
		Sparse: sparse,
		Metadata: domain.EntryMetadata{
			DocumentID: id + ".pdf",
			Page:       1,
			Text:       "text of " + id,
		},
	}
}

func TestQuery_RanksByFusedDotProduct(t *testing.T) {
	store := NewStore(2)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, []domain.IndexEntry{
		entry("dense-hit", domain.DenseVector{1, 0}, nil),
		entry("sparse-hit", domain.DenseVector{0, 0}, domain.SparseVector{7: 2}),
		entry("both", domain.DenseVector{0.5, 0}, domain.SparseVector{7: 1}),
	}))

	results, err := store.Query(ctx, domain.DenseVector{1, 0}, domain.SparseVector{7: 1}, 10)
	require.NoError(t, err)
	require.Len(t, results, 3)

	// Scores: dense-hit = 1, sparse-hit = 2, both = 1.5.
	assert.Equal(t, "sparse-hit", results[0].ChunkID)
	assert.Equal(t, "both", results[1].ChunkID)
	assert.Equal(t, "dense-hit", results[2].ChunkID)
}

func TestQuery_TruncatesToTopK(t *testing.T) {
	store := NewStore(1)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, []domain.IndexEntry{
		entry("a", domain.DenseVector{3}, nil),
		entry("b", domain.DenseVector{2}, nil),
		entry("c", domain.DenseVector{1}, nil),
	}))

	results, err := store.Query(ctx, domain.DenseVector{1}, nil, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "a", results[0].ChunkID)
	assert.Equal(t, "b", results[1].ChunkID)
}

func TestQuery_TieBreaksOnChunkID(t *testing.T) {
	store := NewStore(1)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, []domain.IndexEntry{
		entry("zeta", domain.DenseVector{1}, nil),
		entry("alpha", domain.DenseVector{1}, nil),
	}))

	results, err := store.Query(ctx, domain.DenseVector{1}, nil, 10)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "alpha", results[0].ChunkID)
}

func TestUpsert_SameIDReplaces(t *testing.T) {
	store := NewStore(1)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, []domain.IndexEntry{entry("a", domain.DenseVector{1}, nil)}))
	require.NoError(t, store.Upsert(ctx, []domain.IndexEntry{entry("a", domain.DenseVector{5}, nil)}))

	desc, err := store.Describe(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), desc.Count)

	results, err := store.Query(ctx, domain.DenseVector{1}, nil, 1)
	require.NoError(t, err)
	assert.Equal(t, 5.0, results[0].Score)
}

func TestDeleteAll_EmptiesStore(t *testing.T) {
	store := NewStore(1)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, []domain.IndexEntry{entry("a", domain.DenseVector{1}, nil)}))
	require.NoError(t, store.DeleteAll(ctx))

	desc, err := store.Describe(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), desc.Count)
}

func TestDescribe_ReportsDimension(t *testing.T) {
	store := NewStore(1536)
	desc, err := store.Describe(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1536, desc.Dimension)
	assert.True(t, desc.Ready)
}

func TestQuery_CancelledContext(t *testing.T) {
	store := NewStore(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Query(ctx, domain.DenseVector{1}, nil, 1)
	assert.ErrorIs(t, err, context.Canceled)
}
