package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pranavharshans/pdf-rag/internal/adapters/driven/vectorstore/memory"
	"github.com/Pranavharshans/pdf-rag/internal/core/domain"
	"github.com/Pranavharshans/pdf-rag/internal/sparse"
)

type retrieverFixture struct {
	retriever *RetrieverService
	store     *memory.Store
	snapshots *fakeSnapshots
	embedder  *fakeEmbedder
	encoder   *sparse.Encoder
}

func newRetrieverFixture(cfg RetrieverConfig) *retrieverFixture {
	f := &retrieverFixture{
		store:     memory.NewStore(2),
		snapshots: &fakeSnapshots{},
		embedder:  newFakeEmbedder(2),
		encoder:   sparse.New(),
	}
	f.retriever = NewRetrieverService(f.embedder, f.encoder, f.store, f.snapshots, cfg)
	return f
}

// seedIndex fits the encoder over the texts and stores one entry per
// text with the given dense vectors.
func (f *retrieverFixture) seedIndex(t *testing.T, texts []string, dense []domain.DenseVector) {
	t.Helper()
	require.NoError(t, f.encoder.Fit(texts))

	entries := make([]domain.IndexEntry, len(texts))
	for i, text := range texts {
		sparseVec, err := f.encoder.Encode(text)
		require.NoError(t, err)
		entries[i] = domain.IndexEntry{
			ID:     text,
			Dense:  dense[i],
			Sparse: sparseVec,
			Metadata: domain.EntryMetadata{
				DocumentID: "doc.pdf",
				Page:       i + 1,
				Text:       text,
			},
		}
	}
	require.NoError(t, f.store.Upsert(context.Background(), entries))
}

func TestRetrieve_EmptyIndexYieldsEmptyResults(t *testing.T) {
	f := newRetrieverFixture(RetrieverConfig{TopK: 5, Alpha: 0.5})

	results, err := f.retriever.Retrieve(context.Background(), "anything at all")
	require.NoError(t, err)
	assert.Empty(t, results)
	// No embedding call happens for an empty index.
	assert.Zero(t, f.embedder.calls)
}

func TestRetrieve_DenseOnlyAtAlphaOne(t *testing.T) {
	f := newRetrieverFixture(RetrieverConfig{TopK: 2, Alpha: 1})
	f.seedIndex(t,
		[]string{"kernel scheduling preempts threads", "photosynthesis converts sunlight"},
		[]domain.DenseVector{{0, 1}, {1, 0}},
	)
	// The question's dense vector points at the sparse-mismatched
	// entry; alpha 1 must ignore the keyword overlap entirely.
	f.embedder.vectors["kernel scheduling"] = domain.DenseVector{1, 0}

	results, err := f.retriever.Retrieve(context.Background(), "kernel scheduling")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "photosynthesis converts sunlight", results[0].ChunkID)
}

func TestRetrieve_SparseOnlyAtAlphaZero(t *testing.T) {
	f := newRetrieverFixture(RetrieverConfig{TopK: 2, Alpha: 0})
	f.seedIndex(t,
		[]string{"kernel scheduling preempts threads", "photosynthesis converts sunlight"},
		[]domain.DenseVector{{0, 1}, {1, 0}},
	)
	f.embedder.vectors["kernel scheduling"] = domain.DenseVector{1, 0}

	results, err := f.retriever.Retrieve(context.Background(), "kernel scheduling")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "kernel scheduling preempts threads", results[0].ChunkID)
	// The dense-favoured entry shares no query terms, so its fused
	// score collapses to zero.
	assert.Zero(t, results[1].Score)
}

func TestRetrieve_FusesBothSignals(t *testing.T) {
	f := newRetrieverFixture(RetrieverConfig{TopK: 2, Alpha: 0.5})
	f.seedIndex(t,
		[]string{"kernel scheduling preempts threads", "photosynthesis converts sunlight"},
		[]domain.DenseVector{{0, 1}, {0.1, 0}},
	)
	// Weak dense pull toward the second entry, strong keyword match
	// on the first; the fused score keeps the keyword match on top.
	f.embedder.vectors["kernel scheduling"] = domain.DenseVector{1, 0}

	results, err := f.retriever.Retrieve(context.Background(), "kernel scheduling")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "kernel scheduling preempts threads", results[0].ChunkID)
}

func TestRetrieve_RestoresSparseModelFromSnapshot(t *testing.T) {
	ctx := context.Background()

	// Fit a separate encoder and persist its snapshot, as a previous
	// indexing process would have.
	indexEncoder := sparse.New()
	texts := []string{"kernel scheduling preempts threads", "photosynthesis converts sunlight"}
	require.NoError(t, indexEncoder.Fit(texts))
	snap, err := indexEncoder.Snapshot()
	require.NoError(t, err)

	f := newRetrieverFixture(RetrieverConfig{TopK: 2, Alpha: 0})
	require.NoError(t, f.snapshots.SaveSparseModel(ctx, snap))

	entries := make([]domain.IndexEntry, len(texts))
	for i, text := range texts {
		sparseVec, err := indexEncoder.Encode(text)
		require.NoError(t, err)
		entries[i] = domain.IndexEntry{
			ID:       text,
			Dense:    make(domain.DenseVector, 2),
			Sparse:   sparseVec,
			Metadata: domain.EntryMetadata{DocumentID: "doc.pdf", Page: i + 1, Text: text},
		}
	}
	require.NoError(t, f.store.Upsert(ctx, entries))

	require.False(t, f.encoder.Fitted())
	results, err := f.retriever.Retrieve(ctx, "photosynthesis")
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "photosynthesis converts sunlight", results[0].ChunkID)
	assert.True(t, f.encoder.Fitted())
}

func TestRetrieve_MissingSnapshotFails(t *testing.T) {
	f := newRetrieverFixture(RetrieverConfig{TopK: 2, Alpha: 0.5})
	require.NoError(t, f.store.Upsert(context.Background(), []domain.IndexEntry{{
		ID:    "orphan",
		Dense: make(domain.DenseVector, 2),
	}}))

	_, err := f.retriever.Retrieve(context.Background(), "question")
	assert.ErrorIs(t, err, domain.ErrModelNotFitted)
}

func TestSortResults_TieBreaksInCorpusOrder(t *testing.T) {
	results := []domain.RetrievalResult{
		{ChunkID: "b__p2__c1__11112222", Score: 1, Metadata: domain.EntryMetadata{DocumentID: "b.pdf", Page: 2}},
		{ChunkID: "a__p1__c1__33334444", Score: 1, Metadata: domain.EntryMetadata{DocumentID: "a.pdf", Page: 1}},
		{ChunkID: "a__p1__c0__55556666", Score: 1, Metadata: domain.EntryMetadata{DocumentID: "a.pdf", Page: 1}},
		{ChunkID: "z__p9__c0__77778888", Score: 2, Metadata: domain.EntryMetadata{DocumentID: "z.pdf", Page: 9}},
	}

	sortResults(results)

	assert.Equal(t, "z__p9__c0__77778888", results[0].ChunkID)
	assert.Equal(t, "a__p1__c0__55556666", results[1].ChunkID)
	assert.Equal(t, "a__p1__c1__33334444", results[2].ChunkID)
	assert.Equal(t, "b__p2__c1__11112222", results[3].ChunkID)
}

func TestChunkOrdinal(t *testing.T) {
	assert.Equal(t, 12, chunkOrdinal("report__p3__c12__abcd1234"))
	assert.Equal(t, 0, chunkOrdinal("no-marker"))
}
