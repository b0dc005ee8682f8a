package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Pranavharshans/pdf-rag/internal/chunker"
	"github.com/Pranavharshans/pdf-rag/internal/core/domain"
	"github.com/Pranavharshans/pdf-rag/internal/core/ports/driven"
	"github.com/Pranavharshans/pdf-rag/internal/core/ports/driving"
	"github.com/Pranavharshans/pdf-rag/internal/logger"
	"github.com/Pranavharshans/pdf-rag/internal/sparse"
)

// Ensure IndexerService implements the interface.
var _ driving.IndexService = (*IndexerService)(nil)

// IndexerConfig configures the indexing pipeline.
type IndexerConfig struct {
	// EmbedWorkers bounds the parallel embedding requests in flight.
	EmbedWorkers int

	// EmbedGroupSize is the number of chunk texts handed to one
	// embedding call.
	EmbedGroupSize int
}

// IndexerService owns the lifecycle of the persisted index and of the
// sparse model: Empty -> Indexing -> Ready, with a forced path back
// through Indexing when the corpus changes.
type IndexerService struct {
	source    driven.DocumentSource
	chunker   *chunker.Chunker
	encoder   *sparse.Encoder
	embedder  driven.EmbeddingService
	store     driven.VectorStore
	snapshots driven.SnapshotStore
	cfg       IndexerConfig
}

// NewIndexerService creates the index orchestrator. The sparse encoder
// is shared with the retriever; only the orchestrator ever fits it.
func NewIndexerService(
	source driven.DocumentSource,
	chk *chunker.Chunker,
	encoder *sparse.Encoder,
	embedder driven.EmbeddingService,
	store driven.VectorStore,
	snapshots driven.SnapshotStore,
	cfg IndexerConfig,
) *IndexerService {
	if cfg.EmbedWorkers <= 0 {
		cfg.EmbedWorkers = 4
	}
	if cfg.EmbedGroupSize <= 0 {
		cfg.EmbedGroupSize = 100
	}
	return &IndexerService{
		source:    source,
		chunker:   chk,
		encoder:   encoder,
		embedder:  embedder,
		store:     store,
		snapshots: snapshots,
		cfg:       cfg,
	}
}

// CheckDimensions verifies at startup that the embedding service and
// the vector store agree on dimensionality. A mismatch is a fatal
// configuration error, not a per-call one.
func (s *IndexerService) CheckDimensions(ctx context.Context) error {
	desc, err := s.store.Describe(ctx)
	if err != nil {
		return fmt.Errorf("describing index: %w", err)
	}
	if desc.Dimension != 0 && desc.Dimension != s.embedder.Dimensions() {
		return fmt.Errorf("%w: store has %d, embedder produces %d",
			domain.ErrDimensionMismatch, desc.Dimension, s.embedder.Dimensions())
	}
	return nil
}

// Status reports the observable index state. Ready requires both a
// completed manifest and a store entry count that matches it; a torn
// indexing run therefore never reports Ready.
func (s *IndexerService) Status(ctx context.Context) (domain.IndexStatus, error) {
	desc, err := s.store.Describe(ctx)
	if err != nil {
		return domain.IndexStatus{}, fmt.Errorf("describing index: %w", err)
	}

	status := domain.IndexStatus{EntryCount: desc.Count}
	if desc.Count == 0 {
		status.State = domain.IndexStateEmpty
		return status, nil
	}

	manifest, ok, err := s.snapshots.LoadManifest(ctx)
	if err != nil {
		return domain.IndexStatus{}, fmt.Errorf("loading manifest: %w", err)
	}
	if ok && manifest.Completed && manifest.ChunkCount == desc.Count {
		status.State = domain.IndexStateReady
	} else {
		status.State = domain.IndexStateIndexing
	}
	return status, nil
}

// EnsureIndexed indexes the corpus unless the index is already Ready.
// Idempotent: a Ready index results in zero additional upserts.
func (s *IndexerService) EnsureIndexed(ctx context.Context) error {
	status, err := s.Status(ctx)
	if err != nil {
		return err
	}
	if status.State == domain.IndexStateReady {
		logger.Info("Index already contains %d entries, skipping indexing", status.EntryCount)
		return nil
	}

	logger.Section("Indexing")
	return s.run(ctx)
}

// ForceReindex wipes the store and the fitted model, then rebuilds
// both from the current corpus. Required because corpus changes
// invalidate the sparse term statistics and every stored vector.
func (s *IndexerService) ForceReindex(ctx context.Context) error {
	logger.Section("Force Reindex")

	if err := s.snapshots.Reset(ctx); err != nil {
		return fmt.Errorf("resetting snapshot store: %w", err)
	}
	if err := s.store.DeleteAll(ctx); err != nil {
		return fmt.Errorf("clearing index: %w", err)
	}
	logger.Info("Existing entries deleted")

	return s.run(ctx)
}

// run executes one full indexing pass: load, chunk, fit, embed,
// encode, upsert, then acknowledge completion in the manifest.
func (s *IndexerService) run(ctx context.Context) error {
	if err := s.CheckDimensions(ctx); err != nil {
		return err
	}

	docs, err := s.source.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading corpus: %w", err)
	}
	if len(docs) == 0 {
		return domain.ErrNoDocuments
	}

	var chunks []domain.Chunk
	for _, doc := range docs {
		docChunks := s.chunker.ChunkDocument(doc)
		logger.Debug("Chunked %s: %d chunks", doc.ID, len(docChunks))
		chunks = append(chunks, docChunks...)
	}
	if len(chunks) == 0 {
		return domain.ErrNoDocuments
	}
	logger.Info("Chunked %d documents into %d chunks", len(docs), len(chunks))

	// Record the run before writing entries so Status reports
	// Indexing, not Ready, if anything below fails.
	if err := s.snapshots.SaveManifest(ctx, domain.IndexManifest{ChunkCount: int64(len(chunks))}); err != nil {
		return fmt.Errorf("recording manifest: %w", err)
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}

	// The fit must complete before any encode that depends on it.
	if err := s.encoder.Fit(texts); err != nil {
		return fmt.Errorf("fitting sparse model: %w", err)
	}
	snap, err := s.encoder.Snapshot()
	if err != nil {
		return fmt.Errorf("snapshotting sparse model: %w", err)
	}
	if err := s.snapshots.SaveSparseModel(ctx, snap); err != nil {
		return fmt.Errorf("persisting sparse model: %w", err)
	}
	logger.Info("Sparse model fitted over %d chunks", len(chunks))

	dense, err := s.embedAll(ctx, texts)
	if err != nil {
		return fmt.Errorf("embedding chunks: %w", err)
	}
	logger.Info("Dense vectors computed")

	entries := make([]domain.IndexEntry, len(chunks))
	for i, chunk := range chunks {
		sparseVec, err := s.encoder.Encode(chunk.Text)
		if err != nil {
			return fmt.Errorf("sparse-encoding chunk %s: %w", chunk.ID, err)
		}
		entries[i] = domain.IndexEntry{
			ID:     chunk.ID,
			Dense:  dense[i],
			Sparse: sparseVec,
			Metadata: domain.EntryMetadata{
				DocumentID: chunk.DocumentID,
				Page:       chunk.Page,
				Text:       chunk.Text,
			},
		}
	}

	if err := s.store.Upsert(ctx, entries); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrIndexingIncomplete, err)
	}

	manifest := domain.IndexManifest{
		ChunkCount:  int64(len(entries)),
		Completed:   true,
		CompletedAt: time.Now(),
	}
	if err := s.snapshots.SaveManifest(ctx, manifest); err != nil {
		return fmt.Errorf("%w: acknowledging manifest: %v", domain.ErrIndexingIncomplete, err)
	}

	logger.Info("Indexing complete: %d entries", len(entries))
	return nil
}

// embedAll computes dense vectors for every text with bounded
// parallelism. Results land in input order regardless of which
// request finishes first.
func (s *IndexerService) embedAll(ctx context.Context, texts []string) ([]domain.DenseVector, error) {
	vectors := make([]domain.DenseVector, len(texts))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.EmbedWorkers)

	for start := 0; start < len(texts); start += s.cfg.EmbedGroupSize {
		end := start + s.cfg.EmbedGroupSize
		if end > len(texts) {
			end = len(texts)
		}

		g.Go(func() error {
			group, err := s.embedder.EmbedBatch(ctx, texts[start:end])
			if err != nil {
				return err
			}
			if len(group) != end-start {
				return errors.New("embedding service returned a short batch")
			}
			copy(vectors[start:end], group)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return vectors, nil
}
