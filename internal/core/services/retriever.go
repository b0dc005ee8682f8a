package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/Pranavharshans/pdf-rag/internal/core/domain"
	"github.com/Pranavharshans/pdf-rag/internal/core/ports/driven"
	"github.com/Pranavharshans/pdf-rag/internal/core/ports/driving"
	"github.com/Pranavharshans/pdf-rag/internal/logger"
	"github.com/Pranavharshans/pdf-rag/internal/sparse"
)

// Ensure RetrieverService implements the interface.
var _ driving.Retriever = (*RetrieverService)(nil)

// RetrieverConfig configures the hybrid query engine.
type RetrieverConfig struct {
	// TopK is the number of results to return.
	TopK int

	// Alpha balances dense against sparse relevance: 1 is dense-only,
	// 0 is sparse-only. The zero value therefore means pure sparse
	// retrieval; it is never defaulted, callers wanting balanced
	// fusion must set it (the config file defaults it to 0.5).
	Alpha float64
}

// RetrieverService is the hybrid query engine. It encodes a question
// both densely and sparsely, scales the two by alpha before querying,
// and returns the fused top-k.
type RetrieverService struct {
	embedder  driven.EmbeddingService
	encoder   *sparse.Encoder
	store     driven.VectorStore
	snapshots driven.SnapshotStore
	cfg       RetrieverConfig

	mu sync.Mutex
}

// NewRetrieverService creates the hybrid query engine. The sparse
// encoder is shared with the indexer; when the current process never
// indexed, the fitted model is restored lazily from the snapshot
// store on the first query. TopK is defaulted when unset; Alpha is
// not, since 0 is the valid sparse-only setting.
func NewRetrieverService(
	embedder driven.EmbeddingService,
	encoder *sparse.Encoder,
	store driven.VectorStore,
	snapshots driven.SnapshotStore,
	cfg RetrieverConfig,
) *RetrieverService {
	if cfg.TopK <= 0 {
		cfg.TopK = 6
	}
	return &RetrieverService{
		embedder:  embedder,
		encoder:   encoder,
		store:     store,
		snapshots: snapshots,
		cfg:       cfg,
	}
}

// Retrieve returns the fused top-k chunks for the question. An empty
// index yields an empty result set, not an error.
func (s *RetrieverService) Retrieve(ctx context.Context, question string) ([]domain.RetrievalResult, error) {
	desc, err := s.store.Describe(ctx)
	if err != nil {
		return nil, fmt.Errorf("describing index: %w", err)
	}
	if desc.Count == 0 {
		logger.Debug("Index is empty, returning no results")
		return nil, nil
	}

	if err := s.ensureFitted(ctx); err != nil {
		return nil, err
	}

	sparseVec, err := s.encoder.Encode(question)
	if err != nil {
		return nil, fmt.Errorf("sparse-encoding question: %w", err)
	}

	vectors, err := s.embedder.EmbedBatch(ctx, []string{question})
	if err != nil {
		return nil, fmt.Errorf("embedding question: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("embedding service returned %d vectors for one question", len(vectors))
	}

	dense, sparseScaled := scaleHybrid(vectors[0], sparseVec, s.cfg.Alpha)

	results, err := s.store.Query(ctx, dense, sparseScaled, s.cfg.TopK)
	if err != nil {
		return nil, fmt.Errorf("querying index: %w", err)
	}

	sortResults(results)
	logger.Debug("Retrieved %d chunks for question", len(results))
	return results, nil
}

// ensureFitted restores the sparse model from its snapshot when this
// process has not fitted one itself.
func (s *RetrieverService) ensureFitted(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.encoder.Fitted() {
		return nil
	}

	snap, ok, err := s.snapshots.LoadSparseModel(ctx)
	if err != nil {
		return fmt.Errorf("loading sparse model: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: index exists but no sparse model snapshot was found, reindex required", domain.ErrModelNotFitted)
	}
	if err := s.encoder.Restore(snap); err != nil {
		return fmt.Errorf("restoring sparse model: %w", err)
	}
	logger.Debug("Sparse model restored from snapshot (%d terms)", len(snap.DocFreq))
	return nil
}

// scaleHybrid applies the alpha convention: the dense vector is
// scaled by alpha and the sparse weights by (1-alpha) before the
// query, so the store's single dot-product computes the weighted sum
// of both similarities.
func scaleHybrid(dense domain.DenseVector, sparseVec domain.SparseVector, alpha float64) (domain.DenseVector, domain.SparseVector) {
	scaledDense := make(domain.DenseVector, len(dense))
	for i, v := range dense {
		scaledDense[i] = v * float32(alpha)
	}
	scaledSparse := make(domain.SparseVector, len(sparseVec))
	for idx, w := range sparseVec {
		scaledSparse[idx] = w * (1 - alpha)
	}
	return scaledDense, scaledSparse
}

// sortResults orders hits by descending score with a stable
// tie-break on document, page and chunk ordinal, so equal-score runs
// come back in corpus order.
func sortResults(results []domain.RetrievalResult) {
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Metadata.DocumentID != b.Metadata.DocumentID {
			return a.Metadata.DocumentID < b.Metadata.DocumentID
		}
		if a.Metadata.Page != b.Metadata.Page {
			return a.Metadata.Page < b.Metadata.Page
		}
		return chunkOrdinal(a.ChunkID) < chunkOrdinal(b.ChunkID)
	})
}

// chunkOrdinal extracts the per-page chunk index from a chunk ID of
// the form <doc>__p<page>__c<index>__<hash>.
func chunkOrdinal(id string) int {
	marker := strings.LastIndex(id, "__c")
	if marker < 0 {
		return 0
	}
	rest := id[marker+3:]
	end := strings.Index(rest, "__")
	if end >= 0 {
		rest = rest[:end]
	}
	n := 0
	for _, r := range rest {
		if r < '0' || r > '9' {
			return 0
		}
		n = n*10 + int(r-'0')
	}
	return n
}
