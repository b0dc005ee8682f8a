// Package memory implements the vector store port in process memory.
// It exists for local experiments and tests; scoring matches the
// remote store's contract (one dot-product over the combined
// dense+sparse representation).
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/Pranavharshans/pdf-rag/internal/core/domain"
	"github.com/Pranavharshans/pdf-rag/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

// Store keeps entries in a map keyed by chunk ID.
type Store struct {
	mu        sync.RWMutex
	entries   map[string]domain.IndexEntry
	dimension int
}

// NewStore creates an empty store configured for the given dense
// dimensionality.
func NewStore(dimension int) *Store {
	return &Store{
		entries:   make(map[string]domain.IndexEntry),
		dimension: dimension,
	}
}

// Upsert writes entries keyed by chunk ID.
func (s *Store) Upsert(ctx context.Context, entries []domain.IndexEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, entry := range entries {
		s.entries[entry.ID] = entry
	}
	return nil
}

// Query scores every entry with a fused dot-product and returns the
// topK, ranked by descending score with chunk ID as the tie-break.
func (s *Store) Query(ctx context.Context, dense domain.DenseVector, sparse domain.SparseVector, topK int) ([]domain.RetrievalResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]domain.RetrievalResult, 0, len(s.entries))
	for _, entry := range s.entries {
		score := denseDot(dense, entry.Dense) + sparseDot(sparse, entry.Sparse)
		results = append(results, domain.RetrievalResult{
			ChunkID:  entry.ID,
			Score:    score,
			Metadata: entry.Metadata,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ChunkID < results[j].ChunkID
	})

	if topK > 0 && len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

// DeleteAll removes every entry.
func (s *Store) DeleteAll(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]domain.IndexEntry)
	return nil
}

// Describe reports the entry count and configured dimensionality.
func (s *Store) Describe(ctx context.Context) (driven.IndexDescription, error) {
	if err := ctx.Err(); err != nil {
		return driven.IndexDescription{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return driven.IndexDescription{
		Count:     int64(len(s.entries)),
		Dimension: s.dimension,
		Ready:     true,
	}, nil
}

func denseDot(a, b domain.DenseVector) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	var sum float64
	for i := 0; i < n; i++ {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

func sparseDot(a, b domain.SparseVector) float64 {
	// Iterate the smaller map.
	if len(b) < len(a) {
		a, b = b, a
	}

	var sum float64
	for id, w := range a {
		if other, ok := b[id]; ok {
			sum += w * other
		}
	}
	return sum
}
