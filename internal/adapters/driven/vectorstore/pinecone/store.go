// Package pinecone implements the vector store port against the
// Pinecone data-plane HTTP API. Each entry carries dense values and
// sparse values under one ID; queries pass a pre-scaled dense and
// sparse pair and Pinecone fuses them with a single dot-product.
package pinecone

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/Pranavharshans/pdf-rag/internal/core/domain"
	"github.com/Pranavharshans/pdf-rag/internal/core/ports/driven"
	"github.com/Pranavharshans/pdf-rag/internal/logger"
)

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

// Default configuration values.
const (
	DefaultTimeout = 30 * time.Second

	// UpsertBatchSize caps vectors per upsert request, per the
	// Pinecone API guidance.
	UpsertBatchSize = 100
)

// Config holds configuration for the Pinecone store.
type Config struct {
	// APIKey is the Pinecone API key (required).
	APIKey string

	// IndexHost is the index data-plane endpoint (required), e.g.
	// "https://my-index-abc123.svc.us-east-1.pinecone.io".
	IndexHost string

	// Namespace scopes all operations. Empty uses the default
	// namespace.
	Namespace string

	// Timeout is the per-request timeout.
	Timeout time.Duration
}

// Store talks to one Pinecone index.
type Store struct {
	client    *http.Client
	host      string
	apiKey    string
	namespace string
}

// Wire formats for the Pinecone data-plane API.

type sparseValues struct {
	Indices []uint32  `json:"indices"`
	Values  []float64 `json:"values"`
}

type upsertVector struct {
	ID           string         `json:"id"`
	Values       []float32      `json:"values"`
	SparseValues *sparseValues  `json:"sparseValues,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

type upsertRequest struct {
	Vectors   []upsertVector `json:"vectors"`
	Namespace string         `json:"namespace,omitempty"`
}

type queryRequest struct {
	Vector          []float32     `json:"vector"`
	SparseVector    *sparseValues `json:"sparseVector,omitempty"`
	TopK            int           `json:"topK"`
	Namespace       string        `json:"namespace,omitempty"`
	IncludeMetadata bool          `json:"includeMetadata"`
}

type queryResponse struct {
	Matches []struct {
		ID       string         `json:"id"`
		Score    float64        `json:"score"`
		Metadata map[string]any `json:"metadata"`
	} `json:"matches"`
}

type deleteRequest struct {
	DeleteAll bool   `json:"deleteAll"`
	Namespace string `json:"namespace,omitempty"`
}

type statsResponse struct {
	TotalVectorCount int64 `json:"totalVectorCount"`
	Dimension        int   `json:"dimension"`
	Namespaces       map[string]struct {
		VectorCount int64 `json:"vectorCount"`
	} `json:"namespaces"`
}

type apiError struct {
	Message string `json:"message"`
}

// NewStore creates the adapter.
func NewStore(cfg Config) (*Store, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: pinecone API key is required", domain.ErrInvalidConfig)
	}
	if cfg.IndexHost == "" {
		return nil, fmt.Errorf("%w: pinecone index host is required", domain.ErrInvalidConfig)
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Store{
		client:    &http.Client{Timeout: cfg.Timeout},
		host:      cfg.IndexHost,
		apiKey:    cfg.APIKey,
		namespace: cfg.Namespace,
	}, nil
}

// Upsert writes entries in batches. Entries are keyed by chunk ID, so
// retrying a partially applied batch is safe.
func (s *Store) Upsert(ctx context.Context, entries []domain.IndexEntry) error {
	for start := 0; start < len(entries); start += UpsertBatchSize {
		end := start + UpsertBatchSize
		if end > len(entries) {
			end = len(entries)
		}

		vectors := make([]upsertVector, 0, end-start)
		for _, entry := range entries[start:end] {
			vectors = append(vectors, upsertVector{
				ID:           entry.ID,
				Values:       entry.Dense,
				SparseValues: toSparseValues(entry.Sparse),
				Metadata: map[string]any{
					"source_pdf": entry.Metadata.DocumentID,
					"page":       entry.Metadata.Page,
					"text":       entry.Metadata.Text,
				},
			})
		}

		req := upsertRequest{Vectors: vectors, Namespace: s.namespace}
		if err := s.post(ctx, "/vectors/upsert", req, nil); err != nil {
			return fmt.Errorf("upserting batch %d-%d: %w", start, end, err)
		}
		logger.Debug("Upserted %d/%d vectors", end, len(entries))
	}
	return nil
}

// Query runs the fused nearest-neighbour search. The caller has
// already applied the alpha weighting to both vectors.
func (s *Store) Query(ctx context.Context, dense domain.DenseVector, sparse domain.SparseVector, topK int) ([]domain.RetrievalResult, error) {
	req := queryRequest{
		Vector:          dense,
		SparseVector:    toSparseValues(sparse),
		TopK:            topK,
		Namespace:       s.namespace,
		IncludeMetadata: true,
	}

	var resp queryResponse
	if err := s.post(ctx, "/query", req, &resp); err != nil {
		return nil, fmt.Errorf("querying index: %w", err)
	}

	results := make([]domain.RetrievalResult, 0, len(resp.Matches))
	for _, match := range resp.Matches {
		results = append(results, domain.RetrievalResult{
			ChunkID: match.ID,
			Score:   match.Score,
			Metadata: domain.EntryMetadata{
				DocumentID: stringField(match.Metadata, "source_pdf"),
				Page:       intField(match.Metadata, "page"),
				Text:       stringField(match.Metadata, "text"),
			},
		})
	}
	return results, nil
}

// DeleteAll removes every entry in the namespace.
func (s *Store) DeleteAll(ctx context.Context) error {
	req := deleteRequest{DeleteAll: true, Namespace: s.namespace}
	if err := s.post(ctx, "/vectors/delete", req, nil); err != nil {
		return fmt.Errorf("deleting all vectors: %w", err)
	}
	return nil
}

// Describe reports the entry count and configured dimensionality.
func (s *Store) Describe(ctx context.Context) (driven.IndexDescription, error) {
	var resp statsResponse
	if err := s.post(ctx, "/describe_index_stats", struct{}{}, &resp); err != nil {
		return driven.IndexDescription{}, fmt.Errorf("describing index: %w", err)
	}

	count := resp.TotalVectorCount
	if s.namespace != "" {
		count = resp.Namespaces[s.namespace].VectorCount
	}
	return driven.IndexDescription{
		Count:     count,
		Dimension: resp.Dimension,
		Ready:     true,
	}, nil
}

// post sends one JSON request and decodes the response into out when
// out is non-nil.
func (s *Store) post(ctx context.Context, path string, body, out any) error {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.host+path, bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Api-Key", s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr apiError
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Message != "" {
			return fmt.Errorf("pinecone status %d: %s", resp.StatusCode, apiErr.Message)
		}
		return fmt.Errorf("pinecone status %d: %s", resp.StatusCode, string(data))
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// toSparseValues converts the sparse map into Pinecone's parallel
// arrays, ordered by index for a stable wire form.
func toSparseValues(vec domain.SparseVector) *sparseValues {
	if len(vec) == 0 {
		return nil
	}

	sv := &sparseValues{
		Indices: make([]uint32, 0, len(vec)),
		Values:  make([]float64, 0, len(vec)),
	}
	for id := range vec {
		sv.Indices = append(sv.Indices, id)
	}
	// Sort indices so identical vectors serialise identically.
	sort.Slice(sv.Indices, func(i, j int) bool { return sv.Indices[i] < sv.Indices[j] })
	for _, id := range sv.Indices {
		sv.Values = append(sv.Values, vec[id])
	}
	return sv
}

func stringField(m map[string]any, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

func intField(m map[string]any, key string) int {
	if v, ok := m[key].(float64); ok {
		return int(v)
	}
	return 0
}
