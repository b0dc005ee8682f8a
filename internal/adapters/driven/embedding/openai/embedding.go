// Package openai provides the dense encoder adapter for
// OpenAI-compatible embedding APIs (OpenAI, OpenRouter, Azure).
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/Pranavharshans/pdf-rag/internal/core/domain"
	"github.com/Pranavharshans/pdf-rag/internal/core/ports/driven"
	"github.com/Pranavharshans/pdf-rag/internal/logger"
	"github.com/Pranavharshans/pdf-rag/internal/retry"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// Default configuration values.
const (
	DefaultBaseURL   = "https://api.openai.com/v1"
	DefaultModel     = "text-embedding-3-small"
	DefaultTimeout   = 60 * time.Second
	DefaultBatchSize = 100
	DefaultRate      = 2 // requests per second
)

// Config holds configuration for the embedding service.
type Config struct {
	// APIKey is the provider API key (required).
	APIKey string

	// BaseURL is the API base URL (default: https://api.openai.com/v1).
	BaseURL string

	// Model is the embedding model to use.
	Model string

	// Dimensions is the embedding vector size the pipeline expects.
	Dimensions int

	// BatchSize caps the number of texts sent per request.
	BatchSize int

	// Timeout is the per-request timeout.
	Timeout time.Duration

	// MaxAttempts bounds retries of transient failures per request.
	MaxAttempts int

	// RequestsPerSecond throttles outgoing requests proactively.
	RequestsPerSecond float64
}

// EmbeddingService generates dense embeddings over raw HTTP.
type EmbeddingService struct {
	client     *http.Client
	limiter    *rate.Limiter
	policy     retry.Policy
	baseURL    string
	apiKey     string
	model      string
	dimensions int
	batchSize  int
}

// embeddingRequest is the provider request format.
type embeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

// embeddingResponse is the provider response format.
type embeddingResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// transientError marks a failure worth retrying (rate limit, server
// error, timeout).
type transientError struct {
	err error
}

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

// NewEmbeddingService creates the adapter.
func NewEmbeddingService(cfg Config) (*EmbeddingService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: embedding API key is required", domain.ErrInvalidConfig)
	}
	if cfg.Dimensions <= 0 {
		return nil, fmt.Errorf("%w: embedding dimensions must be positive", domain.ErrInvalidConfig)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = DefaultRate
	}

	policy := retry.DefaultPolicy()
	if cfg.MaxAttempts > 0 {
		policy.MaxAttempts = cfg.MaxAttempts
	}
	policy.Retryable = func(err error) bool {
		var t *transientError
		return errors.As(err, &t)
	}

	return &EmbeddingService{
		client:     &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
		policy:     policy,
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
		batchSize:  cfg.BatchSize,
	}, nil
}

// EmbedBatch generates embeddings for the texts in input order,
// splitting them into provider-side batches. Transient failures are
// retried with bounded backoff; exhaustion surfaces
// domain.ErrEmbeddingUnavailable.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([]domain.DenseVector, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	vectors := make([]domain.DenseVector, len(texts))
	for start := 0; start < len(texts); start += s.batchSize {
		end := start + s.batchSize
		if end > len(texts) {
			end = len(texts)
		}

		batch := texts[start:end]
		logger.Debug("Embedding batch %d-%d of %d", start, end, len(texts))

		var batchVectors []domain.DenseVector
		err := retry.Do(ctx, s.policy, func(ctx context.Context) error {
			var reqErr error
			batchVectors, reqErr = s.embedOnce(ctx, batch)
			return reqErr
		})
		if err != nil {
			var t *transientError
			if errors.As(err, &t) {
				return nil, fmt.Errorf("%w: %v", domain.ErrEmbeddingUnavailable, err)
			}
			return nil, err
		}

		copy(vectors[start:], batchVectors)
	}

	return vectors, nil
}

// embedOnce performs a single provider request.
func (s *EmbeddingService) embedOnce(ctx context.Context, texts []string) ([]domain.DenseVector, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	jsonBody, err := json.Marshal(embeddingRequest{Model: s.model, Input: texts})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/embeddings", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &transientError{err: fmt.Errorf("send request: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &transientError{err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return nil, &transientError{err: fmt.Errorf("embedding API status %d: %s", resp.StatusCode, string(body))}
	}

	var embedResp embeddingResponse
	if err := json.Unmarshal(body, &embedResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if embedResp.Error != nil {
		return nil, fmt.Errorf("embedding API error: %s", embedResp.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embedding API status %d: %s", resp.StatusCode, string(body))
	}
	if len(embedResp.Data) != len(texts) {
		return nil, fmt.Errorf("embedding API returned %d vectors for %d texts", len(embedResp.Data), len(texts))
	}

	// Order by index; providers may reorder the data array.
	vectors := make([]domain.DenseVector, len(texts))
	for _, data := range embedResp.Data {
		if data.Index < 0 || data.Index >= len(texts) {
			return nil, fmt.Errorf("embedding API returned out-of-range index %d", data.Index)
		}
		if len(data.Embedding) != s.dimensions {
			return nil, fmt.Errorf("%w: got %d dimensions, expected %d",
				domain.ErrDimensionMismatch, len(data.Embedding), s.dimensions)
		}
		vec := make(domain.DenseVector, len(data.Embedding))
		for i, v := range data.Embedding {
			vec[i] = float32(v)
		}
		vectors[data.Index] = vec
	}
	return vectors, nil
}

// Dimensions returns the embedding vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}
