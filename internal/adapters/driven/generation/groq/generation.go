// Package groq provides the streamed answer generation adapter for
// the Groq OpenAI-compatible chat completions API.
package groq

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Pranavharshans/pdf-rag/internal/core/domain"
	"github.com/Pranavharshans/pdf-rag/internal/core/ports/driven"
	"github.com/Pranavharshans/pdf-rag/internal/retry"
)

// Ensure GenerationService implements the interface.
var _ driven.GenerationService = (*GenerationService)(nil)

// Default configuration values.
const (
	DefaultBaseURL     = "https://api.groq.com/openai/v1"
	DefaultModel       = "openai/gpt-oss-20b"
	DefaultTimeout     = 120 * time.Second
	DefaultMaxTokens   = 1024
	DefaultTemperature = 0.1
)

// Config holds configuration for the generation service.
type Config struct {
	// APIKey is the Groq API key (required).
	APIKey string

	// BaseURL is the API base URL (default: https://api.groq.com/openai/v1).
	BaseURL string

	// Model is the chat model to use.
	Model string

	// MaxTokens caps the generated answer length.
	MaxTokens int

	// Temperature controls sampling randomness. Kept low so answers
	// stay close to the provided context.
	Temperature float64

	// Timeout bounds the whole request including streaming.
	Timeout time.Duration

	// MaxAttempts bounds retries of transient failures when opening
	// the stream. A stream that already delivered fragments is never
	// retried.
	MaxAttempts int
}

// GenerationService streams chat completions over SSE.
type GenerationService struct {
	client      *http.Client
	policy      retry.Policy
	baseURL     string
	apiKey      string
	model       string
	maxTokens   int
	temperature float64
}

// chatRequest is the provider request format.
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature"`
	Stream      bool          `json:"stream"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// streamEvent is one SSE data payload.
type streamEvent struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
}

// transientError marks a failure worth retrying.
type transientError struct {
	err error
}

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

// NewGenerationService creates the adapter.
func NewGenerationService(cfg Config) (*GenerationService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: generation API key is required", domain.ErrInvalidConfig)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = DefaultTemperature
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	policy := retry.DefaultPolicy()
	if cfg.MaxAttempts > 0 {
		policy.MaxAttempts = cfg.MaxAttempts
	}
	policy.Retryable = func(err error) bool {
		var t *transientError
		return errors.As(err, &t)
	}

	return &GenerationService{
		client:      &http.Client{Timeout: cfg.Timeout},
		policy:      policy,
		baseURL:     cfg.BaseURL,
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
	}, nil
}

// GenerateStream opens a streaming completion for the prompt.
// Transient failures while opening the stream are retried with
// bounded backoff; exhaustion surfaces domain.ErrGenerationUnavailable.
func (s *GenerationService) GenerateStream(ctx context.Context, prompt string) (driven.Stream, error) {
	var st driven.Stream
	err := retry.Do(ctx, s.policy, func(ctx context.Context) error {
		var openErr error
		st, openErr = s.open(ctx, prompt)
		return openErr
	})
	if err != nil {
		var t *transientError
		if errors.As(err, &t) {
			return nil, fmt.Errorf("%w: %v", domain.ErrGenerationUnavailable, err)
		}
		return nil, err
	}
	return st, nil
}

// open performs a single connection attempt.
func (s *GenerationService) open(ctx context.Context, prompt string) (driven.Stream, error) {
	reqBody := chatRequest{
		Model:       s.model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		MaxTokens:   s.maxTokens,
		Temperature: s.temperature,
		Stream:      true,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/chat/completions", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Accept", "text/event-stream")

	resp, err := s.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &transientError{err: fmt.Errorf("send request: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		failure := fmt.Errorf("generation API status %d: %s", resp.StatusCode, string(body))
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return nil, &transientError{err: failure}
		}
		return nil, failure
	}

	return &sseStream{
		ctx:     ctx,
		body:    resp.Body,
		scanner: bufio.NewScanner(resp.Body),
	}, nil
}

// sseStream pulls fragments out of an SSE response body. Fragments
// are yielded in emission order; nothing is buffered beyond the line
// needed to detect end-of-stream.
type sseStream struct {
	ctx     context.Context
	body    io.ReadCloser
	scanner *bufio.Scanner
	done    bool
	final   error
}

// Recv returns the next text fragment, io.EOF at end-of-stream, or
// the context error when cancelled. Cancellation is checked before
// every pull so no fragment is emitted after it is observed.
func (s *sseStream) Recv() (string, error) {
	if s.done {
		if s.final != nil {
			return "", s.final
		}
		return "", io.EOF
	}
	if err := s.ctx.Err(); err != nil {
		s.final = err
		s.close()
		return "", err
	}

	for s.scanner.Scan() {
		line := strings.TrimSpace(s.scanner.Text())
		if !strings.HasPrefix(line, "data:") {
			continue
		}

		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if payload == "[DONE]" {
			s.close()
			return "", io.EOF
		}

		var event streamEvent
		if err := json.Unmarshal([]byte(payload), &event); err != nil {
			s.final = fmt.Errorf("decode stream event: %w", err)
			s.close()
			return "", s.final
		}
		if len(event.Choices) == 0 {
			continue
		}
		if content := event.Choices[0].Delta.Content; content != "" {
			return content, nil
		}
		// Delta without content: either a role preamble or the
		// finish event. Keep pulling until [DONE].
	}

	s.close()
	if err := s.ctx.Err(); err != nil {
		s.final = err
		return "", err
	}
	if err := s.scanner.Err(); err != nil {
		s.final = fmt.Errorf("read stream: %w", err)
		return "", s.final
	}
	return "", io.EOF
}

// Close releases the underlying connection.
func (s *sseStream) Close() error {
	s.close()
	return nil
}

func (s *sseStream) close() {
	if !s.done {
		s.done = true
		s.body.Close()
	}
}
