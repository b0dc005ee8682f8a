// Package config loads the pdfrag TOML configuration file, applies
// defaults and validates the result. Invalid settings are fatal at
// load time and never retried.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/Pranavharshans/pdf-rag/internal/core/domain"
)

// Config is the full application configuration.
type Config struct {
	Corpus     CorpusConfig     `toml:"corpus"`
	Chunking   ChunkingConfig   `toml:"chunking"`
	Sparse     SparseConfig     `toml:"sparse"`
	Embedding  EmbeddingConfig  `toml:"embedding"`
	Generation GenerationConfig `toml:"generation"`
	Store      StoreConfig      `toml:"vector_store"`
	Retrieval  RetrievalConfig  `toml:"retrieval"`
}

// CorpusConfig locates the extracted corpus.
type CorpusConfig struct {
	// Dir holds one JSON file per extracted PDF.
	Dir string `toml:"dir"`
}

// ChunkingConfig controls the token-window chunker.
type ChunkingConfig struct {
	Window  int `toml:"window"`
	Overlap int `toml:"overlap"`
}

// SparseConfig controls the BM25 model and its snapshot location.
type SparseConfig struct {
	K1 float64 `toml:"k1"`
	B  float64 `toml:"b"`

	// SnapshotPath is the SQLite file holding the fitted model and
	// the index manifest.
	SnapshotPath string `toml:"snapshot_path"`
}

// EmbeddingConfig controls the dense encoder adapter.
type EmbeddingConfig struct {
	BaseURL     string  `toml:"base_url"`
	Model       string  `toml:"model"`
	Dimensions  int     `toml:"dimensions"`
	BatchSize   int     `toml:"batch_size"`
	MaxAttempts int     `toml:"max_attempts"`
	TimeoutSecs int     `toml:"timeout_seconds"`
	RateLimit   float64 `toml:"requests_per_second"`

	// APIKeyEnv names the environment variable holding the API key.
	APIKeyEnv string `toml:"api_key_env"`
}

// GenerationConfig controls the streamed answer generator adapter.
type GenerationConfig struct {
	BaseURL     string  `toml:"base_url"`
	Model       string  `toml:"model"`
	MaxTokens   int     `toml:"max_tokens"`
	Temperature float64 `toml:"temperature"`
	MaxAttempts int     `toml:"max_attempts"`
	TimeoutSecs int     `toml:"timeout_seconds"`
	APIKeyEnv   string  `toml:"api_key_env"`
}

// StoreConfig selects and configures the vector store.
type StoreConfig struct {
	// Provider is "pinecone" or "memory". The memory provider exists
	// for local experiments and tests.
	Provider string `toml:"provider"`

	// IndexHost is the Pinecone index endpoint, e.g.
	// "https://my-index-abc123.svc.us-east-1.pinecone.io".
	IndexHost string `toml:"index_host"`

	Namespace   string `toml:"namespace"`
	TimeoutSecs int    `toml:"timeout_seconds"`
	APIKeyEnv   string `toml:"api_key_env"`
}

// RetrievalConfig controls the hybrid query engine.
type RetrievalConfig struct {
	TopK int `toml:"top_k"`

	// Alpha weighs dense against sparse similarity: 1 is pure dense,
	// 0 is pure sparse.
	Alpha float64 `toml:"alpha"`

	// MinScore is the best-hit score below which retrieval is
	// treated as having found no evidence.
	MinScore float64 `toml:"min_score"`
}

// Default returns the configuration used when no file overrides it.
func Default() Config {
	return Config{
		Corpus:   CorpusConfig{Dir: "data/extracted"},
		Chunking: ChunkingConfig{Window: 800, Overlap: 150},
		Sparse: SparseConfig{
			K1:           1.2,
			B:            0.75,
			SnapshotPath: "data/sparse_model.db",
		},
		Embedding: EmbeddingConfig{
			BaseURL:     "https://openrouter.ai/api/v1",
			Model:       "openai/text-embedding-3-small",
			Dimensions:  1536,
			BatchSize:   100,
			MaxAttempts: 3,
			TimeoutSecs: 60,
			RateLimit:   2,
			APIKeyEnv:   "OPENROUTER_API_KEY",
		},
		Generation: GenerationConfig{
			BaseURL:     "https://api.groq.com/openai/v1",
			Model:       "openai/gpt-oss-20b",
			MaxTokens:   1024,
			Temperature: 0.1,
			MaxAttempts: 3,
			TimeoutSecs: 120,
			APIKeyEnv:   "GROQ_API_KEY",
		},
		Store: StoreConfig{
			Provider:    "pinecone",
			TimeoutSecs: 30,
			APIKeyEnv:   "PINECONE_API_KEY",
		},
		Retrieval: RetrievalConfig{
			TopK:     6,
			Alpha:    0.5,
			MinScore: 0.3,
		},
	}
}

// Load reads the TOML file at path on top of the defaults. A missing
// file is not an error when path is empty; an unreadable or invalid
// file is.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(filepath.Clean(path))
		if err != nil {
			return Config{}, fmt.Errorf("%w: reading %s: %v", domain.ErrInvalidConfig, path, err)
		}
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("%w: parsing %s: %v", domain.ErrInvalidConfig, path, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the settings that would otherwise fail deep inside
// the pipeline.
func (c Config) Validate() error {
	fail := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", domain.ErrInvalidConfig, fmt.Sprintf(format, args...))
	}

	if c.Chunking.Window <= 0 {
		return fail("chunking.window must be positive, got %d", c.Chunking.Window)
	}
	if c.Chunking.Overlap < 0 || c.Chunking.Overlap >= c.Chunking.Window {
		return fail("chunking.overlap must be in [0, window), got %d", c.Chunking.Overlap)
	}
	if c.Sparse.K1 <= 0 {
		return fail("sparse.k1 must be positive, got %g", c.Sparse.K1)
	}
	if c.Sparse.B < 0 || c.Sparse.B > 1 {
		return fail("sparse.b must be in [0, 1], got %g", c.Sparse.B)
	}
	if c.Sparse.SnapshotPath == "" {
		return fail("sparse.snapshot_path is required")
	}
	if c.Embedding.Dimensions <= 0 {
		return fail("embedding.dimensions must be positive, got %d", c.Embedding.Dimensions)
	}
	if c.Embedding.BatchSize <= 0 {
		return fail("embedding.batch_size must be positive, got %d", c.Embedding.BatchSize)
	}
	if c.Retrieval.TopK <= 0 {
		return fail("retrieval.top_k must be positive, got %d", c.Retrieval.TopK)
	}
	if c.Retrieval.Alpha < 0 || c.Retrieval.Alpha > 1 {
		return fail("retrieval.alpha must be in [0, 1], got %g", c.Retrieval.Alpha)
	}
	// The pinecone adapter checks its own host and key requirements,
	// so the defaults stay loadable without a config file.
	switch c.Store.Provider {
	case "pinecone", "memory":
	default:
		return fail("vector_store.provider must be pinecone or memory, got %q", c.Store.Provider)
	}
	return nil
}

// APIKey resolves the named environment variable. Required keys are
// checked by the adapters that need them.
func APIKey(envName string) string {
	return os.Getenv(envName)
}

// Timeout converts a seconds setting into a duration with a fallback.
func Timeout(secs int, fallback time.Duration) time.Duration {
	if secs <= 0 {
		return fallback
	}
	return time.Duration(secs) * time.Second
}
