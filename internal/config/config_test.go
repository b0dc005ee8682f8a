package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pranavharshans/pdf-rag/internal/core/domain"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pdfrag.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_EmptyPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 800, cfg.Chunking.Window)
	assert.Equal(t, 150, cfg.Chunking.Overlap)
	assert.Equal(t, 1.2, cfg.Sparse.K1)
	assert.Equal(t, 0.75, cfg.Sparse.B)
	assert.Equal(t, 6, cfg.Retrieval.TopK)
	assert.Equal(t, 0.5, cfg.Retrieval.Alpha)
	assert.Equal(t, "pinecone", cfg.Store.Provider)
}

func TestLoad_MissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
[chunking]
window = 400
overlap = 50

[retrieval]
alpha = 0.7

[vector_store]
provider = "memory"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 400, cfg.Chunking.Window)
	assert.Equal(t, 50, cfg.Chunking.Overlap)
	assert.Equal(t, 0.7, cfg.Retrieval.Alpha)
	assert.Equal(t, "memory", cfg.Store.Provider)
	// Untouched sections keep their defaults.
	assert.Equal(t, 1.2, cfg.Sparse.K1)
}

func TestLoad_MalformedTOMLFails(t *testing.T) {
	path := writeConfig(t, `[chunking window = `)
	_, err := Load(path)
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}

func TestValidate_RejectsOutOfRangeSettings(t *testing.T) {
	cases := map[string]func(*Config){
		"zero window":         func(c *Config) { c.Chunking.Window = 0 },
		"overlap >= window":   func(c *Config) { c.Chunking.Overlap = c.Chunking.Window },
		"negative k1":         func(c *Config) { c.Sparse.K1 = -1 },
		"b above one":         func(c *Config) { c.Sparse.B = 1.5 },
		"empty snapshot path": func(c *Config) { c.Sparse.SnapshotPath = "" },
		"zero dimensions":     func(c *Config) { c.Embedding.Dimensions = 0 },
		"zero top_k":          func(c *Config) { c.Retrieval.TopK = 0 },
		"alpha above one":     func(c *Config) { c.Retrieval.Alpha = 1.1 },
		"unknown provider":    func(c *Config) { c.Store.Provider = "chroma" },
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			cfg.Store.Provider = "memory"
			mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), domain.ErrInvalidConfig)
		})
	}
}

func TestValidate_DefaultsAreValid(t *testing.T) {
	assert.NoError(t, Default().Validate())
}

func TestValidate_AlphaBoundariesAllowed(t *testing.T) {
	for _, alpha := range []float64{0, 1} {
		cfg := Default()
		cfg.Store.Provider = "memory"
		cfg.Retrieval.Alpha = alpha
		assert.NoError(t, cfg.Validate())
	}
}

func TestAPIKey_ReadsEnvironment(t *testing.T) {
	t.Setenv("PDFRAG_TEST_KEY", "secret")
	assert.Equal(t, "secret", APIKey("PDFRAG_TEST_KEY"))
	assert.Empty(t, APIKey("PDFRAG_TEST_KEY_ABSENT"))
}
