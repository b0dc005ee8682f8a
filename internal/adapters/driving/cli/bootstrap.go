package cli

import (
	"fmt"
	"time"

	"github.com/Pranavharshans/pdf-rag/internal/adapters/driven/corpus/filesystem"
	"github.com/Pranavharshans/pdf-rag/internal/adapters/driven/embedding/openai"
	"github.com/Pranavharshans/pdf-rag/internal/adapters/driven/generation/groq"
	"github.com/Pranavharshans/pdf-rag/internal/adapters/driven/storage/sqlite"
	"github.com/Pranavharshans/pdf-rag/internal/adapters/driven/vectorstore/memory"
	"github.com/Pranavharshans/pdf-rag/internal/adapters/driven/vectorstore/pinecone"
	"github.com/Pranavharshans/pdf-rag/internal/chunker"
	"github.com/Pranavharshans/pdf-rag/internal/config"
	"github.com/Pranavharshans/pdf-rag/internal/core/ports/driven"
	coresvc "github.com/Pranavharshans/pdf-rag/internal/core/services"
	"github.com/Pranavharshans/pdf-rag/internal/sparse"
)

// bootstrap builds the production service graph from the
// configuration file at path (or the defaults when path is empty).
func bootstrap(path string) (*Services, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	snapshots, err := sqlite.NewStore(cfg.Sparse.SnapshotPath)
	if err != nil {
		return nil, fmt.Errorf("opening snapshot store: %w", err)
	}

	store, err := buildVectorStore(cfg)
	if err != nil {
		snapshots.Close()
		return nil, err
	}

	embedder, err := openai.NewEmbeddingService(openai.Config{
		APIKey:            config.APIKey(cfg.Embedding.APIKeyEnv),
		BaseURL:           cfg.Embedding.BaseURL,
		Model:             cfg.Embedding.Model,
		Dimensions:        cfg.Embedding.Dimensions,
		BatchSize:         cfg.Embedding.BatchSize,
		Timeout:           config.Timeout(cfg.Embedding.TimeoutSecs, 60*time.Second),
		MaxAttempts:       cfg.Embedding.MaxAttempts,
		RequestsPerSecond: cfg.Embedding.RateLimit,
	})
	if err != nil {
		snapshots.Close()
		return nil, err
	}

	generator, err := groq.NewGenerationService(groq.Config{
		APIKey:      config.APIKey(cfg.Generation.APIKeyEnv),
		BaseURL:     cfg.Generation.BaseURL,
		Model:       cfg.Generation.Model,
		MaxTokens:   cfg.Generation.MaxTokens,
		Temperature: cfg.Generation.Temperature,
		Timeout:     config.Timeout(cfg.Generation.TimeoutSecs, 120*time.Second),
		MaxAttempts: cfg.Generation.MaxAttempts,
	})
	if err != nil {
		snapshots.Close()
		return nil, err
	}

	encoder := sparse.New(sparse.WithK1(cfg.Sparse.K1), sparse.WithB(cfg.Sparse.B))
	chk := chunker.New(
		chunker.WithWindow(cfg.Chunking.Window),
		chunker.WithOverlap(cfg.Chunking.Overlap),
	)
	source := filesystem.New(cfg.Corpus.Dir)

	indexer := coresvc.NewIndexerService(source, chk, encoder, embedder, store, snapshots, coresvc.IndexerConfig{
		EmbedGroupSize: cfg.Embedding.BatchSize,
	})
	retriever := coresvc.NewRetrieverService(embedder, encoder, store, snapshots, coresvc.RetrieverConfig{
		TopK:  cfg.Retrieval.TopK,
		Alpha: cfg.Retrieval.Alpha,
	})
	answerer := coresvc.NewAnswererService(retriever, generator, coresvc.AnswererConfig{
		MinScore: cfg.Retrieval.MinScore,
	})

	return &Services{
		Index:     indexer,
		Answer:    answerer,
		Retriever: retriever,
		Close:     snapshots.Close,
	}, nil
}

func buildVectorStore(cfg config.Config) (driven.VectorStore, error) {
	switch cfg.Store.Provider {
	case "memory":
		return memory.NewStore(cfg.Embedding.Dimensions), nil
	default:
		return pinecone.NewStore(pinecone.Config{
			APIKey:    config.APIKey(cfg.Store.APIKeyEnv),
			IndexHost: cfg.Store.IndexHost,
			Namespace: cfg.Store.Namespace,
			Timeout:   config.Timeout(cfg.Store.TimeoutSecs, 30*time.Second),
		})
	}
}
