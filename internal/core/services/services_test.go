package services

import (
	"context"
	"io"
	"sync"

	"github.com/Pranavharshans/pdf-rag/internal/core/domain"
	"github.com/Pranavharshans/pdf-rag/internal/core/ports/driven"
)

// fakeSource serves a fixed corpus.
type fakeSource struct {
	docs []domain.Document
	err  error
}

func (f *fakeSource) Load(context.Context) ([]domain.Document, error) {
	return f.docs, f.err
}

// fakeEmbedder returns scripted vectors per text and zero vectors for
// anything unscripted, so tests control the dense geometry exactly.
type fakeEmbedder struct {
	dim     int
	vectors map[string]domain.DenseVector

	mu    sync.Mutex
	calls int
}

func newFakeEmbedder(dim int) *fakeEmbedder {
	return &fakeEmbedder{dim: dim, vectors: make(map[string]domain.DenseVector)}
}

func (f *fakeEmbedder) EmbedBatch(_ context.Context, texts []string) ([]domain.DenseVector, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	out := make([]domain.DenseVector, len(texts))
	for i, text := range texts {
		if vec, ok := f.vectors[text]; ok {
			out[i] = vec
			continue
		}
		out[i] = make(domain.DenseVector, f.dim)
	}
	return out, nil
}

func (f *fakeEmbedder) Dimensions() int { return f.dim }

// fakeSnapshots implements the snapshot store in memory.
type fakeSnapshots struct {
	mu          sync.Mutex
	snap        domain.SparseModelSnapshot
	hasSnap     bool
	manifest    domain.IndexManifest
	hasManifest bool
}

func (f *fakeSnapshots) SaveSparseModel(_ context.Context, snap domain.SparseModelSnapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snap, f.hasSnap = snap, true
	return nil
}

func (f *fakeSnapshots) LoadSparseModel(context.Context) (domain.SparseModelSnapshot, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snap, f.hasSnap, nil
}

func (f *fakeSnapshots) SaveManifest(_ context.Context, m domain.IndexManifest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.manifest, f.hasManifest = m, true
	return nil
}

func (f *fakeSnapshots) LoadManifest(context.Context) (domain.IndexManifest, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.manifest, f.hasManifest, nil
}

func (f *fakeSnapshots) Reset(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hasSnap, f.hasManifest = false, false
	return nil
}

// countingStore wraps a vector store and counts upserts.
type countingStore struct {
	driven.VectorStore

	mu       sync.Mutex
	upserts  int
	upsertFn func([]domain.IndexEntry) error
}

func (c *countingStore) Upsert(ctx context.Context, entries []domain.IndexEntry) error {
	c.mu.Lock()
	c.upserts++
	fn := c.upsertFn
	c.mu.Unlock()

	if err := c.VectorStore.Upsert(ctx, entries); err != nil {
		return err
	}
	if fn != nil {
		return fn(entries)
	}
	return nil
}

func (c *countingStore) upsertCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.upserts
}

// fakeRetriever returns a scripted result set, so answer tests can
// pin the evidence scores exactly.
type fakeRetriever struct {
	results []domain.RetrievalResult
	err     error
}

func (f *fakeRetriever) Retrieve(context.Context, string) ([]domain.RetrievalResult, error) {
	return f.results, f.err
}

// fakeGenerator yields a scripted answer, counting invocations and
// recording the prompt it was given.
type fakeGenerator struct {
	fragments []string
	err       error

	mu     sync.Mutex
	calls  int
	prompt string
}

func (f *fakeGenerator) GenerateStream(ctx context.Context, prompt string) (driven.Stream, error) {
	f.mu.Lock()
	f.calls++
	f.prompt = prompt
	f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}
	return &scriptedStream{ctx: ctx, fragments: f.fragments}, nil
}

func (f *fakeGenerator) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeGenerator) lastPrompt() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.prompt
}

// scriptedStream plays back fragments, honouring cancellation the way
// the real SSE stream does.
type scriptedStream struct {
	ctx       context.Context
	fragments []string
	pos       int
	failWith  error
}

func (s *scriptedStream) Recv() (string, error) {
	if err := s.ctx.Err(); err != nil {
		return "", err
	}
	if s.pos >= len(s.fragments) {
		if s.failWith != nil {
			return "", s.failWith
		}
		return "", io.EOF
	}
	fragment := s.fragments[s.pos]
	s.pos++
	return fragment, nil
}

func (s *scriptedStream) Close() error { return nil }
