// Package chunker splits extracted document text into overlapping
// retrievable units with stable positional metadata.
package chunker

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/google/uuid"

	"github.com/Pranavharshans/pdf-rag/internal/core/domain"
)

// DefaultWindow is the default chunk size in tokens.
const DefaultWindow = 800

// DefaultOverlap is the default overlap between consecutive chunks in
// tokens. Overlap is defined in tokens, not characters, to keep the
// sparse and dense encodings stable across chunk boundaries.
const DefaultOverlap = 150

// Chunker splits documents page by page into token windows.
// It is a pure function of its input and configuration.
type Chunker struct {
	window  int
	overlap int
}

// Option configures the chunker.
type Option func(*Chunker)

// WithWindow sets the chunk size in tokens.
func WithWindow(size int) Option {
	return func(c *Chunker) {
		if size > 0 {
			c.window = size
		}
	}
}

// WithOverlap sets the overlap between chunks in tokens.
func WithOverlap(overlap int) Option {
	return func(c *Chunker) {
		if overlap >= 0 {
			c.overlap = overlap
		}
	}
}

// New creates a chunker with the given options.
func New(opts ...Option) *Chunker {
	c := &Chunker{
		window:  DefaultWindow,
		overlap: DefaultOverlap,
	}

	for _, opt := range opts {
		opt(c)
	}

	// Overlap must leave room for the window to advance.
	if c.overlap >= c.window {
		c.overlap = c.window / 4
	}

	return c
}

// ChunkDocument splits every page of the document into chunks. The
// emitted chunks cover the full page text with no gaps; consecutive
// chunks of the same page share the configured token overlap, and a
// trailing partial window is kept as the final chunk of its page.
func (c *Chunker) ChunkDocument(doc domain.Document) []domain.Chunk {
	var chunks []domain.Chunk
	for _, page := range doc.Pages {
		chunks = append(chunks, c.chunkPage(doc.ID, page)...)
	}
	return chunks
}

// chunkPage splits one page into token windows. A page shorter than
// one window yields exactly one chunk.
func (c *Chunker) chunkPage(docID string, page domain.Page) []domain.Chunk {
	spans := tokenSpans(page.Text)
	if len(spans) == 0 {
		return nil
	}

	step := c.window - c.overlap
	estimated := len(spans)/step + 1
	chunks := make([]domain.Chunk, 0, estimated)

	index := 0
	for start := 0; start < len(spans); start += step {
		end := start + c.window
		if end > len(spans) {
			end = len(spans)
		}

		first, last := spans[start], spans[end-1]
		chunks = append(chunks, domain.Chunk{
			ID:         ChunkID(docID, page.Number, index),
			DocumentID: docID,
			Page:       page.Number,
			Start:      first.start,
			End:        last.end,
			Text:       page.Text[first.start:last.end],
			TokenCount: end - start,
		})
		index++

		if end == len(spans) {
			break
		}
	}

	return chunks
}

// ChunkID derives the deterministic chunk identifier from the document
// ID, page number and chunk index. The same inputs always produce the
// same ID, which makes upserts of re-chunked content idempotent.
func ChunkID(docID string, page, index int) string {
	base := strings.TrimSuffix(docID, ".pdf")
	name := fmt.Sprintf("%s_%d_%d", docID, page, index)
	suffix := uuid.NewSHA1(uuid.NameSpaceDNS, []byte(name))
	hexID := strings.ReplaceAll(suffix.String(), "-", "")
	return fmt.Sprintf("%s__p%d__c%d__%s", base, page, index, hexID[:8])
}

// span marks a token's byte range within the page text.
type span struct {
	start int
	end   int
}

// tokenSpans locates every token in text. A token is a maximal run of
// non-space characters, so a chunk's text is the exact page substring
// from its first token to its last.
func tokenSpans(text string) []span {
	var spans []span
	start := -1
	for i, r := range text {
		if unicode.IsSpace(r) {
			if start >= 0 {
				spans = append(spans, span{start: start, end: i})
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		spans = append(spans, span{start: start, end: len(text)})
	}
	return spans
}
