package driving

import (
	"context"

	"github.com/Pranavharshans/pdf-rag/internal/core/domain"
)

// AnswerService produces grounded, streamed answers with citations.
type AnswerService interface {
	// Ask retrieves evidence for the question and streams a grounded
	// answer. When retrieval finds no evidence the returned stream
	// carries a fixed fallback message and the generation service is
	// never called.
	Ask(ctx context.Context, question string) (AnswerStream, error)
}

// AnswerStream is the consumer's view of a streamed answer. Fragments
// arrive in generation order; citations become available only after
// the stream has been fully consumed.
type AnswerStream interface {
	// Recv returns the next answer fragment, io.EOF once the answer
	// is complete, or the context error if the answer was cancelled.
	Recv() (string, error)

	// Citations returns the sources referenced by the final answer.
	// It fails until Recv has returned io.EOF; a cancelled or aborted
	// answer never yields citations.
	Citations() ([]domain.Citation, error)

	// Close releases the underlying generation stream.
	Close() error
}
