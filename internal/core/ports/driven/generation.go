package driven

import "context"

// GenerationService streams text completions from an external LLM
// provider. Implementations surface domain.ErrGenerationUnavailable
// once transient failures exhaust the configured retry attempts.
type GenerationService interface {
	// GenerateStream starts a completion for the prompt and returns
	// the token stream. The stream is bound to ctx: cancelling ctx
	// makes the next Recv return promptly with the context error.
	GenerateStream(ctx context.Context, prompt string) (Stream, error)
}

// Stream is a lazy, finite, non-restartable sequence of text
// fragments in provider emission order. The consumer pulls fragments
// one at a time; no reordering or buffering happens beyond what is
// needed to detect end-of-stream.
type Stream interface {
	// Recv returns the next fragment. It returns io.EOF once the
	// stream is exhausted, or the context error if the stream was
	// cancelled mid-flight.
	Recv() (string, error)

	// Close releases the underlying connection. Safe to call more
	// than once and after Recv returned an error.
	Close() error
}
