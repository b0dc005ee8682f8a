package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/Pranavharshans/pdf-rag/internal/core/domain"
	"github.com/Pranavharshans/pdf-rag/internal/core/ports/driven"
	"github.com/Pranavharshans/pdf-rag/internal/core/ports/driving"
	"github.com/Pranavharshans/pdf-rag/internal/logger"
)

// Ensure AnswererService implements the interface.
var _ driving.AnswerService = (*AnswererService)(nil)

// FallbackMessage is streamed verbatim when retrieval finds no
// evidence that clears the score threshold. The generation service is
// never called in that case.
const FallbackMessage = "I could not find this information in the provided documents."

// answerInstructions pins the model to the retrieved context. Answers
// must cite sources and must refuse rather than improvise when the
// context does not contain the answer.
const answerInstructions = `You are a precise assistant that answers questions using only the provided context.

Rules:
- Answer using ONLY the information in the context below.
- Cite the sources you used with their bracketed numbers, e.g. [1] or [2].
- If the context does not contain the answer, reply exactly: "` + FallbackMessage + `"
- Do not use outside knowledge. Do not guess.`

// sourceTagPattern matches citation tags in a generated answer, both
// the short form [2] and the verbose form [Source 2].
var sourceTagPattern = regexp.MustCompile(`\[(?:Source\s+)?(\d+)\]`)

// errStreamNotDrained is returned by Citations before the stream has
// been fully consumed.
var errStreamNotDrained = errors.New("citations are unavailable until the answer stream is fully consumed")

// AnswererConfig configures answer generation.
type AnswererConfig struct {
	// MinScore is the fused score the best retrieved chunk must reach
	// for the retrieval to count as evidence. Below it the fallback
	// message is streamed; at or above it every retrieved chunk goes
	// into the prompt. Zero accepts any retrieval.
	MinScore float64
}

// AnswererService produces grounded, streamed answers: it retrieves
// evidence, builds a context-pinned prompt, streams the completion
// and resolves citations from the finished answer.
type AnswererService struct {
	retriever driving.Retriever
	generator driven.GenerationService
	cfg       AnswererConfig
}

// NewAnswererService creates the answer service.
func NewAnswererService(retriever driving.Retriever, generator driven.GenerationService, cfg AnswererConfig) *AnswererService {
	return &AnswererService{
		retriever: retriever,
		generator: generator,
		cfg:       cfg,
	}
}

// Ask retrieves evidence for the question and streams a grounded
// answer. Without usable evidence it returns a stream carrying only
// the fallback message.
func (s *AnswererService) Ask(ctx context.Context, question string) (driving.AnswerStream, error) {
	results, err := s.retriever.Retrieve(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("retrieving evidence: %w", err)
	}

	// The threshold gates on the best hit only: a weak best score means
	// the corpus has nothing relevant, but once the best hit clears it,
	// the lower-ranked chunks stay in as supporting context.
	if len(results) == 0 || bestScore(results) < s.cfg.MinScore {
		logger.Info("No evidence above threshold, answering with fallback")
		return &fallbackStream{}, nil
	}

	evidence := results
	logger.Debug("Answering with %d evidence chunks", len(evidence))

	stream, err := s.generator.GenerateStream(ctx, buildPrompt(question, evidence))
	if err != nil {
		return nil, err
	}

	return &answerStream{
		ctx:      ctx,
		stream:   stream,
		evidence: evidence,
	}, nil
}

// bestScore returns the highest fused score among the results.
func bestScore(results []domain.RetrievalResult) float64 {
	best := results[0].Score
	for _, r := range results[1:] {
		if r.Score > best {
			best = r.Score
		}
	}
	return best
}

// buildPrompt renders the retrieved chunks into numbered source
// blocks followed by the question. Source numbers are 1-based and
// match the citation tags the instructions ask for.
func buildPrompt(question string, evidence []domain.RetrievalResult) string {
	var b strings.Builder
	b.WriteString(answerInstructions)
	b.WriteString("\n\nContext:\n")
	for i, r := range evidence {
		fmt.Fprintf(&b, "\n[Source %d: %s, Page %d]\n%s\n", i+1, r.Metadata.DocumentID, r.Metadata.Page, r.Metadata.Text)
	}
	b.WriteString("\nQuestion: ")
	b.WriteString(question)
	b.WriteString("\n\nAnswer:")
	return b.String()
}

// answerStream adapts a generation stream into an answer stream: it
// passes fragments through while accumulating the full text, and
// resolves citations once the stream has ended cleanly.
type answerStream struct {
	ctx      context.Context
	stream   driven.Stream
	evidence []domain.RetrievalResult

	answer  strings.Builder
	drained bool
	failed  bool
}

// Recv returns the next answer fragment.
func (a *answerStream) Recv() (string, error) {
	fragment, err := a.stream.Recv()
	if err != nil {
		if errors.Is(err, io.EOF) {
			a.drained = true
		} else {
			a.failed = true
		}
		return "", err
	}
	a.answer.WriteString(fragment)
	return fragment, nil
}

// Citations resolves the sources cited by the finished answer. Tags
// like [2] map back to the evidence chunks in prompt order; an answer
// with no tags falls back to every evidence chunk. A cancelled or
// failed answer yields no citations.
func (a *answerStream) Citations() ([]domain.Citation, error) {
	if a.failed {
		return nil, errors.New("answer was not completed, no citations available")
	}
	if !a.drained {
		return nil, errStreamNotDrained
	}
	if err := a.ctx.Err(); err != nil {
		return nil, err
	}

	answer := a.answer.String()
	cited := citedIndices(answer, len(a.evidence))
	if len(cited) == 0 {
		cited = mentionedIndices(answer, a.evidence)
	}
	if len(cited) == 0 {
		for i := range a.evidence {
			cited = append(cited, i)
		}
	}

	var citations []domain.Citation
	seen := make(map[domain.Citation]struct{})
	for _, i := range cited {
		c := domain.Citation{
			DocumentID: a.evidence[i].Metadata.DocumentID,
			Page:       a.evidence[i].Metadata.Page,
		}
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		citations = append(citations, c)
	}
	return citations, nil
}

// Close releases the underlying generation stream.
func (a *answerStream) Close() error {
	return a.stream.Close()
}

// citedIndices extracts 0-based evidence indices from the answer's
// citation tags, in first-occurrence order. Out-of-range tags are
// ignored.
func citedIndices(answer string, evidenceCount int) []int {
	var indices []int
	seen := make(map[int]struct{})
	for _, match := range sourceTagPattern.FindAllStringSubmatch(answer, -1) {
		n, err := strconv.Atoi(match[1])
		if err != nil || n < 1 || n > evidenceCount {
			continue
		}
		if _, dup := seen[n-1]; dup {
			continue
		}
		seen[n-1] = struct{}{}
		indices = append(indices, n-1)
	}
	return indices
}

// mentionedIndices finds evidence chunks whose source document is
// named in the answer text. Used when the answer carries no bracketed
// tags at all.
func mentionedIndices(answer string, evidence []domain.RetrievalResult) []int {
	var indices []int
	for i, r := range evidence {
		doc := strings.TrimSuffix(r.Metadata.DocumentID, ".pdf")
		if doc == "" {
			continue
		}
		re := regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(doc) + `\b`)
		if re.MatchString(answer) {
			indices = append(indices, i)
		}
	}
	return indices
}

// fallbackStream carries the fixed no-evidence message. It involves
// no generation call and yields no citations.
type fallbackStream struct {
	sent bool
}

func (f *fallbackStream) Recv() (string, error) {
	if f.sent {
		return "", io.EOF
	}
	f.sent = true
	return FallbackMessage, nil
}

func (f *fallbackStream) Citations() ([]domain.Citation, error) {
	if !f.sent {
		return nil, errStreamNotDrained
	}
	return nil, nil
}

func (f *fallbackStream) Close() error { return nil }
