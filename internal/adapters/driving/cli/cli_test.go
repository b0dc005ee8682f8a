package cli

import (
	"context"
	"io"

	"github.com/Pranavharshans/pdf-rag/internal/core/domain"
	"github.com/Pranavharshans/pdf-rag/internal/core/ports/driving"
)

// fakeIndexService records calls and serves a scripted status.
type fakeIndexService struct {
	status      domain.IndexStatus
	statusErr   error
	ensureCalls int
	forceCalls  int
	ensureErr   error
	forceErr    error
}

func (f *fakeIndexService) Status(context.Context) (domain.IndexStatus, error) {
	return f.status, f.statusErr
}

func (f *fakeIndexService) EnsureIndexed(context.Context) error {
	f.ensureCalls++
	return f.ensureErr
}

func (f *fakeIndexService) ForceReindex(context.Context) error {
	f.forceCalls++
	return f.forceErr
}

// fakeAnswerService plays back a scripted answer stream.
type fakeAnswerService struct {
	fragments []string
	citations []domain.Citation
	err       error
	question  string
}

func (f *fakeAnswerService) Ask(_ context.Context, question string) (driving.AnswerStream, error) {
	f.question = question
	if f.err != nil {
		return nil, f.err
	}
	return &fakeAnswerStream{fragments: f.fragments, citations: f.citations}, nil
}

type fakeAnswerStream struct {
	fragments []string
	citations []domain.Citation
	pos       int
}

func (s *fakeAnswerStream) Recv() (string, error) {
	if s.pos >= len(s.fragments) {
		return "", io.EOF
	}
	fragment := s.fragments[s.pos]
	s.pos++
	return fragment, nil
}

func (s *fakeAnswerStream) Citations() ([]domain.Citation, error) {
	return s.citations, nil
}

func (s *fakeAnswerStream) Close() error { return nil }
