// Package filesystem loads the extracted corpus from disk. PDF
// byte-to-text extraction runs upstream and leaves one JSON file per
// source PDF in the corpus directory.
package filesystem

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Pranavharshans/pdf-rag/internal/core/domain"
	"github.com/Pranavharshans/pdf-rag/internal/core/ports/driven"
	"github.com/Pranavharshans/pdf-rag/internal/logger"
)

// Ensure Source implements the interface.
var _ driven.DocumentSource = (*Source)(nil)

// Source reads extracted documents from a directory.
type Source struct {
	dir string
}

// documentFile is the on-disk format produced by the extraction step.
type documentFile struct {
	Filename string `json:"filename"`
	Pages    []struct {
		Page int    `json:"page"`
		Text string `json:"text"`
	} `json:"pages"`
}

// New creates a source over the given directory.
func New(dir string) *Source {
	return &Source{dir: dir}
}

// Load reads every *.json file in the directory, sorted by name so
// the corpus order is stable across runs. Pages with no extracted
// text are dropped.
func (s *Source) Load(ctx context.Context) ([]domain.Document, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("reading corpus directory %s: %w", s.dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	docs := make([]domain.Document, 0, len(names))
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		doc, err := s.loadFile(filepath.Join(s.dir, name))
		if err != nil {
			return nil, err
		}
		if len(doc.Pages) == 0 {
			logger.Warn("Skipping %s: no extracted text", name)
			continue
		}
		docs = append(docs, doc)
	}

	logger.Info("Loaded %d documents from %s", len(docs), s.dir)
	return docs, nil
}

func (s *Source) loadFile(path string) (domain.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Document{}, fmt.Errorf("reading %s: %w", path, err)
	}

	var file documentFile
	if err := json.Unmarshal(data, &file); err != nil {
		return domain.Document{}, fmt.Errorf("parsing %s: %w", path, err)
	}

	id := file.Filename
	if id == "" {
		id = strings.TrimSuffix(filepath.Base(path), ".json")
	}

	doc := domain.Document{ID: id}
	for _, page := range file.Pages {
		if strings.TrimSpace(page.Text) == "" {
			continue
		}
		doc.Pages = append(doc.Pages, domain.Page{Number: page.Page, Text: page.Text})
	}
	return doc, nil
}
