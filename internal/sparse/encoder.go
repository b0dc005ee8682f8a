// Package sparse implements the BM25 keyword ranking model that
// produces sparse weighted term vectors. The model is fitted once over
// the whole chunk corpus, persisted as a snapshot, and read-only
// afterwards; fitting twice with the same corpus yields an equivalent
// model regardless of input order.
package sparse

import (
	"errors"
	"math"
	"sort"

	"github.com/Pranavharshans/pdf-rag/internal/core/domain"
)

// Default BM25 constants.
const (
	DefaultK1 = 1.2
	DefaultB  = 0.75
)

// Encoder is the two-phase BM25 model: Fit consumes the corpus once,
// Encode converts any text into a sparse vector using the fitted
// statistics. Encode never mutates the fitted state, so a fitted
// encoder is safe for concurrent use.
type Encoder struct {
	k1        float64
	b         float64
	stopwords map[string]struct{}

	docFreq   map[string]int
	termIDs   map[string]uint32
	docCount  int
	avgDocLen float64
	fitted    bool
}

// Option configures the encoder.
type Option func(*Encoder)

// WithK1 sets the term-frequency saturation constant.
func WithK1(k1 float64) Option {
	return func(e *Encoder) {
		if k1 > 0 {
			e.k1 = k1
		}
	}
}

// WithB sets the length-normalisation constant.
func WithB(b float64) Option {
	return func(e *Encoder) {
		if b >= 0 && b <= 1 {
			e.b = b
		}
	}
}

// WithStopwords replaces the default English stopword set.
func WithStopwords(words []string) Option {
	return func(e *Encoder) {
		m := make(map[string]struct{}, len(words))
		for _, w := range words {
			m[w] = struct{}{}
		}
		e.stopwords = m
	}
}

// New creates an unfitted encoder.
func New(opts ...Option) *Encoder {
	e := &Encoder{
		k1:        DefaultK1,
		b:         DefaultB,
		stopwords: defaultStopwords(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Fitted reports whether the model has been fitted or restored.
func (e *Encoder) Fitted() bool {
	return e.fitted
}

// Fit computes document frequency per distinct term and the average
// document length from the full set of chunk texts. Term ids are
// assigned over the sorted distinct terms, so the fitted model is
// independent of input order.
func (e *Encoder) Fit(texts []string) error {
	if len(texts) == 0 {
		return errors.New("sparse: empty corpus")
	}

	docFreq := make(map[string]int)
	totalLen := 0
	for _, text := range texts {
		tokens := e.tokenize(text)
		totalLen += len(tokens)

		seen := make(map[string]struct{}, len(tokens))
		for _, tok := range tokens {
			if _, ok := seen[tok]; ok {
				continue
			}
			seen[tok] = struct{}{}
			docFreq[tok]++
		}
	}

	if len(docFreq) == 0 {
		return errors.New("sparse: no terms found in corpus")
	}

	e.docFreq = docFreq
	e.termIDs = assignTermIDs(docFreq)
	e.docCount = len(texts)
	e.avgDocLen = float64(totalLen) / float64(len(texts))
	e.fitted = true
	return nil
}

// Encode tokenizes text and computes the BM25 weight for each known
// term:
//
//	weight(t) = idf(t) * tf(t)*(k1+1) / (tf(t) + k1*(1 - b + b*|d|/avgdl))
//
// Terms absent from the fitted vocabulary carry no document frequency
// and are skipped. Queries are encoded by the same formula with |d|
// equal to the query token count.
func (e *Encoder) Encode(text string) (domain.SparseVector, error) {
	if !e.fitted {
		return nil, domain.ErrModelNotFitted
	}

	tokens := e.tokenize(text)
	docLen := float64(len(tokens))

	tf := make(map[string]int)
	for _, tok := range tokens {
		if _, known := e.termIDs[tok]; known {
			tf[tok]++
		}
	}

	vec := make(domain.SparseVector, len(tf))
	norm := e.k1 * (1 - e.b + e.b*docLen/e.avgDocLen)
	for term, freq := range tf {
		f := float64(freq)
		vec[e.termIDs[term]] = e.idf(term) * (f * (e.k1 + 1)) / (f + norm)
	}
	return vec, nil
}

// idf uses the Robertson formulation, shifted to stay positive for
// terms that appear in most documents.
func (e *Encoder) idf(term string) float64 {
	df := float64(e.docFreq[term])
	n := float64(e.docCount)
	return math.Log((n-df+0.5)/(df+0.5) + 1)
}

// Snapshot returns the serialisable fitted state. Restoring it into a
// fresh encoder reproduces identical encodings.
func (e *Encoder) Snapshot() (domain.SparseModelSnapshot, error) {
	if !e.fitted {
		return domain.SparseModelSnapshot{}, domain.ErrModelNotFitted
	}

	docFreq := make(map[string]int, len(e.docFreq))
	for term, df := range e.docFreq {
		docFreq[term] = df
	}
	return domain.SparseModelSnapshot{
		DocFreq:   docFreq,
		DocCount:  e.docCount,
		AvgDocLen: e.avgDocLen,
		K1:        e.k1,
		B:         e.b,
	}, nil
}

// Restore loads a snapshot, replacing any fitted state. The snapshot's
// constants win over the constructor's so a restored model scores
// exactly as the one that produced the snapshot.
func (e *Encoder) Restore(snap domain.SparseModelSnapshot) error {
	if snap.DocCount <= 0 || len(snap.DocFreq) == 0 || snap.AvgDocLen <= 0 {
		return errors.New("sparse: invalid snapshot")
	}

	docFreq := make(map[string]int, len(snap.DocFreq))
	for term, df := range snap.DocFreq {
		docFreq[term] = df
	}

	e.docFreq = docFreq
	e.termIDs = assignTermIDs(docFreq)
	e.docCount = snap.DocCount
	e.avgDocLen = snap.AvgDocLen
	e.k1 = snap.K1
	e.b = snap.B
	e.fitted = true
	return nil
}

// assignTermIDs maps the sorted distinct terms to sequential ids.
// Sorting makes the assignment deterministic for any corpus order.
func assignTermIDs(docFreq map[string]int) map[string]uint32 {
	terms := make([]string, 0, len(docFreq))
	for term := range docFreq {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	ids := make(map[string]uint32, len(terms))
	for i, term := range terms {
		ids[term] = uint32(i)
	}
	return ids
}
