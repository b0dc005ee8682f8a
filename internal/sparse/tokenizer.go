package sparse

import (
	"regexp"
	"strings"
)

// tokenPattern matches runs of letters and digits, keeping internal
// apostrophes so contractions stay one term.
var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}]+(?:['’][\p{L}\p{N}]+)*`)

// tokenize lowercases the text, extracts terms and drops stopwords.
// The same tokenizer runs during fitting and encoding so document
// lengths stay comparable.
func (e *Encoder) tokenize(text string) []string {
	raw := tokenPattern.FindAllString(strings.ToLower(text), -1)
	if len(raw) == 0 {
		return nil
	}

	tokens := raw[:0]
	for _, tok := range raw {
		if _, stop := e.stopwords[tok]; stop {
			continue
		}
		tokens = append(tokens, tok)
	}
	return tokens
}

// defaultStopwords returns the default English stopword set.
func defaultStopwords() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else",
		"for", "to", "of", "in", "on", "at", "by", "with", "as", "is",
		"are", "was", "were", "be", "been", "being", "it", "this",
		"that", "these", "those", "from", "up", "down", "over",
		"under", "again", "further", "than", "so", "such", "into",
		"about", "between", "through", "during", "before", "after",
		"above", "below", "out", "off", "own", "same", "too", "very",
		"can", "will", "just", "should", "now", "what", "which", "who",
		"whom", "how", "when", "where", "why", "do", "does", "did",
		"has", "have", "had", "not", "no",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
