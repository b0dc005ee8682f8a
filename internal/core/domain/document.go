package domain

// Page holds the extracted text of a single PDF page.
type Page struct {
	// Number is the 1-based page number in the source PDF.
	Number int

	// Text is the extracted text content of the page.
	Text string
}

// Document represents the extracted text of one source PDF.
// It is immutable once loaded: extraction happens upstream, the
// pipeline only consumes its pages.
type Document struct {
	// ID is the source filename, e.g. "faculty-handbook.pdf".
	// It doubles as the citation label.
	ID string

	// Pages is the ordered sequence of extracted pages.
	Pages []Page
}

// Chunk is a retrievable unit derived from one page of a document.
// Consecutive chunks of the same page overlap by a configured number
// of tokens so that sparse and dense encodings stay stable across
// chunk boundaries.
type Chunk struct {
	// ID is the deterministic chunk identifier, a function of the
	// document ID, page number and chunk index.
	ID string

	// DocumentID links to the source Document.
	DocumentID string

	// Page is the 1-based page number the chunk was cut from.
	Page int

	// Start is the byte offset of the chunk within the page text.
	Start int

	// End is the byte offset one past the last byte of the chunk.
	End int

	// Text is the chunk content, an exact substring of the page text.
	Text string

	// TokenCount is the number of tokens in the chunk.
	TokenCount int
}
