package domain

// DenseVector is a fixed-length semantic embedding of a chunk or query.
// Its dimensionality is set by configuration and must match the vector
// store's configured dimensionality.
type DenseVector []float32

// SparseVector maps term ids to non-negative BM25 weights.
// Most terms are absent; only terms present in the encoded text carry
// an entry.
type SparseVector map[uint32]float64

// EntryMetadata is the payload stored alongside the vectors so that a
// retrieval hit can be cited and quoted without a second lookup.
type EntryMetadata struct {
	// DocumentID is the source filename.
	DocumentID string

	// Page is the 1-based page number.
	Page int

	// Text is the chunk text.
	Text string
}

// IndexEntry is one record in the vector store. Entries are created
// during indexing, never mutated, and replaced only on a forced
// reindex. The chunk ID is the primary key.
type IndexEntry struct {
	// ID is the deterministic chunk ID.
	ID string

	// Dense is the semantic embedding of the chunk.
	Dense DenseVector

	// Sparse is the BM25 keyword encoding of the chunk.
	Sparse SparseVector

	// Metadata carries the citation and display payload.
	Metadata EntryMetadata
}

// SparseModelSnapshot is the serialisable state of a fitted sparse
// encoder: corpus-wide term statistics plus the scoring constants.
// Restoring a snapshot must reproduce encodings bit for bit.
type SparseModelSnapshot struct {
	// DocFreq maps each distinct corpus term to the number of chunk
	// texts it appears in.
	DocFreq map[string]int

	// DocCount is the total number of chunk texts fitted.
	DocCount int

	// AvgDocLen is the mean token count per fitted text.
	AvgDocLen float64

	// K1 is the BM25 term-frequency saturation constant.
	K1 float64

	// B is the BM25 length-normalisation constant.
	B float64
}
