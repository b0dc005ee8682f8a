// Package domain defines the core business entities for the PDF RAG pipeline.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: Extracted text of one source PDF, page by page
//   - Chunk: A retrievable unit of a document
//   - DenseVector / SparseVector: The two encodings of a chunk or query
//   - IndexEntry: What gets persisted in the vector store
//   - RetrievalResult: A ranked hit produced at query time
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
package domain
