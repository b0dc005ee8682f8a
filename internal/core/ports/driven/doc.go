// Package driven provides interfaces for infrastructure adapters
// (secondary/outbound ports): the vector store, the embedding and
// generation services, the corpus source and the snapshot store.
//
// Core services depend on these interfaces; adapters implement them.
package driven
