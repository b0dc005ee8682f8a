// Package services implements the application core: the index
// orchestrator, the hybrid query engine and the grounded answer
// generator. Services depend only on domain types and driven ports.
package services
