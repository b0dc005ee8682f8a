// Package driving provides interfaces for application entry points
// (primary/inbound ports). The CLI adapter drives the core through
// these interfaces.
package driving
