// Package domain defines the core business entities for trellis.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - ObjectEvent: A storage object notification
//   - PropertySet: The flat property bag describing one object
//   - QueryRequest, QueryResponse: Messages exchanged with the database service
//   - TaskConfig, JobSpec: Declarative batch jobs
//   - Settings: Immutable runtime configuration
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
