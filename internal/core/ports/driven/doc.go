// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - BlobContentReader: Reads object bytes (content-reading metadata functions)
//   - BlobMetadataWriter: Assigns stable identifiers and patches object metadata
//   - Publisher: Hands serialised query requests to a topic
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - EventLedger: Records event outcomes. Without it, nothing is recorded.
//   - JobLauncher, TaskStore: Only needed by the job launcher service.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or connector package
package driven
