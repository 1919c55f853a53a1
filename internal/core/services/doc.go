// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
//   - IngestService: storage event to graph upsert request
//   - JobLauncherService: JobRequest node to batch job
//   - SettingsService: defaults, config file and environment
package services
