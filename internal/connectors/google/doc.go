// Package google provides shared infrastructure for the Google Cloud adapters.
//
// This package contains common utilities used by the gcs and pubsub
// adapters including:
//   - TokenSource construction from application default credentials or a
//     service account key file
//   - Service factories for creating Google API clients
//   - Error handling for common Google API errors (401, 403, 404, 412, 429)
//   - Rate limiting to respect Google API quotas
//
// # Usage
//
// Each adapter creates its API client through this package:
//
//	ts, err := google.NewTokenSource(ctx, credentialsFile, google.ScopeStorage)
//	svc, err := google.NewStorageService(ctx, option.WithTokenSource(ts))
//
// # OAuth2 Scopes
//
// The adapters use these scopes:
//   - https://www.googleapis.com/auth/devstorage.read_write
//   - https://www.googleapis.com/auth/pubsub
package google
