// Package connectors groups the adapters that talk to object storage and
// messaging: Google Cloud Storage and Pub/Sub under google/, and a local
// directory standing in for a bucket under filesystem/.
package connectors
