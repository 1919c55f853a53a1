// Package mcp provides an MCP (Model Context Protocol) server adapter for Trellis.
// It lets assistants classify object paths, preview graph upsert queries and
// inspect the label catalogue and recent event outcomes.
package mcp

import "errors"

// ErrMissingIngestor is returned when the object ingestor is not provided.
var ErrMissingIngestor = errors.New("mcp: object ingestor is required")
