package mcp

import (
	"context"

	"github.com/custodia-labs/trellis/internal/core/domain"
	"github.com/custodia-labs/trellis/internal/core/ports/driving"
	"github.com/custodia-labs/trellis/internal/taxonomy"
)

// LabelCatalog lists the labels an object can be classified as.
type LabelCatalog interface {
	Labels() []string
	Functions(label string) []string
}

// LabelTree exposes the label hierarchy.
type LabelTree interface {
	Tree() taxonomy.TreeNode
}

// EventHistory reads recorded event outcomes.
type EventHistory interface {
	Get(ctx context.Context, eventID string) (*domain.EventRecord, error)
	List(ctx context.Context, limit int) ([]domain.EventRecord, error)
}

// Ports aggregates everything the MCP server reads from.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Ingestor classifies objects and builds their queries.
	Ingestor driving.ObjectIngestor

	// Catalog lists the registry labels. Optional.
	Catalog LabelCatalog

	// Tree is the label taxonomy. Optional.
	Tree LabelTree

	// Events is the event ledger. Optional.
	Events EventHistory
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Ingestor == nil {
		return ErrMissingIngestor
	}
	return nil
}
