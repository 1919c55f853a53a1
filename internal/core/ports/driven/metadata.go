package driven

import (
	"context"

	"github.com/custodia-labs/trellis/internal/core/domain"
)

// MetadataFunction computes additional node properties for a matched label.
// Functions are chained per label and run strictly in declared order, so a
// function sees every property written by the functions before it.
type MetadataFunction interface {
	// Name returns the function name used in registry configuration and errors.
	Name() string

	// Apply returns the fields to merge into props. groups holds the named
	// capture groups of the pattern that matched the label.
	// Apply must not modify props; the caller merges the returned fields.
	Apply(ctx context.Context, props domain.PropertySet, groups map[string]string) (map[string]any, error)
}
