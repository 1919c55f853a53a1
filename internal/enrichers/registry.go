package enrichers

import (
	"fmt"
	"sort"

	"github.com/custodia-labs/trellis/internal/core/domain"
	"github.com/custodia-labs/trellis/internal/core/ports/driven"
)

// BuilderFunc creates a MetadataFunction from generic config.
// Config is a map of function-specific settings parsed from the label registry file.
type BuilderFunc func(cfg map[string]any) (driven.MetadataFunction, error)

// Registry maps metadata function names to their builders.
// It allows label definitions to name functions instead of code references.
type Registry struct {
	builders map[string]BuilderFunc
}

// NewRegistry creates a new function registry.
func NewRegistry() *Registry {
	return &Registry{
		builders: make(map[string]BuilderFunc),
	}
}

// Register adds a function builder to the registry.
// Name should be unique and match the function's Name() return value.
func (r *Registry) Register(name string, builder BuilderFunc) {
	r.builders[name] = builder
}

// Build creates a function by name with the given config.
// Returns domain.ErrUnsupportedType if the name is not registered.
func (r *Registry) Build(name string, cfg map[string]any) (driven.MetadataFunction, error) {
	builder, ok := r.builders[name]
	if !ok {
		return nil, fmt.Errorf("%w: metadata function %s", domain.ErrUnsupportedType, name)
	}
	return builder(cfg)
}

// Has returns true if a function with the given name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.builders[name]
	return ok
}

// Names returns all registered function names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.builders))
	for name := range r.builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
