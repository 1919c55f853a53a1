// Package enrichers provides the metadata functions run for matched labels.
package enrichers

import (
	"context"

	"github.com/custodia-labs/trellis/internal/core/domain"
	"github.com/custodia-labs/trellis/internal/core/ports/driven"
)

// Pipeline chains the metadata functions of one label and runs them in order.
type Pipeline struct {
	label     string
	functions []driven.MetadataFunction
}

// NewPipeline creates a pipeline for label with the given functions.
// Functions are executed in the order provided.
func NewPipeline(label string, functions ...driven.MetadataFunction) *Pipeline {
	return &Pipeline{
		label:     label,
		functions: functions,
	}
}

// Run applies every function to props, merging each result before the next
// function runs. The first failure stops the pipeline and is returned as a
// *domain.LabelError; props keeps whatever earlier functions added.
func (p *Pipeline) Run(ctx context.Context, props domain.PropertySet, groups map[string]string) error {
	for _, fn := range p.functions {
		fields, err := fn.Apply(ctx, props, groups)
		if err != nil {
			return &domain.LabelError{Label: p.label, Function: fn.Name(), Err: err}
		}
		props.Merge(fields)
	}
	return nil
}

// Label returns the label the pipeline belongs to.
func (p *Pipeline) Label() string {
	return p.label
}

// Names returns the function names in execution order.
func (p *Pipeline) Names() []string {
	names := make([]string, len(p.functions))
	for i, fn := range p.functions {
		names[i] = fn.Name()
	}
	return names
}

// Len returns the number of functions in the pipeline.
func (p *Pipeline) Len() int {
	return len(p.functions)
}
