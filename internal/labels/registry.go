// Package labels classifies storage objects by path. A Registry holds the
// compiled patterns and metadata pipelines of every label; it is built once
// at startup and is safe for concurrent use afterwards.
package labels

import (
	"context"
	"fmt"
	"regexp"

	"github.com/custodia-labs/trellis/internal/core/domain"
	"github.com/custodia-labs/trellis/internal/core/ports/driven"
	"github.com/custodia-labs/trellis/internal/enrichers"
)

// pathKey is the property the patterns are matched against.
const pathKey = "path"

// rule is one compiled label definition.
type rule struct {
	label    string
	patterns []*regexp.Regexp
	pipeline *enrichers.Pipeline
}

// Registry is the ordered, immutable set of label rules.
type Registry struct {
	rules []rule
}

// NewRegistry compiles definitions in order. Patterns must match the whole
// path. Function names are resolved through functions.
func NewRegistry(defs []Definition, functions *enrichers.Registry) (*Registry, error) {
	r := &Registry{rules: make([]rule, 0, len(defs))}
	seen := make(map[string]bool, len(defs))

	for _, def := range defs {
		if def.Name == "" {
			return nil, fmt.Errorf("%w: label with empty name", domain.ErrInvalidInput)
		}
		if seen[def.Name] {
			return nil, fmt.Errorf("%w: duplicate label %s", domain.ErrInvalidInput, def.Name)
		}
		seen[def.Name] = true

		compiled, err := compile(def)
		if err != nil {
			return nil, err
		}
		r.rules = append(r.rules, compiled)
	}

	for i, def := range defs {
		cfg := map[string]any{"groups": def.Groups}
		fns := make([]driven.MetadataFunction, 0, len(def.Functions))
		for _, name := range def.Functions {
			fn, err := functions.Build(name, cfg)
			if err != nil {
				return nil, fmt.Errorf("label %s: %w", def.Name, err)
			}
			fns = append(fns, fn)
		}
		r.rules[i].pipeline = enrichers.NewPipeline(def.Name, fns...)
	}

	return r, nil
}

func compile(def Definition) (rule, error) {
	if len(def.Patterns) == 0 {
		return rule{}, fmt.Errorf("%w: label %s has no patterns", domain.ErrInvalidInput, def.Name)
	}

	compiled := rule{label: def.Name}
	for _, p := range def.Patterns {
		re, err := regexp.Compile(`^(?:` + p + `)$`)
		if err != nil {
			return rule{}, fmt.Errorf("%w: label %s pattern %q: %w", domain.ErrInvalidInput, def.Name, p, err)
		}
		compiled.patterns = append(compiled.patterns, re)
	}
	return compiled, nil
}

// Labels returns the label names in registry order.
func (r *Registry) Labels() []string {
	names := make([]string, len(r.rules))
	for i, rl := range r.rules {
		names[i] = rl.label
	}
	return names
}

// Functions returns the metadata function names of label, in run order.
func (r *Registry) Functions(label string) []string {
	for _, rl := range r.rules {
		if rl.label == label {
			return rl.pipeline.Names()
		}
	}
	return nil
}

// Match classifies props by its path property. Labels are evaluated in
// registry order; for each label the first fully matching pattern assigns the
// label and runs its metadata functions against props. The returned labels
// keep registry order.
//
// A failing metadata function aborts matching with a *domain.LabelError and
// leaves props partially enriched.
func (r *Registry) Match(ctx context.Context, props domain.PropertySet) (*domain.MatchResult, error) {
	path, ok := props.String(pathKey)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrMissingField, pathKey)
	}

	result := &domain.MatchResult{Properties: props}

	for _, rl := range r.rules {
		groups, matched := rl.match(path)
		if !matched {
			continue
		}
		result.Labels = append(result.Labels, rl.label)

		if err := rl.pipeline.Run(ctx, props, groups); err != nil {
			return result, err
		}
	}

	return result, nil
}

// Classify returns the labels whose patterns match path without running any
// metadata functions.
func (r *Registry) Classify(path string) []string {
	var labels []string
	for _, rl := range r.rules {
		if _, ok := rl.match(path); ok {
			labels = append(labels, rl.label)
		}
	}
	return labels
}

// match returns the named groups of the first pattern matching path.
func (rl *rule) match(path string) (map[string]string, bool) {
	for _, re := range rl.patterns {
		m := re.FindStringSubmatch(path)
		if m == nil {
			continue
		}
		groups := make(map[string]string)
		for i, name := range re.SubexpNames() {
			if i > 0 && name != "" {
				groups[name] = m[i]
			}
		}
		return groups, true
	}
	return nil, false
}
