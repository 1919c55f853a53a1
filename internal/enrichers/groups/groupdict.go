// Package groups provides the metadata function that copies regex capture
// groups into the property set.
package groups

import (
	"context"
	"fmt"

	"github.com/custodia-labs/trellis/internal/core/domain"
)

// Name is the registry name of the function.
const Name = "groupdict"

// Function copies a declared subset of named capture groups verbatim.
// It implements the MetadataFunction interface.
type Function struct {
	keys []string
}

// New creates a groupdict function copying keys. With no keys every named
// group of the match is copied.
func New(keys ...string) *Function {
	return &Function{keys: keys}
}

// Name returns the function name.
func (f *Function) Name() string {
	return Name
}

// Keys returns the declared group names.
func (f *Function) Keys() []string {
	return f.keys
}

// Apply returns the declared capture groups. A declared group missing from
// the match fails with domain.ErrPatternNotFound.
func (f *Function) Apply(_ context.Context, _ domain.PropertySet, groups map[string]string) (map[string]any, error) {
	out := make(map[string]any, len(f.keys))

	if len(f.keys) == 0 {
		for k, v := range groups {
			out[k] = v
		}
		return out, nil
	}

	for _, key := range f.keys {
		v, ok := groups[key]
		if !ok {
			return nil, fmt.Errorf("%w: capture group %q", domain.ErrPatternNotFound, key)
		}
		out[key] = v
	}
	return out, nil
}
