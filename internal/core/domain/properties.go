package domain

import (
	"encoding/json"
	"fmt"
	"sort"
)

// PropertySet is the flat key-value bag describing one object. It is created
// empty at ingestion, populated by the field extractor and then by each matched
// label's metadata functions, and finalised before query building.
// A PropertySet is owned by a single pipeline run.
type PropertySet map[string]any

// NewPropertySet creates an empty property set.
func NewPropertySet() PropertySet {
	return make(PropertySet)
}

// Merge copies every entry of other into the set. Later writers win.
func (p PropertySet) Merge(other map[string]any) {
	for k, v := range other {
		p[k] = v
	}
}

// String returns the value stored under key if it is a string.
func (p PropertySet) String(key string) (string, bool) {
	v, ok := p[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Has reports whether key is present.
func (p PropertySet) Has(key string) bool {
	_, ok := p[key]
	return ok
}

// Keys returns the property names in sorted order.
func (p PropertySet) Keys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns a shallow copy of the set.
func (p PropertySet) Clone() PropertySet {
	c := make(PropertySet, len(p))
	for k, v := range p {
		c[k] = v
	}
	return c
}

// Finalize verifies that every value is a scalar (string, bool, integer or float).
// Returns ErrNestedProperty naming the first offending key in sorted order.
func (p PropertySet) Finalize() error {
	for _, k := range p.Keys() {
		if !isScalar(p[k]) {
			return fmt.Errorf("%w: %s (%T)", ErrNestedProperty, k, p[k])
		}
	}
	return nil
}

// Scalar converts a decoded value into a property-safe scalar.
// Nested maps and slices are stringified to JSON text; json.Number values
// become int64 when integral and float64 otherwise.
func Scalar(v any) (any, error) {
	switch val := v.(type) {
	case nil:
		return "", nil
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return i, nil
		}
		f, err := val.Float64()
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrTypeConversion, val.String())
		}
		return f, nil
	case map[string]any, map[string]string, []any, []string:
		data, err := json.Marshal(val)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrNestedProperty, err)
		}
		return string(data), nil
	default:
		if isScalar(val) {
			return val, nil
		}
		return nil, fmt.Errorf("%w: %T", ErrNestedProperty, v)
	}
}

func isScalar(v any) bool {
	switch v.(type) {
	case string, bool, int, int32, int64, uint32, float32, float64:
		return true
	default:
		return false
	}
}
