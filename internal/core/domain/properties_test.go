package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPropertySet_MergeLaterWins(t *testing.T) {
	p := NewPropertySet()
	p.Merge(map[string]any{"sample": "S0", "size": int64(1)})
	p.Merge(map[string]any{"sample": "S1"})

	s, ok := p.String("sample")
	assert.True(t, ok)
	assert.Equal(t, "S1", s)
	assert.Equal(t, []string{"sample", "size"}, p.Keys())
}

func TestPropertySet_String(t *testing.T) {
	p := PropertySet{"n": int64(3), "s": "x"}

	_, ok := p.String("n")
	assert.False(t, ok)
	_, ok = p.String("missing")
	assert.False(t, ok)
	assert.True(t, p.Has("n"))
	assert.False(t, p.Has("missing"))
}

func TestPropertySet_Clone(t *testing.T) {
	p := PropertySet{"a": "1"}
	c := p.Clone()
	c["a"] = "2"

	assert.Equal(t, "1", p["a"])
}

func TestPropertySet_Finalize(t *testing.T) {
	ok := PropertySet{"s": "x", "b": true, "i": int64(1), "f": 1.5, "n": 3}
	assert.NoError(t, ok.Finalize())

	nested := PropertySet{"z": []string{"a"}, "a": map[string]any{"k": 1}}
	err := nested.Finalize()
	require.ErrorIs(t, err, ErrNestedProperty)
	assert.Contains(t, err.Error(), "a (map[string]interface {})")
}

func TestScalar(t *testing.T) {
	tests := []struct {
		name     string
		in       any
		expected any
	}{
		{"nil", nil, ""},
		{"string", "x", "x"},
		{"bool", true, true},
		{"integral number", json.Number("42"), int64(42)},
		{"fractional number", json.Number("4.5"), 4.5},
		{"map", map[string]any{"k": "v"}, `{"k":"v"}`},
		{"list", []any{"a", float64(1)}, `["a",1]`},
		{"string list", []string{"a", "b"}, `["a","b"]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Scalar(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestScalar_Errors(t *testing.T) {
	_, err := Scalar(json.Number("abc"))
	assert.ErrorIs(t, err, ErrTypeConversion)

	_, err = Scalar(struct{}{})
	assert.ErrorIs(t, err, ErrNestedProperty)
}
