package enrichers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/trellis/internal/core/domain"
	"github.com/custodia-labs/trellis/internal/core/ports/driven"
	"github.com/custodia-labs/trellis/internal/enrichers/content"
	"github.com/custodia-labs/trellis/internal/enrichers/groups"
	"github.com/custodia-labs/trellis/internal/enrichers/naming"
)

// stubFunction returns fixed fields or a fixed error.
type stubFunction struct {
	name   string
	fields map[string]any
	err    error
	seen   []domain.PropertySet
}

func (s *stubFunction) Name() string { return s.name }

func (s *stubFunction) Apply(_ context.Context, props domain.PropertySet, _ map[string]string) (map[string]any, error) {
	s.seen = append(s.seen, props.Clone())
	if s.err != nil {
		return nil, s.err
	}
	return s.fields, nil
}

type nopReader struct{}

func (nopReader) Read(_ context.Context, _, _ string) ([]byte, error) { return nil, nil }

func TestRegistry_RegisterAndBuild(t *testing.T) {
	r := NewRegistry()
	r.Register("stub", func(cfg map[string]any) (driven.MetadataFunction, error) {
		name, _ := cfg["name"].(string)
		return &stubFunction{name: name}, nil
	})

	require.True(t, r.Has("stub"))

	fn, err := r.Build("stub", map[string]any{"name": "custom"})
	require.NoError(t, err)
	assert.Equal(t, "custom", fn.Name())
}

func TestRegistry_Build_Unknown(t *testing.T) {
	r := NewRegistry()

	_, err := r.Build("missing", nil)
	assert.ErrorIs(t, err, domain.ErrUnsupportedType)
}

func TestRegisterDefaults(t *testing.T) {
	r := NewRegistry()
	RegisterDefaults(r, nopReader{})

	assert.Equal(t, []string{
		groups.Name,
		naming.MatePairName,
		content.ChecksumName,
		naming.ReadGroupName,
		content.JSONName,
	}, r.Names())
}

func TestRegisterDefaults_NoReader(t *testing.T) {
	r := NewRegistry()
	RegisterDefaults(r, nil)

	assert.True(t, r.Has(naming.MatePairName))
	assert.False(t, r.Has(content.JSONName))
	assert.False(t, r.Has(content.ChecksumName))
}

func TestBuildGroupdict_Config(t *testing.T) {
	tests := []struct {
		name string
		cfg  map[string]any
		want []string
	}{
		{"nil config", nil, nil},
		{"string slice", map[string]any{"groups": []string{"plate"}}, []string{"plate"}},
		{"toml array", map[string]any{"groups": []any{"plate", "sample", 3}}, []string{"plate", "sample"}},
		{"wrong type", map[string]any{"groups": "plate"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fn, err := buildGroupdict(tt.cfg)
			require.NoError(t, err)
			assert.Equal(t, tt.want, fn.(*groups.Function).Keys())
		})
	}
}
