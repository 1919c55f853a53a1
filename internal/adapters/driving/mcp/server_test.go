package mcp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewServer(t *testing.T) {
	t.Run("nil ingestor returns error", func(t *testing.T) {
		server, err := NewServer(&Ports{})
		require.Error(t, err)
		assert.Nil(t, server)
		assert.ErrorIs(t, err, ErrMissingIngestor)
	})

	t.Run("ingestor only creates server", func(t *testing.T) {
		server, err := NewServer(&Ports{Ingestor: &mockIngestor{}})
		require.NoError(t, err)
		assert.NotNil(t, server)
	})

	t.Run("all ports creates server", func(t *testing.T) {
		server, err := NewServer(&Ports{
			Ingestor: &mockIngestor{},
			Catalog:  &mockCatalog{},
			Tree:     &mockTree{},
			Events:   &mockEvents{},
		})
		require.NoError(t, err)
		assert.NotNil(t, server)
	})
}

func TestServer_Instructions(t *testing.T) {
	t.Run("ingestor only", func(t *testing.T) {
		server, err := NewServer(&Ports{Ingestor: &mockIngestor{}})
		require.NoError(t, err)

		text := server.instructions()
		assert.Contains(t, text, "classify")
		assert.Contains(t, text, "build_merge_query")
		assert.NotContains(t, text, "list_events")
		assert.NotContains(t, text, "trellis://labels")
	})

	t.Run("optional ports advertise their tools", func(t *testing.T) {
		server, err := NewServer(&Ports{
			Ingestor: &mockIngestor{},
			Catalog:  &mockCatalog{},
			Tree:     &mockTree{},
			Events:   &mockEvents{},
		})
		require.NoError(t, err)

		text := server.instructions()
		assert.Contains(t, text, "list_events")
		assert.Contains(t, text, "trellis://events/{eventId}")
		assert.Contains(t, text, "trellis://labels")
		assert.Contains(t, text, "trellis://taxonomy")
	})
}

func TestPorts_Validate(t *testing.T) {
	assert.ErrorIs(t, (&Ports{}).Validate(), ErrMissingIngestor)
	assert.NoError(t, (&Ports{Ingestor: &mockIngestor{}}).Validate())
}
