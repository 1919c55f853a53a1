package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/trellis/internal/core/domain"
)

func TestServeCmd_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("addr")
	require.NotNil(t, flag)
	assert.Equal(t, ":8080", flag.DefValue)
}

func TestServeCmd_InvalidAddress(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	defer func() { serveAddr = ":8080" }()

	_, err := execute(t, "serve", "--addr", "not-an-address")

	assert.Error(t, err)
}

func TestWatchCmd_RequiresRoot(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	_, err := execute(t, "watch")

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestMCPCmd_HasServe(t *testing.T) {
	require.Len(t, mcpCmd.Commands(), 1)
	assert.Equal(t, "serve", mcpCmd.Commands()[0].Name())
	assert.NotNil(t, mcpServeCmd.Flags().Lookup("port"))
}

func TestMCPServe_RequiresIngestor(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	services.Ingestor = nil

	_, err := execute(t, "mcp", "serve")

	assert.Error(t, err)
}
