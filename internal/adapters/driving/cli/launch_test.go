package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/trellis/internal/core/domain"
)

const responseJSON = `{
  "header": {"sender": "db-query", "seedId": "seed-1", "eventId": "evt-9"},
  "body": {
    "queryName": "requestFastqToUbam",
    "nodes": [{"id": 42, "labels": ["JobRequest"], "properties": {"name": "fastq-to-ubam", "sample": "S0"}}]
  }
}`

func TestLaunchCmd(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	path := filepath.Join(t.TempDir(), "response.json")
	require.NoError(t, os.WriteFile(path, []byte(responseJSON), 0o600))

	out, err := execute(t, "launch", path)

	require.NoError(t, err)
	require.Len(t, ts.jobs.response.Body.Nodes, 1)
	assert.Equal(t, int64(42), ts.jobs.response.Body.Nodes[0].ID)
	assert.Equal(t, "evt-9", ts.jobs.response.Header.EventID)
	assert.Contains(t, out, "Job ID:     dry-run")
	assert.Contains(t, out, "Message ID: msg-2")
	assert.Contains(t, out, "Arguments:  --name fastq-to-ubam --dry-run")
}

func TestLaunchCmd_Error(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.jobs.err = domain.ErrNotJobRequest

	path := filepath.Join(t.TempDir(), "response.json")
	require.NoError(t, os.WriteFile(path, []byte(responseJSON), 0o600))

	_, err := execute(t, "launch", path)

	assert.ErrorIs(t, err, domain.ErrNotJobRequest)
}

func TestLaunchCmd_NotConfigured(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	services.Jobs = nil

	_, err := execute(t, "launch", "-")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "job launch service not configured")
}
