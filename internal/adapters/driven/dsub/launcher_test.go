package dsub

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/trellis/internal/core/domain"
)

// fakeDsub writes a shell script standing in for dsub and returns its path.
// The script records its arguments in args.txt next to itself.
func fakeDsub(t *testing.T, body string) (binary, argsFile string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script fake needs a POSIX shell")
	}
	dir := t.TempDir()
	argsFile = filepath.Join(dir, "args.txt")
	script := "#!/bin/sh\nfor a in \"$@\"; do echo \"$a\" >> '" + argsFile + "'; done\n" + body + "\n"
	binary = filepath.Join(dir, "dsub")
	require.NoError(t, os.WriteFile(binary, []byte(script), 0700)) //nolint:gosec // test executable
	return binary, argsFile
}

func TestNewLauncher_DefaultBinary(t *testing.T) {
	assert.Equal(t, DefaultBinary, NewLauncher("").binary)
}

func TestLauncher_Launch(t *testing.T) {
	binary, argsFile := fakeDsub(t, "echo 'Job properties:' >&2\necho 'ignored line'\necho 'fastq-to-ubam--trellis--240301'")

	handle, err := NewLauncher(binary).Launch(context.Background(), []string{"--name", "fastq-to-ubam", "--label", "job-request-id=42"})

	require.NoError(t, err)
	assert.Equal(t, "fastq-to-ubam--trellis--240301", handle.JobID)

	recorded, err := os.ReadFile(argsFile)
	require.NoError(t, err)
	assert.Equal(t, []string{"--name", "fastq-to-ubam", "--label", "job-request-id=42"},
		strings.Split(strings.TrimSpace(string(recorded)), "\n"))
}

func TestLauncher_Launch_Failure(t *testing.T) {
	binary, _ := fakeDsub(t, "echo 'ValueError: bad --regions' >&2\nexit 2")

	_, err := NewLauncher(binary).Launch(context.Background(), []string{"--name", "x"})

	assert.ErrorIs(t, err, domain.ErrLaunchFailed)
	assert.Contains(t, err.Error(), "bad --regions")
	assert.False(t, domain.IsPermanent(err))
}

func TestLauncher_Launch_NoJobID(t *testing.T) {
	binary, _ := fakeDsub(t, "true")

	_, err := NewLauncher(binary).Launch(context.Background(), []string{"--name", "x"})

	assert.ErrorIs(t, err, domain.ErrLaunchFailed)
}

func TestLauncher_Launch_DryRun(t *testing.T) {
	binary, _ := fakeDsub(t, "true")

	handle, err := NewLauncher(binary).Launch(context.Background(), []string{"--name", "x", "--dry-run"})

	require.NoError(t, err)
	assert.Equal(t, DryRunJobID, handle.JobID)
}

func TestLauncher_Launch_MissingBinary(t *testing.T) {
	_, err := NewLauncher(filepath.Join(t.TempDir(), "nope")).Launch(context.Background(), nil)

	assert.ErrorIs(t, err, domain.ErrLaunchFailed)
}

func TestLauncher_Launch_Cancelled(t *testing.T) {
	binary, _ := fakeDsub(t, "sleep 5\necho late")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewLauncher(binary).Launch(ctx, nil)

	assert.ErrorIs(t, err, domain.ErrLaunchFailed)
}
