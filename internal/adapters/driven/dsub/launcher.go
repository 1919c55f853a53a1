// Package dsub launches batch jobs by running the dsub command line tool.
package dsub

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/custodia-labs/trellis/internal/core/domain"
	"github.com/custodia-labs/trellis/internal/core/ports/driven"
	"github.com/custodia-labs/trellis/internal/logger"
)

// Ensure Launcher implements the interface.
var _ driven.JobLauncher = (*Launcher)(nil)

// DefaultBinary is the launcher executable looked up on PATH.
const DefaultBinary = "dsub"

// DryRunJobID is reported when dsub ran with --dry-run and printed no job id.
const DryRunJobID = "dry-run"

// maxStderr bounds how much of dsub's stderr is kept in an error.
const maxStderr = 2048

// Launcher runs the dsub binary.
type Launcher struct {
	binary string
}

// NewLauncher creates a launcher for binary. An empty binary uses DefaultBinary.
func NewLauncher(binary string) *Launcher {
	if binary == "" {
		binary = DefaultBinary
	}
	return &Launcher{binary: binary}
}

// Launch runs dsub with args. dsub prints the job id as the last line of
// standard output; progress goes to standard error.
func (l *Launcher) Launch(ctx context.Context, args []string) (domain.JobHandle, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, l.binary, args...) //nolint:gosec // G204: args rendered from task configuration
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	logger.Debug("running %s with %d arguments", l.binary, len(args))
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if len(msg) > maxStderr {
			msg = msg[len(msg)-maxStderr:]
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && msg != "" {
			return domain.JobHandle{}, fmt.Errorf("%w: %s: %v: %s", domain.ErrLaunchFailed, l.binary, err, msg)
		}
		return domain.JobHandle{}, fmt.Errorf("%w: %s: %v", domain.ErrLaunchFailed, l.binary, err)
	}

	jobID := lastLine(stdout.String())
	if jobID == "" {
		if !containsArg(args, "--dry-run") {
			return domain.JobHandle{}, fmt.Errorf("%w: %s printed no job id", domain.ErrLaunchFailed, l.binary)
		}
		jobID = DryRunJobID
	}
	return domain.JobHandle{JobID: jobID}, nil
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}

func containsArg(args []string, want string) bool {
	for _, a := range args {
		if a == want {
			return true
		}
	}
	return false
}
