package driven

import (
	"context"

	"github.com/custodia-labs/trellis/internal/core/domain"
)

// JobLauncher starts a batch job on external compute.
type JobLauncher interface {
	// Launch submits the rendered argument list and returns the job handle.
	Launch(ctx context.Context, args []string) (domain.JobHandle, error)
}

// TaskStore loads task definitions by name.
type TaskStore interface {
	// Load reads the task named name and resolves its ${var} placeholders
	// from vars. Returns domain.ErrUnknownTask if the task does not exist.
	Load(ctx context.Context, name string, vars map[string]string) (*domain.TaskConfig, error)
}
