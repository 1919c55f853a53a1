package driving

import (
	"context"

	"github.com/custodia-labs/trellis/internal/core/domain"
)

// JobLaunchResult reports what the launcher did with a job request.
type JobLaunchResult struct {
	// Args is the rendered launcher argument list.
	Args []string

	// Handle identifies the launched job.
	Handle domain.JobHandle

	// Request is the createJobNode query request that was published.
	Request *domain.QueryRequest

	// MessageID is the publisher's acknowledgement identifier.
	MessageID string
}

// JobLaunchService translates JobRequest nodes into batch jobs.
type JobLaunchService interface {
	// LaunchJob launches the job described by the single JobRequest node in
	// response and publishes a createJobNode request for it.
	LaunchJob(ctx context.Context, response domain.QueryResponse) (*JobLaunchResult, error)
}
