package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/custodia-labs/trellis/internal/core/domain"
	"github.com/custodia-labs/trellis/internal/core/ports/driven"
	"github.com/custodia-labs/trellis/internal/core/ports/driving"
	"github.com/custodia-labs/trellis/internal/cypher"
	"github.com/custodia-labs/trellis/internal/logger"
	"github.com/custodia-labs/trellis/internal/metrics"
)

// Ensure JobLauncherService implements the interface.
var _ driving.JobLaunchService = (*JobLauncherService)(nil)

const (
	// jobLabel is the label of the node recording a launched job.
	jobLabel = "Job"

	// createJobQueryName names the follow-up query request.
	createJobQueryName = "createJobNode"

	// jobRequestIDKey optionally overrides the graph id as the request identifier.
	jobRequestIDKey = "jobRequestId"

	taskNameKey = "name"
)

// JobLauncherService translates JobRequest nodes into dsub jobs.
type JobLauncherService struct {
	tasks     driven.TaskStore
	launcher  driven.JobLauncher
	publisher driven.Publisher
	settings  domain.Settings
	metrics   *metrics.Metrics
}

// NewJobLauncherService creates a job launcher service. m may be nil.
func NewJobLauncherService(
	tasks driven.TaskStore,
	launcher driven.JobLauncher,
	publisher driven.Publisher,
	settings domain.Settings,
	m *metrics.Metrics,
) *JobLauncherService {
	return &JobLauncherService{
		tasks:     tasks,
		launcher:  launcher,
		publisher: publisher,
		settings:  settings,
		metrics:   m,
	}
}

// LaunchJob launches the job described by the single JobRequest node in
// response and publishes a createJobNode request carrying the job handle.
//
// Task placeholders are resolved from the settings variables overlaid with
// the node's properties. Nothing is written to the process environment.
func (s *JobLauncherService) LaunchJob(ctx context.Context, response domain.QueryResponse) (*driving.JobLaunchResult, error) {
	node, err := jobRequestNode(response)
	if err != nil {
		return nil, err
	}

	taskName, ok := node.Properties[taskNameKey].(string)
	if !ok || taskName == "" {
		return nil, fmt.Errorf("%w: job request %d has no task name", domain.ErrNotJobRequest, node.ID)
	}

	vars := s.settings.Variables()
	for k, v := range node.Properties {
		if scalar, err := domain.Scalar(v); err == nil {
			vars[k] = fmt.Sprint(scalar)
		}
	}

	task, err := s.tasks.Load(ctx, taskName, vars)
	if err != nil {
		return nil, fmt.Errorf("load task %s: %w", taskName, err)
	}

	spec := domain.JobSpec{
		Task:         *task,
		JobRequestID: jobRequestID(node),
		Project:      s.settings.ProjectID,
		DryRun:       !s.settings.Launcher.Enabled,
	}
	args, err := RenderDsubArgs(spec)
	if err != nil {
		return nil, err
	}
	logger.Debug("dsub arguments for %s: %v", taskName, args)

	handle, err := s.launcher.Launch(ctx, args)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrLaunchFailed, taskName, err)
	}
	mode := "launch"
	if spec.DryRun {
		mode = "dry-run"
	}
	s.metrics.RecordJob(taskName, mode)
	logger.Info("launched task %s as job %s (%s)", taskName, handle.JobID, mode)

	req, err := s.jobNodeRequest(response.Header, spec, handle)
	if err != nil {
		return nil, err
	}

	message, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode query request: %w", err)
	}
	topic := s.settings.TopicDBQuery
	messageID, err := s.publisher.Publish(ctx, topic, message)
	s.metrics.RecordPublish(topic, err)
	if err != nil {
		return nil, fmt.Errorf("publish to %s: %w", topic, err)
	}

	return &driving.JobLaunchResult{
		Args:      args,
		Handle:    handle,
		Request:   req,
		MessageID: messageID,
	}, nil
}

func jobRequestNode(response domain.QueryResponse) (*domain.Node, error) {
	if len(response.Body.Nodes) != 1 {
		return nil, fmt.Errorf("%w: expected one node, got %d", domain.ErrNotJobRequest, len(response.Body.Nodes))
	}
	node := &response.Body.Nodes[0]
	if !node.HasLabel(domain.JobRequestLabel) {
		return nil, fmt.Errorf("%w: node labels %v", domain.ErrNotJobRequest, node.Labels)
	}
	return node, nil
}

func jobRequestID(node *domain.Node) string {
	if id, ok := node.Properties[jobRequestIDKey].(string); ok && id != "" {
		return id
	}
	return strconv.FormatInt(node.ID, 10)
}

// jobNodeRequest builds the createJobNode request. Only scalar task fields
// are recorded; the input, output, env and label maps are left out.
func (s *JobLauncherService) jobNodeRequest(
	header domain.ResponseHeader,
	spec domain.JobSpec,
	handle domain.JobHandle,
) (*domain.QueryRequest, error) {
	task := spec.Task
	props := domain.PropertySet{
		"name":         task.Name,
		"jobRequestId": spec.JobRequestID,
		"project":      spec.Project,
		"minCores":     task.VirtualMachine.MinCores,
		"minRam":       task.VirtualMachine.MinRAM,
		"bootDiskSize": task.VirtualMachine.BootDiskSize,
		"diskSize":     task.VirtualMachine.DiskSize,
		"image":        task.VirtualMachine.Image,
		"provider":     task.Dsub.Provider,
		"regions":      task.Dsub.Regions,
		"user":         task.Dsub.User,
		"logging":      task.Dsub.Logging,
		"script":       task.Dsub.Script,
		"preemptible":  task.Dsub.Preemptible,
		"dryRun":       spec.DryRun,
		"dsubJobId":    handle.JobID,
		"dstatCmd":     DstatCommand(spec, handle.JobID),
	}
	if task.Dsub.Network != "" {
		props["network"] = task.Dsub.Network
	}
	if task.Dsub.Subnetwork != "" {
		props["subnetwork"] = task.Dsub.Subnetwork
	}

	query, err := cypher.BuildCreateQuery(jobLabel, props)
	if err != nil {
		return nil, err
	}

	return &domain.QueryRequest{
		Sender:           s.settings.FunctionName,
		SeedID:           header.SeedID,
		PreviousEventID:  header.EventID,
		QueryName:        createJobQueryName,
		QueryParameters:  props,
		Cypher:           query,
		WriteTransaction: true,
		AggregateResults: false,
		PublishTo:        s.settings.PublishTo,
		Returns: domain.Returns{
			Pattern: "node",
			Start:   jobLabel,
		},
	}, nil
}
