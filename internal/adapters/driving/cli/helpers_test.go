package cli

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/custodia-labs/trellis/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/trellis/internal/core/domain"
	"github.com/custodia-labs/trellis/internal/core/ports/driving"
	coresvc "github.com/custodia-labs/trellis/internal/core/services"
	"github.com/custodia-labs/trellis/internal/metrics"
)

type mockIngestor struct {
	outcome  *domain.Outcome
	err      error
	prepared bool
	handled  bool
	event    domain.ObjectEvent
	ectx     domain.EventContext
}

func (m *mockIngestor) HandleCreateEvent(_ context.Context, event domain.ObjectEvent, ectx domain.EventContext) (*domain.Outcome, error) {
	m.handled = true
	m.event, m.ectx = event, ectx
	return m.outcome, m.err
}

func (m *mockIngestor) Prepare(_ context.Context, event domain.ObjectEvent, ectx domain.EventContext) (*domain.Outcome, error) {
	m.prepared = true
	m.event, m.ectx = event, ectx
	return m.outcome, m.err
}

type mockAnnotator struct {
	fields map[string]string
	err    error
}

func (m *mockAnnotator) Annotate(_ context.Context, _ domain.ObjectEvent) (map[string]string, error) {
	return m.fields, m.err
}

type mockJobs struct {
	result   *driving.JobLaunchResult
	err      error
	response domain.QueryResponse
}

func (m *mockJobs) LaunchJob(_ context.Context, response domain.QueryResponse) (*driving.JobLaunchResult, error) {
	m.response = response
	return m.result, m.err
}

type testServices struct {
	ingestor  *mockIngestor
	annotator *mockAnnotator
	jobs      *mockJobs
	ledger    *memory.EventLedger
	outbox    *memory.Publisher
	config    *memory.ConfigStore
}

func publishedOutcome() *domain.Outcome {
	return &domain.Outcome{
		Kind:       domain.OutcomePublished,
		Identifier: "uuid-1",
		Labels:     []string{"Blob", "Fastq"},
		Label:      "Fastq",
		MessageID:  "msg-1",
		Request: &domain.QueryRequest{
			QueryName: "mergeBlob",
			Cypher:    "MERGE (node:Blob:Fastq {bucket: \"b\", path: \"S0_R1.fastq.gz\"})",
		},
	}
}

// setupTestServices injects mock services and returns a cleanup function
// restoring the package state.
func setupTestServices() (*testServices, func()) {
	ts := &testServices{
		ingestor:  &mockIngestor{outcome: publishedOutcome()},
		annotator: &mockAnnotator{fields: map[string]string{"trellis-uuid": "uuid-1", "sample": "S0"}},
		jobs: &mockJobs{result: &driving.JobLaunchResult{
			Args:      []string{"--name", "fastq-to-ubam", "--dry-run"},
			Handle:    domain.JobHandle{JobID: "dry-run"},
			MessageID: "msg-2",
		}},
		ledger: memory.NewEventLedger(),
		outbox: memory.NewPublisher(),
		config: memory.NewConfigStore(),
	}

	SetServices(&Services{
		Settings:  coresvc.NewSettingsService(ts.config, nil),
		Ingestor:  ts.ingestor,
		Annotator: ts.annotator,
		Jobs:      ts.jobs,
		Events:    ts.ledger,
		Outbox:    ts.outbox,
		Metrics:   metrics.New(),
	})

	return ts, func() {
		services = nil
		handleEventID, handleDryRun, handleJSON = "", false, false
		classifyBucket = ""
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
	}
}

// execute runs the root command with args and returns its output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

var testTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
