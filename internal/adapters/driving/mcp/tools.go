package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/trellis/internal/core/domain"
	"github.com/custodia-labs/trellis/internal/cypher"
)

// ClassifyInput is the input schema for the classify tool.
type ClassifyInput struct {
	Bucket      string            `json:"bucket" jsonschema:"the bucket holding the object"`
	Path        string            `json:"path" jsonschema:"the object path inside the bucket"`
	Size        string            `json:"size,omitempty" jsonschema:"object size in bytes (default 0)"`
	TimeCreated string            `json:"time_created,omitempty" jsonschema:"RFC 3339 creation time (default now)"`
	Metadata    map[string]string `json:"metadata,omitempty" jsonschema:"custom object metadata"`
}

// ClassifyOutput is the output schema for the classify tool.
type ClassifyOutput struct {
	Labels     []string       `json:"labels"`
	Label      string         `json:"label,omitempty"`
	Outcome    string         `json:"outcome"`
	QueryName  string         `json:"query_name,omitempty"`
	Cypher     string         `json:"cypher,omitempty"`
	Properties map[string]any `json:"properties,omitempty"`
}

// MergeQueryInput is the input schema for the build_merge_query tool.
type MergeQueryInput struct {
	Label      string         `json:"label" jsonschema:"the node label"`
	Properties map[string]any `json:"properties" jsonschema:"node properties; must include uri"`
}

// MergeQueryOutput is the output schema for the build_merge_query tool.
type MergeQueryOutput struct {
	Cypher string `json:"cypher"`
}

// ListEventsInput is the input schema for the list_events tool.
type ListEventsInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"maximum number of events to return (default 20)"`
}

// EventOutput is one recorded event outcome.
type EventOutput struct {
	EventID     string `json:"event_id"`
	Path        string `json:"path"`
	Outcome     string `json:"outcome"`
	Label       string `json:"label,omitempty"`
	Error       string `json:"error,omitempty"`
	ProcessedAt string `json:"processed_at"`
}

// ListEventsOutput is the output schema for the list_events tool.
type ListEventsOutput struct {
	Events []EventOutput `json:"events"`
	Count  int           `json:"count"`
}

// defaultTimeCreated stands in for the creation time of a hypothetical object.
const defaultTimeCreated = "1970-01-01T00:00:00Z"

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "classify",
		Description: "Classify a storage object path and preview the graph upsert it would produce",
	}, s.handleClassify)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "build_merge_query",
		Description: "Build the Cypher MERGE statement for a label and property set",
	}, s.handleBuildMergeQuery)

	if s.ports.Events != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "list_events",
			Description: "List the most recently handled storage events and their outcomes",
		}, s.handleListEvents)
	}
}

// handleClassify runs the pipeline for a synthetic event without writing or publishing.
func (s *Server) handleClassify(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ClassifyInput,
) (*mcp.CallToolResult, ClassifyOutput, error) {
	event := domain.ObjectEvent{
		Bucket:      input.Bucket,
		Name:        input.Path,
		Size:        input.Size,
		TimeCreated: input.TimeCreated,
		Updated:     input.TimeCreated,
		Metadata:    input.Metadata,
	}
	if event.Size == "" {
		event.Size = "0"
	}
	if event.TimeCreated == "" {
		event.TimeCreated = defaultTimeCreated
		event.Updated = defaultTimeCreated
	}

	outcome, err := s.ports.Ingestor.Prepare(ctx, event, domain.EventContext{EventID: "mcp-classify"})
	if err != nil {
		return nil, ClassifyOutput{}, fmt.Errorf("classifying %s: %w", input.Path, err)
	}

	output := ClassifyOutput{
		Labels:  outcome.Labels,
		Label:   outcome.Label,
		Outcome: outcome.Kind.String(),
	}
	if outcome.Request != nil {
		output.QueryName = outcome.Request.QueryName
		output.Cypher = outcome.Request.Cypher
		output.Properties = outcome.Request.QueryParameters
	}
	return nil, output, nil
}

// handleBuildMergeQuery renders the MERGE statement for the given properties.
func (s *Server) handleBuildMergeQuery(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input MergeQueryInput,
) (*mcp.CallToolResult, MergeQueryOutput, error) {
	props := domain.NewPropertySet()
	props.Merge(input.Properties)
	if err := props.Finalize(); err != nil {
		return nil, MergeQueryOutput{}, err
	}

	query, err := cypher.BuildMergeQuery(input.Label, props)
	if err != nil {
		return nil, MergeQueryOutput{}, err
	}
	return nil, MergeQueryOutput{Cypher: query}, nil
}

// handleListEvents returns recent ledger records.
func (s *Server) handleListEvents(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ListEventsInput,
) (*mcp.CallToolResult, ListEventsOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = 20
	}

	records, err := s.ports.Events.List(ctx, limit)
	if err != nil {
		return nil, ListEventsOutput{}, fmt.Errorf("listing events: %w", err)
	}

	output := ListEventsOutput{
		Events: make([]EventOutput, len(records)),
		Count:  len(records),
	}
	for i := range records {
		output.Events[i] = toEventOutput(&records[i])
	}
	return nil, output, nil
}

func toEventOutput(r *domain.EventRecord) EventOutput {
	return EventOutput{
		EventID:     r.EventID,
		Path:        "gs://" + r.Bucket + "/" + r.Path,
		Outcome:     r.Outcome.String(),
		Label:       r.Label,
		Error:       r.Error,
		ProcessedAt: r.ProcessedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
}
