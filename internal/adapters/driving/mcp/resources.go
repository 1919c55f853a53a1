package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/trellis/internal/core/domain"
)

const (
	// uriScheme is the custom URI scheme for Trellis resources.
	uriScheme = "trellis://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "labels",
		Name:        "labels",
		Description: "Registry labels in match order with their metadata functions",
		MIMEType:    "application/json",
	}, s.handleLabelsResource)

	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "taxonomy",
		Name:        "taxonomy",
		Description: "The label hierarchy used to resolve leaf labels",
		MIMEType:    "application/json",
	}, s.handleTaxonomyResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "events/{eventId}",
		Name:        "event",
		Description: "The recorded outcome of one storage event",
		MIMEType:    "application/json",
	}, s.handleEventResource)
}

// handleLabelsResource lists the registry labels.
func (s *Server) handleLabelsResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	type labelInfo struct {
		Name      string   `json:"name"`
		Functions []string `json:"functions"`
	}

	infos := []labelInfo{}
	if s.ports.Catalog != nil {
		for _, name := range s.ports.Catalog.Labels() {
			infos = append(infos, labelInfo{Name: name, Functions: s.ports.Catalog.Functions(name)})
		}
	}
	return jsonResource(req.Params.URI, infos)
}

// handleTaxonomyResource returns the label tree.
func (s *Server) handleTaxonomyResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Tree == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	return jsonResource(req.Params.URI, s.ports.Tree.Tree())
}

// handleEventResource returns one ledger record.
func (s *Server) handleEventResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Events == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	eventID := extractEventID(req.Params.URI)
	if eventID == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	record, err := s.ports.Events.Get(ctx, eventID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	if err != nil {
		return nil, fmt.Errorf("getting event: %w", err)
	}
	return jsonResource(req.Params.URI, toEventOutput(record))
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling %s: %w", uri, err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractEventID extracts the event ID from a URI like trellis://events/{eventId}.
func extractEventID(uri string) string {
	const prefix = uriScheme + "events/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}
	id := strings.TrimPrefix(uri, prefix)
	if strings.Contains(id, "/") {
		return ""
	}
	return id
}
