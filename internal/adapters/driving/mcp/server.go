// Package mcp exposes trellis classification over the Model Context Protocol.
//
// Tools classify object paths, build MERGE statements and list handled
// events. Resources publish the label registry, the taxonomy and single
// event records under the trellis:// scheme. Nothing served here writes
// object metadata or publishes query requests.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/trellis/internal/logger"
)

// Version is the MCP server version.
const Version = "0.1.0"

const serverName = "trellis"

// Server serves the trellis tools and resources.
type Server struct {
	ports  *Ports
	server *mcp.Server
}

// NewServer creates a server over ports. Tools and resources backed by an
// optional port are registered only when that port is set.
func NewServer(ports *Ports) (*Server, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("validating ports: %w", err)
	}

	impl := &mcp.Implementation{
		Name:    serverName,
		Version: Version,
	}

	s := &Server{ports: ports}
	s.server = mcp.NewServer(impl, &mcp.ServerOptions{
		Instructions: s.instructions(),
	})

	s.registerTools()
	s.registerResources()

	return s, nil
}

// instructions tells the client which tools are available for the
// configured ports.
func (s *Server) instructions() string {
	var b strings.Builder
	b.WriteString("trellis classifies genomic storage objects by path and builds the Cypher MERGE for their graph node. ")
	b.WriteString("Use classify to preview the leaf label and properties of a gs:// object path, ")
	b.WriteString("and build_merge_query to render the upsert for a label and property set.")
	if s.ports.Events != nil {
		b.WriteString(" Use list_events or read trellis://events/{eventId} to inspect handled storage events.")
	}
	if s.ports.Catalog != nil {
		b.WriteString(" The trellis://labels resource lists labels in match order.")
	}
	if s.ports.Tree != nil {
		b.WriteString(" The trellis://taxonomy resource holds the label hierarchy.")
	}
	return b.String()
}

// Run serves over stdio until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// RunHTTP serves the streamable HTTP transport on addr until ctx is cancelled.
func (s *Server) RunHTTP(ctx context.Context, addr string) error {
	handler := mcp.NewStreamableHTTPHandler(func(_ *http.Request) *mcp.Server {
		return s.server
	}, nil)

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("mcp server shutdown: %v", err)
		}
	}()

	logger.Info("mcp server listening on %s", addr)
	err := httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
