package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/trellis/internal/adapters/driving/push"
	"github.com/custodia-labs/trellis/internal/core/domain"
	"github.com/custodia-labs/trellis/internal/logger"
)

// shutdownTimeout bounds graceful shutdown of the HTTP servers.
const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve Pub/Sub push endpoints",
	Long: `Start an HTTP server receiving Pub/Sub push deliveries.

Endpoints:
  POST /events/object  object create notifications
  POST /events/job     database query responses holding a JobRequest node
  GET  /metrics        Prometheus metrics
  GET  /health         liveness

Permanent failures are acknowledged so the message is not redelivered.
Transient failures return 500 and Pub/Sub retries them.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var serveAddr string

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "listen address")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if services.Ingestor == nil {
		return errors.New("ingest service not configured")
	}

	server := push.NewServer(serveAddr, services.Ingestor, services.Jobs, services.Metrics)
	if err := server.Start(); err != nil {
		return err
	}
	cmd.Printf("Listening on %s\n", server.Addr())

	ctx := commandContext(cmd)
	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-server.Errors():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Stop(shutdownCtx); err != nil {
		logger.Warn("shutdown: %v", err)
	}
	return serveErr
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Ingest files as they appear under --root",
	Long: `Watch the local directory given by --root and run the ingestion pipeline
for every file created or written. Metadata writes re-deliver the file's event,
so a new file is handled twice: once to assign its identifier, then again to
publish its node.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	if services.Ingestor == nil {
		return errors.New("ingest service not configured")
	}
	if services.Source == nil {
		return fmt.Errorf("%w: watch requires --root", domain.ErrInvalidInput)
	}

	ctx := commandContext(cmd)
	events, err := services.Source.Watch(ctx)
	if err != nil {
		return fmt.Errorf("failed to watch: %w", err)
	}
	cmd.Printf("Watching bucket %s\n", services.Source.Bucket())

	for event := range events {
		ectx := domain.EventContext{
			EventID:   uuid.NewString(),
			EventType: finalizeEventType,
			Timestamp: time.Now().UTC(),
			Resource:  objectResource(event.Bucket, event.Name),
		}
		outcome, err := services.Ingestor.HandleCreateEvent(ctx, event, ectx)
		if err != nil {
			logger.Error(err, "failed to handle %s", event.Name)
			continue
		}
		cmd.Printf("%s  %s  %s\n", outcome.Kind, event.Name, outcome.Label)
	}
	return nil
}
