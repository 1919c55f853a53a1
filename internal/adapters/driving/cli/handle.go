package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/trellis/internal/core/domain"
)

// finalizeEventType is the trigger type reported for locally handled events.
const finalizeEventType = "google.storage.object.finalize"

var handleCmd = &cobra.Command{
	Use:   "handle [event.json]",
	Short: "Handle one object create event",
	Long: `Run the ingestion pipeline for a storage object event and publish the
resulting query request.

The event is the JSON_API_V1 object payload. Use "-" to read it from stdin.

Examples:
  trellis handle event.json
  trellis handle --dry-run - < event.json
  gsutil ls -L ... | trellis handle --event-id 1234 -`,
	Args: cobra.ExactArgs(1),
	RunE: runHandle,
}

var annotateCmd = &cobra.Command{
	Use:   "annotate [event.json]",
	Short: "Write name and time fields onto an object",
	Long: `Compute the standard name and time fields for an object event and write
them into the object's custom metadata.`,
	Args: cobra.ExactArgs(1),
	RunE: runAnnotate,
}

var (
	handleEventID string
	handleDryRun  bool
	handleJSON    bool
)

func init() {
	handleCmd.Flags().StringVar(&handleEventID, "event-id", "", "delivery event ID (default random)")
	handleCmd.Flags().BoolVar(&handleDryRun, "dry-run", false, "build the request without writing or publishing")
	handleCmd.Flags().BoolVar(&handleJSON, "json", false, "print the query request as JSON")
	rootCmd.AddCommand(handleCmd)
	rootCmd.AddCommand(annotateCmd)
}

func runHandle(cmd *cobra.Command, args []string) error {
	if services.Ingestor == nil {
		return errors.New("ingest service not configured")
	}

	var event domain.ObjectEvent
	if err := decodeInput(cmd, args[0], &event); err != nil {
		return err
	}

	eventID := handleEventID
	if eventID == "" {
		eventID = uuid.NewString()
	}
	ectx := domain.EventContext{
		EventID:   eventID,
		EventType: finalizeEventType,
		Timestamp: time.Now().UTC(),
		Resource:  objectResource(event.Bucket, event.Name),
	}

	ctx := commandContext(cmd)
	var (
		outcome *domain.Outcome
		err     error
	)
	if handleDryRun {
		outcome, err = services.Ingestor.Prepare(ctx, event, ectx)
	} else {
		outcome, err = services.Ingestor.HandleCreateEvent(ctx, event, ectx)
	}
	if err != nil {
		return fmt.Errorf("failed to handle %s: %w", event.Name, err)
	}

	if handleJSON {
		if outcome.Request == nil {
			return printJSON(cmd, outcome)
		}
		return printJSON(cmd, outcome.Request)
	}
	printOutcome(cmd, outcome)
	return nil
}

func runAnnotate(cmd *cobra.Command, args []string) error {
	if services.Annotator == nil {
		return errors.New("annotate service not configured")
	}

	var event domain.ObjectEvent
	if err := decodeInput(cmd, args[0], &event); err != nil {
		return err
	}

	fields, err := services.Annotator.Annotate(commandContext(cmd), event)
	if err != nil {
		return fmt.Errorf("failed to annotate %s: %w", event.Name, err)
	}

	cmd.Printf("Annotated gs://%s/%s\n", event.Bucket, event.Name)
	for _, k := range sortedKeys(fields) {
		cmd.Printf("  %s: %s\n", k, fields[k])
	}
	return nil
}
