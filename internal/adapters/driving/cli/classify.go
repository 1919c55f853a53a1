package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/trellis/internal/core/domain"
	"github.com/custodia-labs/trellis/internal/fields"
)

var classifyCmd = &cobra.Command{
	Use:   "classify [path|gs://bucket/path]",
	Short: "Show the label and node properties for a path",
	Long: `Classify an object path without writing metadata or publishing.

With --root the object is read from the local directory, so content-derived
properties are included. Otherwise a bare event is built from the path.
A gs:// URI names the bucket and overrides --object-bucket.`,
	Args: cobra.ExactArgs(1),
	RunE: runClassify,
}

var classifyBucket string

func init() {
	classifyCmd.Flags().StringVar(&classifyBucket, "object-bucket", "", "bucket of the object (default --bucket)")
	rootCmd.AddCommand(classifyCmd)
}

func runClassify(cmd *cobra.Command, args []string) error {
	if services.Ingestor == nil {
		return errors.New("ingest service not configured")
	}

	event, err := classifyEvent(args[0])
	if err != nil {
		return err
	}

	outcome, err := services.Ingestor.Prepare(commandContext(cmd), event, domain.EventContext{
		EventID:  "classify",
		Resource: objectResource(event.Bucket, event.Name),
	})
	if err != nil {
		return fmt.Errorf("failed to classify %s: %w", event.Name, err)
	}

	printOutcome(cmd, outcome)
	return nil
}

// classifyEvent builds the event for path from the local source when it
// holds the object, or a minimal event otherwise.
func classifyEvent(path string) (domain.ObjectEvent, error) {
	bucket := classifyBucket
	if bucket == "" {
		bucket = options.Bucket
	}
	if strings.HasPrefix(path, fields.URIScheme) {
		var err error
		if bucket, path, err = fields.ParseURI(path); err != nil {
			return domain.ObjectEvent{}, err
		}
	}

	if services.Source != nil && bucket == services.Source.Bucket() {
		event, err := services.Source.Event(path)
		if err == nil {
			return event, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return domain.ObjectEvent{}, err
		}
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	return domain.ObjectEvent{
		Name:        path,
		Bucket:      bucket,
		Size:        "0",
		TimeCreated: now,
		Updated:     now,
	}, nil
}
