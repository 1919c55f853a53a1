package driving

import (
	"context"

	"github.com/custodia-labs/trellis/internal/core/domain"
)

// ObjectIngestor turns storage create events into graph upsert requests.
type ObjectIngestor interface {
	// HandleCreateEvent runs the full pipeline for one event and publishes the
	// resulting query request. The outcome is returned even when err is nil
	// and nothing was published (awaiting identifier, ignored log file).
	HandleCreateEvent(ctx context.Context, event domain.ObjectEvent, ectx domain.EventContext) (*domain.Outcome, error)

	// Prepare runs the pipeline without the identifier gate and without
	// publishing. Used for dry runs and classification tooling.
	Prepare(ctx context.Context, event domain.ObjectEvent, ectx domain.EventContext) (*domain.Outcome, error)
}

// MetadataAnnotator writes derived name and time fields back onto an object.
type MetadataAnnotator interface {
	// Annotate computes the standard fields for event and patches them into
	// the object's metadata. Returns the fields written.
	Annotate(ctx context.Context, event domain.ObjectEvent) (map[string]string, error)
}
