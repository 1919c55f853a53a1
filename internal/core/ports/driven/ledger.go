package driven

import (
	"context"

	"github.com/custodia-labs/trellis/internal/core/domain"
)

// EventLedger records the outcome of every handled event.
type EventLedger interface {
	// Record stores an event outcome. Re-recording an event ID overwrites it.
	Record(ctx context.Context, record domain.EventRecord) error

	// Get retrieves the record for an event ID.
	// Returns domain.ErrNotFound if the event was never recorded.
	Get(ctx context.Context, eventID string) (*domain.EventRecord, error)

	// List returns the most recent records, newest first.
	List(ctx context.Context, limit int) ([]domain.EventRecord, error)
}

// Outbox lists messages recorded by a local publisher.
type Outbox interface {
	// Messages returns the most recent messages, newest first.
	Messages(ctx context.Context, limit int) ([]domain.OutboxMessage, error)
}
