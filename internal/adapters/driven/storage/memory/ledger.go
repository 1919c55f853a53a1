package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/custodia-labs/trellis/internal/core/domain"
	"github.com/custodia-labs/trellis/internal/core/ports/driven"
)

// Ensure EventLedger implements the interface.
var _ driven.EventLedger = (*EventLedger)(nil)

// EventLedger is an in-memory implementation of driven.EventLedger.
type EventLedger struct {
	mu      sync.RWMutex
	records map[string]domain.EventRecord
}

// NewEventLedger creates a new in-memory event ledger.
func NewEventLedger() *EventLedger {
	return &EventLedger{
		records: make(map[string]domain.EventRecord),
	}
}

// Record stores or replaces the record for an event.
func (l *EventLedger) Record(_ context.Context, record domain.EventRecord) error {
	if record.EventID == "" {
		return fmt.Errorf("%w: empty event id", domain.ErrInvalidInput)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records[record.EventID] = record
	return nil
}

// Get retrieves the record for an event.
func (l *EventLedger) Get(_ context.Context, eventID string) (*domain.EventRecord, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	record, ok := l.records[eventID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &record, nil
}

// List returns up to limit records, newest first. A limit of zero or less
// returns every record.
func (l *EventLedger) List(_ context.Context, limit int) ([]domain.EventRecord, error) {
	l.mu.RLock()
	records := make([]domain.EventRecord, 0, len(l.records))
	for _, r := range l.records {
		records = append(records, r)
	}
	l.mu.RUnlock()

	sort.Slice(records, func(i, j int) bool {
		if !records[i].ProcessedAt.Equal(records[j].ProcessedAt) {
			return records[i].ProcessedAt.After(records[j].ProcessedAt)
		}
		return records[i].EventID < records[j].EventID
	})
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}
