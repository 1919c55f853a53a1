package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/trellis/internal/core/domain"
	"github.com/custodia-labs/trellis/internal/core/ports/driven"
)

// Verify interface compliance.
var _ driven.EventLedger = (*eventLedger)(nil)

// eventLedger implements driven.EventLedger using SQLite.
type eventLedger struct {
	store *Store
}

// Record stores an event outcome, replacing any earlier record for the event.
func (l *eventLedger) Record(ctx context.Context, record domain.EventRecord) error {
	if record.EventID == "" {
		return fmt.Errorf("%w: empty event id", domain.ErrInvalidInput)
	}
	processedAt := record.ProcessedAt
	if processedAt.IsZero() {
		processedAt = time.Now()
	}

	_, err := l.store.db.ExecContext(ctx, `
		INSERT INTO events (event_id, bucket, path, outcome, label, error, message_id, processed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(event_id) DO UPDATE SET
			bucket = excluded.bucket,
			path = excluded.path,
			outcome = excluded.outcome,
			label = excluded.label,
			error = excluded.error,
			message_id = excluded.message_id,
			processed_at = excluded.processed_at
	`, record.EventID, record.Bucket, record.Path, string(record.Outcome),
		record.Label, record.Error, record.MessageID, processedAt.UTC())
	if err != nil {
		return fmt.Errorf("recording event %s: %w", record.EventID, err)
	}
	return nil
}

// Get retrieves the record for an event ID.
func (l *eventLedger) Get(ctx context.Context, eventID string) (*domain.EventRecord, error) {
	row := l.store.db.QueryRowContext(ctx, `
		SELECT event_id, bucket, path, outcome, label, error, message_id, processed_at
		FROM events WHERE event_id = ?
	`, eventID)

	record, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying event: %w", err)
	}
	return record, nil
}

// List returns the most recent records, newest first.
func (l *eventLedger) List(ctx context.Context, limit int) ([]domain.EventRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := l.store.db.QueryContext(ctx, `
		SELECT event_id, bucket, path, outcome, label, error, message_id, processed_at
		FROM events ORDER BY processed_at DESC, event_id LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying events: %w", err)
	}
	defer rows.Close()

	var records []domain.EventRecord //nolint:prealloc // row count unknown
	for rows.Next() {
		record, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}
		records = append(records, *record)
	}
	return records, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEvent(row scanner) (*domain.EventRecord, error) {
	var (
		record  domain.EventRecord
		outcome string
	)
	if err := row.Scan(&record.EventID, &record.Bucket, &record.Path, &outcome,
		&record.Label, &record.Error, &record.MessageID, &record.ProcessedAt); err != nil {
		return nil, err
	}
	record.Outcome = domain.OutcomeKind(outcome)
	return &record, nil
}
