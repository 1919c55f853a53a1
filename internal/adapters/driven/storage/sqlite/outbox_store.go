package sqlite

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/trellis/internal/core/domain"
	"github.com/custodia-labs/trellis/internal/core/ports/driven"
)

// Verify interface compliance.
var (
	_ driven.Publisher = (*Outbox)(nil)
	_ driven.Outbox    = (*Outbox)(nil)
)

// Outbox records published messages in SQLite instead of sending them.
// It stands in for Pub/Sub when running locally.
type Outbox struct {
	store *Store
	now   func() time.Time

	mu sync.Mutex
}

func newOutbox(s *Store) *Outbox {
	return &Outbox{store: s, now: time.Now}
}

// Publish records message under topic and returns the new message ID.
func (o *Outbox) Publish(ctx context.Context, topic string, message []byte) (string, error) {
	if topic == "" {
		return "", fmt.Errorf("%w: empty topic", domain.ErrInvalidInput)
	}
	id := uuid.NewString()

	// seq keeps insertion order stable when timestamps collide.
	o.mu.Lock()
	defer o.mu.Unlock()
	_, err := o.store.db.ExecContext(ctx, `
		INSERT INTO outbox (id, seq, topic, data, recorded_at)
		VALUES (?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM outbox), ?, ?, ?)
	`, id, topic, message, o.now().UTC())
	if err != nil {
		return "", fmt.Errorf("recording message for %s: %w", topic, err)
	}
	return id, nil
}

// Messages returns the most recent messages, newest first.
func (o *Outbox) Messages(ctx context.Context, limit int) ([]domain.OutboxMessage, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := o.store.db.QueryContext(ctx, `
		SELECT id, topic, data, recorded_at FROM outbox ORDER BY seq DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying outbox: %w", err)
	}
	defer rows.Close()

	var messages []domain.OutboxMessage //nolint:prealloc // row count unknown
	for rows.Next() {
		var m domain.OutboxMessage
		if err := rows.Scan(&m.ID, &m.Topic, &m.Data, &m.RecordedAt); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}
