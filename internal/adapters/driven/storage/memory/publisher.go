package memory

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/custodia-labs/trellis/internal/core/domain"
	"github.com/custodia-labs/trellis/internal/core/ports/driven"
)

// Ensure Publisher implements the interfaces.
var (
	_ driven.Publisher = (*Publisher)(nil)
	_ driven.Outbox    = (*Publisher)(nil)
)

// Publisher keeps published messages in memory. Message IDs are sequential.
type Publisher struct {
	mu       sync.RWMutex
	messages []domain.OutboxMessage
	now      func() time.Time
}

// NewPublisher creates a new in-memory publisher.
func NewPublisher() *Publisher {
	return &Publisher{now: time.Now}
}

// Publish appends message to the outbox.
func (p *Publisher) Publish(_ context.Context, topic string, message []byte) (string, error) {
	if topic == "" {
		return "", fmt.Errorf("%w: empty topic", domain.ErrInvalidInput)
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	id := strconv.Itoa(len(p.messages) + 1)
	data := make([]byte, len(message))
	copy(data, message)
	p.messages = append(p.messages, domain.OutboxMessage{
		ID:         id,
		Topic:      topic,
		Data:       data,
		RecordedAt: p.now(),
	})
	return id, nil
}

// Messages returns up to limit messages, newest first.
func (p *Publisher) Messages(_ context.Context, limit int) ([]domain.OutboxMessage, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	n := len(p.messages)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]domain.OutboxMessage, 0, n)
	for i := len(p.messages) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, p.messages[i])
	}
	return out, nil
}
