package mcp

import (
	"context"

	"github.com/custodia-labs/trellis/internal/core/domain"
	"github.com/custodia-labs/trellis/internal/taxonomy"
)

// mockIngestor is a mock implementation of driving.ObjectIngestor.
type mockIngestor struct {
	event   domain.ObjectEvent
	outcome *domain.Outcome
	err     error
}

func (m *mockIngestor) HandleCreateEvent(
	_ context.Context,
	_ domain.ObjectEvent,
	_ domain.EventContext,
) (*domain.Outcome, error) {
	return m.outcome, m.err
}

func (m *mockIngestor) Prepare(
	_ context.Context,
	event domain.ObjectEvent,
	_ domain.EventContext,
) (*domain.Outcome, error) {
	m.event = event
	return m.outcome, m.err
}

// mockCatalog is a fixed label catalogue.
type mockCatalog struct {
	functions map[string][]string
	order     []string
}

func (m *mockCatalog) Labels() []string { return m.order }

func (m *mockCatalog) Functions(label string) []string { return m.functions[label] }

// mockTree is a fixed taxonomy.
type mockTree struct {
	root taxonomy.TreeNode
}

func (m *mockTree) Tree() taxonomy.TreeNode { return m.root }

// mockEvents is an in-memory event history.
type mockEvents struct {
	records []domain.EventRecord
	err     error
}

func (m *mockEvents) Get(_ context.Context, eventID string) (*domain.EventRecord, error) {
	if m.err != nil {
		return nil, m.err
	}
	for i := range m.records {
		if m.records[i].EventID == eventID {
			return &m.records[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockEvents) List(_ context.Context, limit int) ([]domain.EventRecord, error) {
	if m.err != nil {
		return nil, m.err
	}
	if limit < len(m.records) {
		return m.records[:limit], nil
	}
	return m.records, nil
}
