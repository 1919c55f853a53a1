package domain

import "time"

// EventRecord is the ledger entry for one handled storage event.
type EventRecord struct {
	EventID     string
	Bucket      string
	Path        string
	Outcome     OutcomeKind
	Label       string
	Error       string
	MessageID   string
	ProcessedAt time.Time
}

// OutboxMessage is a message recorded instead of being sent to a topic.
type OutboxMessage struct {
	ID         string
	Topic      string
	Data       []byte
	RecordedAt time.Time
}
