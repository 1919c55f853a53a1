package domain

// LogLabel is the sentinel leaf label for log files. Log objects are never
// turned into graph nodes.
const LogLabel = "Log"

// MatchResult is the transient output of label matching.
type MatchResult struct {
	// Labels are the matched labels in registry order.
	Labels []string

	// Properties is the enriched property set.
	Properties PropertySet
}

// OutcomeKind is the result category of handling one storage event.
type OutcomeKind string

const (
	// OutcomePublished indicates a query request was built and handed to the publisher.
	OutcomePublished OutcomeKind = "published"

	// OutcomeAwaitingIdentifier indicates an identifier was written to the object
	// and processing stopped; the metadata write re-delivers the event.
	OutcomeAwaitingIdentifier OutcomeKind = "awaiting_identifier"

	// OutcomeIgnored indicates the object resolved to the Log label.
	OutcomeIgnored OutcomeKind = "ignored"

	// OutcomeFailed indicates processing stopped with an error.
	OutcomeFailed OutcomeKind = "failed"
)

// String returns the string representation.
func (k OutcomeKind) String() string {
	return string(k)
}

// Outcome reports what happened to one storage event.
type Outcome struct {
	Kind OutcomeKind

	// Identifier is the object's stable identifier (existing or newly written).
	Identifier string

	// Labels are the matched labels before taxonomy resolution.
	Labels []string

	// Label is the resolved leaf label, empty when none was chosen.
	Label string

	// Request is the query request, set only when Kind is OutcomePublished.
	Request *QueryRequest

	// MessageID is the publisher's acknowledgement identifier.
	MessageID string
}
