package domain

// Returns describes the shape of the result the database service should
// report back after running a query.
type Returns struct {
	// Pattern is the result pattern, "node" for single-node upserts.
	Pattern string `json:"pattern"`

	// Start is the label of the node the pattern starts from.
	Start string `json:"start"`
}

// QueryRequest is the outbound envelope asking the database service to run a
// parameterised query. It is immutable once built and is not persisted
// beyond the optional local outbox.
type QueryRequest struct {
	Sender           string      `json:"sender"`
	SeedID           string      `json:"seedId"`
	PreviousEventID  string      `json:"previousEventId"`
	QueryName        string      `json:"queryName"`
	QueryParameters  PropertySet `json:"queryParameters"`
	Cypher           string      `json:"cypher"`
	WriteTransaction bool        `json:"writeTransaction"`
	AggregateResults bool        `json:"aggregateResults"`
	PublishTo        []string    `json:"publishTo"`
	Returns          Returns     `json:"returns"`
}

// Node is a graph node as reported by the database service.
type Node struct {
	ID         int64          `json:"id"`
	Labels     []string       `json:"labels"`
	Properties map[string]any `json:"properties"`
}

// HasLabel reports whether the node carries label.
func (n *Node) HasLabel(label string) bool {
	for _, l := range n.Labels {
		if l == label {
			return true
		}
	}
	return false
}

// ResponseHeader identifies the request chain a query response belongs to.
type ResponseHeader struct {
	Sender          string `json:"sender"`
	SeedID          string `json:"seedId"`
	EventID         string `json:"eventId"`
	PreviousEventID string `json:"previousEventId"`
}

// ResponseBody carries the nodes returned by a query.
type ResponseBody struct {
	QueryName string `json:"queryName,omitempty"`
	Nodes     []Node `json:"nodes"`
}

// QueryResponse is the inbound message the database service publishes after
// running a query. The job launcher consumes responses carrying JobRequest nodes.
type QueryResponse struct {
	Header ResponseHeader `json:"header"`
	Body   ResponseBody   `json:"body"`
}
