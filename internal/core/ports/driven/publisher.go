package driven

import "context"

// Publisher hands a serialised message to a topic.
// Delivery is at-least-once; retries and backoff are the implementation's concern.
type Publisher interface {
	// Publish sends message to topic and returns the acknowledgement ID.
	Publish(ctx context.Context, topic string, message []byte) (string, error)
}
