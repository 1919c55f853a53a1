// Package pubsub publishes query requests to Cloud Pub/Sub topics.
package pubsub

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	pubsubapi "google.golang.org/api/pubsub/v1"

	"github.com/custodia-labs/trellis/internal/connectors/google"
	"github.com/custodia-labs/trellis/internal/core/ports/driven"
)

// Ensure Publisher implements the interface.
var _ driven.Publisher = (*Publisher)(nil)

// Publisher sends messages through the Pub/Sub REST API.
type Publisher struct {
	svc     *pubsubapi.Service
	project string
	limiter *google.RateLimiter
}

// NewPublisher creates a publisher for topics in project. limiter may be nil.
func NewPublisher(svc *pubsubapi.Service, project string, limiter *google.RateLimiter) *Publisher {
	if limiter == nil {
		limiter = google.NewRateLimiter(google.ServicePubSub)
	}
	return &Publisher{
		svc:     svc,
		project: project,
		limiter: limiter,
	}
}

// TopicName expands a short topic id to its full resource name. Names that
// already start with "projects/" are returned unchanged.
func (p *Publisher) TopicName(topic string) string {
	if strings.HasPrefix(topic, "projects/") {
		return topic
	}
	return fmt.Sprintf("projects/%s/topics/%s", p.project, topic)
}

// Publish sends message to topic and returns the server-assigned message ID.
func (p *Publisher) Publish(ctx context.Context, topic string, message []byte) (string, error) {
	if topic == "" {
		return "", fmt.Errorf("publish: empty topic")
	}
	name := p.TopicName(topic)
	req := &pubsubapi.PublishRequest{
		Messages: []*pubsubapi.PubsubMessage{{
			Data: base64.StdEncoding.EncodeToString(message),
		}},
	}

	var resp *pubsubapi.PublishResponse
	err := p.limiter.Do(ctx, google.DefaultMaxAttempts, func() error {
		var err error
		resp, err = p.svc.Projects.Topics.Publish(name, req).Context(ctx).Do()
		return err
	})
	if err != nil {
		return "", fmt.Errorf("publish to %s: %w", name, google.WrapError(err))
	}
	if len(resp.MessageIds) == 0 {
		return "", fmt.Errorf("publish to %s: no message id returned", name)
	}
	return resp.MessageIds[0], nil
}
