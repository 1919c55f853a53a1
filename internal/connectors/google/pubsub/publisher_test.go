package pubsub

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/trellis/internal/connectors/google"
	"github.com/custodia-labs/trellis/internal/core/domain"
)

type fakePubSub struct {
	mu       sync.Mutex
	paths    []string
	data     [][]byte
	status   []int
	notFound bool
}

func (f *fakePubSub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.paths = append(f.paths, r.URL.Path)
	w.Header().Set("Content-Type", "application/json")

	if len(f.status) > 0 {
		code := f.status[0]
		f.status = f.status[1:]
		w.Header().Set("Retry-After", "0")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{"code": code, "message": "try later"}})
		return
	}
	if f.notFound {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{"code": 404, "message": "Topic not found"}})
		return
	}

	var req struct {
		Messages []struct {
			Data string `json:"data"`
		} `json:"messages"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)
	for _, m := range req.Messages {
		raw, _ := base64.StdEncoding.DecodeString(m.Data)
		f.data = append(f.data, raw)
	}
	_ = json.NewEncoder(w).Encode(map[string]any{"messageIds": []string{"m-1"}})
}

func newTestPublisher(t *testing.T, fake *fakePubSub) *Publisher {
	t.Helper()

	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	ctx := context.Background()
	opts, err := google.ClientOptions(ctx, "", srv.URL+"/")
	require.NoError(t, err)
	svc, err := google.NewPubSubService(ctx, opts...)
	require.NoError(t, err)

	limiter := google.NewRateLimiterWithConfig(google.RateLimitConfig{RequestsPerSecond: 1000, BurstSize: 100})
	limiter.SetBackoff(time.Millisecond)
	return NewPublisher(svc, "proj", limiter)
}

func TestTopicName(t *testing.T) {
	p := NewPublisher(nil, "proj", nil)

	assert.Equal(t, "projects/proj/topics/TOPIC_DB_QUERY", p.TopicName("TOPIC_DB_QUERY"))
	assert.Equal(t, "projects/other/topics/t", p.TopicName("projects/other/topics/t"))
}

func TestPublish(t *testing.T) {
	fake := &fakePubSub{}
	p := newTestPublisher(t, fake)

	id, err := p.Publish(context.Background(), "TOPIC_DB_QUERY", []byte(`{"queryName":"mergeBlobFastq"}`))

	require.NoError(t, err)
	assert.Equal(t, "m-1", id)
	require.Len(t, fake.data, 1)
	assert.JSONEq(t, `{"queryName":"mergeBlobFastq"}`, string(fake.data[0]))
	assert.Equal(t, []string{"/v1/projects/proj/topics/TOPIC_DB_QUERY:publish"}, fake.paths)
}

func TestPublish_RetriesUnavailable(t *testing.T) {
	fake := &fakePubSub{status: []int{http.StatusServiceUnavailable, http.StatusTooManyRequests}}
	p := newTestPublisher(t, fake)

	id, err := p.Publish(context.Background(), "t", []byte("x"))

	require.NoError(t, err)
	assert.Equal(t, "m-1", id)
	assert.Len(t, fake.paths, 3)
}

func TestPublish_GivesUp(t *testing.T) {
	fake := &fakePubSub{status: []int{500, 500, 500, 500}}
	p := newTestPublisher(t, fake)

	_, err := p.Publish(context.Background(), "t", []byte("x"))

	assert.Error(t, err)
	assert.Len(t, fake.paths, google.DefaultMaxAttempts)
}

func TestPublish_NotFound(t *testing.T) {
	p := newTestPublisher(t, &fakePubSub{notFound: true})

	_, err := p.Publish(context.Background(), "missing", []byte("x"))

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPublish_EmptyTopic(t *testing.T) {
	p := NewPublisher(nil, "proj", nil)

	_, err := p.Publish(context.Background(), "", []byte("x"))
	assert.Error(t, err)
}
