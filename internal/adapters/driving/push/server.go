// Package push serves Pub/Sub push subscriptions over HTTP.
//
// Each endpoint receives a push envelope, decodes the message payload and
// hands it to a core service. The response status tells Pub/Sub whether to
// redeliver: 2xx acknowledges the message, anything else asks for a retry.
// Data and configuration defects are acknowledged so that a message that can
// never succeed is not redelivered forever; transient faults are not.
package push

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/custodia-labs/trellis/internal/core/domain"
	"github.com/custodia-labs/trellis/internal/core/ports/driving"
	"github.com/custodia-labs/trellis/internal/logger"
	"github.com/custodia-labs/trellis/internal/metrics"
)

// Endpoint paths.
const (
	PathObjectEvents = "/events/object"
	PathJobEvents    = "/events/job"
	PathMetrics      = "/metrics"
	PathHealth       = "/health"
)

// maxBodyBytes bounds the size of a push request body.
const maxBodyBytes = 10 << 20

// Message is the Pub/Sub message inside a push envelope.
type Message struct {
	Data        string            `json:"data"`
	Attributes  map[string]string `json:"attributes,omitempty"`
	MessageID   string            `json:"messageId"`
	PublishTime time.Time         `json:"publishTime"`
}

// Envelope is the body Pub/Sub posts to a push endpoint.
type Envelope struct {
	Message      Message `json:"message"`
	Subscription string  `json:"subscription"`
}

// Server exposes the ingest and job launch services as push endpoints.
type Server struct {
	mu       sync.Mutex
	addr     string
	handler  http.Handler
	server   *http.Server
	listener net.Listener
	errChan  chan error

	ingestor driving.ObjectIngestor
	launcher driving.JobLaunchService
}

// NewServer creates a push server listening on addr. launcher may be nil, in
// which case the job endpoint is not registered. m may be nil, in which case
// the metrics endpoint is not registered.
func NewServer(addr string, ingestor driving.ObjectIngestor, launcher driving.JobLaunchService, m *metrics.Metrics) *Server {
	s := &Server{
		addr:     addr,
		errChan:  make(chan error, 1),
		ingestor: ingestor,
		launcher: launcher,
	}

	mux := http.NewServeMux()
	mux.HandleFunc(PathObjectEvents, s.handleObjectEvent)
	if launcher != nil {
		mux.HandleFunc(PathJobEvents, s.handleJobEvent)
	}
	if m != nil {
		mux.Handle(PathMetrics, m.Handler())
	}
	mux.HandleFunc(PathHealth, handleHealth)
	s.handler = mux

	return s
}

// Handler returns the HTTP handler serving all endpoints.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start starts listening. A port of 0 in addr picks a free port.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	s.listener = listener
	s.server = &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      5 * time.Minute,
	}

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			select {
			case s.errChan <- err:
			default:
			}
		}
	}()

	logger.Info("push endpoints listening on %s", listener.Addr())
	return nil
}

// Errors reports a failure of the serving goroutine.
func (s *Server) Errors() <-chan error {
	return s.errChan
}

// Addr returns the address the server listens on, or the configured address
// before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

// Stop shuts the server down, waiting for in-flight requests until ctx ends.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) handleObjectEvent(w http.ResponseWriter, r *http.Request) {
	env, data, ok := decodeEnvelope(w, r)
	if !ok {
		return
	}

	var event domain.ObjectEvent
	if err := json.Unmarshal(data, &event); err != nil {
		acknowledge(w, env, fmt.Errorf("%w: object payload: %v", domain.ErrMalformedInput, err))
		return
	}

	ectx := domain.EventContext{
		EventID:   env.Message.MessageID,
		EventType: env.Message.Attributes["eventType"],
		Timestamp: env.Message.PublishTime,
		Resource:  fmt.Sprintf("projects/_/buckets/%s/objects/%s", event.Bucket, event.Name),
	}
	if id := env.Message.Attributes["notificationId"]; ectx.EventID == "" && id != "" {
		ectx.EventID = id
	}

	outcome, err := s.ingestor.HandleCreateEvent(r.Context(), event, ectx)
	if err != nil {
		respondError(w, env, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"outcome":    outcome.Kind.String(),
		"label":      outcome.Label,
		"identifier": outcome.Identifier,
		"messageId":  outcome.MessageID,
	})
}

func (s *Server) handleJobEvent(w http.ResponseWriter, r *http.Request) {
	env, data, ok := decodeEnvelope(w, r)
	if !ok {
		return
	}

	var response domain.QueryResponse
	if err := json.Unmarshal(data, &response); err != nil {
		acknowledge(w, env, fmt.Errorf("%w: query response: %v", domain.ErrMalformedInput, err))
		return
	}

	result, err := s.launcher.LaunchJob(r.Context(), response)
	if err != nil {
		respondError(w, env, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"jobId":     result.Handle.JobID,
		"messageId": result.MessageID,
	})
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy", "service": "trellis"})
}

// decodeEnvelope reads the push envelope and its base64 payload. It writes
// the response itself and returns ok=false when the request cannot be used.
func decodeEnvelope(w http.ResponseWriter, r *http.Request) (*Envelope, []byte, bool) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return nil, nil, false
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		http.Error(w, "request body too large or unreadable", http.StatusRequestEntityTooLarge)
		return nil, nil, false
	}

	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		acknowledge(w, &env, fmt.Errorf("%w: push envelope: %v", domain.ErrMalformedInput, err))
		return nil, nil, false
	}
	data, err := base64.StdEncoding.DecodeString(env.Message.Data)
	if err != nil {
		acknowledge(w, &env, fmt.Errorf("%w: message data: %v", domain.ErrMalformedInput, err))
		return nil, nil, false
	}
	if len(data) == 0 {
		acknowledge(w, &env, fmt.Errorf("%w: empty message data", domain.ErrMalformedInput))
		return nil, nil, false
	}
	return &env, data, true
}

// respondError acknowledges permanent failures and asks for redelivery of
// transient ones.
func respondError(w http.ResponseWriter, env *Envelope, err error) {
	if domain.IsPermanent(err) {
		acknowledge(w, env, err)
		return
	}
	log := logger.With(map[string]any{"messageId": env.Message.MessageID})
	log.Warn().Err(err).Msg("transient failure; requesting redelivery")
	http.Error(w, err.Error(), http.StatusInternalServerError)
}

// acknowledge drops a message that can never be processed.
func acknowledge(w http.ResponseWriter, env *Envelope, err error) {
	log := logger.With(map[string]any{"messageId": env.Message.MessageID})
	log.Error().Err(err).Msg("dropping message")
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
