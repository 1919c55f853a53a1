package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/custodia-labs/trellis/internal/core/domain"
	"github.com/custodia-labs/trellis/internal/core/ports/driven"
	"github.com/custodia-labs/trellis/internal/core/ports/driving"
	"github.com/custodia-labs/trellis/internal/cypher"
	"github.com/custodia-labs/trellis/internal/fields"
	"github.com/custodia-labs/trellis/internal/labels"
	"github.com/custodia-labs/trellis/internal/logger"
	"github.com/custodia-labs/trellis/internal/metrics"
	"github.com/custodia-labs/trellis/internal/taxonomy"
)

// Ensure IngestService implements the interfaces.
var (
	_ driving.ObjectIngestor    = (*IngestService)(nil)
	_ driving.MetadataAnnotator = (*IngestService)(nil)
)

// mergeQueryPrefix names the upsert query sent for each label.
const mergeQueryPrefix = "mergeBlob"

// IngestService turns storage create events into graph upsert requests.
// It holds only read-only state and is safe for concurrent use.
type IngestService struct {
	registry  *labels.Registry
	taxonomy  *taxonomy.Taxonomy
	writer    driven.BlobMetadataWriter
	publisher driven.Publisher
	settings  domain.Settings

	ledger  driven.EventLedger
	metrics *metrics.Metrics
	now     func() time.Time
}

// IngestOption configures optional collaborators of the IngestService.
type IngestOption func(*IngestService)

// WithLedger records every handled event in ledger.
func WithLedger(ledger driven.EventLedger) IngestOption {
	return func(s *IngestService) {
		s.ledger = ledger
	}
}

// WithMetrics records event and publish metrics.
func WithMetrics(m *metrics.Metrics) IngestOption {
	return func(s *IngestService) {
		s.metrics = m
	}
}

// WithClock overrides the time source used for ledger timestamps and durations.
func WithClock(now func() time.Time) IngestOption {
	return func(s *IngestService) {
		if now != nil {
			s.now = now
		}
	}
}

// NewIngestService creates an ingest service. Every registry label must be
// part of the taxonomy.
func NewIngestService(
	registry *labels.Registry,
	tax *taxonomy.Taxonomy,
	writer driven.BlobMetadataWriter,
	publisher driven.Publisher,
	settings domain.Settings,
	opts ...IngestOption,
) (*IngestService, error) {
	if err := tax.Require(registry.Labels()...); err != nil {
		return nil, fmt.Errorf("label registry: %w", err)
	}

	s := &IngestService{
		registry:  registry,
		taxonomy:  tax,
		writer:    writer,
		publisher: publisher,
		settings:  settings,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// HandleCreateEvent runs the pipeline for one event and publishes the query
// request. An object without an identifier gets one written and is not
// processed further; the metadata write re-delivers the event.
func (s *IngestService) HandleCreateEvent(
	ctx context.Context,
	event domain.ObjectEvent,
	ectx domain.EventContext,
) (*domain.Outcome, error) {
	start := s.now()
	log := logger.With(map[string]any{"seedId": ectx.EventID, "bucket": event.Bucket, "path": event.Name})

	outcome, err := s.handle(ctx, event, ectx)
	if err != nil {
		outcome.Kind = domain.OutcomeFailed
		log.Error().Err(err).Bool("permanent", domain.IsPermanent(err)).Msg("event processing failed")
	} else {
		log.Info().
			Str("outcome", outcome.Kind.String()).
			Str("label", outcome.Label).
			Str("messageId", outcome.MessageID).
			Msg("event processed")
	}

	s.metrics.RecordEvent(outcome.Kind.String(), outcome.Label, s.now().Sub(start))
	s.record(ctx, event, ectx, outcome, err)
	return outcome, err
}

func (s *IngestService) handle(
	ctx context.Context,
	event domain.ObjectEvent,
	ectx domain.EventContext,
) (*domain.Outcome, error) {
	if event.Name == "" || event.Bucket == "" {
		return &domain.Outcome{}, fmt.Errorf("%w: name and bucket", domain.ErrMissingField)
	}

	if event.Identifier() == "" {
		id, err := s.writer.EnsureIdentifier(ctx, event.Bucket, event.Name)
		if err != nil {
			return &domain.Outcome{}, fmt.Errorf("ensure identifier: %w", err)
		}
		logger.Debug("identifier %s assigned to gs://%s/%s; awaiting re-delivery", id, event.Bucket, event.Name)
		return &domain.Outcome{Kind: domain.OutcomeAwaitingIdentifier, Identifier: id}, nil
	}

	outcome, err := s.Prepare(ctx, event, ectx)
	if err != nil || outcome.Kind != domain.OutcomePublished {
		return outcome, err
	}

	message, err := json.Marshal(outcome.Request)
	if err != nil {
		return outcome, fmt.Errorf("encode query request: %w", err)
	}

	topic := s.settings.TopicDBQuery
	messageID, err := s.publisher.Publish(ctx, topic, message)
	s.metrics.RecordPublish(topic, err)
	if err != nil {
		return outcome, fmt.Errorf("publish to %s: %w", topic, err)
	}
	outcome.MessageID = messageID
	return outcome, nil
}

// Prepare runs field extraction, label matching, taxonomy resolution and
// query building without the identifier gate and without publishing. The
// returned outcome has Kind OutcomePublished when a request was built.
func (s *IngestService) Prepare(
	ctx context.Context,
	event domain.ObjectEvent,
	ectx domain.EventContext,
) (*domain.Outcome, error) {
	outcome := &domain.Outcome{Identifier: event.Identifier()}

	logger.Section("Field Extraction")
	props, err := s.properties(event)
	if err != nil {
		return outcome, err
	}

	logger.Section("Label Matching")
	match, err := s.registry.Match(ctx, props)
	if match != nil {
		outcome.Labels = match.Labels
	}
	if err != nil {
		return outcome, err
	}
	logger.Debug("matched labels: %v", match.Labels)

	leaves, err := s.taxonomy.ResolveLeafLabels(match.Labels)
	if err != nil {
		return outcome, err
	}
	logger.Debug("leaf labels: %v", leaves)

	for _, l := range leaves {
		if l == domain.LogLabel {
			outcome.Kind = domain.OutcomeIgnored
			outcome.Label = domain.LogLabel
			return outcome, nil
		}
	}
	switch {
	case len(leaves) == 0:
		return outcome, fmt.Errorf("%w: %s", domain.ErrNoLabelMatched, event.Name)
	case len(leaves) > 1:
		return outcome, fmt.Errorf("%w: %s resolved to %v", domain.ErrAmbiguousLabel, event.Name, leaves)
	}
	label := leaves[0]
	outcome.Label = label

	logger.Section("Query Building")
	if err := props.Finalize(); err != nil {
		return outcome, err
	}
	query, err := cypher.BuildMergeQuery(label, props)
	if err != nil {
		return outcome, err
	}

	outcome.Kind = domain.OutcomePublished
	outcome.Request = &domain.QueryRequest{
		Sender:           s.settings.FunctionName,
		SeedID:           ectx.EventID,
		PreviousEventID:  ectx.EventID,
		QueryName:        mergeQueryPrefix + label,
		QueryParameters:  props,
		Cypher:           query,
		WriteTransaction: true,
		AggregateResults: false,
		PublishTo:        s.settings.PublishTo,
		Returns: domain.Returns{
			Pattern: "node",
			Start:   label,
		},
	}
	return outcome, nil
}

// properties builds the base property set of an event: its scalar fields,
// then the derived name and time fields, then the trigger operation.
func (s *IngestService) properties(event domain.ObjectEvent) (domain.PropertySet, error) {
	props, err := fields.EventProperties(&event)
	if err != nil {
		return nil, err
	}

	derived, err := fields.Extract(event.Name, event.Bucket, event.TimeCreated, event.Updated)
	if err != nil {
		return nil, err
	}
	props.Merge(derived)

	if s.settings.TriggerOperation != "" {
		props[fields.KeyTriggerOperation] = s.settings.TriggerOperation
	}
	return props, nil
}

// Annotate writes the derived name and time fields into the object's
// custom metadata.
func (s *IngestService) Annotate(ctx context.Context, event domain.ObjectEvent) (map[string]string, error) {
	if event.Name == "" || event.Bucket == "" {
		return nil, fmt.Errorf("%w: name and bucket", domain.ErrMissingField)
	}

	derived, err := fields.Extract(event.Name, event.Bucket, event.TimeCreated, event.Updated)
	if err != nil {
		return nil, err
	}

	values := make(map[string]string, len(derived))
	for k, v := range derived {
		values[k] = stringify(v)
	}

	if err := s.writer.PatchMetadata(ctx, event.Bucket, event.Name, values); err != nil {
		return nil, fmt.Errorf("patch metadata: %w", err)
	}
	return values, nil
}

func (s *IngestService) record(
	ctx context.Context,
	event domain.ObjectEvent,
	ectx domain.EventContext,
	outcome *domain.Outcome,
	procErr error,
) {
	if s.ledger == nil || ectx.EventID == "" {
		return
	}

	rec := domain.EventRecord{
		EventID:     ectx.EventID,
		Bucket:      event.Bucket,
		Path:        event.Name,
		Outcome:     outcome.Kind,
		Label:       outcome.Label,
		MessageID:   outcome.MessageID,
		ProcessedAt: s.now().UTC(),
	}
	if procErr != nil {
		rec.Error = procErr.Error()
	}

	if err := s.ledger.Record(ctx, rec); err != nil && !errors.Is(err, context.Canceled) {
		logger.Warn("failed to record event %s: %v", ectx.EventID, err)
	}
}

func stringify(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return fmt.Sprint(val)
	}
}
