// Package metrics provides Prometheus metrics for the trellis pipeline.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for one pipeline instance. Each
// instance owns its registry so several can coexist in one process.
type Metrics struct {
	registry *prometheus.Registry

	// Event metrics
	EventsTotal        *prometheus.CounterVec
	EventDuration      prometheus.Histogram
	LabelsMatchedTotal *prometheus.CounterVec

	// Publishing metrics
	MessagesPublishedTotal *prometheus.CounterVec
	PublishErrorsTotal     *prometheus.CounterVec

	// Job launcher metrics
	JobsLaunchedTotal *prometheus.CounterVec
}

// New creates and registers all metrics on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		EventsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trellis_events_total",
				Help: "Storage events handled, by outcome",
			},
			[]string{"outcome"},
		),

		EventDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "trellis_event_duration_seconds",
				Help:    "Time spent handling one storage event",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
		),

		LabelsMatchedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trellis_labels_resolved_total",
				Help: "Leaf labels resolved for storage objects",
			},
			[]string{"label"},
		),

		MessagesPublishedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trellis_messages_published_total",
				Help: "Messages handed to the publisher, by topic",
			},
			[]string{"topic"},
		),

		PublishErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trellis_publish_errors_total",
				Help: "Failed publish attempts, by topic",
			},
			[]string{"topic"},
		),

		JobsLaunchedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trellis_jobs_launched_total",
				Help: "Batch jobs submitted, by task and mode",
			},
			[]string{"task", "mode"},
		),
	}
}

// Registry returns the registry backing these metrics.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns an HTTP handler exposing the metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordEvent records the outcome and duration of one event.
// Safe to call on a nil receiver.
func (m *Metrics) RecordEvent(outcome, label string, duration time.Duration) {
	if m == nil {
		return
	}
	m.EventsTotal.WithLabelValues(outcome).Inc()
	m.EventDuration.Observe(duration.Seconds())
	if label != "" {
		m.LabelsMatchedTotal.WithLabelValues(label).Inc()
	}
}

// RecordPublish records a publish attempt for topic.
// Safe to call on a nil receiver.
func (m *Metrics) RecordPublish(topic string, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.PublishErrorsTotal.WithLabelValues(topic).Inc()
		return
	}
	m.MessagesPublishedTotal.WithLabelValues(topic).Inc()
}

// RecordJob records a submitted job. mode is "launch" or "dry-run".
// Safe to call on a nil receiver.
func (m *Metrics) RecordJob(task, mode string) {
	if m == nil {
		return
	}
	m.JobsLaunchedTotal.WithLabelValues(task, mode).Inc()
}
