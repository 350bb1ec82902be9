package events

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Discard drops every event
var Discard Sink = discard{}

type discard struct{}

func (discard) Emit(context.Context, Event) {}

// LogSink writes events to a slog logger
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink returns a sink for logger, or slog.Default() when nil
func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger}
}

func (s *LogSink) Emit(ctx context.Context, e Event) {
	s.logger.LogAttrs(ctx, e.Level(), e.Name(), e.Attrs()...)
}

// MetricsSink records events as prometheus counters and histograms
type MetricsSink struct {
	events     *prometheus.CounterVec
	fallbacks  *prometheus.CounterVec
	chunks     *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	limits     *prometheus.CounterVec
	duplicates prometheus.Counter
}

// NewMetricsSink registers the chunking metrics on reg
func NewMetricsSink(reg prometheus.Registerer) (*MetricsSink, error) {
	m := &MetricsSink{
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gochunk",
			Name:      "events_total",
			Help:      "Chunking events by name.",
		}, []string{"event"}),
		fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gochunk",
			Name:      "fallbacks_total",
			Help:      "Strategy hand-offs by source and target strategy.",
		}, []string{"from", "to"}),
		chunks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gochunk",
			Name:      "chunks_total",
			Help:      "Chunks produced by strategy.",
		}, []string{"strategy"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "gochunk",
			Name:      "file_duration_seconds",
			Help:      "Time spent chunking a single file.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}, []string{"strategy"}),
		limits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gochunk",
			Name:      "resource_limits_total",
			Help:      "Resource limits hit by limit type.",
		}, []string{"limit"}),
		duplicates: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gochunk",
			Name:      "duplicate_chunks_total",
			Help:      "Chunks dropped as duplicates.",
		}),
	}

	for _, c := range []prometheus.Collector{m.events, m.fallbacks, m.chunks, m.duration, m.limits, m.duplicates} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register chunking metrics: %w", err)
		}
	}
	return m, nil
}

func (m *MetricsSink) Emit(_ context.Context, e Event) {
	m.events.WithLabelValues(e.Name()).Inc()

	switch ev := e.(type) {
	case Completed:
		m.chunks.WithLabelValues(ev.Strategy).Add(float64(ev.Chunks))
		m.duration.WithLabelValues(ev.Strategy).Observe(ev.Duration.Seconds())
	case Fallback:
		m.fallbacks.WithLabelValues(ev.From, ev.To).Inc()
	case ResourceLimit:
		m.limits.WithLabelValues(ev.LimitType).Inc()
	case Deduplication:
		m.duplicates.Add(float64(ev.Duplicates))
	}
}

// Multi fans events out to several sinks
func Multi(sinks ...Sink) Sink {
	var out multi
	for _, s := range sinks {
		if s != nil && s != Discard {
			out = append(out, s)
		}
	}
	switch len(out) {
	case 0:
		return Discard
	case 1:
		return out[0]
	}
	return out
}

type multi []Sink

func (m multi) Emit(ctx context.Context, e Event) {
	for _, s := range m {
		s.Emit(ctx, e)
	}
}

// Recorder keeps events in memory; used by tests and the MCP status tool
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Emit(_ context.Context, e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Events returns a copy of the recorded events
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Named returns recorded events with the given name
func (r *Recorder) Named(name string) []Event {
	var out []Event
	for _, e := range r.Events() {
		if e.Name() == name {
			out = append(out, e)
		}
	}
	return out
}
