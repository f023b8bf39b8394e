// Package metrics exports prediction metrics in Prometheus format.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/crimson-sun/vettriage/internal/model"
)

const (
	namespace = "vettriage"
	subsystem = "engine"

	// OutcomeOK labels successful predictions; failures use their ErrorKind.
	OutcomeOK = "ok"
)

// Config configures the Recorder.
type Config struct {
	// Registry to use (if nil, creates a new one).
	Registry *prometheus.Registry

	// Buckets for the latency histogram, in seconds.
	LatencyBuckets []float64

	// GoCollectors adds the Go runtime and process collectors.
	GoCollectors bool
}

// DefaultConfig returns buckets suited to sub-second in-process inference.
func DefaultConfig() Config {
	return Config{
		LatencyBuckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 1},
	}
}

// Recorder counts predictions by outcome, observes latency and tallies the
// top-ranked disease. It satisfies output.Output so it can sit in a fan-out.
type Recorder struct {
	registry *prometheus.Registry

	predictions *prometheus.CounterVec
	latency     prometheus.Histogram
	topDisease  *prometheus.CounterVec
	httpReqs    *prometheus.CounterVec
}

// New builds a Recorder and registers its collectors.
func New(cfg Config) *Recorder {
	if len(cfg.LatencyBuckets) == 0 {
		cfg.LatencyBuckets = DefaultConfig().LatencyBuckets
	}
	registry := cfg.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	r := &Recorder{registry: registry}

	r.predictions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "predictions_total",
			Help:      "Predictions served, by outcome",
		},
		[]string{"outcome"},
	)
	r.latency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "prediction_latency_seconds",
			Help:      "End-to-end prediction latency in seconds",
			Buckets:   cfg.LatencyBuckets,
		},
	)
	r.topDisease = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "top_disease_total",
			Help:      "Times a disease was ranked first, by urgency",
		},
		[]string{"disease", "urgency"},
	)
	r.httpReqs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests, by route and status code",
		},
		[]string{"route", "code"},
	)

	registry.MustRegister(r.predictions, r.latency, r.topDisease, r.httpReqs)
	if cfg.GoCollectors {
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	return r
}

// Observe records one prediction result and its latency.
func (r *Recorder) Observe(res model.Result, latency time.Duration) {
	outcome := OutcomeOK
	if res.Err != nil {
		outcome = string(res.Err.Kind)
	}
	r.predictions.WithLabelValues(outcome).Inc()
	r.latency.Observe(latency.Seconds())
	if top, ok := res.Top(); ok {
		r.topDisease.WithLabelValues(top.Disease, string(top.Urgency)).Inc()
	}
}

// ObserveHTTP records one served HTTP request.
func (r *Recorder) ObserveHTTP(route string, code int) {
	r.httpReqs.WithLabelValues(route, statusText(code)).Inc()
}

// Write implements output.Output.
func (r *Recorder) Write(_ context.Context, rec model.PredictionRecord) error {
	r.Observe(rec.Result, rec.Latency)
	return nil
}

// Close implements output.Output.
func (r *Recorder) Close() error { return nil }

// Handler returns the HTTP handler for the metrics endpoint.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

func statusText(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
