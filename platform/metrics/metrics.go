// Package metrics provides Prometheus instrumentation for conversation turns
// and quote generation.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder receives engine and quote observations.
type Recorder interface {
	ObserveTurn(state, intent, source string, duration time.Duration)
	IncTransition(from, to string)
	IncFallback(reason string)
	IncQuote(result string)
}

// PrometheusRecorder implements Recorder on a dedicated registry.
type PrometheusRecorder struct {
	registry     *prometheus.Registry
	turnsTotal   *prometheus.CounterVec
	turnDuration *prometheus.HistogramVec
	transitions  *prometheus.CounterVec
	fallbacks    *prometheus.CounterVec
	quotesTotal  *prometheus.CounterVec
}

// NewPrometheusRecorder registers the collectors on a fresh registry that
// also exposes the Go runtime and process collectors.
func NewPrometheusRecorder() *PrometheusRecorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &PrometheusRecorder{
		registry: reg,
		turnsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cotizador_turns_total",
				Help: "Conversation turns processed by state, intent and intent source",
			},
			[]string{"state", "intent", "source"},
		),
		turnDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "cotizador_turn_duration_seconds",
				Help:    "Wall time of a conversation turn including language model calls",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 20},
			},
			[]string{"state"},
		),
		transitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cotizador_transitions_total",
				Help: "Conversation state transitions",
			},
			[]string{"from", "to"},
		),
		fallbacks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cotizador_fallback_total",
				Help: "Turns answered by the keyword fallback, by reason",
			},
			[]string{"reason"},
		),
		quotesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cotizador_quotes_total",
				Help: "Quote generation attempts by result",
			},
			[]string{"result"},
		),
	}
}

// ObserveTurn records one processed turn.
func (p *PrometheusRecorder) ObserveTurn(state, intent, source string, duration time.Duration) {
	p.turnsTotal.WithLabelValues(state, intent, source).Inc()
	p.turnDuration.WithLabelValues(state).Observe(duration.Seconds())
}

// IncTransition counts a state change.
func (p *PrometheusRecorder) IncTransition(from, to string) {
	p.transitions.WithLabelValues(from, to).Inc()
}

// IncFallback counts a turn handled without the classifier.
func (p *PrometheusRecorder) IncFallback(reason string) {
	p.fallbacks.WithLabelValues(reason).Inc()
}

// IncQuote counts a quote attempt ("created", "failed", "empty").
func (p *PrometheusRecorder) IncQuote(result string) {
	p.quotesTotal.WithLabelValues(result).Inc()
}

// Handler exposes the registry in the Prometheus text format.
func (p *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

// Nop discards every observation.
type Nop struct{}

func (Nop) ObserveTurn(string, string, string, time.Duration) {}
func (Nop) IncTransition(string, string)                      {}
func (Nop) IncFallback(string)                                {}
func (Nop) IncQuote(string)                                   {}

var (
	_ Recorder = (*PrometheusRecorder)(nil)
	_ Recorder = Nop{}
)
