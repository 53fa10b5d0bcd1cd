// Package observability provides Prometheus metrics for the intake service.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "medintake"

// Metrics holds the service collectors. A nil *Metrics records nothing.
type Metrics struct {
	turns       *prometheus.CounterVec
	llmDuration *prometheus.HistogramVec
	toolCalls   *prometheus.CounterVec
	transitions *prometheus.CounterVec
}

// NewMetrics registers the collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		turns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_total",
			Help:      "Conversation turns by stage at start and outcome",
		}, []string{"stage", "outcome"}),
		llmDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "llm_request_duration_seconds",
			Help:      "Latency of model calls",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10), // 100ms to ~51s
		}, []string{"provider", "status"}),
		toolCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tool_calls_total",
			Help:      "Dispatched tool calls by tool and status",
		}, []string{"tool", "status"}),
		transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stage_transitions_total",
			Help:      "Session stage transitions",
		}, []string{"from", "to"}),
	}
}

// ObserveTurn counts a finished turn.
func (m *Metrics) ObserveTurn(stage, outcome string) {
	if m == nil {
		return
	}
	m.turns.WithLabelValues(stage, outcome).Inc()
}

// ObserveLLMCall records the latency of a model call.
func (m *Metrics) ObserveLLMCall(provider string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.llmDuration.WithLabelValues(provider, status).Observe(elapsed.Seconds())
}

// ObserveToolCall counts a dispatched tool call.
func (m *Metrics) ObserveToolCall(tool, status string) {
	if m == nil {
		return
	}
	m.toolCalls.WithLabelValues(tool, status).Inc()
}

// ObserveTransition counts a stage change.
func (m *Metrics) ObserveTransition(from, to string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(from, to).Inc()
}
