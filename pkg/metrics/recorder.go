// Package metrics provides Prometheus-based metrics recording and querying
// for LLM and tool operations.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder records metrics for LLM requests, agent runs, and tool invocations.
type Recorder interface {
	ObserveRequest(model, agent string, promptTokens, completionTokens int, cost float64, success bool, errorType string, duration time.Duration)
	IncRun(agent, status string)
	IncToolInvocation(tool, status string)
}

// PrometheusRecorder implements the Recorder interface using Prometheus metrics.
type PrometheusRecorder struct {
	requestsTotal   *prometheus.CounterVec
	tokensTotal     *prometheus.CounterVec
	costsTotal      *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	runsTotal       *prometheus.CounterVec
	toolsTotal      *prometheus.CounterVec
}

// NewPrometheusRecorder creates a recorder registered on the default registry.
func NewPrometheusRecorder() *PrometheusRecorder {
	return NewPrometheusRecorderWithRegistry(prometheus.DefaultRegisterer)
}

// NewPrometheusRecorderWithRegistry creates a recorder registered on a custom
// registerer. Used by tests to avoid duplicate registration on the default
// registry.
func NewPrometheusRecorderWithRegistry(reg prometheus.Registerer) *PrometheusRecorder {
	factory := promauto.With(reg)
	return &PrometheusRecorder{
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "llm_requests_total",
				Help: "Total number of LLM requests by model, agent, and status",
			},
			[]string{"model", "agent", "status", "error_type"},
		),
		tokensTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "llm_tokens_total",
				Help: "Total number of tokens used in LLM requests",
			},
			[]string{"model", "agent", "type"},
		),
		costsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "llm_costs_total",
				Help: "Total cost in USD for LLM requests",
			},
			[]string{"model", "agent"},
		),
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "llm_request_duration_seconds",
				Help:    "Duration of LLM requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"model", "agent"},
		),
		runsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agent_runs_total",
				Help: "Total number of agent runs by agent and terminal status",
			},
			[]string{"agent", "status"},
		),
		toolsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tool_invocations_total",
				Help: "Total number of tool invocations by tool and status",
			},
			[]string{"tool", "status"},
		),
	}
}

// ObserveRequest records metrics for a completed LLM request.
func (p *PrometheusRecorder) ObserveRequest(
	model, agent string,
	promptTokens, completionTokens int,
	cost float64,
	success bool,
	errorType string,
	duration time.Duration,
) {
	status := "success"
	if !success {
		status = "error"
	}

	p.requestsTotal.WithLabelValues(model, agent, status, errorType).Inc()

	// Tokens and costs only count on success
	if success {
		p.tokensTotal.WithLabelValues(model, agent, "prompt").Add(float64(promptTokens))
		p.tokensTotal.WithLabelValues(model, agent, "completion").Add(float64(completionTokens))
		p.costsTotal.WithLabelValues(model, agent).Add(cost)
	}

	p.requestDuration.WithLabelValues(model, agent).Observe(duration.Seconds())
}

// IncRun increments the run counter for an agent's terminal status.
func (p *PrometheusRecorder) IncRun(agent, status string) {
	p.runsTotal.WithLabelValues(agent, status).Inc()
}

// IncToolInvocation increments the tool invocation counter.
func (p *PrometheusRecorder) IncToolInvocation(tool, status string) {
	p.toolsTotal.WithLabelValues(tool, status).Inc()
}

// NoopRecorder discards all metrics. Used when metrics are disabled.
type NoopRecorder struct{}

// NewNoopRecorder creates a recorder that drops everything.
func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) ObserveRequest(string, string, int, int, float64, bool, string, time.Duration) {
}
func (n *NoopRecorder) IncRun(string, string)            {}
func (n *NoopRecorder) IncToolInvocation(string, string) {}
