// Package metrics provides Prometheus-compatible instrumentation for the LLM
// client core: call latency, token usage, retries, and tool-loop activity.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusMetrics collects metrics across chat, stream, and tool-loop
// calls, namespaced "llmcore".
//
// Metrics exposed:
//
//  1. inflight_calls (gauge): calls currently in flight. Labels: provider.
//  2. call_latency_ms (histogram): end-to-end call duration. Labels:
//     provider, model, status (success/error/timeout).
//  3. retries_total (counter): retry attempts. Labels: provider, model, reason.
//  4. tokens_total (counter): tokens consumed. Labels: provider, model, kind
//     (input/output).
//  5. tool_invocations_total (counter): local tool executions inside a tool
//     loop. Labels: provider, tool, status (success/error).
//  6. rate_limit_events_total (counter): provider rate-limit responses.
//     Labels: provider, reason.
//
// Usage:
//
//	registry := prometheus.NewRegistry()
//	m := metrics.NewPrometheusMetrics(registry)
//	m.RecordCallLatency("openai", "gpt-4o", 250*time.Millisecond, "success")
type PrometheusMetrics struct {
	inflightCalls *prometheus.GaugeVec
	callLatency   *prometheus.HistogramVec
	retries       *prometheus.CounterVec
	tokens        *prometheus.CounterVec
	toolCalls     *prometheus.CounterVec
	rateLimits    *prometheus.CounterVec

	mu      sync.RWMutex
	enabled bool
}

// NewPrometheusMetrics registers the llmcore_* metric family with registry.
// A nil registry uses prometheus.DefaultRegisterer.
func NewPrometheusMetrics(registry prometheus.Registerer) *PrometheusMetrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	factory := promauto.With(registry)

	pm := &PrometheusMetrics{enabled: true}

	pm.inflightCalls = factory.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "llmcore",
		Name:      "inflight_calls",
		Help:      "Current number of chat/stream/tool-loop calls in flight",
	}, []string{"provider"})

	pm.callLatency = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "llmcore",
		Name:      "call_latency_ms",
		Help:      "End-to-end call duration in milliseconds",
		Buckets:   []float64{10, 50, 100, 500, 1000, 2500, 5000, 10000, 30000, 60000},
	}, []string{"provider", "model", "status"})

	pm.retries = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "llmcore",
		Name:      "retries_total",
		Help:      "Cumulative count of provider request retries",
	}, []string{"provider", "model", "reason"})

	pm.tokens = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "llmcore",
		Name:      "tokens_total",
		Help:      "Cumulative token count by direction",
	}, []string{"provider", "model", "kind"})

	pm.toolCalls = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "llmcore",
		Name:      "tool_invocations_total",
		Help:      "Local tool executions performed inside a tool loop",
	}, []string{"provider", "tool", "status"})

	pm.rateLimits = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "llmcore",
		Name:      "rate_limit_events_total",
		Help:      "Provider rate-limit or quota responses encountered",
	}, []string{"provider", "reason"})

	return pm
}

// RecordCallLatency observes call duration for a provider/model/status triple.
func (pm *PrometheusMetrics) RecordCallLatency(provider, model string, latency time.Duration, status string) {
	if !pm.isEnabled() {
		return
	}
	pm.callLatency.WithLabelValues(provider, model, status).Observe(float64(latency.Milliseconds()))
}

// IncrementRetries records a retry attempt.
func (pm *PrometheusMetrics) IncrementRetries(provider, model, reason string) {
	if !pm.isEnabled() {
		return
	}
	pm.retries.WithLabelValues(provider, model, reason).Inc()
}

// AddTokens adds count tokens of the given kind ("input" or "output") to the running total.
func (pm *PrometheusMetrics) AddTokens(provider, model, kind string, count int) {
	if !pm.isEnabled() || count <= 0 {
		return
	}
	pm.tokens.WithLabelValues(provider, model, kind).Add(float64(count))
}

// UpdateInflightCalls sets the current number of in-flight calls for provider.
func (pm *PrometheusMetrics) UpdateInflightCalls(provider string, count int) {
	if !pm.isEnabled() {
		return
	}
	pm.inflightCalls.WithLabelValues(provider).Set(float64(count))
}

// IncrementToolInvocations records one tool execution outcome.
func (pm *PrometheusMetrics) IncrementToolInvocations(provider, tool, status string) {
	if !pm.isEnabled() {
		return
	}
	pm.toolCalls.WithLabelValues(provider, tool, status).Inc()
}

// IncrementRateLimitEvents records a rate-limit or quota response from provider.
func (pm *PrometheusMetrics) IncrementRateLimitEvents(provider, reason string) {
	if !pm.isEnabled() {
		return
	}
	pm.rateLimits.WithLabelValues(provider, reason).Inc()
}

func (pm *PrometheusMetrics) isEnabled() bool {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	return pm.enabled
}

// Disable stops metric recording. Useful in tests that don't want to pollute
// a shared registry.
func (pm *PrometheusMetrics) Disable() {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.enabled = false
}

// Enable re-enables metric recording after Disable.
func (pm *PrometheusMetrics) Enable() {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.enabled = true
}
