package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusMetrics_RecordCallLatency(t *testing.T) {
	registry := prometheus.NewRegistry()
	pm := NewPrometheusMetrics(registry)

	pm.RecordCallLatency("openai", "gpt-4o", 120*time.Millisecond, "success")

	count := testutil.CollectAndCount(pm.callLatency)
	assert.Equal(t, 1, count)
}

func TestPrometheusMetrics_IncrementRetries(t *testing.T) {
	registry := prometheus.NewRegistry()
	pm := NewPrometheusMetrics(registry)

	pm.IncrementRetries("anthropic", "claude-sonnet-4", "rate_limit")
	pm.IncrementRetries("anthropic", "claude-sonnet-4", "rate_limit")

	value := testutil.ToFloat64(pm.retries.WithLabelValues("anthropic", "claude-sonnet-4", "rate_limit"))
	assert.Equal(t, float64(2), value)
}

func TestPrometheusMetrics_AddTokens(t *testing.T) {
	registry := prometheus.NewRegistry()
	pm := NewPrometheusMetrics(registry)

	pm.AddTokens("openai", "gpt-4o", "input", 100)
	pm.AddTokens("openai", "gpt-4o", "input", 50)
	pm.AddTokens("openai", "gpt-4o", "output", 30)

	assert.Equal(t, float64(150), testutil.ToFloat64(pm.tokens.WithLabelValues("openai", "gpt-4o", "input")))
	assert.Equal(t, float64(30), testutil.ToFloat64(pm.tokens.WithLabelValues("openai", "gpt-4o", "output")))
}

func TestPrometheusMetrics_AddTokens_IgnoresNonPositive(t *testing.T) {
	registry := prometheus.NewRegistry()
	pm := NewPrometheusMetrics(registry)

	pm.AddTokens("openai", "gpt-4o", "input", 0)
	pm.AddTokens("openai", "gpt-4o", "input", -5)

	assert.Equal(t, float64(0), testutil.ToFloat64(pm.tokens.WithLabelValues("openai", "gpt-4o", "input")))
}

func TestPrometheusMetrics_UpdateInflightCalls(t *testing.T) {
	registry := prometheus.NewRegistry()
	pm := NewPrometheusMetrics(registry)

	pm.UpdateInflightCalls("openai", 3)
	assert.Equal(t, float64(3), testutil.ToFloat64(pm.inflightCalls.WithLabelValues("openai")))

	pm.UpdateInflightCalls("openai", 1)
	assert.Equal(t, float64(1), testutil.ToFloat64(pm.inflightCalls.WithLabelValues("openai")))
}

func TestPrometheusMetrics_IncrementToolInvocations(t *testing.T) {
	registry := prometheus.NewRegistry()
	pm := NewPrometheusMetrics(registry)

	pm.IncrementToolInvocations("openai", "get_weather", "success")

	value := testutil.ToFloat64(pm.toolCalls.WithLabelValues("openai", "get_weather", "success"))
	assert.Equal(t, float64(1), value)
}

func TestPrometheusMetrics_IncrementRateLimitEvents(t *testing.T) {
	registry := prometheus.NewRegistry()
	pm := NewPrometheusMetrics(registry)

	pm.IncrementRateLimitEvents("openai", "tpm_exceeded")

	value := testutil.ToFloat64(pm.rateLimits.WithLabelValues("openai", "tpm_exceeded"))
	assert.Equal(t, float64(1), value)
}

func TestPrometheusMetrics_DisableEnable(t *testing.T) {
	registry := prometheus.NewRegistry()
	pm := NewPrometheusMetrics(registry)

	pm.Disable()
	pm.IncrementRetries("openai", "gpt-4o", "error")
	assert.Equal(t, float64(0), testutil.ToFloat64(pm.retries.WithLabelValues("openai", "gpt-4o", "error")))

	pm.Enable()
	pm.IncrementRetries("openai", "gpt-4o", "error")
	assert.Equal(t, float64(1), testutil.ToFloat64(pm.retries.WithLabelValues("openai", "gpt-4o", "error")))
}

func TestNewPrometheusMetrics_NilRegistryUsesDefault(t *testing.T) {
	require.NotPanics(t, func() {
		_ = NewPrometheusMetrics(nil)
	})
}
