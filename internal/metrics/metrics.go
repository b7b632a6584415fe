// Package metrics registers Prometheus metrics for LLM calls and exposes
// helpers used by the client. All methods are nil-safe so instrumentation
// is strictly optional.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/piyumiimasha/promptlab-go/internal/token"
)

// Metrics holds all Prometheus metrics owned by the LLM client.
type Metrics struct {
	// callsTotal counts completed calls, partitioned by backend and
	// outcome: "ok", "error", or "overflow".
	callsTotal *prometheus.CounterVec

	// retriesTotal counts retry attempts, partitioned by backend.
	retriesTotal *prometheus.CounterVec

	// callDurationSeconds records the latency of the successful attempt
	// (not cumulative across retries).
	callDurationSeconds *prometheus.HistogramVec

	// backoffSecondsTotal accumulates time spent sleeping between retries.
	backoffSecondsTotal *prometheus.CounterVec

	// promptTokensTotal and completionTokensTotal count provider-reported
	// token usage. Estimated-only calls do not move these counters.
	promptTokensTotal     *prometheus.CounterVec
	completionTokensTotal *prometheus.CounterVec
}

// New registers all client metrics against reg. promauto.With(reg) is used
// so each call registers into the provided registry rather than the global
// default — tests can pass a fresh prometheus.NewRegistry.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		callsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "promptlab",
			Subsystem: "llm",
			Name:      "calls_total",
			Help:      "Total number of LLM calls completed, partitioned by backend and outcome.",
		}, []string{"backend", "outcome"}),

		retriesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "promptlab",
			Subsystem: "llm",
			Name:      "retries_total",
			Help:      "Total number of retry attempts, partitioned by backend.",
		}, []string{"backend"}),

		callDurationSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "promptlab",
			Subsystem: "llm",
			Name:      "call_duration_seconds",
			Help:      "Latency of the successful provider attempt.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"backend"}),

		backoffSecondsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "promptlab",
			Subsystem: "llm",
			Name:      "backoff_seconds_total",
			Help:      "Cumulative time spent in retry backoff, partitioned by backend.",
		}, []string{"backend"}),

		promptTokensTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "promptlab",
			Subsystem: "llm",
			Name:      "prompt_tokens_total",
			Help:      "Provider-reported prompt tokens consumed, partitioned by backend.",
		}, []string{"backend"}),

		completionTokensTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "promptlab",
			Subsystem: "llm",
			Name:      "completion_tokens_total",
			Help:      "Provider-reported completion tokens consumed, partitioned by backend.",
		}, []string{"backend"}),
	}
}

// ObserveCall records one completed call.
func (m *Metrics) ObserveCall(backend, outcome string, latency time.Duration) {
	if m == nil {
		return
	}
	m.callsTotal.WithLabelValues(backend, outcome).Inc()
	if outcome == "ok" {
		m.callDurationSeconds.WithLabelValues(backend).Observe(latency.Seconds())
	}
}

// ObserveRetry records one retry attempt and its backoff delay.
func (m *Metrics) ObserveRetry(backend string, backoff time.Duration) {
	if m == nil {
		return
	}
	m.retriesTotal.WithLabelValues(backend).Inc()
	m.backoffSecondsTotal.WithLabelValues(backend).Add(backoff.Seconds())
}

// ObserveUsage records provider-reported token usage. Records nothing when
// the provider did not report actual counts.
func (m *Metrics) ObserveUsage(backend string, rec token.UsageRecord) {
	if m == nil || rec.Actual == nil {
		return
	}
	m.promptTokensTotal.WithLabelValues(backend).Add(float64(rec.Actual.PromptTokens))
	m.completionTokensTotal.WithLabelValues(backend).Add(float64(rec.Actual.CompletionTokens))
}
