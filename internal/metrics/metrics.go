// Package metrics exposes the engine's Prometheus collectors. Metrics are
// registered with promauto at package init and served on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PlatformCallDuration tracks latency of outbound ad-platform calls.
	PlatformCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "adpilot_platform_call_duration_seconds",
			Help:    "Duration of ad platform API calls in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0},
		},
		[]string{"platform", "operation", "status"}, // status: success or failure
	)

	// RetryAttempts counts backoff retries issued by the executor.
	RetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adpilot_retry_attempts_total",
			Help: "Number of retried attempts per operation",
		},
		[]string{"operation"},
	)

	// CacheReads counts cache outcomes for status reads.
	CacheReads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adpilot_cache_reads_total",
			Help: "Cache read outcomes",
		},
		[]string{"result"}, // hit, miss, stale
	)

	// RuleTriggers counts rule-engine action executions.
	RuleTriggers = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adpilot_rule_triggers_total",
			Help: "Rule actions executed by the rule engine",
		},
		[]string{"action", "result"},
	)

	// ActionRequests counts engine actions by outcome.
	ActionRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adpilot_action_requests_total",
			Help: "Engine actions executed via the dispatch table",
		},
		[]string{"action", "status"},
	)
)

// ObservePlatformCall records one outbound platform call.
func ObservePlatformCall(platform, operation, status string, seconds float64) {
	PlatformCallDuration.WithLabelValues(platform, operation, status).Observe(seconds)
}

// RecordRetry increments the retry counter for an operation.
func RecordRetry(operation string) {
	RetryAttempts.WithLabelValues(operation).Inc()
}

// RecordCacheRead increments the cache outcome counter.
func RecordCacheRead(result string) {
	CacheReads.WithLabelValues(result).Inc()
}

// RecordRuleTrigger increments the rule trigger counter.
func RecordRuleTrigger(action, result string) {
	RuleTriggers.WithLabelValues(action, result).Inc()
}

// RecordAction increments the action counter.
func RecordAction(action, status string) {
	ActionRequests.WithLabelValues(action, status).Inc()
}
