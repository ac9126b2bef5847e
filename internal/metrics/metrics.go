package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "brief"

// Candidate outcomes.
const (
	OutcomeIncluded = "included"
	OutcomeExcluded = "excluded"
)

// Collector holds the Prometheus metrics for allocation, model calls and the
// response cache.
type Collector struct {
	registry *prometheus.Registry

	candidates    *prometheus.CounterVec
	estimates     prometheus.Histogram
	requests      *prometheus.CounterVec
	modelLatency  *prometheus.HistogramVec
	modelTokens   *prometheus.CounterVec
	cacheLookups  *prometheus.CounterVec
	budgetUsedPct prometheus.Histogram
}

// NewCollector creates a collector and registers its metrics. A nil registry
// gets a fresh one.
func NewCollector(registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	c := &Collector{
		registry: registry,
		candidates: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "candidates_total",
				Help:      "Candidate files seen by the allocator, by outcome and exclusion reason",
			},
			[]string{"outcome", "reason"},
		),
		estimates: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "candidate_estimated_tokens",
				Help:      "Estimated token count per candidate file",
				Buckets:   []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000, 50000},
			},
		),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "requests_total",
				Help:      "Summary requests by mode and status",
			},
			[]string{"mode", "status"},
		),
		modelLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "model_request_duration_seconds",
				Help:      "Latency of model provider calls",
				Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60, 120},
			},
			[]string{"provider", "model", "status"},
		),
		modelTokens: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "model_tokens_total",
				Help:      "Tokens reported by the model provider",
			},
			[]string{"provider", "model"},
		),
		cacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_lookups_total",
				Help:      "Response cache lookups by result",
			},
			[]string{"result"},
		),
		budgetUsedPct: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "budget_used_ratio",
				Help:      "Share of the total token budget used by an allocation",
				Buckets:   prometheus.LinearBuckets(0.1, 0.1, 10),
			},
		),
	}

	registry.MustRegister(
		c.candidates,
		c.estimates,
		c.requests,
		c.modelLatency,
		c.modelTokens,
		c.cacheLookups,
		c.budgetUsedPct,
	)
	return c
}

// RecordCandidate records one allocator decision. reason is empty for
// included candidates.
func (c *Collector) RecordCandidate(outcome, reason string, tokens int) {
	if c == nil {
		return
	}
	c.candidates.WithLabelValues(outcome, reason).Inc()
	c.estimates.Observe(float64(tokens))
}

// RecordBudgetUse records how much of the budget an allocation consumed.
func (c *Collector) RecordBudgetUse(used, budget int) {
	if c == nil || budget <= 0 {
		return
	}
	c.budgetUsedPct.Observe(float64(used) / float64(budget))
}

// RecordRequest counts a finished request. mode is "analyze" or "summarize".
func (c *Collector) RecordRequest(mode, status string) {
	if c == nil {
		return
	}
	c.requests.WithLabelValues(mode, status).Inc()
}

// RecordModelCall records the latency of a provider call and, on success,
// the tokens it reported.
func (c *Collector) RecordModelCall(provider, model string, d time.Duration, tokensUsed int, err error) {
	if c == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	c.modelLatency.WithLabelValues(provider, model, status).Observe(d.Seconds())
	if err == nil && tokensUsed > 0 {
		c.modelTokens.WithLabelValues(provider, model).Add(float64(tokensUsed))
	}
}

// RecordCacheHit counts a response cache hit.
func (c *Collector) RecordCacheHit() {
	if c == nil {
		return
	}
	c.cacheLookups.WithLabelValues("hit").Inc()
}

// RecordCacheMiss counts a response cache miss.
func (c *Collector) RecordCacheMiss() {
	if c == nil {
		return
	}
	c.cacheLookups.WithLabelValues("miss").Inc()
}

// Registry returns the registry the collector's metrics are registered with.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler returns an HTTP handler serving the collector's registry in the
// Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{
		ErrorHandling: promhttp.ContinueOnError,
	})
}
