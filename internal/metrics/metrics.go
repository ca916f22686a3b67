// Package metrics exposes the gateway's Prometheus instrumentation.
// Grounded on the ingestion-subsystem metrics pattern from the example
// corpus (a lazily-registered package-level struct behind sync.Once):
// every component records through the same handful of counters/
// histograms instead of rolling its own.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

type registry struct {
	once sync.Once

	stepsTotal      *prometheus.CounterVec
	stepDuration    *prometheus.HistogramVec
	batchDuration   prometheus.Histogram
	sourceAPITotal  *prometheus.CounterVec
	sourceRetries   *prometheus.CounterVec
	rateLimiterWait prometheus.Histogram
	pipelinesTotal  *prometheus.CounterVec
}

var m registry

func (r *registry) init() {
	r.once.Do(func() {
		buckets := []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30}

		r.stepsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "biosearch_pipeline_steps_total", Help: "Pipeline steps executed, by action and outcome.",
		}, []string{"action", "outcome"})

		r.stepDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: "biosearch_pipeline_step_seconds", Help: "Pipeline step duration.", Buckets: buckets,
		}, []string{"action"})

		r.batchDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name: "biosearch_pipeline_batch_seconds", Help: "Pipeline executor batch duration.", Buckets: buckets,
		})

		r.sourceAPITotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "biosearch_source_api_calls_total", Help: "Upstream adapter calls, by source and outcome.",
		}, []string{"source", "outcome"})

		r.sourceRetries = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "biosearch_source_retries_total", Help: "Upstream adapter retry attempts, by source.",
		}, []string{"source"})

		r.rateLimiterWait = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name: "biosearch_rate_limiter_wait_seconds", Help: "Time spent waiting for a rate limiter token.", Buckets: buckets,
		})

		r.pipelinesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "biosearch_pipelines_total", Help: "Pipeline executions, by outcome.",
		}, []string{"outcome"})

		prometheus.MustRegister(
			r.stepsTotal, r.stepDuration, r.batchDuration,
			r.sourceAPITotal, r.sourceRetries, r.rateLimiterWait, r.pipelinesTotal,
		)
	})
}

// ObserveStep records one step's outcome ("ok" or "error") and duration.
func ObserveStep(action, outcome string, seconds float64) {
	m.init()
	m.stepsTotal.WithLabelValues(action, outcome).Inc()
	m.stepDuration.WithLabelValues(action).Observe(seconds)
}

// ObserveBatch records one executor batch's wall-clock duration.
func ObserveBatch(seconds float64) {
	m.init()
	m.batchDuration.Observe(seconds)
}

// ObserveSourceCall records one adapter call's outcome ("ok" or "error").
func ObserveSourceCall(source, outcome string) {
	m.init()
	m.sourceAPITotal.WithLabelValues(source, outcome).Inc()
}

// ObserveSourceRetry records one retry attempt by an adapter.
func ObserveSourceRetry(source string) {
	m.init()
	m.sourceRetries.WithLabelValues(source).Inc()
}

// ObserveRateLimiterWait records time spent blocked on a rate limiter.
func ObserveRateLimiterWait(seconds float64) {
	m.init()
	m.rateLimiterWait.Observe(seconds)
}

// ObservePipeline records one execute_pipeline call's outcome ("ok",
// "aborted", or "invalid").
func ObservePipeline(outcome string) {
	m.init()
	m.pipelinesTotal.WithLabelValues(outcome).Inc()
}
