/*

This file contains the Prometheus counters for the evaluation service,
exposed on the web server's /metrics endpoint.

*/

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EvaluationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rfr_evaluations_total",
		Help: "Total number of risk evaluations started",
	})

	EvaluationsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rfr_evaluations_failed_total",
		Help: "Number of risk evaluations that ended with an error status",
	})

	CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rfr_extraction_cache_hits_total",
		Help: "Number of report documents served from the reconciled-table cache",
	})

	CacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rfr_extraction_cache_misses_total",
		Help: "Number of report documents that required full extraction",
	})

	ModelCallsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rfr_model_calls_dropped_total",
		Help: "Number of estimator model calls dropped from the candidate set due to errors or timeouts",
	})
)
