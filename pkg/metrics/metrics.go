// Package metrics holds the prometheus collectors for aggregation, tagging
// and queue work.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	namespace = "genrelay"

	OutcomeWhitelist = "whitelist"
	OutcomeFallback  = "fallback"
	OutcomeError     = "error"
	OutcomeSuccess   = "success"
)

var (
	registry = prometheus.NewRegistry()

	aggregations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "aggregations_total",
			Help:      "Genre aggregations by outcome",
		},
		[]string{"outcome"},
	)

	workItems = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "work_items_total",
			Help:      "Queue messages processed by worker kind and outcome",
		},
		[]string{"worker", "outcome"},
	)

	taggerDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tagger_duration_seconds",
			Help:      "Tagging model run time",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"model", "outcome"},
	)
)

func init() {
	registry.MustRegister(aggregations, workItems, taggerDuration)
}

// Registry returns the registry all collectors are registered with.
func Registry() *prometheus.Registry {
	return registry
}

// Handler serves the registry in the prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}

func RecordAggregation(outcome string) {
	aggregations.WithLabelValues(outcome).Inc()
}

func RecordWorkItem(worker string, err error) {
	workItems.WithLabelValues(worker, outcome(err)).Inc()
}

func ObserveTagger(model string, d time.Duration, err error) {
	taggerDuration.WithLabelValues(model, outcome(err)).Observe(d.Seconds())
}

func outcome(err error) string {
	if err != nil {
		return OutcomeError
	}
	return OutcomeSuccess
}
