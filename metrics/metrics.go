package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	AllocationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "allocator_allocations_total",
			Help: "Requesters resolved by allocation passes",
		},
		[]string{"phase"}, // preferred|fallback|waitlist
	)

	PassDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "allocator_pass_duration_seconds",
			Help:    "Duration of a full allocation pass",
			Buckets: prometheus.DefBuckets,
		},
	)

	QueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "allocator_ranked_queue_depth",
			Help: "Requesters queued at the start of the last pass",
		},
	)

	Utilization = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "allocator_resource_utilization_ratio",
			Help: "Occupied over total capacity after the last pass",
		},
	)

	PublishFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "allocator_publish_failures_total",
			Help: "Allocation results that could not be published",
		},
	)
)

func init() {
	prometheus.MustRegister(AllocationsTotal)
	prometheus.MustRegister(PassDuration)
	prometheus.MustRegister(QueueDepth)
	prometheus.MustRegister(Utilization)
	prometheus.MustRegister(PublishFailures)
}

func Register(mux *http.ServeMux) {
	mux.Handle("/metrics", promhttp.Handler())
}
