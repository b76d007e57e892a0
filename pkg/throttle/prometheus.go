package throttle

import (
	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder adapts the MetricsRecorder interface to a Prometheus
// registry. Evaluations are exported as a counter labelled by outcome
// (allow, deny, error) and store latency as a histogram in seconds.
type PrometheusRecorder struct {
	evaluations *prometheus.CounterVec
	latency     prometheus.Histogram
}

// NewPrometheusRecorder registers the throttle metrics with reg and
// returns the recorder. Pass prometheus.DefaultRegisterer to use the
// process-wide registry.
func NewPrometheusRecorder(reg prometheus.Registerer) *PrometheusRecorder {
	r := &PrometheusRecorder{
		evaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "throttle_evaluations_total",
			Help: "Quota evaluations performed, by outcome.",
		}, []string{"outcome"}),
		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "throttle_store_latency_seconds",
			Help:    "Round-trip latency of counter store evaluations.",
			Buckets: prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(r.evaluations, r.latency)
	return r
}

func (r *PrometheusRecorder) Add(name string, value float64, tags map[string]string) {
	if name != MetricEvaluations {
		return
	}
	outcome := tags["outcome"]
	if outcome == "" {
		outcome = "unknown"
	}
	r.evaluations.WithLabelValues(outcome).Add(value)
}

func (r *PrometheusRecorder) Observe(name string, value float64, tags map[string]string) {
	if name != MetricLatency {
		return
	}
	r.latency.Observe(value)
}
