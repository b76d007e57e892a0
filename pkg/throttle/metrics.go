package throttle

// Metric names emitted by the stores.
const (
	MetricEvaluations = "throttle.evaluate"
	MetricLatency     = "throttle.latency"
)

// MetricsRecorder receives counters and timing observations from the
// throttle layer. Implementations must be safe for concurrent use.
type MetricsRecorder interface {
	Add(name string, value float64, tags map[string]string)
	Observe(name string, value float64, tags map[string]string)
}

// NoOpRecorder is a placeholder that does nothing.
// It ensures we never have to check 'if r.recorder != nil' in our hot path.
type NoOpRecorder struct{}

func (n *NoOpRecorder) Add(name string, value float64, tags map[string]string)     {}
func (n *NoOpRecorder) Observe(name string, value float64, tags map[string]string) {}
