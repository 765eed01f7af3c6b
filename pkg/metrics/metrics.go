// Package metrics exposes per-operation Prometheus instrumentation,
// mirroring the teacher's opDist histogram / timeit pattern in
// pkg/meta/interface.go.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	opDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name: "rfs_op_duration_seconds",
		Help: "Latency of core filesystem operations.",
	}, []string{"op"})

	opErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rfs_op_errors_total",
		Help: "Count of failed core filesystem operations by taxonomy code.",
	}, []string{"op", "code"})
)

func init() {
	prometheus.MustRegister(opDuration, opErrors)
}

// Timeit records the duration of op since start; call via defer.
func Timeit(op string, start time.Time) {
	opDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

// CountError records a single failure of op with the given taxonomy code.
func CountError(op, code string) {
	opErrors.WithLabelValues(op, code).Inc()
}
