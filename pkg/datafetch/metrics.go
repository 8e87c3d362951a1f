package datafetch

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FetchAttemptsTotal counts single HTTP attempts.
	FetchAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "datafetch_attempts_total",
			Help: "Total number of data fetch attempts",
		},
		[]string{"method", "result"},
	)

	// FetchFailuresTotal counts calls that gave up.
	FetchFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "datafetch_failures_total",
			Help: "Total number of data fetch calls that failed after all attempts",
		},
		[]string{"method"},
	)

	// FetchBackoffSeconds measures waits between attempts.
	FetchBackoffSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "datafetch_backoff_duration_seconds",
			Help:    "Duration of backoff waits in seconds",
			Buckets: []float64{0.5, 1, 2, 4, 8, 10},
		},
	)
)

func recordAttempt(method string, ok bool) {
	result := "success"
	if !ok {
		result = "failure"
	}
	FetchAttemptsTotal.WithLabelValues(method, result).Inc()
}
