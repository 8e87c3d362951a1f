package navigation

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// NavigationsTotal counts resolved navigations by outcome.
	NavigationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "site_navigations_total",
			Help: "Total number of router navigations",
		},
		[]string{"outcome", "source"},
	)

	// ContentLoadsTotal counts fragment loads by result.
	ContentLoadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "site_content_loads_total",
			Help: "Total number of content fragment loads",
		},
		[]string{"result"},
	)
)

func recordNavigation(matched, recorded bool) {
	outcome := "matched"
	if !matched {
		outcome = "not_found"
	}
	source := "push"
	if !recorded {
		source = "pop"
	}
	NavigationsTotal.WithLabelValues(outcome, source).Inc()
}
