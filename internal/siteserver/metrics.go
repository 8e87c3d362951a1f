package siteserver

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "site_http_requests_total",
			Help: "Total number of HTTP requests served",
		},
		[]string{"method", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "site_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	// breakerState is 0 closed, 1 half-open, 2 open.
	breakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "site_api_breaker_state",
			Help: "State of the API proxy circuit breaker",
		},
		[]string{"name"},
	)

	staticFallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "site_static_fallbacks_total",
			Help: "HTML requests answered from a fallback file",
		},
		[]string{"kind"},
	)

	configReloadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "site_config_reloads_total",
			Help: "Configuration reload attempts",
		},
		[]string{"trigger", "result"},
	)
)
