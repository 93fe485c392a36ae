package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Quote metrics
	QuoteRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "basket_quote_requests_total",
			Help: "Total number of quote requests",
		},
		[]string{"mode", "status"},
	)

	QuoteDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "basket_quote_duration_seconds",
			Help:    "Quote request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"mode"},
	)

	ProviderRequestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "basket_provider_request_duration_seconds",
		Help:    "External quote provider call duration in seconds",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	})

	ProviderRequestFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "basket_provider_request_failures_total",
		Help: "Total number of failed quote provider calls",
	})

	// Validation metrics
	DustRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "basket_dust_rejections_total",
			Help: "Total number of quotes rejected by the dust validator",
		},
		[]string{"side"},
	)

	AmountRejections = promauto.NewCounter(prometheus.CounterOpts{
		Name: "basket_amount_rejections_total",
		Help: "Total number of sell requests exceeding the implied maximum",
	})

	// Batch metrics
	BatchRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "basket_batch_requests_total",
			Help: "Total number of batch quote requests",
		},
		[]string{"mode", "status"},
	)

	BatchLegs = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "basket_batch_legs",
		Help:    "Number of legs per batch request",
		Buckets: []float64{1, 2, 3, 5, 8, 13, 21, 34},
	})

	// Chain read metrics
	SnapshotFetchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "basket_snapshot_fetch_duration_seconds",
		Help:    "Basket snapshot read duration in seconds",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	})

	GasEstimateDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "basket_gas_estimate_duration_seconds",
		Help:    "On-chain trade gas estimation duration in seconds",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	})

	// HTTP metrics
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "basket_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "basket_http_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)
