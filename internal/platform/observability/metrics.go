package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	APIRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "hub_api_request_duration_seconds",
		Help:    "Duration of API requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "status"})

	SearchProviderRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hub_search_provider_requests_total",
		Help: "The total number of search provider requests by outcome",
	}, []string{"provider", "status"})

	SearchProviderDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "hub_search_provider_duration_seconds",
		Help:    "Duration of search provider requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"provider"})

	AnalysisRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hub_analysis_requests_total",
		Help: "The total number of paper analysis requests by outcome",
	}, []string{"status"})

	AnalysisDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "hub_analysis_duration_seconds",
		Help:    "Duration of LLM paper analyses",
		Buckets: []float64{1, 5, 10, 30, 60, 120, 300},
	})

	AnalysisInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "hub_analysis_in_flight",
		Help: "Number of LLM analyses currently running",
	})

	EmbeddingRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hub_embedding_requests_total",
		Help: "The total number of embedding requests by outcome",
	}, []string{"status"})

	AnalyzedPapersTotal = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "hub_analyzed_papers",
		Help: "Number of analyzed papers stored, by source",
	}, []string{"source"})
)
