package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mipractice_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mipractice_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	RunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mipractice_runs_total",
			Help: "Total number of awaited runs by outcome.",
		},
		[]string{"outcome"},
	)

	RunWaitDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "mipractice_run_wait_duration_seconds",
			Help:    "Time spent waiting for a run to reach a terminal state.",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
		},
	)

	AnalysisCacheHits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "mipractice_analysis_cache_hits_total",
			Help: "Analysis results served from the content-addressed cache.",
		},
	)

	AnalysisCacheMisses = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "mipractice_analysis_cache_misses_total",
			Help: "Analysis requests that required a remote analysis run.",
		},
	)

	ActiveSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "mipractice_active_sessions",
			Help: "Number of practice sessions currently tracked.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		RunsTotal,
		RunWaitDuration,
		AnalysisCacheHits,
		AnalysisCacheMisses,
		ActiveSessions,
	)
}
