package services

import "github.com/prometheus/client_golang/prometheus"

var (
	generationRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "manifestation_generation_requests_total",
			Help: "Calls to the generation API by outcome",
		},
		[]string{"outcome"},
	)
	generationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "manifestation_generation_duration_seconds",
			Help:    "Latency of the generation API",
			Buckets: []float64{1, 2.5, 5, 10, 20, 40, 80, 160},
		},
		[]string{"outcome"},
	)
	manifestationsSaved = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "manifestations_saved_total",
			Help: "Manifestations appended to a history",
		},
	)
	manifestationsDeleted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "manifestations_deleted_total",
			Help: "Manifestations removed from a history",
		},
	)
	createSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "create_sessions_active",
			Help: "Create flow sessions currently held in memory",
		},
	)
)

// InitPrometheus registers the service metrics. Call this from main.go
func InitPrometheus() {
	prometheus.MustRegister(generationRequests)
	prometheus.MustRegister(generationDuration)
	prometheus.MustRegister(manifestationsSaved)
	prometheus.MustRegister(manifestationsDeleted)
	prometheus.MustRegister(createSessions)
}
