package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ImagesProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "faceguard",
		Name:      "images_processed_total",
		Help:      "Total number of uploaded images processed",
	}, []string{"device_id"})

	FacesDetected = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "faceguard",
		Name:      "faces_detected_total",
		Help:      "Total number of faces detected",
	}, []string{"device_id"})

	FacesMatched = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "faceguard",
		Name:      "faces_matched_total",
		Help:      "Total number of face match verdicts by status",
	}, []string{"status"})

	PersonsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "faceguard",
		Name:      "persons_created_total",
		Help:      "Total number of persons auto-created from unknown faces",
	})

	SamplesLearned = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "faceguard",
		Name:      "samples_learned_total",
		Help:      "Total number of face samples persisted by auto-learning",
	})

	InferenceDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "faceguard",
		Name:      "inference_duration_seconds",
		Help:      "Duration of ML inference stages",
		Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
	}, []string{"stage"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "faceguard",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	WSConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "faceguard",
		Name:      "ws_connections",
		Help:      "Number of active WebSocket connections",
	})
)
