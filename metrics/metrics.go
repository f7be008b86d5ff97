package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Inference
	ClassificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "drone_classifications_total",
			Help: "Total number of telemetry samples classified, by status",
		},
		[]string{"status"},
	)

	ClassificationErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "drone_classification_errors_total",
			Help: "Total number of samples that could not be classified",
		},
	)

	InferenceDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "drone_inference_duration_seconds",
			Help:    "Time spent deriving features, scaling and scoring one sample",
			Buckets: []float64{.00001, .00005, .0001, .0005, .001, .005, .01, .05},
		},
	)

	// Alerting
	AlertsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "drone_alerts_total",
			Help: "Alert gate decisions for suspicious samples, by outcome",
		},
		[]string{"outcome"},
	)

	// Display
	DisplayErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "drone_display_errors_total",
			Help: "Total number of readings a display failed to show",
		},
		[]string{"display"},
	)

	DisplayClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "drone_display_clients_active",
			Help: "Number of connected live display clients",
		},
	)

	// Model
	ModelInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "drone_model_info",
			Help: "Loaded model pair (always 1), labelled by version",
		},
		[]string{"version"},
	)
)
