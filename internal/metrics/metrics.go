package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AnalysesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "video_analyses_total",
			Help: "Total number of pipeline runs by outcome",
		},
		[]string{"outcome"},
	)

	AnalysisDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "video_analysis_duration_seconds",
			Help:    "Duration of pipeline runs in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"outcome"},
	)

	Rejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "video_analysis_rejections_total",
			Help: "Requests refused before the pipeline was called",
		},
		[]string{"reason"},
	)
)

const (
	RejectClientNotReady = "client_not_ready"
	RejectInvalidURL     = "invalid_url"
)
