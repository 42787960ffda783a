package session

import "github.com/prometheus/client_golang/prometheus"

var (
	generationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "llamabridge",
			Subsystem: "session",
			Name:      "generation_duration_seconds",
			Help:      "Engine generation latency",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		},
		[]string{"kind", "outcome"},
	)

	modelLoaded = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "llamabridge",
		Subsystem: "session",
		Name:      "model_loaded",
		Help:      "1 while a model is loaded",
	})

	busyTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "llamabridge",
		Subsystem: "session",
		Name:      "busy_total",
		Help:      "Generations rejected after waiting MaxWait for the slot",
	})
)

func init() {
	prometheus.MustRegister(generationDuration, modelLoaded, busyTotal)
}
