package bridge

import "github.com/prometheus/client_golang/prometheus"

var (
	completionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "llamabridge",
			Subsystem: "bridge",
			Name:      "completions_total",
			Help:      "Completed bridge operations by completion style and outcome",
		},
		[]string{"kind", "outcome"},
	)

	inflightTokens = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "llamabridge",
			Subsystem: "bridge",
			Name:      "inflight_operations",
			Help:      "Bridge operations started but not yet delivered",
		},
		[]string{"kind"},
	)

	droppedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "llamabridge",
			Subsystem: "bridge",
			Name:      "dropped_total",
			Help:      "Work items dropped because the dispatcher or loop was closed",
		},
		[]string{"kind"},
	)
)

func init() {
	prometheus.MustRegister(completionsTotal, inflightTokens, droppedTotal)
}

func observe(kind Kind, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	completionsTotal.WithLabelValues(string(kind), outcome).Inc()
}
