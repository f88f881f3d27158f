package scan

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Every terminal job outcome is counted, labelled by outcome and scan mode.
var outcomesTotal = promauto.NewCounterVec( //nolint:gochecknoglobals
	prometheus.CounterOpts{
		Namespace: "arbscan",
		Subsystem: "scan",
		Name:      "outcomes_total",
		Help:      "Terminal scan outcomes by outcome and mode.",
	},
	[]string{"outcome", "mode"},
)

func countOutcome(outcome Outcome, mode string) {
	outcomesTotal.WithLabelValues(string(outcome), mode).Inc()
}

// CountFailure is called by the worker pool when a job exhausts its retries.
func CountFailure(mode string) {
	outcomesTotal.WithLabelValues("failed", mode).Inc()
}
