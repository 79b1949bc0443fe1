package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	runsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "attendance_runs_total",
		Help: "Reconciliation runs started.",
	})
	runsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "attendance_runs_failed_total",
		Help: "Reconciliation runs aborted by a fetch or roster failure.",
	})
	occurrencesProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "attendance_occurrence_groups_total",
		Help: "Meeting occurrence groups reconciled.",
	})
	fetchesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "attendance_telemetry_fetches_total",
		Help: "Telemetry source calls issued.",
	})
	decisionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "attendance_decisions_total",
		Help: "Attendance decisions emitted, by status.",
	}, []string{"status"})
)
