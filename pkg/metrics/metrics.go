package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	workflowEngine = "workflow_engine"

	// Transition metrics
	transitionsTotal = "transitions_total"

	// Sweep metrics
	sweepTransitionsTotal = "sweep_transitions_total"
	sweepFailuresTotal    = "sweep_failures_total"
	sweepDurationSeconds  = "sweep_duration_seconds"

	// Workflow gauges
	postingsTotal        = "postings_total"
	postingsPendingTotal = "postings_pending_approval"
	employersTotal       = "employers_total"

	// Labels
	actionLabel    = "action"
	automatedLabel = "automated"
	sweepLabel     = "sweep"
)

var transitionsTotalLabels = []string{
	actionLabel,
	automatedLabel,
}

var sweepLabels = []string{
	sweepLabel,
}

/**
* Metrics definition
**/
var transitionsTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: workflowEngine,
		Name:      transitionsTotal,
		Help:      "number of workflow transitions by action",
	},
	transitionsTotalLabels,
)

var sweepTransitionsTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: workflowEngine,
		Name:      sweepTransitionsTotal,
		Help:      "number of postings transitioned by automation sweeps",
	},
	sweepLabels,
)

var sweepFailuresTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: workflowEngine,
		Name:      sweepFailuresTotal,
		Help:      "number of per-posting failures during automation sweeps",
	},
	sweepLabels,
)

var sweepDurationSecondsMetric = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Subsystem: workflowEngine,
		Name:      sweepDurationSeconds,
		Help:      "duration of the last automation sweep run",
	},
	sweepLabels,
)

var postingsTotalMetric = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Subsystem: workflowEngine,
		Name:      postingsTotal,
		Help:      "number of postings",
	},
)

var postingsPendingTotalMetric = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Subsystem: workflowEngine,
		Name:      postingsPendingTotal,
		Help:      "number of postings waiting for approval",
	},
)

var employersTotalMetric = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Subsystem: workflowEngine,
		Name:      employersTotal,
		Help:      "number of employers",
	},
)

func IncreaseTransitionsTotalMetric(action string, automated bool) {
	labels := prometheus.Labels{
		actionLabel:    action,
		automatedLabel: boolLabel(automated),
	}
	transitionsTotalMetric.With(labels).Inc()
}

func IncreaseSweepTransitionsTotalMetric(sweep string, count int) {
	labels := prometheus.Labels{
		sweepLabel: sweep,
	}
	sweepTransitionsTotalMetric.With(labels).Add(float64(count))
}

func IncreaseSweepFailuresTotalMetric(sweep string, count int) {
	labels := prometheus.Labels{
		sweepLabel: sweep,
	}
	sweepFailuresTotalMetric.With(labels).Add(float64(count))
}

func UpdateSweepDurationMetric(sweep string, d time.Duration) {
	labels := prometheus.Labels{
		sweepLabel: sweep,
	}
	sweepDurationSecondsMetric.With(labels).Set(d.Seconds())
}

func UpdateWorkflowGauges(postings, pending, employers int64) {
	postingsTotalMetric.Set(float64(postings))
	postingsPendingTotalMetric.Set(float64(pending))
	employersTotalMetric.Set(float64(employers))
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

func init() {
	prometheus.MustRegister(
		transitionsTotalMetric,
		sweepTransitionsTotalMetric,
		sweepFailuresTotalMetric,
		sweepDurationSecondsMetric,
		postingsTotalMetric,
		postingsPendingTotalMetric,
		employersTotalMetric,
	)
}
