// Package metrics exposes Prometheus instrumentation for the bot.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/avetikov/flowgram/internal/flow"
)

var (
	updatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_updates_total",
			Help: "Total number of incoming updates labeled by route and status",
		},
		[]string{"route", "status"},
	)
	updateDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bot_update_duration_seconds",
			Help:    "Duration of update handling in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
	flowEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flow_events_total",
			Help: "Events consumed by flows labeled by flow and outcome",
		},
		[]string{"flow", "outcome"},
	)
	flowTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flow_transitions_total",
			Help: "State transitions labeled by flow, source and target state",
		},
		[]string{"flow", "from", "to"},
	)
	actionExecutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flow_action_executions_total",
			Help: "Business-logic unit executions labeled by flow, action and status",
		},
		[]string{"flow", "action", "status"},
	)
	actionDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "flow_action_duration_seconds",
			Help:    "Duration of business-logic unit executions in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"flow", "action"},
	)
	renderFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flow_render_failures_total",
			Help: "Entry-query failures labeled by flow and state",
		},
		[]string{"flow", "state"},
	)
)

func init() {
	flow.RegisterTransitionRecorder(RecordTransition)
	flow.RegisterActionRecorder(RecordAction)
	flow.RegisterEventsRecorder(RecordFlowEvent)
	flow.RegisterRenderFailureRecorder(RecordRenderFailure)
}

// RecordUpdate increments update counters and records handling duration.
func RecordUpdate(route, status string, duration time.Duration) {
	if route == "" {
		route = "unknown"
	}
	if status == "" {
		status = "unknown"
	}

	updatesTotal.WithLabelValues(route, status).Inc()
	updateDurationSeconds.WithLabelValues(route).Observe(duration.Seconds())
}

// RecordFlowEvent tracks how a flow consumed an event.
func RecordFlowEvent(flowName, outcome string) {
	if outcome == "" {
		outcome = "unknown"
	}

	flowEventsTotal.WithLabelValues(flowName, outcome).Inc()
}

// RecordTransition tracks FSM transitions; an empty target marks flow exit.
func RecordTransition(flowName, from, to string) {
	if to == "" {
		to = "exit"
	}

	flowTransitionsTotal.WithLabelValues(flowName, from, to).Inc()
}

// RecordAction tracks one business-logic unit execution.
func RecordAction(flowName, action, status string, duration time.Duration) {
	if action == "" {
		action = "unknown"
	}
	if status == "" {
		status = "unknown"
	}

	actionExecutionsTotal.WithLabelValues(flowName, action, status).Inc()
	actionDurationSeconds.WithLabelValues(flowName, action).Observe(duration.Seconds())
}

// RecordRenderFailure tracks entry-query failures per state.
func RecordRenderFailure(flowName, state string) {
	if state == "" {
		state = "unknown"
	}

	renderFailuresTotal.WithLabelValues(flowName, state).Inc()
}
