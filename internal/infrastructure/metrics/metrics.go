package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Run lifecycle counters, labelled by the terminal status of the run.
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docbot",
			Subsystem: "run",
			Name:      "runs_total",
			Help:      "Total assistant runs by terminal status",
		},
		[]string{"status"},
	)

	// Status polls against the remote run resource.
	RunPollsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "docbot",
			Subsystem: "run",
			Name:      "polls_total",
			Help:      "Total run status polls",
		},
	)

	// Turn duration from run creation to final text.
	TurnDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "docbot",
			Subsystem: "run",
			Name:      "turn_duration_seconds",
			Help:      "Conversational turn duration in seconds",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		},
	)

	// Tool invocation counters.
	ToolCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docbot",
			Subsystem: "tool",
			Name:      "calls_total",
			Help:      "Total tool invocations",
		},
		[]string{"tool_name", "status"},
	)

	ToolDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docbot",
			Subsystem: "tool",
			Name:      "duration_seconds",
			Help:      "Tool execution duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"tool_name"},
	)

	// Fallback recoveries, labelled by kind (direct_tool, apology, salvage, nudge).
	FallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docbot",
			Subsystem: "run",
			Name:      "fallbacks_total",
			Help:      "Total fallback recoveries by kind",
		},
		[]string{"kind"},
	)

	// Chat event queue.
	ChatEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docbot",
			Subsystem: "chat",
			Name:      "events_total",
			Help:      "Total inbound chat events by outcome",
		},
		[]string{"outcome"},
	)

	ChatQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "docbot",
			Subsystem: "chat",
			Name:      "queue_depth",
			Help:      "Current depth of the chat event queue",
		},
	)
)
