package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CallTransitions counts applied call status changes by target status.
	CallTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "paycall_call_transitions_total",
			Help: "Call status transitions applied",
		},
		[]string{"status"},
	)

	// CallTransitionsRejected counts status events refused by the call state machine.
	CallTransitionsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "paycall_call_transitions_rejected_total",
			Help: "Call status transitions rejected as illegal",
		},
		[]string{"from", "to"},
	)

	OutcomesFolded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "paycall_campaign_outcomes_folded_total",
			Help: "Completed calls folded into campaign performance",
		},
	)

	OutcomesAdjusted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "paycall_campaign_outcomes_adjusted_total",
			Help: "Revenue or qualification corrections applied to folded calls",
		},
	)

	QualifiedLeads = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "paycall_qualified_leads_total",
			Help: "Calls scored at or above the qualification threshold when folded",
		},
	)

	// CallDuration observes completed call durations in seconds.
	CallDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "paycall_call_duration_seconds",
			Help:    "Answered-to-ended duration of completed calls",
			Buckets: prometheus.ExponentialBuckets(15, 2, 9),
		},
	)

	ConcurrencyRejected = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "paycall_concurrency_rejected_total",
			Help: "Call starts refused because the campaign concurrency cap was reached",
		},
	)

	ReportCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "paycall_report_cache_lookups_total",
			Help: "Stats cache lookups by result",
		},
		[]string{"result"},
	)
)
