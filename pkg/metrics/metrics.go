// Package metrics provides Prometheus metrics for the Clover service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CandidatesProcessedTotal tracks candidate records processed by outcome
	CandidatesProcessedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clover",
			Subsystem: "resolution",
			Name:      "candidates_total",
			Help:      "Total number of candidate records processed by outcome",
		},
		[]string{"namespace", "outcome"},
	)

	// MatchScoreDistribution tracks the best score found per candidate lookup
	MatchScoreDistribution = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "clover",
			Subsystem: "resolution",
			Name:      "match_score",
			Help:      "Best similarity score found per candidate lookup",
			Buckets:   []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 0.92, 0.95, 1},
		},
		[]string{"namespace"},
	)

	// CandidatesScored tracks how many records the blocking index surfaced per lookup
	CandidatesScored = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "clover",
			Subsystem: "resolution",
			Name:      "candidates_scored",
			Help:      "Number of records the blocking index surfaced per lookup",
			Buckets:   []float64{0, 1, 2, 5, 10, 25, 50, 100},
		},
		[]string{"namespace"},
	)

	// MergesTotal tracks merges by trigger
	MergesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clover",
			Subsystem: "resolution",
			Name:      "merges_total",
			Help:      "Total number of record merges by trigger",
		},
		[]string{"namespace", "trigger"},
	)

	// LiveLeads tracks the number of live records per namespace
	LiveLeads = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "clover",
			Subsystem: "store",
			Name:      "live_leads",
			Help:      "Number of live lead records per namespace",
		},
		[]string{"namespace"},
	)

	// StageTransitionsTotal tracks stage transitions
	StageTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clover",
			Subsystem: "lifecycle",
			Name:      "stage_transitions_total",
			Help:      "Total number of lead stage transitions",
		},
		[]string{"namespace", "from", "to"},
	)

	// SnapshotsTotal tracks snapshot and restore operations by status
	SnapshotsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clover",
			Subsystem: "snapshot",
			Name:      "operations_total",
			Help:      "Total number of snapshot and restore operations by status",
		},
		[]string{"namespace", "operation", "status"},
	)

	// MessagesConsumedTotal tracks messages consumed from the intake topic
	MessagesConsumedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clover",
			Subsystem: "consumer",
			Name:      "messages_total",
			Help:      "Total number of intake messages consumed by status",
		},
		[]string{"topic", "status"},
	)

	// EventsPublishedTotal tracks lifecycle events published to Kafka
	EventsPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clover",
			Subsystem: "producer",
			Name:      "events_total",
			Help:      "Total number of lifecycle events published by status",
		},
		[]string{"event_type", "status"},
	)
)
