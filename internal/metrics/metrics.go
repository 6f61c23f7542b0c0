package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TurnsTotal counts processed turns by outcome (collecting, ready, oracle_failed, invalid_session, error).
	TurnsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "eventagent",
		Name:      "turns_total",
		Help:      "Processed conversation turns by outcome",
	}, []string{"outcome"})

	// ExtractionRejected counts proposed values that were not stored, by reason.
	ExtractionRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "eventagent",
		Name:      "extraction_rejected_total",
		Help:      "Proposed parameter values rejected by normalization or validation",
	}, []string{"reason"})

	OracleFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "eventagent",
		Name:      "oracle_failures_total",
		Help:      "Extraction oracle calls that failed or timed out",
	})

	ConfigurationFaults = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "eventagent",
		Name:      "configuration_faults_total",
		Help:      "Required parameters without a registered clarification question",
	})

	OracleLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "eventagent",
		Name:      "oracle_latency_seconds",
		Help:      "Extraction oracle call latency",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
	})

	SessionsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "eventagent",
		Name:      "sessions_started_total",
		Help:      "Sessions created by this process",
	})

	// SessionsEnded counts sessions removed by this process, by reason (ended,
	// expired). Expiry done by the backing store itself, such as a Redis TTL,
	// is not observed.
	SessionsEnded = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "eventagent",
		Name:      "sessions_ended_total",
		Help:      "Sessions removed by this process by reason",
	}, []string{"reason"})
)
