// metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the sweep and verification instruments.
type Metrics struct {
	SweepCycles         prometheus.Counter
	SweepSkipped        prometheus.Counter
	SweepChecks         prometheus.Counter
	Revocations         *prometheus.CounterVec
	OracleErrors        *prometheus.CounterVec
	NotifyFailures      prometheus.Counter
	Verifications       *prometheus.CounterVec
	ThresholdMinTokens  prometheus.Gauge
	SweepCycleDuration  prometheus.Histogram
	SnapshotsTaken      prometheus.Counter
	SnapshotArchiveErrs prometheus.Counter
}

// New registers every instrument on reg. Passing a fresh prometheus.NewRegistry()
// keeps tests isolated.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		SweepCycles: f.NewCounter(prometheus.CounterOpts{
			Name: "contest_sweep_cycles_total",
			Help: "enforcement sweep cycles that evaluated participants",
		}),
		SweepSkipped: f.NewCounter(prometheus.CounterOpts{
			Name: "contest_sweep_skipped_total",
			Help: "sweep cycles skipped because the threshold could not be derived",
		}),
		SweepChecks: f.NewCounter(prometheus.CounterOpts{
			Name: "contest_sweep_checks_total",
			Help: "participants checked by the sweep",
		}),
		Revocations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "contest_revocations_total",
			Help: "eligibility revocations by reason",
		}, []string{"reason"}),
		OracleErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "contest_oracle_errors_total",
			Help: "oracle failures by call site",
		}, []string{"source"}),
		NotifyFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "contest_notify_failures_total",
			Help: "revocation notifications that could not be delivered",
		}),
		Verifications: f.NewCounterVec(prometheus.CounterOpts{
			Name: "contest_verifications_total",
			Help: "wallet verifications by outcome",
		}, []string{"outcome"}),
		ThresholdMinTokens: f.NewGauge(prometheus.GaugeOpts{
			Name: "contest_threshold_min_tokens",
			Help: "last derived minimum holding in whole tokens",
		}),
		SweepCycleDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "contest_sweep_cycle_seconds",
			Help:    "wall time of one enforcement cycle",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 14),
		}),
		SnapshotsTaken: f.NewCounter(prometheus.CounterOpts{
			Name: "contest_snapshots_total",
			Help: "leaderboard snapshots persisted",
		}),
		SnapshotArchiveErrs: f.NewCounter(prometheus.CounterOpts{
			Name: "contest_snapshot_archive_errors_total",
			Help: "snapshots that failed to upload to object storage",
		}),
	}
}
