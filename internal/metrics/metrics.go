// Package metrics holds the Prometheus collectors of the data layer.
//
// All methods are safe on a nil *Metrics, so components built without a
// registry (tests, tools) need no special casing.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/MKhiriev/bank-mmudzi/models"
)

const namespace = "mmudzi"

// Metrics groups arbiter and sync engine collectors.
type Metrics struct {
	arbiterMode     prometheus.Gauge
	probeFailures   prometheus.Counter
	sessions        *prometheus.CounterVec
	records         *prometheus.CounterVec
	sessionDuration prometheus.Histogram
}

// New registers the collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		arbiterMode: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "arbiter",
			Name:      "mode",
			Help:      "Current connection mode: 1 when the primary store is active, 0 on fallback",
		}),
		probeFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "arbiter",
			Name:      "probe_failures_total",
			Help:      "Failed primary store health checks",
		}),
		sessions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "sessions_total",
			Help:      "Finished sync sessions by outcome",
		}, []string{"outcome"}),
		records: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "records_total",
			Help:      "Sync records processed by resulting status",
		}, []string{"status"}),
		sessionDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "session_duration_seconds",
			Help:      "Wall time of sync sessions",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60, 300},
		}),
	}
}

// SetMode records the arbiter's current mode.
func (m *Metrics) SetMode(mode models.ConnectionMode) {
	if m == nil {
		return
	}
	if mode == models.ModePrimary {
		m.arbiterMode.Set(1)
		return
	}
	m.arbiterMode.Set(0)
}

// ProbeFailed counts one failed health check.
func (m *Metrics) ProbeFailed() {
	if m == nil {
		return
	}
	m.probeFailures.Inc()
}

// ObserveSession records a finished session.
func (m *Metrics) ObserveSession(res models.SyncSessionResult) {
	if m == nil || res.AlreadyActive {
		return
	}
	m.sessions.WithLabelValues(string(res.Outcome)).Inc()
	m.records.WithLabelValues(string(models.SyncStatusSynced)).Add(float64(res.RecordsSynced))
	m.records.WithLabelValues(string(models.SyncStatusConflicted)).Add(float64(res.ConflictsFound))
	m.records.WithLabelValues("failed").Add(float64(res.RecordsFailed))

	if !res.StartedAt.IsZero() && !res.FinishedAt.IsZero() {
		m.sessionDuration.Observe(res.FinishedAt.Sub(res.StartedAt).Seconds())
	}
}
