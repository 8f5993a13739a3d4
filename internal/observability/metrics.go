package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	memberPersistGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "gym_service",
		Subsystem: "persistence",
		Name:      "last_member_persisted_timestamp_seconds",
		Help:      "Unix timestamp of the most recent member written to Postgres.",
	})
	sessionPersistGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "gym_service",
		Subsystem: "persistence",
		Name:      "last_session_persisted_timestamp_seconds",
		Help:      "Unix timestamp of the most recent workout session written to Postgres.",
	})
	cascadeDeleteCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "gym_service",
		Subsystem: "persistence",
		Name:      "sessions_cascade_deleted_total",
		Help:      "Workout sessions removed because their owning member was deleted.",
	})
)

func init() {
	prometheus.MustRegister(memberPersistGauge, sessionPersistGauge, cascadeDeleteCounter)
}

// RecordMemberPersisted updates the member persistence watermark gauge.
func RecordMemberPersisted(ts time.Time) {
	if ts.IsZero() {
		return
	}
	memberPersistGauge.Set(float64(ts.Unix()))
}

// RecordSessionPersisted updates the session persistence watermark gauge.
func RecordSessionPersisted(ts time.Time) {
	if ts.IsZero() {
		return
	}
	sessionPersistGauge.Set(float64(ts.Unix()))
}

// RecordSessionsCascadeDeleted counts sessions removed by a member delete.
func RecordSessionsCascadeDeleted(n int64) {
	if n <= 0 {
		return
	}
	cascadeDeleteCounter.Add(float64(n))
}
