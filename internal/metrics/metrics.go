package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry groups the collectors exported by the relay.
// A nil *Registry is valid and records nothing.
type Registry struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HistorySize         prometheus.Gauge
	HistoryInserts      *prometheus.CounterVec
	HistoryEvictions    prometheus.Counter
	CleanupTotal        *prometheus.CounterVec
	CleanupBacklog      prometheus.Gauge
	Sessions            prometheus.Gauge
	BroadcastsTotal     prometheus.Counter
	DroppedSessions     prometheus.Counter
}

// ------------------------------------------------------------------------------------------------------
// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Registry {
	r := &Registry{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),
		HistorySize: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "lanstream_history_size",
			Help: "Number of entries currently held in the shared history",
		}),
		HistoryInserts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lanstream_history_inserts_total",
				Help: "Entries submitted to the history, by kind and replay flag",
			},
			[]string{"kind", "replay"},
		),
		HistoryEvictions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lanstream_history_evictions_total",
			Help: "Entries evicted because the history was at capacity",
		}),
		CleanupTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lanstream_cleanup_total",
				Help: "File cleanups attempted for removed entries, by outcome",
			},
			[]string{"outcome"},
		),
		CleanupBacklog: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "lanstream_cleanup_backlog",
			Help: "Cleanup jobs waiting in the background queue",
		}),
		Sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "lanstream_ws_sessions",
			Help: "Connected WebSocket sessions",
		}),
		BroadcastsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lanstream_broadcasts_total",
			Help: "Entries fanned out to connected sessions",
		}),
		DroppedSessions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lanstream_ws_dropped_sessions_total",
			Help: "Sessions disconnected because their send buffer was full",
		}),
	}

	if reg != nil {
		reg.MustRegister(
			r.HTTPRequestsTotal,
			r.HTTPRequestDuration,
			r.HistorySize,
			r.HistoryInserts,
			r.HistoryEvictions,
			r.CleanupTotal,
			r.CleanupBacklog,
			r.Sessions,
			r.BroadcastsTotal,
			r.DroppedSessions,
		)
	}

	return r
}

// Cleanup outcomes.
const (
	OutcomeDeleted  = "deleted"
	OutcomeNotFound = "not_found"
	OutcomeFailed   = "failed"
)

// ------------------------------------------------------------------------------------------------------
func (r *Registry) ObserveInsert(kind string, replay bool) {
	if r == nil {
		return
	}
	flag := "false"
	if replay {
		flag = "true"
	}
	r.HistoryInserts.WithLabelValues(kind, flag).Inc()
}

// ------------------------------------------------------------------------------------------------------
func (r *Registry) SetHistorySize(n int) {
	if r == nil {
		return
	}
	r.HistorySize.Set(float64(n))
}

// ------------------------------------------------------------------------------------------------------
func (r *Registry) ObserveEviction() {
	if r == nil {
		return
	}
	r.HistoryEvictions.Inc()
}

// ------------------------------------------------------------------------------------------------------
func (r *Registry) ObserveCleanup(outcome string) {
	if r == nil {
		return
	}
	r.CleanupTotal.WithLabelValues(outcome).Inc()
}

// ------------------------------------------------------------------------------------------------------
func (r *Registry) SetCleanupBacklog(n int) {
	if r == nil {
		return
	}
	r.CleanupBacklog.Set(float64(n))
}

// ------------------------------------------------------------------------------------------------------
func (r *Registry) SetSessions(n int) {
	if r == nil {
		return
	}
	r.Sessions.Set(float64(n))
}

// ------------------------------------------------------------------------------------------------------
func (r *Registry) ObserveBroadcast() {
	if r == nil {
		return
	}
	r.BroadcastsTotal.Inc()
}

// ------------------------------------------------------------------------------------------------------
func (r *Registry) ObserveDroppedSession() {
	if r == nil {
		return
	}
	r.DroppedSessions.Inc()
}
