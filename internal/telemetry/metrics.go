package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are the collectors of the live scoring service. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	eventsIngested     *prometheus.CounterVec
	ingestErrors       *prometheus.CounterVec
	ingestLatency      *prometheus.HistogramVec
	authoritativePosts *prometheus.CounterVec
	attributionMisses  prometheus.Counter
	viewers            prometheus.Gauge
	snapshotsSent      prometheus.Counter
	framesDropped      prometheus.Counter
	busDropped         *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		eventsIngested: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "livescore",
			Name:      "events_ingested_total",
			Help:      "Gameplay events processed by the scoring engine.",
		}, []string{"game_type", "kind"}),
		ingestErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "livescore",
			Name:      "ingest_errors_total",
			Help:      "Rejected ingestion calls by error code.",
		}, []string{"code"}),
		ingestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "livescore",
			Name:      "ingest_duration_seconds",
			Help:      "Time from receiving an event to its deltas being applied.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}, []string{"game_type"}),
		authoritativePosts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "livescore",
			Name:      "authoritative_posts_total",
			Help:      "Authoritative score posts accepted.",
		}, []string{"game_type"}),
		attributionMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "livescore",
			Name:      "attribution_misses_total",
			Help:      "Authoritative credits skipped because the player has no official team.",
		}),
		viewers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "livescore",
			Name:      "viewers",
			Help:      "Connected viewers.",
		}),
		snapshotsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "livescore",
			Name:      "snapshots_broadcast_total",
			Help:      "Snapshots fanned out to viewers.",
		}),
		framesDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "livescore",
			Name:      "viewer_frames_dropped_total",
			Help:      "Snapshot frames dropped because a viewer was too slow.",
		}),
		busDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "livescore",
			Name:      "bus_events_dropped_total",
			Help:      "Internal events dropped because a handler queue was full.",
		}, []string{"event"}),
	}

	reg.MustRegister(
		m.eventsIngested,
		m.ingestErrors,
		m.ingestLatency,
		m.authoritativePosts,
		m.attributionMisses,
		m.viewers,
		m.snapshotsSent,
		m.framesDropped,
		m.busDropped,
	)

	return m
}

func (m *Metrics) EventIngested(gameType, kind string, d time.Duration) {
	if m == nil {
		return
	}

	m.eventsIngested.WithLabelValues(gameType, kind).Inc()
	m.ingestLatency.WithLabelValues(gameType).Observe(d.Seconds())
}

func (m *Metrics) IngestFailed(code string) {
	if m == nil {
		return
	}

	m.ingestErrors.WithLabelValues(code).Inc()
}

func (m *Metrics) AuthoritativePost(gameType string, misses int) {
	if m == nil {
		return
	}

	m.authoritativePosts.WithLabelValues(gameType).Inc()
	m.attributionMisses.Add(float64(misses))
}

func (m *Metrics) SetViewers(n int) {
	if m == nil {
		return
	}

	m.viewers.Set(float64(n))
}

func (m *Metrics) SnapshotSent() {
	if m == nil {
		return
	}

	m.snapshotsSent.Inc()
}

func (m *Metrics) FrameDropped() {
	if m == nil {
		return
	}

	m.framesDropped.Inc()
}

func (m *Metrics) BusDropped(event string) {
	if m == nil {
		return
	}

	m.busDropped.WithLabelValues(event).Inc()
}
