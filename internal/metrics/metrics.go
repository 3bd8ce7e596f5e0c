package metrics

import (
	"database/sql"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "schedule_board"

// Metrics holds all application metrics. A nil *Metrics records nothing.
type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	BoardPushesTotal    *prometheus.CounterVec
	BoardPullsTotal     prometheus.Counter
	BoardVersion        prometheus.Gauge
	BoardSubscribers    prometheus.Gauge
	SchedulesSavedTotal *prometheus.CounterVec
	SignInsTotal        *prometheus.CounterVec

	DBConnectionsOpen  prometheus.Gauge
	DBConnectionsInUse prometheus.Gauge
	DBConnectionsIdle  prometheus.Gauge
}

// New creates and registers all metrics with the default registry
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates and registers all metrics with a custom registry
func NewWithRegistry(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)

	return &Metrics{
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "endpoint"},
		),
		BoardPushesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "board_pushes_total",
				Help:      "Board writes by outcome (ok, conflict, forbidden, error)",
			},
			[]string{"result"},
		),
		BoardPullsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "board_pulls_total",
				Help:      "Total number of board reads",
			},
		),
		BoardVersion: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "board_version",
				Help:      "Version of the current board row last written",
			},
		),
		BoardSubscribers: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "board_ws_subscribers",
				Help:      "Open board websocket connections",
			},
		),
		SchedulesSavedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "schedules_saved_total",
				Help:      "Saved schedules by trigger (manual, cron)",
			},
			[]string{"trigger"},
		),
		SignInsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sign_ins_total",
				Help:      "Sign-in attempts by outcome",
			},
			[]string{"result"},
		),
		DBConnectionsOpen: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "db_connections_open",
				Help:      "Current number of open database connections",
			},
		),
		DBConnectionsInUse: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "db_connections_in_use",
				Help:      "Current number of in-use database connections",
			},
		),
		DBConnectionsIdle: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "db_connections_idle",
				Help:      "Current number of idle database connections",
			},
		),
	}
}

// RecordHTTPRequest records HTTP request metrics
func (m *Metrics) RecordHTTPRequest(method, endpoint string, statusCode int, duration time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, endpoint, categorizeStatus(statusCode)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordPush counts a board write attempt
func (m *Metrics) RecordPush(result string, version int64) {
	if m == nil {
		return
	}
	m.BoardPushesTotal.WithLabelValues(result).Inc()
	if result == "ok" {
		m.BoardVersion.Set(float64(version))
	}
}

// RecordPull counts a board read
func (m *Metrics) RecordPull() {
	if m == nil {
		return
	}
	m.BoardPullsTotal.Inc()
}

// RecordScheduleSaved counts a saved schedule
func (m *Metrics) RecordScheduleSaved(trigger string) {
	if m == nil {
		return
	}
	m.SchedulesSavedTotal.WithLabelValues(trigger).Inc()
}

// RecordSignIn counts a sign-in attempt
func (m *Metrics) RecordSignIn(result string) {
	if m == nil {
		return
	}
	m.SignInsTotal.WithLabelValues(result).Inc()
}

// SubscriberAdded and SubscriberRemoved track open websocket streams
func (m *Metrics) SubscriberAdded() {
	if m == nil {
		return
	}
	m.BoardSubscribers.Inc()
}

func (m *Metrics) SubscriberRemoved() {
	if m == nil {
		return
	}
	m.BoardSubscribers.Dec()
}

// UpdateDBStats copies connection pool statistics into the gauges
func (m *Metrics) UpdateDBStats(stats sql.DBStats) {
	if m == nil {
		return
	}
	m.DBConnectionsOpen.Set(float64(stats.OpenConnections))
	m.DBConnectionsInUse.Set(float64(stats.InUse))
	m.DBConnectionsIdle.Set(float64(stats.Idle))
}

// categorizeStatus converts status code to category (2xx, 3xx, 4xx, 5xx)
func categorizeStatus(code int) string {
	switch {
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500:
		return "5xx"
	default:
		return "unknown"
	}
}

// ShouldSkipEndpoint checks if endpoint should be excluded from metrics
func ShouldSkipEndpoint(path string) bool {
	return path == "/metrics" || path == "/health"
}
