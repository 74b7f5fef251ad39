package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Evaluation outcomes.
const (
	OutcomeAlert          = "alert"
	OutcomeClean          = "clean"
	OutcomeDeleted        = "deleted"
	OutcomeUserNotFound   = "user_not_found"
	OutcomeNoParticipants = "no_participants"
	OutcomeError          = "error"
)

// Metrics holds the monitor collectors.
type Metrics struct {
	registry      *prometheus.Registry
	evaluations   *prometheus.CounterVec
	alerts        prometheus.Counter
	notifications *prometheus.CounterVec
	duration      prometheus.Histogram
	dropped       prometheus.Counter
}

// New registers collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}
	m.evaluations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sentinel",
		Name:      "evaluations_total",
		Help:      "Interaction evaluations by outcome",
	}, []string{"outcome"})
	m.alerts = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "sentinel",
		Name:      "alerts_total",
		Help:      "Alert records persisted",
	})
	m.notifications = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sentinel",
		Name:      "notifications_total",
		Help:      "Notification dispatch attempts by status",
	}, []string{"status"})
	m.duration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "sentinel",
		Name:      "evaluation_duration_seconds",
		Help:      "Time spent evaluating one change event",
		Buckets:   prometheus.DefBuckets,
	})
	m.dropped = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "sentinel",
		Name:      "dropped_events_total",
		Help:      "Change events that could not be decoded",
	})
	m.registry.MustRegister(m.evaluations, m.alerts, m.notifications, m.duration, m.dropped)
	return m
}

// ObserveEvaluation records one evaluation outcome. Safe on a nil receiver.
func (m *Metrics) ObserveEvaluation(outcome string, took time.Duration) {
	if m == nil {
		return
	}
	m.evaluations.WithLabelValues(outcome).Inc()
	m.duration.Observe(took.Seconds())
	if outcome == OutcomeAlert {
		m.alerts.Inc()
	}
}

// ObserveNotification records a dispatch attempt.
func (m *Metrics) ObserveNotification(ok bool) {
	if m == nil {
		return
	}
	status := "ok"
	if !ok {
		status = "error"
	}
	m.notifications.WithLabelValues(status).Inc()
}

// ObserveDropped counts an undecodable event.
func (m *Metrics) ObserveDropped() {
	if m == nil {
		return
	}
	m.dropped.Inc()
}

// Registry exposes the underlying registry for tests and gatherers.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
