package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "careerqa"

// Metrics holds the service collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	uploads            *prometheus.CounterVec
	asks               *prometheus.CounterVec
	classifierDecision *prometheus.CounterVec
	classifierFailures prometheus.Counter
	activeSessions     prometheus.Gauge
	expiredSessions    prometheus.Counter
	journalFailures    prometheus.Counter
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_total",
			Help:      "Document uploads by result status.",
		}, []string{"status"}),
		asks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "asks_total",
			Help:      "Questions by outcome.",
		}, []string{"outcome"}),
		classifierDecision: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "classifier_decisions_total",
			Help:      "Intent classifier decisions.",
		}, []string{"in_domain"}),
		classifierFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "classifier_failures_total",
			Help:      "Classifier invocations that failed and fell back to the policy.",
		}),
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Sessions currently held in memory.",
		}),
		expiredSessions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "expired_sessions_total",
			Help:      "Sessions removed by the expiry sweep.",
		}),
		journalFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "journal_failures_total",
			Help:      "Exchanges that could not be published to the journal.",
		}),
	}
	reg.MustRegister(
		m.uploads,
		m.asks,
		m.classifierDecision,
		m.classifierFailures,
		m.activeSessions,
		m.expiredSessions,
		m.journalFailures,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Upload(status string) {
	m.uploads.WithLabelValues(status).Inc()
}

func (m *Metrics) Ask(outcome string) {
	m.asks.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ClassifierDecision(inDomain bool) {
	label := "false"
	if inDomain {
		label = "true"
	}
	m.classifierDecision.WithLabelValues(label).Inc()
}

func (m *Metrics) ClassifierFailure() {
	m.classifierFailures.Inc()
}

func (m *Metrics) SessionsActive(n int) {
	m.activeSessions.Set(float64(n))
}

func (m *Metrics) SessionsExpired(n int) {
	m.expiredSessions.Add(float64(n))
}

func (m *Metrics) JournalFailure() {
	m.journalFailures.Inc()
}
