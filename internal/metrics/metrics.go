// Package metrics exposes Prometheus collectors for the assistant.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "healthgenie"

// Metrics groups the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	completions        *prometheus.CounterVec
	completionDuration prometheus.Histogram
	uploads            *prometheus.CounterVec
	reminderSkips      prometheus.Gauge
	symptomsLogged     *prometheus.CounterVec
	sessionsActive     prometheus.Gauge
}

var (
	defaultMetricsOnce sync.Once
	sharedMetrics      *Metrics
)

// Default returns the instance registered with the global Prometheus
// registry, creating it on first use.
func Default() *Metrics {
	defaultMetricsOnce.Do(func() {
		sharedMetrics = MustNewMetrics(prometheus.DefaultRegisterer)
	})
	return sharedMetrics
}

// MustNewMetrics registers a fresh set of collectors with reg and panics on a
// registration conflict. Tests pass their own prometheus.NewRegistry().
func MustNewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		completions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "gateway",
				Name:      "completions_total",
				Help:      "Completion service calls by outcome.",
			},
			[]string{"kind", "outcome"},
		),
		completionDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "gateway",
				Name:      "completion_duration_seconds",
				Help:      "Time spent waiting on the completion service.",
				Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32, 64},
			},
		),
		uploads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "documents",
				Name:      "uploads_total",
				Help:      "Uploaded documents by outcome.",
			},
			[]string{"outcome"},
		),
		reminderSkips: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "reminders",
				Name:      "unparsable_dates",
				Help:      "Medication or appointment dates skipped on the latest sidebar render because they could not be parsed.",
			},
		),
		symptomsLogged: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "symptoms",
				Name:      "logged_total",
				Help:      "Symptom entries logged, by source.",
			},
			[]string{"source"},
		),
		sessionsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "sessions",
				Name:      "active",
				Help:      "Sessions currently held in memory.",
			},
		),
	}

	reg.MustRegister(m.completions, m.completionDuration, m.uploads, m.reminderSkips, m.symptomsLogged, m.sessionsActive)
	return m
}

func (m *Metrics) ObserveCompletion(kind string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.completions.WithLabelValues(kind, outcome).Inc()
	m.completionDuration.Observe(elapsed.Seconds())
}

// Upload outcomes.
const (
	UploadAccepted = "accepted"
	UploadTooLarge = "too_large"
	UploadFailed   = "failed"
)

func (m *Metrics) ObserveUpload(outcome string) {
	if m == nil {
		return
	}
	m.uploads.WithLabelValues(outcome).Inc()
}

// SetReminderSkips records the unparsable dates seen by the latest render.
// Every render reports the same entries again, so this is a level, not a
// running total.
func (m *Metrics) SetReminderSkips(n int) {
	if m == nil {
		return
	}
	m.reminderSkips.Set(float64(n))
}

func (m *Metrics) SymptomLogged(source string) {
	if m == nil {
		return
	}
	m.symptomsLogged.WithLabelValues(source).Inc()
}

func (m *Metrics) SessionStarted() {
	if m == nil {
		return
	}
	m.sessionsActive.Inc()
}

func (m *Metrics) SessionEnded() {
	if m == nil {
		return
	}
	m.sessionsActive.Dec()
}
