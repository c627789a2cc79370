package server

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/copyleftdev/EMBER/internal/optimization"
)

// Metrics holds the Prometheus instruments for the optimization service.
type Metrics struct {
	jobsStarted  *prometheus.CounterVec
	jobsFinished *prometheus.CounterVec
	evaluations  prometheus.Counter
	jobDuration  prometheus.Histogram
	bestScore    *prometheus.GaugeVec
	jobsInFlight prometheus.Gauge
}

// NewMetrics creates the service metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		jobsStarted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ember",
			Name:      "jobs_started_total",
			Help:      "Optimization jobs accepted, by mode.",
		}, []string{"mode"}),
		jobsFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ember",
			Name:      "jobs_finished_total",
			Help:      "Optimization jobs finished, by terminal status.",
		}, []string{"status"}),
		evaluations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ember",
			Name:      "evaluations_total",
			Help:      "Objective evaluations performed by completed jobs.",
		}),
		jobDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "ember",
			Name:      "job_duration_seconds",
			Help:      "Wall-clock duration of finished optimization jobs.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
		}),
		bestScore: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "ember",
			Name:      "best_score",
			Help:      "Best value found by the most recent completed job, by objective.",
		}, []string{"objective"}),
		jobsInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "ember",
			Name:      "jobs_in_flight",
			Help:      "Jobs currently pending or running.",
		}),
	}

	reg.MustRegister(
		m.jobsStarted,
		m.jobsFinished,
		m.evaluations,
		m.jobDuration,
		m.bestScore,
		m.jobsInFlight,
	)
	return m
}

// jobAccepted records a job entering the pending state.
func (m *Metrics) jobAccepted(mode string) {
	m.jobsStarted.WithLabelValues(mode).Inc()
	m.jobsInFlight.Inc()
}

// jobFinished records a job reaching a terminal status.
func (m *Metrics) jobFinished(status string, seconds float64) {
	m.jobsFinished.WithLabelValues(status).Inc()
	m.jobsInFlight.Dec()
	m.jobDuration.Observe(seconds)
}

// jobCompleted records the outcome of a successfully completed job.
func (m *Metrics) jobCompleted(objective string, result *optimization.Result) {
	m.evaluations.Add(float64(result.Evaluations))
	m.bestScore.WithLabelValues(objective).Set(result.Best.Value)
}
