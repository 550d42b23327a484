package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// scoring pipeline, alert lifecycle, and notification dispatcher.
type Metrics struct {
	// Scoring pipeline metrics.
	ObservationsConsumed prometheus.Counter
	DuplicatesSkipped    prometheus.Counter
	ParseErrors          prometheus.Counter
	ObservationsScored   *prometheus.CounterVec // labels: method={model,rule_based,default}
	TierFallbacks        *prometheus.CounterVec // labels: method
	AssessmentsPublished prometheus.Counter
	ScoreDuration        prometheus.Histogram
	PipelineRunning      prometheus.Gauge

	// Alert lifecycle metrics.
	AlertsCreated  *prometheus.CounterVec // labels: severity
	AlertUpdates   *prometheus.CounterVec // labels: outcome={applied,rejected,not_found}
	AnchorRequests *prometheus.CounterVec // labels: outcome={success,error}

	// Dispatch metrics.
	DispatchPasses    prometheus.Counter
	NotificationsSent *prometheus.CounterVec // labels: channel, outcome={success,error}
	DispatchDuration  prometheus.Histogram

	// Background job metrics.
	JobRetries    *prometheus.CounterVec // labels: job
	JobsExhausted *prometheus.CounterVec // labels: job
}

// NewMetrics creates and registers all service metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()

	prometheus.MustRegister(
		m.ObservationsConsumed,
		m.DuplicatesSkipped,
		m.ParseErrors,
		m.ObservationsScored,
		m.TierFallbacks,
		m.AssessmentsPublished,
		m.ScoreDuration,
		m.PipelineRunning,
		m.AlertsCreated,
		m.AlertUpdates,
		m.AnchorRequests,
		m.DispatchPasses,
		m.NotificationsSent,
		m.DispatchDuration,
		m.JobRetries,
		m.JobsExhausted,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering collectors, to
// avoid "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		ObservationsConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "climate_alert",
			Name:      "observations_consumed_total",
			Help:      "Total observation messages read from the source topic.",
		}),
		DuplicatesSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "climate_alert",
			Name:      "observations_duplicate_total",
			Help:      "Observations skipped because the same source and timestamp were already scored.",
		}),
		ParseErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "climate_alert",
			Name:      "observation_parse_errors_total",
			Help:      "Source messages that could not be parsed into an observation.",
		}),
		ObservationsScored: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "climate_alert",
			Name:      "observations_scored_total",
			Help:      "Risk assessments produced, by scoring tier.",
		}, []string{"method"}),
		TierFallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "climate_alert",
			Name:      "scoring_tier_fallbacks_total",
			Help:      "Scoring tier failures that degraded to the next tier.",
		}, []string{"method"}),
		AssessmentsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "climate_alert",
			Name:      "assessments_published_total",
			Help:      "Risk assessments written to the sink topic.",
		}),
		ScoreDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "climate_alert",
			Name:      "score_duration_seconds",
			Help:      "Duration of one observation scoring cycle.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5},
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "climate_alert",
			Name:      "pipeline_running",
			Help:      "1 when the scoring pipeline is active, 0 when shut down.",
		}),
		AlertsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "climate_alert",
			Name:      "alerts_created_total",
			Help:      "Emergency alerts created, by severity.",
		}, []string{"severity"}),
		AlertUpdates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "climate_alert",
			Name:      "alert_updates_total",
			Help:      "Alert update attempts, by outcome.",
		}, []string{"outcome"}),
		AnchorRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "climate_alert",
			Name:      "anchor_requests_total",
			Help:      "Proof anchoring submissions, by outcome.",
		}, []string{"outcome"}),
		DispatchPasses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "climate_alert",
			Name:      "dispatch_passes_total",
			Help:      "Completed notification dispatch passes.",
		}),
		NotificationsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "climate_alert",
			Name:      "notifications_sent_total",
			Help:      "Per-channel notification attempts, by outcome.",
		}, []string{"channel", "outcome"}),
		DispatchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "climate_alert",
			Name:      "dispatch_duration_seconds",
			Help:      "Duration of a complete dispatch pass.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}),
		JobRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "climate_alert",
			Name:      "job_retries_total",
			Help:      "Background job attempts that failed and were retried.",
		}, []string{"job"}),
		JobsExhausted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "climate_alert",
			Name:      "jobs_exhausted_total",
			Help:      "Background jobs abandoned after exhausting retries.",
		}, []string{"job"}),
	}
}
