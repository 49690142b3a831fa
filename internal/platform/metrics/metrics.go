package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the validation engine.
type Metrics struct {
	FindingsTotal         *prometheus.CounterVec
	ValidationRunSeconds  prometheus.Histogram
	ChangeSetsComputed    prometheus.Counter
	ChangeSetSignificance prometheus.Histogram
	EscalationsTotal      prometheus.Counter
	RechecksTotal         *prometheus.CounterVec
	CascadeFlipsTotal     prometheus.Counter
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		FindingsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "plancheck_findings_total",
			Help: "Findings produced by rule evaluation, by status",
		}, []string{"status"}),
		ValidationRunSeconds: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "plancheck_validation_run_seconds",
			Help:    "Wall-clock duration of one dispatch pass",
			Buckets: prometheus.DefBuckets,
		}),
		ChangeSetsComputed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "plancheck_changesets_computed_total",
			Help: "ChangeSets computed between submission versions",
		}),
		ChangeSetSignificance: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "plancheck_changeset_significance",
			Help:    "Significance score distribution of computed changesets",
			Buckets: []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0},
		}),
		EscalationsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "plancheck_escalations_total",
			Help: "Finding sets routed to an external resolver",
		}),
		RechecksTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "plancheck_rechecks_total",
			Help: "Issue rechecks recorded, by trigger source",
		}, []string{"trigger"}),
		CascadeFlipsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "plancheck_cascade_flips_total",
			Help: "Dependent issues flagged recheck_pending by a resolution cascade",
		}),
	}
}

// ObserveRun records one dispatch pass and its per-status finding counts.
func (m *Metrics) ObserveRun(d time.Duration, pass, fail, needsReview int) {
	m.ValidationRunSeconds.Observe(d.Seconds())
	m.FindingsTotal.WithLabelValues("pass").Add(float64(pass))
	m.FindingsTotal.WithLabelValues("fail").Add(float64(fail))
	m.FindingsTotal.WithLabelValues("needs_review").Add(float64(needsReview))
}
