package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	RequestDuration        *prometheus.HistogramVec
	GuardDenials           *prometheus.CounterVec
	RecommendationsServed  prometheus.Counter
	MatchesFormed          prometheus.Counter
	ReportsFiled           prometheus.Counter
	ShadowBansApplied      prometheus.Counter
	AuditWriteFailures     prometheus.Counter
	ValidationFailures     *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics on reg. Tests pass a fresh
// registry so parallel suites don't collide.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "kindred_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "status"}),
		GuardDenials: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "kindred_guard_denials_total",
			Help: "Guard chain denials by guard code.",
		}, []string{"code"}),
		RecommendationsServed: factory.NewCounter(prometheus.CounterOpts{
			Name: "kindred_recommendations_served_total",
			Help: "Candidate batches successfully computed.",
		}),
		MatchesFormed: factory.NewCounter(prometheus.CounterOpts{
			Name: "kindred_matches_formed_total",
			Help: "Matches created from reciprocal likes.",
		}),
		ReportsFiled: factory.NewCounter(prometheus.CounterOpts{
			Name: "kindred_reports_filed_total",
			Help: "Abuse reports accepted.",
		}),
		ShadowBansApplied: factory.NewCounter(prometheus.CounterOpts{
			Name: "kindred_shadow_bans_total",
			Help: "Shadow bans applied by auto-moderation.",
		}),
		AuditWriteFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "kindred_audit_write_failures_total",
			Help: "Best-effort audit writes that failed and were swallowed.",
		}),
		ValidationFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "kindred_validation_failures_total",
			Help: "Request validation failures by route.",
		}, []string{"route"}),
	}
}
