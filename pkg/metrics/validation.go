package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ValidationMetrics records moderation decisions and cascade outcomes.
type ValidationMetrics struct {
	decisions       *prometheus.CounterVec
	cascadeProducts *prometheus.CounterVec
	duration        *prometheus.HistogramVec
}

// NewValidationMetrics registers the validation metrics on the provided registerer.
func NewValidationMetrics(reg prometheus.Registerer) *ValidationMetrics {
	if reg == nil {
		return &ValidationMetrics{}
	}
	decisions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "design_validation_decisions_total",
		Help: "Design validation decisions applied, by verdict.",
	}, []string{"decision"})
	cascadeProducts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "design_validation_cascade_products_total",
		Help: "Products touched by the post-validation cascade, by outcome.",
	}, []string{"outcome"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "design_validation_decision_duration_seconds",
		Help:    "Duration of full decision application including cascade.",
		Buckets: prometheus.DefBuckets,
	}, []string{"decision"})
	reg.MustRegister(decisions, cascadeProducts, duration)
	return &ValidationMetrics{
		decisions:       decisions,
		cascadeProducts: cascadeProducts,
		duration:        duration,
	}
}

// IncDecision increments the decision counter for the given verdict.
func (v *ValidationMetrics) IncDecision(decision string) {
	if v == nil || v.decisions == nil {
		return
	}
	v.decisions.WithLabelValues(normalizeLabel(decision)).Inc()
}

// IncCascadeProduct increments the per-product cascade counter.
func (v *ValidationMetrics) IncCascadeProduct(outcome string) {
	if v == nil || v.cascadeProducts == nil {
		return
	}
	v.cascadeProducts.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// ObserveDecisionDuration records how long a decision took end to end.
func (v *ValidationMetrics) ObserveDecisionDuration(decision string, duration time.Duration) {
	if v == nil || v.duration == nil {
		return
	}
	v.duration.WithLabelValues(normalizeLabel(decision)).Observe(duration.Seconds())
}
