package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Outcome label values shared by the authorization metrics.
const (
	OutcomeAllow    = "allow"
	OutcomeRedirect = "redirect"
	OutcomeSuccess  = "success"
	OutcomeFailure  = "failure"
	OutcomeSkipped  = "skipped"
	OutcomeDropped  = "dropped"
)

// GateMetrics counts authorization gate decisions per route class.
type GateMetrics struct {
	decisions *prometheus.CounterVec
}

// NewGateMetrics registers the gate counters on the provided registerer.
func NewGateMetrics(reg prometheus.Registerer) *GateMetrics {
	if reg == nil {
		return &GateMetrics{}
	}
	decisions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "genesoft_gate_decisions_total",
		Help: "Authorization gate decisions by route class and outcome.",
	}, []string{"class", "outcome"})
	reg.MustRegister(decisions)
	return &GateMetrics{decisions: decisions}
}

// Observe records one decision.
func (g *GateMetrics) Observe(class, outcome string) {
	if g == nil || g.decisions == nil {
		return
	}
	g.decisions.WithLabelValues(normalizeLabel(class), normalizeLabel(outcome)).Inc()
}

// ElevatedActionMetrics counts elevated action steps.
type ElevatedActionMetrics struct {
	steps *prometheus.CounterVec
}

// NewElevatedActionMetrics registers the elevated action counters.
func NewElevatedActionMetrics(reg prometheus.Registerer) *ElevatedActionMetrics {
	if reg == nil {
		return &ElevatedActionMetrics{}
	}
	steps := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "genesoft_elevated_actions_total",
		Help: "Elevated admin action steps by action, step and outcome.",
	}, []string{"action", "step", "outcome"})
	reg.MustRegister(steps)
	return &ElevatedActionMetrics{steps: steps}
}

// ObserveStep records the outcome of a primary or secondary step.
func (e *ElevatedActionMetrics) ObserveStep(action, step, outcome string) {
	if e == nil || e.steps == nil {
		return
	}
	e.steps.WithLabelValues(normalizeLabel(action), normalizeLabel(step), normalizeLabel(outcome)).Inc()
}

// AuditMetrics counts audit record writes.
type AuditMetrics struct {
	writes *prometheus.CounterVec
}

// NewAuditMetrics registers the audit write counter.
func NewAuditMetrics(reg prometheus.Registerer) *AuditMetrics {
	if reg == nil {
		return &AuditMetrics{}
	}
	writes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "genesoft_audit_writes_total",
		Help: "Audit record writes by outcome.",
	}, []string{"outcome"})
	reg.MustRegister(writes)
	return &AuditMetrics{writes: writes}
}

// ObserveWrite records one audit write attempt.
func (a *AuditMetrics) ObserveWrite(outcome string) {
	if a == nil || a.writes == nil {
		return
	}
	a.writes.WithLabelValues(normalizeLabel(outcome)).Inc()
}
