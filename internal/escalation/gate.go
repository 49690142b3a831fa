package escalation

import (
	"context"
	"log/slog"

	"plancheck/internal/platform/metrics"
	"plancheck/internal/validation"
	id "plancheck/pkg/domain"
)

// Decision is the gate's verdict for one finding set.
type Decision struct {
	// Escalate is true when at least one finding needs an external resolver.
	Escalate bool

	// Findings are the findings that individually warranted escalation, in
	// the order they were presented.
	Findings []validation.Finding

	// Suppressed counts findings that would have escalated but whose affected
	// fields are all already confirmed for the application.
	Suppressed int
}

// Gate decides whether a finding set needs an external resolver call.
// A cache failure never blocks escalation: the cache only suppresses, so on
// error the gate escalates as if the field were unconfirmed.
type Gate struct {
	cache           ResolvedFieldCache
	confidenceFloor float64
	logger          *slog.Logger
	metrics         *metrics.Metrics
}

// NewGate builds an escalation gate. confidenceFloor is the extraction
// confidence below which a non-passing finding always escalates.
func NewGate(cache ResolvedFieldCache, confidenceFloor float64, logger *slog.Logger, m *metrics.Metrics) *Gate {
	return &Gate{cache: cache, confidenceFloor: confidenceFloor, logger: logger, metrics: m}
}

// ShouldEscalate applies the gate to a finding set. A passing finding never
// escalates regardless of confidence; fail and needs_review findings escalate
// unless every field they name is already confirmed for the application.
func (g *Gate) ShouldEscalate(ctx context.Context, appID id.ApplicationID, findings []validation.Finding) Decision {
	var decision Decision
	for _, f := range findings {
		if !g.eligible(f) {
			continue
		}
		if g.settled(ctx, appID, f) {
			decision.Suppressed++
			continue
		}
		decision.Findings = append(decision.Findings, f)
	}

	decision.Escalate = len(decision.Findings) > 0
	if decision.Escalate && g.metrics != nil {
		g.metrics.EscalationsTotal.Inc()
	}
	if g.logger != nil {
		g.logger.DebugContext(ctx, "escalation gate evaluated",
			"application_id", appID.Int64(),
			"escalate", decision.Escalate,
			"escalating", len(decision.Findings),
			"suppressed", decision.Suppressed,
		)
	}
	return decision
}

// eligible reports whether the finding can escalate at all.
func (g *Gate) eligible(f validation.Finding) bool {
	switch f.Status {
	case validation.StatusFail, validation.StatusNeedsReview:
		return true
	case validation.StatusPass:
		return false
	}
	// Unknown status: treat as unresolved rather than dropping it.
	return f.Confidence < g.confidenceFloor
}

// settled reports whether every field the finding names is already confirmed.
// A finding naming no fields has nothing the cache could vouch for.
func (g *Gate) settled(ctx context.Context, appID id.ApplicationID, f validation.Finding) bool {
	if g.cache == nil || len(f.MissingFields) == 0 {
		return false
	}
	for _, field := range f.MissingFields {
		resolved, err := g.cache.IsResolved(ctx, appID, field)
		if err != nil {
			if g.logger != nil {
				g.logger.WarnContext(ctx, "resolved-field cache lookup failed, escalating",
					"application_id", appID.Int64(),
					"field", field,
					"error", err,
				)
			}
			return false
		}
		if !resolved {
			return false
		}
	}
	return true
}
