package validation

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"plancheck/internal/catalog"
	"plancheck/internal/platform/metrics"
	dErrors "plancheck/pkg/domain-errors"
	"plancheck/pkg/requestcontext"
)

// defaultWorkers bounds parallel rule evaluation when the caller gives no
// preference.
const defaultWorkers = 8

// Dispatcher evaluates rules by category. The validator table is fixed at
// construction; there is no registration after that, so dispatch reads are
// safe under concurrency.
type Dispatcher struct {
	validators map[catalog.Category]validatorFunc
	workers    int
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

// NewDispatcher builds the category-keyed validator table.
func NewDispatcher(workers int, logger *slog.Logger, m *metrics.Metrics) *Dispatcher {
	if workers <= 0 {
		workers = defaultWorkers
	}
	return &Dispatcher{
		workers: workers,
		logger:  logger,
		metrics: m,
		validators: map[catalog.Category]validatorFunc{
			catalog.CategoryFieldRequired:      validateFieldRequired,
			catalog.CategoryDocumentRequired:   validateDocumentRequired,
			catalog.CategoryConsistency:        validateConsistency,
			catalog.CategoryModification:       validateModification,
			catalog.CategorySpatial:            validateSpatial,
			catalog.CategoryFee:                validateFee,
			catalog.CategoryOwnership:          validateOwnership,
			catalog.CategoryPriorApproval:      validatePriorApproval,
			catalog.CategoryConstraint:         validateConstraint,
			catalog.CategoryBiodiversityOffset: validateBiodiversityOffset,
			catalog.CategoryPlanQuality:        validatePlanQuality,
		},
	}
}

// Evaluate runs one rule. It never returns an error and never panics
// through: anything unevaluable becomes a needs_review finding so one bad
// rule cannot abort the rest of the run.
func (d *Dispatcher) Evaluate(ctx context.Context, rule catalog.Rule, vctx *Context) (finding Finding) {
	defer func() {
		if r := recover(); r != nil {
			finding = review(rule, fmt.Sprintf("validator panic: %v", r))
			finding.EvaluatedAt = requestcontext.Now(ctx)
			if d.logger != nil {
				d.logger.ErrorContext(ctx, "validator panicked",
					"rule_id", rule.ID,
					"category", rule.Category,
					"panic", r,
				)
			}
		}
	}()

	if vctx == nil || vctx.Extraction == nil {
		finding = review(rule, "no extraction data available")
		finding.EvaluatedAt = requestcontext.Now(ctx)
		return finding
	}

	if !d.applies(rule, vctx) {
		finding = pass(rule, "not applicable to application type "+vctx.ApplicationType)
		finding.EvaluatedAt = requestcontext.Now(ctx)
		return finding
	}

	validator, ok := d.validators[rule.Category]
	if !ok {
		finding = review(rule, "no validator registered for category "+rule.Category.String())
		finding.EvaluatedAt = requestcontext.Now(ctx)
		return finding
	}

	finding = validator(ctx, rule, vctx)
	finding.EvaluatedAt = requestcontext.Now(ctx)
	return finding
}

// EvaluateAll runs every rule on a bounded worker pool. No rule reads
// another rule's finding, so evaluation order is free; results are merged
// back into rule_id order regardless of completion order.
func (d *Dispatcher) EvaluateAll(ctx context.Context, rules []catalog.Rule, vctx *Context) ([]Finding, Summary, error) {
	if len(rules) == 0 {
		return nil, Summary{}, nil
	}
	start := time.Now()

	findings := make([]Finding, len(rules))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.workers)
	for i, rule := range rules {
		g.Go(func() error {
			findings[i] = d.Evaluate(gctx, rule, vctx)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		// Evaluate never errors; this guards future validator changes.
		return nil, Summary{}, dErrors.Wrap(err, dErrors.CodeInternal, "dispatch pass failed")
	}

	sort.Slice(findings, func(i, j int) bool { return findings[i].RuleID < findings[j].RuleID })
	summary := Summarize(findings)

	if d.metrics != nil {
		d.metrics.ObserveRun(time.Since(start), summary.Pass, summary.Fail, summary.NeedsReview)
	}
	if d.logger != nil {
		d.logger.InfoContext(ctx, "dispatch pass complete",
			"rules", len(rules),
			"pass", summary.Pass,
			"fail", summary.Fail,
			"needs_review", summary.NeedsReview,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
	return findings, summary, nil
}

// applies filters on applies_to tags; an untagged rule applies everywhere.
func (d *Dispatcher) applies(rule catalog.Rule, vctx *Context) bool {
	if len(rule.AppliesTo) == 0 || vctx.ApplicationType == "" {
		return true
	}
	for _, tag := range rule.AppliesTo {
		if tag == vctx.ApplicationType {
			return true
		}
	}
	return false
}
