// Package revalidation orchestrates the two engine flows: the full
// validation run for a new submission and the targeted re-run after an
// amendment.
package revalidation

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"plancheck/internal/catalog"
	"plancheck/internal/delta"
	"plancheck/internal/escalation"
	"plancheck/internal/extraction"
	"plancheck/internal/graph"
	"plancheck/internal/resolution"
	"plancheck/internal/validation"
	id "plancheck/pkg/domain"
	dErrors "plancheck/pkg/domain-errors"
)

// RunResult is the outcome of a full validation run.
type RunResult struct {
	RunID    uuid.UUID
	Findings []validation.Finding
	Summary  validation.Summary

	// Escalated is true when the gate routed at least one finding to an
	// external resolver; Issues are the tracker records it opened.
	Escalated bool
	Issues    []*resolution.IssueResolution
}

// AmendmentResult is the outcome of a targeted revalidation after an edit.
type AmendmentResult struct {
	RunID     uuid.UUID
	ChangeSet *delta.ChangeSet

	// ImpactedRules is the set the dependency graph selected for re-run;
	// empty when the changeset required no validation.
	ImpactedRules []id.RuleID
	Findings      []validation.Finding
	Summary       validation.Summary

	// Rechecked lists issues whose recheck attempt was recorded during
	// this run.
	Rechecked []*resolution.IssueResolution
}

// Service wires the catalog, dispatcher, delta engine, dependency graph,
// escalation gate and tracker into the two flows the engine exposes.
type Service struct {
	catalog         *catalog.Catalog
	dispatcher      *validation.Dispatcher
	graph           *graph.DependencyGraph
	delta           *delta.Engine
	gate            *escalation.Gate
	tracker         *resolution.Service
	cache           escalation.ResolvedFieldCache
	submissions     delta.SubmissionStore
	impactThreshold float64
	logger          *slog.Logger
	tracer          trace.Tracer
	events          chan<- resolution.Event
}

// Config carries the orchestrator's collaborators. Catalog, dispatcher,
// graph, gate and tracker are required; the rest degrade gracefully.
type Config struct {
	Catalog         *catalog.Catalog
	Dispatcher      *validation.Dispatcher
	Graph           *graph.DependencyGraph
	Delta           *delta.Engine
	Gate            *escalation.Gate
	Tracker         *resolution.Service
	Cache           escalation.ResolvedFieldCache
	Submissions     delta.SubmissionStore
	ImpactThreshold float64
	Logger          *slog.Logger
	Tracer          trace.Tracer

	// Events receives changeset-computed notifications for the mirror.
	// Optional; emission is non-blocking and never gates a run.
	Events chan<- resolution.Event
}

// NewService validates the wiring and builds the orchestrator.
func NewService(cfg Config) (*Service, error) {
	switch {
	case cfg.Catalog == nil:
		return nil, dErrors.New(dErrors.CodeInternal, "catalog is required")
	case cfg.Dispatcher == nil:
		return nil, dErrors.New(dErrors.CodeInternal, "dispatcher is required")
	case cfg.Graph == nil:
		return nil, dErrors.New(dErrors.CodeInternal, "dependency graph is required")
	case cfg.Gate == nil:
		return nil, dErrors.New(dErrors.CodeInternal, "escalation gate is required")
	case cfg.Tracker == nil:
		return nil, dErrors.New(dErrors.CodeInternal, "resolution tracker is required")
	}
	tracer := cfg.Tracer
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("plancheck/revalidation")
	}
	return &Service{
		catalog:         cfg.Catalog,
		dispatcher:      cfg.Dispatcher,
		graph:           cfg.Graph,
		delta:           cfg.Delta,
		gate:            cfg.Gate,
		tracker:         cfg.Tracker,
		cache:           cfg.Cache,
		submissions:     cfg.Submissions,
		impactThreshold: cfg.ImpactThreshold,
		logger:          cfg.Logger,
		tracer:          tracer,
		events:          cfg.Events,
	}, nil
}

// RunFull evaluates the whole catalog against a submission, applies the
// escalation gate, and opens tracker issues for every escalating finding.
func (s *Service) RunFull(ctx context.Context, appID id.ApplicationID, submissionID id.SubmissionID, res *extraction.Result, applicationType string) (*RunResult, error) {
	ctx, span := s.tracer.Start(ctx, "revalidation.full")
	defer span.End()

	vctx := s.dispatchContext(res, submissionID, applicationType)
	findings, summary, err := s.dispatcher.EvaluateAll(ctx, s.catalog.Rules(), vctx)
	if err != nil {
		return nil, err
	}

	result := &RunResult{RunID: uuid.New(), Findings: findings, Summary: summary}
	decision := s.gate.ShouldEscalate(ctx, appID, findings)
	result.Escalated = decision.Escalate
	for _, f := range decision.Findings {
		issue, err := s.tracker.OpenIssue(ctx, appID, f)
		if err != nil {
			return nil, err
		}
		result.Issues = append(result.Issues, issue)
	}

	if s.logger != nil {
		s.logger.InfoContext(ctx, "full validation run complete",
			"run_id", result.RunID.String(),
			"application_id", appID.Int64(),
			"submission_id", submissionID.Int64(),
			"pass", summary.Pass,
			"fail", summary.Fail,
			"needs_review", summary.NeedsReview,
			"escalated", result.Escalated,
		)
	}
	return result, nil
}

// RunAmendment diffs the two submission versions, expands the changed fields
// into the impacted rule set, re-runs only those rules, and records recheck
// attempts on the tracked issues the re-run touches.
func (s *Service) RunAmendment(ctx context.Context, appID id.ApplicationID, parentID, childID id.SubmissionID, res *extraction.Result, applicationType string) (*AmendmentResult, error) {
	ctx, span := s.tracer.Start(ctx, "revalidation.amendment")
	defer span.End()

	if s.delta == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "delta engine not configured")
	}
	cs, err := s.delta.ComputeChangeSet(ctx, parentID, childID)
	if err != nil {
		return nil, err
	}

	result := &AmendmentResult{RunID: uuid.New(), ChangeSet: cs}
	s.emitChangeSetComputed(appID, cs)
	if cs.RequiresValidation == delta.ValidationNo {
		return result, nil
	}

	changedFields := cs.ChangedFields()
	s.invalidateSettledFields(ctx, appID, changedFields)

	result.ImpactedRules = s.graph.ImpactedRules(changedFields, s.impactThreshold)
	if len(result.ImpactedRules) == 0 {
		return result, nil
	}

	rules := make([]catalog.Rule, 0, len(result.ImpactedRules))
	for _, ruleID := range result.ImpactedRules {
		if rule, ok := s.catalog.Get(ruleID); ok {
			rules = append(rules, rule)
		}
	}

	vctx := s.dispatchContext(res, childID, applicationType)
	findings, summary, err := s.dispatcher.EvaluateAll(ctx, rules, vctx)
	if err != nil {
		return nil, err
	}
	result.Findings = findings
	result.Summary = summary

	rechecked, err := s.recheckTrackedIssues(ctx, appID, findings)
	if err != nil {
		return nil, err
	}
	result.Rechecked = rechecked

	if s.logger != nil {
		s.logger.InfoContext(ctx, "amendment revalidation complete",
			"run_id", result.RunID.String(),
			"application_id", appID.Int64(),
			"changeset_id", cs.ID.Int64(),
			"significance", cs.SignificanceScore,
			"impacted_rules", len(result.ImpactedRules),
			"rechecked", len(rechecked),
		)
	}
	return result, nil
}

// emitChangeSetComputed mirrors the computed changeset to the event channel.
// A full channel drops the event: the mirror is observational.
func (s *Service) emitChangeSetComputed(appID id.ApplicationID, cs *delta.ChangeSet) {
	if s.events == nil {
		return
	}
	event := resolution.Event{
		Type:          resolution.EventChangeSetComputed,
		ApplicationID: appID,
		ChangeSetID:   cs.ID,
		At:            cs.CreatedAt,
	}
	select {
	case s.events <- event:
	default:
	}
}

// invalidateSettledFields drops changed fields from the resolved-fields
// cache: a confirmation for the old value must not suppress escalation of
// the new one.
func (s *Service) invalidateSettledFields(ctx context.Context, appID id.ApplicationID, fields []string) {
	if s.cache == nil {
		return
	}
	for _, field := range fields {
		if err := s.cache.Invalidate(ctx, appID, field); err != nil && s.logger != nil {
			s.logger.WarnContext(ctx, "resolved-field invalidate failed",
				"application_id", appID.Int64(),
				"field", field,
				"error", err,
			)
		}
	}
}

// recheckTrackedIssues records one recheck attempt per tracked issue whose
// rule was re-evaluated. Issues the tracker rejects (dismissed, concurrent
// writer) are skipped: rechecks are best-effort relative to the run.
func (s *Service) recheckTrackedIssues(ctx context.Context, appID id.ApplicationID, findings []validation.Finding) ([]*resolution.IssueResolution, error) {
	issues, err := s.tracker.ListByApplication(ctx, appID)
	if err != nil {
		return nil, err
	}
	byRule := make(map[id.RuleID]*resolution.IssueResolution, len(issues))
	for _, issue := range issues {
		if issue.Status == resolution.StatusDismissed {
			continue
		}
		byRule[issue.RuleID] = issue
	}

	var rechecked []*resolution.IssueResolution
	for _, f := range findings {
		issue, tracked := byRule[f.RuleID]
		if !tracked {
			continue
		}
		updated, err := s.tracker.RecordRecheck(ctx, issue.ID, f.Status, resolution.TriggerDocumentUpload)
		if err != nil {
			if dErrors.IsCode(err, dErrors.CodeConflict) {
				continue
			}
			return nil, err
		}
		rechecked = append(rechecked, updated)
	}
	return rechecked, nil
}

func (s *Service) dispatchContext(res *extraction.Result, submissionID id.SubmissionID, applicationType string) *validation.Context {
	vctx := validation.NewContext(res)
	vctx.SubmissionID = submissionID
	vctx.Submissions = s.submissions
	vctx.ApplicationType = applicationType
	return vctx
}
