package resolution

import (
	"context"
	"log/slog"
	"time"

	"plancheck/internal/escalation"
	"plancheck/internal/platform/metrics"
	"plancheck/internal/validation"
	id "plancheck/pkg/domain"
	dErrors "plancheck/pkg/domain-errors"
)

// Service owns the issue lifecycle. All mutations run through Tx so at most
// one writer touches an issue at a time; invalid transitions are rejected
// before any mutation, never partially applied.
type Service struct {
	store   Store
	tx      Tx
	cache   escalation.ResolvedFieldCache
	events  chan<- Event
	logger  *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// Option customizes a Service.
type Option func(*Service)

// WithClock injects a deterministic time source for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithResolvedCache marks an issue's fields confirmed when it resolves, so
// the escalation gate stops re-escalating them.
func WithResolvedCache(cache escalation.ResolvedFieldCache) Option {
	return func(s *Service) { s.cache = cache }
}

// WithEvents routes resolution events to an async consumer. Without it the
// cascade runs inline, still best-effort.
func WithEvents(events chan<- Event) Option {
	return func(s *Service) { s.events = events }
}

// NewService builds the tracker service.
func NewService(store Store, tx Tx, logger *slog.Logger, m *metrics.Metrics, opts ...Option) *Service {
	s := &Service{store: store, tx: tx, logger: logger, metrics: m, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OpenIssue starts tracking a non-passing finding.
func (s *Service) OpenIssue(ctx context.Context, appID id.ApplicationID, finding validation.Finding) (*IssueResolution, error) {
	if finding.Status == validation.StatusPass {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "passing findings are not tracked")
	}
	issue := &IssueResolution{
		ApplicationID: appID,
		RuleID:        finding.RuleID,
		Status:        StatusOpen,
		Message:       finding.Message,
		MissingFields: finding.MissingFields,
		CreatedAt:     s.now(),
	}
	issueID, err := s.store.CreateIssue(ctx, issue)
	if err != nil {
		return nil, err
	}
	issue.ID = issueID
	return issue, nil
}

// ApplyAction records one remediation action and advances the state machine:
// any action moves an open issue to in_progress; option selections and
// explanations advance to awaiting_verification; a dismissal is terminal and
// requires a non-empty reason and an identified actor. Every accepted action
// flags the issue for recheck.
func (s *Service) ApplyAction(ctx context.Context, issueID id.IssueID, actionType ActionType, actor, payload string) (*IssueResolution, error) {
	if !actionType.IsValid() {
		return nil, dErrors.Newf(dErrors.CodeInvalidInput, "invalid action type %q", actionType)
	}
	if actionType == ActionDismissal {
		if actor == "" {
			return nil, dErrors.New(dErrors.CodeInvalidInput, "dismissal requires an identified actor")
		}
		if payload == "" {
			return nil, dErrors.New(dErrors.CodeInvalidInput, "dismissal requires a non-empty reason")
		}
	}

	var updated *IssueResolution
	err := s.tx.RunInTx(ctx, issueID, func(store Store) error {
		issue, err := store.GetIssue(ctx, issueID)
		if err != nil {
			return err
		}
		if issue.Status.Terminal() {
			return dErrors.Newf(dErrors.CodeConflict, "issue %d is %s; no further actions accepted", issueID.Int64(), issue.Status)
		}

		now := s.now()
		switch actionType {
		case ActionDismissal:
			issue.Status = StatusDismissed
			issue.DismissedAt = &now
			issue.DismissReason = payload
			issue.RecheckPending = false
		case ActionOptionSelection, ActionExplanation:
			issue.Status = StatusAwaitingVerification
			issue.RecheckPending = true
		default:
			if issue.Status == StatusOpen {
				issue.Status = StatusInProgress
			}
			issue.RecheckPending = true
		}
		issue.LastActionAt = &now

		if err := store.AppendAction(ctx, &ResolutionAction{
			IssueID: issueID,
			Type:    actionType,
			Actor:   actor,
			Payload: payload,
			At:      now,
		}); err != nil {
			return err
		}
		if err := store.UpdateIssue(ctx, issue); err != nil {
			return err
		}
		updated = issue
		return nil
	})
	if err != nil {
		return nil, err
	}
	if s.logger != nil {
		s.logger.InfoContext(ctx, "resolution action recorded",
			"issue_id", issueID.Int64(),
			"action", actionType,
			"status", updated.Status,
		)
	}
	return updated, nil
}

// Resolve marks an issue resolved and kicks off the dependency cascade.
// Resolving an already-resolved issue is a no-op and does not re-cascade.
func (s *Service) Resolve(ctx context.Context, issueID id.IssueID) (*IssueResolution, error) {
	var (
		updated *IssueResolution
		noop    bool
	)
	err := s.tx.RunInTx(ctx, issueID, func(store Store) error {
		issue, err := store.GetIssue(ctx, issueID)
		if err != nil {
			return err
		}
		if issue.Status == StatusResolved {
			updated, noop = issue, true
			return nil
		}
		if issue.Status == StatusDismissed {
			return dErrors.Newf(dErrors.CodeConflict, "issue %d is dismissed", issueID.Int64())
		}
		now := s.now()
		issue.Status = StatusResolved
		issue.ResolvedAt = &now
		if err := store.UpdateIssue(ctx, issue); err != nil {
			return err
		}
		updated = issue
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !noop {
		s.afterResolve(ctx, updated)
	}
	return updated, nil
}

// RecordRecheck applies one revalidation attempt: recheck_pending is cleared
// exactly once regardless of outcome, the attempt is appended to the audit
// history, and a failing recheck sends a resolved issue back to in_progress.
func (s *Service) RecordRecheck(ctx context.Context, issueID id.IssueID, outcome validation.FindingStatus, trigger TriggerSource) (*IssueResolution, error) {
	var (
		updated  *IssueResolution
		resolved bool
	)
	err := s.tx.RunInTx(ctx, issueID, func(store Store) error {
		issue, err := store.GetIssue(ctx, issueID)
		if err != nil {
			return err
		}
		if issue.Status == StatusDismissed {
			return dErrors.Newf(dErrors.CodeConflict, "issue %d is dismissed", issueID.Int64())
		}

		now := s.now()
		previous := issue.Status
		issue.RecheckPending = false
		issue.LastRecheck = &now

		switch outcome {
		case validation.StatusPass:
			if issue.Status != StatusResolved {
				issue.Status = StatusResolved
				issue.ResolvedAt = &now
				resolved = true
			}
		case validation.StatusFail:
			issue.Status = StatusInProgress
			issue.ResolvedAt = nil
		case validation.StatusNeedsReview:
			// Inconclusive: keep the current status.
		default:
			return dErrors.Newf(dErrors.CodeInvalidInput, "invalid recheck outcome %q", outcome)
		}

		if err := store.AppendRecheck(ctx, &RecheckHistory{
			IssueID:        issueID,
			PreviousStatus: previous,
			NewStatus:      issue.Status,
			Outcome:        outcome,
			Trigger:        trigger,
			At:             now,
		}); err != nil {
			return err
		}
		if err := store.UpdateIssue(ctx, issue); err != nil {
			return err
		}
		updated = issue
		return nil
	})
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.RechecksTotal.WithLabelValues(string(trigger)).Inc()
	}
	if resolved {
		s.afterResolve(ctx, updated)
	}
	return updated, nil
}

// AddDependency links two issues. Only blocking edges gate cascades.
func (s *Service) AddDependency(ctx context.Context, dep IssueDependency) error {
	if !dep.Type.IsValid() {
		return dErrors.Newf(dErrors.CodeInvalidInput, "invalid dependency type %q", dep.Type)
	}
	if dep.IssueID == dep.DependsOnIssueID {
		return dErrors.New(dErrors.CodeInvalidInput, "an issue cannot depend on itself")
	}
	return s.store.AddDependency(ctx, dep)
}

// Cascade flips recheck_pending on every dependent of the resolved issue
// whose blocking dependencies are now all resolved. Suggested and
// informational edges never gate a cascade. Best effort: a dependent that
// cannot be updated is logged and skipped.
func (s *Service) Cascade(ctx context.Context, resolvedID id.IssueID) error {
	dependents, err := s.store.ListDependents(ctx, resolvedID)
	if err != nil {
		return err
	}
	for _, edge := range dependents {
		if edge.Type != DependencyBlocking {
			continue
		}
		if err := s.flipIfUnblocked(ctx, edge.IssueID); err != nil && s.logger != nil {
			s.logger.WarnContext(ctx, "cascade skipped dependent",
				"issue_id", edge.IssueID.Int64(),
				"resolved_id", resolvedID.Int64(),
				"error", err,
			)
		}
	}
	return nil
}

func (s *Service) flipIfUnblocked(ctx context.Context, issueID id.IssueID) error {
	return s.tx.RunInTx(ctx, issueID, func(store Store) error {
		deps, err := store.ListDependencies(ctx, issueID)
		if err != nil {
			return err
		}
		for _, dep := range deps {
			if dep.Type != DependencyBlocking {
				continue
			}
			blocker, err := store.GetIssue(ctx, dep.DependsOnIssueID)
			if err != nil {
				return err
			}
			if blocker.Status != StatusResolved {
				return nil
			}
		}

		issue, err := store.GetIssue(ctx, issueID)
		if err != nil {
			return err
		}
		if issue.Status == StatusDismissed || issue.RecheckPending {
			return nil
		}
		issue.RecheckPending = true
		if err := store.UpdateIssue(ctx, issue); err != nil {
			return err
		}
		if s.metrics != nil {
			s.metrics.CascadeFlipsTotal.Inc()
		}
		return nil
	})
}

// afterResolve runs the post-resolution side effects: confirming the issue's
// fields in the escalation cache and kicking off the cascade. Both are best
// effort relative to the already-committed resolution.
func (s *Service) afterResolve(ctx context.Context, issue *IssueResolution) {
	if s.cache != nil {
		for _, field := range issue.MissingFields {
			if err := s.cache.MarkResolved(ctx, issue.ApplicationID, field); err != nil && s.logger != nil {
				s.logger.WarnContext(ctx, "resolved-field cache mark failed",
					"application_id", issue.ApplicationID.Int64(),
					"field", field,
					"error", err,
				)
			}
		}
	}

	event := Event{
		Type:          EventIssueResolved,
		IssueID:       issue.ID,
		ApplicationID: issue.ApplicationID,
		RuleID:        issue.RuleID,
		At:            s.now(),
	}
	if s.events != nil {
		select {
		case s.events <- event:
		default:
			if s.logger != nil {
				s.logger.WarnContext(ctx, "event inbox full, running cascade inline", "issue_id", issue.ID.Int64())
			}
			if err := s.Cascade(ctx, issue.ID); err != nil && s.logger != nil {
				s.logger.ErrorContext(ctx, "inline cascade failed", "issue_id", issue.ID.Int64(), "error", err)
			}
		}
		return
	}
	if err := s.Cascade(ctx, issue.ID); err != nil && s.logger != nil {
		s.logger.ErrorContext(ctx, "cascade failed", "issue_id", issue.ID.Int64(), "error", err)
	}
}

// GetIssue returns one issue by id.
func (s *Service) GetIssue(ctx context.Context, issueID id.IssueID) (*IssueResolution, error) {
	return s.store.GetIssue(ctx, issueID)
}

// ListByApplication returns all tracked issues for an application.
func (s *Service) ListByApplication(ctx context.Context, appID id.ApplicationID) ([]*IssueResolution, error) {
	return s.store.ListByApplication(ctx, appID)
}

// ListActions returns the append-only action log for an issue.
func (s *Service) ListActions(ctx context.Context, issueID id.IssueID) ([]*ResolutionAction, error) {
	return s.store.ListActions(ctx, issueID)
}

// ListRechecks returns the recheck audit history for an issue.
func (s *Service) ListRechecks(ctx context.Context, issueID id.IssueID) ([]*RecheckHistory, error) {
	return s.store.ListRechecks(ctx, issueID)
}
