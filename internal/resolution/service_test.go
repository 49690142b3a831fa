package resolution

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"plancheck/internal/escalation"
	"plancheck/internal/validation"
	id "plancheck/pkg/domain"
	dErrors "plancheck/pkg/domain-errors"
)

// =============================================================================
// Resolution Service Test Suite
// =============================================================================
// Justification: the tracker's state machine and cascade rules are the
// riskiest logic in the engine; every transition edge gets exercised here
// against the in-memory store.

type ServiceSuite struct {
	suite.Suite
	store   *InMemoryStore
	cache   *escalation.InMemoryCache
	service *Service
	appID   id.ApplicationID
	now     time.Time
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.store = NewInMemoryStore()
	s.cache = escalation.NewInMemoryCache()
	s.now = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	s.service = NewService(s.store, NewShardedTx(s.store), nil, nil,
		WithClock(func() time.Time { return s.now }),
		WithResolvedCache(s.cache),
	)
	s.appID = id.ApplicationID(7)
}

func (s *ServiceSuite) openIssue(missing ...string) *IssueResolution {
	issue, err := s.service.OpenIssue(context.Background(), s.appID, validation.Finding{
		RuleID:        "R1",
		Status:        validation.StatusFail,
		Message:       "required field(s) missing",
		MissingFields: missing,
	})
	s.Require().NoError(err)
	return issue
}

func (s *ServiceSuite) TestOpenIssue() {
	issue := s.openIssue("site_address")
	s.Equal(StatusOpen, issue.Status)
	s.False(issue.RecheckPending)
	s.Equal(s.now, issue.CreatedAt)

	s.Run("passing findings are not tracked", func() {
		_, err := s.service.OpenIssue(context.Background(), s.appID, validation.Finding{RuleID: "R2", Status: validation.StatusPass})
		s.True(dErrors.IsCode(err, dErrors.CodeInvalidInput))
	})
}

func (s *ServiceSuite) TestActionStateMachine() {
	ctx := context.Background()

	s.Run("any action moves open to in_progress and flags recheck", func() {
		issue := s.openIssue("site_address")
		updated, err := s.service.ApplyAction(ctx, issue.ID, ActionDocumentUpload, "agent", "plan-v2.pdf")
		s.Require().NoError(err)
		s.Equal(StatusInProgress, updated.Status)
		s.True(updated.RecheckPending)
		s.NotNil(updated.LastActionAt)
	})

	s.Run("explanation advances to awaiting_verification", func() {
		issue := s.openIssue("site_address")
		updated, err := s.service.ApplyAction(ctx, issue.ID, ActionExplanation, "agent", "address confirmed by title deed")
		s.Require().NoError(err)
		s.Equal(StatusAwaitingVerification, updated.Status)
	})

	s.Run("option selection advances to awaiting_verification", func() {
		issue := s.openIssue("site_address")
		updated, err := s.service.ApplyAction(ctx, issue.ID, ActionOptionSelection, "agent", "option-2")
		s.Require().NoError(err)
		s.Equal(StatusAwaitingVerification, updated.Status)
	})

	s.Run("invalid action type rejected", func() {
		issue := s.openIssue()
		_, err := s.service.ApplyAction(ctx, issue.ID, ActionType("made-up"), "agent", "")
		s.True(dErrors.IsCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("actions are appended in order", func() {
		issue := s.openIssue()
		_, err := s.service.ApplyAction(ctx, issue.ID, ActionDocumentUpload, "agent", "a.pdf")
		s.Require().NoError(err)
		_, err = s.service.ApplyAction(ctx, issue.ID, ActionExplanation, "agent", "see a.pdf")
		s.Require().NoError(err)

		actions, err := s.service.ListActions(ctx, issue.ID)
		s.Require().NoError(err)
		s.Require().Len(actions, 2)
		s.Equal(ActionDocumentUpload, actions[0].Type)
		s.Equal(ActionExplanation, actions[1].Type)
	})
}

func (s *ServiceSuite) TestDismissal() {
	ctx := context.Background()

	s.Run("empty reason rejected before any mutation", func() {
		issue := s.openIssue()
		_, err := s.service.ApplyAction(ctx, issue.ID, ActionDismissal, "officer", "")
		s.True(dErrors.IsCode(err, dErrors.CodeInvalidInput))

		reloaded, err := s.service.GetIssue(ctx, issue.ID)
		s.Require().NoError(err)
		s.Equal(StatusOpen, reloaded.Status)
		actions, _ := s.service.ListActions(ctx, issue.ID)
		s.Empty(actions)
	})

	s.Run("missing actor rejected", func() {
		issue := s.openIssue()
		_, err := s.service.ApplyAction(ctx, issue.ID, ActionDismissal, "", "duplicate of issue 3")
		s.True(dErrors.IsCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("valid dismissal is terminal", func() {
		issue := s.openIssue()
		updated, err := s.service.ApplyAction(ctx, issue.ID, ActionDismissal, "officer", "duplicate of issue 3")
		s.Require().NoError(err)
		s.Equal(StatusDismissed, updated.Status)
		s.Equal("duplicate of issue 3", updated.DismissReason)
		s.Require().NotNil(updated.DismissedAt)
		s.Equal(s.now, *updated.DismissedAt)

		_, err = s.service.ApplyAction(ctx, issue.ID, ActionDocumentUpload, "agent", "late.pdf")
		s.True(dErrors.IsCode(err, dErrors.CodeConflict))
	})
}

func (s *ServiceSuite) TestResolve() {
	ctx := context.Background()

	s.Run("resolve sets status and timestamp", func() {
		issue := s.openIssue("site_address")
		updated, err := s.service.Resolve(ctx, issue.ID)
		s.Require().NoError(err)
		s.Equal(StatusResolved, updated.Status)
		s.Require().NotNil(updated.ResolvedAt)
	})

	s.Run("resolving confirms fields in the cache", func() {
		issue := s.openIssue("site_address", "applicant_name")
		_, err := s.service.Resolve(ctx, issue.ID)
		s.Require().NoError(err)

		for _, field := range []string{"site_address", "applicant_name"} {
			resolved, err := s.cache.IsResolved(ctx, s.appID, field)
			s.Require().NoError(err)
			s.True(resolved, field)
		}
	})

	s.Run("resolving a dismissed issue is rejected", func() {
		issue := s.openIssue()
		_, err := s.service.ApplyAction(ctx, issue.ID, ActionDismissal, "officer", "withdrawn")
		s.Require().NoError(err)
		_, err = s.service.Resolve(ctx, issue.ID)
		s.True(dErrors.IsCode(err, dErrors.CodeConflict))
	})
}

func (s *ServiceSuite) TestRecheck() {
	ctx := context.Background()

	s.Run("recheck clears the pending flag exactly once", func() {
		issue := s.openIssue()
		_, err := s.service.ApplyAction(ctx, issue.ID, ActionDocumentUpload, "agent", "a.pdf")
		s.Require().NoError(err)

		updated, err := s.service.RecordRecheck(ctx, issue.ID, validation.StatusFail, TriggerDocumentUpload)
		s.Require().NoError(err)
		s.False(updated.RecheckPending)
		s.NotNil(updated.LastRecheck)
	})

	s.Run("passing recheck resolves the issue", func() {
		issue := s.openIssue("site_address")
		updated, err := s.service.RecordRecheck(ctx, issue.ID, validation.StatusPass, TriggerManual)
		s.Require().NoError(err)
		s.Equal(StatusResolved, updated.Status)
	})

	s.Run("failed recheck sends a resolved issue back to in_progress", func() {
		issue := s.openIssue()
		_, err := s.service.Resolve(ctx, issue.ID)
		s.Require().NoError(err)

		updated, err := s.service.RecordRecheck(ctx, issue.ID, validation.StatusFail, TriggerDependencyCascade)
		s.Require().NoError(err)
		s.Equal(StatusInProgress, updated.Status)
		s.Nil(updated.ResolvedAt)
	})

	s.Run("inconclusive recheck keeps the current status", func() {
		issue := s.openIssue()
		_, err := s.service.ApplyAction(ctx, issue.ID, ActionExplanation, "agent", "see note")
		s.Require().NoError(err)

		updated, err := s.service.RecordRecheck(ctx, issue.ID, validation.StatusNeedsReview, TriggerManual)
		s.Require().NoError(err)
		s.Equal(StatusAwaitingVerification, updated.Status)
	})

	s.Run("every attempt lands in the audit history", func() {
		issue := s.openIssue()
		_, err := s.service.RecordRecheck(ctx, issue.ID, validation.StatusFail, TriggerManual)
		s.Require().NoError(err)
		_, err = s.service.RecordRecheck(ctx, issue.ID, validation.StatusPass, TriggerDocumentUpload)
		s.Require().NoError(err)

		rechecks, err := s.service.ListRechecks(ctx, issue.ID)
		s.Require().NoError(err)
		s.Require().Len(rechecks, 2)
		s.Equal(StatusOpen, rechecks[0].PreviousStatus)
		s.Equal(StatusInProgress, rechecks[0].NewStatus)
		s.Equal(TriggerManual, rechecks[0].Trigger)
		s.Equal(StatusResolved, rechecks[1].NewStatus)
	})

	s.Run("recheck on a dismissed issue is rejected", func() {
		issue := s.openIssue()
		_, err := s.service.ApplyAction(ctx, issue.ID, ActionDismissal, "officer", "withdrawn")
		s.Require().NoError(err)
		_, err = s.service.RecordRecheck(ctx, issue.ID, validation.StatusPass, TriggerManual)
		s.True(dErrors.IsCode(err, dErrors.CodeConflict))
	})
}

func (s *ServiceSuite) TestCascade() {
	ctx := context.Background()

	s.Run("resolving a blocker flips the dependent", func() {
		blocker := s.openIssue()
		dependent := s.openIssue()
		s.Require().NoError(s.service.AddDependency(ctx, IssueDependency{
			IssueID: dependent.ID, DependsOnIssueID: blocker.ID, Type: DependencyBlocking,
		}))

		_, err := s.service.Resolve(ctx, blocker.ID)
		s.Require().NoError(err)

		reloaded, err := s.service.GetIssue(ctx, dependent.ID)
		s.Require().NoError(err)
		s.True(reloaded.RecheckPending)
	})

	s.Run("re-resolving is a no-op and does not re-cascade", func() {
		blocker := s.openIssue()
		dependent := s.openIssue()
		s.Require().NoError(s.service.AddDependency(ctx, IssueDependency{
			IssueID: dependent.ID, DependsOnIssueID: blocker.ID, Type: DependencyBlocking,
		}))

		_, err := s.service.Resolve(ctx, blocker.ID)
		s.Require().NoError(err)

		// Simulate the dependent's recheck clearing the flag.
		_, err = s.service.RecordRecheck(ctx, dependent.ID, validation.StatusFail, TriggerDependencyCascade)
		s.Require().NoError(err)

		_, err = s.service.Resolve(ctx, blocker.ID)
		s.Require().NoError(err)

		reloaded, err := s.service.GetIssue(ctx, dependent.ID)
		s.Require().NoError(err)
		s.False(reloaded.RecheckPending)
	})

	s.Run("dependent waits for every blocking edge", func() {
		blockerA := s.openIssue()
		blockerB := s.openIssue()
		dependent := s.openIssue()
		for _, blocker := range []*IssueResolution{blockerA, blockerB} {
			s.Require().NoError(s.service.AddDependency(ctx, IssueDependency{
				IssueID: dependent.ID, DependsOnIssueID: blocker.ID, Type: DependencyBlocking,
			}))
		}

		_, err := s.service.Resolve(ctx, blockerA.ID)
		s.Require().NoError(err)
		reloaded, _ := s.service.GetIssue(ctx, dependent.ID)
		s.False(reloaded.RecheckPending)

		_, err = s.service.Resolve(ctx, blockerB.ID)
		s.Require().NoError(err)
		reloaded, _ = s.service.GetIssue(ctx, dependent.ID)
		s.True(reloaded.RecheckPending)
	})

	s.Run("suggested edges never gate a cascade", func() {
		blocker := s.openIssue()
		dependent := s.openIssue()
		s.Require().NoError(s.service.AddDependency(ctx, IssueDependency{
			IssueID: dependent.ID, DependsOnIssueID: blocker.ID, Type: DependencySuggested,
		}))

		_, err := s.service.Resolve(ctx, blocker.ID)
		s.Require().NoError(err)
		reloaded, _ := s.service.GetIssue(ctx, dependent.ID)
		s.False(reloaded.RecheckPending)
	})

	s.Run("dismissed dependents are left alone", func() {
		blocker := s.openIssue()
		dependent := s.openIssue()
		s.Require().NoError(s.service.AddDependency(ctx, IssueDependency{
			IssueID: dependent.ID, DependsOnIssueID: blocker.ID, Type: DependencyBlocking,
		}))
		_, err := s.service.ApplyAction(ctx, dependent.ID, ActionDismissal, "officer", "withdrawn")
		s.Require().NoError(err)

		_, err = s.service.Resolve(ctx, blocker.ID)
		s.Require().NoError(err)
		reloaded, _ := s.service.GetIssue(ctx, dependent.ID)
		s.False(reloaded.RecheckPending)
	})

	s.Run("self dependency rejected", func() {
		issue := s.openIssue()
		err := s.service.AddDependency(ctx, IssueDependency{
			IssueID: issue.ID, DependsOnIssueID: issue.ID, Type: DependencyBlocking,
		})
		s.True(dErrors.IsCode(err, dErrors.CodeInvalidInput))
	})
}

func (s *ServiceSuite) TestEventsAreConsumedByTheWorker() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	inbox := make(chan Event, 8)
	service := NewService(s.store, NewShardedTx(s.store), nil, nil,
		WithClock(func() time.Time { return s.now }),
		WithEvents(inbox),
	)
	worker := NewCascadeWorker(service, inbox, nil, nil)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = worker.Run(ctx)
	}()

	blocker, err := service.OpenIssue(ctx, s.appID, validation.Finding{RuleID: "R1", Status: validation.StatusFail})
	s.Require().NoError(err)
	dependent, err := service.OpenIssue(ctx, s.appID, validation.Finding{RuleID: "R2", Status: validation.StatusFail})
	s.Require().NoError(err)
	s.Require().NoError(service.AddDependency(ctx, IssueDependency{
		IssueID: dependent.ID, DependsOnIssueID: blocker.ID, Type: DependencyBlocking,
	}))

	_, err = service.Resolve(ctx, blocker.ID)
	s.Require().NoError(err)

	s.Eventually(func() bool {
		reloaded, err := service.GetIssue(ctx, dependent.ID)
		return err == nil && reloaded.RecheckPending
	}, time.Second, 10*time.Millisecond)

	cancel()
	<-done
}

func (s *ServiceSuite) TestListByApplication() {
	ctx := context.Background()
	s.openIssue()
	s.openIssue()
	other, err := s.service.OpenIssue(ctx, id.ApplicationID(99), validation.Finding{RuleID: "R9", Status: validation.StatusFail})
	s.Require().NoError(err)

	issues, err := s.service.ListByApplication(ctx, s.appID)
	s.Require().NoError(err)
	s.Len(issues, 2)
	for _, issue := range issues {
		s.NotEqual(other.ID, issue.ID)
	}
}
