// Package resolution tracks the remediation lifecycle of validation issues:
// actions, rechecks, dependencies between issues, and the cascade of recheck
// obligations when a blocking issue resolves.
package resolution

import (
	"time"

	"plancheck/internal/validation"
	id "plancheck/pkg/domain"
	dErrors "plancheck/pkg/domain-errors"
)

// IssueStatus is the lifecycle state of one tracked issue.
// Invariant: the value must be one of the supported statuses.
//
// Usage: construct via ParseIssueStatus at trust boundaries to enforce the
// allowlist; direct casting bypasses validation.
type IssueStatus string

const (
	StatusOpen                 IssueStatus = "open"
	StatusInProgress           IssueStatus = "in_progress"
	StatusAwaitingVerification IssueStatus = "awaiting_verification"
	StatusResolved             IssueStatus = "resolved"
	StatusDismissed            IssueStatus = "dismissed"
)

// validIssueStatuses is the single source of truth for valid statuses.
var validIssueStatuses = map[IssueStatus]bool{
	StatusOpen:                 true,
	StatusInProgress:           true,
	StatusAwaitingVerification: true,
	StatusResolved:             true,
	StatusDismissed:            true,
}

// ParseIssueStatus constructs an IssueStatus from external input.
func ParseIssueStatus(s string) (IssueStatus, error) {
	st := IssueStatus(s)
	if !st.IsValid() {
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "invalid issue status %q", s)
	}
	return st, nil
}

// IsValid checks if the status is one of the supported enum values.
func (s IssueStatus) IsValid() bool { return validIssueStatuses[s] }

// Terminal reports whether no further actions are accepted in this status.
// Resolved is terminal for actions but may re-enter in_progress when a later
// automatic recheck fails the rule again.
func (s IssueStatus) Terminal() bool { return s == StatusResolved || s == StatusDismissed }

// ActionType classifies a remediation action.
type ActionType string

const (
	ActionDocumentUpload  ActionType = "document_upload"
	ActionOptionSelection ActionType = "option_selection"
	ActionExplanation     ActionType = "explanation"
	ActionDismissal       ActionType = "dismissal"
)

var validActionTypes = map[ActionType]bool{
	ActionDocumentUpload:  true,
	ActionOptionSelection: true,
	ActionExplanation:     true,
	ActionDismissal:       true,
}

// IsValid checks if the action type is one of the supported enum values.
func (a ActionType) IsValid() bool { return validActionTypes[a] }

// TriggerSource records what initiated a recheck attempt.
type TriggerSource string

const (
	TriggerDocumentUpload    TriggerSource = "document_upload"
	TriggerManual            TriggerSource = "manual"
	TriggerDependencyCascade TriggerSource = "dependency_cascade"
)

// DependencyType classifies an edge between issues. Only blocking edges gate
// automatic recheck eligibility.
type DependencyType string

const (
	DependencyBlocking      DependencyType = "blocking"
	DependencySuggested     DependencyType = "suggested"
	DependencyInformational DependencyType = "informational"
)

var validDependencyTypes = map[DependencyType]bool{
	DependencyBlocking:      true,
	DependencySuggested:     true,
	DependencyInformational: true,
}

// IsValid checks if the dependency type is one of the supported enum values.
func (d DependencyType) IsValid() bool { return validDependencyTypes[d] }

// IssueResolution is the lifecycle wrapper around one persistently tracked
// finding.
type IssueResolution struct {
	ID            id.IssueID
	ApplicationID id.ApplicationID
	RuleID        id.RuleID

	Status         IssueStatus
	RecheckPending bool

	// Finding snapshot at issue creation; rechecks update Status but not
	// the originating message.
	Message       string
	MissingFields []string

	CreatedAt    time.Time
	LastActionAt *time.Time
	LastRecheck  *time.Time
	ResolvedAt   *time.Time
	DismissedAt  *time.Time

	// DismissReason is set only for dismissed issues.
	DismissReason string
}

// ResolutionAction is one immutable, append-only remediation event.
type ResolutionAction struct {
	ID      int64
	IssueID id.IssueID
	Type    ActionType
	Actor   string
	Payload string
	At      time.Time
}

// RecheckHistory is the immutable audit record of one revalidation attempt.
type RecheckHistory struct {
	ID             int64
	IssueID        id.IssueID
	PreviousStatus IssueStatus
	NewStatus      IssueStatus
	Outcome        validation.FindingStatus
	Trigger        TriggerSource
	At             time.Time
}

// IssueDependency is a directed edge: IssueID depends on DependsOnIssueID.
type IssueDependency struct {
	IssueID          id.IssueID
	DependsOnIssueID id.IssueID
	Type             DependencyType
}
