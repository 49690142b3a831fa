package resolution

import (
	"context"

	id "plancheck/pkg/domain"
)

// Store is the persistence contract for the resolution tracker. Mutations on
// one issue are serialized by the service through Tx; reads may proceed
// concurrently with eventual consistency relative to in-flight writes.
type Store interface {
	CreateIssue(ctx context.Context, issue *IssueResolution) (id.IssueID, error)
	GetIssue(ctx context.Context, issueID id.IssueID) (*IssueResolution, error)
	UpdateIssue(ctx context.Context, issue *IssueResolution) error
	ListByApplication(ctx context.Context, appID id.ApplicationID) ([]*IssueResolution, error)

	AppendAction(ctx context.Context, action *ResolutionAction) error
	ListActions(ctx context.Context, issueID id.IssueID) ([]*ResolutionAction, error)

	AppendRecheck(ctx context.Context, recheck *RecheckHistory) error
	ListRechecks(ctx context.Context, issueID id.IssueID) ([]*RecheckHistory, error)

	AddDependency(ctx context.Context, dep IssueDependency) error
	// ListDependencies returns edges where issueID is the dependent side.
	ListDependencies(ctx context.Context, issueID id.IssueID) ([]IssueDependency, error)
	// ListDependents returns edges pointing at issueID.
	ListDependents(ctx context.Context, issueID id.IssueID) ([]IssueDependency, error)
}
