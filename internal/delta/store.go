package delta

import (
	"context"

	id "plancheck/pkg/domain"
)

// SubmissionStore is the narrow repository contract for reading one
// submission version's extracted state.
type SubmissionStore interface {
	// GetVersion returns CodeNotFound when the submission does not exist.
	GetVersion(ctx context.Context, submissionID id.SubmissionID) (*SubmissionVersion, error)
}

// ChangeSetStore persists computed changesets.
//
// Create must be transactional: either the set and all its items persist, or
// nothing does. FindByPair backs the engine's idempotency guarantee.
type ChangeSetStore interface {
	// FindByPair returns the existing changeset for (parent, child), or nil
	// when none has been computed yet.
	FindByPair(ctx context.Context, parentID, childID id.SubmissionID) (*ChangeSet, error)
	// Create persists the changeset and returns its assigned id.
	Create(ctx context.Context, cs *ChangeSet) (id.ChangeSetID, error)
	// GetByID returns CodeNotFound for unknown ids.
	GetByID(ctx context.Context, changeSetID id.ChangeSetID) (*ChangeSet, error)
}
