package delta

import (
	"context"
	"sync"
	"time"

	id "plancheck/pkg/domain"
	dErrors "plancheck/pkg/domain-errors"
)

type pairKey struct {
	parent id.SubmissionID
	child  id.SubmissionID
}

// InMemoryStore keeps submissions and changesets in process. Used by unit
// tests and dev mode; the PostgreSQL twin carries the same semantics.
type InMemoryStore struct {
	mu          sync.RWMutex
	submissions map[id.SubmissionID]*SubmissionVersion
	changesets  map[id.ChangeSetID]*ChangeSet
	byPair      map[pairKey]id.ChangeSetID
	nextID      int64
}

// NewInMemoryStore constructs an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		submissions: make(map[id.SubmissionID]*SubmissionVersion),
		changesets:  make(map[id.ChangeSetID]*ChangeSet),
		byPair:      make(map[pairKey]id.ChangeSetID),
	}
}

// SeedSubmission registers a submission version (test and dev helper).
func (s *InMemoryStore) SeedSubmission(v *SubmissionVersion) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.submissions[v.ID] = v
}

// GetVersion implements SubmissionStore.
func (s *InMemoryStore) GetVersion(_ context.Context, submissionID id.SubmissionID) (*SubmissionVersion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.submissions[submissionID]
	if !ok {
		return nil, dErrors.Newf(dErrors.CodeNotFound, "submission %d not found", submissionID.Int64())
	}
	return v, nil
}

// FindByPair implements ChangeSetStore.
func (s *InMemoryStore) FindByPair(_ context.Context, parentID, childID id.SubmissionID) (*ChangeSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	csID, ok := s.byPair[pairKey{parentID, childID}]
	if !ok {
		return nil, nil
	}
	return s.changesets[csID], nil
}

// Create implements ChangeSetStore.
func (s *InMemoryStore) Create(_ context.Context, cs *ChangeSet) (id.ChangeSetID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := pairKey{cs.ParentID, cs.ChildID}
	if existing, ok := s.byPair[key]; ok {
		return 0, dErrors.Newf(dErrors.CodeConflict, "changeset %d already exists for pair", existing.Int64())
	}

	s.nextID++
	stored := *cs
	stored.ID = id.ChangeSetID(s.nextID)
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now()
	}
	s.changesets[stored.ID] = &stored
	s.byPair[key] = stored.ID
	return stored.ID, nil
}

// GetByID implements ChangeSetStore.
func (s *InMemoryStore) GetByID(_ context.Context, changeSetID id.ChangeSetID) (*ChangeSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cs, ok := s.changesets[changeSetID]
	if !ok {
		return nil, dErrors.Newf(dErrors.CodeNotFound, "changeset %d not found", changeSetID.Int64())
	}
	return cs, nil
}
