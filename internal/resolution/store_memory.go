package resolution

import (
	"context"
	"sort"
	"sync"

	id "plancheck/pkg/domain"
	dErrors "plancheck/pkg/domain-errors"
)

// InMemoryStore keeps the tracker state in process. Used by unit tests and
// dev mode; the PostgreSQL twin carries the same semantics.
type InMemoryStore struct {
	mu           sync.RWMutex
	issues       map[id.IssueID]*IssueResolution
	actions      map[id.IssueID][]*ResolutionAction
	rechecks     map[id.IssueID][]*RecheckHistory
	dependencies []IssueDependency
	nextIssueID  int64
	nextRowID    int64
}

// NewInMemoryStore constructs an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		issues:   make(map[id.IssueID]*IssueResolution),
		actions:  make(map[id.IssueID][]*ResolutionAction),
		rechecks: make(map[id.IssueID][]*RecheckHistory),
	}
}

// CreateIssue implements Store.
func (s *InMemoryStore) CreateIssue(_ context.Context, issue *IssueResolution) (id.IssueID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextIssueID++
	stored := *issue
	stored.ID = id.IssueID(s.nextIssueID)
	s.issues[stored.ID] = &stored
	return stored.ID, nil
}

// GetIssue implements Store.
func (s *InMemoryStore) GetIssue(_ context.Context, issueID id.IssueID) (*IssueResolution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	issue, ok := s.issues[issueID]
	if !ok {
		return nil, dErrors.Newf(dErrors.CodeNotFound, "issue %d not found", issueID.Int64())
	}
	copied := *issue
	return &copied, nil
}

// UpdateIssue implements Store.
func (s *InMemoryStore) UpdateIssue(_ context.Context, issue *IssueResolution) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.issues[issue.ID]; !ok {
		return dErrors.Newf(dErrors.CodeNotFound, "issue %d not found", issue.ID.Int64())
	}
	stored := *issue
	s.issues[issue.ID] = &stored
	return nil
}

// ListByApplication implements Store.
func (s *InMemoryStore) ListByApplication(_ context.Context, appID id.ApplicationID) ([]*IssueResolution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*IssueResolution
	for _, issue := range s.issues {
		if issue.ApplicationID == appID {
			copied := *issue
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// AppendAction implements Store.
func (s *InMemoryStore) AppendAction(_ context.Context, action *ResolutionAction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextRowID++
	stored := *action
	stored.ID = s.nextRowID
	s.actions[action.IssueID] = append(s.actions[action.IssueID], &stored)
	return nil
}

// ListActions implements Store.
func (s *InMemoryStore) ListActions(_ context.Context, issueID id.IssueID) ([]*ResolutionAction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*ResolutionAction(nil), s.actions[issueID]...), nil
}

// AppendRecheck implements Store.
func (s *InMemoryStore) AppendRecheck(_ context.Context, recheck *RecheckHistory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextRowID++
	stored := *recheck
	stored.ID = s.nextRowID
	s.rechecks[recheck.IssueID] = append(s.rechecks[recheck.IssueID], &stored)
	return nil
}

// ListRechecks implements Store.
func (s *InMemoryStore) ListRechecks(_ context.Context, issueID id.IssueID) ([]*RecheckHistory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*RecheckHistory(nil), s.rechecks[issueID]...), nil
}

// AddDependency implements Store.
func (s *InMemoryStore) AddDependency(_ context.Context, dep IssueDependency) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.issues[dep.IssueID]; !ok {
		return dErrors.Newf(dErrors.CodeNotFound, "issue %d not found", dep.IssueID.Int64())
	}
	if _, ok := s.issues[dep.DependsOnIssueID]; !ok {
		return dErrors.Newf(dErrors.CodeNotFound, "issue %d not found", dep.DependsOnIssueID.Int64())
	}
	for _, existing := range s.dependencies {
		if existing.IssueID == dep.IssueID && existing.DependsOnIssueID == dep.DependsOnIssueID {
			return dErrors.New(dErrors.CodeConflict, "dependency already exists")
		}
	}
	s.dependencies = append(s.dependencies, dep)
	return nil
}

// ListDependencies implements Store.
func (s *InMemoryStore) ListDependencies(_ context.Context, issueID id.IssueID) ([]IssueDependency, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []IssueDependency
	for _, dep := range s.dependencies {
		if dep.IssueID == issueID {
			out = append(out, dep)
		}
	}
	return out, nil
}

// ListDependents implements Store.
func (s *InMemoryStore) ListDependents(_ context.Context, issueID id.IssueID) ([]IssueDependency, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []IssueDependency
	for _, dep := range s.dependencies {
		if dep.DependsOnIssueID == issueID {
			out = append(out, dep)
		}
	}
	return out, nil
}
