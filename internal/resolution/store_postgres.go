package resolution

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	id "plancheck/pkg/domain"
	dErrors "plancheck/pkg/domain-errors"
)

// PostgresStore persists the tracker state in PostgreSQL. Schema lives in
// migrations/schema.sql. Per-issue write serialization is the service's job
// (via Tx); this store only guarantees per-statement atomicity.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore constructs a PostgreSQL-backed tracker store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// CreateIssue implements Store.
func (s *PostgresStore) CreateIssue(ctx context.Context, issue *IssueResolution) (id.IssueID, error) {
	var issueID int64
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO issue_resolutions
		   (application_id, rule_id, status, recheck_pending, message, missing_fields, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id`,
		issue.ApplicationID.Int64(), string(issue.RuleID), string(issue.Status),
		issue.RecheckPending, issue.Message, pq.Array(issue.MissingFields), issue.CreatedAt,
	).Scan(&issueID)
	if err != nil {
		return 0, fmt.Errorf("insert issue: %w", err)
	}
	return id.IssueID(issueID), nil
}

// GetIssue implements Store.
func (s *PostgresStore) GetIssue(ctx context.Context, issueID id.IssueID) (*IssueResolution, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, application_id, rule_id, status, recheck_pending, message, missing_fields,
		        dismiss_reason, created_at, last_action_at, last_recheck_at, resolved_at, dismissed_at
		 FROM issue_resolutions WHERE id = $1`,
		issueID.Int64(),
	)
	issue, err := scanIssue(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, dErrors.Newf(dErrors.CodeNotFound, "issue %d not found", issueID.Int64())
		}
		return nil, fmt.Errorf("get issue: %w", err)
	}
	return issue, nil
}

// UpdateIssue implements Store.
func (s *PostgresStore) UpdateIssue(ctx context.Context, issue *IssueResolution) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE issue_resolutions
		 SET status = $2, recheck_pending = $3, dismiss_reason = $4,
		     last_action_at = $5, last_recheck_at = $6, resolved_at = $7, dismissed_at = $8
		 WHERE id = $1`,
		issue.ID.Int64(), string(issue.Status), issue.RecheckPending, issue.DismissReason,
		issue.LastActionAt, issue.LastRecheck, issue.ResolvedAt, issue.DismissedAt,
	)
	if err != nil {
		return fmt.Errorf("update issue: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update issue rows: %w", err)
	}
	if affected == 0 {
		return dErrors.Newf(dErrors.CodeNotFound, "issue %d not found", issue.ID.Int64())
	}
	return nil
}

// ListByApplication implements Store.
func (s *PostgresStore) ListByApplication(ctx context.Context, appID id.ApplicationID) ([]*IssueResolution, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, application_id, rule_id, status, recheck_pending, message, missing_fields,
		        dismiss_reason, created_at, last_action_at, last_recheck_at, resolved_at, dismissed_at
		 FROM issue_resolutions WHERE application_id = $1 ORDER BY id`,
		appID.Int64(),
	)
	if err != nil {
		return nil, fmt.Errorf("list issues: %w", err)
	}
	defer rows.Close()

	var out []*IssueResolution
	for rows.Next() {
		issue, err := scanIssue(rows)
		if err != nil {
			return nil, fmt.Errorf("scan issue: %w", err)
		}
		out = append(out, issue)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate issues: %w", err)
	}
	return out, nil
}

// scanTarget is satisfied by both *sql.Row and *sql.Rows.
type scanTarget interface {
	Scan(dest ...any) error
}

func scanIssue(row scanTarget) (*IssueResolution, error) {
	var issue IssueResolution
	var missing pq.StringArray
	var lastAction, lastRecheck, resolved, dismissed sql.NullTime
	err := row.Scan(
		&issue.ID, &issue.ApplicationID, &issue.RuleID, &issue.Status, &issue.RecheckPending,
		&issue.Message, &missing, &issue.DismissReason, &issue.CreatedAt,
		&lastAction, &lastRecheck, &resolved, &dismissed,
	)
	if err != nil {
		return nil, err
	}
	issue.MissingFields = []string(missing)
	if lastAction.Valid {
		issue.LastActionAt = &lastAction.Time
	}
	if lastRecheck.Valid {
		issue.LastRecheck = &lastRecheck.Time
	}
	if resolved.Valid {
		issue.ResolvedAt = &resolved.Time
	}
	if dismissed.Valid {
		issue.DismissedAt = &dismissed.Time
	}
	return &issue, nil
}

// AppendAction implements Store.
func (s *PostgresStore) AppendAction(ctx context.Context, action *ResolutionAction) error {
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO resolution_actions (issue_id, action_type, actor, payload, at)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		action.IssueID.Int64(), string(action.Type), action.Actor, action.Payload, action.At,
	).Scan(&action.ID)
	if err != nil {
		return fmt.Errorf("insert resolution action: %w", err)
	}
	return nil
}

// ListActions implements Store.
func (s *PostgresStore) ListActions(ctx context.Context, issueID id.IssueID) ([]*ResolutionAction, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, issue_id, action_type, actor, payload, at
		 FROM resolution_actions WHERE issue_id = $1 ORDER BY id`,
		issueID.Int64(),
	)
	if err != nil {
		return nil, fmt.Errorf("list resolution actions: %w", err)
	}
	defer rows.Close()

	var out []*ResolutionAction
	for rows.Next() {
		var a ResolutionAction
		if err := rows.Scan(&a.ID, &a.IssueID, &a.Type, &a.Actor, &a.Payload, &a.At); err != nil {
			return nil, fmt.Errorf("scan resolution action: %w", err)
		}
		out = append(out, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate resolution actions: %w", err)
	}
	return out, nil
}

// AppendRecheck implements Store.
func (s *PostgresStore) AppendRecheck(ctx context.Context, recheck *RecheckHistory) error {
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO recheck_history (issue_id, previous_status, new_status, outcome, trigger_source, at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id`,
		recheck.IssueID.Int64(), string(recheck.PreviousStatus), string(recheck.NewStatus),
		string(recheck.Outcome), string(recheck.Trigger), recheck.At,
	).Scan(&recheck.ID)
	if err != nil {
		return fmt.Errorf("insert recheck: %w", err)
	}
	return nil
}

// ListRechecks implements Store.
func (s *PostgresStore) ListRechecks(ctx context.Context, issueID id.IssueID) ([]*RecheckHistory, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, issue_id, previous_status, new_status, outcome, trigger_source, at
		 FROM recheck_history WHERE issue_id = $1 ORDER BY id`,
		issueID.Int64(),
	)
	if err != nil {
		return nil, fmt.Errorf("list rechecks: %w", err)
	}
	defer rows.Close()

	var out []*RecheckHistory
	for rows.Next() {
		var r RecheckHistory
		if err := rows.Scan(&r.ID, &r.IssueID, &r.PreviousStatus, &r.NewStatus, &r.Outcome, &r.Trigger, &r.At); err != nil {
			return nil, fmt.Errorf("scan recheck: %w", err)
		}
		out = append(out, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rechecks: %w", err)
	}
	return out, nil
}

// AddDependency implements Store.
func (s *PostgresStore) AddDependency(ctx context.Context, dep IssueDependency) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO issue_dependencies (issue_id, depends_on_issue_id, dependency_type)
		 VALUES ($1, $2, $3)`,
		dep.IssueID.Int64(), dep.DependsOnIssueID.Int64(), string(dep.Type),
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			switch pqErr.Code.Name() {
			case "unique_violation":
				return dErrors.New(dErrors.CodeConflict, "dependency already exists")
			case "foreign_key_violation":
				return dErrors.New(dErrors.CodeNotFound, "issue not found")
			}
		}
		return fmt.Errorf("insert dependency: %w", err)
	}
	return nil
}

// ListDependencies implements Store.
func (s *PostgresStore) ListDependencies(ctx context.Context, issueID id.IssueID) ([]IssueDependency, error) {
	return s.listEdges(ctx, `issue_id`, issueID)
}

// ListDependents implements Store.
func (s *PostgresStore) ListDependents(ctx context.Context, issueID id.IssueID) ([]IssueDependency, error) {
	return s.listEdges(ctx, `depends_on_issue_id`, issueID)
}

func (s *PostgresStore) listEdges(ctx context.Context, column string, issueID id.IssueID) ([]IssueDependency, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT issue_id, depends_on_issue_id, dependency_type
		 FROM issue_dependencies WHERE `+column+` = $1`,
		issueID.Int64(),
	)
	if err != nil {
		return nil, fmt.Errorf("list dependencies: %w", err)
	}
	defer rows.Close()

	var out []IssueDependency
	for rows.Next() {
		var dep IssueDependency
		if err := rows.Scan(&dep.IssueID, &dep.DependsOnIssueID, &dep.Type); err != nil {
			return nil, fmt.Errorf("scan dependency: %w", err)
		}
		out = append(out, dep)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate dependencies: %w", err)
	}
	return out, nil
}
