package delta

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"plancheck/internal/extraction"
	id "plancheck/pkg/domain"
	dErrors "plancheck/pkg/domain-errors"
)

// PostgresStore persists submission versions and changesets in PostgreSQL.
// Schema lives in migrations/schema.sql.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore constructs a PostgreSQL-backed delta store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// GetVersion implements SubmissionStore.
func (s *PostgresStore) GetVersion(ctx context.Context, submissionID id.SubmissionID) (*SubmissionVersion, error) {
	v := &SubmissionVersion{ID: submissionID, Fields: make(map[string]string)}

	err := s.db.QueryRowContext(ctx,
		`SELECT application_id FROM submission_versions WHERE id = $1`,
		submissionID.Int64(),
	).Scan(&v.ApplicationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, dErrors.Newf(dErrors.CodeNotFound, "submission %d not found", submissionID.Int64())
		}
		return nil, fmt.Errorf("get submission version: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT name, value FROM extracted_fields WHERE submission_id = $1`,
		submissionID.Int64(),
	)
	if err != nil {
		return nil, fmt.Errorf("load extracted fields: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return nil, fmt.Errorf("scan extracted field: %w", err)
		}
		v.Fields[name] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate extracted fields: %w", err)
	}

	docRows, err := s.db.QueryContext(ctx,
		`SELECT doc_type, content_hash, COALESCE(filename, '') FROM submission_documents WHERE submission_id = $1`,
		submissionID.Int64(),
	)
	if err != nil {
		return nil, fmt.Errorf("load documents: %w", err)
	}
	defer docRows.Close()
	for docRows.Next() {
		var d extraction.DocumentRef
		if err := docRows.Scan(&d.Type, &d.ContentHash, &d.Filename); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		v.Documents = append(v.Documents, d)
	}
	if err := docRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}

	spatialRows, err := s.db.QueryContext(ctx,
		`SELECT feature_type, metric_name, value FROM spatial_metrics WHERE submission_id = $1`,
		submissionID.Int64(),
	)
	if err != nil {
		return nil, fmt.Errorf("load spatial metrics: %w", err)
	}
	defer spatialRows.Close()
	for spatialRows.Next() {
		var m SpatialMetric
		if err := spatialRows.Scan(&m.FeatureType, &m.MetricName, &m.Value); err != nil {
			return nil, fmt.Errorf("scan spatial metric: %w", err)
		}
		v.Spatial = append(v.Spatial, m)
	}
	if err := spatialRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate spatial metrics: %w", err)
	}

	return v, nil
}

// FindByPair implements ChangeSetStore.
func (s *PostgresStore) FindByPair(ctx context.Context, parentID, childID id.SubmissionID) (*ChangeSet, error) {
	cs := &ChangeSet{ParentID: parentID, ChildID: childID}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, significance_score, requires_validation, created_at
		 FROM change_sets WHERE parent_id = $1 AND child_id = $2`,
		parentID.Int64(), childID.Int64(),
	).Scan(&cs.ID, &cs.SignificanceScore, &cs.RequiresValidation, &cs.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find changeset by pair: %w", err)
	}
	if err := s.loadItems(ctx, cs); err != nil {
		return nil, err
	}
	return cs, nil
}

// Create implements ChangeSetStore. The set and its items persist in one
// transaction; a concurrent winner for the pair surfaces as CodeConflict.
func (s *PostgresStore) Create(ctx context.Context, cs *ChangeSet) (id.ChangeSetID, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin changeset tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var csID int64
	err = tx.QueryRowContext(ctx,
		`INSERT INTO change_sets (parent_id, child_id, significance_score, requires_validation, created_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (parent_id, child_id) DO NOTHING
		 RETURNING id`,
		cs.ParentID.Int64(), cs.ChildID.Int64(), cs.SignificanceScore, string(cs.RequiresValidation), cs.CreatedAt,
	).Scan(&csID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, dErrors.New(dErrors.CodeConflict, "changeset already exists for pair")
		}
		return 0, fmt.Errorf("insert changeset: %w", err)
	}

	for i, item := range cs.Items {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO change_items (change_set_id, position, change_type, action, key, old_value, new_value, score)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			csID, i, string(item.Type), string(item.Action), item.Key, item.OldValue, item.NewValue, item.Score,
		)
		if err != nil {
			return 0, fmt.Errorf("insert change item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit changeset tx: %w", err)
	}
	return id.ChangeSetID(csID), nil
}

// GetByID implements ChangeSetStore.
func (s *PostgresStore) GetByID(ctx context.Context, changeSetID id.ChangeSetID) (*ChangeSet, error) {
	cs := &ChangeSet{ID: changeSetID}
	err := s.db.QueryRowContext(ctx,
		`SELECT parent_id, child_id, significance_score, requires_validation, created_at
		 FROM change_sets WHERE id = $1`,
		changeSetID.Int64(),
	).Scan(&cs.ParentID, &cs.ChildID, &cs.SignificanceScore, &cs.RequiresValidation, &cs.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, dErrors.Newf(dErrors.CodeNotFound, "changeset %d not found", changeSetID.Int64())
		}
		return nil, fmt.Errorf("get changeset: %w", err)
	}
	if err := s.loadItems(ctx, cs); err != nil {
		return nil, err
	}
	return cs, nil
}

func (s *PostgresStore) loadItems(ctx context.Context, cs *ChangeSet) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT change_type, action, key, old_value, new_value, score
		 FROM change_items WHERE change_set_id = $1 ORDER BY position`,
		cs.ID.Int64(),
	)
	if err != nil {
		return fmt.Errorf("load change items: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var item ChangeItem
		if err := rows.Scan(&item.Type, &item.Action, &item.Key, &item.OldValue, &item.NewValue, &item.Score); err != nil {
			return fmt.Errorf("scan change item: %w", err)
		}
		cs.Items = append(cs.Items, item)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate change items: %w", err)
	}
	return nil
}
