// Package delta diffs two submission versions into a scored ChangeSet and
// decides whether the amendment needs full, targeted, or no revalidation.
package delta

import (
	"time"

	"plancheck/internal/extraction"
	id "plancheck/pkg/domain"
)

// ChangeType classifies what kind of entity a ChangeItem touches.
type ChangeType string

const (
	ChangeTypeField    ChangeType = "field"
	ChangeTypeDocument ChangeType = "document"
	ChangeTypeSpatial  ChangeType = "spatial-metric"
)

// ChangeAction classifies how the entity differs between versions.
type ChangeAction string

const (
	ActionAdded    ChangeAction = "added"
	ActionRemoved  ChangeAction = "removed"
	ActionModified ChangeAction = "modified"
	ActionReplaced ChangeAction = "replaced"
)

// RequiresValidation is the revalidation verdict derived from significance.
type RequiresValidation string

const (
	ValidationYes     RequiresValidation = "yes"
	ValidationPartial RequiresValidation = "partial"
	ValidationNo      RequiresValidation = "no"
)

// Per-item significance scores. A fixed lookup, not a learned model.
const (
	scoreFieldHigh   = 0.9
	scoreFieldMedium = 0.5
	scoreFieldOther  = 0.2
	scoreDocReplaced = 0.6
	scoreDocAddedRem = 0.4
	scoreSpatial     = 0.7
)

// Verdict thresholds over the changeset significance score.
const (
	thresholdFull    = 0.3
	thresholdPartial = 0.1
)

// ChangeItem is one atomic difference between a submission and its parent.
// Each item belongs to exactly one ChangeSet.
type ChangeItem struct {
	Type     ChangeType
	Action   ChangeAction
	Key      string // field name, document type, or feature_type+metric_name
	OldValue string
	NewValue string
	Score    float64
}

// ChangeSet owns the ordered differences for one (parent, child) pair.
// Immutable after creation; significance is the maximum of its items'
// scores so one critical change is never diluted by many trivial ones.
type ChangeSet struct {
	ID                 id.ChangeSetID
	ParentID           id.SubmissionID
	ChildID            id.SubmissionID
	Items              []ChangeItem
	SignificanceScore  float64
	RequiresValidation RequiresValidation
	CreatedAt          time.Time
}

// ChangedFields returns the names of fields touched by this changeset, for
// dependency-graph expansion.
func (cs *ChangeSet) ChangedFields() []string {
	var out []string
	for _, item := range cs.Items {
		if item.Type == ChangeTypeField {
			out = append(out, item.Key)
		}
	}
	return out
}

// SpatialMetric is one flattened spatial measurement on a submission version.
type SpatialMetric struct {
	FeatureType string
	MetricName  string
	Value       float64
}

// SubmissionVersion is the repository view of one version's extracted state.
type SubmissionVersion struct {
	ID            id.SubmissionID
	ApplicationID id.ApplicationID
	Fields        map[string]string
	Documents     []extraction.DocumentRef
	Spatial       []SpatialMetric
}
