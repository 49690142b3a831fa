package delta

import (
	"context"
	"log/slog"
	"sort"
	"strconv"

	"plancheck/internal/extraction"
	"plancheck/internal/platform/metrics"
	id "plancheck/pkg/domain"
	dErrors "plancheck/pkg/domain-errors"
	"plancheck/pkg/requestcontext"
)

// FieldImpactFunc reports the strongest catalog impact score for a field.
// The dependency graph provides this; the engine only needs the number.
type FieldImpactFunc func(field string) float64

// Engine computes changesets between submission versions. Computation is
// single-pass and single-threaded per pair; idempotency is keyed on the
// (parent, child) pair in the changeset store.
type Engine struct {
	submissions SubmissionStore
	changesets  ChangeSetStore
	fieldImpact FieldImpactFunc
	logger      *slog.Logger
	metrics     *metrics.Metrics
}

// NewEngine constructs a delta engine.
func NewEngine(submissions SubmissionStore, changesets ChangeSetStore, fieldImpact FieldImpactFunc, logger *slog.Logger, m *metrics.Metrics) (*Engine, error) {
	if submissions == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "submission store is required")
	}
	if changesets == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "changeset store is required")
	}
	if fieldImpact == nil {
		fieldImpact = func(string) float64 { return 0 }
	}
	return &Engine{
		submissions: submissions,
		changesets:  changesets,
		fieldImpact: fieldImpact,
		logger:      logger,
		metrics:     m,
	}, nil
}

// ComputeChangeSet diffs parent and child and persists the result.
//
// Idempotent: when a changeset already exists for the pair, its id is
// returned without recomputation. A missing submission is fatal to the
// operation and persists nothing.
func (e *Engine) ComputeChangeSet(ctx context.Context, parentID, childID id.SubmissionID) (*ChangeSet, error) {
	if existing, err := e.changesets.FindByPair(ctx, parentID, childID); err != nil {
		return nil, err
	} else if existing != nil {
		return existing, nil
	}

	parent, err := e.submissions.GetVersion(ctx, parentID)
	if err != nil {
		return nil, err
	}
	child, err := e.submissions.GetVersion(ctx, childID)
	if err != nil {
		return nil, err
	}

	cs := &ChangeSet{
		ParentID:  parentID,
		ChildID:   childID,
		CreatedAt: requestcontext.Now(ctx),
	}
	cs.Items = append(cs.Items, e.fieldDelta(parent.Fields, child.Fields)...)
	cs.Items = append(cs.Items, documentDelta(parent.Documents, child.Documents)...)
	cs.Items = append(cs.Items, spatialDelta(parent.Spatial, child.Spatial)...)

	// Significance is the max, never the mean: one critical change must not
	// be diluted by many trivial ones.
	for _, item := range cs.Items {
		if item.Score > cs.SignificanceScore {
			cs.SignificanceScore = item.Score
		}
	}
	cs.RequiresValidation = verdict(cs.SignificanceScore)

	csID, err := e.changesets.Create(ctx, cs)
	if err != nil {
		// A concurrent computation may have won the pair; return its result.
		if dErrors.IsCode(err, dErrors.CodeConflict) {
			return e.changesets.FindByPair(ctx, parentID, childID)
		}
		return nil, err
	}
	cs.ID = csID

	if e.metrics != nil {
		e.metrics.ChangeSetsComputed.Inc()
		e.metrics.ChangeSetSignificance.Observe(cs.SignificanceScore)
	}
	if e.logger != nil {
		e.logger.InfoContext(ctx, "changeset computed",
			"parent_id", parentID.Int64(),
			"child_id", childID.Int64(),
			"changeset_id", csID.Int64(),
			"items", len(cs.Items),
			"significance", cs.SignificanceScore,
			"requires_validation", cs.RequiresValidation,
		)
	}
	return cs, nil
}

func verdict(score float64) RequiresValidation {
	switch {
	case score > thresholdFull:
		return ValidationYes
	case score > thresholdPartial:
		return ValidationPartial
	default:
		return ValidationNo
	}
}

// fieldDelta diffs name->value maps over the union of keys.
func (e *Engine) fieldDelta(parent, child map[string]string) []ChangeItem {
	var items []ChangeItem
	for _, key := range unionKeys(parent, child) {
		oldVal, inParent := parent[key]
		newVal, inChild := child[key]
		switch {
		case !inParent:
			items = append(items, ChangeItem{Type: ChangeTypeField, Action: ActionAdded, Key: key, NewValue: newVal, Score: e.fieldScore(key)})
		case !inChild:
			items = append(items, ChangeItem{Type: ChangeTypeField, Action: ActionRemoved, Key: key, OldValue: oldVal, Score: e.fieldScore(key)})
		case oldVal != newVal:
			items = append(items, ChangeItem{Type: ChangeTypeField, Action: ActionModified, Key: key, OldValue: oldVal, NewValue: newVal, Score: e.fieldScore(key)})
		}
	}
	return items
}

// fieldScore maps catalog impact onto the fixed significance lookup.
func (e *Engine) fieldScore(field string) float64 {
	impact := e.fieldImpact(field)
	switch {
	case impact >= 0.8:
		return scoreFieldHigh
	case impact >= 0.5:
		return scoreFieldMedium
	default:
		return scoreFieldOther
	}
}

// documentDelta matches documents across versions by content hash, not
// filename. A document type present in both versions with a fully disjoint
// hash set collapses to a single replaced item per type to avoid noise.
func documentDelta(parent, child []extraction.DocumentRef) []ChangeItem {
	parentByType := hashesByType(parent)
	childByType := hashesByType(child)

	var items []ChangeItem
	for _, docType := range unionKeys(parentByType, childByType) {
		pHashes := parentByType[docType]
		cHashes := childByType[docType]

		switch {
		case len(pHashes) == 0:
			for _, h := range sortedKeys(cHashes) {
				items = append(items, ChangeItem{Type: ChangeTypeDocument, Action: ActionAdded, Key: docType, NewValue: h, Score: scoreDocAddedRem})
			}
		case len(cHashes) == 0:
			for _, h := range sortedKeys(pHashes) {
				items = append(items, ChangeItem{Type: ChangeTypeDocument, Action: ActionRemoved, Key: docType, OldValue: h, Score: scoreDocAddedRem})
			}
		case disjoint(pHashes, cHashes):
			items = append(items, ChangeItem{
				Type:     ChangeTypeDocument,
				Action:   ActionReplaced,
				Key:      docType,
				OldValue: strconv.Itoa(len(pHashes)) + " document(s)",
				NewValue: strconv.Itoa(len(cHashes)) + " document(s)",
				Score:    scoreDocReplaced,
			})
		default:
			// Partial overlap: report only the individual hash differences.
			for _, h := range sortedKeys(cHashes) {
				if !pHashes[h] {
					items = append(items, ChangeItem{Type: ChangeTypeDocument, Action: ActionAdded, Key: docType, NewValue: h, Score: scoreDocAddedRem})
				}
			}
			for _, h := range sortedKeys(pHashes) {
				if !cHashes[h] {
					items = append(items, ChangeItem{Type: ChangeTypeDocument, Action: ActionRemoved, Key: docType, OldValue: h, Score: scoreDocAddedRem})
				}
			}
		}
	}
	return items
}

// spatialDelta diffs the flattened feature_type+metric_name map. Computed
// only when spatial data exists on either side.
func spatialDelta(parent, child []SpatialMetric) []ChangeItem {
	if len(parent) == 0 && len(child) == 0 {
		return nil
	}
	pm := flattenSpatial(parent)
	cm := flattenSpatial(child)

	var items []ChangeItem
	for _, key := range unionKeys(pm, cm) {
		oldVal, inParent := pm[key]
		newVal, inChild := cm[key]
		switch {
		case !inParent:
			items = append(items, ChangeItem{Type: ChangeTypeSpatial, Action: ActionAdded, Key: key, NewValue: formatMetric(newVal), Score: scoreSpatial})
		case !inChild:
			items = append(items, ChangeItem{Type: ChangeTypeSpatial, Action: ActionRemoved, Key: key, OldValue: formatMetric(oldVal), Score: scoreSpatial})
		case oldVal != newVal:
			items = append(items, ChangeItem{Type: ChangeTypeSpatial, Action: ActionModified, Key: key, OldValue: formatMetric(oldVal), NewValue: formatMetric(newVal), Score: scoreSpatial})
		}
	}
	return items
}

func flattenSpatial(metrics []SpatialMetric) map[string]float64 {
	out := make(map[string]float64, len(metrics))
	for _, m := range metrics {
		out[m.FeatureType+"."+m.MetricName] = m.Value
	}
	return out
}

func formatMetric(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func hashesByType(docs []extraction.DocumentRef) map[string]map[string]bool {
	out := make(map[string]map[string]bool)
	for _, d := range docs {
		if out[d.Type] == nil {
			out[d.Type] = make(map[string]bool)
		}
		out[d.Type][d.ContentHash] = true
	}
	return out
}

func disjoint(a, b map[string]bool) bool {
	for h := range a {
		if b[h] {
			return false
		}
	}
	return true
}

func unionKeys[V any](a, b map[string]V) []string {
	seen := make(map[string]bool, len(a)+len(b))
	for k := range a {
		seen[k] = true
	}
	for k := range b {
		seen[k] = true
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
