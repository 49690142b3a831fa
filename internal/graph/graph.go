// Package graph builds the rule dependency graph used for targeted
// re-evaluation. The graph is constructed once from a loaded catalog and is
// immutable afterwards, so impacted-rule lookups are pure and safe under
// concurrent reads.
package graph

import (
	"sort"

	"plancheck/internal/catalog"
	id "plancheck/pkg/domain"
)

// legacyRequiredImpact is assumed when a changed field is absent from a
// rule's dependent-fields map but present in its required-fields list.
const legacyRequiredImpact = 0.5

// DependencyGraph maps changed fields to directly and transitively impacted
// rules. Build once per catalog; never mutated after construction.
type DependencyGraph struct {
	rules    []catalog.Rule
	triggers map[id.RuleID][]id.RuleID
}

// New constructs the graph from a catalog.
func New(cat *catalog.Catalog) *DependencyGraph {
	g := &DependencyGraph{
		rules:    cat.Rules(),
		triggers: make(map[id.RuleID][]id.RuleID, cat.Len()),
	}
	for _, r := range g.rules {
		if len(r.TriggersRules) > 0 {
			g.triggers[r.ID] = r.TriggersRules
		}
	}
	return g
}

// ImpactedRules expands a set of changed field names into the rule ids that
// need re-evaluation, in two phases:
//
//  1. Seed: a rule is seeded when any changed field reaches it with an
//     impact score >= threshold (dependent-fields scale, or the legacy
//     required-fields fallback).
//  2. Cascade: breadth-first traversal over triggers_rules edges; every
//     reachable rule is included unconditionally. Triggering is binary,
//     not impact-weighted.
//
// The result is sorted by rule id for deterministic reporting. A visited
// set guarantees termination over catalogs containing trigger cycles.
func (g *DependencyGraph) ImpactedRules(changedFields []string, threshold float64) []id.RuleID {
	seeded := make(map[id.RuleID]bool)
	for _, r := range g.rules {
		for _, field := range changedFields {
			if g.fieldImpact(r, field) >= threshold {
				seeded[r.ID] = true
				break
			}
		}
	}

	// Cascade phase: BFS from every seeded rule.
	visited := make(map[id.RuleID]bool, len(seeded))
	queue := make([]id.RuleID, 0, len(seeded))
	for ruleID := range seeded {
		visited[ruleID] = true
		queue = append(queue, ruleID)
	}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, next := range g.triggers[current] {
			if visited[next] {
				continue
			}
			visited[next] = true
			queue = append(queue, next)
		}
	}

	out := make([]id.RuleID, 0, len(visited))
	for ruleID := range visited {
		out = append(out, ruleID)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// FieldImpact reports the strongest impact score any rule assigns to the
// field. The delta engine uses this to classify field-change significance.
func (g *DependencyGraph) FieldImpact(field string) float64 {
	var max float64
	for _, r := range g.rules {
		if score := g.fieldImpact(r, field); score > max {
			max = score
		}
	}
	return max
}

func (g *DependencyGraph) fieldImpact(r catalog.Rule, field string) float64 {
	if level, ok := r.DependentFields[field]; ok {
		return level.Score()
	}
	for _, required := range r.RequiredFields {
		if required == field {
			return legacyRequiredImpact
		}
	}
	return 0
}
