// Package catalog models the business-rule catalog: parsing human-authored
// rule text into immutable Rule records and compiling them to the stable
// machine-readable exchange document.
package catalog

import (
	id "plancheck/pkg/domain"
	dErrors "plancheck/pkg/domain-errors"
)

// Severity grades how a failed rule affects the submission.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// validSeverities is the single source of truth for valid severities.
var validSeverities = map[Severity]bool{
	SeverityError:   true,
	SeverityWarning: true,
}

// IsValid checks if the severity is one of the supported enum values.
func (s Severity) IsValid() bool { return validSeverities[s] }

// Category selects the validator a rule dispatches to.
// Invariant: the value must be one of the supported categories.
//
// Usage: construct via ParseCategory at trust boundaries to enforce the
// allowlist; direct casting bypasses validation.
type Category string

const (
	CategoryFieldRequired      Category = "field-required"
	CategoryDocumentRequired   Category = "document-required"
	CategoryConsistency        Category = "consistency"
	CategoryModification       Category = "modification"
	CategorySpatial            Category = "spatial"
	CategoryFee                Category = "fee"
	CategoryOwnership          Category = "ownership"
	CategoryPriorApproval      Category = "prior-approval"
	CategoryConstraint         Category = "constraint"
	CategoryBiodiversityOffset Category = "biodiversity-offset"
	CategoryPlanQuality        Category = "plan-quality"
)

// validCategories is the single source of truth for valid categories.
var validCategories = map[Category]bool{
	CategoryFieldRequired:      true,
	CategoryDocumentRequired:   true,
	CategoryConsistency:        true,
	CategoryModification:       true,
	CategorySpatial:            true,
	CategoryFee:                true,
	CategoryOwnership:          true,
	CategoryPriorApproval:      true,
	CategoryConstraint:         true,
	CategoryBiodiversityOffset: true,
	CategoryPlanQuality:        true,
}

// ParseCategory constructs a Category from external input.
func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if !c.IsValid() {
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "invalid rule category %q", s)
	}
	return c, nil
}

// IsValid checks if the category is one of the supported enum values.
func (c Category) IsValid() bool { return validCategories[c] }

// String returns the string representation of the category.
func (c Category) String() string { return string(c) }

// ImpactLevel weights how strongly a field change bears on a rule.
type ImpactLevel string

const (
	ImpactCritical ImpactLevel = "critical"
	ImpactHigh     ImpactLevel = "high"
	ImpactMedium   ImpactLevel = "medium"
	ImpactLow      ImpactLevel = "low"
)

// impactScores maps impact levels onto the [0,1] seeding scale.
var impactScores = map[ImpactLevel]float64{
	ImpactCritical: 1.0,
	ImpactHigh:     0.8,
	ImpactMedium:   0.5,
	ImpactLow:      0.2,
}

// Score returns the numeric seeding weight for the impact level.
// Unknown levels score zero.
func (l ImpactLevel) Score() float64 { return impactScores[l] }

// IsValid checks if the impact level is one of the supported enum values.
func (l ImpactLevel) IsValid() bool {
	_, ok := impactScores[l]
	return ok
}

// Evidence describes where a rule expects supporting material to appear.
type Evidence struct {
	// SourceTypes are candidate document types, e.g. "site_plan".
	// Defaults to ["unknown"] when the author gave no Evidence line.
	SourceTypes []string
	// Keywords hint at full-text matches backing the rule.
	Keywords []string
	// MinConfidence is the extraction confidence a field value must carry
	// before the rule trusts it. Zero means no floor.
	MinConfidence float64
}

// Rule is one immutable catalog entry. Loaded once per run; never mutated.
type Rule struct {
	ID          id.RuleID
	Title       string
	Description string

	// RequiredFields are checked with AND semantics unless RequiredFieldsAny
	// is set, which switches to OR.
	RequiredFields    []string
	RequiredFieldsAny bool

	Evidence Evidence
	Severity Severity
	Category Category

	// AppliesTo tags scope the rule to application types.
	AppliesTo []string

	// DependentFields weight how strongly a changed field implicates this
	// rule during targeted revalidation.
	DependentFields map[string]ImpactLevel

	// TriggersRules cascade unconditionally once this rule is re-evaluated.
	TriggersRules []id.RuleID
}

// Catalog is an immutable, ordered collection of rules with id lookup.
// Construct once, share by reference; all reads are concurrency-safe.
type Catalog struct {
	rules []Rule
	byID  map[id.RuleID]int
}

// NewCatalog builds a catalog from parsed rules, rejecting duplicate ids.
func NewCatalog(rules []Rule) (*Catalog, error) {
	byID := make(map[id.RuleID]int, len(rules))
	for i, r := range rules {
		if r.ID == "" {
			return nil, dErrors.New(dErrors.CodeInvalidInput, "rule with empty id")
		}
		if _, dup := byID[r.ID]; dup {
			return nil, dErrors.Newf(dErrors.CodeConflict, "duplicate rule id %q", r.ID)
		}
		byID[r.ID] = i
	}
	return &Catalog{rules: append([]Rule(nil), rules...), byID: byID}, nil
}

// Rules returns the rules in catalog order. Callers must not mutate entries.
func (c *Catalog) Rules() []Rule { return c.rules }

// Get looks up a rule by id.
func (c *Catalog) Get(ruleID id.RuleID) (Rule, bool) {
	i, ok := c.byID[ruleID]
	if !ok {
		return Rule{}, false
	}
	return c.rules[i], true
}

// Len reports the number of rules.
func (c *Catalog) Len() int { return len(c.rules) }
