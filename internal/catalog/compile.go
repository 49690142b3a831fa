package catalog

import (
	"encoding/json"
	"fmt"

	id "plancheck/pkg/domain"
)

// compiledVersion is bumped when the exchange document shape changes.
const compiledVersion = "1"

// CompiledRule is the wire shape of one rule in the exchange document.
type CompiledRule struct {
	RuleID            string                 `json:"rule_id"`
	Title             string                 `json:"title"`
	Description       string                 `json:"description,omitempty"`
	RequiredFields    []string               `json:"required_fields,omitempty"`
	RequiredFieldsAny bool                   `json:"required_fields_any,omitempty"`
	Evidence          CompiledEvidence       `json:"evidence"`
	Severity          string                 `json:"severity"`
	Category          string                 `json:"category"`
	AppliesTo         []string               `json:"applies_to,omitempty"`
	DependentFields   map[string]ImpactLevel `json:"dependent_fields,omitempty"`
	TriggersRules     []string               `json:"triggers_rules,omitempty"`
}

// CompiledEvidence is the wire shape of a rule's evidence expectation.
type CompiledEvidence struct {
	SourceTypes   []string `json:"source_types"`
	Keywords      []string `json:"keywords,omitempty"`
	MinConfidence float64  `json:"min_confidence,omitempty"`
}

// Compiled is the stable machine-readable catalog document. It is the
// contract between catalog authors and the engine; no other wire format
// is supported.
type Compiled struct {
	Version   string         `json:"version"`
	Source    string         `json:"source"`
	RuleCount int            `json:"rule_count"`
	Rules     []CompiledRule `json:"rules"`
}

// Compile renders the catalog to its exchange document.
func Compile(c *Catalog, source string) Compiled {
	out := Compiled{
		Version:   compiledVersion,
		Source:    source,
		RuleCount: c.Len(),
		Rules:     make([]CompiledRule, 0, c.Len()),
	}
	for _, r := range c.Rules() {
		cr := CompiledRule{
			RuleID:            r.ID.String(),
			Title:             r.Title,
			Description:       r.Description,
			RequiredFields:    r.RequiredFields,
			RequiredFieldsAny: r.RequiredFieldsAny,
			Evidence: CompiledEvidence{
				SourceTypes:   r.Evidence.SourceTypes,
				Keywords:      r.Evidence.Keywords,
				MinConfidence: r.Evidence.MinConfidence,
			},
			Severity:        string(r.Severity),
			Category:        string(r.Category),
			AppliesTo:       r.AppliesTo,
			DependentFields: r.DependentFields,
		}
		for _, t := range r.TriggersRules {
			cr.TriggersRules = append(cr.TriggersRules, t.String())
		}
		out.Rules = append(out.Rules, cr)
	}
	return out
}

// MarshalCompiled serializes the exchange document.
func MarshalCompiled(c Compiled) ([]byte, error) {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal compiled catalog: %w", err)
	}
	return data, nil
}

// LoadCompiled reconstructs an immutable catalog from an exchange document.
func LoadCompiled(data []byte) (*Catalog, error) {
	var doc Compiled
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal compiled catalog: %w", err)
	}

	rules := make([]Rule, 0, len(doc.Rules))
	for _, cr := range doc.Rules {
		r := Rule{
			ID:                id.RuleID(cr.RuleID),
			Title:             cr.Title,
			Description:       cr.Description,
			RequiredFields:    cr.RequiredFields,
			RequiredFieldsAny: cr.RequiredFieldsAny,
			Evidence: Evidence{
				SourceTypes:   cr.Evidence.SourceTypes,
				Keywords:      cr.Evidence.Keywords,
				MinConfidence: cr.Evidence.MinConfidence,
			},
			Severity:        Severity(cr.Severity),
			Category:        Category(cr.Category),
			AppliesTo:       cr.AppliesTo,
			DependentFields: cr.DependentFields,
		}
		for _, t := range cr.TriggersRules {
			r.TriggersRules = append(r.TriggersRules, id.RuleID(t))
		}
		applyDefaults(&r)
		rules = append(rules, r)
	}
	return NewCatalog(rules)
}
