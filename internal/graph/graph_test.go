package graph

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"plancheck/internal/catalog"
	id "plancheck/pkg/domain"
)

type GraphSuite struct {
	suite.Suite
}

func TestGraphSuite(t *testing.T) {
	suite.Run(t, new(GraphSuite))
}

func (s *GraphSuite) build(rules ...catalog.Rule) *DependencyGraph {
	cat, err := catalog.NewCatalog(rules)
	s.Require().NoError(err)
	return New(cat)
}

func (s *GraphSuite) TestSeedPhase() {
	g := s.build(
		catalog.Rule{ID: "R1", DependentFields: map[string]catalog.ImpactLevel{"site_address": catalog.ImpactCritical}},
		catalog.Rule{ID: "R2", DependentFields: map[string]catalog.ImpactLevel{"site_address": catalog.ImpactLow}},
		catalog.Rule{ID: "R3", RequiredFields: []string{"site_address"}},
	)

	s.Run("impact at or above threshold seeds the rule", func() {
		got := g.ImpactedRules([]string{"site_address"}, 0.5)
		s.Equal([]id.RuleID{"R1", "R3"}, got)
	})

	s.Run("low impact passes a low threshold", func() {
		got := g.ImpactedRules([]string{"site_address"}, 0.2)
		s.Equal([]id.RuleID{"R1", "R2", "R3"}, got)
	})

	s.Run("legacy required field assumes medium impact", func() {
		got := g.ImpactedRules([]string{"site_address"}, 0.6)
		s.Equal([]id.RuleID{"R1"}, got)
	})

	s.Run("unrelated field seeds nothing", func() {
		s.Empty(g.ImpactedRules([]string{"roof_height"}, 0.2))
	})
}

func (s *GraphSuite) TestCascadePhase() {
	g := s.build(
		catalog.Rule{
			ID:              "R1",
			DependentFields: map[string]catalog.ImpactLevel{"fee_amount": catalog.ImpactHigh},
			TriggersRules:   []id.RuleID{"R2"},
		},
		catalog.Rule{ID: "R2", TriggersRules: []id.RuleID{"R3"}},
		catalog.Rule{ID: "R3"},
		catalog.Rule{ID: "R4"},
	)

	s.Run("cascade is closed over triggers regardless of field dependencies", func() {
		got := g.ImpactedRules([]string{"fee_amount"}, 0.5)
		s.Equal([]id.RuleID{"R1", "R2", "R3"}, got)
	})

	s.Run("unseeded rules never cascade", func() {
		s.Empty(g.ImpactedRules([]string{"fee_amount"}, 0.9))
	})
}

func (s *GraphSuite) TestCascadeTerminatesOnCycles() {
	g := s.build(
		catalog.Rule{
			ID:              "R1",
			DependentFields: map[string]catalog.ImpactLevel{"x": catalog.ImpactCritical},
			TriggersRules:   []id.RuleID{"R2"},
		},
		catalog.Rule{ID: "R2", TriggersRules: []id.RuleID{"R1"}},
	)
	got := g.ImpactedRules([]string{"x"}, 0.5)
	s.Equal([]id.RuleID{"R1", "R2"}, got)
}

func (s *GraphSuite) TestFieldImpact() {
	g := s.build(
		catalog.Rule{ID: "R1", DependentFields: map[string]catalog.ImpactLevel{"site_address": catalog.ImpactMedium}},
		catalog.Rule{ID: "R2", DependentFields: map[string]catalog.ImpactLevel{"site_address": catalog.ImpactCritical}},
	)
	s.InDelta(1.0, g.FieldImpact("site_address"), 1e-9)
	s.InDelta(0.0, g.FieldImpact("unknown_field"), 1e-9)
}
