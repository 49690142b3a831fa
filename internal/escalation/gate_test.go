package escalation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"

	"plancheck/internal/validation"
	id "plancheck/pkg/domain"
)

// =============================================================================
// Escalation Gate Test Suite
// =============================================================================

type GateSuite struct {
	suite.Suite
	cache *InMemoryCache
	gate  *Gate
	appID id.ApplicationID
}

func TestGateSuite(t *testing.T) {
	suite.Run(t, new(GateSuite))
}

func (s *GateSuite) SetupTest() {
	s.cache = NewInMemoryCache()
	s.gate = NewGate(s.cache, 0.6, nil, nil)
	s.appID = id.ApplicationID(42)
}

func (s *GateSuite) TestPassNeverEscalates() {
	findings := []validation.Finding{
		{RuleID: "R1", Status: validation.StatusPass, Confidence: 1.0},
		// Low confidence does not override a pass.
		{RuleID: "R2", Status: validation.StatusPass, Confidence: 0.1},
	}
	d := s.gate.ShouldEscalate(context.Background(), s.appID, findings)
	s.False(d.Escalate)
	s.Empty(d.Findings)
}

func (s *GateSuite) TestFailEscalates() {
	findings := []validation.Finding{
		{RuleID: "R1", Status: validation.StatusPass, Confidence: 1.0},
		{RuleID: "R2", Status: validation.StatusFail, MissingFields: []string{"site_address"}},
	}
	d := s.gate.ShouldEscalate(context.Background(), s.appID, findings)
	s.True(d.Escalate)
	s.Require().Len(d.Findings, 1)
	s.Equal(id.RuleID("R2"), d.Findings[0].RuleID)
}

func (s *GateSuite) TestNeedsReviewEscalates() {
	findings := []validation.Finding{{RuleID: "R1", Status: validation.StatusNeedsReview}}
	s.True(s.gate.ShouldEscalate(context.Background(), s.appID, findings).Escalate)
}

func (s *GateSuite) TestSettledFieldsSuppressEscalation() {
	ctx := context.Background()
	s.Require().NoError(s.cache.MarkResolved(ctx, s.appID, "site_address"))

	findings := []validation.Finding{
		{RuleID: "R1", Status: validation.StatusFail, MissingFields: []string{"site_address"}},
	}
	d := s.gate.ShouldEscalate(ctx, s.appID, findings)
	s.False(d.Escalate)
	s.Equal(1, d.Suppressed)
}

func (s *GateSuite) TestPartiallySettledStillEscalates() {
	ctx := context.Background()
	s.Require().NoError(s.cache.MarkResolved(ctx, s.appID, "site_address"))

	findings := []validation.Finding{
		{RuleID: "R1", Status: validation.StatusFail, MissingFields: []string{"site_address", "applicant_name"}},
	}
	s.True(s.gate.ShouldEscalate(ctx, s.appID, findings).Escalate)
}

func (s *GateSuite) TestCacheIsApplicationScoped() {
	ctx := context.Background()
	s.Require().NoError(s.cache.MarkResolved(ctx, id.ApplicationID(99), "site_address"))

	findings := []validation.Finding{
		{RuleID: "R1", Status: validation.StatusFail, MissingFields: []string{"site_address"}},
	}
	s.True(s.gate.ShouldEscalate(ctx, s.appID, findings).Escalate)
}

func (s *GateSuite) TestInvalidateReopensEscalation() {
	ctx := context.Background()
	s.Require().NoError(s.cache.MarkResolved(ctx, s.appID, "site_address"))
	s.Require().NoError(s.cache.Invalidate(ctx, s.appID, "site_address"))

	findings := []validation.Finding{
		{RuleID: "R1", Status: validation.StatusFail, MissingFields: []string{"site_address"}},
	}
	s.True(s.gate.ShouldEscalate(ctx, s.appID, findings).Escalate)
}

func (s *GateSuite) TestFindingWithoutFieldsAlwaysEscalates() {
	// The cache can only vouch for named fields.
	findings := []validation.Finding{{RuleID: "R1", Status: validation.StatusFail}}
	s.True(s.gate.ShouldEscalate(context.Background(), s.appID, findings).Escalate)
}

func (s *GateSuite) TestCacheErrorFailsOpen() {
	gate := NewGate(failingCache{}, 0.6, nil, nil)
	findings := []validation.Finding{
		{RuleID: "R1", Status: validation.StatusFail, MissingFields: []string{"site_address"}},
	}
	s.True(gate.ShouldEscalate(context.Background(), s.appID, findings).Escalate)
}

func (s *GateSuite) TestEmptyFindingSet() {
	d := s.gate.ShouldEscalate(context.Background(), s.appID, nil)
	s.False(d.Escalate)
}

// failingCache simulates an unavailable backing store.
type failingCache struct{}

func (failingCache) IsResolved(context.Context, id.ApplicationID, string) (bool, error) {
	return false, errors.New("connection refused")
}
func (failingCache) MarkResolved(context.Context, id.ApplicationID, string) error {
	return errors.New("connection refused")
}
func (failingCache) Invalidate(context.Context, id.ApplicationID, string) error {
	return errors.New("connection refused")
}
