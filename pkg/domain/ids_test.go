package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "plancheck/pkg/domain-errors"
)

// TestParseRuleID_Invariants validates the parsing invariant:
// "rule ids are non-empty with no surrounding whitespace"
//
// Justification: ParseRuleID is a pure function enforcing a domain invariant
// at trust boundaries.
func TestParseRuleID_Invariants(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseRuleID("")
		require.Error(t, err)
		assert.True(t, dErrors.IsCode(err, dErrors.CodeValidation))
	})

	t.Run("rejects whitespace-only string", func(t *testing.T) {
		_, err := ParseRuleID("   ")
		require.Error(t, err)
	})

	t.Run("trims surrounding whitespace", func(t *testing.T) {
		ruleID, err := ParseRuleID("  R42  ")
		require.NoError(t, err)
		assert.Equal(t, RuleID("R42"), ruleID)
		assert.Equal(t, "R42", ruleID.String())
	})
}

// TestParseNumericIDs_Invariants validates the shared invariant of the
// integer-backed ids: "must parse as a positive integer".
func TestParseNumericIDs_Invariants(t *testing.T) {
	cases := []struct {
		name  string
		parse func(string) (int64, error)
	}{
		{"submission", func(s string) (int64, error) {
			v, err := ParseSubmissionID(s)
			return v.Int64(), err
		}},
		{"application", func(s string) (int64, error) {
			v, err := ParseApplicationID(s)
			return v.Int64(), err
		}},
		{"issue", func(s string) (int64, error) {
			v, err := ParseIssueID(s)
			return v.Int64(), err
		}},
		{"changeset", func(s string) (int64, error) {
			v, err := ParseChangeSetID(s)
			return v.Int64(), err
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Run("rejects empty string", func(t *testing.T) {
				_, err := tc.parse("")
				require.Error(t, err)
				assert.True(t, dErrors.IsCode(err, dErrors.CodeValidation))
			})

			t.Run("rejects zero", func(t *testing.T) {
				_, err := tc.parse("0")
				require.Error(t, err)
			})

			t.Run("rejects negative", func(t *testing.T) {
				_, err := tc.parse("-7")
				require.Error(t, err)
			})

			t.Run("rejects non-numeric", func(t *testing.T) {
				_, err := tc.parse("seven")
				require.Error(t, err)
			})

			t.Run("accepts positive integer with whitespace", func(t *testing.T) {
				v, err := tc.parse(" 42 ")
				require.NoError(t, err)
				assert.Equal(t, int64(42), v)
			})
		})
	}
}
