package domain

import (
	"strconv"
	"strings"
	"testing"
)

// FuzzParseIssueID checks that arbitrary input either parses to a positive
// id or returns an error, and never panics.
func FuzzParseIssueID(f *testing.F) {
	f.Add("1")
	f.Add("")
	f.Add("-3")
	f.Add("  42 ")
	f.Add("9223372036854775807")
	f.Add("not-a-number")

	f.Fuzz(func(t *testing.T, s string) {
		issueID, err := ParseIssueID(s)
		if err != nil {
			return
		}
		if issueID.Int64() <= 0 {
			t.Fatalf("ParseIssueID(%q) accepted non-positive value %d", s, issueID.Int64())
		}
		n, convErr := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if convErr != nil || n != issueID.Int64() {
			t.Fatalf("ParseIssueID(%q) = %d, does not round-trip", s, issueID.Int64())
		}
	})
}

// FuzzParseRuleID checks the trim invariant holds for arbitrary input.
func FuzzParseRuleID(f *testing.F) {
	f.Add("R1")
	f.Add("  R42 ")
	f.Add("")
	f.Add("\t\n")

	f.Fuzz(func(t *testing.T, s string) {
		ruleID, err := ParseRuleID(s)
		if err != nil {
			return
		}
		got := ruleID.String()
		if got == "" || got != strings.TrimSpace(got) {
			t.Fatalf("ParseRuleID(%q) produced unnormalized id %q", s, got)
		}
	})
}
