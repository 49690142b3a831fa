package domain

import (
	"strconv"
	"strings"

	dErrors "plancheck/pkg/domain-errors"
)

// RuleID identifies one catalog rule, e.g. "R42".
// Invariant: non-empty, no surrounding whitespace.
//
// Usage: construct via ParseRuleID at trust boundaries; direct casting
// bypasses validation.
type RuleID string

// ParseRuleID constructs a RuleID from external input.
func ParseRuleID(s string) (RuleID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", dErrors.New(dErrors.CodeValidation, "rule id cannot be empty")
	}
	return RuleID(s), nil
}

// String returns the string representation of the rule id.
func (r RuleID) String() string { return string(r) }

// SubmissionID identifies one version of an application's document bundle.
type SubmissionID int64

// ParseSubmissionID parses a positive integer submission id from a path or
// query parameter.
func ParseSubmissionID(s string) (SubmissionID, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || n <= 0 {
		return 0, dErrors.New(dErrors.CodeValidation, "submission id must be a positive integer")
	}
	return SubmissionID(n), nil
}

// Int64 returns the raw id for persistence layers.
func (s SubmissionID) Int64() int64 { return int64(s) }

// ApplicationID groups the submission versions of one planning application.
type ApplicationID int64

// ParseApplicationID parses a positive integer application id.
func ParseApplicationID(s string) (ApplicationID, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || n <= 0 {
		return 0, dErrors.New(dErrors.CodeValidation, "application id must be a positive integer")
	}
	return ApplicationID(n), nil
}

// Int64 returns the raw id for persistence layers.
func (a ApplicationID) Int64() int64 { return int64(a) }

// IssueID identifies one tracked issue resolution.
type IssueID int64

// ParseIssueID parses a positive integer issue id.
func ParseIssueID(s string) (IssueID, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || n <= 0 {
		return 0, dErrors.New(dErrors.CodeValidation, "issue id must be a positive integer")
	}
	return IssueID(n), nil
}

// Int64 returns the raw id for persistence layers.
func (i IssueID) Int64() int64 { return int64(i) }

// ChangeSetID identifies one computed version delta.
type ChangeSetID int64

// ParseChangeSetID parses a positive integer changeset id.
func ParseChangeSetID(s string) (ChangeSetID, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || n <= 0 {
		return 0, dErrors.New(dErrors.CodeValidation, "changeset id must be a positive integer")
	}
	return ChangeSetID(n), nil
}

// Int64 returns the raw id for persistence layers.
func (c ChangeSetID) Int64() int64 { return int64(c) }
