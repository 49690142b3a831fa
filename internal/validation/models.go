// Package validation evaluates catalog rules against a submission's
// extracted data. Dispatch branches on rule category; evaluation is
// embarrassingly parallel and always fails soft.
package validation

import (
	"time"

	id "plancheck/pkg/domain"
)

// FindingStatus is the outcome of evaluating one rule.
type FindingStatus string

const (
	StatusPass        FindingStatus = "pass"
	StatusFail        FindingStatus = "fail"
	StatusNeedsReview FindingStatus = "needs_review"
)

// Finding is the result of evaluating one rule against one submission's
// data at a point in time.
type Finding struct {
	RuleID        id.RuleID
	Status        FindingStatus
	Message       string
	Evidence      []string // supporting snippets or document references
	MissingFields []string
	Confidence    float64
	EvaluatedAt   time.Time
}

// Summary is the run-level count reported alongside per-rule findings.
type Summary struct {
	Pass        int `json:"pass"`
	Fail        int `json:"fail"`
	NeedsReview int `json:"needs_review"`
}

// Summarize tallies findings by status.
func Summarize(findings []Finding) Summary {
	var s Summary
	for _, f := range findings {
		switch f.Status {
		case StatusPass:
			s.Pass++
		case StatusFail:
			s.Fail++
		case StatusNeedsReview:
			s.NeedsReview++
		}
	}
	return s
}
