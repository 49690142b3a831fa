package handler

import (
	"plancheck/internal/resolution"
	"plancheck/internal/validation"
	dErrors "plancheck/pkg/domain-errors"
)

type applyActionRequest struct {
	Type    string `json:"type"`
	Actor   string `json:"actor,omitempty"`
	Payload string `json:"payload,omitempty"`
}

func (r *applyActionRequest) Validate() error {
	if !resolution.ActionType(r.Type).IsValid() {
		return dErrors.Newf(dErrors.CodeInvalidInput, "invalid action type %q", r.Type)
	}
	if resolution.ActionType(r.Type) == resolution.ActionDismissal {
		return dErrors.New(dErrors.CodeInvalidInput, "use the dismiss endpoint for dismissals")
	}
	return nil
}

type dismissRequest struct {
	Actor  string `json:"actor,omitempty"`
	Reason string `json:"reason"`
}

// Validate leaves the reason/actor rules to the service so the state machine
// is enforced in exactly one place.
func (r *dismissRequest) Validate() error { return nil }

type recordRecheckRequest struct {
	Outcome string `json:"outcome"`
	Trigger string `json:"trigger"`
}

func (r *recordRecheckRequest) Validate() error {
	switch validation.FindingStatus(r.Outcome) {
	case validation.StatusPass, validation.StatusFail, validation.StatusNeedsReview:
	default:
		return dErrors.Newf(dErrors.CodeInvalidInput, "invalid recheck outcome %q", r.Outcome)
	}
	switch resolution.TriggerSource(r.Trigger) {
	case resolution.TriggerDocumentUpload, resolution.TriggerManual, resolution.TriggerDependencyCascade:
	default:
		return dErrors.Newf(dErrors.CodeInvalidInput, "invalid recheck trigger %q", r.Trigger)
	}
	return nil
}

type addDependencyRequest struct {
	DependsOnIssueID int64  `json:"depends_on_issue_id"`
	Type             string `json:"type"`
}

func (r *addDependencyRequest) Validate() error {
	if r.DependsOnIssueID <= 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "depends_on_issue_id must be positive")
	}
	if !resolution.DependencyType(r.Type).IsValid() {
		return dErrors.Newf(dErrors.CodeInvalidInput, "invalid dependency type %q", r.Type)
	}
	return nil
}
