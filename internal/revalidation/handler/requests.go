package handler

import (
	"plancheck/internal/extraction"
	dErrors "plancheck/pkg/domain-errors"
)

type runFullRequest struct {
	SubmissionID    int64              `json:"submission_id,omitempty"`
	ApplicationType string             `json:"application_type,omitempty"`
	Extraction      *extraction.Result `json:"extraction"`
}

func (r *runFullRequest) Validate() error {
	if r.Extraction == nil {
		return dErrors.New(dErrors.CodeInvalidInput, "extraction bundle is required")
	}
	if r.SubmissionID < 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "submission_id must not be negative")
	}
	return nil
}

type runAmendmentRequest struct {
	ParentSubmissionID int64              `json:"parent_submission_id"`
	ChildSubmissionID  int64              `json:"child_submission_id"`
	ApplicationType    string             `json:"application_type,omitempty"`
	Extraction         *extraction.Result `json:"extraction"`
}

func (r *runAmendmentRequest) Validate() error {
	if r.ParentSubmissionID <= 0 || r.ChildSubmissionID <= 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "parent_submission_id and child_submission_id must be positive")
	}
	if r.ParentSubmissionID == r.ChildSubmissionID {
		return dErrors.New(dErrors.CodeInvalidInput, "parent and child submissions must differ")
	}
	if r.Extraction == nil {
		return dErrors.New(dErrors.CodeInvalidInput, "extraction bundle is required")
	}
	return nil
}
