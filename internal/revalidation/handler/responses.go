package handler

import (
	"time"

	"plancheck/internal/delta"
	"plancheck/internal/revalidation"
	"plancheck/internal/validation"
)

type findingResponse struct {
	RuleID        string    `json:"rule_id"`
	Status        string    `json:"status"`
	Message       string    `json:"message,omitempty"`
	Evidence      []string  `json:"evidence,omitempty"`
	MissingFields []string  `json:"missing_fields,omitempty"`
	Confidence    float64   `json:"confidence"`
	EvaluatedAt   time.Time `json:"evaluated_at"`
}

func newFindingResponses(findings []validation.Finding) []findingResponse {
	out := make([]findingResponse, 0, len(findings))
	for _, f := range findings {
		out = append(out, findingResponse{
			RuleID:        string(f.RuleID),
			Status:        string(f.Status),
			Message:       f.Message,
			Evidence:      f.Evidence,
			MissingFields: f.MissingFields,
			Confidence:    f.Confidence,
			EvaluatedAt:   f.EvaluatedAt,
		})
	}
	return out
}

type runResponse struct {
	RunID     string             `json:"run_id"`
	Summary   validation.Summary `json:"summary"`
	Findings  []findingResponse  `json:"findings"`
	Escalated bool               `json:"escalated"`
	IssueIDs  []int64            `json:"issue_ids,omitempty"`
}

func newRunResponse(result *revalidation.RunResult) runResponse {
	resp := runResponse{
		RunID:     result.RunID.String(),
		Summary:   result.Summary,
		Findings:  newFindingResponses(result.Findings),
		Escalated: result.Escalated,
	}
	for _, issue := range result.Issues {
		resp.IssueIDs = append(resp.IssueIDs, issue.ID.Int64())
	}
	return resp
}

type changeItemResponse struct {
	Type     string  `json:"change_type"`
	Action   string  `json:"action"`
	Key      string  `json:"key"`
	OldValue string  `json:"old_value,omitempty"`
	NewValue string  `json:"new_value,omitempty"`
	Score    float64 `json:"score"`
}

type changeSetResponse struct {
	ID                 int64                `json:"id"`
	ParentSubmissionID int64                `json:"parent_submission_id"`
	ChildSubmissionID  int64                `json:"child_submission_id"`
	SignificanceScore  float64              `json:"significance_score"`
	RequiresValidation string               `json:"requires_validation"`
	Items              []changeItemResponse `json:"items"`
	CreatedAt          time.Time            `json:"created_at"`
}

func newChangeSetResponse(cs *delta.ChangeSet) changeSetResponse {
	resp := changeSetResponse{
		ID:                 cs.ID.Int64(),
		ParentSubmissionID: cs.ParentID.Int64(),
		ChildSubmissionID:  cs.ChildID.Int64(),
		SignificanceScore:  cs.SignificanceScore,
		RequiresValidation: string(cs.RequiresValidation),
		Items:              make([]changeItemResponse, 0, len(cs.Items)),
		CreatedAt:          cs.CreatedAt,
	}
	for _, item := range cs.Items {
		resp.Items = append(resp.Items, changeItemResponse{
			Type:     string(item.Type),
			Action:   string(item.Action),
			Key:      item.Key,
			OldValue: item.OldValue,
			NewValue: item.NewValue,
			Score:    item.Score,
		})
	}
	return resp
}

type amendmentResponse struct {
	RunID         string             `json:"run_id"`
	ChangeSet     changeSetResponse  `json:"change_set"`
	ImpactedRules []string           `json:"impacted_rules,omitempty"`
	Summary       validation.Summary `json:"summary"`
	Findings      []findingResponse  `json:"findings,omitempty"`
	RecheckedIDs  []int64            `json:"rechecked_issue_ids,omitempty"`
}

func newAmendmentResponse(result *revalidation.AmendmentResult) amendmentResponse {
	resp := amendmentResponse{
		RunID:     result.RunID.String(),
		ChangeSet: newChangeSetResponse(result.ChangeSet),
		Summary:   result.Summary,
		Findings:  newFindingResponses(result.Findings),
	}
	for _, ruleID := range result.ImpactedRules {
		resp.ImpactedRules = append(resp.ImpactedRules, ruleID.String())
	}
	for _, issue := range result.Rechecked {
		resp.RecheckedIDs = append(resp.RecheckedIDs, issue.ID.Int64())
	}
	return resp
}
