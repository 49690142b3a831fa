package handler

import (
	"time"

	"plancheck/internal/resolution"
)

type issueResponse struct {
	ID             int64      `json:"id"`
	ApplicationID  int64      `json:"application_id"`
	RuleID         string     `json:"rule_id"`
	Status         string     `json:"status"`
	RecheckPending bool       `json:"recheck_pending"`
	Message        string     `json:"message,omitempty"`
	MissingFields  []string   `json:"missing_fields,omitempty"`
	DismissReason  string     `json:"dismiss_reason,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	LastActionAt   *time.Time `json:"last_action_at,omitempty"`
	LastRecheckAt  *time.Time `json:"last_recheck_at,omitempty"`
	ResolvedAt     *time.Time `json:"resolved_at,omitempty"`
	DismissedAt    *time.Time `json:"dismissed_at,omitempty"`
}

func newIssueResponse(issue *resolution.IssueResolution) issueResponse {
	return issueResponse{
		ID:             issue.ID.Int64(),
		ApplicationID:  issue.ApplicationID.Int64(),
		RuleID:         string(issue.RuleID),
		Status:         string(issue.Status),
		RecheckPending: issue.RecheckPending,
		Message:        issue.Message,
		MissingFields:  issue.MissingFields,
		DismissReason:  issue.DismissReason,
		CreatedAt:      issue.CreatedAt,
		LastActionAt:   issue.LastActionAt,
		LastRecheckAt:  issue.LastRecheck,
		ResolvedAt:     issue.ResolvedAt,
		DismissedAt:    issue.DismissedAt,
	}
}

type issueListResponse struct {
	Issues []issueResponse `json:"issues"`
}

func newIssueListResponse(issues []*resolution.IssueResolution) issueListResponse {
	resp := issueListResponse{Issues: make([]issueResponse, 0, len(issues))}
	for _, issue := range issues {
		resp.Issues = append(resp.Issues, newIssueResponse(issue))
	}
	return resp
}

type actionResponse struct {
	ID      int64     `json:"id"`
	Type    string    `json:"type"`
	Actor   string    `json:"actor,omitempty"`
	Payload string    `json:"payload,omitempty"`
	At      time.Time `json:"at"`
}

type actionListResponse struct {
	Actions []actionResponse `json:"actions"`
}

func newActionListResponse(actions []*resolution.ResolutionAction) actionListResponse {
	resp := actionListResponse{Actions: make([]actionResponse, 0, len(actions))}
	for _, a := range actions {
		resp.Actions = append(resp.Actions, actionResponse{
			ID:      a.ID,
			Type:    string(a.Type),
			Actor:   a.Actor,
			Payload: a.Payload,
			At:      a.At,
		})
	}
	return resp
}

type recheckResponse struct {
	ID             int64     `json:"id"`
	PreviousStatus string    `json:"previous_status"`
	NewStatus      string    `json:"new_status"`
	Outcome        string    `json:"outcome"`
	Trigger        string    `json:"trigger"`
	At             time.Time `json:"at"`
}

type recheckListResponse struct {
	Rechecks []recheckResponse `json:"rechecks"`
}

func newRecheckListResponse(rechecks []*resolution.RecheckHistory) recheckListResponse {
	resp := recheckListResponse{Rechecks: make([]recheckResponse, 0, len(rechecks))}
	for _, r := range rechecks {
		resp.Rechecks = append(resp.Rechecks, recheckResponse{
			ID:             r.ID,
			PreviousStatus: string(r.PreviousStatus),
			NewStatus:      string(r.NewStatus),
			Outcome:        string(r.Outcome),
			Trigger:        string(r.Trigger),
			At:             r.At,
		})
	}
	return resp
}
