// Package handler exposes the resolution tracker to the presentation layer.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"plancheck/internal/resolution"
	"plancheck/internal/validation"
	id "plancheck/pkg/domain"
	dErrors "plancheck/pkg/domain-errors"
	"plancheck/pkg/platform/httputil"
	"plancheck/pkg/requestcontext"
)

// Service defines the tracker operations the handler needs.
type Service interface {
	GetIssue(ctx context.Context, issueID id.IssueID) (*resolution.IssueResolution, error)
	ListByApplication(ctx context.Context, appID id.ApplicationID) ([]*resolution.IssueResolution, error)
	ListActions(ctx context.Context, issueID id.IssueID) ([]*resolution.ResolutionAction, error)
	ListRechecks(ctx context.Context, issueID id.IssueID) ([]*resolution.RecheckHistory, error)
	ApplyAction(ctx context.Context, issueID id.IssueID, actionType resolution.ActionType, actor, payload string) (*resolution.IssueResolution, error)
	Resolve(ctx context.Context, issueID id.IssueID) (*resolution.IssueResolution, error)
	RecordRecheck(ctx context.Context, issueID id.IssueID, outcome validation.FindingStatus, trigger resolution.TriggerSource) (*resolution.IssueResolution, error)
	AddDependency(ctx context.Context, dep resolution.IssueDependency) error
}

// Handler handles issue-resolution endpoints.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New creates a new resolution Handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register registers the issue routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/applications/{applicationID}/issues", h.handleListIssues)
	r.Route("/issues/{issueID}", func(r chi.Router) {
		r.Get("/", h.handleGetIssue)
		r.Get("/actions", h.handleListActions)
		r.Get("/rechecks", h.handleListRechecks)
		r.Post("/actions", h.handleApplyAction)
		r.Post("/dismiss", h.handleDismiss)
		r.Post("/resolve", h.handleResolve)
		r.Post("/rechecks", h.handleRecordRecheck)
		r.Post("/dependencies", h.handleAddDependency)
	})
}

func (h *Handler) handleListIssues(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	appID, err := id.ParseApplicationID(chi.URLParam(r, "applicationID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	issues, err := h.service.ListByApplication(ctx, appID)
	if err != nil {
		h.logError(ctx, "list issues failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, newIssueListResponse(issues))
}

func (h *Handler) handleGetIssue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	issueID, err := id.ParseIssueID(chi.URLParam(r, "issueID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	issue, err := h.service.GetIssue(ctx, issueID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, newIssueResponse(issue))
}

func (h *Handler) handleListActions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	issueID, err := id.ParseIssueID(chi.URLParam(r, "issueID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	actions, err := h.service.ListActions(ctx, issueID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, newActionListResponse(actions))
}

func (h *Handler) handleListRechecks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	issueID, err := id.ParseIssueID(chi.URLParam(r, "issueID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	rechecks, err := h.service.ListRechecks(ctx, issueID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, newRecheckListResponse(rechecks))
}

func (h *Handler) handleApplyAction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	issueID, err := id.ParseIssueID(chi.URLParam(r, "issueID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[applyActionRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	actor := req.Actor
	if actor == "" {
		actor = requestcontext.Actor(ctx)
	}
	issue, err := h.service.ApplyAction(ctx, issueID, resolution.ActionType(req.Type), actor, req.Payload)
	if err != nil {
		h.logError(ctx, "apply action failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, newIssueResponse(issue))
}

func (h *Handler) handleDismiss(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	issueID, err := id.ParseIssueID(chi.URLParam(r, "issueID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[dismissRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	actor := req.Actor
	if actor == "" {
		actor = requestcontext.Actor(ctx)
	}
	issue, err := h.service.ApplyAction(ctx, issueID, resolution.ActionDismissal, actor, req.Reason)
	if err != nil {
		h.logError(ctx, "dismiss failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, newIssueResponse(issue))
}

func (h *Handler) handleResolve(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	issueID, err := id.ParseIssueID(chi.URLParam(r, "issueID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	issue, err := h.service.Resolve(ctx, issueID)
	if err != nil {
		h.logError(ctx, "resolve failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, newIssueResponse(issue))
}

func (h *Handler) handleRecordRecheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	issueID, err := id.ParseIssueID(chi.URLParam(r, "issueID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[recordRecheckRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	issue, err := h.service.RecordRecheck(ctx, issueID,
		validation.FindingStatus(req.Outcome), resolution.TriggerSource(req.Trigger))
	if err != nil {
		h.logError(ctx, "record recheck failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, newIssueResponse(issue))
}

func (h *Handler) handleAddDependency(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	issueID, err := id.ParseIssueID(chi.URLParam(r, "issueID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[addDependencyRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	err = h.service.AddDependency(ctx, resolution.IssueDependency{
		IssueID:          issueID,
		DependsOnIssueID: id.IssueID(req.DependsOnIssueID),
		Type:             resolution.DependencyType(req.Type),
	})
	if err != nil {
		h.logError(ctx, "add dependency failed", err)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) logError(ctx context.Context, msg string, err error) {
	if h.logger == nil {
		return
	}
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, msg,
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		return
	}
	h.logger.WarnContext(ctx, msg,
		"request_id", requestcontext.RequestID(ctx),
		"error", err,
	)
}
