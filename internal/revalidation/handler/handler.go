// Package handler exposes the validation engine's run endpoints: full
// validation, amendment revalidation, changeset lookup, and the compiled
// catalog document.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"plancheck/internal/catalog"
	"plancheck/internal/delta"
	"plancheck/internal/extraction"
	"plancheck/internal/revalidation"
	id "plancheck/pkg/domain"
	dErrors "plancheck/pkg/domain-errors"
	"plancheck/pkg/platform/httputil"
	"plancheck/pkg/requestcontext"
)

// Service defines the orchestrator operations the handler needs.
type Service interface {
	RunFull(ctx context.Context, appID id.ApplicationID, submissionID id.SubmissionID, res *extraction.Result, applicationType string) (*revalidation.RunResult, error)
	RunAmendment(ctx context.Context, appID id.ApplicationID, parentID, childID id.SubmissionID, res *extraction.Result, applicationType string) (*revalidation.AmendmentResult, error)
}

// ChangeSetGetter reads persisted changesets for the lookup endpoint.
type ChangeSetGetter interface {
	GetByID(ctx context.Context, changeSetID id.ChangeSetID) (*delta.ChangeSet, error)
}

// Handler handles validation-run endpoints.
type Handler struct {
	service    Service
	changesets ChangeSetGetter
	catalog    *catalog.Catalog
	logger     *slog.Logger
}

// New creates a new revalidation Handler.
func New(service Service, changesets ChangeSetGetter, cat *catalog.Catalog, logger *slog.Logger) *Handler {
	return &Handler{service: service, changesets: changesets, catalog: cat, logger: logger}
}

// Register registers the run routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/applications/{applicationID}/validations", h.handleRunFull)
	r.Post("/applications/{applicationID}/revalidations", h.handleRunAmendment)
	r.Get("/changesets/{changeSetID}", h.handleGetChangeSet)
	r.Get("/catalog", h.handleGetCatalog)
}

func (h *Handler) handleRunFull(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	appID, err := id.ParseApplicationID(chi.URLParam(r, "applicationID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[runFullRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	result, err := h.service.RunFull(ctx, appID, id.SubmissionID(req.SubmissionID), req.Extraction, req.ApplicationType)
	if err != nil {
		h.logError(ctx, "full validation run failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, newRunResponse(result))
}

func (h *Handler) handleRunAmendment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	appID, err := id.ParseApplicationID(chi.URLParam(r, "applicationID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[runAmendmentRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	result, err := h.service.RunAmendment(ctx, appID,
		id.SubmissionID(req.ParentSubmissionID), id.SubmissionID(req.ChildSubmissionID),
		req.Extraction, req.ApplicationType)
	if err != nil {
		h.logError(ctx, "amendment revalidation failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, newAmendmentResponse(result))
}

func (h *Handler) handleGetChangeSet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	changeSetID, err := id.ParseChangeSetID(chi.URLParam(r, "changeSetID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	cs, err := h.changesets.GetByID(ctx, changeSetID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, newChangeSetResponse(cs))
}

func (h *Handler) handleGetCatalog(w http.ResponseWriter, r *http.Request) {
	compiled := catalog.Compile(h.catalog, "loaded")
	httputil.WriteJSON(w, http.StatusOK, compiled)
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
