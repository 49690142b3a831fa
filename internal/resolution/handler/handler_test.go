package handler

import (
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"plancheck/internal/resolution"
	"plancheck/internal/resolution/handler/mocks"
	"plancheck/internal/validation"
	id "plancheck/pkg/domain"
	dErrors "plancheck/pkg/domain-errors"
	"plancheck/pkg/testutil"
)

//go:generate mockgen -source=handler.go -destination=mocks/resolution-mocks.go -package=mocks Service

// =============================================================================
// Resolution Handler Test Suite
// =============================================================================

type HandlerSuite struct {
	suite.Suite
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) newHandler() (*chi.Mux, *mocks.MockService) {
	ctrl := gomock.NewController(s.T())
	s.T().Cleanup(ctrl.Finish)
	mockService := mocks.NewMockService(ctrl)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	r := chi.NewRouter()
	New(mockService, logger).Register(r)
	return r, mockService
}

func sampleIssue(issueID int64, status resolution.IssueStatus) *resolution.IssueResolution {
	return &resolution.IssueResolution{
		ID:            id.IssueID(issueID),
		ApplicationID: id.ApplicationID(7),
		RuleID:        "R1",
		Status:        status,
		Message:       "required field(s) missing",
		CreatedAt:     time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
	}
}

func (s *HandlerSuite) TestListIssues() {
	router, mockService := s.newHandler()
	mockService.EXPECT().
		ListByApplication(gomock.Any(), id.ApplicationID(7)).
		Return([]*resolution.IssueResolution{sampleIssue(1, resolution.StatusOpen)}, nil)

	req := testutil.NewJSONRequest(s.T(), http.MethodGet, "/applications/7/issues", nil)
	w := testutil.DoRequest(router, req)

	s.Equal(http.StatusOK, w.Code)
	resp := testutil.UnmarshalResponse[struct {
		Issues []struct {
			ID     int64  `json:"id"`
			Status string `json:"status"`
		} `json:"issues"`
	}](s.T(), w)
	s.Require().Len(resp.Issues, 1)
	s.Equal(int64(1), resp.Issues[0].ID)
	s.Equal("open", resp.Issues[0].Status)
}

func (s *HandlerSuite) TestListIssuesBadApplicationID() {
	router, _ := s.newHandler()
	req := testutil.NewJSONRequest(s.T(), http.MethodGet, "/applications/not-a-number/issues", nil)
	w := testutil.DoRequest(router, req)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *HandlerSuite) TestGetIssueNotFound() {
	router, mockService := s.newHandler()
	mockService.EXPECT().
		GetIssue(gomock.Any(), id.IssueID(99)).
		Return(nil, dErrors.New(dErrors.CodeNotFound, "issue 99 not found"))

	req := testutil.NewJSONRequest(s.T(), http.MethodGet, "/issues/99", nil)
	w := testutil.DoRequest(router, req)
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *HandlerSuite) TestApplyAction() {
	router, mockService := s.newHandler()
	mockService.EXPECT().
		ApplyAction(gomock.Any(), id.IssueID(1), resolution.ActionDocumentUpload, "agent", "plan-v2.pdf").
		Return(sampleIssue(1, resolution.StatusInProgress), nil)

	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/issues/1/actions", map[string]string{
		"type": "document_upload", "actor": "agent", "payload": "plan-v2.pdf",
	})
	w := testutil.DoRequest(router, req)

	s.Equal(http.StatusOK, w.Code)
	resp := testutil.UnmarshalResponse[struct {
		Status string `json:"status"`
	}](s.T(), w)
	s.Equal("in_progress", resp.Status)
}

func (s *HandlerSuite) TestApplyActionFallsBackToContextActor() {
	// When the body omits the actor, the handler uses the one the actor
	// middleware extracted from the request headers.
	router, mockService := s.newHandler()
	mockService.EXPECT().
		ApplyAction(gomock.Any(), id.IssueID(1), resolution.ActionDocumentUpload, "officer-42", "plan-v2.pdf").
		Return(sampleIssue(1, resolution.StatusInProgress), nil)

	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/issues/1/actions", map[string]string{
		"type": "document_upload", "payload": "plan-v2.pdf",
	})
	req = testutil.WithActor(req, "officer-42")
	req = testutil.WithRequestID(req, "req-123")
	w := testutil.DoRequest(router, req)
	s.Equal(http.StatusOK, w.Code)
}

func (s *HandlerSuite) TestApplyActionRejectsInvalidType() {
	router, _ := s.newHandler()
	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/issues/1/actions", map[string]string{"type": "made-up"})
	w := testutil.DoRequest(router, req)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *HandlerSuite) TestApplyActionRejectsDismissalType() {
	// Dismissals carry extra invariants; the dedicated endpoint owns them.
	router, _ := s.newHandler()
	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/issues/1/actions", map[string]string{
		"type": "dismissal", "payload": "reason",
	})
	w := testutil.DoRequest(router, req)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *HandlerSuite) TestDismiss() {
	router, mockService := s.newHandler()
	dismissed := sampleIssue(1, resolution.StatusDismissed)
	dismissed.DismissReason = "duplicate of issue 3"
	mockService.EXPECT().
		ApplyAction(gomock.Any(), id.IssueID(1), resolution.ActionDismissal, "officer", "duplicate of issue 3").
		Return(dismissed, nil)

	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/issues/1/dismiss", map[string]string{
		"actor": "officer", "reason": "duplicate of issue 3",
	})
	w := testutil.DoRequest(router, req)

	s.Equal(http.StatusOK, w.Code)
}

func (s *HandlerSuite) TestDismissWithEmptyReasonSurfacesServiceError() {
	router, mockService := s.newHandler()
	mockService.EXPECT().
		ApplyAction(gomock.Any(), id.IssueID(1), resolution.ActionDismissal, "officer", "").
		Return(nil, dErrors.New(dErrors.CodeInvalidInput, "dismissal requires a non-empty reason"))

	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/issues/1/dismiss", map[string]string{"actor": "officer"})
	w := testutil.DoRequest(router, req)

	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *HandlerSuite) TestResolve() {
	router, mockService := s.newHandler()
	mockService.EXPECT().
		Resolve(gomock.Any(), id.IssueID(1)).
		Return(sampleIssue(1, resolution.StatusResolved), nil)

	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/issues/1/resolve", nil)
	w := testutil.DoRequest(router, req)
	s.Equal(http.StatusOK, w.Code)
}

func (s *HandlerSuite) TestRecordRecheck() {
	router, mockService := s.newHandler()
	mockService.EXPECT().
		RecordRecheck(gomock.Any(), id.IssueID(1), validation.StatusPass, resolution.TriggerManual).
		Return(sampleIssue(1, resolution.StatusResolved), nil)

	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/issues/1/rechecks", map[string]string{
		"outcome": "pass", "trigger": "manual",
	})
	w := testutil.DoRequest(router, req)
	s.Equal(http.StatusOK, w.Code)
}

func (s *HandlerSuite) TestRecordRecheckRejectsBadOutcome() {
	router, _ := s.newHandler()
	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/issues/1/rechecks", map[string]string{
		"outcome": "maybe", "trigger": "manual",
	})
	w := testutil.DoRequest(router, req)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *HandlerSuite) TestAddDependency() {
	router, mockService := s.newHandler()
	mockService.EXPECT().
		AddDependency(gomock.Any(), resolution.IssueDependency{
			IssueID: 2, DependsOnIssueID: 1, Type: resolution.DependencyBlocking,
		}).
		Return(nil)

	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/issues/2/dependencies", map[string]any{
		"depends_on_issue_id": 1, "type": "blocking",
	})
	w := testutil.DoRequest(router, req)
	s.Equal(http.StatusNoContent, w.Code)
}

func (s *HandlerSuite) TestAddDependencyConflict() {
	router, mockService := s.newHandler()
	mockService.EXPECT().
		AddDependency(gomock.Any(), gomock.Any()).
		Return(dErrors.New(dErrors.CodeConflict, "dependency already exists"))

	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/issues/2/dependencies", map[string]any{
		"depends_on_issue_id": 1, "type": "blocking",
	})
	w := testutil.DoRequest(router, req)
	s.Equal(http.StatusConflict, w.Code)
}
