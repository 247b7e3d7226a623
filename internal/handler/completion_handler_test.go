package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/teamtrack/teamtrack-api/internal/dto"
	"github.com/teamtrack/teamtrack-api/internal/middleware"
	"github.com/teamtrack/teamtrack-api/internal/models"
	appErrors "github.com/teamtrack/teamtrack-api/pkg/errors"
)

type completionServiceStub struct {
	submitted  *models.CompletionRequest
	submitErr  error
	reviewed   *models.CompletionRequest
	reviewErr  error
	status     *dto.DisplayStatusResponse
	links      []dto.AttachmentLink
	linksErr   error
	resolved   string
	resolveErr error
	lastKind   models.WorkItemKind
	lastItemID string
}

func (s *completionServiceStub) Submit(ctx context.Context, kind models.WorkItemKind, itemID string, req dto.SubmitCompletionRequest, actor *models.JWTClaims) (*models.CompletionRequest, error) {
	s.lastKind = kind
	s.lastItemID = itemID
	if s.submitErr != nil {
		return nil, s.submitErr
	}
	return s.submitted, nil
}

func (s *completionServiceStub) Review(ctx context.Context, requestID string, req dto.ReviewCompletionRequest, actor *models.JWTClaims) (*models.CompletionRequest, error) {
	if s.reviewErr != nil {
		return nil, s.reviewErr
	}
	return s.reviewed, nil
}

func (s *completionServiceStub) DisplayStatus(ctx context.Context, kind models.WorkItemKind, itemID string) (*dto.DisplayStatusResponse, error) {
	return s.status, nil
}

func (s *completionServiceStub) ListForItem(ctx context.Context, kind models.WorkItemKind, itemID string, actor *models.JWTClaims) ([]models.CompletionRequest, error) {
	return nil, nil
}

func (s *completionServiceStub) ListPendingReviews(ctx context.Context, kind models.WorkItemKind, actor *models.JWTClaims) ([]models.CompletionRequest, error) {
	return nil, nil
}

func (s *completionServiceStub) AttachmentLinks(ctx context.Context, requestID string, actor *models.JWTClaims) ([]dto.AttachmentLink, error) {
	if s.linksErr != nil {
		return nil, s.linksErr
	}
	return s.links, nil
}

func (s *completionServiceStub) ResolveAttachment(ctx context.Context, token string) (string, error) {
	if s.resolveErr != nil {
		return "", s.resolveErr
	}
	return s.resolved, nil
}

func fakeAuth(role models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("X-Test-User") == "" {
			c.Next()
			return
		}
		c.Set(middleware.ContextUserKey, &models.JWTClaims{
			UserID: c.GetHeader("X-Test-User"),
			Role:   role,
		})
		c.Next()
	}
}

func buildCompletionRouter(stub *completionServiceStub, role models.UserRole) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(fakeAuth(role))
	h := NewCompletionHandler(stub, nil, 0, nil)
	router.POST("/tasks/:id/completion-requests", h.Submit(models.KindTask))
	router.POST("/completion-requests/:id/review", h.Review)
	router.GET("/tasks/:id/status", h.DisplayStatus(models.KindTask))
	router.GET("/completion-requests/:id/attachments", h.Attachments)
	return router
}

func performRequest(router *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func TestCompletionHandlerSubmit(t *testing.T) {
	stub := &completionServiceStub{
		submitted: &models.CompletionRequest{ID: "req-1", Kind: models.KindTask, ItemID: "task-1", Status: models.RequestPending},
	}
	router := buildCompletionRouter(stub, models.RoleEmployee)

	body, _ := json.Marshal(dto.SubmitCompletionRequest{Evidence: "done"})
	req, _ := http.NewRequest(http.MethodPost, "/tasks/task-1/completion-requests", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Test-User", "emp-1")

	resp := performRequest(router, req)
	require.Equal(t, http.StatusCreated, resp.Code)
	require.Contains(t, resp.Body.String(), `"req-1"`)
	require.Equal(t, models.KindTask, stub.lastKind)
	require.Equal(t, "task-1", stub.lastItemID)
}

func TestCompletionHandlerSubmitUnauthorized(t *testing.T) {
	router := buildCompletionRouter(&completionServiceStub{}, models.RoleEmployee)

	req, _ := http.NewRequest(http.MethodPost, "/tasks/task-1/completion-requests", bytes.NewBufferString(`{"evidence":"x"}`))
	req.Header.Set("Content-Type", "application/json")

	resp := performRequest(router, req)
	require.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestCompletionHandlerSubmitDuplicate(t *testing.T) {
	stub := &completionServiceStub{submitErr: appErrors.ErrDuplicateRequest}
	router := buildCompletionRouter(stub, models.RoleEmployee)

	req, _ := http.NewRequest(http.MethodPost, "/tasks/task-1/completion-requests", bytes.NewBufferString(`{"evidence":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Test-User", "emp-1")

	resp := performRequest(router, req)
	require.Equal(t, http.StatusConflict, resp.Code)
	require.Contains(t, resp.Body.String(), "DUPLICATE_REQUEST")
}

func TestCompletionHandlerReview(t *testing.T) {
	reviewer := "mgr-1"
	stub := &completionServiceStub{
		reviewed: &models.CompletionRequest{ID: "req-1", Status: models.RequestApproved, ReviewerID: &reviewer},
	}
	router := buildCompletionRouter(stub, models.RoleManager)

	req, _ := http.NewRequest(http.MethodPost, "/completion-requests/req-1/review", bytes.NewBufferString(`{"decision":"APPROVED"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Test-User", "mgr-1")

	resp := performRequest(router, req)
	require.Equal(t, http.StatusOK, resp.Code)
	require.Contains(t, resp.Body.String(), "APPROVED")
}

func TestCompletionHandlerReviewInvalidDecision(t *testing.T) {
	stub := &completionServiceStub{reviewErr: appErrors.ErrInvalidDecision}
	router := buildCompletionRouter(stub, models.RoleManager)

	req, _ := http.NewRequest(http.MethodPost, "/completion-requests/req-1/review", bytes.NewBufferString(`{"decision":"MAYBE"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Test-User", "mgr-1")

	resp := performRequest(router, req)
	require.Equal(t, http.StatusBadRequest, resp.Code)
	require.Contains(t, resp.Body.String(), "INVALID_DECISION")
}

func TestCompletionHandlerAttachmentLinks(t *testing.T) {
	stub := &completionServiceStub{
		links: []dto.AttachmentLink{{Name: "evidence.png", Token: "tok-1"}},
	}
	router := buildCompletionRouter(stub, models.RoleManager)

	req, _ := http.NewRequest(http.MethodGet, "/completion-requests/req-1/attachments", nil)
	req.Header.Set("X-Test-User", "mgr-1")

	resp := performRequest(router, req)
	require.Equal(t, http.StatusOK, resp.Code)
	require.Contains(t, resp.Body.String(), "evidence.png")
	require.Contains(t, resp.Body.String(), "tok-1")
}

func TestCompletionHandlerAttachmentLinksForbidden(t *testing.T) {
	stub := &completionServiceStub{linksErr: appErrors.ErrForbidden}
	router := buildCompletionRouter(stub, models.RoleEmployee)

	req, _ := http.NewRequest(http.MethodGet, "/completion-requests/req-1/attachments", nil)
	req.Header.Set("X-Test-User", "emp-2")

	resp := performRequest(router, req)
	require.Equal(t, http.StatusForbidden, resp.Code)
}

func TestCompletionHandlerDisplayStatus(t *testing.T) {
	stub := &completionServiceStub{
		status: &dto.DisplayStatusResponse{ItemID: "task-1", Kind: "TASK", Status: "IN_PROGRESS", DisplayStatus: "PENDING_REVIEW"},
	}
	router := buildCompletionRouter(stub, models.RoleEmployee)

	req, _ := http.NewRequest(http.MethodGet, "/tasks/task-1/status", nil)
	req.Header.Set("X-Test-User", "emp-1")

	resp := performRequest(router, req)
	require.Equal(t, http.StatusOK, resp.Code)
	require.Contains(t, resp.Body.String(), "PENDING_REVIEW")
}
