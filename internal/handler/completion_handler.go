package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/teamtrack/teamtrack-api/internal/dto"
	"github.com/teamtrack/teamtrack-api/internal/models"
	appErrors "github.com/teamtrack/teamtrack-api/pkg/errors"
	"github.com/teamtrack/teamtrack-api/pkg/response"
	"github.com/teamtrack/teamtrack-api/pkg/storage"
)

type completionService interface {
	Submit(ctx context.Context, kind models.WorkItemKind, itemID string, req dto.SubmitCompletionRequest, actor *models.JWTClaims) (*models.CompletionRequest, error)
	Review(ctx context.Context, requestID string, req dto.ReviewCompletionRequest, actor *models.JWTClaims) (*models.CompletionRequest, error)
	DisplayStatus(ctx context.Context, kind models.WorkItemKind, itemID string) (*dto.DisplayStatusResponse, error)
	ListForItem(ctx context.Context, kind models.WorkItemKind, itemID string, actor *models.JWTClaims) ([]models.CompletionRequest, error)
	ListPendingReviews(ctx context.Context, kind models.WorkItemKind, actor *models.JWTClaims) ([]models.CompletionRequest, error)
	AttachmentLinks(ctx context.Context, requestID string, actor *models.JWTClaims) ([]dto.AttachmentLink, error)
	ResolveAttachment(ctx context.Context, token string) (string, error)
}

// CompletionHandler exposes the completion-review workflow over REST.
type CompletionHandler struct {
	service     completionService
	uploads     *storage.LocalStorage
	maxFileSize int64
	logger      *zap.Logger
}

// NewCompletionHandler constructs the handler. The uploads store may be nil,
// in which case multipart attachments are rejected.
func NewCompletionHandler(service completionService, uploads *storage.LocalStorage, maxFileSize int64, logger *zap.Logger) *CompletionHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CompletionHandler{service: service, uploads: uploads, maxFileSize: maxFileSize, logger: logger}
}

// Submit godoc
// @Summary Submit a completion request for a work item
// @Tags Completions
// @Accept json
// @Accept mpfd
// @Produce json
// @Param id path string true "Work item ID"
// @Success 201 {object} response.Envelope
// @Router /tasks/{id}/completion-requests [post]
func (h *CompletionHandler) Submit(kind models.WorkItemKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := claimsFromContext(c)
		if claims == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			return
		}

		var req dto.SubmitCompletionRequest
		var saved []string
		if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
			req.Evidence = c.PostForm("evidence")
			req.Notes = c.PostForm("notes")
			paths, err := h.saveAttachments(c)
			if err != nil {
				h.cleanup(paths)
				response.Error(c, err)
				return
			}
			req.Attachments = paths
			saved = paths
		} else if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid completion payload"))
			return
		}

		request, err := h.service.Submit(c.Request.Context(), kind, c.Param("id"), req, claims)
		if err != nil {
			h.cleanup(saved)
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusCreated, request, nil)
	}
}

// Review godoc
// @Summary Approve or reject a pending completion request
// @Tags Completions
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param payload body dto.ReviewCompletionRequest true "Verdict"
// @Success 200 {object} response.Envelope
// @Router /completion-requests/{id}/review [post]
func (h *CompletionHandler) Review(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.ReviewCompletionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid review payload"))
		return
	}
	request, err := h.service.Review(c.Request.Context(), c.Param("id"), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, request, nil)
}

// DisplayStatus godoc
// @Summary Return the derived display status of a work item
// @Tags Completions
// @Produce json
// @Param id path string true "Work item ID"
// @Success 200 {object} response.Envelope
// @Router /tasks/{id}/status [get]
func (h *CompletionHandler) DisplayStatus(kind models.WorkItemKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		status, err := h.service.DisplayStatus(c.Request.Context(), kind, c.Param("id"))
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, status, nil)
	}
}

// ListForItem godoc
// @Summary List completion requests of a work item
// @Tags Completions
// @Produce json
// @Param id path string true "Work item ID"
// @Success 200 {object} response.Envelope
// @Router /tasks/{id}/completion-requests [get]
func (h *CompletionHandler) ListForItem(kind models.WorkItemKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := claimsFromContext(c)
		if claims == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			return
		}
		requests, err := h.service.ListForItem(c.Request.Context(), kind, c.Param("id"), claims)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, requests, nil)
	}
}

// PendingQueue godoc
// @Summary List pending completion requests awaiting review
// @Tags Completions
// @Produce json
// @Param kind query string true "TASK or PROJECT"
// @Success 200 {object} response.Envelope
// @Router /completion-requests/pending [get]
func (h *CompletionHandler) PendingQueue(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	kind := models.WorkItemKind(strings.ToUpper(c.Query("kind")))
	requests, err := h.service.ListPendingReviews(c.Request.Context(), kind, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, requests, nil)
}

// Attachments godoc
// @Summary List signed download links for a request's attachments
// @Tags Completions
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Router /completion-requests/{id}/attachments [get]
func (h *CompletionHandler) Attachments(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	links, err := h.service.AttachmentLinks(c.Request.Context(), c.Param("id"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, links, nil)
}

// Download godoc
// @Summary Stream an attachment referenced by a signed token
// @Tags Completions
// @Produce octet-stream
// @Param token path string true "Signed download token"
// @Success 200 {file} binary
// @Router /attachments/{token} [get]
func (h *CompletionHandler) Download(c *gin.Context) {
	if h.uploads == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "attachment downloads are not configured"))
		return
	}
	relPath, err := h.service.ResolveAttachment(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.FileAttachment(h.uploads.Path(relPath), attachmentName(relPath))
}

func attachmentName(path string) string {
	if idx := strings.Index(path, "_"); idx >= 0 && idx < len(path)-1 {
		return path[idx+1:]
	}
	return path
}

func (h *CompletionHandler) saveAttachments(c *gin.Context) ([]string, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid multipart payload")
	}
	files := form.File["attachments"]
	if len(files) == 0 {
		return nil, nil
	}
	if h.uploads == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "attachments are not supported")
	}
	var paths []string
	for _, fileHeader := range files {
		if h.maxFileSize > 0 && fileHeader.Size > h.maxFileSize {
			return paths, appErrors.Clone(appErrors.ErrValidation, "attachment exceeds the size limit")
		}
		file, err := fileHeader.Open()
		if err != nil {
			return paths, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read attachment")
		}
		path, err := h.uploads.SaveStream(fileHeader.Filename, file)
		file.Close() //nolint:errcheck
		if err != nil {
			return paths, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store attachment")
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func (h *CompletionHandler) cleanup(paths []string) {
	if h.uploads == nil {
		return
	}
	for _, path := range paths {
		if err := h.uploads.Delete(path); err != nil {
			h.logger.Warn("failed to remove orphaned attachment", zap.String("path", path), zap.Error(err))
		}
	}
}
