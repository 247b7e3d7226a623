package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/teamtrack/teamtrack-api/internal/dto"
	"github.com/teamtrack/teamtrack-api/internal/models"
	appErrors "github.com/teamtrack/teamtrack-api/pkg/errors"
	"github.com/teamtrack/teamtrack-api/pkg/response"
)

type commentService interface {
	Create(ctx context.Context, taskID string, req dto.CreateCommentRequest, actor *models.JWTClaims) (*models.Comment, error)
	ListByTask(ctx context.Context, taskID string) ([]models.Comment, error)
	Update(ctx context.Context, id string, req dto.UpdateCommentRequest, actor *models.JWTClaims) (*models.Comment, error)
	Delete(ctx context.Context, id string, actor *models.JWTClaims) error
}

// CommentHandler exposes task discussion endpoints.
type CommentHandler struct {
	service commentService
}

// NewCommentHandler constructs the handler.
func NewCommentHandler(service commentService) *CommentHandler {
	return &CommentHandler{service: service}
}

// Create godoc
// @Summary Comment on a task
// @Tags Comments
// @Accept json
// @Produce json
// @Param id path string true "Task ID"
// @Param payload body dto.CreateCommentRequest true "Comment payload"
// @Success 201 {object} response.Envelope
// @Router /tasks/{id}/comments [post]
func (h *CommentHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid comment payload"))
		return
	}
	comment, err := h.service.Create(c.Request.Context(), c.Param("id"), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, comment, nil)
}

// ListByTask godoc
// @Summary List a task's comments
// @Tags Comments
// @Produce json
// @Param id path string true "Task ID"
// @Success 200 {object} response.Envelope
// @Router /tasks/{id}/comments [get]
func (h *CommentHandler) ListByTask(c *gin.Context) {
	comments, err := h.service.ListByTask(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, comments, nil)
}

// Update godoc
// @Summary Edit a comment
// @Tags Comments
// @Accept json
// @Produce json
// @Param id path string true "Comment ID"
// @Param payload body dto.UpdateCommentRequest true "Comment payload"
// @Success 200 {object} response.Envelope
// @Router /comments/{id} [put]
func (h *CommentHandler) Update(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.UpdateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid comment payload"))
		return
	}
	comment, err := h.service.Update(c.Request.Context(), c.Param("id"), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, comment, nil)
}

// Delete godoc
// @Summary Delete a comment
// @Tags Comments
// @Param id path string true "Comment ID"
// @Success 204
// @Router /comments/{id} [delete]
func (h *CommentHandler) Delete(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.service.Delete(c.Request.Context(), c.Param("id"), claims); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
