package handler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/teamtrack/teamtrack-api/internal/models"
	"github.com/teamtrack/teamtrack-api/internal/repository"
	"github.com/teamtrack/teamtrack-api/internal/service"
	appErrors "github.com/teamtrack/teamtrack-api/pkg/errors"
	"github.com/teamtrack/teamtrack-api/pkg/response"
)

type exportService interface {
	History(ctx context.Context, filter repository.HistoryFilter, format service.ExportFormat, actor *models.JWTClaims) (*service.ExportResult, error)
}

// ExportHandler streams completion history exports.
type ExportHandler struct {
	service exportService
}

// NewExportHandler constructs the handler.
func NewExportHandler(service exportService) *ExportHandler {
	return &ExportHandler{service: service}
}

// History godoc
// @Summary Export reviewed completion history
// @Tags Exports
// @Produce text/csv
// @Produce application/pdf
// @Param format query string true "csv or pdf"
// @Param kind query string false "TASK or PROJECT"
// @Param since query string false "RFC3339 lower bound"
// @Param decision query string false "APPROVED or REJECTED"
// @Success 200 {file} binary
// @Router /exports/completion-history [get]
func (h *ExportHandler) History(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	filter := repository.HistoryFilter{}
	if raw := c.Query("kind"); raw != "" {
		filter.Kind = models.WorkItemKind(strings.ToUpper(raw))
	}
	if raw := c.Query("decision"); raw != "" {
		filter.Status = models.RequestStatus(strings.ToUpper(raw))
	}
	if raw := c.Query("since"); raw != "" {
		since, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "since must be RFC3339"))
			return
		}
		filter.Since = &since
	}

	format := service.ExportFormat(strings.ToLower(c.DefaultQuery("format", "csv")))
	result, err := h.service.History(c.Request.Context(), filter, format, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	c.Data(200, result.ContentType, result.Content)
}
