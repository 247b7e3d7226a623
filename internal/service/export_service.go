package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/teamtrack/teamtrack-api/internal/models"
	"github.com/teamtrack/teamtrack-api/internal/repository"
	appErrors "github.com/teamtrack/teamtrack-api/pkg/errors"
	"github.com/teamtrack/teamtrack-api/pkg/export"
)

type historyStore interface {
	ListHistory(ctx context.Context, filter repository.HistoryFilter) ([]models.CompletionRequest, error)
}

// ExportFormat selects the rendered output type.
type ExportFormat string

const (
	FormatCSV ExportFormat = "csv"
	FormatPDF ExportFormat = "pdf"
)

// ExportResult is a rendered document ready to stream to the client.
type ExportResult struct {
	Content     []byte
	ContentType string
	Filename    string
}

// ExportService renders the reviewed completion history as CSV or PDF.
type ExportService struct {
	history historyStore
	csv     *export.CSVExporter
	pdf     *export.PDFExporter
	logger  *zap.Logger
}

// NewExportService constructs the service.
func NewExportService(history historyStore, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		history: history,
		csv:     export.NewCSVExporter(),
		pdf:     export.NewPDFExporter(),
		logger:  logger,
	}
}

// History renders reviewed ledger entries matching the filter. Only managers
// and admins may export.
func (s *ExportService) History(ctx context.Context, filter repository.HistoryFilter, format ExportFormat, actor *models.JWTClaims) (*ExportResult, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if actor.Role != models.RoleManager && actor.Role != models.RoleAdmin {
		return nil, appErrors.ErrForbidden
	}
	if filter.Kind != "" && !filter.Kind.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported work item kind")
	}

	requests, err := s.history.ListHistory(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load completion history")
	}
	dataset := historyDataset(requests)
	stamp := time.Now().UTC().Format("20060102-150405")

	switch format {
	case FormatCSV:
		content, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render CSV export")
		}
		return &ExportResult{
			Content:     content,
			ContentType: "text/csv",
			Filename:    fmt.Sprintf("completion-history-%s.csv", stamp),
		}, nil
	case FormatPDF:
		content, err := s.pdf.Render(dataset, "Completion History")
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render PDF export")
		}
		return &ExportResult{
			Content:     content,
			ContentType: "application/pdf",
			Filename:    fmt.Sprintf("completion-history-%s.pdf", stamp),
		}, nil
	}
	return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
}

func historyDataset(requests []models.CompletionRequest) export.Dataset {
	dataset := export.Dataset{
		Headers: []string{"Kind", "Item", "Requester", "Reviewer", "Decision", "Feedback", "Requested At", "Reviewed At"},
	}
	for _, r := range requests {
		row := map[string]string{
			"Kind":         string(r.Kind),
			"Item":         r.ItemName,
			"Requester":    r.RequesterName,
			"Reviewer":     r.ReviewerName,
			"Decision":     string(r.Status),
			"Feedback":     derefString(r.Feedback),
			"Requested At": r.CreatedAt.Format(time.RFC3339),
			"Reviewed At":  r.UpdatedAt.Format(time.RFC3339),
		}
		if row["Item"] == "" {
			row["Item"] = r.ItemID
		}
		dataset.Rows = append(dataset.Rows, row)
	}
	return dataset
}

func derefString(value *string) string {
	if value == nil {
		return ""
	}
	return strings.TrimSpace(*value)
}
