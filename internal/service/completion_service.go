package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/teamtrack/teamtrack-api/internal/dto"
	"github.com/teamtrack/teamtrack-api/internal/models"
	"github.com/teamtrack/teamtrack-api/internal/repository"
	appErrors "github.com/teamtrack/teamtrack-api/pkg/errors"
)

type completionLedger interface {
	CreatePending(ctx context.Context, request *models.CompletionRequest) error
	GetByID(ctx context.Context, id string) (*models.CompletionRequest, error)
	HasPending(ctx context.Context, kind models.WorkItemKind, itemID string) (bool, error)
	Review(ctx context.Context, params repository.ReviewParams) error
	ListForItem(ctx context.Context, kind models.WorkItemKind, itemID, requesterID string) ([]models.CompletionRequest, error)
	ListPending(ctx context.Context, kind models.WorkItemKind) ([]models.CompletionRequest, error)
}

type workItemStore interface {
	Get(ctx context.Context, kind models.WorkItemKind, id string) (*models.WorkItem, error)
}

type attachmentSigner interface {
	Generate(requestID, relPath string) (string, time.Time, error)
	Parse(token string) (requestID, relPath string, err error)
}

// CompletionEventSink receives workflow events after they are committed.
// Implementations must not block; the notifier enqueues onto a worker pool.
type CompletionEventSink interface {
	CompletionRequested(ctx context.Context, event models.CompletionRequestedEvent)
	CompletionReviewed(ctx context.Context, event models.CompletionReviewedEvent)
}

// CompletionService orchestrates the completion-review workflow: contributors
// submit requests into the ledger, reviewers resolve them, and displayed
// status is derived from the persisted status plus the ledger.
type CompletionService struct {
	ledger  completionLedger
	items   workItemStore
	gate    *RoleGate
	sink    CompletionEventSink
	metrics *MetricsService
	signer  attachmentSigner
	logger  *zap.Logger
}

// CompletionServiceOption configures the service.
type CompletionServiceOption func(*CompletionService)

// WithCompletionEventSink wires the notification sink.
func WithCompletionEventSink(sink CompletionEventSink) CompletionServiceOption {
	return func(s *CompletionService) {
		if sink != nil {
			s.sink = sink
		}
	}
}

// WithAttachmentSigner enables signed attachment download links.
func WithAttachmentSigner(signer attachmentSigner) CompletionServiceOption {
	return func(s *CompletionService) {
		s.signer = signer
	}
}

// WithCompletionMetrics wires workflow counters.
func WithCompletionMetrics(metrics *MetricsService) CompletionServiceOption {
	return func(s *CompletionService) {
		s.metrics = metrics
	}
}

// NewCompletionService constructs the service with defaults.
func NewCompletionService(ledger completionLedger, items workItemStore, gate *RoleGate, logger *zap.Logger, opts ...CompletionServiceOption) *CompletionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if gate == nil {
		gate = NewRoleGate()
	}
	svc := &CompletionService{
		ledger: ledger,
		items:  items,
		gate:   gate,
		logger: logger,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc
}

// Submit records a new pending completion request for the given work item.
// Only the assigned employee may submit for a task; any employee may submit
// for a project. At most one pending request may exist per item.
func (s *CompletionService) Submit(ctx context.Context, kind models.WorkItemKind, itemID string, req dto.SubmitCompletionRequest, actor *models.JWTClaims) (*models.CompletionRequest, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if !kind.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported work item kind")
	}
	if !s.gate.CanPerform(ActionSubmitCompletion, actor.Role, kind) {
		return nil, appErrors.ErrForbidden
	}
	if strings.TrimSpace(req.Evidence) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "evidence is required")
	}

	item, err := s.items.Get(ctx, kind, itemID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load work item")
	}
	if kind == models.KindTask && item.AssigneeID != "" && item.AssigneeID != actor.UserID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "task is not assigned to you")
	}
	if item.Status == models.StatusCompleted {
		return nil, appErrors.ErrAlreadyCompleted
	}

	request := &models.CompletionRequest{
		ID:          uuid.NewString(),
		Kind:        kind,
		ItemID:      itemID,
		RequesterID: actor.UserID,
		Evidence:    strings.TrimSpace(req.Evidence),
		Notes:       strings.TrimSpace(req.Notes),
		Attachments: models.JoinAttachmentPaths(req.Attachments),
		Status:      models.RequestPending,
	}
	if err := s.ledger.CreatePending(ctx, request); err != nil {
		switch {
		case errors.Is(err, repository.ErrPendingExists):
			return nil, appErrors.ErrDuplicateRequest
		case errors.Is(err, repository.ErrPendingRace):
			return nil, appErrors.Clone(appErrors.ErrConflict, "a pending request was created concurrently")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create completion request")
	}

	s.metrics.RecordSubmission(kind)
	s.emitRequested(ctx, models.CompletionRequestedEvent{
		Kind:        kind,
		ItemID:      itemID,
		ItemName:    item.Name,
		RequestID:   request.ID,
		RequesterID: actor.UserID,
	})
	return request, nil
}

// Review resolves a pending completion request. An approval marks the work
// item completed; a rejection returns it to in progress. Both transitions
// happen in the same transaction as the ledger update.
func (s *CompletionService) Review(ctx context.Context, requestID string, req dto.ReviewCompletionRequest, actor *models.JWTClaims) (*models.CompletionRequest, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	decision := models.RequestStatus(strings.ToUpper(strings.TrimSpace(req.Decision)))
	if decision != models.RequestApproved && decision != models.RequestRejected {
		return nil, appErrors.ErrInvalidDecision
	}

	request, err := s.ledger.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load completion request")
	}
	if !s.gate.CanPerform(ActionReviewCompletion, actor.Role, request.Kind) {
		return nil, appErrors.ErrForbidden
	}
	if request.Status != models.RequestPending {
		return nil, appErrors.ErrAlreadyReviewed
	}

	now := time.Now().UTC()
	params := repository.ReviewParams{
		RequestID:  request.ID,
		Kind:       request.Kind,
		ItemID:     request.ItemID,
		Decision:   decision,
		ReviewerID: actor.UserID,
		Feedback:   optionalString(req.Feedback),
		ReviewedAt: now,
	}
	if err := s.ledger.Review(ctx, params); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "request was reviewed concurrently")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to review completion request")
	}

	request.Status = decision
	request.ReviewerID = &actor.UserID
	request.Feedback = params.Feedback
	request.UpdatedAt = now

	s.metrics.RecordReview(request.Kind, decision)
	s.emitReviewed(ctx, models.CompletionReviewedEvent{
		Kind:        request.Kind,
		ItemID:      request.ItemID,
		ItemName:    request.ItemName,
		RequestID:   request.ID,
		RequesterID: request.RequesterID,
		ReviewerID:  actor.UserID,
		Decision:    decision,
		Feedback:    req.Feedback,
	})
	return request, nil
}

// DisplayStatus derives the status shown to clients for one work item.
// The derived value is never persisted.
func (s *CompletionService) DisplayStatus(ctx context.Context, kind models.WorkItemKind, itemID string) (*dto.DisplayStatusResponse, error) {
	if !kind.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported work item kind")
	}
	item, err := s.items.Get(ctx, kind, itemID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load work item")
	}
	pending, err := s.ledger.HasPending(ctx, kind, itemID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check pending requests")
	}
	return &dto.DisplayStatusResponse{
		ItemID:        itemID,
		Kind:          string(kind),
		Status:        string(item.Status),
		DisplayStatus: string(models.DeriveDisplayStatus(item.Status, pending)),
	}, nil
}

// ListForItem returns the request history of a work item, newest first.
// Reviewers for the kind see every request; employees see only their own.
func (s *CompletionService) ListForItem(ctx context.Context, kind models.WorkItemKind, itemID string, actor *models.JWTClaims) ([]models.CompletionRequest, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if !kind.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported work item kind")
	}
	requesterID := ""
	if !s.gate.CanPerform(ActionReviewCompletion, actor.Role, kind) {
		if actor.Role != models.RoleEmployee {
			return nil, appErrors.ErrForbidden
		}
		requesterID = actor.UserID
	}
	requests, err := s.ledger.ListForItem(ctx, kind, itemID, requesterID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list completion requests")
	}
	return requests, nil
}

// ListPendingReviews returns the review queue for a kind, newest first.
func (s *CompletionService) ListPendingReviews(ctx context.Context, kind models.WorkItemKind, actor *models.JWTClaims) ([]models.CompletionRequest, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if !kind.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported work item kind")
	}
	if !s.gate.CanPerform(ActionReviewCompletion, actor.Role, kind) {
		return nil, appErrors.ErrForbidden
	}
	requests, err := s.ledger.ListPending(ctx, kind)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list pending requests")
	}
	return requests, nil
}

// AttachmentLinks returns signed download links for a request's attachments.
// Visible to the requester and to reviewers for the request's kind.
func (s *CompletionService) AttachmentLinks(ctx context.Context, requestID string, actor *models.JWTClaims) ([]dto.AttachmentLink, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if s.signer == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "attachment downloads are not configured")
	}
	request, err := s.ledger.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load completion request")
	}
	if request.RequesterID != actor.UserID && !s.gate.CanPerform(ActionReviewCompletion, actor.Role, request.Kind) {
		return nil, appErrors.ErrForbidden
	}

	paths := request.AttachmentPaths()
	links := make([]dto.AttachmentLink, 0, len(paths))
	for _, path := range paths {
		token, expiresAt, err := s.signer.Generate(request.ID, path)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign attachment link")
		}
		links = append(links, dto.AttachmentLink{
			Name:      attachmentDisplayName(path),
			Token:     token,
			ExpiresAt: expiresAt,
		})
	}
	return links, nil
}

// ResolveAttachment validates a download token and returns the stored path it
// references. The path must still belong to the request's ledger entry.
func (s *CompletionService) ResolveAttachment(ctx context.Context, token string) (string, error) {
	if s.signer == nil {
		return "", appErrors.Clone(appErrors.ErrInternal, "attachment downloads are not configured")
	}
	requestID, relPath, err := s.signer.Parse(token)
	if err != nil {
		return "", appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired download token")
	}
	request, err := s.ledger.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", appErrors.ErrNotFound
		}
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load completion request")
	}
	for _, path := range request.AttachmentPaths() {
		if path == relPath {
			return relPath, nil
		}
	}
	return "", appErrors.ErrNotFound
}

func (s *CompletionService) emitRequested(ctx context.Context, event models.CompletionRequestedEvent) {
	if s.sink == nil {
		return
	}
	s.sink.CompletionRequested(ctx, event)
}

func (s *CompletionService) emitReviewed(ctx context.Context, event models.CompletionReviewedEvent) {
	if s.sink == nil {
		return
	}
	s.sink.CompletionReviewed(ctx, event)
}

// attachmentDisplayName strips the collision-avoidance prefix added on upload.
func attachmentDisplayName(path string) string {
	if idx := strings.Index(path, "_"); idx >= 0 && idx < len(path)-1 {
		return path[idx+1:]
	}
	return path
}

func optionalString(value string) *string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	v := strings.TrimSpace(value)
	return &v
}
