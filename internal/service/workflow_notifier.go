package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/teamtrack/teamtrack-api/internal/models"
	"github.com/teamtrack/teamtrack-api/pkg/jobs"
)

type reviewerDirectory interface {
	ListIDsByRole(ctx context.Context, roles ...models.UserRole) ([]string, error)
}

const (
	jobCompletionRequested = "completion.requested"
	jobCompletionReviewed  = "completion.reviewed"
)

// WorkflowNotifier fans workflow events out to user inboxes on a background
// worker pool so submit and review responses never wait on notification
// writes.
type WorkflowNotifier struct {
	notifications *NotificationService
	directory     reviewerDirectory
	gate          *RoleGate
	queue         *jobs.Queue
	logger        *zap.Logger
}

// NewWorkflowNotifier constructs the notifier and its queue. Call Start
// before use and Stop on shutdown.
func NewWorkflowNotifier(notifications *NotificationService, directory reviewerDirectory, gate *RoleGate, cfg jobs.QueueConfig, logger *zap.Logger) *WorkflowNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	if gate == nil {
		gate = NewRoleGate()
	}
	n := &WorkflowNotifier{
		notifications: notifications,
		directory:     directory,
		gate:          gate,
		logger:        logger,
	}
	n.queue = jobs.NewQueue("workflow-notifications", n.handle, cfg)
	return n
}

// Start launches the worker pool.
func (n *WorkflowNotifier) Start(ctx context.Context) {
	n.queue.Start(ctx)
}

// Stop drains the queue and waits for in-flight jobs.
func (n *WorkflowNotifier) Stop() {
	n.queue.Stop()
}

// CompletionRequested enqueues reviewer notifications for a new request.
func (n *WorkflowNotifier) CompletionRequested(ctx context.Context, event models.CompletionRequestedEvent) {
	n.enqueue(jobCompletionRequested, event)
}

// CompletionReviewed enqueues the requester notification for a verdict.
func (n *WorkflowNotifier) CompletionReviewed(ctx context.Context, event models.CompletionReviewedEvent) {
	n.enqueue(jobCompletionReviewed, event)
}

func (n *WorkflowNotifier) enqueue(jobType string, payload interface{}) {
	err := n.queue.Enqueue(jobs.Job{
		ID:      uuid.NewString(),
		Type:    jobType,
		Payload: payload,
	})
	if err != nil {
		n.logger.Warn("dropping workflow notification", zap.String("job_type", jobType), zap.Error(err))
	}
}

func (n *WorkflowNotifier) handle(ctx context.Context, job jobs.Job) error {
	switch job.Type {
	case jobCompletionRequested:
		event, ok := job.Payload.(models.CompletionRequestedEvent)
		if !ok {
			return fmt.Errorf("unexpected payload type for %s", job.Type)
		}
		return n.notifyReviewers(ctx, event)
	case jobCompletionReviewed:
		event, ok := job.Payload.(models.CompletionReviewedEvent)
		if !ok {
			return fmt.Errorf("unexpected payload type for %s", job.Type)
		}
		return n.notifyRequester(ctx, event)
	}
	return fmt.Errorf("unknown job type %s", job.Type)
}

func (n *WorkflowNotifier) notifyReviewers(ctx context.Context, event models.CompletionRequestedEvent) error {
	reviewers, err := n.directory.ListIDsByRole(ctx, n.gate.ReviewerRoles(event.Kind)...)
	if err != nil {
		return fmt.Errorf("resolve reviewers: %w", err)
	}
	message := fmt.Sprintf("Completion requested for %s %q", kindLabel(event.Kind), event.ItemName)
	for _, reviewerID := range reviewers {
		if reviewerID == event.RequesterID {
			continue
		}
		if err := n.notifications.Notify(ctx, reviewerID, notificationType(event.Kind), event.ItemID, message); err != nil {
			return err
		}
	}
	return nil
}

func (n *WorkflowNotifier) notifyRequester(ctx context.Context, event models.CompletionReviewedEvent) error {
	var message string
	switch event.Decision {
	case models.RequestApproved:
		message = fmt.Sprintf("Your completion request for %s %q was approved", kindLabel(event.Kind), event.ItemName)
	case models.RequestRejected:
		message = fmt.Sprintf("Your completion request for %s %q was rejected", kindLabel(event.Kind), event.ItemName)
	default:
		return fmt.Errorf("unexpected decision %s", event.Decision)
	}
	if event.Feedback != "" {
		message = fmt.Sprintf("%s: %s", message, event.Feedback)
	}
	return n.notifications.Notify(ctx, event.RequesterID, notificationType(event.Kind), event.ItemID, message)
}

func kindLabel(kind models.WorkItemKind) string {
	if kind == models.KindProject {
		return "project"
	}
	return "task"
}

func notificationType(kind models.WorkItemKind) models.NotificationType {
	if kind == models.KindProject {
		return models.NotificationProject
	}
	return models.NotificationTask
}
