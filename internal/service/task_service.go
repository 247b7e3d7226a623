package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/teamtrack/teamtrack-api/internal/dto"
	"github.com/teamtrack/teamtrack-api/internal/models"
	appErrors "github.com/teamtrack/teamtrack-api/pkg/errors"
)

type taskStore interface {
	Create(ctx context.Context, task *models.Task) error
	GetByID(ctx context.Context, id string) (*models.Task, error)
	List(ctx context.Context, filter models.TaskFilter) ([]models.Task, error)
	Update(ctx context.Context, task *models.Task) error
	SetStatus(ctx context.Context, id string, status models.WorkItemStatus, completedAt *time.Time) error
	Delete(ctx context.Context, id string) error
}

type pendingLookup interface {
	HasPending(ctx context.Context, kind models.WorkItemKind, itemID string) (bool, error)
}

type assigneeLookup interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

type projectLookup interface {
	GetByID(ctx context.Context, id string) (*models.Project, error)
}

const dateLayout = "2006-01-02"

// TaskService manages task CRUD and decorates reads with the derived
// display status.
type TaskService struct {
	repo      taskStore
	pending   pendingLookup
	users     assigneeLookup
	projects  projectLookup
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTaskService constructs the service.
func NewTaskService(repo taskStore, pending pendingLookup, users assigneeLookup, projects projectLookup, validate *validator.Validate, logger *zap.Logger) *TaskService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &TaskService{repo: repo, pending: pending, users: users, projects: projects, validator: validate, logger: logger}
}

// Create stores a new task.
func (s *TaskService) Create(ctx context.Context, req dto.CreateTaskRequest) (*models.Task, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid task payload")
	}
	status := models.WorkItemStatus(req.Status)
	if !status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported task status")
	}
	start, due, err := parseDateRange(req.StartDate, req.DueDate)
	if err != nil {
		return nil, err
	}
	if err := s.checkReferences(ctx, req.ProjectID, req.AssigneeID); err != nil {
		return nil, err
	}
	task := &models.Task{
		ID:          uuid.NewString(),
		ProjectID:   req.ProjectID,
		AssigneeID:  req.AssigneeID,
		Name:        req.Name,
		Description: req.Description,
		StartDate:   start,
		DueDate:     due,
		Status:      status,
	}
	if status == models.StatusCompleted {
		now := time.Now().UTC()
		task.CompletedAt = &now
	}
	if err := s.repo.Create(ctx, task); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create task")
	}
	task.DisplayStatus = models.DeriveDisplayStatus(task.Status, false)
	return task, nil
}

// Get loads one task with its derived display status.
func (s *TaskService) Get(ctx context.Context, id string) (*models.Task, error) {
	task, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load task")
	}
	if err := s.decorate(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

// List returns tasks visible to the actor. Employees see only their own
// assignments; managers and admins see everything the filter allows.
func (s *TaskService) List(ctx context.Context, filter models.TaskFilter, actor *models.JWTClaims) ([]models.Task, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if actor.Role == models.RoleEmployee {
		filter.AssigneeID = actor.UserID
	}
	tasks, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list tasks")
	}
	for i := range tasks {
		if err := s.decorate(ctx, &tasks[i]); err != nil {
			return nil, err
		}
	}
	return tasks, nil
}

// Update rewrites a task's mutable fields.
func (s *TaskService) Update(ctx context.Context, id string, req dto.UpdateTaskRequest) (*models.Task, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid task payload")
	}
	task, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load task")
	}
	status := models.WorkItemStatus(req.Status)
	if !status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported task status")
	}
	start, due, err := parseDateRange(req.StartDate, req.DueDate)
	if err != nil {
		return nil, err
	}
	if err := s.checkReferences(ctx, req.ProjectID, req.AssigneeID); err != nil {
		return nil, err
	}
	task.ProjectID = req.ProjectID
	task.AssigneeID = req.AssigneeID
	task.Name = req.Name
	task.Description = req.Description
	task.StartDate = start
	task.DueDate = due
	if status != task.Status {
		if status == models.StatusCompleted {
			now := time.Now().UTC()
			task.CompletedAt = &now
		} else {
			task.CompletedAt = nil
		}
		task.Status = status
	}
	if err := s.repo.Update(ctx, task); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update task")
	}
	if err := s.decorate(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

// SetStatus changes the persisted status directly, outside the review flow.
func (s *TaskService) SetStatus(ctx context.Context, id string, req dto.SetStatusRequest) error {
	status := models.WorkItemStatus(req.Status)
	if !status.Valid() {
		return appErrors.Clone(appErrors.ErrValidation, "unsupported task status")
	}
	var completedAt *time.Time
	if status == models.StatusCompleted {
		now := time.Now().UTC()
		completedAt = &now
	}
	if err := s.repo.SetStatus(ctx, id, status, completedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.ErrNotFound
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update task status")
	}
	return nil
}

// Delete removes a task.
func (s *TaskService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.ErrNotFound
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete task")
	}
	return nil
}

// checkReferences verifies the project exists and the assignee, when set, is
// an employee. Tasks are only ever assigned to employees.
func (s *TaskService) checkReferences(ctx context.Context, projectID, assigneeID string) error {
	if _, err := s.projects.GetByID(ctx, projectID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrValidation, "project does not exist")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load project")
	}
	if assigneeID == "" {
		return nil
	}
	user, err := s.users.FindByID(ctx, assigneeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrValidation, "assignee does not exist")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignee")
	}
	if user.Role != models.RoleEmployee {
		return appErrors.Clone(appErrors.ErrValidation, "assignee must be an employee")
	}
	return nil
}

func (s *TaskService) decorate(ctx context.Context, task *models.Task) error {
	pending, err := s.pending.HasPending(ctx, models.KindTask, task.ID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check pending requests")
	}
	task.DisplayStatus = models.DeriveDisplayStatus(task.Status, pending)
	return nil
}

func parseDateRange(startDate, dueDate string) (time.Time, time.Time, error) {
	start, err := time.Parse(dateLayout, startDate)
	if err != nil {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, "start_date must be YYYY-MM-DD")
	}
	due, err := time.Parse(dateLayout, dueDate)
	if err != nil {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, "due_date must be YYYY-MM-DD")
	}
	if due.Before(start) {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, "due_date must not be before start_date")
	}
	return start, due, nil
}
