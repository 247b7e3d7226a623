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

type projectStore interface {
	Create(ctx context.Context, project *models.Project) error
	GetByID(ctx context.Context, id string) (*models.Project, error)
	List(ctx context.Context) ([]models.Project, error)
	Update(ctx context.Context, project *models.Project) error
	SetStatus(ctx context.Context, id string, status models.WorkItemStatus, completedAt *time.Time) error
	Delete(ctx context.Context, id string) error
}

// ProjectService manages project CRUD and decorates reads with the derived
// display status.
type ProjectService struct {
	repo      projectStore
	pending   pendingLookup
	validator *validator.Validate
	logger    *zap.Logger
}

// NewProjectService constructs the service.
func NewProjectService(repo projectStore, pending pendingLookup, validate *validator.Validate, logger *zap.Logger) *ProjectService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &ProjectService{repo: repo, pending: pending, validator: validate, logger: logger}
}

// Create stores a new project owned by the actor.
func (s *ProjectService) Create(ctx context.Context, req dto.CreateProjectRequest, actor *models.JWTClaims) (*models.Project, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid project payload")
	}
	start, due, err := parseDateRange(req.StartDate, req.DueDate)
	if err != nil {
		return nil, err
	}
	project := &models.Project{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Description: req.Description,
		StartDate:   start,
		DueDate:     due,
		Status:      models.StatusPending,
		CreatedBy:   actor.UserID,
	}
	if err := s.repo.Create(ctx, project); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create project")
	}
	project.DisplayStatus = models.DeriveDisplayStatus(project.Status, false)
	return project, nil
}

// Get loads one project with its derived display status.
func (s *ProjectService) Get(ctx context.Context, id string) (*models.Project, error) {
	project, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load project")
	}
	if err := s.decorate(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

// List returns all projects with derived display statuses.
func (s *ProjectService) List(ctx context.Context) ([]models.Project, error) {
	projects, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list projects")
	}
	for i := range projects {
		if err := s.decorate(ctx, &projects[i]); err != nil {
			return nil, err
		}
	}
	return projects, nil
}

// Update rewrites a project's mutable fields.
func (s *ProjectService) Update(ctx context.Context, id string, req dto.UpdateProjectRequest) (*models.Project, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid project payload")
	}
	project, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load project")
	}
	status := models.WorkItemStatus(req.Status)
	if !status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported project status")
	}
	start, due, err := parseDateRange(req.StartDate, req.DueDate)
	if err != nil {
		return nil, err
	}
	project.Name = req.Name
	project.Description = req.Description
	project.StartDate = start
	project.DueDate = due
	if status != project.Status {
		if status == models.StatusCompleted {
			now := time.Now().UTC()
			project.CompletedAt = &now
		} else {
			project.CompletedAt = nil
		}
		project.Status = status
	}
	if err := s.repo.Update(ctx, project); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update project")
	}
	if err := s.decorate(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

// SetStatus changes the persisted status directly, outside the review flow.
func (s *ProjectService) SetStatus(ctx context.Context, id string, req dto.SetStatusRequest) error {
	status := models.WorkItemStatus(req.Status)
	if !status.Valid() {
		return appErrors.Clone(appErrors.ErrValidation, "unsupported project status")
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
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update project status")
	}
	return nil
}

// Delete removes a project.
func (s *ProjectService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.ErrNotFound
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete project")
	}
	return nil
}

func (s *ProjectService) decorate(ctx context.Context, project *models.Project) error {
	pending, err := s.pending.HasPending(ctx, models.KindProject, project.ID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check pending requests")
	}
	project.DisplayStatus = models.DeriveDisplayStatus(project.Status, pending)
	return nil
}
