package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/teamtrack/teamtrack-api/internal/dto"
	"github.com/teamtrack/teamtrack-api/internal/models"
	appErrors "github.com/teamtrack/teamtrack-api/pkg/errors"
)

type projectStoreStub struct {
	projects map[string]*models.Project
}

func newProjectStoreStub() *projectStoreStub {
	return &projectStoreStub{projects: make(map[string]*models.Project)}
}

func (s *projectStoreStub) Create(ctx context.Context, project *models.Project) error {
	copy := *project
	s.projects[project.ID] = &copy
	return nil
}

func (s *projectStoreStub) GetByID(ctx context.Context, id string) (*models.Project, error) {
	if project, ok := s.projects[id]; ok {
		copy := *project
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (s *projectStoreStub) List(ctx context.Context) ([]models.Project, error) {
	var out []models.Project
	for _, project := range s.projects {
		out = append(out, *project)
	}
	return out, nil
}

func (s *projectStoreStub) Update(ctx context.Context, project *models.Project) error {
	if _, ok := s.projects[project.ID]; !ok {
		return sql.ErrNoRows
	}
	copy := *project
	s.projects[project.ID] = &copy
	return nil
}

func (s *projectStoreStub) SetStatus(ctx context.Context, id string, status models.WorkItemStatus, completedAt *time.Time) error {
	project, ok := s.projects[id]
	if !ok {
		return sql.ErrNoRows
	}
	project.Status = status
	project.CompletedAt = completedAt
	return nil
}

func (s *projectStoreStub) Delete(ctx context.Context, id string) error {
	if _, ok := s.projects[id]; !ok {
		return sql.ErrNoRows
	}
	delete(s.projects, id)
	return nil
}

func TestProjectServiceCreate(t *testing.T) {
	store := newProjectStoreStub()
	svc := NewProjectService(store, &pendingLookupStub{}, nil, nil)

	project, err := svc.Create(context.Background(), dto.CreateProjectRequest{
		Name:        "Platform migration",
		Description: "Move services to the new cluster",
		StartDate:   "2026-09-01",
		DueDate:     "2026-12-01",
	}, adminClaims("adm-1"))
	require.NoError(t, err)
	require.Equal(t, models.StatusPending, project.Status)
	require.Equal(t, "adm-1", project.CreatedBy)
}

func TestProjectServiceCreateRejectsEmptyPayload(t *testing.T) {
	store := newProjectStoreStub()
	svc := NewProjectService(store, &pendingLookupStub{}, nil, nil)

	_, err := svc.Create(context.Background(), dto.CreateProjectRequest{}, adminClaims("adm-1"))
	require.ErrorIs(t, err, appErrors.ErrValidation)
	require.Empty(t, store.projects)
}

func TestProjectServiceGetDerivesPendingReview(t *testing.T) {
	store := newProjectStoreStub()
	store.projects["proj-1"] = &models.Project{ID: "proj-1", Status: models.StatusInProgress}
	pending := &pendingLookupStub{pending: map[string]bool{"PROJECT/proj-1": true}}
	svc := NewProjectService(store, pending, nil, nil)

	project, err := svc.Get(context.Background(), "proj-1")
	require.NoError(t, err)
	require.Equal(t, models.DisplayPendingReview, project.DisplayStatus)
}

func TestProjectServiceGetCompletedNeverPendingReview(t *testing.T) {
	store := newProjectStoreStub()
	store.projects["proj-1"] = &models.Project{ID: "proj-1", Status: models.StatusCompleted}
	pending := &pendingLookupStub{pending: map[string]bool{"PROJECT/proj-1": true}}
	svc := NewProjectService(store, pending, nil, nil)

	project, err := svc.Get(context.Background(), "proj-1")
	require.NoError(t, err)
	require.Equal(t, models.DisplayStatus("COMPLETED"), project.DisplayStatus)
}

func TestProjectServiceUpdateMissing(t *testing.T) {
	svc := NewProjectService(newProjectStoreStub(), &pendingLookupStub{}, nil, nil)

	_, err := svc.Update(context.Background(), "nope", dto.UpdateProjectRequest{
		Name:        "x",
		Description: "y",
		StartDate:   "2026-09-01",
		DueDate:     "2026-12-01",
		Status:      "PENDING",
	})
	require.ErrorIs(t, err, appErrors.ErrNotFound)
}
