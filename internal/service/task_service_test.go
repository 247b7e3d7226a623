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

type taskStoreStub struct {
	tasks      map[string]*models.Task
	lastFilter models.TaskFilter
}

func newTaskStoreStub() *taskStoreStub {
	return &taskStoreStub{tasks: make(map[string]*models.Task)}
}

func (s *taskStoreStub) Create(ctx context.Context, task *models.Task) error {
	copy := *task
	s.tasks[task.ID] = &copy
	return nil
}

func (s *taskStoreStub) GetByID(ctx context.Context, id string) (*models.Task, error) {
	if task, ok := s.tasks[id]; ok {
		copy := *task
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (s *taskStoreStub) List(ctx context.Context, filter models.TaskFilter) ([]models.Task, error) {
	s.lastFilter = filter
	var out []models.Task
	for _, task := range s.tasks {
		if filter.AssigneeID != "" && task.AssigneeID != filter.AssigneeID {
			continue
		}
		if filter.ProjectID != "" && task.ProjectID != filter.ProjectID {
			continue
		}
		out = append(out, *task)
	}
	return out, nil
}

func (s *taskStoreStub) Update(ctx context.Context, task *models.Task) error {
	if _, ok := s.tasks[task.ID]; !ok {
		return sql.ErrNoRows
	}
	copy := *task
	s.tasks[task.ID] = &copy
	return nil
}

func (s *taskStoreStub) SetStatus(ctx context.Context, id string, status models.WorkItemStatus, completedAt *time.Time) error {
	task, ok := s.tasks[id]
	if !ok {
		return sql.ErrNoRows
	}
	task.Status = status
	task.CompletedAt = completedAt
	return nil
}

func (s *taskStoreStub) Delete(ctx context.Context, id string) error {
	if _, ok := s.tasks[id]; !ok {
		return sql.ErrNoRows
	}
	delete(s.tasks, id)
	return nil
}

type pendingLookupStub struct {
	pending map[string]bool
}

func (p *pendingLookupStub) HasPending(ctx context.Context, kind models.WorkItemKind, itemID string) (bool, error) {
	return p.pending[string(kind)+"/"+itemID], nil
}

type assigneeLookupStub struct {
	users map[string]*models.User
}

func (s *assigneeLookupStub) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := s.users[id]; ok {
		copy := *u
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

type projectLookupStub struct {
	projects map[string]*models.Project
}

func (s *projectLookupStub) GetByID(ctx context.Context, id string) (*models.Project, error) {
	if p, ok := s.projects[id]; ok {
		copy := *p
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

// newTestTaskService seeds one project and one employee so reference checks
// pass for the common fixtures.
func newTestTaskService(store *taskStoreStub, pending *pendingLookupStub) *TaskService {
	users := &assigneeLookupStub{users: map[string]*models.User{
		"emp-1": {ID: "emp-1", Username: "maya", Role: models.RoleEmployee},
		"mgr-1": {ID: "mgr-1", Username: "ravi", Role: models.RoleManager},
	}}
	projects := &projectLookupStub{projects: map[string]*models.Project{
		"proj-1": {ID: "proj-1", Name: "Q3 launch"},
	}}
	return NewTaskService(store, pending, users, projects, nil, nil)
}

func TestTaskServiceCreate(t *testing.T) {
	store := newTaskStoreStub()
	svc := newTestTaskService(store, &pendingLookupStub{})

	task, err := svc.Create(context.Background(), dto.CreateTaskRequest{
		Name:        "Write migration",
		Description: "Schema change for reviews",
		ProjectID:   "proj-1",
		AssigneeID:  "emp-1",
		StartDate:   "2026-08-01",
		DueDate:     "2026-08-15",
		Status:      "PENDING",
	})
	require.NoError(t, err)
	require.NotEmpty(t, task.ID)
	require.Equal(t, models.StatusPending, task.Status)
	require.Equal(t, models.DisplayStatus("PENDING"), task.DisplayStatus)
}

func TestTaskServiceCreateRejectsBadDates(t *testing.T) {
	svc := newTestTaskService(newTaskStoreStub(), &pendingLookupStub{})

	_, err := svc.Create(context.Background(), dto.CreateTaskRequest{
		Name:        "x",
		Description: "y",
		ProjectID:   "proj-1",
		StartDate:   "2026-08-15",
		DueDate:     "2026-08-01",
		Status:      "PENDING",
	})
	require.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestTaskServiceCreateRejectsEmptyPayload(t *testing.T) {
	store := newTaskStoreStub()
	svc := newTestTaskService(store, &pendingLookupStub{})

	_, err := svc.Create(context.Background(), dto.CreateTaskRequest{})
	require.ErrorIs(t, err, appErrors.ErrValidation)
	require.Empty(t, store.tasks)
}

func TestTaskServiceCreateRejectsNonEmployeeAssignee(t *testing.T) {
	svc := newTestTaskService(newTaskStoreStub(), &pendingLookupStub{})

	_, err := svc.Create(context.Background(), dto.CreateTaskRequest{
		Name:        "Write migration",
		Description: "Schema change for reviews",
		ProjectID:   "proj-1",
		AssigneeID:  "mgr-1",
		StartDate:   "2026-08-01",
		DueDate:     "2026-08-15",
		Status:      "PENDING",
	})
	require.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestTaskServiceCreateRejectsMissingProject(t *testing.T) {
	svc := newTestTaskService(newTaskStoreStub(), &pendingLookupStub{})

	_, err := svc.Create(context.Background(), dto.CreateTaskRequest{
		Name:        "Write migration",
		Description: "Schema change for reviews",
		ProjectID:   "proj-missing",
		AssigneeID:  "emp-1",
		StartDate:   "2026-08-01",
		DueDate:     "2026-08-15",
		Status:      "PENDING",
	})
	require.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestTaskServiceGetDerivesPendingReview(t *testing.T) {
	store := newTaskStoreStub()
	store.tasks["task-1"] = &models.Task{ID: "task-1", Status: models.StatusInProgress}
	pending := &pendingLookupStub{pending: map[string]bool{"TASK/task-1": true}}
	svc := newTestTaskService(store, pending)

	task, err := svc.Get(context.Background(), "task-1")
	require.NoError(t, err)
	require.Equal(t, models.DisplayPendingReview, task.DisplayStatus)
	require.Equal(t, models.StatusInProgress, task.Status)
}

func TestTaskServiceListScopesEmployees(t *testing.T) {
	store := newTaskStoreStub()
	store.tasks["task-1"] = &models.Task{ID: "task-1", AssigneeID: "emp-1", Status: models.StatusPending}
	store.tasks["task-2"] = &models.Task{ID: "task-2", AssigneeID: "emp-2", Status: models.StatusPending}
	svc := newTestTaskService(store, &pendingLookupStub{})

	tasks, err := svc.List(context.Background(), models.TaskFilter{}, employeeClaims("emp-1"))
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	require.Equal(t, "task-1", tasks[0].ID)

	tasks, err = svc.List(context.Background(), models.TaskFilter{}, managerClaims("mgr-1"))
	require.NoError(t, err)
	require.Len(t, tasks, 2)
}

func TestTaskServiceSetStatusCompleted(t *testing.T) {
	store := newTaskStoreStub()
	store.tasks["task-1"] = &models.Task{ID: "task-1", Status: models.StatusInProgress}
	svc := newTestTaskService(store, &pendingLookupStub{})

	err := svc.SetStatus(context.Background(), "task-1", dto.SetStatusRequest{Status: "COMPLETED"})
	require.NoError(t, err)
	require.Equal(t, models.StatusCompleted, store.tasks["task-1"].Status)
	require.NotNil(t, store.tasks["task-1"].CompletedAt)
}

func TestTaskServiceDeleteMissing(t *testing.T) {
	svc := newTestTaskService(newTaskStoreStub(), &pendingLookupStub{})
	err := svc.Delete(context.Background(), "nope")
	require.ErrorIs(t, err, appErrors.ErrNotFound)
}
