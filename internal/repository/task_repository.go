package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/teamtrack/teamtrack-api/internal/models"
)

const taskSelect = `SELECT t.id, t.project_id, t.assignee_id, t.name, t.description,
       t.start_date, t.due_date, t.status, t.completed_at, t.attachment, t.created_at, t.updated_at,
       COALESCE(p.name, '') AS project_name,
       COALESCE(u.username, '') AS assignee_name
	FROM tasks t
	LEFT JOIN projects p ON t.project_id = p.id
	LEFT JOIN users u ON t.assignee_id = u.id`

// TaskRepository persists task rows.
type TaskRepository struct {
	db *sqlx.DB
}

// NewTaskRepository constructs the repository.
func NewTaskRepository(db *sqlx.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// Create inserts a new task row.
func (r *TaskRepository) Create(ctx context.Context, task *models.Task) error {
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if task.CreatedAt.IsZero() {
		task.CreatedAt = now
	}
	task.UpdatedAt = now
	const query = `INSERT INTO tasks
	(id, project_id, assignee_id, name, description, start_date, due_date, status, completed_at, attachment, created_at, updated_at)
	VALUES (:id, :project_id, :assignee_id, :name, :description, :start_date, :due_date, :status, :completed_at, :attachment, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, task); err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

// GetByID fetches a task with project and assignee names joined.
func (r *TaskRepository) GetByID(ctx context.Context, id string) (*models.Task, error) {
	query := taskSelect + ` WHERE t.id = $1`
	var task models.Task
	if err := r.db.GetContext(ctx, &task, query, id); err != nil {
		return nil, err
	}
	return &task, nil
}

// List returns tasks matching the filter, newest first.
func (r *TaskRepository) List(ctx context.Context, filter models.TaskFilter) ([]models.Task, error) {
	query := taskSelect
	conditions := make([]string, 0, 3)
	args := make([]interface{}, 0, 3)
	if filter.ProjectID != "" {
		args = append(args, filter.ProjectID)
		conditions = append(conditions, fmt.Sprintf("t.project_id = $%d", len(args)))
	}
	if filter.AssigneeID != "" {
		args = append(args, filter.AssigneeID)
		conditions = append(conditions, fmt.Sprintf("t.assignee_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("t.status = $%d", len(args)))
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY t.created_at DESC"

	var tasks []models.Task
	if err := r.db.SelectContext(ctx, &tasks, query, args...); err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

// Update rewrites the mutable columns of a task.
func (r *TaskRepository) Update(ctx context.Context, task *models.Task) error {
	task.UpdatedAt = time.Now().UTC()
	const query = `UPDATE tasks
	SET project_id = :project_id, assignee_id = :assignee_id, name = :name, description = :description,
	    start_date = :start_date, due_date = :due_date, status = :status, completed_at = :completed_at,
	    attachment = :attachment, updated_at = :updated_at
	WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, task)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	return requireRowAffected(result, "task")
}

// SetStatus updates the persisted status and keeps completed_at consistent
// with it: set when completing, cleared otherwise.
func (r *TaskRepository) SetStatus(ctx context.Context, id string, status models.WorkItemStatus, completedAt *time.Time) error {
	const query = `UPDATE tasks SET status = $1, completed_at = $2, updated_at = $3 WHERE id = $4`
	result, err := r.db.ExecContext(ctx, query, status, completedAt, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("set task status: %w", err)
	}
	return requireRowAffected(result, "task")
}

// Delete removes a task row.
func (r *TaskRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return requireRowAffected(result, "task")
}
