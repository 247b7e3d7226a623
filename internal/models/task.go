package models

import "time"

// Task is a unit of work assigned to an employee within a project.
type Task struct {
	ID          string         `db:"id" json:"id"`
	ProjectID   string         `db:"project_id" json:"project_id"`
	AssigneeID  string         `db:"assignee_id" json:"assignee_id"`
	Name        string         `db:"name" json:"name"`
	Description string         `db:"description" json:"description"`
	StartDate   time.Time      `db:"start_date" json:"start_date"`
	DueDate     time.Time      `db:"due_date" json:"due_date"`
	Status      WorkItemStatus `db:"status" json:"status"`
	CompletedAt *time.Time     `db:"completed_at" json:"completed_at,omitempty"`
	Attachment  *string        `db:"attachment" json:"attachment,omitempty"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at"`

	// Joined columns populated by list/get queries.
	ProjectName  string `db:"project_name" json:"project_name,omitempty"`
	AssigneeName string `db:"assignee_name" json:"assignee_name,omitempty"`

	// DisplayStatus is derived per read and never persisted.
	DisplayStatus DisplayStatus `db:"-" json:"display_status,omitempty"`
}

// WorkItem converts the task into the engine's kind-agnostic view.
func (t *Task) WorkItem() WorkItem {
	return WorkItem{
		ID:          t.ID,
		Kind:        KindTask,
		Name:        t.Name,
		AssigneeID:  t.AssigneeID,
		Status:      t.Status,
		CompletedAt: t.CompletedAt,
	}
}

// TaskFilter constrains task listing queries.
type TaskFilter struct {
	ProjectID  string
	AssigneeID string
	Status     WorkItemStatus
}
