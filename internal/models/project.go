package models

import "time"

// Project groups tasks under a shared deadline and completion state.
type Project struct {
	ID          string         `db:"id" json:"id"`
	Name        string         `db:"name" json:"name"`
	Description string         `db:"description" json:"description"`
	StartDate   time.Time      `db:"start_date" json:"start_date"`
	DueDate     time.Time      `db:"due_date" json:"due_date"`
	Status      WorkItemStatus `db:"status" json:"status"`
	CompletedAt *time.Time     `db:"completed_at" json:"completed_at,omitempty"`
	CreatedBy   string         `db:"created_by" json:"created_by"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at"`

	// DisplayStatus is derived per read and never persisted.
	DisplayStatus DisplayStatus `db:"-" json:"display_status,omitempty"`
}

// WorkItem converts the project into the engine's kind-agnostic view.
// Projects carry no single assignee; any employee may request completion.
func (p *Project) WorkItem() WorkItem {
	return WorkItem{
		ID:          p.ID,
		Kind:        KindProject,
		Name:        p.Name,
		Status:      p.Status,
		CompletedAt: p.CompletedAt,
	}
}
