package dto

// CreateTaskRequest is the manager payload for creating a task.
type CreateTaskRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description" validate:"required"`
	ProjectID   string `json:"project_id" validate:"required"`
	AssigneeID  string `json:"assignee_id"`
	StartDate   string `json:"start_date" validate:"required"`
	DueDate     string `json:"due_date" validate:"required"`
	Status      string `json:"status" validate:"required"`
}

// UpdateTaskRequest rewrites a task's mutable fields.
type UpdateTaskRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description" validate:"required"`
	ProjectID   string `json:"project_id" validate:"required"`
	AssigneeID  string `json:"assignee_id"`
	StartDate   string `json:"start_date" validate:"required"`
	DueDate     string `json:"due_date" validate:"required"`
	Status      string `json:"status" validate:"required"`
}

// SetStatusRequest changes the persisted status of a work item directly.
type SetStatusRequest struct {
	Status string `json:"status" validate:"required"`
}
