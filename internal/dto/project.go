package dto

// CreateProjectRequest is the admin payload for creating a project.
type CreateProjectRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description" validate:"required"`
	StartDate   string `json:"start_date" validate:"required"`
	DueDate     string `json:"due_date" validate:"required"`
}

// UpdateProjectRequest rewrites a project's mutable fields.
type UpdateProjectRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description" validate:"required"`
	StartDate   string `json:"start_date" validate:"required"`
	DueDate     string `json:"due_date" validate:"required"`
	Status      string `json:"status" validate:"required"`
}
