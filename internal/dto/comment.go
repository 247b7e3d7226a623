package dto

// CreateCommentRequest adds a comment to a task.
type CreateCommentRequest struct {
	Content string `json:"content" validate:"required"`
}

// UpdateCommentRequest rewrites an own comment's body.
type UpdateCommentRequest struct {
	Content string `json:"content" validate:"required"`
}
