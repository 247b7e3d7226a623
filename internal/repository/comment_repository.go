package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/teamtrack/teamtrack-api/internal/models"
)

const commentSelect = `SELECT c.id, c.task_id, c.author_id, c.content, c.created_at, c.updated_at,
       COALESCE(u.username, '') AS author_name
	FROM comments c
	LEFT JOIN users u ON c.author_id = u.id`

// CommentRepository persists task comments.
type CommentRepository struct {
	db *sqlx.DB
}

// NewCommentRepository constructs the repository.
func NewCommentRepository(db *sqlx.DB) *CommentRepository {
	return &CommentRepository{db: db}
}

// Create inserts a new comment row.
func (r *CommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	if comment.ID == "" {
		comment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = now
	}
	comment.UpdatedAt = now
	const query = `INSERT INTO comments (id, task_id, author_id, content, created_at, updated_at)
	VALUES (:id, :task_id, :author_id, :content, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, comment); err != nil {
		return fmt.Errorf("create comment: %w", err)
	}
	return nil
}

// GetByID fetches a comment with the author name joined.
func (r *CommentRepository) GetByID(ctx context.Context, id string) (*models.Comment, error) {
	query := commentSelect + ` WHERE c.id = $1`
	var comment models.Comment
	if err := r.db.GetContext(ctx, &comment, query, id); err != nil {
		return nil, err
	}
	return &comment, nil
}

// ListByTask returns a task's comments, oldest first.
func (r *CommentRepository) ListByTask(ctx context.Context, taskID string) ([]models.Comment, error) {
	query := commentSelect + ` WHERE c.task_id = $1 ORDER BY c.created_at ASC`
	var comments []models.Comment
	if err := r.db.SelectContext(ctx, &comments, query, taskID); err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return comments, nil
}

// UpdateContent rewrites a comment's body.
func (r *CommentRepository) UpdateContent(ctx context.Context, id, content string) error {
	const query = `UPDATE comments SET content = $1, updated_at = $2 WHERE id = $3`
	result, err := r.db.ExecContext(ctx, query, content, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update comment: %w", err)
	}
	return requireRowAffected(result, "comment")
}

// Delete removes a comment row.
func (r *CommentRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	return requireRowAffected(result, "comment")
}
