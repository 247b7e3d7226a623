package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/teamtrack/teamtrack-api/internal/models"
)

// workItemTable maps a work-item kind to its backing table. Both tables share
// the status columns the workflow engine touches.
func workItemTable(kind models.WorkItemKind) (string, error) {
	switch kind {
	case models.KindTask:
		return "tasks", nil
	case models.KindProject:
		return "projects", nil
	}
	return "", fmt.Errorf("unknown work item kind: %s", kind)
}

// WorkItemRepository reads the kind-agnostic view of tasks and projects that
// the completion workflow engine operates on.
type WorkItemRepository struct {
	db *sqlx.DB
}

// NewWorkItemRepository constructs the repository.
func NewWorkItemRepository(db *sqlx.DB) *WorkItemRepository {
	return &WorkItemRepository{db: db}
}

// Get fetches a work item by kind and id. Projects carry no assignee; the
// field stays empty for them.
func (r *WorkItemRepository) Get(ctx context.Context, kind models.WorkItemKind, id string) (*models.WorkItem, error) {
	table, err := workItemTable(kind)
	if err != nil {
		return nil, err
	}

	var item models.WorkItem
	if kind == models.KindTask {
		query := fmt.Sprintf(`SELECT id, name, assignee_id, status, completed_at FROM %s WHERE id = $1`, table)
		if err := r.db.GetContext(ctx, &item, query, id); err != nil {
			return nil, err
		}
	} else {
		query := fmt.Sprintf(`SELECT id, name, status, completed_at FROM %s WHERE id = $1`, table)
		if err := r.db.GetContext(ctx, &item, query, id); err != nil {
			return nil, err
		}
	}
	item.Kind = kind
	return &item, nil
}
