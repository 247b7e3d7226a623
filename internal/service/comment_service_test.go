package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/teamtrack/teamtrack-api/internal/dto"
	"github.com/teamtrack/teamtrack-api/internal/models"
	appErrors "github.com/teamtrack/teamtrack-api/pkg/errors"
)

type commentStoreStub struct {
	comments map[string]*models.Comment
}

func newCommentStoreStub() *commentStoreStub {
	return &commentStoreStub{comments: make(map[string]*models.Comment)}
}

func (s *commentStoreStub) Create(ctx context.Context, comment *models.Comment) error {
	copy := *comment
	s.comments[comment.ID] = &copy
	return nil
}

func (s *commentStoreStub) GetByID(ctx context.Context, id string) (*models.Comment, error) {
	if comment, ok := s.comments[id]; ok {
		copy := *comment
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (s *commentStoreStub) ListByTask(ctx context.Context, taskID string) ([]models.Comment, error) {
	var out []models.Comment
	for _, comment := range s.comments {
		if comment.TaskID == taskID {
			out = append(out, *comment)
		}
	}
	return out, nil
}

func (s *commentStoreStub) UpdateContent(ctx context.Context, id, content string) error {
	comment, ok := s.comments[id]
	if !ok {
		return sql.ErrNoRows
	}
	comment.Content = content
	return nil
}

func (s *commentStoreStub) Delete(ctx context.Context, id string) error {
	if _, ok := s.comments[id]; !ok {
		return sql.ErrNoRows
	}
	delete(s.comments, id)
	return nil
}

func TestCommentServiceCreate(t *testing.T) {
	store := newCommentStoreStub()
	tasks := newTaskStoreStub()
	tasks.tasks["task-1"] = &models.Task{ID: "task-1", Status: models.StatusInProgress}
	svc := NewCommentService(store, tasks, nil)

	comment, err := svc.Create(context.Background(), "task-1", dto.CreateCommentRequest{Content: "looks good"}, employeeClaims("emp-1"))
	require.NoError(t, err)
	require.Equal(t, "emp-1", comment.AuthorID)
	require.Equal(t, "looks good", comment.Content)
}

func TestCommentServiceCreateMissingTask(t *testing.T) {
	svc := NewCommentService(newCommentStoreStub(), newTaskStoreStub(), nil)

	_, err := svc.Create(context.Background(), "nope", dto.CreateCommentRequest{Content: "x"}, employeeClaims("emp-1"))
	require.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestCommentServiceUpdateOwnership(t *testing.T) {
	store := newCommentStoreStub()
	store.comments["c-1"] = &models.Comment{ID: "c-1", TaskID: "task-1", AuthorID: "emp-1", Content: "draft"}
	svc := NewCommentService(store, newTaskStoreStub(), nil)

	_, err := svc.Update(context.Background(), "c-1", dto.UpdateCommentRequest{Content: "edited"}, employeeClaims("emp-2"))
	require.ErrorIs(t, err, appErrors.ErrForbidden)

	updated, err := svc.Update(context.Background(), "c-1", dto.UpdateCommentRequest{Content: "edited"}, employeeClaims("emp-1"))
	require.NoError(t, err)
	require.Equal(t, "edited", updated.Content)

	updated, err = svc.Update(context.Background(), "c-1", dto.UpdateCommentRequest{Content: "moderated"}, adminClaims("adm-1"))
	require.NoError(t, err)
	require.Equal(t, "moderated", updated.Content)
}

func TestCommentServiceDeleteOwnership(t *testing.T) {
	store := newCommentStoreStub()
	store.comments["c-1"] = &models.Comment{ID: "c-1", TaskID: "task-1", AuthorID: "emp-1"}
	svc := NewCommentService(store, newTaskStoreStub(), nil)

	err := svc.Delete(context.Background(), "c-1", employeeClaims("emp-2"))
	require.ErrorIs(t, err, appErrors.ErrForbidden)

	err = svc.Delete(context.Background(), "c-1", employeeClaims("emp-1"))
	require.NoError(t, err)
}
