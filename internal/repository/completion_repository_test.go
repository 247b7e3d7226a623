package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/teamtrack/teamtrack-api/internal/models"
)

func newCompletionRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func pendingRequest() *models.CompletionRequest {
	return &models.CompletionRequest{
		Kind:        models.KindTask,
		ItemID:      "task-1",
		RequesterID: "emp-1",
		Evidence:    "done, see report",
	}
}

func TestCompletionRepositoryCreatePending(t *testing.T) {
	db, mock, cleanup := newCompletionRepoMock(t)
	defer cleanup()

	repo := NewCompletionRepository(db)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM completion_requests WHERE kind = $1 AND item_id = $2 AND status = 'PENDING'")).
		WithArgs("TASK", "task-1").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO completion_requests")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	request := pendingRequest()
	require.NoError(t, repo.CreatePending(context.Background(), request))
	require.NotEmpty(t, request.ID)
	require.Equal(t, models.RequestPending, request.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCompletionRepositoryGetByIDJoinsItemName(t *testing.T) {
	db, mock, cleanup := newCompletionRepoMock(t)
	defer cleanup()

	repo := NewCompletionRepository(db)
	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{
		"id", "kind", "item_id", "requester_id", "evidence", "notes", "attachments",
		"status", "reviewer_id", "feedback", "created_at", "updated_at", "item_name",
	}).AddRow("req-1", "TASK", "task-1", "emp-1", "done", "", nil, "PENDING", nil, nil, now, now, "Design review")
	mock.ExpectQuery(regexp.QuoteMeta("COALESCE(t.name, p.name, '') AS item_name")).
		WithArgs("req-1").
		WillReturnRows(rows)

	request, err := repo.GetByID(context.Background(), "req-1")
	require.NoError(t, err)
	require.Equal(t, "Design review", request.ItemName)
	require.Equal(t, models.RequestPending, request.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCompletionRepositoryCreatePendingDuplicate(t *testing.T) {
	db, mock, cleanup := newCompletionRepoMock(t)
	defer cleanup()

	repo := NewCompletionRepository(db)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM completion_requests")).
		WithArgs("TASK", "task-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("req-existing"))
	mock.ExpectRollback()

	err := repo.CreatePending(context.Background(), pendingRequest())
	require.ErrorIs(t, err, ErrPendingExists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCompletionRepositoryCreatePendingLosesRace(t *testing.T) {
	db, mock, cleanup := newCompletionRepoMock(t)
	defer cleanup()

	repo := NewCompletionRepository(db)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM completion_requests")).
		WithArgs("TASK", "task-1").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO completion_requests")).
		WillReturnError(&pq.Error{Code: "23505"})
	mock.ExpectRollback()

	err := repo.CreatePending(context.Background(), pendingRequest())
	require.ErrorIs(t, err, ErrPendingRace)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCompletionRepositoryHasPending(t *testing.T) {
	db, mock, cleanup := newCompletionRepoMock(t)
	defer cleanup()

	repo := NewCompletionRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).
		WithArgs("PROJECT", "proj-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	pending, err := repo.HasPending(context.Background(), models.KindProject, "proj-1")
	require.NoError(t, err)
	require.True(t, pending)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCompletionRepositoryReviewApprove(t *testing.T) {
	db, mock, cleanup := newCompletionRepoMock(t)
	defer cleanup()

	repo := NewCompletionRepository(db)
	now := time.Now().UTC()
	feedback := "verified"

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE completion_requests")).
		WithArgs("APPROVED", "mgr-1", "verified", now, "req-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE tasks SET status = $1, completed_at = $2")).
		WithArgs("COMPLETED", now, "task-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.Review(context.Background(), ReviewParams{
		RequestID:  "req-1",
		Kind:       models.KindTask,
		ItemID:     "task-1",
		Decision:   models.RequestApproved,
		ReviewerID: "mgr-1",
		Feedback:   &feedback,
		ReviewedAt: now,
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCompletionRepositoryReviewRejectResetsItem(t *testing.T) {
	db, mock, cleanup := newCompletionRepoMock(t)
	defer cleanup()

	repo := NewCompletionRepository(db)
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE completion_requests")).
		WithArgs("REJECTED", "adm-1", nil, now, "req-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE projects SET status = $1, completed_at = NULL")).
		WithArgs("IN_PROGRESS", now, "proj-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.Review(context.Background(), ReviewParams{
		RequestID:  "req-1",
		Kind:       models.KindProject,
		ItemID:     "proj-1",
		Decision:   models.RequestRejected,
		ReviewerID: "adm-1",
		ReviewedAt: now,
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCompletionRepositoryReviewAlreadyResolved(t *testing.T) {
	db, mock, cleanup := newCompletionRepoMock(t)
	defer cleanup()

	repo := NewCompletionRepository(db)
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE completion_requests")).
		WithArgs("APPROVED", "mgr-1", nil, now, "req-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.Review(context.Background(), ReviewParams{
		RequestID:  "req-1",
		Kind:       models.KindTask,
		ItemID:     "task-1",
		Decision:   models.RequestApproved,
		ReviewerID: "mgr-1",
		ReviewedAt: now,
	})
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCompletionRepositoryListForItem(t *testing.T) {
	db, mock, cleanup := newCompletionRepoMock(t)
	defer cleanup()

	repo := NewCompletionRepository(db)
	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "kind", "item_id", "requester_id", "evidence", "notes", "attachments", "status", "reviewer_id", "feedback", "created_at", "updated_at", "requester_name", "reviewer_name"}).
		AddRow("req-2", "TASK", "task-1", "emp-1", "second try", "", nil, "PENDING", nil, nil, now, now, "alice", "").
		AddRow("req-1", "TASK", "task-1", "emp-1", "first try", "", nil, "REJECTED", "mgr-1", "incomplete", now.Add(-time.Hour), now.Add(-time.Hour), "alice", "bob")
	mock.ExpectQuery(regexp.QuoteMeta("FROM completion_requests cr")).
		WithArgs("TASK", "task-1", "emp-1").
		WillReturnRows(rows)

	requests, err := repo.ListForItem(context.Background(), models.KindTask, "task-1", "emp-1")
	require.NoError(t, err)
	require.Len(t, requests, 2)
	require.Equal(t, "req-2", requests[0].ID)
	require.Equal(t, "alice", requests[0].RequesterName)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCompletionRepositoryListPendingUnknownKind(t *testing.T) {
	db, _, cleanup := newCompletionRepoMock(t)
	defer cleanup()

	repo := NewCompletionRepository(db)
	_, err := repo.ListPending(context.Background(), models.WorkItemKind("MILESTONE"))
	require.Error(t, err)
}
