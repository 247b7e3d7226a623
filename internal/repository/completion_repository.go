package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/teamtrack/teamtrack-api/internal/models"
)

// Sentinel errors for the submission critical section. The service maps them
// onto the workflow taxonomy; pre-check hits and index races stay distinct.
var (
	// ErrPendingExists is returned when the in-transaction duplicate check
	// finds an open request for the same work item.
	ErrPendingExists = errors.New("pending completion request exists")
	// ErrPendingRace is returned when the partial unique index rejects the
	// insert, meaning a concurrent submission won the race after our check.
	ErrPendingRace = errors.New("lost race inserting pending completion request")
)

const pqUniqueViolation = "23505"

const completionColumns = `id, kind, item_id, requester_id, evidence, notes, attachments,
       status, reviewer_id, feedback, created_at, updated_at`

// CompletionRepository persists the completion-request ledger and performs the
// two transactional writes of the workflow: pending insert and review.
type CompletionRepository struct {
	db *sqlx.DB
}

// NewCompletionRepository constructs the repository.
func NewCompletionRepository(db *sqlx.DB) *CompletionRepository {
	return &CompletionRepository{db: db}
}

// CreatePending inserts a new PENDING ledger entry. The duplicate check and
// the insert run in one transaction; the partial unique index
// (kind, item_id) WHERE status = 'PENDING' backs the check against races the
// transaction isolation level does not cover.
func (r *CompletionRepository) CreatePending(ctx context.Context, request *models.CompletionRequest) error {
	if request.ID == "" {
		request.ID = uuid.NewString()
	}
	request.Status = models.RequestPending
	now := time.Now().UTC()
	if request.CreatedAt.IsZero() {
		request.CreatedAt = now
	}
	request.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin completion transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var existingID string
	const checkQuery = `SELECT id FROM completion_requests WHERE kind = $1 AND item_id = $2 AND status = 'PENDING'`
	err = tx.GetContext(ctx, &existingID, checkQuery, request.Kind, request.ItemID)
	if err == nil {
		err = ErrPendingExists
		return err
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("check pending completion request: %w", err)
	}
	err = nil

	const insertQuery = `INSERT INTO completion_requests
	(id, kind, item_id, requester_id, evidence, notes, attachments, status, reviewer_id, feedback, created_at, updated_at)
	VALUES (:id, :kind, :item_id, :requester_id, :evidence, :notes, :attachments, :status, :reviewer_id, :feedback, :created_at, :updated_at)`
	if _, err = tx.NamedExecContext(ctx, insertQuery, request); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			err = ErrPendingRace
			return err
		}
		return fmt.Errorf("insert completion request: %w", err)
	}

	if err = tx.Commit(); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			err = ErrPendingRace
			return err
		}
		return fmt.Errorf("commit completion request: %w", err)
	}
	return nil
}

// GetByID fetches a ledger entry by identifier, joined with the work item's
// display name. The kind decides which table the name comes from.
func (r *CompletionRepository) GetByID(ctx context.Context, id string) (*models.CompletionRequest, error) {
	const query = `SELECT cr.id, cr.kind, cr.item_id, cr.requester_id, cr.evidence, cr.notes, cr.attachments,
       cr.status, cr.reviewer_id, cr.feedback, cr.created_at, cr.updated_at,
       COALESCE(t.name, p.name, '') AS item_name
	FROM completion_requests cr
	LEFT JOIN tasks t ON cr.kind = 'TASK' AND cr.item_id = t.id
	LEFT JOIN projects p ON cr.kind = 'PROJECT' AND cr.item_id = p.id
	WHERE cr.id = $1`
	var request models.CompletionRequest
	if err := r.db.GetContext(ctx, &request, query, id); err != nil {
		return nil, err
	}
	return &request, nil
}

// HasPending reports whether an open request exists for the work item.
func (r *CompletionRepository) HasPending(ctx context.Context, kind models.WorkItemKind, itemID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM completion_requests WHERE kind = $1 AND item_id = $2 AND status = 'PENDING')`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, kind, itemID); err != nil {
		return false, fmt.Errorf("check pending completion request: %w", err)
	}
	return exists, nil
}

// ReviewParams groups the columns written by a review transaction.
type ReviewParams struct {
	RequestID  string
	Kind       models.WorkItemKind
	ItemID     string
	Decision   models.RequestStatus
	ReviewerID string
	Feedback   *string
	ReviewedAt time.Time
}

// Review applies a reviewer decision as one transaction: the guarded ledger
// transition out of PENDING plus the work-item status change. A zero-row
// ledger update means the request already left PENDING and the whole
// transaction is abandoned with sql.ErrNoRows.
func (r *CompletionRepository) Review(ctx context.Context, params ReviewParams) error {
	table, err := workItemTable(params.Kind)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin review transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const updateLedger = `UPDATE completion_requests
	SET status = $1, reviewer_id = $2, feedback = $3, updated_at = $4
	WHERE id = $5 AND status = 'PENDING'`
	result, err := tx.ExecContext(ctx, updateLedger,
		params.Decision, params.ReviewerID, params.Feedback, params.ReviewedAt, params.RequestID)
	if err != nil {
		return fmt.Errorf("update completion request: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check completion request rows: %w", err)
	}
	if rows == 0 {
		err = sql.ErrNoRows
		return err
	}

	if params.Decision == models.RequestApproved {
		updateItem := fmt.Sprintf(`UPDATE %s SET status = $1, completed_at = $2, updated_at = $2 WHERE id = $3`, table)
		_, err = tx.ExecContext(ctx, updateItem, models.StatusCompleted, params.ReviewedAt, params.ItemID)
	} else {
		updateItem := fmt.Sprintf(`UPDATE %s SET status = $1, completed_at = NULL, updated_at = $2 WHERE id = $3`, table)
		_, err = tx.ExecContext(ctx, updateItem, models.StatusInProgress, params.ReviewedAt, params.ItemID)
	}
	if err != nil {
		return fmt.Errorf("update work item status: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit review transaction: %w", err)
	}
	return nil
}

// ListForItem returns ledger entries for one work item, newest first, joined
// with requester and reviewer names. A non-empty requesterID narrows the
// result to that requester's own entries.
func (r *CompletionRepository) ListForItem(ctx context.Context, kind models.WorkItemKind, itemID, requesterID string) ([]models.CompletionRequest, error) {
	query := `SELECT cr.id, cr.kind, cr.item_id, cr.requester_id, cr.evidence, cr.notes, cr.attachments,
       cr.status, cr.reviewer_id, cr.feedback, cr.created_at, cr.updated_at,
       COALESCE(u.username, '') AS requester_name,
       COALESCE(rv.username, '') AS reviewer_name
	FROM completion_requests cr
	LEFT JOIN users u ON cr.requester_id = u.id
	LEFT JOIN users rv ON cr.reviewer_id = rv.id
	WHERE cr.kind = $1 AND cr.item_id = $2`
	args := []interface{}{kind, itemID}
	if requesterID != "" {
		query += ` AND cr.requester_id = $3`
		args = append(args, requesterID)
	}
	query += ` ORDER BY cr.created_at DESC`

	var requests []models.CompletionRequest
	if err := r.db.SelectContext(ctx, &requests, query, args...); err != nil {
		return nil, fmt.Errorf("list completion requests: %w", err)
	}
	return requests, nil
}

// ListPending returns all open requests of one kind, newest first, joined
// with the work item's display name and the requester identity.
func (r *CompletionRepository) ListPending(ctx context.Context, kind models.WorkItemKind) ([]models.CompletionRequest, error) {
	table, err := workItemTable(kind)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`SELECT cr.id, cr.kind, cr.item_id, cr.requester_id, cr.evidence, cr.notes, cr.attachments,
       cr.status, cr.reviewer_id, cr.feedback, cr.created_at, cr.updated_at,
       wi.name AS item_name,
       COALESCE(u.username, '') AS requester_name
	FROM completion_requests cr
	JOIN %s wi ON cr.item_id = wi.id
	JOIN users u ON cr.requester_id = u.id
	WHERE cr.kind = $1 AND cr.status = 'PENDING'
	ORDER BY cr.created_at DESC`, table)

	var requests []models.CompletionRequest
	if err := r.db.SelectContext(ctx, &requests, query, kind); err != nil {
		return nil, fmt.Errorf("list pending completion requests: %w", err)
	}
	return requests, nil
}

// HistoryFilter constrains reviewed-history queries for exports.
type HistoryFilter struct {
	Kind   models.WorkItemKind
	Since  *time.Time
	Status models.RequestStatus
}

// ListHistory returns reviewed (non-pending) ledger entries, newest first.
func (r *CompletionRepository) ListHistory(ctx context.Context, filter HistoryFilter) ([]models.CompletionRequest, error) {
	query := `SELECT cr.id, cr.kind, cr.item_id, cr.requester_id, cr.evidence, cr.notes, cr.attachments,
       cr.status, cr.reviewer_id, cr.feedback, cr.created_at, cr.updated_at,
       COALESCE(u.username, '') AS requester_name,
       COALESCE(rv.username, '') AS reviewer_name
	FROM completion_requests cr
	LEFT JOIN users u ON cr.requester_id = u.id
	LEFT JOIN users rv ON cr.reviewer_id = rv.id
	WHERE cr.status <> 'PENDING'`
	args := make([]interface{}, 0, 3)
	if filter.Kind != "" {
		args = append(args, filter.Kind)
		query += fmt.Sprintf(" AND cr.kind = $%d", len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(" AND cr.status = $%d", len(args))
	}
	if filter.Since != nil {
		args = append(args, *filter.Since)
		query += fmt.Sprintf(" AND cr.updated_at >= $%d", len(args))
	}
	query += ` ORDER BY cr.updated_at DESC`

	var requests []models.CompletionRequest
	if err := r.db.SelectContext(ctx, &requests, query, args...); err != nil {
		return nil, fmt.Errorf("list completion history: %w", err)
	}
	return requests, nil
}
