package models

import (
	"strings"
	"time"
)

// RequestStatus captures the lifecycle of a completion request. PENDING is the
// only non-terminal state; a request leaves it exactly once.
type RequestStatus string

const (
	RequestPending  RequestStatus = "PENDING"
	RequestApproved RequestStatus = "APPROVED"
	RequestRejected RequestStatus = "REJECTED"
)

// ReviewDecision is the reviewer's verdict on a pending request.
type ReviewDecision = RequestStatus

// CompletionRequest is a ledger entry claiming a work item is finished.
// At most one request per work item may be PENDING at any instant.
type CompletionRequest struct {
	ID          string        `db:"id" json:"id"`
	Kind        WorkItemKind  `db:"kind" json:"kind"`
	ItemID      string        `db:"item_id" json:"item_id"`
	RequesterID string        `db:"requester_id" json:"requester_id"`
	Evidence    string        `db:"evidence" json:"evidence"`
	Notes       string        `db:"notes" json:"notes"`
	Attachments *string       `db:"attachments" json:"attachments,omitempty"`
	Status      RequestStatus `db:"status" json:"status"`
	ReviewerID  *string       `db:"reviewer_id" json:"reviewer_id,omitempty"`
	Feedback    *string       `db:"feedback" json:"feedback,omitempty"`
	CreatedAt   time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time     `db:"updated_at" json:"updated_at"`

	// Joined columns populated by listing queries.
	ItemName      string `db:"item_name" json:"item_name,omitempty"`
	RequesterName string `db:"requester_name" json:"requester_name,omitempty"`
	ReviewerName  string `db:"reviewer_name" json:"reviewer_name,omitempty"`
}

// AttachmentPaths splits the stored comma-separated attachment references.
func (r *CompletionRequest) AttachmentPaths() []string {
	if r.Attachments == nil || *r.Attachments == "" {
		return nil
	}
	return strings.Split(*r.Attachments, ",")
}

// JoinAttachmentPaths encodes attachment references for storage. Returns nil
// when there are none so the column stays NULL.
func JoinAttachmentPaths(paths []string) *string {
	if len(paths) == 0 {
		return nil
	}
	joined := strings.Join(paths, ",")
	return &joined
}
