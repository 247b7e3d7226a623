package models

import "time"

// WorkItemKind distinguishes the two entities subject to the completion workflow.
type WorkItemKind string

const (
	KindTask    WorkItemKind = "TASK"
	KindProject WorkItemKind = "PROJECT"
)

// Valid reports whether the kind is one of the known values.
func (k WorkItemKind) Valid() bool {
	return k == KindTask || k == KindProject
}

// WorkItemStatus is the persisted, authoritative status of a task or project.
// "Pending Review" is never stored; it exists only as a derived DisplayStatus.
type WorkItemStatus string

const (
	StatusPending    WorkItemStatus = "PENDING"
	StatusInProgress WorkItemStatus = "IN_PROGRESS"
	StatusCompleted  WorkItemStatus = "COMPLETED"
)

// Valid reports whether the status is a known persisted value.
func (s WorkItemStatus) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// DisplayStatus is the computed presentation status combining the persisted
// status with the outstanding-review state of the ledger.
type DisplayStatus string

const DisplayPendingReview DisplayStatus = "PENDING_REVIEW"

// DeriveDisplayStatus applies the derivation rule: a pending completion request
// on a non-completed item reads as pending review, everything else reads as the
// persisted status.
func DeriveDisplayStatus(status WorkItemStatus, hasPendingRequest bool) DisplayStatus {
	if hasPendingRequest && status != StatusCompleted {
		return DisplayPendingReview
	}
	return DisplayStatus(status)
}

// WorkItem is the kind-agnostic view of a task or project consumed by the
// completion workflow engine.
type WorkItem struct {
	ID          string         `db:"id" json:"id"`
	Kind        WorkItemKind   `db:"-" json:"kind"`
	Name        string         `db:"name" json:"name"`
	AssigneeID  string         `db:"assignee_id" json:"assignee_id"`
	Status      WorkItemStatus `db:"status" json:"status"`
	CompletedAt *time.Time     `db:"completed_at" json:"completed_at,omitempty"`
}
