package models

import "time"

// NotificationType declares what a notification's related id points at.
type NotificationType string

const (
	NotificationTask    NotificationType = "TASK"
	NotificationProject NotificationType = "PROJECT"
	NotificationComment NotificationType = "COMMENT"
)

// Notification is a per-user inbox entry produced by workflow events.
type Notification struct {
	ID        string           `db:"id" json:"id"`
	UserID    string           `db:"user_id" json:"user_id"`
	Type      NotificationType `db:"type" json:"type"`
	RelatedID string           `db:"related_id" json:"related_id"`
	Message   string           `db:"message" json:"message"`
	Read      bool             `db:"read" json:"read"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt time.Time        `db:"updated_at" json:"updated_at"`
}
