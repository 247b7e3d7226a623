package dto

import "time"

// SubmitCompletionRequest carries the contributor's evidence payload.
// Attachment paths are filled in by the handler after storing uploads, never
// bound from the request body.
type SubmitCompletionRequest struct {
	Evidence    string   `json:"evidence" form:"evidence" validate:"required"`
	Notes       string   `json:"notes" form:"notes"`
	Attachments []string `json:"-" form:"-"`
}

// ReviewCompletionRequest carries the reviewer's verdict.
type ReviewCompletionRequest struct {
	Decision string `json:"decision" validate:"required"`
	Feedback string `json:"feedback"`
}

// AttachmentLink is a signed, short-lived download reference for one stored
// evidence attachment.
type AttachmentLink struct {
	Name      string    `json:"name"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// DisplayStatusResponse reports the derived status of one work item.
type DisplayStatusResponse struct {
	ItemID        string `json:"item_id"`
	Kind          string `json:"kind"`
	Status        string `json:"status"`
	DisplayStatus string `json:"display_status"`
}
