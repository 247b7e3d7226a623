package models

// CompletionRequestedEvent is emitted after a completion request is persisted.
type CompletionRequestedEvent struct {
	Kind        WorkItemKind `json:"kind"`
	ItemID      string       `json:"item_id"`
	ItemName    string       `json:"item_name"`
	RequestID   string       `json:"request_id"`
	RequesterID string       `json:"requester_id"`
}

// CompletionReviewedEvent is emitted after a review transaction commits.
type CompletionReviewedEvent struct {
	Kind        WorkItemKind  `json:"kind"`
	ItemID      string        `json:"item_id"`
	ItemName    string        `json:"item_name"`
	RequestID   string        `json:"request_id"`
	RequesterID string        `json:"requester_id"`
	ReviewerID  string        `json:"reviewer_id"`
	Decision    RequestStatus `json:"decision"`
	Feedback    string        `json:"feedback,omitempty"`
}
