// internal/models/review.go
package models

import "time"

// ReviewRecord marks an application as claimed by a reviewer. Its existence
// is the claim; deleting it releases the application back to the queue.
type ReviewRecord struct {
	ApplicationID string    `json:"applicationId"`
	ReviewerID    string    `json:"reviewerId"`
	CreatedAt     time.Time `json:"createdAt"`
	LastAccessed  time.Time `json:"lastAccessed"`
}

// FieldComment is a reviewer's verdict on a single field of the entity it
// critiques (an application, person, or address record).
type FieldComment struct {
	EntityID  string    `json:"entityId"`
	FieldName string    `json:"fieldName"`
	Comment   string    `json:"comment"`
	Flagged   bool      `json:"flagged"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// FieldReview is one field of a section submission as the reviewer filled
// it in.
type FieldReview struct {
	Name    string `json:"name"`
	Flagged bool   `json:"flagged"`
	Comment string `json:"comment"`
}
