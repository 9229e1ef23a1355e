// internal/models/application.go
package models

import "time"

// ApplicationStatus tracks an application through its lifecycle.
type ApplicationStatus string

const (
	StatusDrafting           ApplicationStatus = "DRAFTING"
	StatusSubmitted          ApplicationStatus = "SUBMITTED"
	StatusArcReview          ApplicationStatus = "ARC_REVIEW"
	StatusAccepted           ApplicationStatus = "ACCEPTED"
	StatusFurtherInformation ApplicationStatus = "FURTHER_INFORMATION"
)

// SectionStatus is the per-section review state, shared between the
// applicant-facing projection and the review-side records.
type SectionStatus string

const (
	SectionNotStarted SectionStatus = "NOT_STARTED"
	SectionFlagged    SectionStatus = "FLAGGED"
	SectionCompleted  SectionStatus = "COMPLETED"
)

// Characteristics are the three application properties that drive the
// field rule matrix.
type Characteristics struct {
	CaresForAgeZeroToFive       bool `json:"caresForAgeZeroToFive"`
	HasOwnChildren              bool `json:"hasOwnChildren"`
	WorksInOtherChildminderHome bool `json:"worksInOtherChildminderHome"`
}

// Application is the applicant-owned record. The engine mutates it only at
// release time; everything before submission belongs to the applicant flow.
type Application struct {
	ID                string            `json:"id"`
	Reference         string            `json:"reference"`
	FirstName         string            `json:"firstName"`
	EmailAddress      string            `json:"emailAddress"`
	PhoneNumber       string            `json:"phoneNumber,omitempty"`
	Status            ApplicationStatus `json:"status"`
	DeclarationStatus SectionStatus     `json:"declarationStatus"`
	Characteristics   Characteristics   `json:"characteristics"`
	DateCreated       time.Time         `json:"dateCreated"`
	DateSubmitted     *time.Time        `json:"dateSubmitted,omitempty"`
	DateAccepted      *time.Time        `json:"dateAccepted,omitempty"`
}
