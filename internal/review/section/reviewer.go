// internal/review/section/reviewer.go

// Package section records a reviewer's verdict on one section of an
// application and derives the section's status from it.
package section

import (
	"context"

	apperrors "childminder-review/internal/common/errors"
	"childminder-review/internal/common/logger"
	"childminder-review/internal/common/metrics"
	"childminder-review/internal/models"
	"childminder-review/internal/review/rules"
	"childminder-review/internal/review/store"
)

type Reviewer struct {
	store  *store.Store
	logger logger.Logger
}

func NewReviewer(st *store.Store, log logger.Logger) *Reviewer {
	return &Reviewer{
		store:  st,
		logger: log.WithFields(map[string]interface{}{"component": "section-reviewer"}),
	}
}

// Result is the outcome of one section submission.
type Result struct {
	Section  rules.Section         `json:"section"`
	Status   models.SectionStatus  `json:"status"`
	Comments []models.FieldComment `json:"comments"`
}

// SubmitSection persists the reviewer's flags and comments for one section
// of the entity under review and derives the section status.
//
// Rules per field:
//   - flagged without a comment: the whole submission is rejected with a
//     MISSING_REASON error and nothing is persisted,
//   - flagged with a comment: the comment row is created or replaced with
//     flagged set,
//   - not flagged but a comment remains: the comment row is kept without the
//     flag,
//   - not flagged and no comment: any previous comment row is deleted and
//     the field returns to pass.
//
// The returned comment list contains the flagged rows written by this
// submission; an empty list means the section passed. The derived status
// (FLAGGED or COMPLETED) is written to the review-side record and mirrored
// onto the applicant-facing projection.
func (r *Reviewer) SubmitSection(ctx context.Context, applicationID, entityID string, sec rules.Section, fields []models.FieldReview) (*Result, error) {
	if !rules.Known(sec) {
		return nil, apperrors.NewRecordNotFoundError("section", string(sec))
	}

	// Validate before any write so a rejected submission leaves no trace.
	var missing []string
	for _, f := range fields {
		if f.Flagged && f.Comment == "" {
			missing = append(missing, f.Name)
		}
	}
	if len(missing) > 0 {
		return nil, apperrors.NewMissingReasonError(missing)
	}

	var flagged []models.FieldComment
	for _, f := range fields {
		switch {
		case f.Flagged:
			comment, err := r.store.UpsertFieldComment(ctx, entityID, f.Name, f.Comment, true)
			if err != nil {
				return nil, err
			}
			flagged = append(flagged, *comment)
		case f.Comment != "":
			if _, err := r.store.UpsertFieldComment(ctx, entityID, f.Name, f.Comment, false); err != nil {
				return nil, err
			}
		default:
			if err := r.store.DeleteFieldComment(ctx, entityID, f.Name); err != nil {
				return nil, err
			}
		}
	}

	status := models.SectionCompleted
	if len(flagged) > 0 {
		status = models.SectionFlagged
	}

	if err := r.store.SetReviewSectionStatus(ctx, applicationID, sec, status); err != nil {
		return nil, err
	}
	if err := r.store.SetApplicationSectionStatus(ctx, applicationID, sec, status); err != nil {
		return nil, err
	}

	metrics.SectionsSubmitted.WithLabelValues(string(status)).Inc()
	r.logger.Info("section submitted", map[string]interface{}{
		"applicationId": applicationID,
		"section":       string(sec),
		"status":        string(status),
		"flaggedFields": len(flagged),
	})

	return &Result{Section: sec, Status: status, Comments: flagged}, nil
}
