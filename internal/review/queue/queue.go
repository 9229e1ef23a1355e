// internal/review/queue/queue.go

// Package queue hands unclaimed applications to requesting reviewers,
// oldest first, with a hard cap on open reviews per reviewer.
package queue

import (
	"context"
	"database/sql"
	"errors"
	"time"

	apperrors "childminder-review/internal/common/errors"
	"childminder-review/internal/common/logger"
	"childminder-review/internal/common/metrics"
	"childminder-review/internal/models"
)

type Queue struct {
	db            *sql.DB
	capacity      int
	claimAttempts int
	logger        logger.Logger
}

func New(db *sql.DB, capacity, claimAttempts int, log logger.Logger) *Queue {
	if capacity <= 0 {
		capacity = 10
	}
	if claimAttempts <= 0 {
		claimAttempts = 3
	}
	return &Queue{
		db:            db,
		capacity:      capacity,
		claimAttempts: claimAttempts,
		logger:        log.WithFields(map[string]interface{}{"component": "assignment-queue"}),
	}
}

// Assign claims the oldest unclaimed application under ARC review for the
// reviewer. First-match FIFO by date_created; no priorities, no
// round-robin.
//
// The claim is a single conditional insert (claim-if-unclaimed), so two
// reviewers asking at the same moment cannot end up owning the same
// application: the insert's conflict clause makes one of them lose the row
// and move on to the next oldest.
//
// Returns REVIEWER_AT_CAPACITY when the reviewer already holds the cap, and
// QUEUE_EMPTY when no unclaimed application exists (a result, not a
// failure).
func (q *Queue) Assign(ctx context.Context, reviewerID string) (*models.ReviewRecord, error) {
	var open int
	err := q.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM review_records WHERE reviewer_id = $1`,
		reviewerID).Scan(&open)
	if err != nil {
		return nil, apperrors.NewPersistenceError("count open reviews", err)
	}
	if open >= q.capacity {
		metrics.AssignmentRejections.WithLabelValues("capacity").Inc()
		return nil, apperrors.NewReviewerAtCapacityError(reviewerID, q.capacity)
	}

	// A lost conflict returns no row even when older unclaimed applications
	// remain, so the claim is retried a few times before reporting empty.
	for attempt := 0; attempt < q.claimAttempts; attempt++ {
		now := time.Now().UTC()

		var applicationID string
		err := q.db.QueryRowContext(ctx, `
			INSERT INTO review_records (application_id, reviewer_id, created_at, last_accessed)
			SELECT a.id, $1, $2, $2
			FROM applications a
			WHERE a.status = $3
			  AND NOT EXISTS (
				SELECT 1 FROM review_records r WHERE r.application_id = a.id
			  )
			ORDER BY a.date_created ASC
			LIMIT 1
			ON CONFLICT (application_id) DO NOTHING
			RETURNING application_id`,
			reviewerID, now, string(models.StatusArcReview)).Scan(&applicationID)

		if errors.Is(err, sql.ErrNoRows) {
			continue
		}
		if err != nil {
			return nil, apperrors.NewPersistenceError("claim application", err)
		}

		metrics.ReviewAssignments.Inc()
		q.logger.Info("application assigned", map[string]interface{}{
			"applicationId": applicationID,
			"reviewerId":    reviewerID,
		})

		return &models.ReviewRecord{
			ApplicationID: applicationID,
			ReviewerID:    reviewerID,
			CreatedAt:     now,
			LastAccessed:  now,
		}, nil
	}

	metrics.AssignmentRejections.WithLabelValues("empty").Inc()
	return nil, apperrors.NewQueueEmptyError()
}

// Release gives an application back: the claim and its review-side section
// statuses are deleted. Used both on successful completion and on manual
// "give back" actions; releasing an unclaimed application is a no-op.
func (q *Queue) Release(ctx context.Context, applicationID string) error {
	if _, err := q.db.ExecContext(ctx, `
		DELETE FROM review_sections WHERE application_id = $1`, applicationID); err != nil {
		return apperrors.NewPersistenceError("delete review sections", err)
	}
	if _, err := q.db.ExecContext(ctx, `
		DELETE FROM review_records WHERE application_id = $1`, applicationID); err != nil {
		return apperrors.NewPersistenceError("delete review record", err)
	}

	q.logger.Info("application released", map[string]interface{}{
		"applicationId": applicationID,
	})
	return nil
}
