// internal/review/store/store.go

// Package store is the CRUD layer over review records, per-section review
// statuses, and per-field flag/comment rows. It offers single-row atomicity
// only: two simultaneous writers to the same field comment race
// last-write-wins.
package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	apperrors "childminder-review/internal/common/errors"
	"childminder-review/internal/common/logger"
	"childminder-review/internal/models"
	"childminder-review/internal/review/rules"

	"github.com/lib/pq"
)

type Store struct {
	db     *sql.DB
	logger logger.Logger
}

func New(db *sql.DB, log logger.Logger) *Store {
	return &Store{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"component": "review-store"}),
	}
}

// GetApplication loads an application row.
func (s *Store) GetApplication(ctx context.Context, applicationID string) (*models.Application, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, reference, first_name, email_address, phone_number,
			status, declaration_status,
			cares_for_age_zero_to_five, has_own_children, works_in_other_childminder_home,
			date_created, date_submitted, date_accepted
		FROM applications
		WHERE id = $1`, applicationID)

	var app models.Application
	var phone sql.NullString
	var submitted, accepted sql.NullTime
	err := row.Scan(
		&app.ID, &app.Reference, &app.FirstName, &app.EmailAddress, &phone,
		&app.Status, &app.DeclarationStatus,
		&app.Characteristics.CaresForAgeZeroToFive,
		&app.Characteristics.HasOwnChildren,
		&app.Characteristics.WorksInOtherChildminderHome,
		&app.DateCreated, &submitted, &accepted,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewRecordNotFoundError("application", applicationID)
	}
	if err != nil {
		return nil, apperrors.NewPersistenceError("get application", err)
	}

	app.PhoneNumber = phone.String
	if submitted.Valid {
		t := submitted.Time
		app.DateSubmitted = &t
	}
	if accepted.Valid {
		t := accepted.Time
		app.DateAccepted = &t
	}
	return &app, nil
}

// GetReviewRecord returns the claim for an application, if any.
func (s *Store) GetReviewRecord(ctx context.Context, applicationID string) (*models.ReviewRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT application_id, reviewer_id, created_at, last_accessed
		FROM review_records
		WHERE application_id = $1`, applicationID)

	var rec models.ReviewRecord
	err := row.Scan(&rec.ApplicationID, &rec.ReviewerID, &rec.CreatedAt, &rec.LastAccessed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewRecordNotFoundError("review record", applicationID)
	}
	if err != nil {
		return nil, apperrors.NewPersistenceError("get review record", err)
	}
	return &rec, nil
}

// GetOrCreateReviewRecord returns the existing claim for an application or
// creates one owned by the given reviewer.
func (s *Store) GetOrCreateReviewRecord(ctx context.Context, applicationID, reviewerID string) (*models.ReviewRecord, error) {
	rec, err := s.GetReviewRecord(ctx, applicationID)
	if err == nil {
		return rec, nil
	}
	if !apperrors.IsNotFound(err) {
		return nil, err
	}

	now := time.Now().UTC()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO review_records (application_id, reviewer_id, created_at, last_accessed)
		VALUES ($1, $2, $3, $3)`,
		applicationID, reviewerID, now)
	if err != nil {
		return nil, apperrors.NewPersistenceError("create review record", err)
	}

	return &models.ReviewRecord{
		ApplicationID: applicationID,
		ReviewerID:    reviewerID,
		CreatedAt:     now,
		LastAccessed:  now,
	}, nil
}

// TouchReviewRecord bumps last_accessed on the claim.
func (s *Store) TouchReviewRecord(ctx context.Context, applicationID string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE review_records SET last_accessed = $2 WHERE application_id = $1`,
		applicationID, time.Now().UTC())
	if err != nil {
		return apperrors.NewPersistenceError("touch review record", err)
	}
	return nil
}

// UpsertFieldComment creates or replaces the flag/comment row for one field
// of an entity. Last write wins.
func (s *Store) UpsertFieldComment(ctx context.Context, entityID, fieldName, comment string, flagged bool) (*models.FieldComment, error) {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO field_comments (entity_id, field_name, comment, flagged, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		ON CONFLICT (entity_id, field_name)
		DO UPDATE SET comment = $3, flagged = $4, updated_at = $5`,
		entityID, fieldName, comment, flagged, now)
	if err != nil {
		return nil, apperrors.NewPersistenceError("upsert field comment", err)
	}

	return &models.FieldComment{
		EntityID:  entityID,
		FieldName: fieldName,
		Comment:   comment,
		Flagged:   flagged,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// DeleteFieldComment removes the flag/comment row for one field. Deleting a
// row that does not exist is a no-op.
func (s *Store) DeleteFieldComment(ctx context.Context, entityID, fieldName string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM field_comments WHERE entity_id = $1 AND field_name = $2`,
		entityID, fieldName)
	if err != nil {
		return apperrors.NewPersistenceError("delete field comment", err)
	}
	return nil
}

// ListFieldComments returns every flag/comment row owned by the given
// entities, ordered by entity and field for stable rendering.
func (s *Store) ListFieldComments(ctx context.Context, entityIDs []string) ([]models.FieldComment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT entity_id, field_name, comment, flagged, created_at, updated_at
		FROM field_comments
		WHERE entity_id = ANY($1)
		ORDER BY entity_id, field_name`, pq.Array(entityIDs))
	if err != nil {
		return nil, apperrors.NewPersistenceError("list field comments", err)
	}
	defer rows.Close()

	var comments []models.FieldComment
	for rows.Next() {
		var c models.FieldComment
		if err := rows.Scan(&c.EntityID, &c.FieldName, &c.Comment, &c.Flagged, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, apperrors.NewPersistenceError("scan field comment", err)
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewPersistenceError("list field comments", err)
	}
	return comments, nil
}

// SetReviewSectionStatus writes the authoritative review-side status of a
// section.
func (s *Store) SetReviewSectionStatus(ctx context.Context, applicationID string, section rules.Section, status models.SectionStatus) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO review_sections (application_id, section, status)
		VALUES ($1, $2, $3)
		ON CONFLICT (application_id, section)
		DO UPDATE SET status = $3`,
		applicationID, string(section), string(status))
	if err != nil {
		return apperrors.NewPersistenceError("set review section status", err)
	}
	return nil
}

// SetApplicationSectionStatus writes the applicant-facing projection of a
// section status. The legacy flagged booleans of the old system are read as
// status = FLAGGED on these rows.
func (s *Store) SetApplicationSectionStatus(ctx context.Context, applicationID string, section rules.Section, status models.SectionStatus) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO application_sections (application_id, section, status)
		VALUES ($1, $2, $3)
		ON CONFLICT (application_id, section)
		DO UPDATE SET status = $3`,
		applicationID, string(section), string(status))
	if err != nil {
		return apperrors.NewPersistenceError("set application section status", err)
	}
	return nil
}

// ReviewSectionStatuses returns the review-side status of every section that
// has been touched for the application. Sections with no row are
// NOT_STARTED.
func (s *Store) ReviewSectionStatuses(ctx context.Context, applicationID string) (map[rules.Section]models.SectionStatus, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT section, status FROM review_sections WHERE application_id = $1`,
		applicationID)
	if err != nil {
		return nil, apperrors.NewPersistenceError("review section statuses", err)
	}
	defer rows.Close()

	statuses := make(map[rules.Section]models.SectionStatus)
	for rows.Next() {
		var section, status string
		if err := rows.Scan(&section, &status); err != nil {
			return nil, apperrors.NewPersistenceError("scan review section status", err)
		}
		statuses[rules.Section(section)] = models.SectionStatus(status)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewPersistenceError("review section statuses", err)
	}
	return statuses, nil
}

// CompletedReviewSections counts review-side sections at COMPLETED.
func (s *Store) CompletedReviewSections(ctx context.Context, applicationID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM review_sections
		WHERE application_id = $1 AND status = $2`,
		applicationID, string(models.SectionCompleted)).Scan(&count)
	if err != nil {
		return 0, apperrors.NewPersistenceError("completed review sections", err)
	}
	return count, nil
}

// FlaggedApplicationSections counts applicant-facing sections at FLAGGED,
// the projection of the old system's per-section flagged booleans.
func (s *Store) FlaggedApplicationSections(ctx context.Context, applicationID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM application_sections
		WHERE application_id = $1 AND status = $2`,
		applicationID, string(models.SectionFlagged)).Scan(&count)
	if err != nil {
		return 0, apperrors.NewPersistenceError("flagged application sections", err)
	}
	return count, nil
}
