// internal/review/store/store_test.go
package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	apperrors "childminder-review/internal/common/errors"
	"childminder-review/internal/common/logger"
	"childminder-review/internal/models"
	"childminder-review/internal/review/rules"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

func newTestStore(t *testing.T) (*Store, sqlmock.Sqlmock, *sql.DB) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	return New(db, logger.NewNoOpLogger()), mock, db
}

func TestGetApplication_Success(t *testing.T) {
	s, mock, db := newTestStore(t)
	defer db.Close()

	created := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	submitted := created.AddDate(0, 0, 14)

	mock.ExpectQuery(`SELECT id, reference, first_name`).
		WithArgs("app-001").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "reference", "first_name", "email_address", "phone_number",
			"status", "declaration_status",
			"cares_for_age_zero_to_five", "has_own_children", "works_in_other_childminder_home",
			"date_created", "date_submitted", "date_accepted",
		}).AddRow(
			"app-001", "CM1000001", "Jane", "jane@example.com", "07700900001",
			"ARC_REVIEW", "COMPLETED",
			true, false, true,
			created, submitted, nil,
		))

	app, err := s.GetApplication(context.Background(), "app-001")

	assert.NoError(t, err)
	assert.Equal(t, "CM1000001", app.Reference)
	assert.Equal(t, models.StatusArcReview, app.Status)
	assert.True(t, app.Characteristics.CaresForAgeZeroToFive)
	assert.True(t, app.Characteristics.WorksInOtherChildminderHome)
	assert.NotNil(t, app.DateSubmitted)
	assert.Nil(t, app.DateAccepted)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetApplication_NotFound(t *testing.T) {
	s, mock, db := newTestStore(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT id, reference, first_name`).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	app, err := s.GetApplication(context.Background(), "missing")

	assert.Nil(t, app)
	assert.True(t, apperrors.IsNotFound(err))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetOrCreateReviewRecord_Existing(t *testing.T) {
	s, mock, db := newTestStore(t)
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectQuery(`SELECT application_id, reviewer_id`).
		WithArgs("app-001").
		WillReturnRows(sqlmock.NewRows([]string{"application_id", "reviewer_id", "created_at", "last_accessed"}).
			AddRow("app-001", "reviewer-1", now, now))

	rec, err := s.GetOrCreateReviewRecord(context.Background(), "app-001", "reviewer-2")

	assert.NoError(t, err)
	assert.Equal(t, "reviewer-1", rec.ReviewerID, "existing claim keeps its owner")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetOrCreateReviewRecord_CreatesWhenMissing(t *testing.T) {
	s, mock, db := newTestStore(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT application_id, reviewer_id`).
		WithArgs("app-001").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(`INSERT INTO review_records`).
		WithArgs("app-001", "reviewer-2", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	rec, err := s.GetOrCreateReviewRecord(context.Background(), "app-001", "reviewer-2")

	assert.NoError(t, err)
	assert.Equal(t, "reviewer-2", rec.ReviewerID)
	assert.Equal(t, "app-001", rec.ApplicationID)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertFieldComment(t *testing.T) {
	s, mock, db := newTestStore(t)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO field_comments`).
		WithArgs("entity-1", "first_aid_training_date", "Certificate expired in 2023", true, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	comment, err := s.UpsertFieldComment(context.Background(), "entity-1", "first_aid_training_date", "Certificate expired in 2023", true)

	assert.NoError(t, err)
	assert.True(t, comment.Flagged)
	assert.Equal(t, "first_aid_training_date", comment.FieldName)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertFieldComment_PersistenceError(t *testing.T) {
	s, mock, db := newTestStore(t)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO field_comments`).
		WillReturnError(errors.New("connection reset"))

	comment, err := s.UpsertFieldComment(context.Background(), "entity-1", "name", "Illegible", true)

	assert.Nil(t, comment)
	assert.True(t, apperrors.IsPersistence(err))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteFieldComment_Idempotent(t *testing.T) {
	s, mock, db := newTestStore(t)
	defer db.Close()

	// Zero rows affected is still success
	mock.ExpectExec(`DELETE FROM field_comments`).
		WithArgs("entity-1", "name").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.DeleteFieldComment(context.Background(), "entity-1", "name")
	assert.NoError(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListFieldComments(t *testing.T) {
	s, mock, db := newTestStore(t)
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectQuery(`SELECT entity_id, field_name, comment, flagged`).
		WillReturnRows(sqlmock.NewRows([]string{"entity_id", "field_name", "comment", "flagged", "created_at", "updated_at"}).
			AddRow("entity-1", "date_of_birth", "Does not match DBS record", true, now, now).
			AddRow("entity-2", "home_address", "Postcode missing", true, now, now))

	comments, err := s.ListFieldComments(context.Background(), []string{"entity-1", "entity-2"})

	assert.NoError(t, err)
	assert.Len(t, comments, 2)
	assert.Equal(t, "date_of_birth", comments[0].FieldName)
	assert.Equal(t, "entity-2", comments[1].EntityID)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetReviewSectionStatus(t *testing.T) {
	s, mock, db := newTestStore(t)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO review_sections`).
		WithArgs("app-001", "references", "FLAGGED").
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := s.SetReviewSectionStatus(context.Background(), "app-001", rules.SectionReferences, models.SectionFlagged)
	assert.NoError(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewSectionStatuses(t *testing.T) {
	s, mock, db := newTestStore(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT section, status FROM review_sections`).
		WithArgs("app-001").
		WillReturnRows(sqlmock.NewRows([]string{"section", "status"}).
			AddRow("references", "COMPLETED").
			AddRow("health", "FLAGGED"))

	statuses, err := s.ReviewSectionStatuses(context.Background(), "app-001")

	assert.NoError(t, err)
	assert.Equal(t, models.SectionCompleted, statuses[rules.SectionReferences])
	assert.Equal(t, models.SectionFlagged, statuses[rules.SectionHealth])
	assert.Len(t, statuses, 2)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCompletedAndFlaggedCounts(t *testing.T) {
	s, mock, db := newTestStore(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT COUNT(.+) FROM review_sections`).
		WithArgs("app-001", "COMPLETED").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(6))
	mock.ExpectQuery(`SELECT COUNT(.+) FROM application_sections`).
		WithArgs("app-001", "FLAGGED").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	completed, err := s.CompletedReviewSections(context.Background(), "app-001")
	assert.NoError(t, err)
	assert.Equal(t, 6, completed)

	flagged, err := s.FlaggedApplicationSections(context.Background(), "app-001")
	assert.NoError(t, err)
	assert.Equal(t, 2, flagged)

	assert.NoError(t, mock.ExpectationsWereMet())
}
