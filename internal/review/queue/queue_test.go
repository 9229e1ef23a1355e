// internal/review/queue/queue_test.go
package queue

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	apperrors "childminder-review/internal/common/errors"
	"childminder-review/internal/common/logger"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

func newTestQueue(t *testing.T) (*Queue, sqlmock.Sqlmock, *sql.DB) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	return New(db, 10, 3, logger.NewTestLogger(t)), mock, db
}

func expectOpenCount(mock sqlmock.Sqlmock, reviewerID string, count int) {
	mock.ExpectQuery(`SELECT COUNT(.+) FROM review_records`).
		WithArgs(reviewerID).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(count))
}

func TestAssign_Success(t *testing.T) {
	q, mock, db := newTestQueue(t)
	defer db.Close()

	expectOpenCount(mock, "reviewer-1", 4)
	mock.ExpectQuery(`INSERT INTO review_records`).
		WithArgs("reviewer-1", sqlmock.AnyArg(), "ARC_REVIEW").
		WillReturnRows(sqlmock.NewRows([]string{"application_id"}).AddRow("app-007"))

	rec, err := q.Assign(context.Background(), "reviewer-1")

	assert.NoError(t, err)
	assert.Equal(t, "app-007", rec.ApplicationID)
	assert.Equal(t, "reviewer-1", rec.ReviewerID)
	assert.False(t, rec.LastAccessed.IsZero())

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssign_CapacityExceeded(t *testing.T) {
	q, mock, db := newTestQueue(t)
	defer db.Close()

	expectOpenCount(mock, "reviewer-1", 10)

	rec, err := q.Assign(context.Background(), "reviewer-1")

	assert.Nil(t, rec, "no record may be created at capacity")
	assert.True(t, apperrors.IsAtCapacity(err))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssign_CapacityBoundary(t *testing.T) {
	q, mock, db := newTestQueue(t)
	defer db.Close()

	// Nine open reviews: the tenth claim is still allowed.
	expectOpenCount(mock, "reviewer-1", 9)
	mock.ExpectQuery(`INSERT INTO review_records`).
		WithArgs("reviewer-1", sqlmock.AnyArg(), "ARC_REVIEW").
		WillReturnRows(sqlmock.NewRows([]string{"application_id"}).AddRow("app-010"))

	rec, err := q.Assign(context.Background(), "reviewer-1")

	assert.NoError(t, err)
	assert.Equal(t, "app-010", rec.ApplicationID)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssign_QueueEmpty(t *testing.T) {
	q, mock, db := newTestQueue(t)
	defer db.Close()

	expectOpenCount(mock, "reviewer-1", 0)
	for i := 0; i < 3; i++ {
		mock.ExpectQuery(`INSERT INTO review_records`).
			WithArgs("reviewer-1", sqlmock.AnyArg(), "ARC_REVIEW").
			WillReturnError(sql.ErrNoRows)
	}

	rec, err := q.Assign(context.Background(), "reviewer-1")

	assert.Nil(t, rec)
	assert.True(t, apperrors.IsQueueEmpty(err))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssign_RetriesAfterLostClaim(t *testing.T) {
	q, mock, db := newTestQueue(t)
	defer db.Close()

	expectOpenCount(mock, "reviewer-1", 0)
	// First attempt loses the conflict to a concurrent reviewer; the second
	// claims the next oldest application.
	mock.ExpectQuery(`INSERT INTO review_records`).
		WithArgs("reviewer-1", sqlmock.AnyArg(), "ARC_REVIEW").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(`INSERT INTO review_records`).
		WithArgs("reviewer-1", sqlmock.AnyArg(), "ARC_REVIEW").
		WillReturnRows(sqlmock.NewRows([]string{"application_id"}).AddRow("app-008"))

	rec, err := q.Assign(context.Background(), "reviewer-1")

	assert.NoError(t, err)
	assert.Equal(t, "app-008", rec.ApplicationID)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssign_CountError(t *testing.T) {
	q, mock, db := newTestQueue(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT COUNT(.+) FROM review_records`).
		WithArgs("reviewer-1").
		WillReturnError(errors.New("connection refused"))

	rec, err := q.Assign(context.Background(), "reviewer-1")

	assert.Nil(t, rec)
	assert.True(t, apperrors.IsPersistence(err))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRelease_Idempotent(t *testing.T) {
	q, mock, db := newTestQueue(t)
	defer db.Close()

	for i := 0; i < 2; i++ {
		mock.ExpectExec(`DELETE FROM review_sections`).
			WithArgs("app-001").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(`DELETE FROM review_records`).
			WithArgs("app-001").
			WillReturnResult(sqlmock.NewResult(0, 0))
	}

	assert.NoError(t, q.Release(context.Background(), "app-001"))
	assert.NoError(t, q.Release(context.Background(), "app-001"))

	assert.NoError(t, mock.ExpectationsWereMet())
}
