// internal/review/progress/aggregator_test.go
package progress

import (
	"context"
	"testing"
	"time"

	"childminder-review/internal/common/logger"
	"childminder-review/internal/models"
	"childminder-review/internal/review/rules"
	"childminder-review/internal/review/store"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

func allCompleted(c models.Characteristics) map[rules.Section]models.SectionStatus {
	statuses := make(map[rules.Section]models.SectionStatus)
	for _, s := range rules.RequiredSections(c) {
		statuses[s] = models.SectionCompleted
	}
	return statuses
}

func TestIsComplete_Strict(t *testing.T) {
	c := models.Characteristics{CaresForAgeZeroToFive: true}

	statuses := allCompleted(c)
	assert.True(t, IsComplete(statuses, c, true))

	statuses[rules.SectionHealth] = models.SectionFlagged
	assert.False(t, IsComplete(statuses, c, true), "a flagged section fails strict completion")

	delete(statuses, rules.SectionReferences)
	statuses[rules.SectionHealth] = models.SectionCompleted
	assert.False(t, IsComplete(statuses, c, true), "a missing section is NOT_STARTED and fails")
}

func TestIsComplete_Loose(t *testing.T) {
	c := models.Characteristics{HasOwnChildren: true}

	statuses := allCompleted(c)
	statuses[rules.SectionYourChildren] = models.SectionFlagged
	assert.True(t, IsComplete(statuses, c, false), "flagged counts as worked on")
	assert.False(t, IsComplete(statuses, c, true))

	delete(statuses, rules.SectionLoginDetails)
	assert.False(t, IsComplete(statuses, c, false), "NOT_STARTED fails even loosely")
}

func TestIsComplete_IgnoresSectionsOutsideTheRuleSet(t *testing.T) {
	// your-children is not required for this combination; its status must
	// not affect the verdict.
	c := models.Characteristics{}
	statuses := allCompleted(c)
	statuses[rules.SectionYourChildren] = models.SectionFlagged

	assert.True(t, IsComplete(statuses, c, true))
}

func TestNumberOfTasks(t *testing.T) {
	assert.Equal(t, 8, NumberOfTasks(models.Characteristics{}))
	assert.Equal(t, 10, NumberOfTasks(models.Characteristics{
		CaresForAgeZeroToFive: true,
		HasOwnChildren:        true,
	}))
	assert.Equal(t, 9, NumberOfTasks(models.Characteristics{
		CaresForAgeZeroToFive:       true,
		HasOwnChildren:              true,
		WorksInOtherChildminderHome: true,
	}))
}

func TestIsApplicationComplete(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	agg := NewAggregator(store.New(db, logger.NewNoOpLogger()), logger.NewNoOpLogger())

	c := models.Characteristics{HasOwnChildren: true, WorksInOtherChildminderHome: true}
	statusRows := sqlmock.NewRows([]string{"section", "status"})
	for _, s := range rules.RequiredSections(c) {
		statusRows.AddRow(string(s), "COMPLETED")
	}

	mock.ExpectQuery(`SELECT id, reference, first_name`).
		WithArgs("app-001").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "reference", "first_name", "email_address", "phone_number",
			"status", "declaration_status",
			"cares_for_age_zero_to_five", "has_own_children", "works_in_other_childminder_home",
			"date_created", "date_submitted", "date_accepted",
		}).AddRow(
			"app-001", "CM1000001", "Jane", "jane@example.com", nil,
			"ARC_REVIEW", "COMPLETED",
			false, true, true,
			time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC), nil, nil,
		))
	mock.ExpectQuery(`SELECT section, status FROM review_sections`).
		WithArgs("app-001").
		WillReturnRows(statusRows)

	complete, err := agg.IsApplicationComplete(context.Background(), "app-001", true)
	assert.NoError(t, err)
	assert.True(t, complete)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewCount(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	agg := NewAggregator(store.New(db, logger.NewNoOpLogger()), logger.NewNoOpLogger())

	mock.ExpectQuery(`SELECT COUNT(.+) FROM review_sections`).
		WithArgs("app-001", "COMPLETED").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(5))
	mock.ExpectQuery(`SELECT COUNT(.+) FROM application_sections`).
		WithArgs("app-001", "FLAGGED").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	count, err := agg.ReviewCount(context.Background(), "app-001")
	assert.NoError(t, err)
	assert.Equal(t, 8, count)

	assert.NoError(t, mock.ExpectationsWereMet())
}
