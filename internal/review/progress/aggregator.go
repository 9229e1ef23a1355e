// internal/review/progress/aggregator.go

// Package progress decides whether an application is fully reviewed and
// feeds the reviewer-facing task and progress counters.
package progress

import (
	"context"

	"childminder-review/internal/common/logger"
	"childminder-review/internal/models"
	"childminder-review/internal/review/rules"
	"childminder-review/internal/review/store"
)

// IsComplete evaluates the section statuses of an application against the
// sections its characteristics require.
//
// Two semantics exist because the templates and the release decision consume
// different questions:
//   - strict: every required section is exactly COMPLETED. Used for the
//     release decision.
//   - loose: every required section has been worked on, i.e. is not
//     NOT_STARTED (FLAGGED counts). Used for progress display only.
//
// Sections without a status entry are NOT_STARTED.
func IsComplete(statuses map[rules.Section]models.SectionStatus, c models.Characteristics, strict bool) bool {
	for _, section := range rules.RequiredSections(c) {
		status, ok := statuses[section]
		if !ok {
			status = models.SectionNotStarted
		}

		if strict {
			if status != models.SectionCompleted {
				return false
			}
		} else {
			if status == models.SectionNotStarted {
				return false
			}
		}
	}
	return true
}

// NumberOfTasks is the count shown in the reviewer's task list.
func NumberOfTasks(c models.Characteristics) int {
	return len(rules.RequiredSections(c))
}

// Aggregator wraps the pure completion rules with store access.
type Aggregator struct {
	store  *store.Store
	logger logger.Logger
}

func NewAggregator(st *store.Store, log logger.Logger) *Aggregator {
	return &Aggregator{
		store:  st,
		logger: log.WithFields(map[string]interface{}{"component": "completion-aggregator"}),
	}
}

// IsApplicationComplete loads the application's characteristics and
// review-side statuses and applies IsComplete.
func (a *Aggregator) IsApplicationComplete(ctx context.Context, applicationID string, strict bool) (bool, error) {
	app, err := a.store.GetApplication(ctx, applicationID)
	if err != nil {
		return false, err
	}

	statuses, err := a.store.ReviewSectionStatuses(ctx, applicationID)
	if err != nil {
		return false, err
	}

	return IsComplete(statuses, app.Characteristics, strict), nil
}

// ReviewCount is the progress counter shown next to the task list: sections
// reviewed to COMPLETED plus sections flagged on the applicant-facing
// projection. The old system kept both counters on separate code paths;
// templates consume both, so the sum is preserved here.
func (a *Aggregator) ReviewCount(ctx context.Context, applicationID string) (int, error) {
	completed, err := a.store.CompletedReviewSections(ctx, applicationID)
	if err != nil {
		return 0, err
	}

	flagged, err := a.store.FlaggedApplicationSections(ctx, applicationID)
	if err != nil {
		return 0, err
	}

	return completed + flagged, nil
}
