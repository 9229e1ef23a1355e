// internal/review/release/release.go

// Package release finalizes a review: the application is either accepted or
// returned to the applicant for further information, in one transaction.
package release

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	apperrors "childminder-review/internal/common/errors"
	"childminder-review/internal/common/logger"
	"childminder-review/internal/common/metrics"
	"childminder-review/internal/magiclink"
	"childminder-review/internal/models"
	"childminder-review/internal/notify"
	"childminder-review/internal/review/progress"
	"childminder-review/internal/review/rules"
	"childminder-review/internal/review/store"
)

type Engine struct {
	db       *sql.DB
	store    *store.Store
	links    *magiclink.Issuer
	notifier notify.Notifier
	baseURL  string
	logger   logger.Logger
}

func NewEngine(db *sql.DB, st *store.Store, links *magiclink.Issuer, notifier notify.Notifier, baseURL string, log logger.Logger) *Engine {
	return &Engine{
		db:       db,
		store:    st,
		links:    links,
		notifier: notifier,
		baseURL:  baseURL,
		logger:   log.WithFields(map[string]interface{}{"component": "release"}),
	}
}

// Outcome describes what Finalize did with the application.
type Outcome struct {
	ApplicationID string                   `json:"applicationId"`
	Status        models.ApplicationStatus `json:"status"`
	AcceptedAt    *time.Time               `json:"acceptedAt,omitempty"`
	MagicLink     *magiclink.Token         `json:"magicLink,omitempty"`
}

// Finalize runs the release decision for a claimed application under ARC
// review.
//
// When every required section is COMPLETED the application is accepted:
// status moves to ACCEPTED, the acceptance date is stamped, and the claim is
// released. Otherwise it is returned: status moves to FURTHER_INFORMATION,
// the applicant's declaration sign-off is reset (the application is being
// reopened), every review-side section status is copied onto the
// applicant-facing rows so the applicant sees exactly what was flagged, the
// claim is released, and a magic-link token is issued for re-entry.
//
// All row changes happen in one transaction; the caller either observes the
// full transition or an error with nothing applied. The notification goes
// out after commit and is fire-and-forget.
func (e *Engine) Finalize(ctx context.Context, applicationID string) (*Outcome, error) {
	app, err := e.store.GetApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if app.Status != models.StatusArcReview {
		return nil, apperrors.NewRecordNotFoundError("application under review", applicationID)
	}
	if _, err := e.store.GetReviewRecord(ctx, applicationID); err != nil {
		return nil, err
	}

	statuses, err := e.store.ReviewSectionStatuses(ctx, applicationID)
	if err != nil {
		return nil, err
	}

	complete := progress.IsComplete(statuses, app.Characteristics, true)
	if complete {
		return e.accept(ctx, app)
	}
	return e.returnForInformation(ctx, app, statuses)
}

func (e *Engine) accept(ctx context.Context, app *models.Application) (*Outcome, error) {
	now := time.Now().UTC()

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, apperrors.NewPersistenceError("begin release", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		UPDATE applications SET status = $2, date_accepted = $3 WHERE id = $1`,
		app.ID, string(models.StatusAccepted), now); err != nil {
		return nil, apperrors.NewPersistenceError("accept application", err)
	}
	if err := releaseClaim(ctx, tx, app.ID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, apperrors.NewPersistenceError("commit release", err)
	}

	metrics.Releases.WithLabelValues("accepted").Inc()
	e.logger.Info("application accepted", map[string]interface{}{
		"applicationId": app.ID,
		"ref":           app.Reference,
	})

	if err := e.notifier.SendAccepted(ctx, recipientOf(app), app.Characteristics.CaresForAgeZeroToFive); err != nil {
		e.logger.Error("accepted notification failed", map[string]interface{}{
			"applicationId": app.ID,
			"error":         err.Error(),
		})
	}

	return &Outcome{
		ApplicationID: app.ID,
		Status:        models.StatusAccepted,
		AcceptedAt:    &now,
	}, nil
}

func (e *Engine) returnForInformation(ctx context.Context, app *models.Application, statuses map[rules.Section]models.SectionStatus) (*Outcome, error) {
	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, apperrors.NewPersistenceError("begin release", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		UPDATE applications SET status = $2, declaration_status = $3 WHERE id = $1`,
		app.ID, string(models.StatusFurtherInformation), string(models.SectionNotStarted)); err != nil {
		return nil, apperrors.NewPersistenceError("return application", err)
	}

	// Copy in display order so the applicant-facing rows are written
	// deterministically.
	for _, section := range rules.AllSections {
		status, ok := statuses[section]
		if !ok {
			continue
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO application_sections (application_id, section, status)
			VALUES ($1, $2, $3)
			ON CONFLICT (application_id, section)
			DO UPDATE SET status = $3`,
			app.ID, string(section), string(status)); err != nil {
			return nil, apperrors.NewPersistenceError("propagate section status", err)
		}
	}

	if err := releaseClaim(ctx, tx, app.ID); err != nil {
		return nil, err
	}

	token, err := e.links.Issue(ctx, app.ID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, apperrors.NewPersistenceError("commit release", err)
	}

	metrics.Releases.WithLabelValues("returned").Inc()
	e.logger.Info("application returned for further information", map[string]interface{}{
		"applicationId": app.ID,
		"ref":           app.Reference,
	})

	link := fmt.Sprintf("%s?token=%s", e.baseURL, token.Value)
	if err := e.notifier.SendReturned(ctx, recipientOf(app), link, token.ExpiresAt); err != nil {
		e.logger.Error("returned notification failed", map[string]interface{}{
			"applicationId": app.ID,
			"error":         err.Error(),
		})
	}

	return &Outcome{
		ApplicationID: app.ID,
		Status:        models.StatusFurtherInformation,
		MagicLink:     token,
	}, nil
}

func releaseClaim(ctx context.Context, tx *sql.Tx, applicationID string) error {
	if _, err := tx.ExecContext(ctx, `
		DELETE FROM review_sections WHERE application_id = $1`, applicationID); err != nil {
		return apperrors.NewPersistenceError("delete review sections", err)
	}
	if _, err := tx.ExecContext(ctx, `
		DELETE FROM review_records WHERE application_id = $1`, applicationID); err != nil {
		return apperrors.NewPersistenceError("delete review record", err)
	}
	return nil
}

func recipientOf(app *models.Application) notify.Recipient {
	return notify.Recipient{
		EmailAddress: app.EmailAddress,
		PhoneNumber:  app.PhoneNumber,
		FirstName:    app.FirstName,
		Reference:    app.Reference,
	}
}
