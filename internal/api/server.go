// internal/api/server.go

// Package api exposes the review engine over a small JSON HTTP surface for
// the caseworker frontend.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	apperrors "childminder-review/internal/common/errors"
	"childminder-review/internal/common/logger"
	"childminder-review/internal/magiclink"
	"childminder-review/internal/models"
	"childminder-review/internal/review/progress"
	"childminder-review/internal/review/queue"
	"childminder-review/internal/review/release"
	"childminder-review/internal/review/rules"
	"childminder-review/internal/review/section"
	"childminder-review/internal/review/store"
)

type Server struct {
	store      *store.Store
	reviewer   *section.Reviewer
	aggregator *progress.Aggregator
	queue      *queue.Queue
	release    *release.Engine
	links      *magiclink.Issuer
	logger     logger.Logger
}

func NewServer(st *store.Store, reviewer *section.Reviewer, aggregator *progress.Aggregator, q *queue.Queue, rel *release.Engine, links *magiclink.Issuer, log logger.Logger) *Server {
	return &Server{
		store:      st,
		reviewer:   reviewer,
		aggregator: aggregator,
		queue:      q,
		release:    rel,
		links:      links,
		logger:     log.WithFields(map[string]interface{}{"component": "api"}),
	}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /reviews/assignments", s.handleAssign)
	mux.HandleFunc("DELETE /reviews/assignments/{applicationId}", s.handleReleaseClaim)
	mux.HandleFunc("GET /applications/{applicationId}", s.handleGetApplication)
	mux.HandleFunc("PUT /applications/{applicationId}/sections/{section}", s.handleSubmitSection)
	mux.HandleFunc("GET /applications/{applicationId}/progress", s.handleProgress)
	mux.HandleFunc("POST /applications/{applicationId}/decision", s.handleDecision)
	mux.HandleFunc("GET /resume", s.handleResume)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	return s.withRequestID(mux)
}

func (s *Server) handleAssign(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ReviewerID string `json:"reviewerId"`
	}
	if err := decodeBody(r, &body); err != nil {
		s.writeError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	if body.ReviewerID == "" {
		s.writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "reviewerId is required")
		return
	}

	rec, err := s.queue.Assign(r.Context(), body.ReviewerID)
	if err != nil {
		s.writeStandardError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) handleReleaseClaim(w http.ResponseWriter, r *http.Request) {
	if err := s.queue.Release(r.Context(), r.PathValue("applicationId")); err != nil {
		s.writeStandardError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetApplication(w http.ResponseWriter, r *http.Request) {
	applicationID := r.PathValue("applicationId")

	app, err := s.store.GetApplication(r.Context(), applicationID)
	if err != nil {
		s.writeStandardError(w, err)
		return
	}
	statuses, err := s.store.ReviewSectionStatuses(r.Context(), applicationID)
	if err != nil {
		s.writeStandardError(w, err)
		return
	}

	sections := make([]map[string]interface{}, 0, len(rules.AllSections))
	for _, sec := range rules.RequiredSections(app.Characteristics) {
		status, ok := statuses[sec]
		if !ok {
			status = models.SectionNotStarted
		}
		sections = append(sections, map[string]interface{}{
			"section": sec,
			"status":  status,
			"fields":  rules.SectionFields(sec),
		})
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"application": app,
		"sections":    sections,
	})
}

func (s *Server) handleSubmitSection(w http.ResponseWriter, r *http.Request) {
	applicationID := r.PathValue("applicationId")
	sec := rules.Section(r.PathValue("section"))

	var body submitSectionRequest
	if err := decodeBody(r, &body); err != nil {
		s.writeError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	if err := validateSubmitSection(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	fields := make([]models.FieldReview, 0, len(body.Fields))
	for _, f := range body.Fields {
		fields = append(fields, models.FieldReview{
			Name:    f.Name,
			Flagged: f.Flagged,
			Comment: f.Comment,
		})
	}

	result, err := s.reviewer.SubmitSection(r.Context(), applicationID, body.EntityID, sec, fields)
	if err != nil {
		s.writeStandardError(w, err)
		return
	}

	if err := s.store.TouchReviewRecord(r.Context(), applicationID); err != nil {
		s.logger.Warn("touch review record failed", map[string]interface{}{
			"applicationId": applicationID,
			"error":         err.Error(),
		})
	}

	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	applicationID := r.PathValue("applicationId")
	strict := r.URL.Query().Get("strict") != "false"

	app, err := s.store.GetApplication(r.Context(), applicationID)
	if err != nil {
		s.writeStandardError(w, err)
		return
	}
	complete, err := s.aggregator.IsApplicationComplete(r.Context(), applicationID, strict)
	if err != nil {
		s.writeStandardError(w, err)
		return
	}
	reviewed, err := s.aggregator.ReviewCount(r.Context(), applicationID)
	if err != nil {
		s.writeStandardError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"applicationId": applicationID,
		"complete":      complete,
		"reviewed":      reviewed,
		"numberOfTasks": progress.NumberOfTasks(app.Characteristics),
	})
}

func (s *Server) handleDecision(w http.ResponseWriter, r *http.Request) {
	outcome, err := s.release.Finalize(r.Context(), r.PathValue("applicationId"))
	if err != nil {
		s.writeStandardError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, outcome)
}

// handleResume exchanges a live magic-link token for its application. The
// token stays valid until its TTL so the applicant can reopen the link while
// they gather the requested information.
func (s *Server) handleResume(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		s.writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "token is required")
		return
	}

	applicationID, err := s.links.Resolve(r.Context(), token)
	if err != nil {
		s.writeStandardError(w, err)
		return
	}
	app, err := s.store.GetApplication(r.Context(), applicationID)
	if err != nil {
		s.writeStandardError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"applicationId": app.ID,
		"reference":     app.Reference,
		"status":        app.Status,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func decodeBody(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}
	return nil
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("write response failed", map[string]interface{}{"error": err.Error()})
	}
}

type errorResponse struct {
	Code     string                 `json:"code"`
	Message  string                 `json:"message"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

func (s *Server) writeError(w http.ResponseWriter, status int, code, message string) {
	s.writeJSON(w, status, errorResponse{Code: code, Message: message})
}

// writeStandardError maps engine error codes onto HTTP statuses.
func (s *Server) writeStandardError(w http.ResponseWriter, err error) {
	var stdErr *apperrors.StandardError
	if !errors.As(err, &stdErr) {
		s.logger.Error("unclassified error", map[string]interface{}{"error": err.Error()})
		s.writeError(w, http.StatusInternalServerError, string(apperrors.ErrCodePersistenceFailed), "internal error")
		return
	}

	status := http.StatusInternalServerError
	switch stdErr.Code {
	case apperrors.ErrCodeMissingReason:
		status = http.StatusUnprocessableEntity
	case apperrors.ErrCodeRecordNotFound, apperrors.ErrCodeQueueEmpty:
		status = http.StatusNotFound
	case apperrors.ErrCodeReviewerAtCapacity:
		status = http.StatusConflict
	}

	s.writeJSON(w, status, errorResponse{
		Code:     string(stdErr.Code),
		Message:  stdErr.Message,
		Metadata: stdErr.Metadata,
	})
}

// ListenAndServe runs the API with a graceful drain on ctx cancellation.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
