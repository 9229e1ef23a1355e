// internal/api/middleware.go
package api

import (
	"net/http"
	"time"

	"github.com/google/uuid"
)

// withRequestID tags every request with an id for log correlation. An
// incoming X-Request-Id is trusted so the frontend can trace its own calls.
func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-Id")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", requestID)

		start := time.Now()
		next.ServeHTTP(w, r)

		s.logger.Debug("request handled", map[string]interface{}{
			"requestId": requestID,
			"method":    r.Method,
			"path":      r.URL.Path,
			"duration":  time.Since(start).String(),
		})
	})
}
