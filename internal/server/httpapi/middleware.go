package httpapi

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dropcrate/dropcrate/internal/server/auth"
)

// statusRecorder captures the status code written by a handler so the
// metrics and logging middleware can report it.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// ownedHandler is a handler that runs on behalf of a verified owner.
type ownedHandler func(w http.ResponseWriter, r *http.Request, ownerID string)

// authenticated verifies the bearer token, resolves the subject identifier
// and passes it to next. Missing, malformed and expired tokens all get the
// same 401: the client's only move is to re-authenticate. The wrapper also
// records per-operation metrics and an access log line.
func (s *Server) authenticated(operation string, next ownedHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		token := bearerToken(r)
		if token == "" {
			writeError(rec, http.StatusUnauthorized, "missing token")
		} else if ownerID, err := auth.GetUserIDFromToken(token, s.jwtSecret); err != nil {
			writeError(rec, http.StatusUnauthorized, "invalid token")
		} else {
			next(rec, r, ownerID)
		}

		elapsed := time.Since(start)
		s.metrics.RequestsTotal.WithLabelValues(operation, strconv.Itoa(rec.status)).Inc()
		s.metrics.RequestDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
		s.logger.Info(r.Context(), "request handled",
			"operation", operation, "status", rec.status, "duration_ms", elapsed.Milliseconds())
	})
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if h == "" {
		return ""
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// withCORS permits cross-origin access from any origin and answers
// preflight requests.
func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
