package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"book-reservation-backend/internal/config"
	"book-reservation-backend/internal/logger"
	"book-reservation-backend/internal/security"
)

const requestIDHeader = "X-Request-ID"

type userIDKey struct{}

// UserIDFromContext returns the authenticated user ID set by the auth
// middleware, if any.
func UserIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(userIDKey{}).(int64)
	return id, ok
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(logger.WithRequestID(r.Context(), id)))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := ""
		if cur := mux.CurrentRoute(r); cur != nil {
			route = cur.GetName()
		}
		logger.InfoContext(r.Context(), "HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"route", route,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds())
	})
}

// authMiddleware enforces the security level configured for the matched
// route name
type authMiddleware struct {
	tokenManager security.TokenManager
}

func (m *authMiddleware) handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := ""
		if cur := mux.CurrentRoute(r); cur != nil {
			name = cur.GetName()
		}
		if config.GetSecurityLevel(name) == config.SecurityPublic {
			next.ServeHTTP(w, r)
			return
		}

		header := r.Header.Get("Authorization")
		if len(header) <= 7 || !strings.EqualFold(header[:7], "Bearer ") {
			writeJSONError(w, r, http.StatusUnauthorized, "authorization token is not provided")
			return
		}

		claims, err := m.tokenManager.ValidateToken(header[7:])
		if err != nil {
			logger.WarnContext(r.Context(), "Rejected bearer token", "route", name, "error", err)
			writeJSONError(w, r, http.StatusUnauthorized, err.Error())
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey{}, claims.UserID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
