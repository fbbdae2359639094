package sandbox

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/alexbotov/bunqledger/pkg/bunq"
)

type contextKey string

const claimsKey contextKey = "session"

// AuthMiddleware validates the session token and that it belongs to the
// user named in the path
func (s *Server) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := r.Header.Get(bunq.HeaderAuthentication)
		if token == "" {
			respondError(w, http.StatusUnauthorized, msgInsufficientAuth)
			return
		}

		claims, err := s.auth.validateSession(token)
		if err != nil {
			switch err {
			case ErrSessionExpired:
				respondError(w, http.StatusUnauthorized, "Session has expired.")
			default:
				respondError(w, http.StatusUnauthorized, msgInsufficientAuth)
			}
			return
		}

		userID, err := strconv.ParseInt(mux.Vars(r)["userID"], 10, 64)
		if err != nil || userID != claims.UserID {
			respondError(w, http.StatusUnauthorized, msgInsufficientAuth)
			return
		}

		ctx := context.WithValue(r.Context(), claimsKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequestIDMiddleware requires a client request id and echoes it back
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(bunq.HeaderRequestID)
		if id == "" {
			respondError(w, http.StatusBadRequest, "X-Bunq-Client-Request-Id header is required.")
			return
		}
		w.Header().Set("X-Bunq-Client-Response-Id", id)
		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the status written by a handler
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// LoggingMiddleware logs every request
func (s *Server) LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		s.log.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)))
	})
}

// RecoveryMiddleware recovers from panics
func (s *Server) RecoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				s.log.Error("handler panic", zap.Any("panic", err), zap.String("path", r.URL.Path))
				respondError(w, http.StatusInternalServerError, "Internal server error.")
			}
		}()
		next.ServeHTTP(w, r)
	})
}
