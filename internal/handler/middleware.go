package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/dot-css/Palm-Pay-App/internal/models"
	"github.com/dot-css/Palm-Pay-App/internal/service"
	u "github.com/dot-css/Palm-Pay-App/internal/utils"
	"github.com/dot-css/Palm-Pay-App/pkg/metrics"
)

type contextKey string

const accountContextKey contextKey = "account"

// AccountFromContext returns the authenticated account set by AuthMiddleware.
func AccountFromContext(ctx context.Context) (*models.Account, bool) {
	account, ok := ctx.Value(accountContextKey).(*models.Account)
	return account, ok
}

// AuthMiddleware resolves the Authorization bearer token to an account and
// stores it on the request context.
func AuthMiddleware(authService service.AuthService, logger *slog.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				u.WriteError(w, http.StatusUnauthorized, "missing bearer token", "")
				return
			}

			account, err := authService.Authenticate(r.Context(), token)
			if err != nil {
				u.WriteError(w, http.StatusUnauthorized, "invalid or expired session", "")
				return
			}

			ctx := context.WithValue(r.Context(), accountContextKey, account)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// LoggingMiddleware logs incoming HTTP requests and feeds the request counter.
func LoggingMiddleware(logger *slog.Logger, collector *metrics.Collector) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(wrapped, r)

			collector.HTTPRequest(r.Method, strconv.Itoa(wrapped.statusCode))
			logger.Info("incoming request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", wrapped.statusCode,
				"duration_ms", time.Since(start).Milliseconds(),
			)
		})
	}
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Flush passes through so the event stream can write through the wrapper.
func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
