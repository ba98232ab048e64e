package http

import (
	"context"
	"errors"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/vncsmyrnk/fintrack/internal/adapters/ratelimit"
	"github.com/vncsmyrnk/fintrack/internal/logging"
)

type contextKey string

// UserIDKey holds the authenticated user id (int64) in the request context.
const UserIDKey contextKey = "userID"

// TokenParser verifies an access token and returns its user id.
type TokenParser interface {
	Parse(token string) (int64, error)
}

// Authenticator requires a valid "Authorization: Bearer" access token.
func Authenticator(tokens TokenParser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, found := strings.CutPrefix(header, "Bearer ")
			if !found || strings.TrimSpace(token) == "" {
				writeMessage(w, http.StatusUnauthorized, msgTokenAbsent)
				return
			}

			userID, err := tokens.Parse(strings.TrimSpace(token))
			if err != nil {
				writeMessage(w, http.StatusUnauthorized, msgTokenBad)
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func userIDFrom(r *http.Request) (int64, bool) {
	id, ok := r.Context().Value(UserIDKey).(int64)
	return id, ok
}

// RequestLogger logs one line per request through log.
func RequestLogger(log logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			log.Info(r.Context(), "request",
				"request_id", middleware.GetReqID(r.Context()),
				"method", r.Method,
				"path", r.URL.Path,
				"status", status,
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
			)
		})
	}
}

// RateLimit throttles by the connection's remote address. Behind a trusted
// proxy the router runs middleware.RealIP first so RemoteAddr is the caller.
func RateLimit(limiter ratelimit.Limiter, log logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, err := limiter.Allow(r.Context(), "ip:"+clientIP(r))
			if err != nil {
				log.Error(r.Context(), "rate limit check failed", "error", err)
				writeMessage(w, http.StatusInternalServerError, msgInternal)
				return
			}
			if !ok {
				w.Header().Set("Retry-After", retryAfter(limiter))
				writeMessage(w, http.StatusTooManyRequests, "Too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// retryAfter reports the limiter's wait in whole seconds, at least one.
func retryAfter(limiter ratelimit.Limiter) string {
	secs := 1
	if r, ok := limiter.(interface{ RetryAfter() time.Duration }); ok {
		if s := int(math.Ceil(r.RetryAfter().Seconds())); s > secs {
			secs = s
		}
	}
	return strconv.Itoa(secs)
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if host == "" {
		return "unknown"
	}
	return host
}

// internalError logs err and writes the generic 500 body.
func internalError(w http.ResponseWriter, r *http.Request, log logging.Logger, err error) {
	if errors.Is(err, context.Canceled) {
		return
	}
	log.Error(r.Context(), "request failed",
		"request_id", middleware.GetReqID(r.Context()),
		"path", r.URL.Path,
		"error", err,
	)
	writeMessage(w, http.StatusInternalServerError, msgInternal)
}
