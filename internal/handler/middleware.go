package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"skillswap/internal/events"
	"skillswap/internal/models"
	"skillswap/internal/ratelimit"
	"skillswap/internal/service"
	"skillswap/internal/token"
)

type contextKey string

const sessionContextKey contextKey = "session"

// SessionFromContext returns the authenticated session token, if any.
func SessionFromContext(ctx context.Context) (token.SessionToken, bool) {
	st, ok := ctx.Value(sessionContextKey).(token.SessionToken)
	return st, ok
}

// actionForPath classifies a request path into a rate-limit action name.
// Unmatched paths fall into the generic api bucket.
func actionForPath(path string) string {
	switch {
	case strings.HasSuffix(path, "/auth/login"):
		return ratelimit.ActionLogin
	case strings.HasSuffix(path, "/auth/register"):
		return ratelimit.ActionRegister
	case strings.HasSuffix(path, "/auth/verify-email"):
		return ratelimit.ActionEmailVerification
	case strings.HasSuffix(path, "/auth/password-reset"):
		return ratelimit.ActionPasswordReset
	case strings.HasSuffix(path, "/auth/email-check"):
		return ratelimit.ActionEmailCheck
	default:
		return ratelimit.ActionAPI
	}
}

// throttleResponse is the 429 body: remaining attempts plus the window
// reset time (ISO-8601, or null when no window is recorded).
type throttleResponse struct {
	Success           bool    `json:"success"`
	Error             string  `json:"error"`
	RemainingAttempts int     `json:"remaining_attempts"`
	ResetTime         *string `json:"reset_time"`
}

// RateLimitMiddleware admits or rejects requests per the policy registry.
// It must run after the auth middleware on protected routes so the
// identifier is the user id rather than the client address.
func RateLimitMiddleware(limiter *ratelimit.Limiter, registry *ratelimit.Registry, publisher *events.Publisher) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !registry.Enabled() || registry.Bypassed(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			var userID string
			if st, ok := SessionFromContext(r.Context()); ok {
				userID = st.UserID
			}
			identifier := ratelimit.IdentifierFromRequest(r, userID)
			action := actionForPath(r.URL.Path)

			decision := limiter.Allow(r.Context(), identifier, action)
			if decision.Allowed {
				next.ServeHTTP(w, r)
				return
			}

			publisher.Publish(models.SecurityEvent{
				EventType:  models.EventRateLimitBlock,
				Identifier: identifier,
				Action:     action,
			})

			var resetTime *string
			if decision.ResetTime != nil {
				formatted := decision.ResetTime.Format(time.RFC3339)
				resetTime = &formatted
			}

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(throttleResponse{
				Success:           false,
				Error:             "too many requests",
				RemainingAttempts: decision.Remaining,
				ResetTime:         resetTime,
			})
		})
	}
}

// AuthMiddleware validates the bearer token, revocation included, and puts
// the session on the request context. A revoked token gets the same 401 as
// a malformed one.
func AuthMiddleware(authService *service.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := bearerToken(r)
			if raw == "" {
				writeAuthFailure(w)
				return
			}

			st, err := authService.ValidateToken(r.Context(), raw)
			if err != nil {
				writeAuthFailure(w)
				return
			}

			ctx := context.WithValue(r.Context(), sessionContextKey, st)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(header, "Bearer ")
}

func writeAuthFailure(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"success":false,"error":"invalid token"}`))
}
