package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"skillswap/internal/service"
	"skillswap/internal/util"
)

// AuthHandler handles the authentication surface that exercises the
// throttling, lockout and revocation core.
type AuthHandler struct {
	authService *service.AuthService
	logger      *zap.Logger
}

func NewAuthHandler(authService *service.AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      logger,
	}
}

// Response represents a standard API response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Message string      `json:"message,omitempty"`
}

func successResponse(data interface{}, message string) Response {
	return Response{
		Success: true,
		Data:    data,
		Message: message,
	}
}

func errorResponse(err error, message string) Response {
	return Response{
		Success: false,
		Error:   err.Error(),
		Message: message,
	}
}

// RegisterPublicRoutes mounts the routes reachable without a session.
func (h *AuthHandler) RegisterPublicRoutes(router chi.Router) {
	router.Post("/auth/login", h.Login)
	router.Post("/auth/logout", h.Logout)
}

// RegisterProtectedRoutes mounts the routes behind the auth middleware.
func (h *AuthHandler) RegisterProtectedRoutes(router chi.Router) {
	router.Get("/auth/me", h.Me)
}

// Login authenticates credentials. 423 signals a locked account and is
// checked independently of the generic rate limiter on this route.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	var req service.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondWithError(w, http.StatusBadRequest, err, "Invalid request body")
		return
	}
	req.Email = util.SanitizeInput(req.Email)

	result, err := h.authService.Login(ctx, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAccountLocked):
			h.respondWithJSON(w, http.StatusLocked, errorResponse(err,
				"Account temporarily locked due to repeated failed logins. Try again later."))
		case errors.Is(err, service.ErrAccountBlocked):
			h.respondWithError(w, http.StatusForbidden, err, "Account is blocked")
		case errors.Is(err, service.ErrInvalidCredentials):
			h.respondWithError(w, http.StatusUnauthorized, err, "Invalid email or password")
		default:
			h.respondWithError(w, http.StatusInternalServerError, err, "Login failed")
		}
		return
	}

	h.respondWithJSON(w, http.StatusOK, successResponse(result, "Login successful"))
	h.logger.Info("login via HTTP",
		util.String("user_id", result.UserID),
		util.Duration("duration", time.Since(startTime)))
}

// Logout revokes the presented token; best-effort, so a degraded store
// still yields a successful logout.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	raw := bearerToken(r)
	if raw == "" {
		h.respondWithError(w, http.StatusBadRequest, errors.New("missing bearer token"), "Authorization header required")
		return
	}

	if err := h.authService.Logout(r.Context(), raw); err != nil {
		h.respondWithError(w, http.StatusUnauthorized, err, "Invalid token")
		return
	}

	h.respondWithJSON(w, http.StatusOK, successResponse(nil, "Logged out"))
}

// Me returns the session attached by the auth middleware.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	st, ok := SessionFromContext(r.Context())
	if !ok {
		writeAuthFailure(w)
		return
	}

	h.respondWithJSON(w, http.StatusOK, successResponse(map[string]interface{}{
		"user_id":    st.UserID,
		"expires_at": st.ExpiresAt,
	}, "Session valid"))
}

func (h *AuthHandler) respondWithJSON(w http.ResponseWriter, status int, payload Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to encode response", util.ErrorField(err))
	}
}

func (h *AuthHandler) respondWithError(w http.ResponseWriter, status int, err error, message string) {
	h.respondWithJSON(w, status, errorResponse(err, message))
}
