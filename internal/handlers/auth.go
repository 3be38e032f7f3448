package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/J2c-ashwani/cdisease/internal/platform/auth"
	"github.com/J2c-ashwani/cdisease/internal/platform/httpx"
	"github.com/J2c-ashwani/cdisease/internal/services"
)

const (
	authRateLimit  = 10
	authRateWindow = time.Minute
)

// AuthHandlers exposes registration, login, and session endpoints.
type AuthHandlers struct {
	authn   *auth.Authenticator
	service services.AuthService
	limiter rateLimiter
}

// AuthOption customises AuthHandlers construction.
type AuthOption func(*AuthHandlers)

// WithAuthRateLimit overrides the per-minute rate limit on credential endpoints.
func WithAuthRateLimit(perMinute int) AuthOption {
	return func(h *AuthHandlers) {
		h.limiter = newSimpleRateLimiter(perMinute, authRateWindow, time.Now)
	}
}

// NewAuthHandlers constructs the auth endpoint handlers. Credential endpoints
// are rate limited per client IP.
func NewAuthHandlers(authn *auth.Authenticator, service services.AuthService, opts ...AuthOption) *AuthHandlers {
	h := &AuthHandlers{
		authn:   authn,
		service: service,
		limiter: newSimpleRateLimiter(authRateLimit, authRateWindow, time.Now),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// Routes wires the /auth endpoints onto the provided router.
func (h *AuthHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/register", h.register)
	r.Post("/login", h.login)
	r.Post("/reset-password", h.resetPassword)

	r.Group(func(authed chi.Router) {
		if h.authn != nil {
			authed.Use(h.authn.RequireAuth())
		}
		authed.Get("/me", h.me)
	})
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type resetPasswordRequest struct {
	Email       string `json:"email"`
	NewPassword string `json:"new_password"`
}

type authResponse struct {
	Token     string      `json:"token"`
	ExpiresAt string      `json:"expires_at"`
	User      userPayload `json:"user"`
}

func (h *AuthHandlers) register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.allow(ctx, w, r) {
		return
	}

	var req registerRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	result, err := h.service.Register(ctx, services.RegisterCommand{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Phone:    req.Phone,
	})
	if err != nil {
		writeAuthError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusCreated, buildAuthResponse(result))
}

func (h *AuthHandlers) login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.allow(ctx, w, r) {
		return
	}

	var req loginRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	result, err := h.service.Login(ctx, services.LoginCommand{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeAuthError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, buildAuthResponse(result))
}

func (h *AuthHandlers) resetPassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.allow(ctx, w, r) {
		return
	}

	var req resetPasswordRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	if err := h.service.ResetPassword(ctx, services.ResetPasswordCommand{
		Email:       req.Email,
		NewPassword: req.NewPassword,
	}); err != nil {
		writeAuthError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]any{"reset": true})
}

func (h *AuthHandlers) me(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := requireIdentity(ctx, w)
	if !ok {
		return
	}

	user, err := h.service.CurrentUser(ctx, identity.UserID)
	if err != nil {
		writeAuthError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]any{"user": buildUserPayload(user)})
}

// allow applies the per-IP rate limit on credential endpoints.
func (h *AuthHandlers) allow(ctx context.Context, w http.ResponseWriter, r *http.Request) bool {
	if h.limiter == nil {
		return true
	}
	key := strings.TrimSpace(r.RemoteAddr)
	if host := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); host != "" {
		key = host
	}
	if h.limiter.Allow(key) {
		return true
	}
	httpx.WriteError(ctx, w, httpx.NewError("rate_limited", "too many attempts; retry later", http.StatusTooManyRequests))
	return false
}

func buildAuthResponse(result services.AuthResult) authResponse {
	return authResponse{
		Token:     result.Token,
		ExpiresAt: formatTime(result.ExpiresAt),
		User:      buildUserPayload(result.User),
	}
}

func writeAuthError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrAuthInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrAuthEmailTaken):
		httpx.WriteError(ctx, w, httpx.NewError("email_taken", "email is already registered", http.StatusConflict))
	case errors.Is(err, services.ErrAuthInvalidCredentials):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_credentials", "email or password is incorrect", http.StatusUnauthorized))
	case errors.Is(err, services.ErrAuthAccountDisabled):
		httpx.WriteError(ctx, w, httpx.NewError("account_disabled", "account has been deactivated", http.StatusForbidden))
	case errors.Is(err, services.ErrAuthUserNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("user_not_found", "account not found", http.StatusNotFound))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("internal_error", "unexpected failure", http.StatusInternalServerError))
	}
}
