package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	domain "github.com/J2c-ashwani/cdisease/internal/domain"
	"github.com/J2c-ashwani/cdisease/internal/platform/auth"
	"github.com/J2c-ashwani/cdisease/internal/services"
)

type stubAuthService struct {
	registerFn func(context.Context, services.RegisterCommand) (services.AuthResult, error)
	loginFn    func(context.Context, services.LoginCommand) (services.AuthResult, error)
	resetFn    func(context.Context, services.ResetPasswordCommand) error
	currentFn  func(context.Context, string) (services.User, error)
}

func (s *stubAuthService) Register(ctx context.Context, cmd services.RegisterCommand) (services.AuthResult, error) {
	if s.registerFn != nil {
		return s.registerFn(ctx, cmd)
	}
	return services.AuthResult{}, errors.New("not implemented")
}

func (s *stubAuthService) Login(ctx context.Context, cmd services.LoginCommand) (services.AuthResult, error) {
	if s.loginFn != nil {
		return s.loginFn(ctx, cmd)
	}
	return services.AuthResult{}, errors.New("not implemented")
}

func (s *stubAuthService) ResetPassword(ctx context.Context, cmd services.ResetPasswordCommand) error {
	if s.resetFn != nil {
		return s.resetFn(ctx, cmd)
	}
	return errors.New("not implemented")
}

func (s *stubAuthService) CurrentUser(ctx context.Context, userID string) (services.User, error) {
	if s.currentFn != nil {
		return s.currentFn(ctx, userID)
	}
	return services.User{}, errors.New("not implemented")
}

var _ services.AuthService = (*stubAuthService)(nil)

func newAuthTestRouter(service services.AuthService) chi.Router {
	handler := NewAuthHandlers(nil, service)
	router := chi.NewRouter()
	router.Route("/auth", handler.Routes)
	return router
}

func TestAuthHandlersRegisterSuccess(t *testing.T) {
	issued := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	var captured services.RegisterCommand
	service := &stubAuthService{
		registerFn: func(ctx context.Context, cmd services.RegisterCommand) (services.AuthResult, error) {
			captured = cmd
			return services.AuthResult{
				Token:     "tok_abc",
				ExpiresAt: issued.Add(24 * time.Hour),
				User: domain.User{
					ID:       "usr_1",
					Email:    "asha@example.com",
					Name:     "Asha",
					Role:     domain.RolePatient,
					IsActive: true,
				},
			}, nil
		},
	}

	body := bytes.NewBufferString(`{"email":"asha@example.com","password":"hunter2secret","name":"Asha"}`)
	req := httptest.NewRequest(http.MethodPost, "/auth/register", body)
	rr := httptest.NewRecorder()
	newAuthTestRouter(service).ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rr.Code, rr.Body.String())
	}
	if captured.Email != "asha@example.com" || captured.Name != "Asha" {
		t.Fatalf("unexpected command: %+v", captured)
	}

	var payload struct {
		Token string `json:"token"`
		User  struct {
			ID   string `json:"id"`
			Role string `json:"role"`
		} `json:"user"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if payload.Token != "tok_abc" {
		t.Fatalf("expected token tok_abc, got %s", payload.Token)
	}
	if payload.User.ID != "usr_1" || payload.User.Role != "patient" {
		t.Fatalf("unexpected user payload: %+v", payload.User)
	}
}

func TestAuthHandlersRegisterConflict(t *testing.T) {
	service := &stubAuthService{
		registerFn: func(context.Context, services.RegisterCommand) (services.AuthResult, error) {
			return services.AuthResult{}, services.ErrAuthEmailTaken
		},
	}

	body := bytes.NewBufferString(`{"email":"asha@example.com","password":"hunter2secret","name":"Asha"}`)
	req := httptest.NewRequest(http.MethodPost, "/auth/register", body)
	rr := httptest.NewRecorder()
	newAuthTestRouter(service).ServeHTTP(rr, req)

	if rr.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d", rr.Code)
	}

	var payload map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if payload["error"] != "email_taken" {
		t.Fatalf("expected email_taken error, got %v", payload["error"])
	}
}

func TestAuthHandlersLoginInvalidCredentials(t *testing.T) {
	service := &stubAuthService{
		loginFn: func(context.Context, services.LoginCommand) (services.AuthResult, error) {
			return services.AuthResult{}, services.ErrAuthInvalidCredentials
		},
	}

	body := bytes.NewBufferString(`{"email":"asha@example.com","password":"wrong"}`)
	req := httptest.NewRequest(http.MethodPost, "/auth/login", body)
	rr := httptest.NewRecorder()
	newAuthTestRouter(service).ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rr.Code)
	}
}

func TestAuthHandlersLoginEmptyBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	rr := httptest.NewRecorder()
	newAuthTestRouter(&stubAuthService{}).ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}

func TestAuthHandlersRateLimit(t *testing.T) {
	service := &stubAuthService{
		loginFn: func(context.Context, services.LoginCommand) (services.AuthResult, error) {
			return services.AuthResult{}, services.ErrAuthInvalidCredentials
		},
	}
	router := newAuthTestRouter(service)

	var last int
	for i := 0; i < authRateLimit+1; i++ {
		body := bytes.NewBufferString(`{"email":"asha@example.com","password":"wrong"}`)
		req := httptest.NewRequest(http.MethodPost, "/auth/login", body)
		req.RemoteAddr = "10.1.2.3:5000"
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		last = rr.Code
	}

	if last != http.StatusTooManyRequests {
		t.Fatalf("expected status 429 after %d attempts, got %d", authRateLimit+1, last)
	}
}

func TestAuthHandlersMe(t *testing.T) {
	service := &stubAuthService{
		currentFn: func(ctx context.Context, userID string) (services.User, error) {
			if userID != "usr_1" {
				t.Fatalf("expected usr_1, got %s", userID)
			}
			return domain.User{ID: "usr_1", Email: "asha@example.com", Role: domain.RolePatient, IsActive: true}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req = req.WithContext(auth.WithIdentity(req.Context(), &auth.Identity{UserID: "usr_1"}))
	rr := httptest.NewRecorder()
	newAuthTestRouter(service).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	var payload struct {
		User struct {
			Email string `json:"email"`
		} `json:"user"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if payload.User.Email != "asha@example.com" {
		t.Fatalf("expected email asha@example.com, got %s", payload.User.Email)
	}
}

func TestAuthHandlersMeUnauthenticated(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	rr := httptest.NewRecorder()
	newAuthTestRouter(&stubAuthService{}).ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rr.Code)
	}
}
