package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	domain "github.com/J2c-ashwani/cdisease/internal/domain"
	platformauth "github.com/J2c-ashwani/cdisease/internal/platform/auth"
	"github.com/J2c-ashwani/cdisease/internal/repositories"
)

const (
	userIDPrefix      = "usr_"
	minPasswordLength = 8
)

var (
	// ErrAuthInvalidInput indicates validation failures for auth operations.
	ErrAuthInvalidInput = errors.New("auth: invalid input")
	// ErrAuthEmailTaken indicates the email is already registered.
	ErrAuthEmailTaken = errors.New("auth: email already registered")
	// ErrAuthInvalidCredentials indicates the email or password did not match.
	ErrAuthInvalidCredentials = errors.New("auth: invalid credentials")
	// ErrAuthAccountDisabled indicates the account has been deactivated.
	ErrAuthAccountDisabled = errors.New("auth: account disabled")
	// ErrAuthUserNotFound indicates the account could not be located.
	ErrAuthUserNotFound = errors.New("auth: user not found")
)

// TokenIssuer mints signed access tokens for authenticated accounts.
type TokenIssuer interface {
	Issue(userID string, email string, role string) (string, time.Time, error)
}

// AuthServiceDeps bundles collaborators required to construct an AuthService.
type AuthServiceDeps struct {
	Users          repositories.UserRepository
	Tokens         TokenIssuer
	Clock          func() time.Time
	IDGenerator    func() string
	HashPassword   func(password string) (string, error)
	VerifyPassword func(hash string, password string) error
	Logger         func(ctx context.Context, event string, fields map[string]any)
}

type authService struct {
	users    repositories.UserRepository
	tokens   TokenIssuer
	clock    func() time.Time
	newID    func() string
	hash     func(string) (string, error)
	verify   func(string, string) error
	logEvent func(ctx context.Context, event string, fields map[string]any)
}

// NewAuthService wires dependencies into a concrete AuthService implementation.
func NewAuthService(deps AuthServiceDeps) (AuthService, error) {
	if deps.Users == nil {
		return nil, errors.New("auth service: user repository is required")
	}
	if deps.Tokens == nil {
		return nil, errors.New("auth service: token issuer is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string { return userIDPrefix + ulid.Make().String() }
	}
	hash := deps.HashPassword
	if hash == nil {
		hash = platformauth.HashPassword
	}
	verify := deps.VerifyPassword
	if verify == nil {
		verify = platformauth.VerifyPassword
	}
	logEvent := deps.Logger
	if logEvent == nil {
		logEvent = func(context.Context, string, map[string]any) {}
	}

	return &authService{
		users:  deps.Users,
		tokens: deps.Tokens,
		clock: func() time.Time {
			return clock().UTC()
		},
		newID:    idGen,
		hash:     hash,
		verify:   verify,
		logEvent: logEvent,
	}, nil
}

func (s *authService) Register(ctx context.Context, cmd RegisterCommand) (AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(cmd.Email))
	name := strings.TrimSpace(cmd.Name)
	switch {
	case email == "" || !strings.Contains(email, "@"):
		return AuthResult{}, fmt.Errorf("%w: valid email is required", ErrAuthInvalidInput)
	case len(cmd.Password) < minPasswordLength:
		return AuthResult{}, fmt.Errorf("%w: password must be at least %d characters", ErrAuthInvalidInput, minPasswordLength)
	case name == "":
		return AuthResult{}, fmt.Errorf("%w: name is required", ErrAuthInvalidInput)
	}

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return AuthResult{}, ErrAuthEmailTaken
	} else if !isRepoNotFound(err) {
		return AuthResult{}, err
	}

	passwordHash, err := s.hash(cmd.Password)
	if err != nil {
		return AuthResult{}, fmt.Errorf("auth service: hash password: %w", err)
	}

	now := s.clock()
	user := domain.User{
		ID:           s.newID(),
		Email:        email,
		PasswordHash: passwordHash,
		Name:         name,
		Phone:        strings.TrimSpace(cmd.Phone),
		Role:         domain.RolePatient,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Insert(ctx, user); err != nil {
		if isRepoConflict(err) {
			return AuthResult{}, ErrAuthEmailTaken
		}
		return AuthResult{}, err
	}

	s.logEvent(ctx, "auth.registered", map[string]any{
		"userId": user.ID,
		"role":   string(user.Role),
	})
	return s.issueResult(user)
}

func (s *authService) Login(ctx context.Context, cmd LoginCommand) (AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(cmd.Email))
	if email == "" || cmd.Password == "" {
		return AuthResult{}, fmt.Errorf("%w: email and password are required", ErrAuthInvalidInput)
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if isRepoNotFound(err) {
			return AuthResult{}, ErrAuthInvalidCredentials
		}
		return AuthResult{}, err
	}
	if err := s.verify(user.PasswordHash, cmd.Password); err != nil {
		return AuthResult{}, ErrAuthInvalidCredentials
	}
	if !user.IsActive {
		return AuthResult{}, ErrAuthAccountDisabled
	}

	s.logEvent(ctx, "auth.logged_in", map[string]any{"userId": user.ID})
	return s.issueResult(user)
}

// ResetPassword replaces the stored hash for the account matching the email.
// This is a development-grade flow without email verification.
func (s *authService) ResetPassword(ctx context.Context, cmd ResetPasswordCommand) error {
	email := strings.ToLower(strings.TrimSpace(cmd.Email))
	if email == "" {
		return fmt.Errorf("%w: email is required", ErrAuthInvalidInput)
	}
	if len(cmd.NewPassword) < minPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", ErrAuthInvalidInput, minPasswordLength)
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if isRepoNotFound(err) {
			return ErrAuthUserNotFound
		}
		return err
	}

	passwordHash, err := s.hash(cmd.NewPassword)
	if err != nil {
		return fmt.Errorf("auth service: hash password: %w", err)
	}
	user.PasswordHash = passwordHash
	user.UpdatedAt = s.clock()
	if err := s.users.Update(ctx, user); err != nil {
		return err
	}

	s.logEvent(ctx, "auth.password_reset", map[string]any{"userId": user.ID})
	return nil
}

func (s *authService) CurrentUser(ctx context.Context, userID string) (User, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return User{}, fmt.Errorf("%w: user id is required", ErrAuthInvalidInput)
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if isRepoNotFound(err) {
			return User{}, ErrAuthUserNotFound
		}
		return User{}, err
	}
	return sanitizeUser(user), nil
}

func (s *authService) issueResult(user domain.User) (AuthResult, error) {
	token, expiresAt, err := s.tokens.Issue(user.ID, user.Email, string(user.Role))
	if err != nil {
		return AuthResult{}, fmt.Errorf("auth service: issue token: %w", err)
	}
	return AuthResult{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      sanitizeUser(user),
	}, nil
}

// sanitizeUser strips the credential hash before the record leaves the service layer.
func sanitizeUser(user domain.User) domain.User {
	user.PasswordHash = ""
	return user
}
