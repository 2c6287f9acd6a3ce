package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"secondhand/internal/apperr"
	"secondhand/internal/models"
	"secondhand/internal/oauth"
	"secondhand/internal/repository"
)

// Auth verifies credentials and resolves Google identities to users.
type Auth struct {
	users UserRepository
	log   *slog.Logger
}

func NewAuth(users UserRepository, log *slog.Logger) *Auth {
	return &Auth{users: users, log: log}
}

// Login checks a username or email with its password. Every failure,
// including Google-only accounts, is reported as invalid credentials.
func (s *Auth) Login(ctx context.Context, login, password string) (*models.User, error) {
	const op = "service.Auth.Login"
	login = strings.TrimSpace(login)
	if login == "" || password == "" {
		return nil, apperr.Authentication(CodeInvalidCredentials)
	}
	u, err := s.users.GetByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.Authentication(CodeInvalidCredentials)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := u.CheckPassword(password); err != nil {
		return nil, apperr.Authentication(CodeInvalidCredentials)
	}
	return u, nil
}

// LoginAdmin is Login restricted to administrators.
func (s *Auth) LoginAdmin(ctx context.Context, login, password string) (*models.User, error) {
	u, err := s.Login(ctx, login, password)
	if err != nil {
		return nil, err
	}
	if !u.IsAdmin() {
		s.log.Warn("non-admin login refused", slog.String("user_id", u.ID.String()))
		return nil, apperr.Authorization(CodeUnauthorized, ErrNotAdmin)
	}
	return u, nil
}

// User loads the account behind a session.
func (s *Auth) User(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.Authentication("please sign in again")
		}
		return nil, fmt.Errorf("service.Auth.User: %w", err)
	}
	return u, nil
}

// SignInWithGoogle finds the user linked to id, links an existing account
// with the same email, or creates a new federated account.
func (s *Auth) SignInWithGoogle(ctx context.Context, id *oauth.Identity) (*models.User, error) {
	const op = "service.Auth.SignInWithGoogle"
	log := s.log.With(slog.String("op", op))

	u, err := s.users.GetByGoogleID(ctx, id.Subject)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	u, err = s.users.GetByEmail(ctx, id.Email)
	switch {
	case err == nil:
		if err := s.users.SetGoogleID(ctx, u.ID, id.Subject); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		subject := id.Subject
		u.GoogleID = &subject
		log.Info("google account linked", slog.String("user_id", u.ID.String()))
		return u, nil
	case !errors.Is(err, repository.ErrNotFound):
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	subject := id.Subject
	u = &models.User{
		Username: usernameFromEmail(id.Email),
		Email:    strings.ToLower(id.Email),
		GoogleID: &subject,
		Role:     models.RoleUser,
		FullName: id.Name,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	log.Info("google account created", slog.String("user_id", u.ID.String()))
	return u, nil
}

// EnsureAdmin creates a local administrator account unless one with email
// already exists. It reports whether an account was created.
func (s *Auth) EnsureAdmin(ctx context.Context, username, email, password string) (bool, error) {
	const op = "service.Auth.EnsureAdmin"
	email = strings.ToLower(strings.TrimSpace(email))
	username = strings.TrimSpace(username)
	if email == "" || password == "" {
		return false, apperr.Validation("admin email and password are required")
	}
	if len(password) < MinPasswordLength {
		return false, apperr.Validation(fmt.Sprintf("admin password must be at least %d characters", MinPasswordLength))
	}
	if username == "" {
		username, _, _ = strings.Cut(email, "@")
	}
	log := s.log.With(slog.String("op", op))

	existing, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if !existing.IsAdmin() {
			log.Warn("admin email belongs to a non-admin account", slog.String("user_id", existing.ID.String()))
		}
		return false, nil
	case !errors.Is(err, repository.ErrNotFound):
		return false, fmt.Errorf("%s: %w", op, err)
	}

	if _, err := s.users.GetByLogin(ctx, username); err == nil {
		return false, apperr.Conflict("admin username is already taken")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	hash, err := models.HashPassword(password)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	u := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: &hash,
		Role:         models.RoleAdmin,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	log.Info("admin account created", slog.String("user_id", u.ID.String()))
	return true, nil
}

// usernameFromEmail turns budi@example.com into budi-1a2b3c4d.
func usernameFromEmail(email string) string {
	local, _, _ := strings.Cut(strings.ToLower(email), "@")
	if local == "" {
		local = "user"
	}
	return local + "-" + uuid.NewString()[:8]
}
