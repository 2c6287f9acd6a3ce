package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"secondhand/internal/apperr"
	"secondhand/internal/lib/sl"
	"secondhand/internal/mail"
	"secondhand/internal/models"
	"secondhand/internal/otp"
	"secondhand/internal/repository"
)

// UserRepository is the persistence the account and auth services need.
type UserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByLogin(ctx context.Context, login string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByGoogleID(ctx context.Context, googleID string) (*models.User, error)
	GetByResetToken(ctx context.Context, token string, now time.Time) (*models.User, error)
	Create(ctx context.Context, u *models.User) error
	SetGoogleID(ctx context.Context, id uuid.UUID, googleID string) error
	UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error
	SetResetToken(ctx context.Context, id uuid.UUID, token string, expiresAt time.Time) error
	ResetPassword(ctx context.Context, id uuid.UUID, hash string) error
	UpdateProfile(ctx context.Context, id uuid.UUID, p repository.Profile) error
}

// OTPStore keeps one-time codes between request and verification.
type OTPStore interface {
	Save(ctx context.Context, email, code string) error
	Consume(ctx context.Context, email, code string) (bool, error)
}

type ChangePasswordRequest struct {
	OldPassword string
	NewPassword string
}

type ResetPasswordRequest struct {
	Token           string
	NewPassword     string
	ConfirmPassword string
}

type ProfileRequest struct {
	Username    string `validate:"required,max=64"`
	FullName    string `validate:"max=128"`
	PhoneNumber string `validate:"omitempty,max=32"`
	Address     string `validate:"max=512"`
}

// Accounts covers password changes, password recovery and profile edits.
type Accounts struct {
	users    UserRepository
	otps     OTPStore
	mailer   mail.Sender
	validate *validator.Validate
	log      *slog.Logger
	resetTTL time.Duration
	now      func() time.Time
	newCode  func() (string, error)
}

func NewAccounts(users UserRepository, otps OTPStore, mailer mail.Sender, resetTTL time.Duration, log *slog.Logger) *Accounts {
	return &Accounts{
		users:    users,
		otps:     otps,
		mailer:   mailer,
		validate: validator.New(),
		log:      log,
		resetTTL: resetTTL,
		now:      time.Now,
		newCode:  otp.Generate,
	}
}

// Profile returns the signed-in user.
func (s *Accounts) Profile(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.Authentication("please sign in again")
		}
		return nil, fmt.Errorf("service.Accounts.Profile: %w", err)
	}
	return u, nil
}

// ChangePassword replaces the password of a locally authenticated user.
// Federated accounts are refused before any field is looked at.
func (s *Accounts) ChangePassword(ctx context.Context, userID uuid.UUID, req ChangePasswordRequest) error {
	const op = "service.Accounts.ChangePassword"
	u, err := s.Profile(ctx, userID)
	if err != nil {
		return err
	}
	if u.IsFederated() {
		return apperr.Authorization(MsgFederatedPassword, ErrFederatedAccount)
	}
	if req.OldPassword == "" || req.NewPassword == "" {
		return apperr.Validation("old and new password are required")
	}
	if err := u.CheckPassword(req.OldPassword); err != nil {
		return apperr.Validation(MsgWrongOldPassword)
	}
	if req.OldPassword == req.NewPassword {
		return apperr.Conflict(MsgSamePassword)
	}

	hash, err := models.HashPassword(req.NewPassword)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.users.UpdatePassword(ctx, u.ID, hash); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("password changed", slog.String("op", op), slog.String("user_id", u.ID.String()))
	return nil
}

// ResetPassword sets a new password for the holder of a valid reset token
// and invalidates the token.
func (s *Accounts) ResetPassword(ctx context.Context, req ResetPasswordRequest) error {
	const op = "service.Accounts.ResetPassword"
	if req.Token == "" || req.NewPassword == "" || req.ConfirmPassword == "" {
		return apperr.Validation("all fields are required")
	}
	if len(req.NewPassword) < MinPasswordLength {
		return apperr.Validation(fmt.Sprintf("the password must be at least %d characters", MinPasswordLength))
	}
	if req.NewPassword != req.ConfirmPassword {
		return apperr.Validation("the passwords do not match")
	}

	u, err := s.users.GetByResetToken(ctx, req.Token, s.now())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.Validation(MsgInvalidResetToken)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	hash, err := models.HashPassword(req.NewPassword)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.users.ResetPassword(ctx, u.ID, hash); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("password reset", slog.String("op", op), slog.String("user_id", u.ID.String()))
	return nil
}

// RequestOTP mails a one-time code to email. Unknown and Google-only
// addresses get the same outcome as known ones.
func (s *Accounts) RequestOTP(ctx context.Context, email string) error {
	const op = "service.Accounts.RequestOTP"
	email = strings.TrimSpace(email)
	if err := s.validate.Var(email, "required,email"); err != nil {
		return apperr.Validation("enter a valid email address")
	}
	log := s.log.With(slog.String("op", op))

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			log.Debug("otp requested for unknown email")
			return nil
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	if u.IsFederated() {
		log.Info("otp requested for google account", slog.String("user_id", u.ID.String()))
		return nil
	}

	code, err := s.newCode()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.otps.Save(ctx, email, code); err != nil {
		return apperr.Storage(fmt.Errorf("%s: %w", op, err))
	}
	body := fmt.Sprintf("Your password reset code is %s.\r\nIt expires in a few minutes. Ignore this email if you did not ask for it.\r\n", code)
	if err := s.mailer.Send(ctx, u.Email, "Password reset code", body); err != nil {
		log.Error("failed to send otp", slog.String("user_id", u.ID.String()), sl.Err(err))
		return apperr.Upstream(fmt.Errorf("%s: %w", op, err))
	}
	log.Info("otp sent", slog.String("user_id", u.ID.String()))
	return nil
}

// VerifyOTP consumes the code and returns a fresh reset token.
func (s *Accounts) VerifyOTP(ctx context.Context, email, code string) (string, error) {
	const op = "service.Accounts.VerifyOTP"
	email = strings.TrimSpace(email)
	code = strings.TrimSpace(code)
	if email == "" || code == "" {
		return "", apperr.Validation("email and code are required")
	}

	ok, err := s.otps.Consume(ctx, email, code)
	if err != nil {
		return "", apperr.Storage(fmt.Errorf("%s: %w", op, err))
	}
	if !ok {
		return "", apperr.Validation(MsgInvalidOTP)
	}

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", apperr.Validation(MsgInvalidOTP)
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}

	token, err := newResetToken()
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if err := s.users.SetResetToken(ctx, u.ID, token, s.now().Add(s.resetTTL)); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return token, nil
}

// UpdateProfile edits the self-service fields of the signed-in user.
func (s *Accounts) UpdateProfile(ctx context.Context, userID uuid.UUID, req ProfileRequest) error {
	const op = "service.Accounts.UpdateProfile"
	req.Username = strings.TrimSpace(req.Username)
	req.FullName = strings.TrimSpace(req.FullName)
	req.PhoneNumber = strings.TrimSpace(req.PhoneNumber)
	req.Address = strings.TrimSpace(req.Address)
	if err := s.validate.Struct(req); err != nil {
		return apperr.Validation(validationMessage(err))
	}

	err := s.users.UpdateProfile(ctx, userID, repository.Profile{
		Username:    req.Username,
		FullName:    req.FullName,
		PhoneNumber: req.PhoneNumber,
		Address:     req.Address,
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.Authentication("please sign in again")
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func newResetToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func validationMessage(err error) string {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		field := strings.ToLower(e.Field())
		switch e.Tag() {
		case "required":
			msgs = append(msgs, field+" is required")
		case "max":
			msgs = append(msgs, field+" is too long")
		default:
			msgs = append(msgs, field+" is not valid")
		}
	}
	return strings.Join(msgs, ", ")
}
