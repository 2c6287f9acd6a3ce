package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"secondhand/internal/models"
)

// Users stores accounts.
type Users struct {
	db *gorm.DB
}

func NewUsers(db *gorm.DB) *Users {
	return &Users{db: db}
}

func (r *Users) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	const op = "repository.Users.GetByID"
	var u models.User
	if err := r.db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("%s: %w", op, notFound(err))
	}
	return &u, nil
}

// GetByLogin finds a user by email when login contains "@", by username
// otherwise.
func (r *Users) GetByLogin(ctx context.Context, login string) (*models.User, error) {
	const op = "repository.Users.GetByLogin"
	var u models.User
	q := r.db.WithContext(ctx)
	if strings.Contains(login, "@") {
		q = q.Where("LOWER(email) = LOWER(?)", login)
	} else {
		q = q.Where("username = ?", login)
	}
	if err := q.First(&u).Error; err != nil {
		return nil, fmt.Errorf("%s: %w", op, notFound(err))
	}
	return &u, nil
}

func (r *Users) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "repository.Users.GetByEmail"
	var u models.User
	if err := r.db.WithContext(ctx).Where("LOWER(email) = LOWER(?)", email).First(&u).Error; err != nil {
		return nil, fmt.Errorf("%s: %w", op, notFound(err))
	}
	return &u, nil
}

func (r *Users) GetByGoogleID(ctx context.Context, googleID string) (*models.User, error) {
	const op = "repository.Users.GetByGoogleID"
	var u models.User
	if err := r.db.WithContext(ctx).Where("google_id = ?", googleID).First(&u).Error; err != nil {
		return nil, fmt.Errorf("%s: %w", op, notFound(err))
	}
	return &u, nil
}

// GetByResetToken returns the account holding token if it has not expired at now.
func (r *Users) GetByResetToken(ctx context.Context, token string, now time.Time) (*models.User, error) {
	const op = "repository.Users.GetByResetToken"
	var u models.User
	err := r.db.WithContext(ctx).
		Where("reset_token = ? AND reset_token_expires_at >= ?", token, now).
		First(&u).Error
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, notFound(err))
	}
	return &u, nil
}

func (r *Users) Create(ctx context.Context, u *models.User) error {
	const op = "repository.Users.Create"
	if err := r.db.WithContext(ctx).Create(u).Error; err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// SetGoogleID links an existing account to a Google subject.
func (r *Users) SetGoogleID(ctx context.Context, id uuid.UUID, googleID string) error {
	return r.update(ctx, "repository.Users.SetGoogleID", id, map[string]any{"google_id": googleID})
}

func (r *Users) UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error {
	return r.update(ctx, "repository.Users.UpdatePassword", id, map[string]any{"password_hash": hash})
}

func (r *Users) SetResetToken(ctx context.Context, id uuid.UUID, token string, expiresAt time.Time) error {
	return r.update(ctx, "repository.Users.SetResetToken", id, map[string]any{
		"reset_token":            token,
		"reset_token_expires_at": expiresAt,
	})
}

// ResetPassword stores the new hash and clears the reset token in one write.
func (r *Users) ResetPassword(ctx context.Context, id uuid.UUID, hash string) error {
	return r.update(ctx, "repository.Users.ResetPassword", id, map[string]any{
		"password_hash":          hash,
		"reset_token":            nil,
		"reset_token_expires_at": nil,
	})
}

// Profile holds the self-service account fields.
type Profile struct {
	Username    string
	FullName    string
	PhoneNumber string
	Address     string
}

func (r *Users) UpdateProfile(ctx context.Context, id uuid.UUID, p Profile) error {
	return r.update(ctx, "repository.Users.UpdateProfile", id, map[string]any{
		"username":     p.Username,
		"full_name":    p.FullName,
		"phone_number": p.PhoneNumber,
		"address":      p.Address,
	})
}

func (r *Users) update(ctx context.Context, op string, id uuid.UUID, fields map[string]any) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return fmt.Errorf("%s: %w", op, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return nil
}
