package models

import (
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Role of a user.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// PasswordCost matches the cost the existing accounts were hashed with.
const PasswordCost = 10

// User is the users table.
type User struct {
	Base
	Username string `gorm:"uniqueIndex;not null" json:"username"`
	Email    string `gorm:"uniqueIndex;not null" json:"email"`
	// PasswordHash is nil for accounts that only sign in through Google.
	PasswordHash        *string    `json:"-"`
	GoogleID            *string    `gorm:"uniqueIndex" json:"-"`
	ResetToken          *string    `gorm:"uniqueIndex" json:"-"`
	ResetTokenExpiresAt *time.Time `json:"-"`
	Role                Role       `gorm:"type:varchar(16);not null;default:'USER'" json:"role"`
	FullName            string     `json:"fullName"`
	PhoneNumber         string     `json:"phoneNumber"`
	Address             string     `json:"address"`
}

// IsFederated reports whether the account has no local password.
func (u *User) IsFederated() bool {
	return u.PasswordHash == nil
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// ErrNoLocalPassword is returned when a password check is attempted on a
// federated-only account.
var ErrNoLocalPassword = errors.New("account has no local password")

// HashPassword turns a plain password into a bcrypt hash.
func HashPassword(pw string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(pw), PasswordCost)
	return string(hash), err
}

// CheckPassword compares pw with the stored hash. Accounts without a local
// password never match.
func (u *User) CheckPassword(pw string) error {
	if u.PasswordHash == nil {
		return ErrNoLocalPassword
	}
	return bcrypt.CompareHashAndPassword([]byte(*u.PasswordHash), []byte(pw))
}
