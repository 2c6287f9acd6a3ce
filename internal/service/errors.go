package service

import "errors"

var (
	// ErrFederatedAccount marks operations refused because the account signs
	// in through Google only.
	ErrFederatedAccount = errors.New("federated-only account")
	// ErrNotAdmin marks a valid login by an account without the admin role.
	ErrNotAdmin = errors.New("not an administrator")
)

// Codes the login view switches on.
const (
	CodeInvalidCredentials = "InvalidCredentials"
	CodeUnauthorized       = "Unauthorized"
)

// User-facing messages shared by handlers and tests.
const (
	MsgFederatedPassword = "Google accounts cannot change their password here. Use your Google Account settings."
	MsgInvalidResetToken = "The reset link is invalid or has expired."
	MsgInvalidOTP        = "The code is invalid or has expired."
	MsgSamePassword      = "The new password must be different from the old one."
	MsgWrongOldPassword  = "The old password is incorrect."
)

// MinPasswordLength applies to new passwords set through a reset.
const MinPasswordLength = 6
