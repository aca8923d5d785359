package usecase

import "context"

// ResetPasswordInput defines the data required to commit a
// forgotten-password change. The session token proves the caller
// consumed a valid reset code moments ago.
type ResetPasswordInput struct {
	Email                string
	SessionToken         string
	NewPassword          string
	ConfirmationPassword string
}

// RecoveryUsecase defines the password recovery flow: a short-lived
// mailed code is exchanged for a session token, and the session token
// gates the actual password change. Both secrets are single-use.
type RecoveryUsecase interface {
	// SendResetCode issues (or re-reads) the live reset code for the
	// account and mails it. The code stays stable within its TTL.
	SendResetCode(ctx context.Context, email string) error

	// ConfirmResetCode consumes the reset code and returns a session
	// token on success.
	ConfirmResetCode(ctx context.Context, email, code string) (string, error)

	// ResetPassword consumes the session token and commits the new
	// password.
	ResetPassword(ctx context.Context, input ResetPasswordInput) error
}
