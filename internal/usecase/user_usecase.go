// Package usecase contains the application-specific business rules.
// It orchestrates the domain layer to perform tasks.
package usecase

import (
	"context"

	"places/internal/domain/entity"

	"github.com/google/uuid"
)

// --- Input DTOs ---

// RegisterInput defines the data required to register a new account.
type RegisterInput struct {
	Email                string
	PhoneNumber          string
	Password             string
	ConfirmationPassword string
}

// LoginInput defines the data required for a user to log in.
type LoginInput struct {
	Email    string
	Password string
}

// ChangeEmailInput defines the data required to change the login email.
type ChangeEmailInput struct {
	NewEmail string
}

// ChangePasswordInput defines the data required to change the password
// of an authenticated user.
type ChangePasswordInput struct {
	OldPassword          string
	NewPassword          string
	ConfirmationPassword string
}

// --- Output DTOs ---

// AuthOutput returns the user and the generated token pair after a
// successful registration or login.
type AuthOutput struct {
	User         *entity.User
	AccessToken  string
	RefreshToken string
}

// UserUsecase defines the interface for account-related business operations.
// This is the contract that the delivery layer (e.g., API handlers) will depend on.
type UserUsecase interface {
	Register(ctx context.Context, input RegisterInput) (*AuthOutput, error)
	Login(ctx context.Context, input LoginInput) (*AuthOutput, error)
	ChangeEmail(ctx context.Context, userID uuid.UUID, input ChangeEmailInput) (*entity.User, error)
	ChangePassword(ctx context.Context, userID uuid.UUID, input ChangePasswordInput) error
	DeleteAccount(ctx context.Context, userID uuid.UUID) error
}
