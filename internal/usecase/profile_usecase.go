package usecase

import (
	"context"
	"io"

	"github.com/google/uuid"
)

// ImageUpload carries one uploaded image: its original file name (for
// the extension) and its content.
type ImageUpload struct {
	Name    string
	Content io.Reader
}

// UpdateProfileInput defines a partial profile update. Nil pointers
// leave the field unchanged. RemoveAvatar deletes the current avatar
// blob; Avatar uploads a replacement.
type UpdateProfileInput struct {
	FirstName    *string
	LastName     *string
	PhoneNumber  *string
	RemoveAvatar bool
	Avatar       *ImageUpload
}

// ProfileOutput returns the profile fields exposed to the client.
type ProfileOutput struct {
	Email       string
	FirstName   string
	LastName    string
	PhoneNumber string
	AvatarURL   string
	IsPremium   bool
}

// HomepageOutput aggregates the data shown on the client's home screen.
type HomepageOutput struct {
	Profile *ProfileOutput
	Places  []*PlaceView
}

// ProfileUsecase defines the interface for profile-related operations.
type ProfileUsecase interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*ProfileOutput, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, input UpdateProfileInput) (*ProfileOutput, error)
	Homepage(ctx context.Context, userID uuid.UUID) (*HomepageOutput, error)
}
