// Package entity contains the core business objects of the project,
// each representing a unique, identifiable concept within the domain.
package entity

import (
	"time"

	"github.com/google/uuid"
)

// User is the core entity in the system, representing a registered account.
// Email doubles as the login identifier and is stored in normalized form.
type User struct {
	ID           uuid.UUID // The unique identifier for the user.
	Email        string    // Normalized email, used as the login identifier.
	PasswordHash string    // Opaque credential hash, produced by the PasswordHasher service.
	FirstName    string    // The user's first name. Optional.
	LastName     string    // The user's last name. Optional.
	PhoneNumber  string    // Contact phone number.
	AvatarRef    string    // Blob storage key of the avatar image. Empty when no avatar is set.
	IsPremium    bool      // Whether the account has a premium subscription.
	CreatedAt    time.Time // Timestamp of when this account was created.
	UpdatedAt    time.Time // Timestamp of the last modification to this account.
}
