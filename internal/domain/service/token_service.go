package service

import (
	"time"

	"github.com/google/uuid"
)

// TokenClaims carries the validated identity extracted from a token.
type TokenClaims struct {
	UserID uuid.UUID
}

// TokenService defines the interface for issuing and validating the
// access/refresh token pair handed to the HTTP layer.
type TokenService interface {
	// GenerateTokens creates a new access token and refresh token for a given user.
	GenerateTokens(userID uuid.UUID) (accessToken string, refreshToken string, err error)

	// ValidateAccessToken checks an access token and returns its claims.
	ValidateAccessToken(tokenString string) (*TokenClaims, error)

	// GetRefreshTokenDuration returns the configured refresh token lifetime.
	GetRefreshTokenDuration() time.Duration
}
