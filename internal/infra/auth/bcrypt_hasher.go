// Package auth provides concrete implementations for authentication-related domain services.
package auth

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"

	"places/config"
	domainerrors "places/internal/domain/errors"
	"places/internal/domain/service"
)

// bcryptHasher is a concrete implementation of the PasswordHasher interface using bcrypt.
type bcryptHasher struct {
	cost   int
	policy config.PasswordStrengthConfig
}

// NewBcryptHasher is the constructor for bcryptHasher. The cost and the
// strength policy come from configuration.
func NewBcryptHasher(cfg *config.Config) service.PasswordHasher {
	return &bcryptHasher{
		cost:   cfg.Auth.BcryptCost,
		policy: *cfg.PasswordStrength,
	}
}

// NewBcryptHasherWithCost builds a hasher with an explicit cost and the
// default strength policy. Lower costs keep test suites fast.
func NewBcryptHasherWithCost(cost int) service.PasswordHasher {
	return &bcryptHasher{
		cost: cost,
		policy: config.PasswordStrengthConfig{
			MinLength:        8,
			MaxLength:        40,
			RequireUppercase: true,
			RequireLowercase: true,
			RequireNumbers:   true,
			RequireSpecial:   true,
		},
	}
}

// Hash generates a salted hash from a plaintext password using bcrypt.
// bcrypt automatically handles salt generation.
func (h *bcryptHasher) Hash(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)

	return string(bytes), err
}

// Check compares a plaintext password with a bcrypt hash.
func (h *bcryptHasher) Check(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	// err is nil if the password and hash match.
	return err == nil
}

// ValidatePasswordStrength checks the plaintext against the configured
// policy. The returned error carries the specific failure as details.
func (h *bcryptHasher) ValidatePasswordStrength(password string) error {
	runes := []rune(password)

	if len(runes) < h.policy.MinLength {
		return domainerrors.ErrPasswordStrength.WithDetails(
			fmt.Sprintf("password must be at least %d characters long", h.policy.MinLength))
	}
	if h.policy.MaxLength > 0 && len(runes) > h.policy.MaxLength {
		return domainerrors.ErrPasswordStrength.WithDetails(
			fmt.Sprintf("password must be at most %d characters long", h.policy.MaxLength))
	}
	if strings.ContainsFunc(password, unicode.IsSpace) {
		return domainerrors.ErrPasswordStrength.WithDetails("password must not contain spaces")
	}
	if h.policy.RequireUppercase && !strings.ContainsFunc(password, unicode.IsUpper) {
		return domainerrors.ErrPasswordStrength.WithDetails("password must contain at least one uppercase letter")
	}
	if h.policy.RequireLowercase && !strings.ContainsFunc(password, unicode.IsLower) {
		return domainerrors.ErrPasswordStrength.WithDetails("password must contain at least one lowercase letter")
	}
	if h.policy.RequireNumbers && !strings.ContainsFunc(password, unicode.IsDigit) {
		return domainerrors.ErrPasswordStrength.WithDetails("password must contain at least one number")
	}
	if h.policy.RequireSpecial && !strings.ContainsFunc(password, isSpecial) {
		return domainerrors.ErrPasswordStrength.WithDetails("password must contain at least one special character")
	}

	return nil
}

func isSpecial(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r) && !unicode.IsSpace(r)
}
