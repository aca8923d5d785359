package repository

import (
	"context"
	"errors"

	"places/internal/domain/entity"

	"github.com/google/uuid"
)

// ErrRatingNotFound is returned when no rating record exists for a (user, place) pair.
var ErrRatingNotFound = errors.New("rating not found")

// RatingRepository defines the operations for place rating persistence.
type RatingRepository interface {
	// FindByUserAndPlace retrieves the rating record a user left on a place.
	FindByUserAndPlace(ctx context.Context, userID, placeID uuid.UUID) (*entity.PlaceRating, error)

	// Create persists a new rating record.
	Create(ctx context.Context, rating *entity.PlaceRating) error

	// UpdateValue rewrites the rating value of an existing (user, place) record.
	UpdateValue(ctx context.Context, userID, placeID uuid.UUID, rating float64) error
}
