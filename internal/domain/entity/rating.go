package entity

import (
	"time"

	"github.com/google/uuid"
)

// PlaceRating is a single (user, place) rating record. A user may rate a
// place they do not own. Two projections of this data exist and must not
// be conflated: the owner's rating on their own place (used for
// threshold filtering) and the requesting user's rating(s) (used for
// display and rating-based ordering).
type PlaceRating struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	PlaceID   uuid.UUID
	Rating    float64 // Decimal rating in [0, 5].
	CreatedAt time.Time
	UpdatedAt time.Time
}
