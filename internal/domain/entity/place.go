package entity

import (
	"time"

	"github.com/google/uuid"
)

// MaxSecondaryImages caps the number of secondary images per place.
const MaxSecondaryImages = 10

// Place is a user-curated point of interest. Every place is owned by
// exactly one user and carries exactly one rating record created by that
// owner at creation time; other users may add their own rating records.
type Place struct {
	ID           uuid.UUID     // The unique identifier for the place.
	AddedBy      uuid.UUID     // ID of the owning user.
	Name         string        // Display name.
	Description  string        // Free-text description. Optional.
	Address      string        // Human-readable address.
	Category     Category      // One of the closed category set.
	Latitude     float64       // WGS84 latitude, [-90, 90].
	Longitude    float64       // WGS84 longitude, [-180, 180].
	MainImageRef string        // Blob storage key of the main image.
	Images       []*PlaceImage // Secondary images, at most MaxSecondaryImages.
	Ratings      []*PlaceRating
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// OwnerRating returns the rating the place's owner gave to their own
// place, or nil when the owner has no rating record. The owner rating is
// the place's canonical quality signal for threshold filtering.
func (p *Place) OwnerRating() *PlaceRating {
	for _, r := range p.Ratings {
		if r.UserID == p.AddedBy {
			return r
		}
	}

	return nil
}

// RatingAverageFor returns the average rating the given user has left on
// this place across all of their rating records, and zero when the user
// has none. Structurally there is at most one record per (user, place),
// but the aggregation tolerates any count.
func (p *Place) RatingAverageFor(userID uuid.UUID) float64 {
	var sum float64
	var count int
	for _, r := range p.Ratings {
		if r.UserID == userID {
			sum += r.Rating
			count++
		}
	}
	if count == 0 {
		return 0
	}

	return sum / float64(count)
}

// PlaceImage is one secondary image attached to a place.
type PlaceImage struct {
	ID        uuid.UUID
	PlaceID   uuid.UUID
	ImageRef  string // Blob storage key.
	CreatedAt time.Time
}
