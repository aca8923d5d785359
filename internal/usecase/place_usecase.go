package usecase

import (
	"context"

	"github.com/google/uuid"
)

// --- Input DTOs ---

// CreatePlaceInput defines the data required to create a place. The
// owner's rating record is created atomically with the place.
type CreatePlaceInput struct {
	Name            string
	Description     string
	Address         string
	Category        string
	Latitude        float64
	Longitude       float64
	Rating          float64
	MainImage       ImageUpload
	SecondaryImages []ImageUpload
}

// UpdatePlaceInput defines a partial place update. Nil pointers leave
// the field unchanged. Rating rewrites the caller's own rating record.
type UpdatePlaceInput struct {
	Name        *string
	Description *string
	Address     *string
	Category    *string
	Latitude    *float64
	Longitude   *float64
	Rating      *float64
	MainImage   *ImageUpload
}

// UpdatePlaceImagesInput defines a secondary image batch update:
// deletions are applied first, then uploads. Duplicate ids are
// collapsed; the resulting total may not exceed the per-place cap.
type UpdatePlaceImagesInput struct {
	ImagesToUpload   []ImageUpload
	ImageIDsToDelete []uuid.UUID
}

// NearestPlacesInput defines a proximity query. A nil Distance falls
// back to the configured nearest-lookup radius.
type NearestPlacesInput struct {
	Latitude  float64
	Longitude float64
	Distance  *float64
}

// FilterPlacesInput defines one filter engine invocation. ApplyFilters
// false skips every predicate and returns the caller's full set;
// SplitCategories switches the presentation from a flat page to
// per-category buckets. A nil Distance falls back to the configured
// default radius.
type FilterPlacesInput struct {
	ApplyFilters    bool
	SplitCategories bool
	Latitude        float64
	Longitude       float64
	Distance        *float64
	Categories      []string
	Rating          *float64
	Ordering        string
	Search          string
	Page            int
}

// --- Output DTOs ---

// PlaceImageView is one secondary image with its resolved URL.
type PlaceImageView struct {
	ID  uuid.UUID
	URL string
}

// PlaceView is the client-facing projection of a place. Rating is the
// requesting user's rating on the place, zero when they have none.
type PlaceView struct {
	ID              uuid.UUID
	AddedBy         uuid.UUID
	Name            string
	Description     string
	Address         string
	Category        string
	Latitude        float64
	Longitude       float64
	Rating          float64
	CanEdit         bool
	MainImageURL    string
	SecondaryImages []PlaceImageView
}

// FilterPlacesOutput is either a flat page of places or per-category
// buckets, depending on IsSplit.
type FilterPlacesOutput struct {
	FiltersApplied bool
	IsSplit        bool
	Places         []*PlaceView
	ByCategory     map[string][]*PlaceView
	Total          int
	Page           int
	PageSize       int
}

// PlaceUsecase defines the interface for place-related business operations.
type PlaceUsecase interface {
	CreatePlace(ctx context.Context, userID uuid.UUID, input CreatePlaceInput) (*PlaceView, error)
	UpdatePlace(ctx context.Context, userID, placeID uuid.UUID, input UpdatePlaceInput) (*PlaceView, error)
	DeletePlace(ctx context.Context, userID, placeID uuid.UUID) error
	GetPlace(ctx context.Context, userID, placeID uuid.UUID) (*PlaceView, error)
	ListPlaces(ctx context.Context, userID uuid.UUID) ([]*PlaceView, error)
	UpdatePlaceImages(ctx context.Context, userID, placeID uuid.UUID, input UpdatePlaceImagesInput) (*PlaceView, error)
	NearestPlaces(ctx context.Context, userID uuid.UUID, input NearestPlacesInput) ([]*PlaceView, error)
	SearchPlaces(ctx context.Context, userID uuid.UUID, search string) ([]*PlaceView, error)
	PlacesByCategory(ctx context.Context, userID uuid.UUID, category string) ([]*PlaceView, error)
	FilterPlaces(ctx context.Context, userID uuid.UUID, input FilterPlacesInput) (*FilterPlacesOutput, error)
}
