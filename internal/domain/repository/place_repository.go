package repository

import (
	"context"
	"errors"

	"places/internal/domain/entity"

	"github.com/google/uuid"
)

// ErrPlaceNotFound is a domain-specific error returned when a place is not found.
var ErrPlaceNotFound = errors.New("place not found")

// ErrPlaceImageNotFound is returned when a referenced secondary image does not exist.
var ErrPlaceImageNotFound = errors.New("place image not found")

// PlaceRepository defines the operations for place persistence.
// All read operations load the place together with its secondary images
// and rating records, so callers can resolve owner and requester rating
// projections without further round trips.
type PlaceRepository interface {
	// FindByID retrieves a single place by its unique ID.
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Place, error)

	// FindByOwner retrieves every place owned by the given user,
	// in primary key order.
	FindByOwner(ctx context.Context, ownerID uuid.UUID) ([]*entity.Place, error)

	// FindByOwnerNear retrieves the owner's places whose location lies
	// within radiusDegrees of the given point, measured in planar
	// coordinate degrees. This is a coarse index accelerator; callers
	// must apply the authoritative kilometre distance bound themselves.
	FindByOwnerNear(ctx context.Context, ownerID uuid.UUID, lat, lon, radiusDegrees float64) ([]*entity.Place, error)

	// Create persists a new place entity.
	Create(ctx context.Context, place *entity.Place) error

	// Update modifies an existing place entity.
	Update(ctx context.Context, place *entity.Place) error

	// Delete removes a place and its dependent images and ratings.
	Delete(ctx context.Context, id uuid.UUID) error

	// AddImages attaches secondary image records to a place.
	AddImages(ctx context.Context, placeID uuid.UUID, images []*entity.PlaceImage) error

	// DeleteImages removes the given secondary image records.
	DeleteImages(ctx context.Context, placeID uuid.UUID, imageIDs []uuid.UUID) error
}
