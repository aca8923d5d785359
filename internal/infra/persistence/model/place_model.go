package model

import (
	"time"

	"github.com/google/uuid"
)

// PlaceModel mirrors the 'places' table. The location is stored as a
// PostGIS geometry column maintained by a trigger on latitude/longitude,
// so the coarse radius queries can use the spatial index.
type PlaceModel struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v7()"`
	AddedBy      uuid.UUID `gorm:"type:uuid;index;not null"`
	Name         string    `gorm:"type:varchar(100);not null"`
	Description  string    `gorm:"type:text"`
	Address      string    `gorm:"type:varchar(255)"`
	Category     string    `gorm:"type:varchar(32);index;not null"`
	Latitude     float64   `gorm:"not null"`
	Longitude    float64   `gorm:"not null"`
	MainImageRef string    `gorm:"type:varchar(255)"`
	CreatedAt    time.Time
	UpdatedAt    time.Time

	Images  []*PlaceImageModel  `gorm:"foreignKey:PlaceID;constraint:OnDelete:CASCADE"`
	Ratings []*PlaceRatingModel `gorm:"foreignKey:PlaceID;constraint:OnDelete:CASCADE"`
}

// TableName explicitly sets the table name for GORM.
func (PlaceModel) TableName() string {
	return "places"
}

// PlaceImageModel mirrors the 'place_images' table.
type PlaceImageModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v7()"`
	PlaceID   uuid.UUID `gorm:"type:uuid;index;not null"`
	ImageRef  string    `gorm:"type:varchar(255);not null"`
	CreatedAt time.Time
}

// TableName explicitly sets the table name for GORM.
func (PlaceImageModel) TableName() string {
	return "place_images"
}

// PlaceRatingModel mirrors the 'place_ratings' table. One record per
// (user, place) pair, enforced by a composite unique index.
type PlaceRatingModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v7()"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_place_ratings_user_place"`
	PlaceID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_place_ratings_user_place"`
	Rating    float64   `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName explicitly sets the table name for GORM.
func (PlaceRatingModel) TableName() string {
	return "place_ratings"
}
