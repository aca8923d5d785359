package postgres

import (
	"context"

	"places/internal/domain/entity"
	domainerrors "places/internal/domain/errors"
	"places/internal/domain/repository"
	"places/internal/infra/persistence/model"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// ratingRepository implements the domain.RatingRepository interface using GORM.
type ratingRepository struct {
	db *gorm.DB
}

// NewRatingRepository is the constructor for ratingRepository.
func NewRatingRepository(db *gorm.DB) repository.RatingRepository {
	return &ratingRepository{db: db}
}

// FindByUserAndPlace retrieves the rating record a user left on a place.
func (repo *ratingRepository) FindByUserAndPlace(ctx context.Context, userID, placeID uuid.UUID) (*entity.PlaceRating, error) {
	var ratingM model.PlaceRatingModel
	err := repo.db.WithContext(ctx).
		Where("user_id = ? AND place_id = ?", userID, placeID).
		First(&ratingM).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrRatingNotFound
		}

		return nil, errors.Wrap(err, "failed to find rating")
	}

	return toRatingDomain(&ratingM), nil
}

// Create persists a new rating record.
func (repo *ratingRepository) Create(ctx context.Context, rating *entity.PlaceRating) error {
	ratingM := fromRatingDomain(rating)

	if err := repo.db.WithContext(ctx).Create(ratingM).Error; err != nil {
		if isUniqueConstraintViolation(err) {
			return domainerrors.NewDatabaseExecuteError(err, "rating already exists for this user and place")
		}
		if isForeignKeyConstraintViolation(err) {
			return repository.ErrPlaceNotFound
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to create rating")
	}

	rating.ID = ratingM.ID
	rating.CreatedAt = ratingM.CreatedAt
	rating.UpdatedAt = ratingM.UpdatedAt

	return nil
}

// UpdateValue rewrites the rating value of an existing (user, place) record.
func (repo *ratingRepository) UpdateValue(ctx context.Context, userID, placeID uuid.UUID, rating float64) error {
	result := repo.db.WithContext(ctx).
		Model(&model.PlaceRatingModel{}).
		Where("user_id = ? AND place_id = ?", userID, placeID).
		Update("rating", rating)
	if result.Error != nil {
		return domainerrors.NewDatabaseExecuteError(result.Error, "failed to update rating")
	}
	if result.RowsAffected == 0 {
		return repository.ErrRatingNotFound
	}

	return nil
}

// toRatingDomain maps the persistence model to a pure domain entity.
func toRatingDomain(data *model.PlaceRatingModel) *entity.PlaceRating {
	return &entity.PlaceRating{
		ID:        data.ID,
		UserID:    data.UserID,
		PlaceID:   data.PlaceID,
		Rating:    data.Rating,
		CreatedAt: data.CreatedAt,
		UpdatedAt: data.UpdatedAt,
	}
}

// fromRatingDomain maps a domain entity to the persistence model.
func fromRatingDomain(data *entity.PlaceRating) *model.PlaceRatingModel {
	return &model.PlaceRatingModel{
		ID:        data.ID,
		UserID:    data.UserID,
		PlaceID:   data.PlaceID,
		Rating:    data.Rating,
		CreatedAt: data.CreatedAt,
		UpdatedAt: data.UpdatedAt,
	}
}
