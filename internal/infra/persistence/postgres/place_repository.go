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

// placeRepository implements the domain.PlaceRepository interface using GORM.
type placeRepository struct {
	db *gorm.DB
}

// NewPlaceRepository is the constructor for placeRepository.
func NewPlaceRepository(db *gorm.DB) repository.PlaceRepository {
	return &placeRepository{db: db}
}

// FindByID retrieves a single place with its images and rating records.
func (repo *placeRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Place, error) {
	var placeM model.PlaceModel
	err := repo.db.WithContext(ctx).
		Preload("Images").
		Preload("Ratings").
		Where("id = ?", id).
		First(&placeM).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrPlaceNotFound
		}

		return nil, errors.Wrap(err, "failed to find place by id")
	}

	return toPlaceDomain(&placeM), nil
}

// FindByOwner retrieves every place owned by the given user, in primary key order.
func (repo *placeRepository) FindByOwner(ctx context.Context, ownerID uuid.UUID) ([]*entity.Place, error) {
	var placeModels []*model.PlaceModel
	err := repo.db.WithContext(ctx).
		Preload("Images").
		Preload("Ratings").
		Where("added_by = ?", ownerID).
		Order("id").
		Find(&placeModels).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to find places by owner")
	}

	return toPlaceDomainSlice(placeModels), nil
}

// FindByOwnerNear retrieves the owner's places within radiusDegrees of
// the given point. ST_DWithin on the geometry column measures planar
// degrees and uses the spatial index; the caller applies the real
// kilometre bound afterwards.
func (repo *placeRepository) FindByOwnerNear(ctx context.Context, ownerID uuid.UUID, lat, lon, radiusDegrees float64) ([]*entity.Place, error) {
	var placeModels []*model.PlaceModel
	err := repo.db.WithContext(ctx).
		Preload("Images").
		Preload("Ratings").
		Where("added_by = ?", ownerID).
		Where("ST_DWithin(location, ST_SetSRID(ST_MakePoint(?, ?), 4326), ?)", lon, lat, radiusDegrees).
		Order("id").
		Find(&placeModels).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to find places near point")
	}

	return toPlaceDomainSlice(placeModels), nil
}

// Create persists a new place entity together with its initial images
// and rating records.
func (repo *placeRepository) Create(ctx context.Context, place *entity.Place) error {
	placeM := fromPlaceDomain(place)

	if err := repo.db.WithContext(ctx).Create(placeM).Error; err != nil {
		if isForeignKeyConstraintViolation(err) {
			return domainerrors.NewDatabaseExecuteError(err, "place owner does not exist")
		}
		if isNotNullConstraintViolation(err) {
			return domainerrors.NewDatabaseExecuteError(err, "missing required place information")
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to create place")
	}

	place.ID = placeM.ID
	place.CreatedAt = placeM.CreatedAt
	place.UpdatedAt = placeM.UpdatedAt
	for i, imageM := range placeM.Images {
		place.Images[i].ID = imageM.ID
		place.Images[i].PlaceID = imageM.PlaceID
	}
	for i, ratingM := range placeM.Ratings {
		place.Ratings[i].ID = ratingM.ID
		place.Ratings[i].PlaceID = ratingM.PlaceID
	}

	return nil
}

// Update modifies the place's own columns. Images and ratings are
// managed through their dedicated operations.
func (repo *placeRepository) Update(ctx context.Context, place *entity.Place) error {
	placeM := fromPlaceDomain(place)
	placeM.Images = nil
	placeM.Ratings = nil

	result := repo.db.WithContext(ctx).
		Model(&model.PlaceModel{}).
		Where("id = ?", place.ID).
		Updates(map[string]any{
			"name":           placeM.Name,
			"description":    placeM.Description,
			"address":        placeM.Address,
			"category":       placeM.Category,
			"latitude":       placeM.Latitude,
			"longitude":      placeM.Longitude,
			"main_image_ref": placeM.MainImageRef,
		})
	if result.Error != nil {
		return domainerrors.NewDatabaseExecuteError(result.Error, "failed to update place")
	}
	if result.RowsAffected == 0 {
		return repository.ErrPlaceNotFound
	}

	return nil
}

// Delete removes a place. The database cascades to images and ratings.
func (repo *placeRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := repo.db.WithContext(ctx).Delete(&model.PlaceModel{}, "id = ?", id)
	if result.Error != nil {
		return domainerrors.NewDatabaseExecuteError(result.Error, "failed to delete place")
	}
	if result.RowsAffected == 0 {
		return repository.ErrPlaceNotFound
	}

	return nil
}

// AddImages attaches secondary image records to a place.
func (repo *placeRepository) AddImages(ctx context.Context, placeID uuid.UUID, images []*entity.PlaceImage) error {
	if len(images) == 0 {
		return nil
	}

	imageModels := make([]*model.PlaceImageModel, 0, len(images))
	for _, image := range images {
		imageModels = append(imageModels, &model.PlaceImageModel{
			PlaceID:  placeID,
			ImageRef: image.ImageRef,
		})
	}

	if err := repo.db.WithContext(ctx).Create(&imageModels).Error; err != nil {
		if isForeignKeyConstraintViolation(err) {
			return repository.ErrPlaceNotFound
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to add place images")
	}

	for i, imageM := range imageModels {
		images[i].ID = imageM.ID
		images[i].PlaceID = imageM.PlaceID
		images[i].CreatedAt = imageM.CreatedAt
	}

	return nil
}

// DeleteImages removes the given secondary image records from a place.
func (repo *placeRepository) DeleteImages(ctx context.Context, placeID uuid.UUID, imageIDs []uuid.UUID) error {
	if len(imageIDs) == 0 {
		return nil
	}

	result := repo.db.WithContext(ctx).
		Where("place_id = ?", placeID).
		Where("id IN ?", imageIDs).
		Delete(&model.PlaceImageModel{})
	if result.Error != nil {
		return domainerrors.NewDatabaseExecuteError(result.Error, "failed to delete place images")
	}
	if result.RowsAffected != int64(len(imageIDs)) {
		return repository.ErrPlaceImageNotFound
	}

	return nil
}

// toPlaceDomain maps the persistence model to a pure domain entity.
func toPlaceDomain(data *model.PlaceModel) *entity.Place {
	images := make([]*entity.PlaceImage, 0, len(data.Images))
	for _, imageM := range data.Images {
		images = append(images, &entity.PlaceImage{
			ID:        imageM.ID,
			PlaceID:   imageM.PlaceID,
			ImageRef:  imageM.ImageRef,
			CreatedAt: imageM.CreatedAt,
		})
	}

	ratings := make([]*entity.PlaceRating, 0, len(data.Ratings))
	for _, ratingM := range data.Ratings {
		ratings = append(ratings, toRatingDomain(ratingM))
	}

	return &entity.Place{
		ID:           data.ID,
		AddedBy:      data.AddedBy,
		Name:         data.Name,
		Description:  data.Description,
		Address:      data.Address,
		Category:     entity.Category(data.Category),
		Latitude:     data.Latitude,
		Longitude:    data.Longitude,
		MainImageRef: data.MainImageRef,
		Images:       images,
		Ratings:      ratings,
		CreatedAt:    data.CreatedAt,
		UpdatedAt:    data.UpdatedAt,
	}
}

func toPlaceDomainSlice(models []*model.PlaceModel) []*entity.Place {
	places := make([]*entity.Place, 0, len(models))
	for _, placeM := range models {
		places = append(places, toPlaceDomain(placeM))
	}

	return places
}

// fromPlaceDomain maps a domain entity to the persistence model.
func fromPlaceDomain(data *entity.Place) *model.PlaceModel {
	images := make([]*model.PlaceImageModel, 0, len(data.Images))
	for _, image := range data.Images {
		images = append(images, &model.PlaceImageModel{
			ID:       image.ID,
			PlaceID:  image.PlaceID,
			ImageRef: image.ImageRef,
		})
	}

	ratings := make([]*model.PlaceRatingModel, 0, len(data.Ratings))
	for _, rating := range data.Ratings {
		ratings = append(ratings, fromRatingDomain(rating))
	}

	return &model.PlaceModel{
		ID:           data.ID,
		AddedBy:      data.AddedBy,
		Name:         data.Name,
		Description:  data.Description,
		Address:      data.Address,
		Category:     data.Category.String(),
		Latitude:     data.Latitude,
		Longitude:    data.Longitude,
		MainImageRef: data.MainImageRef,
		Images:       images,
		Ratings:      ratings,
		CreatedAt:    data.CreatedAt,
		UpdatedAt:    data.UpdatedAt,
	}
}
