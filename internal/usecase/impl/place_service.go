package impl

import (
	"context"
	"log/slog"
	"path"
	"sort"

	"places/config"
	deliverycontext "places/internal/delivery/context"
	"places/internal/domain/entity"
	domainerrors "places/internal/domain/errors"
	"places/internal/domain/repository"
	"places/internal/domain/service"
	"places/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// placeService implements the PlaceUsecase interface.
type placeService struct {
	txManager    repository.TransactionManager
	placeRepo    repository.PlaceRepository
	ratingRepo   repository.RatingRepository
	imageStorage service.ImageStorage
	cfg          *config.PlacesConfig
	logger       *slog.Logger
}

// PlaceServiceParams holds dependencies for placeService, injected by Fx.
type PlaceServiceParams struct {
	fx.In

	TxManager    repository.TransactionManager
	PlaceRepo    repository.PlaceRepository
	RatingRepo   repository.RatingRepository
	ImageStorage service.ImageStorage
	Config       *config.Config
	Logger       *slog.Logger
}

// NewPlaceService is the constructor for placeService.
func NewPlaceService(params PlaceServiceParams) usecase.PlaceUsecase {
	return &placeService{
		txManager:    params.TxManager,
		placeRepo:    params.PlaceRepo,
		ratingRepo:   params.RatingRepo,
		imageStorage: params.ImageStorage,
		cfg:          params.Config.Places,
		logger:       params.Logger,
	}
}

func (srv *placeService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// CreatePlace persists a new place with its main image, secondary
// images and the owner's rating record, all in one transaction.
func (srv *placeService) CreatePlace(ctx context.Context, userID uuid.UUID, input usecase.CreatePlaceInput) (*usecase.PlaceView, error) {
	fields := validateLocation(input.Latitude, input.Longitude, nil)
	if !entity.Category(input.Category).Valid() {
		fields = append(fields, domainerrors.FieldError{Field: "category", Message: "unknown category"})
	}
	if !validRating(input.Rating) {
		fields = append(fields, domainerrors.FieldError{Field: "rating", Message: "rating must be within [0, 5]"})
	}
	if input.MainImage.Content == nil {
		fields = append(fields, domainerrors.FieldError{Field: "main_image", Message: "main image is required"})
	}
	if len(input.SecondaryImages) > entity.MaxSecondaryImages {
		fields = append(fields, domainerrors.FieldError{Field: "secondary_images", Message: "total of secondary images has to be less or equal to 10"})
	}
	if len(fields) > 0 {
		return nil, domainerrors.NewValidationError(fields...)
	}

	placeID := uuid.New()

	mainKey := placeMainImageKey(placeID, input.MainImage.Name)
	savedKeys := []string{mainKey}
	if err := srv.imageStorage.Save(ctx, mainKey, input.MainImage.Content); err != nil {
		return nil, errors.Wrap(err, "failed to store main image")
	}

	images := make([]*entity.PlaceImage, 0, len(input.SecondaryImages))
	for _, upload := range input.SecondaryImages {
		imageID := uuid.New()
		key := placeSecondaryImageKey(placeID, imageID, upload.Name)
		if err := srv.imageStorage.Save(ctx, key, upload.Content); err != nil {
			srv.releaseBlobs(ctx, savedKeys)

			return nil, errors.Wrap(err, "failed to store secondary image")
		}
		savedKeys = append(savedKeys, key)
		images = append(images, &entity.PlaceImage{ID: imageID, PlaceID: placeID, ImageRef: key})
	}

	place := &entity.Place{
		ID:           placeID,
		AddedBy:      userID,
		Name:         input.Name,
		Description:  input.Description,
		Address:      input.Address,
		Category:     entity.Category(input.Category),
		Latitude:     input.Latitude,
		Longitude:    input.Longitude,
		MainImageRef: mainKey,
		Images:       images,
		Ratings: []*entity.PlaceRating{
			{ID: uuid.New(), UserID: userID, PlaceID: placeID, Rating: input.Rating},
		},
	}

	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		return repoFactory.PlaceRepo().Create(ctx, place)
	})
	if err != nil {
		// The transaction did not commit; the stored blobs are orphans.
		srv.releaseBlobs(ctx, savedKeys)

		return nil, err
	}

	srv.log(ctx).Info("Place created", slog.Any("placeID", place.ID), slog.Any("userID", userID))

	return buildPlaceView(ctx, srv.imageStorage, place, userID)
}

// UpdatePlace applies a partial update to an owned place. A rating
// value rewrites the caller's own rating record in the same
// transaction, creating it when the place has none.
func (srv *placeService) UpdatePlace(ctx context.Context, userID, placeID uuid.UUID, input usecase.UpdatePlaceInput) (*usecase.PlaceView, error) {
	place, err := srv.findOwnedPlace(ctx, userID, placeID)
	if err != nil {
		return nil, err
	}

	var fields []domainerrors.FieldError
	if input.Latitude != nil && !validLatitude(*input.Latitude) {
		fields = append(fields, domainerrors.FieldError{Field: "latitude", Message: "latitude must be within [-90, 90]"})
	}
	if input.Longitude != nil && !validLongitude(*input.Longitude) {
		fields = append(fields, domainerrors.FieldError{Field: "longitude", Message: "longitude must be within [-180, 180]"})
	}
	if input.Category != nil && !entity.Category(*input.Category).Valid() {
		fields = append(fields, domainerrors.FieldError{Field: "category", Message: "unknown category"})
	}
	if input.Rating != nil && !validRating(*input.Rating) {
		fields = append(fields, domainerrors.FieldError{Field: "rating", Message: "rating must be within [0, 5]"})
	}
	if len(fields) > 0 {
		return nil, domainerrors.NewValidationError(fields...)
	}

	if input.Name != nil {
		place.Name = *input.Name
	}
	if input.Description != nil {
		place.Description = *input.Description
	}
	if input.Address != nil {
		place.Address = *input.Address
	}
	if input.Category != nil {
		place.Category = entity.Category(*input.Category)
	}
	if input.Latitude != nil {
		place.Latitude = *input.Latitude
	}
	if input.Longitude != nil {
		place.Longitude = *input.Longitude
	}

	savedMain := ""
	releasedMain := ""
	if input.MainImage != nil {
		key := placeMainImageKey(placeID, input.MainImage.Name)
		if err := srv.imageStorage.Save(ctx, key, input.MainImage.Content); err != nil {
			return nil, errors.Wrap(err, "failed to store main image")
		}
		if place.MainImageRef != key {
			savedMain = key
			if place.MainImageRef != "" {
				releasedMain = place.MainImageRef
			}
		}
		place.MainImageRef = key
	}

	err = srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		if err := repoFactory.PlaceRepo().Update(ctx, place); err != nil {
			return err
		}
		if input.Rating != nil {
			return upsertOwnRating(ctx, repoFactory.RatingRepo(), userID, placeID, *input.Rating)
		}

		return nil
	})
	if err != nil {
		if savedMain != "" {
			srv.releaseBlobs(ctx, []string{savedMain})
		}

		return nil, err
	}

	if releasedMain != "" {
		srv.releaseBlobs(ctx, []string{releasedMain})
	}

	// Re-read for fresh rating records and timestamps.
	place, err = srv.placeRepo.FindByID(ctx, placeID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to reload place")
	}

	return buildPlaceView(ctx, srv.imageStorage, place, userID)
}

// DeletePlace removes an owned place and releases its image blobs
// after the delete commits.
func (srv *placeService) DeletePlace(ctx context.Context, userID, placeID uuid.UUID) error {
	place, err := srv.findOwnedPlace(ctx, userID, placeID)
	if err != nil {
		return err
	}

	err = srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		return repoFactory.PlaceRepo().Delete(ctx, placeID)
	})
	if err != nil {
		return err
	}

	srv.releaseBlobs(ctx, collectPlaceBlobKeys(place))

	srv.log(ctx).Info("Place deleted", slog.Any("placeID", placeID), slog.Any("userID", userID))

	return nil
}

// GetPlace returns one owned place.
func (srv *placeService) GetPlace(ctx context.Context, userID, placeID uuid.UUID) (*usecase.PlaceView, error) {
	place, err := srv.findOwnedPlace(ctx, userID, placeID)
	if err != nil {
		return nil, err
	}

	return buildPlaceView(ctx, srv.imageStorage, place, userID)
}

// ListPlaces returns every place the caller owns.
func (srv *placeService) ListPlaces(ctx context.Context, userID uuid.UUID) ([]*usecase.PlaceView, error) {
	ownPlaces, err := srv.placeRepo.FindByOwner(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list places")
	}

	return buildPlaceViews(ctx, srv.imageStorage, ownPlaces, userID)
}

// UpdatePlaceImages applies a secondary image batch update: deletions
// first, then uploads, with the per-place cap enforced on the result.
func (srv *placeService) UpdatePlaceImages(ctx context.Context, userID, placeID uuid.UUID, input usecase.UpdatePlaceImagesInput) (*usecase.PlaceView, error) {
	place, err := srv.findOwnedPlace(ctx, userID, placeID)
	if err != nil {
		return nil, err
	}

	deleteIDs := dedupeIDs(input.ImageIDsToDelete)

	existing := make(map[uuid.UUID]string, len(place.Images))
	for _, image := range place.Images {
		existing[image.ID] = image.ImageRef
	}

	remaining := len(place.Images) - len(deleteIDs)
	if remaining < 0 {
		return nil, domainerrors.NewValidationError(domainerrors.FieldError{
			Field: "image_ids_to_delete", Message: "you want to remove more images than there is",
		})
	}
	for _, id := range deleteIDs {
		if _, ok := existing[id]; !ok {
			return nil, domainerrors.ErrImageNotFound
		}
	}
	if remaining+len(input.ImagesToUpload) > entity.MaxSecondaryImages {
		return nil, domainerrors.ErrTooManyImages
	}

	var savedKeys []string
	newImages := make([]*entity.PlaceImage, 0, len(input.ImagesToUpload))
	for _, upload := range input.ImagesToUpload {
		imageID := uuid.New()
		key := placeSecondaryImageKey(placeID, imageID, upload.Name)
		if err := srv.imageStorage.Save(ctx, key, upload.Content); err != nil {
			srv.releaseBlobs(ctx, savedKeys)

			return nil, errors.Wrap(err, "failed to store secondary image")
		}
		savedKeys = append(savedKeys, key)
		newImages = append(newImages, &entity.PlaceImage{ID: imageID, PlaceID: placeID, ImageRef: key})
	}

	err = srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		placeRepo := repoFactory.PlaceRepo()
		if err := placeRepo.DeleteImages(ctx, placeID, deleteIDs); err != nil {
			return err
		}

		return placeRepo.AddImages(ctx, placeID, newImages)
	})
	if err != nil {
		srv.releaseBlobs(ctx, savedKeys)

		return nil, err
	}

	deletedKeys := make([]string, 0, len(deleteIDs))
	for _, id := range deleteIDs {
		if key := existing[id]; key != "" {
			deletedKeys = append(deletedKeys, key)
		}
	}
	srv.releaseBlobs(ctx, deletedKeys)

	place, err = srv.placeRepo.FindByID(ctx, placeID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to reload place")
	}

	return buildPlaceView(ctx, srv.imageStorage, place, userID)
}

// NearestPlaces returns the caller's places within the distance bound
// of the query point, coarse prefilter first.
func (srv *placeService) NearestPlaces(ctx context.Context, userID uuid.UUID, input usecase.NearestPlacesInput) ([]*usecase.PlaceView, error) {
	if fields := validateLocation(input.Latitude, input.Longitude, input.Distance); len(fields) > 0 {
		return nil, domainerrors.NewValidationError(fields...)
	}

	distanceKm := srv.cfg.NearestRadiusKm
	if input.Distance != nil {
		distanceKm = *input.Distance
	}

	candidates, err := srv.placeRepo.FindByOwnerNear(ctx, userID, input.Latitude, input.Longitude, srv.cfg.NearestPrefilterDegrees)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query nearest places")
	}
	matched := withinDistance(candidates, input.Latitude, input.Longitude, distanceKm)

	return buildPlaceViews(ctx, srv.imageStorage, matched, userID)
}

// SearchPlaces free-text searches the caller's places by name, category
// and address, ordered by name.
func (srv *placeService) SearchPlaces(ctx context.Context, userID uuid.UUID, search string) ([]*usecase.PlaceView, error) {
	ownPlaces, err := srv.placeRepo.FindByOwner(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list places")
	}

	matched := searchPlaces(ownPlaces, search)
	sort.SliceStable(matched, func(i, j int) bool { return matched[i].Name < matched[j].Name })

	return buildPlaceViews(ctx, srv.imageStorage, matched, userID)
}

// PlacesByCategory returns the caller's places in exactly the given category.
func (srv *placeService) PlacesByCategory(ctx context.Context, userID uuid.UUID, category string) ([]*usecase.PlaceView, error) {
	if !entity.Category(category).Valid() {
		return nil, domainerrors.NewValidationError(domainerrors.FieldError{Field: "category", Message: "unknown category"})
	}

	ownPlaces, err := srv.placeRepo.FindByOwner(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list places")
	}

	matched := inCategories(ownPlaces, []string{category})

	return buildPlaceViews(ctx, srv.imageStorage, matched, userID)
}

// FilterPlaces runs the filter pipeline over the caller's places:
// coarse geo prefilter, distance bound, category set, owner-rating
// exclusion, ordering annotation, free-text search, then pagination or
// the per-category split.
func (srv *placeService) FilterPlaces(ctx context.Context, userID uuid.UUID, input usecase.FilterPlacesInput) (*usecase.FilterPlacesOutput, error) {
	fields := validateLocation(input.Latitude, input.Longitude, input.Distance)
	if input.Rating != nil && !validRating(*input.Rating) {
		fields = append(fields, domainerrors.FieldError{Field: "rating", Message: "rating must be within [0, 5]"})
	}
	if input.Ordering != "" && !validOrdering(input.Ordering) {
		fields = append(fields, domainerrors.FieldError{Field: "ordering", Message: "ordering must be one of distance, -distance, rating, -rating"})
	}
	for _, category := range input.Categories {
		if !entity.Category(category).Valid() {
			fields = append(fields, domainerrors.FieldError{Field: "categories", Message: "unknown category"})

			break
		}
	}
	if len(fields) > 0 {
		return nil, domainerrors.NewValidationError(fields...)
	}

	var candidates []*entity.Place
	var err error
	if input.ApplyFilters {
		candidates, err = srv.placeRepo.FindByOwnerNear(ctx, userID, input.Latitude, input.Longitude, srv.cfg.PrefilterDegrees)
	} else {
		// Filters off: the pipeline is skipped entirely and the full set
		// flows straight to search and presentation.
		candidates, err = srv.placeRepo.FindByOwner(ctx, userID)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to query candidate places")
	}

	if input.ApplyFilters {
		distanceKm := srv.cfg.DefaultRadiusKm
		if input.Distance != nil {
			distanceKm = *input.Distance
		}
		candidates = withinDistance(candidates, input.Latitude, input.Longitude, distanceKm)
		candidates = inCategories(candidates, input.Categories)
		if input.Rating != nil {
			candidates = excludeByOwnerRating(candidates, *input.Rating)
		}
		orderPlaces(candidates, input.Ordering, input.Latitude, input.Longitude, userID)
	}

	candidates = searchPlaces(candidates, input.Search)

	output := &usecase.FilterPlacesOutput{
		FiltersApplied: input.ApplyFilters,
		IsSplit:        input.SplitCategories,
	}

	if input.SplitCategories {
		buckets := splitByCategory(candidates, srv.cfg.SplitLimit)
		output.ByCategory = make(map[string][]*usecase.PlaceView, len(buckets))
		for category, bucket := range buckets {
			views, err := buildPlaceViews(ctx, srv.imageStorage, bucket, userID)
			if err != nil {
				return nil, err
			}
			output.ByCategory[category] = views
		}

		return output, nil
	}

	page := input.Page
	if page < 1 {
		page = 1
	}
	output.Total = len(candidates)
	output.Page = page
	output.PageSize = srv.cfg.PageSize

	views, err := buildPlaceViews(ctx, srv.imageStorage, paginate(candidates, page, srv.cfg.PageSize), userID)
	if err != nil {
		return nil, err
	}
	output.Places = views

	return output, nil
}

// findOwnedPlace loads a place and enforces that the caller owns it.
func (srv *placeService) findOwnedPlace(ctx context.Context, userID, placeID uuid.UUID) (*entity.Place, error) {
	place, err := srv.placeRepo.FindByID(ctx, placeID)
	if err != nil {
		if errors.Is(err, repository.ErrPlaceNotFound) {
			return nil, domainerrors.ErrPlaceNotFound
		}

		return nil, errors.Wrap(err, "failed to find place")
	}
	if place.AddedBy != userID {
		return nil, domainerrors.ErrPlaceOwnershipViolation
	}

	return place, nil
}

// upsertOwnRating rewrites the caller's rating record on the place,
// creating one when the place was saved without it.
func upsertOwnRating(ctx context.Context, ratingRepo repository.RatingRepository, userID, placeID uuid.UUID, value float64) error {
	_, err := ratingRepo.FindByUserAndPlace(ctx, userID, placeID)
	switch {
	case err == nil:
		return ratingRepo.UpdateValue(ctx, userID, placeID, value)
	case errors.Is(err, repository.ErrRatingNotFound):
		return ratingRepo.Create(ctx, &entity.PlaceRating{
			ID:      uuid.New(),
			UserID:  userID,
			PlaceID: placeID,
			Rating:  value,
		})
	default:
		return err
	}
}

func (srv *placeService) releaseBlobs(ctx context.Context, keys []string) {
	for _, key := range keys {
		if err := srv.imageStorage.Remove(ctx, key); err != nil {
			srv.log(ctx).Warn("Failed to release blob", slog.String("key", key), slog.Any("error", err))
		}
	}
}

// buildPlaceView materializes the client projection of a place for the
// requesting user, resolving blob keys to URLs.
func buildPlaceView(ctx context.Context, storage service.ImageStorage, place *entity.Place, userID uuid.UUID) (*usecase.PlaceView, error) {
	mainURL := ""
	if place.MainImageRef != "" {
		url, err := storage.URL(ctx, place.MainImageRef)
		if err != nil {
			return nil, errors.Wrap(err, "failed to resolve main image url")
		}
		mainURL = url
	}

	secondary := make([]usecase.PlaceImageView, 0, len(place.Images))
	for _, image := range place.Images {
		url, err := storage.URL(ctx, image.ImageRef)
		if err != nil {
			return nil, errors.Wrap(err, "failed to resolve secondary image url")
		}
		secondary = append(secondary, usecase.PlaceImageView{ID: image.ID, URL: url})
	}

	return &usecase.PlaceView{
		ID:              place.ID,
		AddedBy:         place.AddedBy,
		Name:            place.Name,
		Description:     place.Description,
		Address:         place.Address,
		Category:        place.Category.String(),
		Latitude:        place.Latitude,
		Longitude:       place.Longitude,
		Rating:          place.RatingAverageFor(userID),
		CanEdit:         place.AddedBy == userID,
		MainImageURL:    mainURL,
		SecondaryImages: secondary,
	}, nil
}

func buildPlaceViews(ctx context.Context, storage service.ImageStorage, places []*entity.Place, userID uuid.UUID) ([]*usecase.PlaceView, error) {
	views := make([]*usecase.PlaceView, 0, len(places))
	for _, place := range places {
		view, err := buildPlaceView(ctx, storage, place, userID)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}

	return views, nil
}

func dedupeIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	deduped := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		deduped = append(deduped, id)
	}

	return deduped
}

// placeMainImageKey derives the main image blob key for a place.
func placeMainImageKey(placeID uuid.UUID, filename string) string {
	return "places/" + placeID.String() + "/main-image" + path.Ext(filename)
}

// placeSecondaryImageKey derives a secondary image blob key.
func placeSecondaryImageKey(placeID, imageID uuid.UUID, filename string) string {
	return "places/" + placeID.String() + "/secondary_img_" + imageID.String() + path.Ext(filename)
}
