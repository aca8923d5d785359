package impl

import (
	"context"
	"log/slog"
	"path"
	"strings"

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

// profileService implements the ProfileUsecase interface.
type profileService struct {
	userRepo     repository.UserRepository
	placeRepo    repository.PlaceRepository
	imageStorage service.ImageStorage
	logger       *slog.Logger
}

// ProfileServiceParams holds dependencies for profileService, injected by Fx.
type ProfileServiceParams struct {
	fx.In

	UserRepo     repository.UserRepository
	PlaceRepo    repository.PlaceRepository
	ImageStorage service.ImageStorage
	Logger       *slog.Logger
}

// NewProfileService is the constructor for profileService.
func NewProfileService(params ProfileServiceParams) usecase.ProfileUsecase {
	return &profileService{
		userRepo:     params.UserRepo,
		placeRepo:    params.PlaceRepo,
		imageStorage: params.ImageStorage,
		logger:       params.Logger,
	}
}

func (srv *profileService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// GetProfile returns the caller's profile projection.
func (srv *profileService) GetProfile(ctx context.Context, userID uuid.UUID) (*usecase.ProfileOutput, error) {
	user, err := srv.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	return srv.buildProfile(ctx, user)
}

// UpdateProfile applies a partial profile update. An explicit avatar
// removal releases the blob; an avatar upload replaces it.
func (srv *profileService) UpdateProfile(ctx context.Context, userID uuid.UUID, input usecase.UpdateProfileInput) (*usecase.ProfileOutput, error) {
	user, err := srv.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if input.FirstName != nil {
		user.FirstName = *input.FirstName
	}
	if input.LastName != nil {
		user.LastName = *input.LastName
	}
	if input.PhoneNumber != nil {
		user.PhoneNumber = *input.PhoneNumber
	}

	releasedAvatar := ""
	switch {
	case input.Avatar != nil:
		key := avatarBlobKey(user.Email, input.Avatar.Name)
		if err := srv.imageStorage.Save(ctx, key, input.Avatar.Content); err != nil {
			return nil, errors.Wrap(err, "failed to store avatar")
		}
		if user.AvatarRef != "" && user.AvatarRef != key {
			releasedAvatar = user.AvatarRef
		}
		user.AvatarRef = key
	case input.RemoveAvatar:
		releasedAvatar = user.AvatarRef
		user.AvatarRef = ""
	}

	if err := srv.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	if releasedAvatar != "" {
		if err := srv.imageStorage.Remove(ctx, releasedAvatar); err != nil {
			srv.log(ctx).Warn("Failed to release avatar blob", slog.String("key", releasedAvatar), slog.Any("error", err))
		}
	}

	return srv.buildProfile(ctx, user)
}

// Homepage aggregates the caller's profile with their places.
func (srv *profileService) Homepage(ctx context.Context, userID uuid.UUID) (*usecase.HomepageOutput, error) {
	user, err := srv.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	profile, err := srv.buildProfile(ctx, user)
	if err != nil {
		return nil, err
	}

	ownPlaces, err := srv.placeRepo.FindByOwner(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list own places")
	}

	views, err := buildPlaceViews(ctx, srv.imageStorage, ownPlaces, userID)
	if err != nil {
		return nil, err
	}

	return &usecase.HomepageOutput{Profile: profile, Places: views}, nil
}

func (srv *profileService) findUser(ctx context.Context, userID uuid.UUID) (*entity.User, error) {
	user, err := srv.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, domainerrors.ErrUserNotFound
		}

		return nil, errors.Wrap(err, "failed to find user")
	}

	return user, nil
}

func (srv *profileService) buildProfile(ctx context.Context, user *entity.User) (*usecase.ProfileOutput, error) {
	avatarURL := ""
	if user.AvatarRef != "" {
		url, err := srv.imageStorage.URL(ctx, user.AvatarRef)
		if err != nil {
			return nil, errors.Wrap(err, "failed to resolve avatar url")
		}
		avatarURL = url
	}

	return &usecase.ProfileOutput{
		Email:       user.Email,
		FirstName:   user.FirstName,
		LastName:    user.LastName,
		PhoneNumber: user.PhoneNumber,
		AvatarURL:   avatarURL,
		IsPremium:   user.IsPremium,
	}, nil
}

// avatarBlobKey derives the avatar blob key from the account email,
// with '@' replaced so the key is path-safe.
func avatarBlobKey(email, filename string) string {
	return strings.ReplaceAll(email, "@", "AT") + "/avatar" + path.Ext(filename)
}
