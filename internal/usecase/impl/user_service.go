// Package impl contains the implementation of the application's business logic.
package impl

import (
	"context"
	"log/slog"

	deliverycontext "places/internal/delivery/context"
	"places/internal/domain/entity"
	domainerrors "places/internal/domain/errors"
	"places/internal/domain/repository"
	"places/internal/domain/service"
	"places/internal/usecase"
	"places/internal/util"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// defaultPhoneNumber is assigned when registration omits a phone number.
const defaultPhoneNumber = "+000000000"

// userService implements the UserUsecase interface.
type userService struct {
	txManager    repository.TransactionManager
	userRepo     repository.UserRepository
	hasher       service.PasswordHasher
	tokenService service.TokenService
	imageStorage service.ImageStorage
	logger       *slog.Logger
}

// UserServiceParams holds dependencies for userService, injected by Fx.
type UserServiceParams struct {
	fx.In

	TxManager    repository.TransactionManager
	UserRepo     repository.UserRepository
	Hasher       service.PasswordHasher
	TokenService service.TokenService
	ImageStorage service.ImageStorage
	Logger       *slog.Logger
}

// NewUserService is the constructor for userService. It receives all dependencies as interfaces.
func NewUserService(params UserServiceParams) usecase.UserUsecase {
	return &userService{
		txManager:    params.TxManager,
		userRepo:     params.UserRepo,
		hasher:       params.Hasher,
		tokenService: params.TokenService,
		imageStorage: params.ImageStorage,
		logger:       params.Logger,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *userService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// Register orchestrates the complete account registration process.
func (srv *userService) Register(ctx context.Context, input usecase.RegisterInput) (*usecase.AuthOutput, error) {
	email := util.NormalizeEmail(input.Email)
	srv.log(ctx).Info("Starting registration", slog.String("email", email))

	if input.Password != input.ConfirmationPassword {
		return nil, domainerrors.ErrPasswordMismatch
	}
	if err := srv.hasher.ValidatePasswordStrength(input.Password); err != nil {
		srv.log(ctx).Warn("Password validation failed during registration", slog.String("email", email))

		return nil, err
	}

	hashedPassword, err := srv.hasher.Hash(input.Password)
	if err != nil {
		return nil, errors.Wrap(err, "failed to hash password")
	}

	phoneNumber := input.PhoneNumber
	if phoneNumber == "" {
		phoneNumber = defaultPhoneNumber
	}

	user := &entity.User{
		Email:        email,
		PasswordHash: hashedPassword,
		PhoneNumber:  phoneNumber,
	}

	err = srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		userRepo := repoFactory.UserRepo()

		exists, err := userRepo.ExistsByEmail(ctx, email)
		if err != nil {
			return errors.Wrap(err, "failed to check email existence")
		}
		if exists {
			return domainerrors.ErrUserAlreadyExists
		}

		return userRepo.Create(ctx, user)
	})
	if err != nil {
		return nil, err
	}

	accessToken, refreshToken, err := srv.tokenService.GenerateTokens(user.ID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate tokens")
	}

	srv.log(ctx).Debug("Registration completed", slog.Any("userID", user.ID))

	return &usecase.AuthOutput{User: user, AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// Login verifies the credentials and issues a fresh token pair.
func (srv *userService) Login(ctx context.Context, input usecase.LoginInput) (*usecase.AuthOutput, error) {
	email := util.NormalizeEmail(input.Email)

	user, err := srv.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, domainerrors.ErrInvalidCredentials
		}

		return nil, errors.Wrap(err, "failed to find user for login")
	}

	if !srv.hasher.Check(input.Password, user.PasswordHash) {
		srv.log(ctx).Warn("Login with wrong password", slog.String("email", email))

		return nil, domainerrors.ErrInvalidCredentials
	}

	accessToken, refreshToken, err := srv.tokenService.GenerateTokens(user.ID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate tokens")
	}

	return &usecase.AuthOutput{User: user, AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// ChangeEmail moves the account to a new normalized login email.
func (srv *userService) ChangeEmail(ctx context.Context, userID uuid.UUID, input usecase.ChangeEmailInput) (*entity.User, error) {
	email := util.NormalizeEmail(input.NewEmail)

	var updated *entity.User
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		userRepo := repoFactory.UserRepo()

		user, err := userRepo.FindByID(ctx, userID)
		if err != nil {
			if errors.Is(err, repository.ErrUserNotFound) {
				return domainerrors.ErrUserNotFound
			}

			return errors.Wrap(err, "failed to find user")
		}
		if user.Email == email {
			updated = user

			return nil
		}

		exists, err := userRepo.ExistsByEmail(ctx, email)
		if err != nil {
			return errors.Wrap(err, "failed to check email existence")
		}
		if exists {
			return domainerrors.ErrUserAlreadyExists
		}

		user.Email = email
		if err := userRepo.Update(ctx, user); err != nil {
			return err
		}
		updated = user

		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// ChangePassword verifies the old password and commits the new one.
func (srv *userService) ChangePassword(ctx context.Context, userID uuid.UUID, input usecase.ChangePasswordInput) error {
	if err := srv.hasher.ValidatePasswordStrength(input.NewPassword); err != nil {
		return err
	}
	if input.NewPassword != input.ConfirmationPassword {
		return domainerrors.ErrPasswordMismatch
	}

	user, err := srv.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return domainerrors.ErrUserNotFound
		}

		return errors.Wrap(err, "failed to find user")
	}

	if !srv.hasher.Check(input.OldPassword, user.PasswordHash) {
		return domainerrors.ErrInvalidCredentials.WrapMessage("old password is incorrect")
	}
	if srv.hasher.Check(input.NewPassword, user.PasswordHash) {
		return domainerrors.ErrSamePassword
	}

	hashedPassword, err := srv.hasher.Hash(input.NewPassword)
	if err != nil {
		return errors.Wrap(err, "failed to hash password")
	}

	user.PasswordHash = hashedPassword

	return srv.userRepo.Update(ctx, user)
}

// DeleteAccount removes the account with its places, images and
// ratings, then releases the associated blobs after commit.
func (srv *userService) DeleteAccount(ctx context.Context, userID uuid.UUID) error {
	var blobKeys []string

	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		userRepo := repoFactory.UserRepo()
		placeRepo := repoFactory.PlaceRepo()

		user, err := userRepo.FindByID(ctx, userID)
		if err != nil {
			if errors.Is(err, repository.ErrUserNotFound) {
				return domainerrors.ErrUserNotFound
			}

			return errors.Wrap(err, "failed to find user")
		}
		if user.AvatarRef != "" {
			blobKeys = append(blobKeys, user.AvatarRef)
		}

		ownPlaces, err := placeRepo.FindByOwner(ctx, userID)
		if err != nil {
			return errors.Wrap(err, "failed to list places for deletion")
		}
		for _, place := range ownPlaces {
			blobKeys = append(blobKeys, collectPlaceBlobKeys(place)...)
		}

		return userRepo.Delete(ctx, userID)
	})
	if err != nil {
		return err
	}

	// The delete is committed; blob release is compensating cleanup and
	// must never undo it.
	srv.releaseBlobs(ctx, blobKeys)

	srv.log(ctx).Info("Account deleted", slog.Any("userID", userID))

	return nil
}

func (srv *userService) releaseBlobs(ctx context.Context, keys []string) {
	for _, key := range keys {
		if err := srv.imageStorage.Remove(ctx, key); err != nil {
			srv.log(ctx).Warn("Failed to release blob", slog.String("key", key), slog.Any("error", err))
		}
	}
}

func collectPlaceBlobKeys(place *entity.Place) []string {
	var keys []string
	if place.MainImageRef != "" {
		keys = append(keys, place.MainImageRef)
	}
	for _, image := range place.Images {
		if image.ImageRef != "" {
			keys = append(keys, image.ImageRef)
		}
	}

	return keys
}
