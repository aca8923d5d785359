package impl

import (
	"context"
	"log/slog"

	"places/config"
	deliverycontext "places/internal/delivery/context"
	domainerrors "places/internal/domain/errors"
	"places/internal/domain/repository"
	"places/internal/domain/service"
	"places/internal/secret"
	"places/internal/usecase"
	"places/internal/util"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// recoveryService implements the RecoveryUsecase interface. It drives
// two single-use secret stores over the same cache: the mailed reset
// code and the session token that gates the password change.
type recoveryService struct {
	userRepo   repository.UserRepository
	hasher     service.PasswordHasher
	mailer     service.Mailer
	codeStore  *secret.Store
	tokenStore *secret.Store
	logger     *slog.Logger
}

// RecoveryServiceParams holds dependencies for recoveryService, injected by Fx.
type RecoveryServiceParams struct {
	fx.In

	UserRepo repository.UserRepository
	Hasher   service.PasswordHasher
	Mailer   service.Mailer
	Cache    service.SecretCache
	Config   *config.Config
	Logger   *slog.Logger
}

// NewRecoveryService is the constructor for recoveryService. The secret
// stores are built here so a misconfigured TTL fails startup.
func NewRecoveryService(params RecoveryServiceParams) (usecase.RecoveryUsecase, error) {
	codeStore, err := secret.NewResetCodeStore(params.Cache, params.Config.Recovery.CodeTTL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build reset code store")
	}
	tokenStore, err := secret.NewSessionTokenStore(params.Cache, params.Config.Recovery.SessionTokenTTL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build session token store")
	}

	return &recoveryService{
		userRepo:   params.UserRepo,
		hasher:     params.Hasher,
		mailer:     params.Mailer,
		codeStore:  codeStore,
		tokenStore: tokenStore,
		logger:     params.Logger,
	}, nil
}

func (srv *recoveryService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// SendResetCode issues the live reset code for the account and mails
// it. Repeated calls within the TTL resend the same code.
func (srv *recoveryService) SendResetCode(ctx context.Context, email string) error {
	email = util.NormalizeEmail(email)

	if err := srv.requireUser(ctx, email); err != nil {
		return err
	}

	code, err := srv.codeStore.GetOrCreate(ctx, email)
	if err != nil {
		return errors.Wrap(err, "failed to issue reset code")
	}

	if err := srv.mailer.SendResetCode(ctx, email, code); err != nil {
		return errors.Wrap(err, "failed to mail reset code")
	}

	srv.log(ctx).Info("Reset code sent", slog.String("email", email))

	return nil
}

// ConfirmResetCode consumes the reset code and hands back a session
// token. An absent, expired or wrong code all fail the same way.
func (srv *recoveryService) ConfirmResetCode(ctx context.Context, email, code string) (string, error) {
	email = util.NormalizeEmail(email)

	if err := srv.requireUser(ctx, email); err != nil {
		return "", err
	}

	consumed, err := srv.codeStore.TryConsume(ctx, email, code)
	if err != nil {
		return "", errors.Wrap(err, "failed to consume reset code")
	}
	if !consumed {
		return "", domainerrors.ErrResetCodeInvalid
	}

	token, err := srv.tokenStore.GetOrCreate(ctx, email)
	if err != nil {
		return "", errors.Wrap(err, "failed to issue session token")
	}

	srv.log(ctx).Info("Reset code confirmed", slog.String("email", email))

	return token, nil
}

// ResetPassword consumes the session token and commits the new password.
func (srv *recoveryService) ResetPassword(ctx context.Context, input usecase.ResetPasswordInput) error {
	email := util.NormalizeEmail(input.Email)

	if err := srv.hasher.ValidatePasswordStrength(input.NewPassword); err != nil {
		return err
	}
	if input.NewPassword != input.ConfirmationPassword {
		return domainerrors.ErrPasswordMismatch
	}

	user, err := srv.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return domainerrors.ErrUserNotFound
		}

		return errors.Wrap(err, "failed to find user")
	}

	consumed, err := srv.tokenStore.TryConsume(ctx, email, input.SessionToken)
	if err != nil {
		return errors.Wrap(err, "failed to consume session token")
	}
	if !consumed {
		return domainerrors.ErrSessionTokenInvalid
	}

	hashedPassword, err := srv.hasher.Hash(input.NewPassword)
	if err != nil {
		return errors.Wrap(err, "failed to hash password")
	}

	user.PasswordHash = hashedPassword
	if err := srv.userRepo.Update(ctx, user); err != nil {
		return err
	}

	srv.log(ctx).Info("Password reset completed", slog.String("email", email))

	return nil
}

func (srv *recoveryService) requireUser(ctx context.Context, email string) error {
	exists, err := srv.userRepo.ExistsByEmail(ctx, email)
	if err != nil {
		return errors.Wrap(err, "failed to check email existence")
	}
	if !exists {
		return domainerrors.ErrUserNotFound
	}

	return nil
}
