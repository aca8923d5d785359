package impl

import (
	"context"
	"testing"

	domainerrors "places/internal/domain/errors"
	"places/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recoveryFixture struct {
	service usecase.RecoveryUsecase
	users   *fakeUserRepo
	mailer  *fakeMailer
}

func newRecoveryFixture(t *testing.T) *recoveryFixture {
	t.Helper()
	users := newFakeUserRepo()
	mailer := newFakeMailer()

	service, err := NewRecoveryService(RecoveryServiceParams{
		UserRepo: users,
		Hasher:   fakeHasher{},
		Mailer:   mailer,
		Cache:    newMemoryCache(),
		Config:   testConfig(),
		Logger:   discardLogger(),
	})
	require.NoError(t, err)

	return &recoveryFixture{service: service, users: users, mailer: mailer}
}

func TestSendResetCode_MailsStableCodeWithinTTL(t *testing.T) {
	f := newRecoveryFixture(t)
	f.users.put(newTestUser("alice@example.com"))

	require.NoError(t, f.service.SendResetCode(context.Background(), "ALICE@example.com"))
	first := f.mailer.lastCode("alice@example.com")
	require.Len(t, first, 4)

	// A second request within the TTL resends the live code.
	require.NoError(t, f.service.SendResetCode(context.Background(), "alice@example.com"))
	assert.Equal(t, first, f.mailer.lastCode("alice@example.com"))
	assert.Len(t, f.mailer.sent, 2)
}

func TestSendResetCode_UnknownAccount(t *testing.T) {
	f := newRecoveryFixture(t)

	err := f.service.SendResetCode(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, domainerrors.ErrUserNotFound)
	assert.Empty(t, f.mailer.sent)
}

func TestConfirmResetCode_ConsumesCodeAndIssuesSessionToken(t *testing.T) {
	f := newRecoveryFixture(t)
	f.users.put(newTestUser("alice@example.com"))
	require.NoError(t, f.service.SendResetCode(context.Background(), "alice@example.com"))
	code := f.mailer.lastCode("alice@example.com")

	token, err := f.service.ConfirmResetCode(context.Background(), "alice@example.com", code)
	require.NoError(t, err)
	assert.Len(t, token, 32)

	// The code is single-use.
	_, err = f.service.ConfirmResetCode(context.Background(), "alice@example.com", code)
	assert.ErrorIs(t, err, domainerrors.ErrResetCodeInvalid)
}

func TestConfirmResetCode_RejectsWrongCode(t *testing.T) {
	f := newRecoveryFixture(t)
	f.users.put(newTestUser("alice@example.com"))
	require.NoError(t, f.service.SendResetCode(context.Background(), "alice@example.com"))

	_, err := f.service.ConfirmResetCode(context.Background(), "alice@example.com", "0000x")
	assert.ErrorIs(t, err, domainerrors.ErrResetCodeInvalid)

	// The failed attempt must not burn the live code.
	code := f.mailer.lastCode("alice@example.com")
	_, err = f.service.ConfirmResetCode(context.Background(), "alice@example.com", code)
	assert.NoError(t, err)
}

func TestResetPassword_CommitsNewPasswordOnce(t *testing.T) {
	f := newRecoveryFixture(t)
	user := newTestUser("alice@example.com")
	f.users.put(user)
	require.NoError(t, f.service.SendResetCode(context.Background(), "alice@example.com"))
	token, err := f.service.ConfirmResetCode(context.Background(), "alice@example.com", f.mailer.lastCode("alice@example.com"))
	require.NoError(t, err)

	err = f.service.ResetPassword(context.Background(), usecase.ResetPasswordInput{
		Email:                "alice@example.com",
		SessionToken:         token,
		NewPassword:          "BrandNew123!",
		ConfirmationPassword: "BrandNew123!",
	})
	require.NoError(t, err)

	stored, err := f.users.FindByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, "hashed:BrandNew123!", stored.PasswordHash)

	// The session token is single-use.
	err = f.service.ResetPassword(context.Background(), usecase.ResetPasswordInput{
		Email:                "alice@example.com",
		SessionToken:         token,
		NewPassword:          "Another123!",
		ConfirmationPassword: "Another123!",
	})
	assert.ErrorIs(t, err, domainerrors.ErrSessionTokenInvalid)
}

func TestResetPassword_TokenIsScopedToItsAccount(t *testing.T) {
	f := newRecoveryFixture(t)
	f.users.put(newTestUser("alice@example.com"))
	f.users.put(newTestUser("bob@example.com"))
	require.NoError(t, f.service.SendResetCode(context.Background(), "alice@example.com"))
	token, err := f.service.ConfirmResetCode(context.Background(), "alice@example.com", f.mailer.lastCode("alice@example.com"))
	require.NoError(t, err)

	err = f.service.ResetPassword(context.Background(), usecase.ResetPasswordInput{
		Email:                "bob@example.com",
		SessionToken:         token,
		NewPassword:          "BrandNew123!",
		ConfirmationPassword: "BrandNew123!",
	})
	assert.ErrorIs(t, err, domainerrors.ErrSessionTokenInvalid)
}

func TestResetPassword_ValidatesBeforeConsumingToken(t *testing.T) {
	f := newRecoveryFixture(t)
	f.users.put(newTestUser("alice@example.com"))
	require.NoError(t, f.service.SendResetCode(context.Background(), "alice@example.com"))
	token, err := f.service.ConfirmResetCode(context.Background(), "alice@example.com", f.mailer.lastCode("alice@example.com"))
	require.NoError(t, err)

	err = f.service.ResetPassword(context.Background(), usecase.ResetPasswordInput{
		Email:                "alice@example.com",
		SessionToken:         token,
		NewPassword:          "short",
		ConfirmationPassword: "short",
	})
	assert.ErrorIs(t, err, domainerrors.ErrPasswordStrength)

	err = f.service.ResetPassword(context.Background(), usecase.ResetPasswordInput{
		Email:                "alice@example.com",
		SessionToken:         token,
		NewPassword:          "BrandNew123!",
		ConfirmationPassword: "Other123!",
	})
	assert.ErrorIs(t, err, domainerrors.ErrPasswordMismatch)

	// Both rejections happened before the token was touched.
	err = f.service.ResetPassword(context.Background(), usecase.ResetPasswordInput{
		Email:                "alice@example.com",
		SessionToken:         token,
		NewPassword:          "BrandNew123!",
		ConfirmationPassword: "BrandNew123!",
	})
	assert.NoError(t, err)
}
