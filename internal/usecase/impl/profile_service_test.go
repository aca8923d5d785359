package impl

import (
	"context"
	"testing"

	domainerrors "places/internal/domain/errors"
	"places/internal/domain/entity"
	"places/internal/usecase"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type profileFixture struct {
	service usecase.ProfileUsecase
	users   *fakeUserRepo
	places  *fakePlaceRepo
	storage *fakeStorage
}

func newProfileFixture() *profileFixture {
	users := newFakeUserRepo()
	places := newFakePlaceRepo()
	storage := newFakeStorage()

	return &profileFixture{
		service: NewProfileService(ProfileServiceParams{
			UserRepo:     users,
			PlaceRepo:    places,
			ImageStorage: storage,
			Logger:       discardLogger(),
		}),
		users:   users,
		places:  places,
		storage: storage,
	}
}

func TestGetProfile_ResolvesAvatarURL(t *testing.T) {
	f := newProfileFixture()
	user := newTestUser("alice@example.com")
	user.FirstName = "Alice"
	user.AvatarRef = "aliceATexample.com/avatar.jpg"
	user.IsPremium = true
	f.users.put(user)

	profile, err := f.service.GetProfile(context.Background(), user.ID)
	require.NoError(t, err)

	assert.Equal(t, "alice@example.com", profile.Email)
	assert.Equal(t, "Alice", profile.FirstName)
	assert.Equal(t, "https://img.test/aliceATexample.com/avatar.jpg", profile.AvatarURL)
	assert.True(t, profile.IsPremium)

	_, err = f.service.GetProfile(context.Background(), uuid.New())
	assert.ErrorIs(t, err, domainerrors.ErrUserNotFound)
}

func TestUpdateProfile_PatchesOnlyProvidedFields(t *testing.T) {
	f := newProfileFixture()
	user := newTestUser("alice@example.com")
	user.FirstName = "Alice"
	user.LastName = "Smith"
	f.users.put(user)

	profile, err := f.service.UpdateProfile(context.Background(), user.ID, usecase.UpdateProfileInput{
		LastName: stringPtr("Jones"),
	})
	require.NoError(t, err)

	assert.Equal(t, "Alice", profile.FirstName)
	assert.Equal(t, "Jones", profile.LastName)
	assert.Equal(t, "+000000000", profile.PhoneNumber)
}

func TestUpdateProfile_UploadsAvatarUnderEmailDerivedKey(t *testing.T) {
	f := newProfileFixture()
	user := newTestUser("alice@example.com")
	f.users.put(user)

	profile, err := f.service.UpdateProfile(context.Background(), user.ID, usecase.UpdateProfileInput{
		Avatar: &usecase.ImageUpload{Name: "selfie.png", Content: upload("selfie.png", "avatar-bytes").Content},
	})
	require.NoError(t, err)

	assert.Equal(t, "https://img.test/aliceATexample.com/avatar.png", profile.AvatarURL)
	assert.True(t, f.storage.has("aliceATexample.com/avatar.png"))
}

func TestUpdateProfile_ReplacingAvatarReleasesOldBlob(t *testing.T) {
	f := newProfileFixture()
	user := newTestUser("alice@example.com")
	user.AvatarRef = "aliceATexample.com/avatar.jpg"
	f.users.put(user)

	_, err := f.service.UpdateProfile(context.Background(), user.ID, usecase.UpdateProfileInput{
		Avatar: &usecase.ImageUpload{Name: "new.png", Content: upload("new.png", "x").Content},
	})
	require.NoError(t, err)

	assert.Contains(t, f.storage.removed, "aliceATexample.com/avatar.jpg")
	assert.True(t, f.storage.has("aliceATexample.com/avatar.png"))
}

func TestUpdateProfile_RemoveAvatarClearsRefAndBlob(t *testing.T) {
	f := newProfileFixture()
	user := newTestUser("alice@example.com")
	user.AvatarRef = "aliceATexample.com/avatar.jpg"
	f.users.put(user)

	profile, err := f.service.UpdateProfile(context.Background(), user.ID, usecase.UpdateProfileInput{
		RemoveAvatar: true,
	})
	require.NoError(t, err)

	assert.Empty(t, profile.AvatarURL)
	assert.Contains(t, f.storage.removed, "aliceATexample.com/avatar.jpg")

	stored, err := f.users.FindByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.AvatarRef)
}

func TestHomepage_AggregatesProfileAndOwnPlaces(t *testing.T) {
	f := newProfileFixture()
	user := newTestUser("alice@example.com")
	f.users.put(user)
	f.places.put(newTestPlace(user.ID, "Cafe", entity.CategoryCoffeeHouses, 50, 30, 4.0))
	f.places.put(newTestPlace(uuid.New(), "Not mine", entity.CategoryArt, 50, 30, 4.0))

	home, err := f.service.Homepage(context.Background(), user.ID)
	require.NoError(t, err)

	assert.Equal(t, "alice@example.com", home.Profile.Email)
	require.Len(t, home.Places, 1)
	assert.Equal(t, "Cafe", home.Places[0].Name)
	assert.True(t, home.Places[0].CanEdit)
	assert.InDelta(t, 4.0, home.Places[0].Rating, 1e-9)
}
