package impl

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"places/config"
	"places/internal/domain/entity"
	domainerrors "places/internal/domain/errors"
	"places/internal/domain/repository"
	"places/internal/domain/service"
	"places/internal/util"

	"github.com/google/uuid"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Auth = &config.AuthConfig{
		BcryptCost:           4,
		AccessTokenLifetime:  15 * time.Minute,
		RefreshTokenLifetime: 7 * 24 * time.Hour,
	}
	cfg.Recovery = &config.RecoveryConfig{
		CodeTTL:         2 * time.Minute,
		SessionTokenTTL: 10 * time.Minute,
	}
	cfg.Places = &config.PlacesConfig{
		DefaultRadiusKm:         5.0,
		NearestRadiusKm:         10.0,
		PrefilterDegrees:        0.05,
		NearestPrefilterDegrees: 0.1,
		SplitLimit:              10,
		PageSize:                20,
	}

	return cfg
}

// --- repositories ---

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*entity.User

	createErr error
	updateErr error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*entity.User)}
}

func (r *fakeUserRepo) put(user *entity.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *user
	r.users[user.ID] = &clone
}

func (r *fakeUserRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	clone := *user

	return &clone, nil
}

func (r *fakeUserRepo) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == email {
			clone := *user

			return &clone, nil
		}
	}

	return nil, repository.ErrUserNotFound
}

func (r *fakeUserRepo) ExistsByEmail(_ context.Context, email string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == email {
			return true, nil
		}
	}

	return false, nil
}

func (r *fakeUserRepo) Create(_ context.Context, user *entity.User) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	clone := *user
	r.users[user.ID] = &clone

	return nil
}

func (r *fakeUserRepo) Update(_ context.Context, user *entity.User) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return repository.ErrUserNotFound
	}
	clone := *user
	r.users[user.ID] = &clone

	return nil
}

func (r *fakeUserRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return repository.ErrUserNotFound
	}
	delete(r.users, id)

	return nil
}

type fakePlaceRepo struct {
	mu     sync.Mutex
	places map[uuid.UUID]*entity.Place

	createErr error
}

func newFakePlaceRepo() *fakePlaceRepo {
	return &fakePlaceRepo{places: make(map[uuid.UUID]*entity.Place)}
}

func (r *fakePlaceRepo) put(place *entity.Place) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.places[place.ID] = place
}

func (r *fakePlaceRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Place, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	place, ok := r.places[id]
	if !ok {
		return nil, repository.ErrPlaceNotFound
	}

	return place, nil
}

func (r *fakePlaceRepo) FindByOwner(_ context.Context, ownerID uuid.UUID) ([]*entity.Place, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var owned []*entity.Place
	for _, place := range r.places {
		if place.AddedBy == ownerID {
			owned = append(owned, place)
		}
	}
	sortPlacesByID(owned)

	return owned, nil
}

func (r *fakePlaceRepo) FindByOwnerNear(ctx context.Context, ownerID uuid.UUID, lat, lon, radiusDegrees float64) ([]*entity.Place, error) {
	owned, err := r.FindByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	var near []*entity.Place
	for _, place := range owned {
		dLat := place.Latitude - lat
		dLon := place.Longitude - lon
		if dLat*dLat+dLon*dLon <= radiusDegrees*radiusDegrees {
			near = append(near, place)
		}
	}

	return near, nil
}

func (r *fakePlaceRepo) Create(_ context.Context, place *entity.Place) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.places[place.ID] = place

	return nil
}

func (r *fakePlaceRepo) Update(_ context.Context, place *entity.Place) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.places[place.ID]; !ok {
		return repository.ErrPlaceNotFound
	}
	r.places[place.ID] = place

	return nil
}

func (r *fakePlaceRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.places[id]; !ok {
		return repository.ErrPlaceNotFound
	}
	delete(r.places, id)

	return nil
}

func (r *fakePlaceRepo) AddImages(_ context.Context, placeID uuid.UUID, images []*entity.PlaceImage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	place, ok := r.places[placeID]
	if !ok {
		return repository.ErrPlaceNotFound
	}
	place.Images = append(place.Images, images...)

	return nil
}

func (r *fakePlaceRepo) DeleteImages(_ context.Context, placeID uuid.UUID, imageIDs []uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	place, ok := r.places[placeID]
	if !ok {
		return repository.ErrPlaceNotFound
	}
	drop := make(map[uuid.UUID]struct{}, len(imageIDs))
	for _, id := range imageIDs {
		drop[id] = struct{}{}
	}
	kept := place.Images[:0]
	removed := 0
	for _, image := range place.Images {
		if _, ok := drop[image.ID]; ok {
			removed++

			continue
		}
		kept = append(kept, image)
	}
	if removed != len(imageIDs) {
		return repository.ErrPlaceImageNotFound
	}
	place.Images = kept

	return nil
}

func sortPlacesByID(places []*entity.Place) {
	for i := 1; i < len(places); i++ {
		for j := i; j > 0 && places[j-1].ID.String() > places[j].ID.String(); j-- {
			places[j-1], places[j] = places[j], places[j-1]
		}
	}
}

type fakeRatingRepo struct {
	mu      sync.Mutex
	places  *fakePlaceRepo
	updated []uuid.UUID // place IDs whose rating value was rewritten
}

func newFakeRatingRepo(places *fakePlaceRepo) *fakeRatingRepo {
	return &fakeRatingRepo{places: places}
}

func (r *fakeRatingRepo) FindByUserAndPlace(_ context.Context, userID, placeID uuid.UUID) (*entity.PlaceRating, error) {
	r.places.mu.Lock()
	defer r.places.mu.Unlock()
	place, ok := r.places.places[placeID]
	if !ok {
		return nil, repository.ErrRatingNotFound
	}
	for _, rating := range place.Ratings {
		if rating.UserID == userID {
			return rating, nil
		}
	}

	return nil, repository.ErrRatingNotFound
}

func (r *fakeRatingRepo) Create(_ context.Context, rating *entity.PlaceRating) error {
	r.places.mu.Lock()
	defer r.places.mu.Unlock()
	place, ok := r.places.places[rating.PlaceID]
	if !ok {
		return repository.ErrPlaceNotFound
	}
	place.Ratings = append(place.Ratings, rating)

	return nil
}

func (r *fakeRatingRepo) UpdateValue(_ context.Context, userID, placeID uuid.UUID, value float64) error {
	r.places.mu.Lock()
	defer r.places.mu.Unlock()
	place, ok := r.places.places[placeID]
	if !ok {
		return repository.ErrRatingNotFound
	}
	for _, rating := range place.Ratings {
		if rating.UserID == userID {
			rating.Rating = value
			r.mu.Lock()
			r.updated = append(r.updated, placeID)
			r.mu.Unlock()

			return nil
		}
	}

	return repository.ErrRatingNotFound
}

// --- transaction manager ---

type fakeTxManager struct {
	users   *fakeUserRepo
	places  *fakePlaceRepo
	ratings *fakeRatingRepo

	executions int
	failWith   error
}

func newFakeTxManager(users *fakeUserRepo, places *fakePlaceRepo, ratings *fakeRatingRepo) *fakeTxManager {
	return &fakeTxManager{users: users, places: places, ratings: ratings}
}

func (m *fakeTxManager) Execute(_ context.Context, fn func(repository.RepositoryFactory) error) error {
	m.executions++
	if m.failWith != nil {
		return m.failWith
	}

	return fn(m)
}

func (m *fakeTxManager) UserRepo() repository.UserRepository     { return m.users }
func (m *fakeTxManager) PlaceRepo() repository.PlaceRepository   { return m.places }
func (m *fakeTxManager) RatingRepo() repository.RatingRepository { return m.ratings }

// --- domain services ---

type fakeStorage struct {
	mu      sync.Mutex
	blobs   map[string]string
	removed []string

	saveErr error
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{blobs: make(map[string]string)}
}

func (s *fakeStorage) Save(_ context.Context, key string, r io.Reader) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	content, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[key] = string(content)

	return nil
}

func (s *fakeStorage) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blobs, key)
	s.removed = append(s.removed, key)

	return nil
}

func (s *fakeStorage) URL(_ context.Context, key string) (string, error) {
	return "https://img.test/" + key, nil
}

func (s *fakeStorage) has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.blobs[key]

	return ok
}

type fakeHasher struct{}

func (fakeHasher) Hash(password string) (string, error) { return "hashed:" + password, nil }

func (fakeHasher) Check(password, hash string) bool { return hash == "hashed:"+password }

func (fakeHasher) ValidatePasswordStrength(password string) error {
	if len(password) < 8 {
		return domainerrors.ErrPasswordStrength.WithDetails("Password must be at least 8 characters long")
	}

	return nil
}

type fakeTokenService struct{}

func (fakeTokenService) GenerateTokens(userID uuid.UUID) (string, string, error) {
	return "access-" + userID.String(), "refresh-" + userID.String(), nil
}

func (fakeTokenService) ValidateAccessToken(tokenString string) (*service.TokenClaims, error) {
	id, err := uuid.Parse(strings.TrimPrefix(tokenString, "access-"))
	if err != nil {
		return nil, domainerrors.ErrInvalidCredentials
	}

	return &service.TokenClaims{UserID: id}, nil
}

func (fakeTokenService) GetRefreshTokenDuration() time.Duration { return 7 * 24 * time.Hour }

type fakeMailer struct {
	mu    sync.Mutex
	sent  []sentMail
	fail  error
	codes map[string]string
}

type sentMail struct {
	email string
	code  string
}

func newFakeMailer() *fakeMailer {
	return &fakeMailer{codes: make(map[string]string)}
}

func (m *fakeMailer) SendResetCode(_ context.Context, email, code string) error {
	if m.fail != nil {
		return m.fail
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{email: email, code: code})
	m.codes[email] = code

	return nil
}

func (m *fakeMailer) lastCode(email string) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.codes[email]
}

// memoryCache is a minimal SecretCache for wiring the secret stores in
// recovery tests. Expiry is not simulated; the store tests cover that.
type memoryCache struct {
	mu      sync.Mutex
	entries map[string]string
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string]string)}
}

func (c *memoryCache) Add(_ context.Context, key, value string, _ time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[key]; ok {
		return false, nil
	}
	c.entries[key] = value

	return true, nil
}

func (c *memoryCache) Get(_ context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	value, ok := c.entries[key]
	if !ok {
		return "", service.ErrCacheMiss
	}

	return value, nil
}

func (c *memoryCache) CompareAndDelete(_ context.Context, key, candidate string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	value, ok := c.entries[key]
	if !ok || value != candidate {
		return false, nil
	}
	delete(c.entries, key)

	return true, nil
}

// --- entity builders ---

func newTestUser(email string) *entity.User {
	return &entity.User{
		ID:           uuid.New(),
		Email:        util.NormalizeEmail(email),
		PasswordHash: "hashed:OldPass123!",
		PhoneNumber:  "+000000000",
	}
}

func newTestPlace(ownerID uuid.UUID, name string, category entity.Category, lat, lon, ownerRating float64) *entity.Place {
	placeID := uuid.New()

	return &entity.Place{
		ID:        placeID,
		AddedBy:   ownerID,
		Name:      name,
		Address:   name + " street",
		Category:  category,
		Latitude:  lat,
		Longitude: lon,
		Ratings: []*entity.PlaceRating{
			{ID: uuid.New(), UserID: ownerID, PlaceID: placeID, Rating: ownerRating},
		},
	}
}
