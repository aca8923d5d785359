package handler

import (
	"log/slog"
	"mime/multipart"
	"net/http"

	"places/internal/delivery/http/middleware"
	"places/internal/delivery/http/response"
	"places/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// ProfileHandler holds dependencies for profile-related handlers.
type ProfileHandler struct {
	uc     usecase.ProfileUsecase
	logger *slog.Logger
}

// NewProfileHandler is the constructor for ProfileHandler, injected by Fx.
func NewProfileHandler(uc usecase.ProfileUsecase, logger *slog.Logger) *ProfileHandler {
	return &ProfileHandler{uc: uc, logger: logger}
}

type profilePayload struct {
	Email       string `json:"email"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	PhoneNumber string `json:"phone_number"`
	AvatarURL   string `json:"avatar_url"`
	IsPremium   bool   `json:"is_premium"`
}

func toProfilePayload(profile *usecase.ProfileOutput) profilePayload {
	return profilePayload{
		Email:       profile.Email,
		FirstName:   profile.FirstName,
		LastName:    profile.LastName,
		PhoneNumber: profile.PhoneNumber,
		AvatarURL:   profile.AvatarURL,
		IsPremium:   profile.IsPremium,
	}
}

// GetProfile returns the authenticated caller's profile.
func (h *ProfileHandler) GetProfile(c echo.Context) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "UNAUTHORIZED", "Authentication required")
	}

	profile, err := h.uc.GetProfile(c.Request().Context(), userID)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, toProfilePayload(profile), "")
}

// UpdateProfile applies a partial profile update. The request is
// multipart so an avatar image can travel with the field patches.
func (h *ProfileHandler) UpdateProfile(c echo.Context) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "UNAUTHORIZED", "Authentication required")
	}

	input := usecase.UpdateProfileInput{
		FirstName:    formString(c, "first_name"),
		LastName:     formString(c, "last_name"),
		PhoneNumber:  formString(c, "phone_number"),
		RemoveAvatar: c.FormValue("remove_avatar") == "true",
	}

	avatarFile, err := c.FormFile("avatar")
	if err == nil {
		upload, closeUpload, err := openUpload(avatarFile)
		if err != nil {
			return response.BindingError(c, "INVALID_INPUT", "Failed to read avatar upload")
		}
		defer closeUpload()
		input.Avatar = &upload
	} else if !errors.Is(err, http.ErrMissingFile) && !errors.Is(err, http.ErrNotMultipart) {
		return response.BindingError(c, "INVALID_INPUT", "Failed to read avatar upload")
	}

	profile, err := h.uc.UpdateProfile(c.Request().Context(), userID, input)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, toProfilePayload(profile), "Profile updated successfully")
}

// Homepage aggregates the caller's profile with their places.
func (h *ProfileHandler) Homepage(c echo.Context) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "UNAUTHORIZED", "Authentication required")
	}

	home, err := h.uc.Homepage(c.Request().Context(), userID)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, map[string]any{
		"profile": toProfilePayload(home.Profile),
		"places":  toPlacePayloads(home.Places),
	}, "")
}

// formString returns a pointer to the form value, or nil when the field
// is absent from the request.
func formString(c echo.Context, name string) *string {
	values, err := c.FormParams()
	if err != nil {
		return nil
	}
	if _, ok := values[name]; !ok {
		return nil
	}
	value := values.Get(name)

	return &value
}

// openUpload opens a multipart file header as an ImageUpload. The
// returned closer must be called after the usecase consumed the reader.
func openUpload(fileHeader *multipart.FileHeader) (usecase.ImageUpload, func(), error) {
	file, err := fileHeader.Open()
	if err != nil {
		return usecase.ImageUpload{}, nil, errors.Wrap(err, "failed to open upload")
	}

	return usecase.ImageUpload{Name: fileHeader.Filename, Content: file}, func() { file.Close() }, nil
}
