package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"places/internal/delivery/http/middleware"
	"places/internal/delivery/http/response"
	"places/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// PlaceHandler holds dependencies for place-related handlers.
type PlaceHandler struct {
	uc     usecase.PlaceUsecase
	logger *slog.Logger
}

// NewPlaceHandler is the constructor for PlaceHandler, injected by Fx.
func NewPlaceHandler(uc usecase.PlaceUsecase, logger *slog.Logger) *PlaceHandler {
	return &PlaceHandler{uc: uc, logger: logger}
}

type placeImagePayload struct {
	ID  uuid.UUID `json:"id"`
	URL string    `json:"url"`
}

type placePayload struct {
	ID              uuid.UUID           `json:"id"`
	AddedBy         uuid.UUID           `json:"added_by"`
	Name            string              `json:"name"`
	Description     string              `json:"description"`
	Address         string              `json:"address"`
	Category        string              `json:"category"`
	Latitude        float64             `json:"latitude"`
	Longitude       float64             `json:"longitude"`
	Rating          float64             `json:"rating"`
	CanEdit         bool                `json:"can_edit"`
	MainImageURL    string              `json:"main_image_url"`
	SecondaryImages []placeImagePayload `json:"secondary_images"`
}

func toPlacePayload(view *usecase.PlaceView) placePayload {
	images := make([]placeImagePayload, 0, len(view.SecondaryImages))
	for _, image := range view.SecondaryImages {
		images = append(images, placeImagePayload{ID: image.ID, URL: image.URL})
	}

	return placePayload{
		ID:              view.ID,
		AddedBy:         view.AddedBy,
		Name:            view.Name,
		Description:     view.Description,
		Address:         view.Address,
		Category:        view.Category,
		Latitude:        view.Latitude,
		Longitude:       view.Longitude,
		Rating:          view.Rating,
		CanEdit:         view.CanEdit,
		MainImageURL:    view.MainImageURL,
		SecondaryImages: images,
	}
}

func toPlacePayloads(views []*usecase.PlaceView) []placePayload {
	payloads := make([]placePayload, 0, len(views))
	for _, view := range views {
		payloads = append(payloads, toPlacePayload(view))
	}

	return payloads
}

// Create handles the multipart place creation request.
func (h *PlaceHandler) Create(c echo.Context) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "UNAUTHORIZED", "Authentication required")
	}

	latitude, err := formFloat(c, "latitude")
	if err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid latitude")
	}
	longitude, err := formFloat(c, "longitude")
	if err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid longitude")
	}
	rating, err := formFloat(c, "rating")
	if err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid rating")
	}

	mainImageFile, err := c.FormFile("main_image")
	if err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Main image is required")
	}
	mainImage, closeMain, err := openUpload(mainImageFile)
	if err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Failed to read main image")
	}
	defer closeMain()

	secondary, closeSecondary, err := openUploads(c, "secondary_images")
	if err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Failed to read secondary images")
	}
	defer closeSecondary()

	view, err := h.uc.CreatePlace(c.Request().Context(), userID, usecase.CreatePlaceInput{
		Name:            c.FormValue("name"),
		Description:     c.FormValue("description"),
		Address:         c.FormValue("address"),
		Category:        c.FormValue("category"),
		Latitude:        latitude,
		Longitude:       longitude,
		Rating:          rating,
		MainImage:       mainImage,
		SecondaryImages: secondary,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusCreated, toPlacePayload(view), "Place created successfully")
}

// Update handles the multipart partial place update.
func (h *PlaceHandler) Update(c echo.Context) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "UNAUTHORIZED", "Authentication required")
	}
	placeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid place id")
	}

	input := usecase.UpdatePlaceInput{
		Name:        formString(c, "name"),
		Description: formString(c, "description"),
		Address:     formString(c, "address"),
		Category:    formString(c, "category"),
	}
	if input.Latitude, err = formFloatPtr(c, "latitude"); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid latitude")
	}
	if input.Longitude, err = formFloatPtr(c, "longitude"); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid longitude")
	}
	if input.Rating, err = formFloatPtr(c, "rating"); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid rating")
	}

	mainImageFile, err := c.FormFile("main_image")
	if err == nil {
		mainImage, closeMain, err := openUpload(mainImageFile)
		if err != nil {
			return response.BindingError(c, "INVALID_INPUT", "Failed to read main image")
		}
		defer closeMain()
		input.MainImage = &mainImage
	} else if !errors.Is(err, http.ErrMissingFile) && !errors.Is(err, http.ErrNotMultipart) {
		return response.BindingError(c, "INVALID_INPUT", "Failed to read main image")
	}

	view, err := h.uc.UpdatePlace(c.Request().Context(), userID, placeID, input)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, toPlacePayload(view), "Place updated successfully")
}

// Delete removes an owned place.
func (h *PlaceHandler) Delete(c echo.Context) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "UNAUTHORIZED", "Authentication required")
	}
	placeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid place id")
	}

	if err := h.uc.DeletePlace(c.Request().Context(), userID, placeID); err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, nil, "Place deleted successfully")
}

// Get returns one owned place.
func (h *PlaceHandler) Get(c echo.Context) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "UNAUTHORIZED", "Authentication required")
	}
	placeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid place id")
	}

	view, err := h.uc.GetPlace(c.Request().Context(), userID, placeID)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, toPlacePayload(view), "")
}

// List returns every place the caller owns.
func (h *PlaceHandler) List(c echo.Context) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "UNAUTHORIZED", "Authentication required")
	}

	views, err := h.uc.ListPlaces(c.Request().Context(), userID)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, toPlacePayloads(views), "")
}

// UpdateImages applies a secondary image batch update.
func (h *PlaceHandler) UpdateImages(c echo.Context) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "UNAUTHORIZED", "Authentication required")
	}
	placeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid place id")
	}

	uploads, closeUploads, err := openUploads(c, "images_to_upload")
	if err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Failed to read image uploads")
	}
	defer closeUploads()

	var deleteIDs []uuid.UUID
	values, _ := c.FormParams()
	for _, raw := range values["image_ids_to_delete"] {
		id, err := uuid.Parse(raw)
		if err != nil {
			return response.BindingError(c, "INVALID_INPUT", "Invalid image id")
		}
		deleteIDs = append(deleteIDs, id)
	}

	view, err := h.uc.UpdatePlaceImages(c.Request().Context(), userID, placeID, usecase.UpdatePlaceImagesInput{
		ImagesToUpload:   uploads,
		ImageIDsToDelete: deleteIDs,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, toPlacePayload(view), "Place images updated successfully")
}

// Nearest returns the caller's places around a query point.
func (h *PlaceHandler) Nearest(c echo.Context) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "UNAUTHORIZED", "Authentication required")
	}

	latitude, err := queryFloat(c, "latitude")
	if err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid latitude")
	}
	longitude, err := queryFloat(c, "longitude")
	if err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid longitude")
	}
	distance, err := queryFloatPtr(c, "distance")
	if err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid distance")
	}

	views, err := h.uc.NearestPlaces(c.Request().Context(), userID, usecase.NearestPlacesInput{
		Latitude:  latitude,
		Longitude: longitude,
		Distance:  distance,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, toPlacePayloads(views), "")
}

// Search free-text searches the caller's places.
func (h *PlaceHandler) Search(c echo.Context) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "UNAUTHORIZED", "Authentication required")
	}

	views, err := h.uc.SearchPlaces(c.Request().Context(), userID, c.QueryParam("query"))
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, toPlacePayloads(views), "")
}

// ByCategory returns the caller's places in one category.
func (h *PlaceHandler) ByCategory(c echo.Context) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "UNAUTHORIZED", "Authentication required")
	}

	views, err := h.uc.PlacesByCategory(c.Request().Context(), userID, c.Param("category"))
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, toPlacePayloads(views), "")
}

// Filter runs the filter engine over the caller's places.
func (h *PlaceHandler) Filter(c echo.Context) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "UNAUTHORIZED", "Authentication required")
	}

	latitude, err := queryFloat(c, "latitude")
	if err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid latitude")
	}
	longitude, err := queryFloat(c, "longitude")
	if err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid longitude")
	}
	distance, err := queryFloatPtr(c, "distance")
	if err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid distance")
	}
	rating, err := queryFloatPtr(c, "rating")
	if err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid rating")
	}
	page := 1
	if raw := c.QueryParam("page"); raw != "" {
		page, err = strconv.Atoi(raw)
		if err != nil || page < 1 {
			return response.BindingError(c, "INVALID_INPUT", "Invalid page")
		}
	}

	var categories []string
	if raw := c.QueryParam("categories"); raw != "" {
		categories = strings.Split(raw, ",")
	}

	output, err := h.uc.FilterPlaces(c.Request().Context(), userID, usecase.FilterPlacesInput{
		ApplyFilters:    c.QueryParam("apply_filters") == "true",
		SplitCategories: c.QueryParam("split") == "true",
		Latitude:        latitude,
		Longitude:       longitude,
		Distance:        distance,
		Categories:      categories,
		Rating:          rating,
		Ordering:        c.QueryParam("ordering"),
		Search:          c.QueryParam("search"),
		Page:            page,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	if output.IsSplit {
		buckets := make(map[string][]placePayload, len(output.ByCategory))
		for category, views := range output.ByCategory {
			buckets[category] = toPlacePayloads(views)
		}

		return response.Success(c, http.StatusOK, map[string]any{
			"filters_applied": output.FiltersApplied,
			"by_category":     buckets,
		}, "")
	}

	return response.Success(c, http.StatusOK, map[string]any{
		"filters_applied": output.FiltersApplied,
		"places":          toPlacePayloads(output.Places),
		"total":           output.Total,
		"page":            output.Page,
		"page_size":       output.PageSize,
	}, "")
}

type flatFilterRequest struct {
	Latitude   float64  `json:"latitude"`
	Longitude  float64  `json:"longitude"`
	Distance   float64  `json:"distance" validate:"required,gt=0"`
	Categories []string `json:"categories"`
	Rating     *float64 `json:"rating"`
	Ordering   string   `json:"ordering"`
	Search     string   `json:"search"`
	Page       int      `json:"page"`
}

// FilterFlat is the older filter request shape: the distance bound is
// mandatory, filters always apply and the result is never split.
func (h *PlaceHandler) FilterFlat(c echo.Context) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "UNAUTHORIZED", "Authentication required")
	}

	var req flatFilterRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid filter input")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	page := req.Page
	if page < 1 {
		page = 1
	}

	output, err := h.uc.FilterPlaces(c.Request().Context(), userID, usecase.FilterPlacesInput{
		ApplyFilters: true,
		Latitude:     req.Latitude,
		Longitude:    req.Longitude,
		Distance:     &req.Distance,
		Categories:   req.Categories,
		Rating:       req.Rating,
		Ordering:     req.Ordering,
		Search:       req.Search,
		Page:         page,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, map[string]any{
		"places":    toPlacePayloads(output.Places),
		"total":     output.Total,
		"page":      output.Page,
		"page_size": output.PageSize,
	}, "")
}

// openUploads opens every multipart file under the given form field.
func openUploads(c echo.Context, field string) ([]usecase.ImageUpload, func(), error) {
	form, err := c.MultipartForm()
	if err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			return nil, func() {}, nil
		}

		return nil, nil, errors.Wrap(err, "failed to parse multipart form")
	}

	var uploads []usecase.ImageUpload
	var closers []func()
	for _, fileHeader := range form.File[field] {
		upload, closeUpload, err := openUpload(fileHeader)
		if err != nil {
			for _, closer := range closers {
				closer()
			}

			return nil, nil, err
		}
		uploads = append(uploads, upload)
		closers = append(closers, closeUpload)
	}

	return uploads, func() {
		for _, closer := range closers {
			closer()
		}
	}, nil
}

func formFloat(c echo.Context, name string) (float64, error) {
	return strconv.ParseFloat(c.FormValue(name), 64)
}

func formFloatPtr(c echo.Context, name string) (*float64, error) {
	raw := formString(c, name)
	if raw == nil {
		return nil, nil
	}
	value, err := strconv.ParseFloat(*raw, 64)
	if err != nil {
		return nil, err
	}

	return &value, nil
}

func queryFloat(c echo.Context, name string) (float64, error) {
	return strconv.ParseFloat(c.QueryParam(name), 64)
}

func queryFloatPtr(c echo.Context, name string) (*float64, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, err
	}

	return &value, nil
}
