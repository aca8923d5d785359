package middleware

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	domainerrors "places/internal/domain/errors"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func handleError(t *testing.T, err error) (*httptest.ResponseRecorder, domainerrors.Response) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/places", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	m := NewErrorMiddleware(slog.New(slog.NewTextHandler(io.Discard, nil)))
	m.HandleHTTPError(err, c)

	var envelope domainerrors.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))

	return rec, envelope
}

func TestHandleHTTPError_AppErrorKeepsCodeAndMessage(t *testing.T) {
	rec, envelope := handleError(t, domainerrors.ErrPlaceOwnershipViolation)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.False(t, envelope.Success)
	assert.Equal(t, "PLACE_OWNERSHIP_VIOLATION", envelope.Error.Code)
}

func TestHandleHTTPError_WrappedAppErrorStillMatches(t *testing.T) {
	rec, envelope := handleError(t, errors.Wrap(domainerrors.ErrUserNotFound, "loading account"))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "USER_NOT_FOUND", envelope.Error.Code)
}

func TestHandleHTTPError_ValidationErrorCarriesFieldList(t *testing.T) {
	err := domainerrors.NewValidationError(
		domainerrors.FieldError{Field: "latitude", Message: "latitude must be within [-90, 90]"},
		domainerrors.FieldError{Field: "rating", Message: "rating must be within [0, 5]"},
	)

	rec, envelope := handleError(t, err)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_FAILED", envelope.Error.Code)
	require.Len(t, envelope.Error.Fields, 2)
	assert.Equal(t, "latitude", envelope.Error.Fields[0].Field)
}

func TestHandleHTTPError_UnknownErrorBecomesInternal(t *testing.T) {
	rec, envelope := handleError(t, errors.New("boom"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "INTERNAL_ERROR", envelope.Error.Code)
	// Internals must not leak to the client.
	assert.NotContains(t, rec.Body.String(), "boom")
}
