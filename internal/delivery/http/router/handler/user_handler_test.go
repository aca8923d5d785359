package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"places/internal/delivery/http/validator"
	"places/internal/domain/entity"
	"places/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubUserUsecase struct {
	registerFn func(usecase.RegisterInput) (*usecase.AuthOutput, error)
	loginFn    func(usecase.LoginInput) (*usecase.AuthOutput, error)
}

func (s *stubUserUsecase) Register(_ context.Context, input usecase.RegisterInput) (*usecase.AuthOutput, error) {
	return s.registerFn(input)
}

func (s *stubUserUsecase) Login(_ context.Context, input usecase.LoginInput) (*usecase.AuthOutput, error) {
	return s.loginFn(input)
}

func (s *stubUserUsecase) ChangeEmail(_ context.Context, _ uuid.UUID, _ usecase.ChangeEmailInput) (*entity.User, error) {
	return nil, nil
}

func (s *stubUserUsecase) ChangePassword(_ context.Context, _ uuid.UUID, _ usecase.ChangePasswordInput) error {
	return nil
}

func (s *stubUserUsecase) DeleteAccount(_ context.Context, _ uuid.UUID) error {
	return nil
}

func newEcho() *echo.Echo {
	e := echo.New()
	e.Validator = validator.New()

	return e
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestUserHandler_Register(t *testing.T) {
	userID := uuid.New()
	uc := &stubUserUsecase{
		registerFn: func(input usecase.RegisterInput) (*usecase.AuthOutput, error) {
			assert.Equal(t, "alice@example.com", input.Email)

			return &usecase.AuthOutput{
				User:         &entity.User{ID: userID, Email: input.Email, PasswordHash: "secret-hash"},
				AccessToken:  "access",
				RefreshToken: "refresh",
			}, nil
		},
	}
	h := NewUserHandler(uc, discardLogger())

	e := newEcho()
	body := `{"email":"alice@example.com","password":"StrongPass1!","confirmation_password":"StrongPass1!"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, h.Register(c))
	assert.Equal(t, http.StatusCreated, rec.Code)

	var envelope map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, true, envelope["success"])

	// The credential hash must never leave the server.
	assert.NotContains(t, rec.Body.String(), "secret-hash")
	assert.Contains(t, rec.Body.String(), userID.String())
}

func TestUserHandler_Register_RejectsMalformedEmail(t *testing.T) {
	h := NewUserHandler(&stubUserUsecase{}, discardLogger())

	e := newEcho()
	body := `{"email":"not-an-email","password":"StrongPass1!","confirmation_password":"StrongPass1!"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.Register(c)
	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadRequest, httpErr.Code)
}

func TestUserHandler_Login(t *testing.T) {
	uc := &stubUserUsecase{
		loginFn: func(input usecase.LoginInput) (*usecase.AuthOutput, error) {
			return &usecase.AuthOutput{
				User:        &entity.User{ID: uuid.New(), Email: input.Email},
				AccessToken: "access", RefreshToken: "refresh",
			}, nil
		},
	}
	h := NewUserHandler(uc, discardLogger())

	e := newEcho()
	body := `{"email":"alice@example.com","password":"StrongPass1!"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, h.Login(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"access_token":"access"`)
}
