package handler

import (
	"log/slog"
	"net/http"

	"places/internal/delivery/http/response"
	"places/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// RecoveryHandler holds dependencies for the password recovery flow.
type RecoveryHandler struct {
	uc     usecase.RecoveryUsecase
	logger *slog.Logger
}

// NewRecoveryHandler is the constructor for RecoveryHandler, injected by Fx.
func NewRecoveryHandler(uc usecase.RecoveryUsecase, logger *slog.Logger) *RecoveryHandler {
	return &RecoveryHandler{uc: uc, logger: logger}
}

type sendCodeRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type confirmCodeRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required"`
}

type resetPasswordRequest struct {
	Email                string `json:"email" validate:"required,email"`
	SessionToken         string `json:"session_token" validate:"required"`
	NewPassword          string `json:"new_password" validate:"required"`
	ConfirmationPassword string `json:"confirmation_password" validate:"required"`
}

// SendCode mails a reset code to the account's address.
func (h *RecoveryHandler) SendCode(c echo.Context) error {
	var req sendCodeRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid recovery input")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	if err := h.uc.SendResetCode(c.Request().Context(), req.Email); err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, nil, "Reset code sent")
}

// ConfirmCode exchanges a valid reset code for a session token.
func (h *RecoveryHandler) ConfirmCode(c echo.Context) error {
	var req confirmCodeRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid recovery input")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	token, err := h.uc.ConfirmResetCode(c.Request().Context(), req.Email, req.Code)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, map[string]string{"session_token": token}, "Reset code confirmed")
}

// ResetPassword consumes the session token and commits the new password.
func (h *RecoveryHandler) ResetPassword(c echo.Context) error {
	var req resetPasswordRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid recovery input")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	err := h.uc.ResetPassword(c.Request().Context(), usecase.ResetPasswordInput{
		Email:                req.Email,
		SessionToken:         req.SessionToken,
		NewPassword:          req.NewPassword,
		ConfirmationPassword: req.ConfirmationPassword,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, nil, "Password reset successfully")
}
