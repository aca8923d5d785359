// Package router contains routing and server setup for the HTTP delivery.
package router

import (
	"places/internal/delivery/http/middleware"
	"places/internal/delivery/http/router/handler"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

type RouterParams struct {
	fx.In

	UserHandler     *handler.UserHandler
	ProfileHandler  *handler.ProfileHandler
	RecoveryHandler *handler.RecoveryHandler
	PlaceHandler    *handler.PlaceHandler
	AuthMiddleware  *middleware.AuthMiddleware
}

// router holds all the handlers that need to be registered.
type router struct {
	userHandler     *handler.UserHandler
	profileHandler  *handler.ProfileHandler
	recoveryHandler *handler.RecoveryHandler
	placeHandler    *handler.PlaceHandler
	authMiddleware  *middleware.AuthMiddleware
}

// NewRouter is the constructor for the Router.
// Fx will inject the required handlers here.
func NewRouter(params RouterParams) *router {
	return &router{
		userHandler:     params.UserHandler,
		profileHandler:  params.ProfileHandler,
		recoveryHandler: params.RecoveryHandler,
		placeHandler:    params.PlaceHandler,
		authMiddleware:  params.AuthMiddleware,
	}
}

// RegisterRoutes sets up all the API routes for the application.
func (r *router) RegisterRoutes(e *echo.Echo) {
	// Health check endpoint
	e.GET("/health", handler.HealthCheck)

	// Auth routes
	authGroup := e.Group("/auth")
	{
		authGroup.POST("/register", r.userHandler.Register)
		authGroup.POST("/login", r.userHandler.Login)
	}

	// Password recovery routes, reachable without a session
	recoveryGroup := e.Group("/recovery")
	{
		recoveryGroup.POST("/code", r.recoveryHandler.SendCode)
		recoveryGroup.POST("/confirm", r.recoveryHandler.ConfirmCode)
		recoveryGroup.POST("/password", r.recoveryHandler.ResetPassword)
	}

	// Account routes that require authentication
	userGroup := e.Group("/user")
	userGroup.Use(r.authMiddleware.Authenticate)
	{
		userGroup.GET("/profile", r.profileHandler.GetProfile)
		userGroup.PATCH("/profile", r.profileHandler.UpdateProfile)
		userGroup.GET("/homepage", r.profileHandler.Homepage)
		userGroup.PUT("/email", r.userHandler.ChangeEmail)
		userGroup.PUT("/password", r.userHandler.ChangePassword)
		userGroup.DELETE("", r.userHandler.DeleteAccount)
	}

	// Place routes that require authentication
	placeGroup := e.Group("/places")
	placeGroup.Use(r.authMiddleware.Authenticate)
	{
		placeGroup.POST("", r.placeHandler.Create)
		placeGroup.GET("", r.placeHandler.List)
		placeGroup.GET("/nearest", r.placeHandler.Nearest)
		placeGroup.GET("/search", r.placeHandler.Search)
		placeGroup.GET("/filter", r.placeHandler.Filter)
		placeGroup.POST("/filter", r.placeHandler.FilterFlat)
		placeGroup.GET("/category/:category", r.placeHandler.ByCategory)
		placeGroup.GET("/:id", r.placeHandler.Get)
		placeGroup.PATCH("/:id", r.placeHandler.Update)
		placeGroup.DELETE("/:id", r.placeHandler.Delete)
		placeGroup.PUT("/:id/images", r.placeHandler.UpdateImages)
	}
}
