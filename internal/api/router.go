package api

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	iauth "github.com/mwillfox/flowline/internal/auth"
	"github.com/mwillfox/flowline/internal/handlers"
	"github.com/mwillfox/flowline/internal/middleware"
	"github.com/mwillfox/flowline/internal/services"
)

// Deps carries the constructed service handles the router wires together.
type Deps struct {
	DB       *gorm.DB
	JWT      *iauth.JWTService
	Sessions *iauth.SessionIssuer
	Users    *services.UserService
	Invites  *services.InviteService
	Signup   *services.SignupService
}

// NewRouter builds the Gin engine, wires middleware and registers all routes.
func NewRouter(deps Deps) (*gin.Engine, error) {
	if deps.DB == nil {
		return nil, fmt.Errorf("database handle must be provided")
	}
	if deps.JWT == nil {
		return nil, fmt.Errorf("jwt service must be provided")
	}
	if deps.Sessions == nil {
		return nil, fmt.Errorf("session issuer must be provided")
	}
	if deps.Users == nil || deps.Invites == nil || deps.Signup == nil {
		return nil, fmt.Errorf("all services must be provided")
	}

	r := gin.New()

	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())

	r.GET("/health", handlers.Health(deps.DB))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authHandler := handlers.NewAuthHandler(deps.Users, deps.Sessions)
	userHandler := handlers.NewUserHandler(deps.Users, deps.Invites)
	signupHandler := handlers.NewSignupHandler(deps.Signup, deps.Sessions)

	// Public routes: login, signup-link resolution, and invite acceptance.
	// Acceptance is guest-only so a signed-in user cannot hijack an invite.
	public := r.Group("/api")
	{
		public.POST("/login", authHandler.Login)
		public.GET("/resolve-signup-token", signupHandler.ResolveToken)
		public.POST("/user",
			middleware.Guest(deps.JWT, services.ErrAlreadyAuthenticated),
			signupHandler.Accept)
	}

	// Authenticated routes.
	authed := r.Group("/api")
	authed.Use(middleware.Auth(deps.JWT))
	{
		authed.POST("/logout", authHandler.Logout)

		authed.POST("/users", userHandler.Invite)
		authed.GET("/users", userHandler.List)
		authed.GET("/users/:id", userHandler.Get)
		authed.DELETE("/users/:id", userHandler.Delete)
		authed.POST("/users/:id/reinvite", userHandler.Reinvite)
	}

	return r, nil
}
