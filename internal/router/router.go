package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/nft-bank-marketplace/internal/handler"
	"github.com/iliyamo/nft-bank-marketplace/internal/metrics"
	"github.com/iliyamo/nft-bank-marketplace/internal/middleware"
)

// RegisterRoutes registers the unauthenticated operational endpoints.
func RegisterRoutes(e *echo.Echo, ready echo.HandlerFunc) {
	e.GET("/healthz", handler.Health)
	if ready != nil {
		e.GET("/readyz", ready)
	}
	e.GET("/metrics", metrics.Handler())
}

// RegisterAuth registers registration, login and token rotation under
// /api/auth plus the bearer-only /api/me.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/api/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	// logout accepts either a refresh token in the body or a bearer token
	g.POST("/logout", a.Logout)

	e.GET("/api/me", a.Me, middleware.JWTAuth(jwtSecret))
}
