package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/nft-bank-marketplace/internal/handler"
	"github.com/iliyamo/nft-bank-marketplace/internal/middleware"
	"github.com/iliyamo/nft-bank-marketplace/internal/model"
)

// RegisterAdmin registers maintenance endpoints for the REGULATOR role.
func RegisterAdmin(e *echo.Echo, h *handler.AdminHandler, jwtSecret string) {
	g := e.Group(
		"/api/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleRegulator),
	)
	g.POST("/backfill-kinds", h.BackfillKinds)
	g.POST("/consolidate-legacy", h.ConsolidateLegacy)
	g.POST("/repair-addresses", h.RepairAddresses)
}
