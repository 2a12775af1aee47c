package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/nft-bank-marketplace/internal/handler"
	"github.com/iliyamo/nft-bank-marketplace/internal/middleware"
)

// NFTDeps groups what the /api/nft routes need.  Cache and RateLimit may
// be nil, which disables them.
type NFTDeps struct {
	NFT         *handler.NFTHandler
	Marketplace *handler.MarketplaceHandler
	Status      *handler.StatusHandler
	Assets      *handler.AssetHandler
	JWTSecret   string
	Cache       echo.MiddlewareFunc
	RateLimit   echo.MiddlewareFunc
}

func optional(mw echo.MiddlewareFunc) []echo.MiddlewareFunc {
	if mw == nil {
		return nil
	}
	return []echo.MiddlewareFunc{mw}
}

// RegisterNFT registers the catalog, marketplace and asset endpoints.
// Public listings go through the response cache; every write goes through
// the rate limiter after JWT authentication so buckets are per user.
func RegisterNFT(e *echo.Echo, d NFTDeps) {
	pub := e.Group("/api/nft")
	pub.GET("/marketplace", d.Marketplace.Legacy, optional(d.Cache)...)
	pub.GET("/marketplace/v2", d.Marketplace.Search, optional(d.Cache)...)
	pub.GET("/server-status", d.Status.ServerStatus)

	auth := e.Group("/api/nft", middleware.JWTAuth(d.JWTSecret))
	auth.GET("/collections", d.NFT.Collections)
	auth.GET("/user", d.NFT.Gallery)
	auth.GET("/gallery", d.NFT.Gallery)
	auth.GET("/for-sale", d.NFT.ForSale)
	auth.GET("/daily-limit", d.NFT.DailyLimit)
	auth.GET("/:id/history", d.NFT.History)

	write := optional(d.RateLimit)
	auth.POST("/create", d.NFT.Create, write...)
	auth.POST("/generate", d.NFT.Generate, write...)
	auth.POST("/list-for-sale", d.NFT.ListForSale, write...)
	auth.POST("/remove-from-sale", d.NFT.RemoveFromSale, write...)
	auth.POST("/buy", d.NFT.Buy, write...)
	auth.POST("/gift", d.NFT.Gift, write...)
	auth.POST("/clear-all", d.NFT.ClearAll, write...)

	e.GET("/nft-proxy/:dir/*", d.Assets.Proxy)
	e.GET("/bayc_official/*", d.Assets.Redirect("bayc_official"))
	e.GET("/mutant_ape_nft/*", d.Assets.Redirect("mutant_ape_nft"))
}
