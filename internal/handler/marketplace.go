package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/nft-bank-marketplace/internal/catalog"
	"github.com/iliyamo/nft-bank-marketplace/internal/logger"
	"github.com/iliyamo/nft-bank-marketplace/internal/service"
)

// MarketplaceHandler serves the public listings.  Both endpoints are
// unauthenticated and sit behind the response cache.
type MarketplaceHandler struct {
	Svc *service.CatalogService
	Log *logger.Logger
}

func NewMarketplaceHandler(svc *service.CatalogService, log *logger.Logger) *MarketplaceHandler {
	return &MarketplaceHandler{Svc: svc, Log: log}
}

// Search answers GET /api/nft/marketplace/v2 with a filtered, sorted page.
func (h *MarketplaceHandler) Search(c echo.Context) error {
	q, err := catalog.ParseQuery(catalog.RawQuery{
		Page:       c.QueryParam("page"),
		Limit:      c.QueryParam("limit"),
		SortBy:     c.QueryParam("sortBy"),
		SortOrder:  c.QueryParam("sortOrder"),
		MinPrice:   c.QueryParam("minPrice"),
		MaxPrice:   c.QueryParam("maxPrice"),
		Rarity:     c.QueryParam("rarity"),
		Search:     c.QueryParam("search"),
		Collection: c.QueryParam("collection"),
	})
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": catalog.ErrInvalidFilter.Error(), "details": err.Error()})
	}
	page, err := h.Svc.Marketplace(c.Request().Context(), q)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, page)
}

// Legacy answers GET /api/nft/marketplace with the combined, deduplicated
// list of every NFT for sale.
func (h *MarketplaceHandler) Legacy(c echo.Context) error {
	items, err := h.Svc.LegacyListing(c.Request().Context())
	if err != nil {
		return writeError(c, h.Log, err)
	}
	if items == nil {
		items = []catalog.Item{}
	}
	return c.JSON(http.StatusOK, items)
}
