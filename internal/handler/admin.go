package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/nft-bank-marketplace/internal/logger"
	"github.com/iliyamo/nft-bank-marketplace/internal/service"
)

// AdminHandler exposes maintenance tasks to regulators.  The same tasks
// are available from the nftadmin command.
type AdminHandler struct {
	Catalog  *service.CatalogService
	Accounts *service.AccountService
	Log      *logger.Logger
}

func NewAdminHandler(cat *service.CatalogService, acc *service.AccountService, log *logger.Logger) *AdminHandler {
	return &AdminHandler{Catalog: cat, Accounts: acc, Log: log}
}

func dryRun(c echo.Context) bool {
	v := c.QueryParam("dryRun")
	return v == "1" || v == "true"
}

// BackfillKinds classifies NFTs whose collection kind is still empty.
func (h *AdminHandler) BackfillKinds(c echo.Context) error {
	n, err := h.Catalog.BackfillKinds(c.Request().Context(), dryRun(c))
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "updated": n, "dryRun": dryRun(c)})
}

func (h *AdminHandler) ConsolidateLegacy(c echo.Context) error {
	res, err := h.Catalog.ConsolidateLegacy(c.Request().Context())
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success":  true,
		"scanned":  res.Scanned,
		"imported": res.Imported,
		"skipped":  res.Skipped,
	})
}

// RepairAddresses regenerates crypto card addresses that fail validation.
func (h *AdminHandler) RepairAddresses(c echo.Context) error {
	res, err := h.Accounts.RepairAddresses(c.Request().Context(), dryRun(c))
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success":  true,
		"checked":  res.Checked,
		"repaired": res.Repaired,
		"dryRun":   dryRun(c),
	})
}
