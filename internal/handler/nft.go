package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/nft-bank-marketplace/internal/logger"
	"github.com/iliyamo/nft-bank-marketplace/internal/model"
	"github.com/iliyamo/nft-bank-marketplace/internal/service"
)

// NFTHandler exposes the catalog operations of the authenticated user.
// Invalidate, when set, runs after every successful ownership or listing
// change.
type NFTHandler struct {
	Svc        *service.CatalogService
	Log        *logger.Logger
	Invalidate func(ctx context.Context)
}

func NewNFTHandler(svc *service.CatalogService, log *logger.Logger, invalidate func(ctx context.Context)) *NFTHandler {
	return &NFTHandler{Svc: svc, Log: log, Invalidate: invalidate}
}

type mintReq struct {
	Rarity     string     `json:"rarity"`
	Collection string     `json:"collection"`
	Price      *flexPrice `json:"price"`
}

type listReq struct {
	NFTID uint64     `json:"nftId"`
	Price *flexPrice `json:"price"`
}

type nftReq struct {
	NFTID uint64 `json:"nftId"`
}

type giftReq struct {
	NFTID             uint64 `json:"nftId"`
	RecipientUsername string `json:"recipientUsername"`
}

func (h *NFTHandler) changed(c echo.Context) {
	if h.Invalidate != nil {
		h.Invalidate(c.Request().Context())
	}
}

func nftOK(c echo.Context, status int, n model.NFT) error {
	return c.JSON(status, echo.Map{"success": true, "nft": n})
}

// bindMint reads a mint body.  The returned message is non-empty when the
// body is rejected.
func bindMint(c echo.Context) (service.MintInput, string) {
	var req mintReq
	if err := c.Bind(&req); err != nil {
		return service.MintInput{}, bindMessage(err)
	}
	in := service.MintInput{Rarity: req.Rarity}
	if strings.TrimSpace(req.Collection) != "" {
		kind, err := model.ParseCollectionKind(req.Collection)
		if err != nil {
			return in, "collection must be bored or mutant"
		}
		in.Kind = kind
	}
	if req.Price != nil {
		if req.Price.Value < 0 {
			return in, service.ErrInvalidPrice.Error()
		}
		in.PriceCents = model.CentsFromFloat(req.Price.Value)
	}
	return in, ""
}

// Create mints an NFT for the caller free of charge.
func (h *NFTHandler) Create(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	in, msg := bindMint(c)
	if msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	n, err := h.Svc.Create(c.Request().Context(), uid, in)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	if n.ForSale {
		h.changed(c)
	}
	return nftOK(c, http.StatusCreated, n)
}

// Generate mints an NFT after charging the creation fee.
func (h *NFTHandler) Generate(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	in, msg := bindMint(c)
	if msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	n, err := h.Svc.Generate(c.Request().Context(), uid, in)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	if n.ForSale {
		h.changed(c)
	}
	return nftOK(c, http.StatusCreated, n)
}

func (h *NFTHandler) DailyLimit(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	st, err := h.Svc.DailyLimit(c.Request().Context(), uid)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, st)
}

// ListForSale puts the caller's NFT on the market; the price is optional.
func (h *NFTHandler) ListForSale(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req listReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": bindMessage(err)})
	}
	if req.NFTID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "nftId is required"})
	}
	var price *float64
	if req.Price != nil {
		price = &req.Price.Value
	}
	n, err := h.Svc.ListForSale(c.Request().Context(), req.NFTID, uid, price)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	h.changed(c)
	return nftOK(c, http.StatusOK, n)
}

func (h *NFTHandler) RemoveFromSale(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req nftReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": bindMessage(err)})
	}
	if req.NFTID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "nftId is required"})
	}
	n, err := h.Svc.CancelSale(c.Request().Context(), req.NFTID, uid)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	h.changed(c)
	return nftOK(c, http.StatusOK, n)
}

// Buy settles a purchase from the caller's fiat card.
func (h *NFTHandler) Buy(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req nftReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": bindMessage(err)})
	}
	if req.NFTID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "nftId is required"})
	}
	n, err := h.Svc.Buy(c.Request().Context(), req.NFTID, uid)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	h.changed(c)
	return nftOK(c, http.StatusOK, n)
}

func (h *NFTHandler) Gift(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req giftReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": bindMessage(err)})
	}
	if req.NFTID == 0 || strings.TrimSpace(req.RecipientUsername) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "nftId and recipientUsername are required"})
	}
	n, err := h.Svc.Gift(c.Request().Context(), req.NFTID, uid, req.RecipientUsername)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	h.changed(c)
	return nftOK(c, http.StatusOK, n)
}

// ClearAll deletes every NFT owned by the caller along with its transfers.
func (h *NFTHandler) ClearAll(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	n, err := h.Svc.ClearAll(c.Request().Context(), uid)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	h.changed(c)
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "All your NFTs were deleted",
		"count":   n,
	})
}

func (h *NFTHandler) History(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	hist, err := h.Svc.History(c.Request().Context(), id)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	if hist == nil {
		hist = []model.NFTTransfer{}
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "history": hist})
}

// Gallery lists the caller's NFTs.
func (h *NFTHandler) Gallery(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	nfts, err := h.Svc.UserNFTs(c.Request().Context(), uid)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, nonNil(nfts))
}

// ForSale lists what other users are selling.
func (h *NFTHandler) ForSale(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	nfts, err := h.Svc.NFTsForSale(c.Request().Context(), uid)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, nonNil(nfts))
}

func (h *NFTHandler) Collections(c echo.Context) error {
	cols, err := h.Svc.Collections(c.Request().Context())
	if err != nil {
		return writeError(c, h.Log, err)
	}
	if cols == nil {
		cols = []model.NFTCollection{}
	}
	return c.JSON(http.StatusOK, cols)
}

func nonNil(n []model.NFT) []model.NFT {
	if n == nil {
		return []model.NFT{}
	}
	return n
}
