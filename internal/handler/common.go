package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/nft-bank-marketplace/internal/catalog"
	"github.com/iliyamo/nft-bank-marketplace/internal/logger"
	"github.com/iliyamo/nft-bank-marketplace/internal/middleware"
	"github.com/iliyamo/nft-bank-marketplace/internal/model"
	"github.com/iliyamo/nft-bank-marketplace/internal/repository"
	"github.com/iliyamo/nft-bank-marketplace/internal/service"
)

var errNoUser = errors.New("invalid user_id in context")

// getUserID extracts the authenticated user id set by JWTAuth.
func getUserID(c echo.Context) (uint64, error) {
	if id, ok := middleware.UserID(c); ok {
		return id, nil
	}
	return 0, errNoUser
}

// badRequest lists errors that are the client's fault.
var badRequest = []error{
	service.ErrNotForSale,
	service.ErrOwnNFT,
	service.ErrInvalidPrice,
	service.ErrInsufficientFunds,
	service.ErrNoFiatCard,
	service.ErrSelfGift,
	service.ErrListedGift,
	service.ErrInvalidRarity,
	service.ErrDailyLimit,
	catalog.ErrInvalidFilter,
	model.ErrInvalidAmount,
}

// writeError maps service and repository errors onto the JSON error
// taxonomy.  Anything unrecognized is logged and reported as a generic 500.
func writeError(c echo.Context, log *logger.Logger, err error) error {
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	case errors.Is(err, repository.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "NFT not found"})
	case errors.Is(err, service.ErrRecipientNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "recipient not found"})
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "you do not own this NFT"})
	}
	for _, e := range badRequest {
		if errors.Is(err, e) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": e.Error(), "details": err.Error()})
		}
	}
	log.Errorw("request failed", "path", c.Path(), "err", err)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
}

// bindMessage explains why a request body could not be bound.
func bindMessage(err error) string {
	if errors.Is(err, model.ErrInvalidAmount) {
		return "price must be a number"
	}
	return "invalid body"
}

// parseID reads a positive integer path parameter.
func parseID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	return id, err == nil && id > 0
}

// flexPrice accepts a JSON number or a numeric string.
type flexPrice struct {
	Value float64
}

func (p *flexPrice) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		return nil
	}
	var f float64
	if err := json.Unmarshal([]byte(s), &f); err != nil {
		return model.ErrInvalidAmount
	}
	p.Value = f
	return nil
}
