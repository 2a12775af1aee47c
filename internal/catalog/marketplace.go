package catalog

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/iliyamo/nft-bank-marketplace/internal/model"
	"github.com/iliyamo/nft-bank-marketplace/internal/repository"
)

// Marketplace paging defaults.
const (
	DefaultPage      = 1
	DefaultLimit     = 50
	MaxLimit         = 100
	MaxPage          = math.MaxInt32
	DefaultSortBy    = "price"
	DefaultSortOrder = "asc"
)

// ErrInvalidFilter wraps every rejected marketplace query parameter.
var ErrInvalidFilter = errors.New("invalid marketplace filter")

// RawQuery carries the untouched query-string values of a marketplace
// request.
type RawQuery struct {
	Page       string
	Limit      string
	SortBy     string
	SortOrder  string
	MinPrice   string
	MaxPrice   string
	Rarity     string
	Search     string
	Collection string
}

// ParseQuery validates and normalizes a marketplace request.  Unparseable
// page/limit fall back to defaults and both are capped; a bad price,
// rarity or collection is an error.
func ParseQuery(raw RawQuery) (repository.MarketplaceQuery, error) {
	q := repository.MarketplaceQuery{
		Page:      DefaultPage,
		Limit:     DefaultLimit,
		SortBy:    DefaultSortBy,
		SortOrder: DefaultSortOrder,
		Search:    strings.TrimSpace(raw.Search),
	}

	if p, err := strconv.Atoi(strings.TrimSpace(raw.Page)); err == nil && p > 0 {
		q.Page = min(p, MaxPage)
	}
	if l, err := strconv.Atoi(strings.TrimSpace(raw.Limit)); err == nil && l > 0 {
		q.Limit = min(l, MaxLimit)
	}
	if s := strings.ToLower(strings.TrimSpace(raw.SortBy)); s != "" {
		q.SortBy = s
	}
	if strings.EqualFold(strings.TrimSpace(raw.SortOrder), "desc") {
		q.SortOrder = "desc"
	}

	var err error
	if q.MinPrice, err = parsePrice("minPrice", raw.MinPrice); err != nil {
		return q, err
	}
	if q.MaxPrice, err = parsePrice("maxPrice", raw.MaxPrice); err != nil {
		return q, err
	}
	if r := strings.TrimSpace(raw.Rarity); r != "" {
		if q.Rarity, err = model.ParseRarity(r); err != nil {
			return q, fmt.Errorf("%w: %w", ErrInvalidFilter, err)
		}
	}
	if c := strings.TrimSpace(raw.Collection); c != "" {
		if q.Collection, err = model.ParseCollectionKind(c); err != nil {
			return q, fmt.Errorf("%w: %w", ErrInvalidFilter, err)
		}
	}
	return q, nil
}

func parsePrice(name, s string) (*float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return nil, fmt.Errorf("%w: %s must be a non-negative number", ErrInvalidFilter, name)
	}
	return &f, nil
}

// Owner is the public identity attached to a listed item.
type Owner struct {
	ID       uint64 `json:"id"`
	Username string `json:"username"`
}

// Item is one NFT as rendered by the marketplace endpoints.
type Item struct {
	ID             uint64           `json:"id"`
	TokenID        string           `json:"tokenId"`
	Name           string           `json:"name"`
	Description    string           `json:"description"`
	ImagePath      string           `json:"imagePath"`
	Price          string           `json:"price"`
	ForSale        bool             `json:"forSale"`
	OwnerID        uint64           `json:"ownerId"`
	CreatorID      uint64           `json:"creatorId"`
	CollectionID   uint64           `json:"collectionId"`
	CollectionName string           `json:"collectionName"`
	Rarity         model.Rarity     `json:"rarity"`
	Attributes     model.Attributes `json:"attributes"`
	MintedAt       time.Time        `json:"mintedAt"`
	Owner          Owner            `json:"owner"`
}

// Pagination describes the current page window.
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalItems int64 `json:"totalItems"`
	TotalPages int64 `json:"totalPages"`
}

// Filters echoes the normalized query back to the client.
type Filters struct {
	SortBy     string   `json:"sortBy"`
	SortOrder  string   `json:"sortOrder"`
	MinPrice   *float64 `json:"minPrice"`
	MaxPrice   *float64 `json:"maxPrice"`
	Rarity     string   `json:"rarity"`
	Search     string   `json:"search"`
	Collection string   `json:"collection"`
}

// Page is the full marketplace response body.
type Page struct {
	Items      []Item     `json:"items"`
	Pagination Pagination `json:"pagination"`
	Filters    Filters    `json:"filters"`
}

// TotalPages is ceil(total/limit); zero when limit is not positive.
func TotalPages(total int64, limit int) int64 {
	if limit <= 0 || total <= 0 {
		return 0
	}
	l := int64(limit)
	return (total + l - 1) / l
}

// NewItem projects an NFT row.  The creator of a minted NFT is its first
// owner, which the collection records.
func NewItem(n model.NFT, ownerUsername string) Item {
	return Item{
		ID:             n.ID,
		TokenID:        n.TokenID,
		Name:           n.Name,
		Description:    n.Description,
		ImagePath:      n.ImagePath,
		Price:          n.Price,
		ForSale:        n.ForSale,
		OwnerID:        n.OwnerID,
		CreatorID:      n.OwnerID,
		CollectionID:   n.CollectionID,
		CollectionName: n.CollectionName(),
		Rarity:         n.Rarity,
		Attributes:     n.Attributes,
		MintedAt:       n.MintedAt,
		Owner:          Owner{ID: n.OwnerID, Username: ownerUsername},
	}
}

// BuildPage assembles the response for a search result.
func BuildPage(q repository.MarketplaceQuery, rows []repository.MarketplaceRow, total int64) Page {
	items := make([]Item, 0, len(rows))
	for _, r := range rows {
		items = append(items, NewItem(r.NFT, r.OwnerUsername))
	}
	return Page{
		Items: items,
		Pagination: Pagination{
			Page:       q.Page,
			Limit:      q.Limit,
			TotalItems: total,
			TotalPages: TotalPages(total, q.Limit),
		},
		Filters: Filters{
			SortBy:     q.SortBy,
			SortOrder:  q.SortOrder,
			MinPrice:   q.MinPrice,
			MaxPrice:   q.MaxPrice,
			Rarity:     string(q.Rarity),
			Search:     q.Search,
			Collection: collectionFilterName(q.Collection),
		},
	}
}

func collectionFilterName(k model.CollectionKind) string {
	switch k {
	case model.KindA:
		return "bored"
	case model.KindB:
		return "mutant"
	}
	return ""
}
