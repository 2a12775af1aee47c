package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Rarity is one of five ordered tiers.
type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityUncommon  Rarity = "uncommon"
	RarityRare      Rarity = "rare"
	RarityEpic      Rarity = "epic"
	RarityLegendary Rarity = "legendary"
)

// Rarities lists every tier from lowest to highest.
var Rarities = []Rarity{RarityCommon, RarityUncommon, RarityRare, RarityEpic, RarityLegendary}

// ErrInvalidRarity is returned by ParseRarity for unknown tiers.
var ErrInvalidRarity = errors.New("invalid rarity")

// ParseRarity accepts a tier name in any case.
func ParseRarity(s string) (Rarity, error) {
	r := Rarity(strings.ToLower(strings.TrimSpace(s)))
	if r.Rank() == 0 {
		return "", fmt.Errorf("%w: %q", ErrInvalidRarity, s)
	}
	return r, nil
}

// Rank is 1 for common through 5 for legendary, 0 for anything else.
func (r Rarity) Rank() int {
	for i, v := range Rarities {
		if v == r {
			return i + 1
		}
	}
	return 0
}

// CollectionKind is the stored classification of an NFT into one of the
// two marketplace collections.  Empty means the NFT belongs to neither.
type CollectionKind string

const (
	KindNone CollectionKind = ""
	KindA    CollectionKind = "A"
	KindB    CollectionKind = "B"
)

// ErrInvalidCollection is returned for an unknown collection filter.
var ErrInvalidCollection = errors.New("invalid collection")

// ParseCollectionKind accepts the kind letters as well as the public
// filter names "bored" and "mutant".
func ParseCollectionKind(s string) (CollectionKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "a", "bored":
		return KindA, nil
	case "b", "mutant":
		return KindB, nil
	}
	return KindNone, fmt.Errorf("%w: %q", ErrInvalidCollection, s)
}

// DisplayName is the collection name shown to clients.
func (k CollectionKind) DisplayName() string {
	switch k {
	case KindA:
		return "Bored Ape Yacht Club"
	case KindB:
		return "Mutant Ape Yacht Club"
	}
	return ""
}

// Attributes is the four-stat bag stored as JSON in nfts.attributes.
type Attributes struct {
	Power   int `json:"power"`
	Agility int `json:"agility"`
	Wisdom  int `json:"wisdom"`
	Luck    int `json:"luck"`
}

// Value implements driver.Valuer.
func (a Attributes) Value() (driver.Value, error) {
	b, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.  NULL leaves the zero value.
func (a *Attributes) Scan(src any) error {
	var b []byte
	switch v := src.(type) {
	case nil:
		*a = Attributes{}
		return nil
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("attributes: unsupported type %T", src)
	}
	if len(b) == 0 {
		*a = Attributes{}
		return nil
	}
	return json.Unmarshal(b, a)
}

// NFT mirrors a row of the `nfts` table.
type NFT struct {
	ID                uint64         `json:"id"`
	CollectionID      uint64         `json:"collectionId"`
	OwnerID           uint64         `json:"ownerId"`
	Name              string         `json:"name"`
	Description       string         `json:"description"`
	ImagePath         string         `json:"imagePath"`
	Attributes        Attributes     `json:"attributes"`
	Rarity            Rarity         `json:"rarity"`
	Price             string         `json:"price"`
	ForSale           bool           `json:"forSale"`
	MintedAt          time.Time      `json:"mintedAt"`
	TokenID           string         `json:"tokenId"`
	OriginalImagePath string         `json:"originalImagePath,omitempty"`
	SortOrder         *int           `json:"sortOrder,omitempty"`
	CollectionKind    CollectionKind `json:"collectionKind"`
}

// CollectionName derives the display name from the stored kind.
func (n NFT) CollectionName() string { return n.CollectionKind.DisplayName() }

// NFTCollection is a named grouping of NFTs owned by its creator.
type NFTCollection struct {
	ID          uint64    `json:"id"`
	UserID      uint64    `json:"userId"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CoverImage  string    `json:"coverImage"`
	CreatedAt   time.Time `json:"createdAt"`
	NFTs        []NFT     `json:"nfts"`
}

// Transfer kinds.
const (
	TransferSale = "sale"
	TransferGift = "gift"
)

// NFTTransfer is an immutable audit record of one ownership change.
type NFTTransfer struct {
	ID            uint64    `json:"id"`
	NFTID         uint64    `json:"nftId"`
	FromUserID    uint64    `json:"fromUserId"`
	ToUserID      uint64    `json:"toUserId"`
	TransferType  string    `json:"transferType"`
	Price         string    `json:"price"`
	TransferredAt time.Time `json:"transferredAt"`
	FromUsername  string    `json:"fromUsername,omitempty"`
	ToUsername    string    `json:"toUsername,omitempty"`
}

// LegacyNFT is a row of the older `nft` table that predates `nfts`.  Only
// the consolidation command reads it.
type LegacyNFT struct {
	ID                uint64
	TokenID           string
	CollectionID      *uint64
	Name              string
	Description       string
	ImageURL          string
	OriginalImagePath string
	Price             string
	ForSale           bool
	OwnerID           uint64
	CreatorID         *uint64
	CollectionName    string
	MintedAt          *time.Time
}
