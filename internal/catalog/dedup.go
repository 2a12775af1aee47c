package catalog

import (
	"strconv"
	"strings"

	"github.com/iliyamo/nft-bank-marketplace/internal/model"
)

// LegacyTokenPrefix is prepended to bare legacy token ids so they line up
// with the ids minted by the current service.
const LegacyTokenPrefix = "BAYC-"

// Key is the composite dedup key of a current NFT row.
func Key(tokenID string, collectionID uint64) string {
	return tokenID + "-" + strconv.FormatUint(collectionID, 10)
}

// LegacyKey is the dedup key of a legacy row.  A missing collection id
// counts as collection 1.
func LegacyKey(tokenID string, collectionID *uint64) string {
	cid := uint64(1)
	if collectionID != nil && *collectionID != 0 {
		cid = *collectionID
	}
	return Key(LegacyTokenID(tokenID), cid)
}

// LegacyTokenID adds LegacyTokenPrefix unless the id already carries it.
func LegacyTokenID(tokenID string) string {
	if strings.HasPrefix(tokenID, LegacyTokenPrefix) {
		return tokenID
	}
	return LegacyTokenPrefix + tokenID
}

// Dedup keeps the first NFT seen for every composite key, preserving order.
func Dedup(nfts []model.NFT) []model.NFT {
	seen := make(map[string]struct{}, len(nfts))
	out := make([]model.NFT, 0, len(nfts))
	for _, n := range nfts {
		k := Key(n.TokenID, n.CollectionID)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, n)
	}
	return out
}
