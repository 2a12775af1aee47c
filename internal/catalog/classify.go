// Package catalog holds the pure NFT rules shared by the service, the
// handlers and the admin CLI: classification, dedup keys, the attribute
// and name generator, the image picker and the marketplace projection.
package catalog

import (
	"strings"

	"github.com/iliyamo/nft-bank-marketplace/internal/model"
)

// Infer guesses the collection of an NFT from its free-text fields.  It
// is only used to backfill collection_kind on rows written before the
// column existed; reads always use the stored kind.
//
// "mutant" anywhere wins over "bored", so a mutated bored ape is kind B.
func Infer(fields ...string) model.CollectionKind {
	hay := strings.ToLower(strings.Join(fields, " "))
	switch {
	case strings.Contains(hay, "mutant"):
		return model.KindB
	case strings.Contains(hay, "bored"), strings.Contains(hay, "bayc"):
		return model.KindA
	}
	return model.KindNone
}

// InferNFT applies Infer to the name and both image paths of n.
func InferNFT(n model.NFT) model.CollectionKind {
	return Infer(n.Name, n.ImagePath, n.OriginalImagePath)
}
