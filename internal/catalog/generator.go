package catalog

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/iliyamo/nft-bank-marketplace/internal/model"
)

var (
	attributeBase     = map[model.Rarity]float64{model.RarityCommon: 10, model.RarityUncommon: 25, model.RarityRare: 50, model.RarityEpic: 75, model.RarityLegendary: 90}
	attributeVariance = map[model.Rarity]float64{model.RarityCommon: 20, model.RarityUncommon: 30, model.RarityRare: 40, model.RarityEpic: 20, model.RarityLegendary: 10}

	namePrefixes = map[model.Rarity][]string{
		model.RarityCommon:    {"Classic", "Standard", "Regular"},
		model.RarityUncommon:  {"Cool", "Stylish", "Trendy"},
		model.RarityRare:      {"Rare", "Premium", "Advanced"},
		model.RarityEpic:      {"Epic", "Superior", "Elite"},
		model.RarityLegendary: {"Legendary", "Unique", "Ultimate"},
	}

	nameTypes = map[model.CollectionKind][]string{
		model.KindA: {"Bored Ape", "Yacht Club Ape", "BAYC Token", "Crypto Ape"},
		model.KindB: {"Mutant Ape", "MAYC Token", "Serum Ape", "Mutant Crypto Ape"},
	}

	descriptions = map[model.Rarity][]string{
		model.RarityCommon: {
			"A standard ape from the %s collection.",
			"A common digital asset featuring an ape design.",
			"A basic token from the popular %s collection.",
		},
		model.RarityUncommon: {
			"An uncommon digital ape with special characteristics.",
			"A trendy %s token with enhanced properties.",
			"A stylish digital asset with unique ape design.",
		},
		model.RarityRare: {
			"A valuable collectible ape from the limited %s series.",
			"A rare digital asset with high attributes.",
			"An exclusive ape from the premium %s collection.",
		},
		model.RarityEpic: {
			"An epic ape with exceptional properties and design.",
			"A superior %s token available only to a select few.",
			"An extraordinary digital asset with special value.",
		},
		model.RarityLegendary: {
			"A legendary item from the ultra-rare %s collection.",
			"A unique digital ape with maximum attributes.",
			"The ultimate %s token, the pinnacle of the collection.",
		},
	}
)

// Generator rolls the random parts of a new NFT.  Tests pass a seeded
// source; production uses the global one.
type Generator struct {
	Rand *rand.Rand
	Now  func() time.Time
}

func (g Generator) intN(n int) int {
	if g.Rand != nil {
		return g.Rand.IntN(n)
	}
	return rand.IntN(n)
}

func (g Generator) float() float64 {
	if g.Rand != nil {
		return g.Rand.Float64()
	}
	return rand.Float64()
}

func (g Generator) now() time.Time {
	if g.Now != nil {
		return g.Now()
	}
	return time.Now()
}

// Rarity picks a tier uniformly.
func (g Generator) Rarity() model.Rarity {
	return model.Rarities[g.intN(len(model.Rarities))]
}

// Attributes rolls the four stats as base ± variance, clamped to 1..100.
func (g Generator) Attributes(r model.Rarity) model.Attributes {
	roll := func() int {
		v := int(attributeBase[r] + (g.float()*2-1)*attributeVariance[r])
		return min(100, max(1, v))
	}
	return model.Attributes{Power: roll(), Agility: roll(), Wisdom: roll(), Luck: roll()}
}

// Name builds "<prefix> <type> #N".
func (g Generator) Name(r model.Rarity, kind model.CollectionKind) string {
	prefixes := namePrefixes[r]
	types := nameTypes[kind]
	if len(types) == 0 {
		types = nameTypes[model.KindA]
	}
	return fmt.Sprintf("%s %s #%d", prefixes[g.intN(len(prefixes))], types[g.intN(len(types))], g.intN(10000))
}

// Description picks a rarity blurb and stamps the creation date as M/D/YYYY.
func (g Generator) Description(r model.Rarity, kind model.CollectionKind) string {
	choices := descriptions[r]
	text := choices[g.intN(len(choices))]
	name := kind.DisplayName()
	if name == "" {
		name = model.KindA.DisplayName()
	}
	if strings.Contains(text, "%s") {
		text = fmt.Sprintf(text, name)
	}
	t := g.now()
	return fmt.Sprintf("%s Created: %d/%d/%d", text, int(t.Month()), t.Day(), t.Year())
}

// TokenID returns BAYC-<unix ms>-<0..999999>.
func (g Generator) TokenID() string {
	return fmt.Sprintf("BAYC-%d-%d", g.now().UnixMilli(), g.intN(1000000))
}
