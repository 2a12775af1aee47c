package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRarity(t *testing.T) {
	r, err := ParseRarity(" Legendary ")
	require.NoError(t, err)
	assert.Equal(t, RarityLegendary, r)
	assert.Equal(t, 5, r.Rank())
	assert.Equal(t, 1, RarityCommon.Rank())

	_, err = ParseRarity("mythic")
	assert.ErrorIs(t, err, ErrInvalidRarity)
	assert.Zero(t, Rarity("mythic").Rank())
}

func TestParseCollectionKind(t *testing.T) {
	for in, want := range map[string]CollectionKind{"bored": KindA, "A": KindA, "MUTANT": KindB, "b": KindB} {
		k, err := ParseCollectionKind(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, k, in)
	}
	_, err := ParseCollectionKind("punks")
	assert.ErrorIs(t, err, ErrInvalidCollection)

	assert.Equal(t, "Bored Ape Yacht Club", KindA.DisplayName())
	assert.Equal(t, "Mutant Ape Yacht Club", NFT{CollectionKind: KindB}.CollectionName())
	assert.Empty(t, KindNone.DisplayName())
}

func TestCents(t *testing.T) {
	cases := map[string]int64{"": 0, "10": 1000, "12.5": 1250, " 99.99 ": 9999}
	for in, want := range cases {
		got, err := ParseCents(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	for _, bad := range []string{"abc", "NaN", "Inf"} {
		_, err := ParseCents(bad)
		assert.ErrorIs(t, err, ErrInvalidAmount, bad)
	}

	assert.Equal(t, "25.00", FormatCents(2500))
	assert.Equal(t, "0.05", FormatCents(5))
	assert.Equal(t, "-3.10", FormatCents(-310))
	assert.Equal(t, int64(1099), CentsFromFloat(10.99))
}

func TestAttributesScan(t *testing.T) {
	var a Attributes
	require.NoError(t, a.Scan([]byte(`{"power":1,"agility":2,"wisdom":3,"luck":4}`)))
	assert.Equal(t, Attributes{Power: 1, Agility: 2, Wisdom: 3, Luck: 4}, a)

	require.NoError(t, a.Scan(nil))
	assert.Equal(t, Attributes{}, a)

	require.NoError(t, a.Scan(`{"luck":9}`))
	assert.Equal(t, 9, a.Luck)

	assert.Error(t, a.Scan(42))

	v, err := Attributes{Power: 5}.Value()
	require.NoError(t, err)
	assert.JSONEq(t, `{"power":5,"agility":0,"wisdom":0,"luck":0}`, v.(string))
}

func TestUserRole(t *testing.T) {
	assert.Equal(t, RoleRegulator, User{IsRegulator: true}.Role())
	assert.Equal(t, RoleUser, User{}.Role())
}
