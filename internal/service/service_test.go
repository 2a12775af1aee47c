package service

import (
	"context"
	"database/sql/driver"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/nft-bank-marketplace/internal/catalog"
	"github.com/iliyamo/nft-bank-marketplace/internal/config"
	"github.com/iliyamo/nft-bank-marketplace/internal/logger"
	"github.com/iliyamo/nft-bank-marketplace/internal/model"
	"github.com/iliyamo/nft-bank-marketplace/internal/queue"
	"github.com/iliyamo/nft-bank-marketplace/internal/repository"
)

var fixedNow = time.Date(2024, time.May, 10, 9, 30, 0, 0, time.UTC)

var (
	nftCols  = []string{"id", "collection_id", "owner_id", "name", "description", "image_path", "attributes", "rarity", "price", "for_sale", "minted_at", "token_id", "original_image_path", "sort_order", "collection_kind"}
	userCols = []string{"id", "username", "password_hash", "is_regulator", "regulator_balance", "last_nft_generation", "nft_generation_count", "created_at"}
	cardCols = []string{"id", "user_id", "type", "currency", "number", "expiry", "cvv", "balance", "btc_balance", "eth_balance", "btc_address", "eth_address", "ton_address"}
)

func newTestService(t *testing.T) (*CatalogService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	cfg := config.NFTConfig{
		CreationCostCents:     1000,
		CommissionBasisPoints: 100,
		DefaultListPriceCents: 1000,
		TreasuryUsername:      "admin",
		LegacyListingLimit:    500,
	}
	s := NewCatalogService(db, cfg, catalog.ImagePicker{}, nil, logger.Nop())
	s.Gen = catalog.Generator{Rand: rand.New(rand.NewPCG(7, 7)), Now: func() time.Time { return fixedNow }}
	s.Now = func() time.Time { return fixedNow }
	return s, mock
}

func nftValues(id, owner uint64, price string, forSale bool, kind model.CollectionKind) []driver.Value {
	return []driver.Value{id, uint64(1), owner, "Cool Bored Ape #7", "desc", "/bored_ape_nft/1.png",
		[]byte(`{"power":30,"agility":20,"wisdom":25,"luck":40}`), "uncommon", price, forSale, fixedNow,
		"BAYC-1-1", "", nil, string(kind)}
}

func nftRows(id, owner uint64, price string, forSale bool) *sqlmock.Rows {
	return sqlmock.NewRows(nftCols).AddRow(nftValues(id, owner, price, forSale, model.KindA)...)
}

func userRow(id uint64, name string) *sqlmock.Rows {
	return sqlmock.NewRows(userCols).AddRow(id, name, "hash", name == "admin", "0.00", nil, int64(0), fixedNow)
}

func fiatCard(id, user uint64, cents int64) []driver.Value {
	return []driver.Value{id, user, "fiat", "USD", "4000000000000000", "01/29", "123", cents, "0", "0", nil, nil, nil}
}

const lockNFT = `SELECT .* FROM nfts n WHERE n.id=\? FOR UPDATE`

func TestCommission(t *testing.T) {
	assert.Equal(t, int64(25), Commission(2500, 100))
	assert.Equal(t, int64(11), Commission(1050, 100))
	assert.Equal(t, int64(0), Commission(0, 100))
	assert.Equal(t, int64(0), Commission(2500, 0))
}

func TestListForSaleDefaultsPrice(t *testing.T) {
	s, mock := newTestService(t)
	mock.ExpectBegin()
	mock.ExpectQuery(lockNFT).WithArgs(5).WillReturnRows(nftRows(5, 1, "0", false))
	mock.ExpectExec(`UPDATE nfts SET for_sale=\?, price=\? WHERE id=\?`).
		WithArgs(true, "10.00", 5).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	n, err := s.ListForSale(context.Background(), 5, 1, nil)
	require.NoError(t, err)
	assert.True(t, n.ForSale)
	assert.Equal(t, "10.00", n.Price)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListForSaleByNonOwnerIsForbidden(t *testing.T) {
	s, mock := newTestService(t)
	mock.ExpectBegin()
	mock.ExpectQuery(lockNFT).WithArgs(5).WillReturnRows(nftRows(5, 1, "0", false))
	mock.ExpectRollback()

	price := 25.0
	_, err := s.ListForSale(context.Background(), 5, 2, &price)
	assert.ErrorIs(t, err, repository.ErrForbidden)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListForSaleRejectsNonPositivePrice(t *testing.T) {
	s, mock := newTestService(t)
	zero := 0.0
	_, err := s.ListForSale(context.Background(), 5, 1, &zero)
	assert.ErrorIs(t, err, ErrInvalidPrice)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListForSaleMissingNFT(t *testing.T) {
	s, mock := newTestService(t)
	mock.ExpectBegin()
	mock.ExpectQuery(lockNFT).WithArgs(404).WillReturnRows(sqlmock.NewRows(nftCols))
	mock.ExpectRollback()

	_, err := s.ListForSale(context.Background(), 404, 1, nil)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelSaleIsIdempotent(t *testing.T) {
	s, mock := newTestService(t)
	mock.ExpectBegin()
	mock.ExpectQuery(lockNFT).WithArgs(5).WillReturnRows(nftRows(5, 1, "25.00", false))
	mock.ExpectCommit()

	n, err := s.CancelSale(context.Background(), 5, 1)
	require.NoError(t, err)
	assert.False(t, n.ForSale)
	assert.Equal(t, "25.00", n.Price)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelSaleKeepsPrice(t *testing.T) {
	s, mock := newTestService(t)
	mock.ExpectBegin()
	mock.ExpectQuery(lockNFT).WithArgs(5).WillReturnRows(nftRows(5, 1, "25.00", true))
	mock.ExpectExec(`UPDATE nfts SET for_sale=\?, price=\?`).WithArgs(false, "25.00", 5).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	n, err := s.CancelSale(context.Background(), 5, 1)
	require.NoError(t, err)
	assert.False(t, n.ForSale)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func expectSaleSettlement(mock sqlmock.Sqlmock, buyerBalance int64) {
	mock.ExpectBegin()
	mock.ExpectQuery(lockNFT).WithArgs(5).WillReturnRows(nftRows(5, 1, "25.00", true))
	mock.ExpectQuery(`FROM users WHERE username=\?`).WithArgs("admin").WillReturnRows(userRow(99, "admin"))
	mock.ExpectQuery(`FROM cards WHERE type=\? AND user_id IN \(\?,\?,\?\) ORDER BY id FOR UPDATE`).
		WithArgs("fiat", 2, 1, 99).
		WillReturnRows(sqlmock.NewRows(cardCols).
			AddRow(fiatCard(10, 1, 0)...).
			AddRow(fiatCard(20, 2, buyerBalance)...).
			AddRow(fiatCard(90, 99, 0)...))
}

func TestBuyMovesMoneyAndOwnership(t *testing.T) {
	s, mock := newTestService(t)
	expectSaleSettlement(mock, 10000)
	mock.ExpectExec(`UPDATE cards SET balance`).WithArgs("-25.00", 20).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE cards SET balance`).WithArgs("24.75", 10).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO transactions`).
		WithArgs(20, 10, "24.75", "24.75", model.TxNFTPurchase, "completed", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`UPDATE cards SET balance`).WithArgs("0.25", 90).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO transactions`).
		WithArgs(20, 90, "0.25", "0.25", model.TxNFTCommission, "completed", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectExec(`UPDATE nfts SET owner_id=\?, for_sale=0, price=\?`).WithArgs(2, "0", 5).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO nft_transfers`).WithArgs(5, 1, 2, "sale", "25.00", fixedNow).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	n, err := s.Buy(context.Background(), 5, 2)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), n.OwnerID)
	assert.False(t, n.ForSale)
	assert.Equal(t, "0", n.Price)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBuyInsufficientFunds(t *testing.T) {
	s, mock := newTestService(t)
	expectSaleSettlement(mock, 100)
	mock.ExpectRollback()

	_, err := s.Buy(context.Background(), 5, 2)
	assert.ErrorIs(t, err, ErrInsufficientFunds)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBuyRejections(t *testing.T) {
	cases := []struct {
		name    string
		rows    *sqlmock.Rows
		buyer   uint64
		wantErr error
	}{
		{"not for sale", nftRows(5, 1, "25.00", false), 2, ErrNotForSale},
		{"own nft", nftRows(5, 2, "25.00", true), 2, ErrOwnNFT},
		{"zero price", nftRows(5, 1, "0", true), 2, ErrInvalidPrice},
		{"missing", sqlmock.NewRows(nftCols), 2, repository.ErrNotFound},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			s, mock := newTestService(t)
			mock.ExpectBegin()
			mock.ExpectQuery(lockNFT).WithArgs(5).WillReturnRows(c.rows)
			mock.ExpectRollback()

			_, err := s.Buy(context.Background(), 5, c.buyer)
			assert.ErrorIs(t, err, c.wantErr)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestBuyWithoutTreasury(t *testing.T) {
	s, mock := newTestService(t)
	mock.ExpectBegin()
	mock.ExpectQuery(lockNFT).WithArgs(5).WillReturnRows(nftRows(5, 1, "25.00", true))
	mock.ExpectQuery(`FROM users WHERE username=\?`).WithArgs("admin").WillReturnRows(sqlmock.NewRows(userCols))
	mock.ExpectRollback()

	_, err := s.Buy(context.Background(), 5, 2)
	assert.ErrorIs(t, err, ErrTreasuryMissing)
	assert.NoError(t, mock.ExpectationsWereMet())
}

type capturePublisher struct{ events []queue.NFTTransferredEvent }

func (c *capturePublisher) PublishTransferred(_ context.Context, ev queue.NFTTransferredEvent) error {
	c.events = append(c.events, ev)
	return nil
}

func TestGiftTransfersAndPublishes(t *testing.T) {
	s, mock := newTestService(t)
	pub := &capturePublisher{}
	s.Events = pub

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM users WHERE username=\?`).WithArgs("carol").WillReturnRows(userRow(3, "carol"))
	mock.ExpectQuery(lockNFT).WithArgs(5).WillReturnRows(nftRows(5, 1, "25.00", false))
	mock.ExpectExec(`UPDATE nfts SET owner_id=\?`).WithArgs(3, "25.00", 5).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO nft_transfers`).WithArgs(5, 1, 3, "gift", "0", fixedNow).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()
	mock.ExpectQuery(`SELECT id, username FROM users WHERE id IN`).WithArgs(1, 3).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username"}).AddRow(1, "alice").AddRow(3, "carol"))

	n, err := s.Gift(context.Background(), 5, 1, "carol")
	require.NoError(t, err)
	assert.Equal(t, uint64(3), n.OwnerID)
	require.Len(t, pub.events, 1)
	assert.Equal(t, "gift", pub.events[0].TransferType)
	assert.Equal(t, "alice", pub.events[0].FromUsername)
	assert.Equal(t, "carol", pub.events[0].ToUsername)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGiftRejections(t *testing.T) {
	t.Run("self", func(t *testing.T) {
		s, mock := newTestService(t)
		mock.ExpectBegin()
		mock.ExpectQuery(`FROM users WHERE username=\?`).WithArgs("alice").WillReturnRows(userRow(1, "alice"))
		mock.ExpectRollback()
		_, err := s.Gift(context.Background(), 5, 1, "alice")
		assert.ErrorIs(t, err, ErrSelfGift)
	})
	t.Run("unknown recipient", func(t *testing.T) {
		s, mock := newTestService(t)
		mock.ExpectBegin()
		mock.ExpectQuery(`FROM users WHERE username=\?`).WithArgs("ghost").WillReturnRows(sqlmock.NewRows(userCols))
		mock.ExpectRollback()
		_, err := s.Gift(context.Background(), 5, 1, "ghost")
		assert.ErrorIs(t, err, ErrRecipientNotFound)
	})
	t.Run("listed", func(t *testing.T) {
		s, mock := newTestService(t)
		mock.ExpectBegin()
		mock.ExpectQuery(`FROM users WHERE username=\?`).WithArgs("carol").WillReturnRows(userRow(3, "carol"))
		mock.ExpectQuery(lockNFT).WithArgs(5).WillReturnRows(nftRows(5, 1, "25.00", true))
		mock.ExpectRollback()
		_, err := s.Gift(context.Background(), 5, 1, "carol")
		assert.ErrorIs(t, err, ErrListedGift)
	})
	t.Run("not owner", func(t *testing.T) {
		s, mock := newTestService(t)
		mock.ExpectBegin()
		mock.ExpectQuery(`FROM users WHERE username=\?`).WithArgs("carol").WillReturnRows(userRow(3, "carol"))
		mock.ExpectQuery(lockNFT).WithArgs(5).WillReturnRows(nftRows(5, 1, "0", false))
		mock.ExpectRollback()
		_, err := s.Gift(context.Background(), 5, 2, "carol")
		assert.ErrorIs(t, err, repository.ErrForbidden)
	})
}

func TestHistoryResolvesUsernames(t *testing.T) {
	s, mock := newTestService(t)
	mock.ExpectQuery(`FROM nfts n WHERE n.id=\?`).WithArgs(5).WillReturnRows(nftRows(5, 2, "0", false))
	mock.ExpectQuery(`FROM nft_transfers t`).WithArgs(5).WillReturnRows(
		sqlmock.NewRows([]string{"id", "nft_id", "from_user_id", "to_user_id", "transfer_type", "price", "transferred_at", "from", "to"}).
			AddRow(1, 5, 1, 2, "sale", "25.00", fixedNow, "alice", "bob"))

	h, err := s.History(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, h, 1)
	assert.Equal(t, "sale", h[0].TransferType)
	assert.Equal(t, "25.00", h[0].Price)
	assert.Equal(t, "alice", h[0].FromUsername)
	assert.Equal(t, "bob", h[0].ToUsername)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGenerateChargesFee(t *testing.T) {
	s, mock := newTestService(t)
	mock.ExpectQuery(`SELECT DISTINCT image_path FROM nfts`).WillReturnRows(sqlmock.NewRows([]string{"image_path"}))
	mock.ExpectBegin()
	mock.ExpectQuery(`FROM users WHERE id=\? LIMIT 1 FOR UPDATE`).WithArgs(2).WillReturnRows(userRow(2, "bob"))
	mock.ExpectQuery(`FROM users WHERE username=\?`).WithArgs("admin").WillReturnRows(userRow(99, "admin"))
	mock.ExpectQuery(`FROM cards WHERE type=\? AND user_id IN`).WithArgs("fiat", 2, 99).
		WillReturnRows(sqlmock.NewRows(cardCols).AddRow(fiatCard(20, 2, 5000)...).AddRow(fiatCard(90, 99, 0)...))
	mock.ExpectExec(`UPDATE cards SET balance`).WithArgs("-10.00", 20).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE cards SET balance`).WithArgs("10.00", 90).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO transactions`).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery(`SELECT id FROM nft_collections`).WithArgs(2, "Mutant Ape Yacht Club").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectExec(`INSERT INTO nft_collections`).WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectExec(`INSERT INTO nfts`).WillReturnResult(sqlmock.NewResult(42, 1))
	mock.ExpectExec(`UPDATE users SET last_nft_generation=\?, nft_generation_count=\?`).
		WithArgs(fixedNow, 1, 2).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	n, err := s.Generate(context.Background(), 2, MintInput{Rarity: "epic", Kind: model.KindB})
	require.NoError(t, err)
	assert.Equal(t, uint64(42), n.ID)
	assert.Equal(t, uint64(7), n.CollectionID)
	assert.Equal(t, model.RarityEpic, n.Rarity)
	assert.Equal(t, model.KindB, n.CollectionKind)
	assert.False(t, n.ForSale)
	assert.Equal(t, "/public/assets/nft/fallback/epic_nft.png", n.ImagePath)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGenerateRespectsDailyLimit(t *testing.T) {
	s, mock := newTestService(t)
	s.Cfg.DailyLimit = 1
	earlier := fixedNow.Add(-time.Hour)

	mock.ExpectQuery(`SELECT DISTINCT image_path FROM nfts`).WillReturnRows(sqlmock.NewRows([]string{"image_path"}))
	mock.ExpectBegin()
	mock.ExpectQuery(`FROM users WHERE id=\? LIMIT 1 FOR UPDATE`).WithArgs(2).WillReturnRows(
		sqlmock.NewRows(userCols).AddRow(2, "bob", "hash", false, "0.00", earlier, int64(1), fixedNow))
	mock.ExpectRollback()

	_, err := s.Generate(context.Background(), 2, MintInput{})
	assert.ErrorIs(t, err, ErrDailyLimit)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGenerateRejectsUnknownRarity(t *testing.T) {
	s, mock := newTestService(t)
	_, err := s.Generate(context.Background(), 2, MintInput{Rarity: "mythic"})
	assert.ErrorIs(t, err, ErrInvalidRarity)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDailyLimitStatus(t *testing.T) {
	s, mock := newTestService(t)
	s.Cfg.DailyLimit = 3
	yesterday := fixedNow.Add(-24 * time.Hour)
	mock.ExpectQuery(`FROM users WHERE id=\?`).WithArgs(2).WillReturnRows(
		sqlmock.NewRows(userCols).AddRow(2, "bob", "hash", false, "0.00", yesterday, int64(3), fixedNow))

	st, err := s.DailyLimit(context.Background(), 2)
	require.NoError(t, err)
	assert.True(t, st.CanGenerate)
	assert.Equal(t, 3, st.Remaining)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDailyLimitUnknownUser(t *testing.T) {
	s, mock := newTestService(t)
	mock.ExpectQuery(`FROM users WHERE id=\?`).WithArgs(99).WillReturnRows(sqlmock.NewRows(userCols))

	_, err := s.DailyLimit(context.Background(), 99)
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.NotErrorIs(t, err, repository.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarketplaceMutantDesc(t *testing.T) {
	s, mock := newTestService(t)
	q, err := catalog.ParseQuery(catalog.RawQuery{Collection: "mutant", SortOrder: "desc"})
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM nfts n WHERE n.for_sale = 1 AND n.collection_kind IN \('A','B'\) AND n.collection_kind = \?`).
		WithArgs("B").WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(1)))
	row := append(nftValues(8, 4, "40.00", true, model.KindB), "dave")
	mock.ExpectQuery(`ORDER BY CAST\(n.price AS DECIMAL\(18,2\)\) DESC, n.id ASC\s+LIMIT \? OFFSET \?`).
		WithArgs("B", 50, 0).WillReturnRows(sqlmock.NewRows(append(append([]string{}, nftCols...), "username")).AddRow(row...))

	page, err := s.Marketplace(context.Background(), q)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Mutant Ape Yacht Club", page.Items[0].CollectionName)
	assert.Equal(t, "dave", page.Items[0].Owner.Username)
	assert.Equal(t, int64(1), page.Pagination.TotalPages)
	assert.Equal(t, "mutant", page.Filters.Collection)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClearAllReturnsCount(t *testing.T) {
	s, mock := newTestService(t)
	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM nft_transfers`).WithArgs(2, 2, 2).WillReturnResult(sqlmock.NewResult(0, 4))
	mock.ExpectExec(`DELETE FROM nfts WHERE owner_id=\?`).WithArgs(2).WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	n, err := s.ClearAll(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBackfillKinds(t *testing.T) {
	s, mock := newTestService(t)
	rows := sqlmock.NewRows(nftCols).
		AddRow(nftValues(1, 1, "0", false, model.KindNone)...).
		AddRow(2, 1, 1, "Serum Mutant #2", "", "/mutant_ape_nft/2.png", nil, "rare", "0", false, fixedNow, "T2", "", nil, "").
		AddRow(3, 1, 1, "Pixel Cat", "", "/cats/3.png", nil, "rare", "0", false, fixedNow, "T3", "", nil, "")
	mock.ExpectQuery(`WHERE n.collection_kind=''`).WillReturnRows(rows)
	mock.ExpectExec(`UPDATE nfts SET collection_kind=\?`).WithArgs("A", 1).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE nfts SET collection_kind=\?`).WithArgs("B", 2).WillReturnResult(sqlmock.NewResult(0, 1))

	n, err := s.BackfillKinds(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConsolidateLegacy(t *testing.T) {
	s, mock := newTestService(t)
	mock.ExpectQuery(`SELECT token_id, CAST\(collection_id AS CHAR\) FROM nfts`).
		WillReturnRows(sqlmock.NewRows([]string{"token_id", "collection_id"}).AddRow("BAYC-100", "1"))
	legacyCols := []string{"id", "token_id", "collection_id", "name", "description", "image_url", "original_image_path", "price", "for_sale", "owner_id", "creator_id", "collection_name", "minted_at"}
	mock.ExpectQuery(`FROM nft ORDER BY id`).WillReturnRows(sqlmock.NewRows(legacyCols).
		AddRow(1, "100", nil, "Bored Ape #100", "", "/bored_ape_nft/100.png", "", "5", true, 4, nil, "", nil).
		AddRow(2, "200", nil, "Mutant Ape #200", "", "/mutant_ape_nft/200.png", "", "7.5", true, 4, nil, "", nil))

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM nft WHERE id=\?`).WithArgs(1).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id FROM nft_collections`).WithArgs(4, "Mutant Ape Yacht Club").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(11))
	mock.ExpectExec(`INSERT INTO nfts`).WillReturnResult(sqlmock.NewResult(50, 1))
	mock.ExpectExec(`DELETE FROM nft WHERE id=\?`).WithArgs(2).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	rep, err := s.ConsolidateLegacy(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Consolidation{Scanned: 2, Imported: 1, Skipped: 1}, rep)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLegacyListingDedups(t *testing.T) {
	s, mock := newTestService(t)
	mock.ExpectQuery(`WHERE n.for_sale=1 AND n.collection_kind IN \('A','B'\)`).WithArgs(500).
		WillReturnRows(sqlmock.NewRows(nftCols).
			AddRow(nftValues(1, 4, "5.00", true, model.KindA)...).
			AddRow(nftValues(2, 4, "6.00", true, model.KindA)...))
	mock.ExpectQuery(`SELECT id, username FROM users WHERE id IN`).WithArgs(4).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username"}).AddRow(4, "erin"))

	items, err := s.LegacyListing(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, uint64(1), items[0].ID)
	assert.Equal(t, "erin", items[0].Owner.Username)
	assert.NoError(t, mock.ExpectationsWereMet())
}
