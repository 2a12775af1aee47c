package service

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/nft-bank-marketplace/internal/address"
	"github.com/iliyamo/nft-bank-marketplace/internal/logger"
	"github.com/iliyamo/nft-bank-marketplace/internal/model"
	"github.com/iliyamo/nft-bank-marketplace/internal/repository"
)

func TestProvisionCreatesFiatAndCryptoCards(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	a := NewAccountService(repository.NewCardRepo(db), address.Generator{}, 50000, logger.Nop())

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO cards`).
		WithArgs(7, "fiat", "USD", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), "500.00", nil, nil, nil).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`INSERT INTO cards`).
		WithArgs(7, "crypto", "CRYPTO", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), "0.00",
			address.Generate(address.BTC, 7), address.Generate(address.ETH, 7), nil).
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	tx, err := db.Begin()
	require.NoError(t, err)
	cards, err := a.ProvisionTx(context.Background(), tx, 7)
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	require.Len(t, cards, 2)
	assert.Equal(t, model.CardTypeFiat, cards[0].Type)
	assert.Len(t, cards[0].Number, 16)
	assert.True(t, address.Validate(*cards[1].BTCAddress, address.BTC))
	assert.True(t, address.Validate(*cards[1].ETHAddress, address.ETH))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepairAddressesFixesInvalidOnly(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	a := NewAccountService(repository.NewCardRepo(db), address.Generator{}, 0, logger.Nop())
	goodBTC := address.Generate(address.BTC, 1)
	goodETH := address.Generate(address.ETH, 1)

	mock.ExpectQuery(`FROM cards WHERE type=\?`).WithArgs("crypto").WillReturnRows(
		sqlmock.NewRows(cardCols).
			AddRow(1, 1, "crypto", "CRYPTO", "5000000000000001", "01/29", "111", int64(0), "0", "0", goodBTC, goodETH, nil).
			AddRow(2, 2, "crypto", "CRYPTO", "5000000000000002", "01/29", "222", int64(0), "0", "0", "bc1_broken", goodETH, nil))
	mock.ExpectExec(`UPDATE cards SET btc_address=\?, eth_address=\?`).
		WithArgs(address.Generate(address.BTC, 2), goodETH, 2).
		WillReturnResult(sqlmock.NewResult(0, 1))

	rep, err := a.RepairAddresses(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, AddressRepair{Checked: 2, Repaired: 1}, rep)
	assert.NoError(t, mock.ExpectationsWereMet())
}
