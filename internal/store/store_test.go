package store

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowledger/crypto-tracker/internal/domain"
)

func testTransaction(nativeID string, timestamp time.Time) domain.Transaction {
	return domain.Transaction{
		ID:          domain.NewTxID(domain.SourceBlockchain, nativeID),
		NativeID:    nativeID,
		Timestamp:   timestamp,
		Type:        domain.TxTypeDeposit,
		Source:      domain.SourceBlockchain,
		Currency:    "ETH",
		Amount:      decimal.RequireFromString("1.5"),
		Fee:         decimal.RequireFromString("0.001"),
		FeeCurrency: "ETH",
		Status:      domain.TxStatusConfirmed,
		Raw:         []byte(`{"hash":"` + nativeID + `"}`),
	}
}

func TestPGStore_CreateAndGet(t *testing.T) {
	cleanupTestDB(t)
	st := NewPGStore(testDB)
	ctx := context.Background()

	tx := testTransaction("0xabc", time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC))
	inserted, err := st.CreateTransaction(ctx, &tx)
	require.NoError(t, err)
	assert.True(t, inserted)

	stored, err := st.GetTransactionByID(ctx, tx.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, tx.ID, stored.ID)
	assert.Equal(t, tx.NativeID, stored.NativeID)
	assert.Equal(t, tx.Type, stored.Type)
	assert.Equal(t, tx.Source, stored.Source)
	assert.Equal(t, tx.Currency, stored.Currency)
	assert.True(t, tx.Amount.Equal(stored.Amount), "amount %s != %s", tx.Amount, stored.Amount)
	assert.True(t, tx.Fee.Equal(stored.Fee))
	assert.Equal(t, tx.Status, stored.Status)
	assert.True(t, tx.Timestamp.Equal(stored.Timestamp))
	assert.JSONEq(t, string(tx.Raw), string(stored.Raw))
	assert.Nil(t, stored.ParentID)
}

func TestPGStore_CreateDuplicate(t *testing.T) {
	cleanupTestDB(t)
	st := NewPGStore(testDB)
	ctx := context.Background()

	tx := testTransaction("0xabc", time.Now().UTC())
	inserted, err := st.CreateTransaction(ctx, &tx)
	require.NoError(t, err)
	assert.True(t, inserted)

	// same id again is a quiet no-op, not an error
	again := testTransaction("0xabc", time.Now().UTC())
	inserted, err = st.CreateTransaction(ctx, &again)
	require.NoError(t, err)
	assert.False(t, inserted)

	count, err := st.CountTransactions(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestPGStore_CreateInvalid(t *testing.T) {
	cleanupTestDB(t)
	st := NewPGStore(testDB)

	tx := testTransaction("0xabc", time.Now().UTC())
	tx.Amount = decimal.RequireFromString("-1")
	_, err := st.CreateTransaction(context.Background(), &tx)
	assert.Error(t, err)
}

func TestPGStore_GetMissing(t *testing.T) {
	cleanupTestDB(t)
	st := NewPGStore(testDB)

	stored, err := st.GetTransactionByID(context.Background(), "blockchain:0xmissing")
	require.NoError(t, err)
	assert.Nil(t, stored)
}

func TestPGStore_GetBySourceNativeID(t *testing.T) {
	cleanupTestDB(t)
	st := NewPGStore(testDB)
	ctx := context.Background()

	tx := testTransaction("0xabc", time.Now().UTC())
	_, err := st.CreateTransaction(ctx, &tx)
	require.NoError(t, err)

	stored, err := st.GetTransactionBySourceNativeID(ctx, domain.SourceBlockchain, "0xabc")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, tx.ID, stored.ID)

	stored, err = st.GetTransactionBySourceNativeID(ctx, domain.SourceCoinbase, "0xabc")
	require.NoError(t, err)
	assert.Nil(t, stored)
}

func TestPGStore_UpdateStatus(t *testing.T) {
	cleanupTestDB(t)
	st := NewPGStore(testDB)
	ctx := context.Background()

	tx := testTransaction("0xabc", time.Now().UTC())
	tx.Status = domain.TxStatusPending
	_, err := st.CreateTransaction(ctx, &tx)
	require.NoError(t, err)

	require.NoError(t, st.UpdateTransactionStatus(ctx, tx.ID, domain.TxStatusConfirmed))

	stored, err := st.GetTransactionByID(ctx, tx.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, domain.TxStatusConfirmed, stored.Status)

	err = st.UpdateTransactionStatus(ctx, "blockchain:0xmissing", domain.TxStatusConfirmed)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPGStore_SetParent(t *testing.T) {
	cleanupTestDB(t)
	st := NewPGStore(testDB)
	ctx := context.Background()

	parent := testTransaction("0xparent", time.Now().UTC().Add(-time.Hour))
	child := testTransaction("0xchild", time.Now().UTC())
	_, err := st.CreateTransaction(ctx, &parent)
	require.NoError(t, err)
	_, err = st.CreateTransaction(ctx, &child)
	require.NoError(t, err)

	require.NoError(t, st.SetTransactionParent(ctx, child.ID, parent.ID))

	stored, err := st.GetTransactionByID(ctx, child.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	require.NotNil(t, stored.ParentID)
	assert.Equal(t, parent.ID, *stored.ParentID)

	err = st.SetTransactionParent(ctx, "blockchain:0xmissing", parent.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPGStore_ListTransactions(t *testing.T) {
	cleanupTestDB(t)
	st := NewPGStore(testDB)
	ctx := context.Background()

	base := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

	older := testTransaction("0xolder", base.Add(-2*time.Hour))
	newer := testTransaction("0xnewer", base)
	withdrawal := testTransaction("0xout", base.Add(-time.Hour))
	withdrawal.Type = domain.TxTypeWithdrawal
	withdrawal.Currency = "USDC"
	withdrawal.Source = domain.SourceDEX
	withdrawal.ID = domain.NewTxID(domain.SourceDEX, "0xout")

	for _, tx := range []*domain.Transaction{&older, &newer, &withdrawal} {
		_, err := st.CreateTransaction(ctx, tx)
		require.NoError(t, err)
	}

	// newest first
	all, err := st.ListTransactions(ctx, ListFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, newer.ID, all[0].ID)
	assert.Equal(t, withdrawal.ID, all[1].ID)
	assert.Equal(t, older.ID, all[2].ID)

	byCurrency, err := st.ListTransactions(ctx, ListFilter{Currency: "USDC"})
	require.NoError(t, err)
	require.Len(t, byCurrency, 1)
	assert.Equal(t, withdrawal.ID, byCurrency[0].ID)

	bySource, err := st.ListTransactions(ctx, ListFilter{Source: domain.SourceBlockchain})
	require.NoError(t, err)
	assert.Len(t, bySource, 2)

	byType, err := st.ListTransactions(ctx, ListFilter{Type: domain.TxTypeWithdrawal})
	require.NoError(t, err)
	assert.Len(t, byType, 1)

	since := base.Add(-90 * time.Minute)
	recent, err := st.ListTransactions(ctx, ListFilter{Since: &since})
	require.NoError(t, err)
	assert.Len(t, recent, 2)

	limited, err := st.ListTransactions(ctx, ListFilter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestPGStore_CountTransactions(t *testing.T) {
	cleanupTestDB(t)
	st := NewPGStore(testDB)
	ctx := context.Background()

	count, err := st.CountTransactions(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 0, count)

	tx := testTransaction("0xabc", time.Now().UTC())
	_, err = st.CreateTransaction(ctx, &tx)
	require.NoError(t, err)

	count, err = st.CountTransactions(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}
