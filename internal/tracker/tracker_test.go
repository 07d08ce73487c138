package tracker_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowledger/crypto-tracker/internal/domain"
	"github.com/flowledger/crypto-tracker/internal/mocks"
	"github.com/flowledger/crypto-tracker/internal/providers/coinbase"
	"github.com/flowledger/crypto-tracker/internal/providers/etherscan"
	"github.com/flowledger/crypto-tracker/internal/registry"
	"github.com/flowledger/crypto-tracker/internal/store"
	"github.com/flowledger/crypto-tracker/internal/tracker"
)

const testAddress = "0x1111111111111111111111111111111111111111"

func etherscanPayload(t *testing.T, entry etherscan.Transaction) domain.RawPayload {
	t.Helper()
	data, err := json.Marshal(entry)
	require.NoError(t, err)
	return domain.RawPayload{Source: domain.SourceBlockchain, Ref: entry.Hash, Data: data}
}

func coinbasePayload(t *testing.T, entry coinbase.Transaction) domain.RawPayload {
	t.Helper()
	data, err := json.Marshal(entry)
	require.NoError(t, err)
	return domain.RawPayload{Source: domain.SourceCoinbase, Ref: entry.ID, Data: data}
}

func externalTx(hash, value string) etherscan.Transaction {
	return etherscan.Transaction{
		Hash:            hash,
		TimeStamp:       "1710504000",
		From:            "0x2222222222222222222222222222222222222222",
		To:              testAddress,
		Value:           value,
		TxReceiptStatus: "1",
	}
}

func TestTracker_TrackAddress(t *testing.T) {
	st := mocks.NewMemoryStore()
	connector := &mocks.EtherscanClient{
		Payloads: []domain.RawPayload{
			etherscanPayload(t, externalTx("0xaaa", "1500000000000000000")),
			etherscanPayload(t, externalTx("0xbbb", "250000000000000000")),
		},
	}
	svc := tracker.New(st, connector, nil, nil, registry.NewDefaultDEXRegistry())

	result, err := svc.TrackAddress(context.Background(), testAddress)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Inserted)
	assert.Equal(t, 0, result.Duplicates)
	assert.Empty(t, result.Errors)
	assert.Equal(t, []string{testAddress}, connector.Addresses)

	count, err := st.CountTransactions(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)
}

func TestTracker_TrackAddress_Idempotent(t *testing.T) {
	st := mocks.NewMemoryStore()
	connector := &mocks.EtherscanClient{
		Payloads: []domain.RawPayload{
			etherscanPayload(t, externalTx("0xaaa", "1500000000000000000")),
		},
	}
	svc := tracker.New(st, connector, nil, nil, registry.NewDefaultDEXRegistry())
	ctx := context.Background()

	first, err := svc.TrackAddress(ctx, testAddress)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Inserted)

	second, err := svc.TrackAddress(ctx, testAddress)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Inserted)
	assert.Equal(t, 1, second.Duplicates)

	count, err := st.CountTransactions(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestTracker_TrackAddress_InvalidAddress(t *testing.T) {
	svc := tracker.New(mocks.NewMemoryStore(), &mocks.EtherscanClient{}, nil, nil, nil)

	_, err := svc.TrackAddress(context.Background(), "not-an-address")
	assert.Error(t, err)
}

func TestTracker_TrackAddress_NoConnector(t *testing.T) {
	svc := tracker.New(mocks.NewMemoryStore(), nil, nil, nil, nil)

	_, err := svc.TrackAddress(context.Background(), testAddress)
	assert.Error(t, err)
}

func TestTracker_TrackAddress_UpstreamError(t *testing.T) {
	connector := &mocks.EtherscanClient{Err: domain.ErrUpstreamUnavailable}
	svc := tracker.New(mocks.NewMemoryStore(), connector, nil, nil, nil)

	_, err := svc.TrackAddress(context.Background(), testAddress)
	assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
}

func TestTracker_TrackCoinbase_PartialFailure(t *testing.T) {
	st := mocks.NewMemoryStore()
	connector := &mocks.CoinbaseClient{
		Payloads: []domain.RawPayload{
			coinbasePayload(t, coinbase.Transaction{
				ID:        "tx-1",
				Type:      "buy",
				Status:    "completed",
				Amount:    coinbase.Money{Amount: "0.05", Currency: "BTC"},
				CreatedAt: "2024-03-15T12:00:00Z",
			}),
			// unmapped type code: reported, not fatal
			coinbasePayload(t, coinbase.Transaction{
				ID:        "tx-2",
				Type:      "staking_reward",
				Status:    "completed",
				Amount:    coinbase.Money{Amount: "0.01", Currency: "ETH"},
				CreatedAt: "2024-03-15T12:00:00Z",
			}),
			coinbasePayload(t, coinbase.Transaction{
				ID:        "tx-3",
				Type:      "send",
				Status:    "completed",
				Amount:    coinbase.Money{Amount: "-1.5", Currency: "ETH"},
				CreatedAt: "2024-03-15T12:00:00Z",
			}),
		},
	}
	svc := tracker.New(st, nil, connector, nil, nil)

	result, err := svc.TrackCoinbase(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, result.Inserted)
	assert.Equal(t, 0, result.Duplicates)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "tx-2", result.Errors[0].Ref)
	assert.Contains(t, result.Errors[0].Reason, "staking_reward")

	count, err := st.CountTransactions(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)
}

func TestTracker_TrackTransaction(t *testing.T) {
	st := mocks.NewMemoryStore()
	payload := etherscanPayload(t, externalTx("0xccc", "1000000000000000000"))
	node := &mocks.EthereumClient{Payload: &payload}
	svc := tracker.New(st, nil, nil, node, nil)

	result, err := svc.TrackTransaction(context.Background(), testAddress, "0xccc")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Inserted)

	tx, err := svc.Get(context.Background(), domain.NewTxID(domain.SourceBlockchain, "0xccc"))
	require.NoError(t, err)
	assert.Equal(t, "1", tx.Amount.String())
}

func TestTracker_GetNotFound(t *testing.T) {
	svc := tracker.New(mocks.NewMemoryStore(), nil, nil, nil, nil)

	_, err := svc.Get(context.Background(), domain.NewTxID(domain.SourceBlockchain, "0xmissing"))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTracker_ListFilters(t *testing.T) {
	st := mocks.NewMemoryStore()
	connector := &mocks.EtherscanClient{
		Payloads: []domain.RawPayload{
			etherscanPayload(t, externalTx("0xaaa", "1500000000000000000")),
			etherscanPayload(t, externalTx("0xbbb", "250000000000000000")),
		},
	}
	svc := tracker.New(st, connector, nil, nil, nil)
	ctx := context.Background()

	_, err := svc.TrackAddress(ctx, testAddress)
	require.NoError(t, err)

	all, err := svc.List(ctx, store.ListFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	none, err := svc.List(ctx, store.ListFilter{Currency: "BTC"})
	require.NoError(t, err)
	assert.Empty(t, none)

	limited, err := svc.List(ctx, store.ListFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestTracker_LinkAndChain(t *testing.T) {
	st := mocks.NewMemoryStore()
	connector := &mocks.EtherscanClient{
		Payloads: []domain.RawPayload{
			etherscanPayload(t, externalTx("0xaaa", "1500000000000000000")),
			etherscanPayload(t, externalTx("0xbbb", "250000000000000000")),
		},
	}
	svc := tracker.New(st, connector, nil, nil, nil)
	ctx := context.Background()

	_, err := svc.TrackAddress(ctx, testAddress)
	require.NoError(t, err)

	parentID := domain.NewTxID(domain.SourceBlockchain, "0xaaa")
	childID := domain.NewTxID(domain.SourceBlockchain, "0xbbb")
	require.NoError(t, svc.Link(ctx, parentID, childID))

	chain, err := svc.Chain(ctx, childID)
	require.NoError(t, err)
	require.Len(t, chain, 2)
	assert.Equal(t, parentID, chain[0].ID)
	assert.Equal(t, childID, chain[1].ID)
}
