package domain_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowledger/crypto-tracker/internal/domain"
)

func TestNewTxID(t *testing.T) {
	tests := []struct {
		name     string
		source   domain.Source
		nativeID string
		expected domain.TxID
	}{
		{
			name:     "blockchain hash",
			source:   domain.SourceBlockchain,
			nativeID: "0xabc123",
			expected: domain.TxID("blockchain:0xabc123"),
		},
		{
			name:     "coinbase uuid",
			source:   domain.SourceCoinbase,
			nativeID: "2bbf394c-193b-5b2a-9155-3b4732659ede",
			expected: domain.TxID("coinbase:2bbf394c-193b-5b2a-9155-3b4732659ede"),
		},
		{
			name:     "fragment suffix for expanded events",
			source:   domain.SourceDEX,
			nativeID: "0xabc123#in",
			expected: domain.TxID("dex:0xabc123#in"),
		},
		{
			name:     "whitespace trimmed",
			source:   domain.SourceBlockchain,
			nativeID: "  0xabc123  ",
			expected: domain.TxID("blockchain:0xabc123"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, domain.NewTxID(tt.source, tt.nativeID))
		})
	}
}

func TestNewTxID_Deterministic(t *testing.T) {
	a := domain.NewTxID(domain.SourceBlockchain, "0xabc123")
	b := domain.NewTxID(domain.SourceBlockchain, "0xabc123")
	assert.Equal(t, a, b)
}

func TestTxID_Parse(t *testing.T) {
	source, nativeID := domain.TxID("blockchain:0xabc123").Parse()
	assert.Equal(t, domain.SourceBlockchain, source)
	assert.Equal(t, "0xabc123", nativeID)

	// native ids may contain further colons
	source, nativeID = domain.TxID("coinbase:a:b:c").Parse()
	assert.Equal(t, domain.SourceCoinbase, source)
	assert.Equal(t, "a:b:c", nativeID)

	source, nativeID = domain.TxID("no-separator").Parse()
	assert.Empty(t, source)
	assert.Empty(t, nativeID)
}

func TestTxID_Valid(t *testing.T) {
	assert.True(t, domain.TxID("blockchain:0xabc").Valid())
	assert.True(t, domain.TxID("coinbase:uuid").Valid())
	assert.True(t, domain.TxID("dex:0xabc#out").Valid())

	assert.False(t, domain.TxID("").Valid())
	assert.False(t, domain.TxID("blockchain:").Valid())
	assert.False(t, domain.TxID("unknown:0xabc").Valid())
	assert.False(t, domain.TxID("0xabc").Valid())
}

func validTransaction() domain.Transaction {
	return domain.Transaction{
		ID:          domain.NewTxID(domain.SourceBlockchain, "0xabc123"),
		NativeID:    "0xabc123",
		Timestamp:   time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC),
		Type:        domain.TxTypeDeposit,
		Source:      domain.SourceBlockchain,
		Currency:    "ETH",
		Amount:      decimal.RequireFromString("1.5"),
		Fee:         decimal.RequireFromString("0.001"),
		FeeCurrency: "ETH",
		Status:      domain.TxStatusConfirmed,
	}
}

func TestTransaction_Valid(t *testing.T) {
	tx := validTransaction()
	require.NoError(t, tx.Valid())

	tests := []struct {
		name   string
		mutate func(*domain.Transaction)
	}{
		{"invalid id", func(tx *domain.Transaction) { tx.ID = "garbage" }},
		{"empty native id", func(tx *domain.Transaction) { tx.NativeID = "" }},
		{"zero timestamp", func(tx *domain.Transaction) { tx.Timestamp = time.Time{} }},
		{"empty currency", func(tx *domain.Transaction) { tx.Currency = "" }},
		{"negative amount", func(tx *domain.Transaction) { tx.Amount = decimal.RequireFromString("-1") }},
		{"negative fee", func(tx *domain.Transaction) { tx.Fee = decimal.RequireFromString("-0.1") }},
		{"unknown type", func(tx *domain.Transaction) { tx.Type = "teleport" }},
		{"unknown status", func(tx *domain.Transaction) { tx.Status = "maybe" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := validTransaction()
			tt.mutate(&tx)
			assert.Error(t, tx.Valid())
		})
	}
}

func TestTxStatus_CanTransitionTo(t *testing.T) {
	// pending is the only non-terminal status
	assert.True(t, domain.TxStatusPending.CanTransitionTo(domain.TxStatusConfirmed))
	assert.True(t, domain.TxStatusPending.CanTransitionTo(domain.TxStatusFailed))

	assert.False(t, domain.TxStatusPending.CanTransitionTo(domain.TxStatusPending))
	assert.False(t, domain.TxStatusConfirmed.CanTransitionTo(domain.TxStatusPending))
	assert.False(t, domain.TxStatusConfirmed.CanTransitionTo(domain.TxStatusFailed))
	assert.False(t, domain.TxStatusFailed.CanTransitionTo(domain.TxStatusConfirmed))
	assert.False(t, domain.TxStatusFailed.CanTransitionTo(domain.TxStatusPending))
}
