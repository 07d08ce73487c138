package normalizer

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/flowledger/crypto-tracker/internal/domain"
	"github.com/flowledger/crypto-tracker/internal/providers/coinbase"
)

// coinbaseTypeMap is the exhaustive mapping from Coinbase transaction type
// codes to the canonical enum. Codes outside this table fail normalization
// with an UnrecognizedTypeError; they are never silently coerced.
var coinbaseTypeMap = map[string]domain.TxType{
	"buy":             domain.TxTypeBuy,
	"sell":            domain.TxTypeSell,
	"send":            domain.TxTypeWithdrawal,
	"receive":         domain.TxTypeDeposit,
	"exchange":        domain.TxTypeSwap,
	"trade":           domain.TxTypeConversion,
	"fiat_deposit":    domain.TxTypeDeposit,
	"fiat_withdrawal": domain.TxTypeWithdrawal,
	"fee":             domain.TxTypeFee,
}

// Coinbase normalizes exchange account transaction payloads
type Coinbase struct{}

// NewCoinbase creates an exchange normalizer
func NewCoinbase() *Coinbase {
	return &Coinbase{}
}

// Source identifies which payloads this normalizer understands
func (n *Coinbase) Source() domain.Source {
	return domain.SourceCoinbase
}

// Normalize translates one exchange payload into a canonical record
func (n *Coinbase) Normalize(payload domain.RawPayload) ([]domain.Transaction, error) {
	var entry coinbase.Transaction
	if err := json.Unmarshal(payload.Data, &entry); err != nil {
		return nil, fmt.Errorf("failed to decode coinbase payload: %w", err)
	}
	if entry.ID == "" {
		return nil, fmt.Errorf("coinbase payload has no transaction id")
	}

	txType, ok := coinbaseTypeMap[entry.Type]
	if !ok {
		return nil, &domain.UnrecognizedTypeError{Source: domain.SourceCoinbase, Code: entry.Type}
	}

	timestamp, err := time.Parse(time.RFC3339, entry.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("invalid created_at %q: %w", entry.CreatedAt, err)
	}

	// Coinbase reports signed amounts; the canonical model carries
	// direction in the type, so only the magnitude survives.
	amount, err := domain.ParseAmount(entry.Amount.Amount)
	if err != nil {
		return nil, err
	}

	tx := domain.Transaction{
		ID:          domain.NewTxID(domain.SourceCoinbase, entry.ID),
		NativeID:    entry.ID,
		Timestamp:   timestamp.UTC(),
		Type:        txType,
		Source:      domain.SourceCoinbase,
		Currency:    entry.Amount.Currency,
		Amount:      amount,
		Fee:         decimal.Zero, // fees are folded into the quoted amounts
		FeeCurrency: entry.Amount.Currency,
		Status:      coinbaseStatus(entry.Status),
		Raw:         payload.Data,
	}
	return []domain.Transaction{tx}, nil
}

// coinbaseStatus maps the exchange status onto the canonical enum
func coinbaseStatus(status string) domain.TxStatus {
	switch status {
	case "completed":
		return domain.TxStatusConfirmed
	case "failed", "canceled", "expired":
		return domain.TxStatusFailed
	default:
		// pending, waiting_for_signature, waiting_for_clearing, ...
		return domain.TxStatusPending
	}
}
