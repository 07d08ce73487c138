package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TxType represents the semantic action of a transaction, independent of
// which source reported it.
type TxType string

const (
	TxTypeDeposit    TxType = "deposit"
	TxTypeWithdrawal TxType = "withdrawal"
	TxTypeBuy        TxType = "buy"
	TxTypeSell       TxType = "sell"
	TxTypeSwap       TxType = "swap"
	TxTypeTransfer   TxType = "transfer"
	TxTypeConversion TxType = "conversion"
	TxTypeFee        TxType = "fee"
)

// Source represents the provenance of a transaction record.
type Source string

const (
	SourceBlockchain Source = "blockchain"
	SourceCoinbase   Source = "coinbase"
	SourceDEX        Source = "dex"
)

// IsValidSource checks if a source is valid
func IsValidSource(source Source) bool {
	return source == SourceBlockchain ||
		source == SourceCoinbase ||
		source == SourceDEX
}

// TxStatus represents the settlement status of a transaction.
// Failed records are kept for audit, never deleted.
type TxStatus string

const (
	TxStatusPending   TxStatus = "pending"
	TxStatusConfirmed TxStatus = "confirmed"
	TxStatusFailed    TxStatus = "failed"
)

// TxID is the canonical transaction identifier in format: source:nativeID
// (e.g. "blockchain:0xabc...", "coinbase:2bbf394c-...").
// The native identifier may carry a fragment suffix when a single source
// event expands into multiple records (e.g. "blockchain:0xabc...#in").
type TxID string

// NewTxID derives the canonical identifier for a source event. The same
// (source, nativeID) pair always yields the same TxID, which is what makes
// re-ingestion idempotent.
func NewTxID(source Source, nativeID string) TxID {
	return TxID(fmt.Sprintf("%s:%s", source, strings.TrimSpace(nativeID)))
}

// Parse splits the TxID into its source and native identifier parts.
func (id TxID) Parse() (Source, string) {
	parts := strings.SplitN(string(id), ":", 2)
	if len(parts) != 2 {
		return "", ""
	}
	return Source(parts[0]), parts[1]
}

// Valid checks the structural validity of a TxID
func (id TxID) Valid() bool {
	source, nativeID := id.Parse()
	return IsValidSource(source) && nativeID != ""
}

// Transaction is the canonical record every source normalizes into.
// Once persisted it is immutable except for status transitions and
// parent assignment.
type Transaction struct {
	// ID is the deterministic source-qualified identifier
	ID TxID `json:"id"`
	// NativeID is the source's own reference for the event (tx hash, exchange transaction id)
	NativeID string `json:"native_id"`
	// Timestamp is the event time normalized to UTC
	Timestamp time.Time `json:"timestamp"`
	// Type is the semantic action (deposit, withdrawal, buy, ...)
	Type TxType `json:"type"`
	// Source tags where the record came from
	Source Source `json:"source"`
	// Currency is the asset symbol of Amount (e.g. "ETH", "USDC")
	Currency string `json:"currency"`
	// Amount is the non-negative magnitude; direction is carried by Type
	Amount decimal.Decimal `json:"amount"`
	// Fee is the non-negative fee magnitude
	Fee decimal.Decimal `json:"fee"`
	// FeeCurrency may differ from Currency (e.g. gas paid in ETH for a token transfer)
	FeeCurrency string `json:"fee_currency"`
	// Status is the settlement status
	Status TxStatus `json:"status"`
	// Raw retains the original source payload for debugging, never used for equality
	Raw []byte `json:"raw,omitempty"`
	// ParentID references the causal predecessor, set only by explicit linking
	ParentID *TxID `json:"parent_id,omitempty"`
}

// Valid checks the canonical record invariants: structurally valid ID,
// non-empty currency, non-negative magnitudes, known enum values.
func (t *Transaction) Valid() error {
	if !t.ID.Valid() {
		return fmt.Errorf("invalid transaction id %q", t.ID)
	}
	if t.NativeID == "" {
		return fmt.Errorf("transaction %s has empty native id", t.ID)
	}
	if t.Timestamp.IsZero() {
		return fmt.Errorf("transaction %s has zero timestamp", t.ID)
	}
	if t.Currency == "" {
		return fmt.Errorf("transaction %s has empty currency", t.ID)
	}
	if t.Amount.IsNegative() {
		return fmt.Errorf("transaction %s has negative amount %s", t.ID, t.Amount)
	}
	if t.Fee.IsNegative() {
		return fmt.Errorf("transaction %s has negative fee %s", t.ID, t.Fee)
	}
	switch t.Type {
	case TxTypeDeposit, TxTypeWithdrawal, TxTypeBuy, TxTypeSell,
		TxTypeSwap, TxTypeTransfer, TxTypeConversion, TxTypeFee:
	default:
		return fmt.Errorf("transaction %s has unknown type %q", t.ID, t.Type)
	}
	switch t.Status {
	case TxStatusPending, TxStatusConfirmed, TxStatusFailed:
	default:
		return fmt.Errorf("transaction %s has unknown status %q", t.ID, t.Status)
	}
	return nil
}

// CanTransitionTo reports whether a persisted record's status may be
// refreshed to next. Pending is the only non-terminal status.
func (s TxStatus) CanTransitionTo(next TxStatus) bool {
	if s == next {
		return false
	}
	return s == TxStatusPending
}
