package normalizer

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/flowledger/crypto-tracker/internal/domain"
	"github.com/flowledger/crypto-tracker/internal/providers/etherscan"
	"github.com/flowledger/crypto-tracker/internal/registry"
)

// Ethereum normalizes blockchain payloads (external transactions and
// internal transfers) for one tracked address. When a DEX registry is
// attached, payloads addressed to a known router with a recognized swap
// selector are specialized into swap legs instead.
type Ethereum struct {
	address string
	dex     registry.DEXRegistry
}

// NewEthereum creates a blockchain normalizer for a tracked address.
// A nil registry disables DEX specialization.
func NewEthereum(address string, dex registry.DEXRegistry) *Ethereum {
	return &Ethereum{
		address: strings.ToLower(address),
		dex:     dex,
	}
}

// Source identifies which payloads this normalizer understands
func (n *Ethereum) Source() domain.Source {
	return domain.SourceBlockchain
}

// Normalize translates one blockchain payload into canonical records
func (n *Ethereum) Normalize(payload domain.RawPayload) ([]domain.Transaction, error) {
	var entry etherscan.Transaction
	if err := json.Unmarshal(payload.Data, &entry); err != nil {
		return nil, fmt.Errorf("failed to decode blockchain payload: %w", err)
	}
	if entry.Hash == "" {
		return nil, fmt.Errorf("blockchain payload has no transaction hash")
	}

	timestamp, err := parseUnixTimestamp(entry.TimeStamp)
	if err != nil {
		return nil, err
	}

	valueWei, err := domain.ParseWei(entry.Value)
	if err != nil {
		return nil, err
	}
	amount := domain.WeiToETH(valueWei)

	if entry.Internal() {
		return n.normalizeInternal(&entry, payload, timestamp, amount)
	}

	fee, err := gasFee(&entry)
	if err != nil {
		return nil, err
	}

	if n.isSwap(&entry) {
		return n.normalizeSwap(&entry, payload, timestamp, amount, fee)
	}

	tx := domain.Transaction{
		ID:          domain.NewTxID(domain.SourceBlockchain, entry.Hash),
		NativeID:    entry.Hash,
		Timestamp:   timestamp,
		Type:        n.direction(entry.From),
		Source:      domain.SourceBlockchain,
		Currency:    "ETH",
		Amount:      amount,
		Fee:         fee,
		FeeCurrency: "ETH",
		Status:      receiptStatus(&entry),
		Raw:         payload.Data,
	}
	return []domain.Transaction{tx}, nil
}

// normalizeInternal handles internal transfer entries. They ride inside an
// already-charged transaction, so they carry no fee of their own and are
// always confirmed.
func (n *Ethereum) normalizeInternal(entry *etherscan.Transaction, payload domain.RawPayload, timestamp time.Time, amount decimal.Decimal) ([]domain.Transaction, error) {
	nativeID := fmt.Sprintf("%s#%s", entry.Hash, entry.TraceID)
	tx := domain.Transaction{
		ID:          domain.NewTxID(domain.SourceBlockchain, nativeID),
		NativeID:    nativeID,
		Timestamp:   timestamp,
		Type:        n.direction(entry.From),
		Source:      domain.SourceBlockchain,
		Currency:    "ETH",
		Amount:      amount,
		Fee:         decimal.Zero,
		FeeCurrency: "ETH",
		Status:      domain.TxStatusConfirmed,
		Raw:         payload.Data,
	}
	return []domain.Transaction{tx}, nil
}

// isSwap reports whether the payload is a recognized DEX swap: addressed
// to a known router, with a known swap selector, and with the decoded
// token movement joined in by the connector. Without the decoded token leg
// the transaction cannot be interpreted as a swap and falls through to
// plain transfer normalization.
func (n *Ethereum) isSwap(entry *etherscan.Transaction) bool {
	if n.dex == nil || !n.dex.IsRouter(entry.To) {
		return false
	}
	if _, ok := n.dex.SwapFunction(inputSelector(entry.Input)); !ok {
		return false
	}
	return entry.TokenSymbol != "" && entry.TokenValue != ""
}

// normalizeSwap expands one swap transaction into its two legs: a
// withdrawal of the input asset and a deposit of the output asset. The
// legs share the native hash, suffixed #in and #out.
func (n *Ethereum) normalizeSwap(entry *etherscan.Transaction, payload domain.RawPayload, timestamp time.Time, ethAmount decimal.Decimal, fee decimal.Decimal) ([]domain.Transaction, error) {
	tokenAmount, err := tokenAmount(entry)
	if err != nil {
		return nil, err
	}

	// A positive call value means ETH went in and the token came out;
	// zero value means the token went in and ETH comes back as an
	// internal transfer (tracked as its own payload).
	inCurrency, inAmount := "ETH", ethAmount
	outCurrency, outAmount := entry.TokenSymbol, tokenAmount
	if ethAmount.IsZero() {
		inCurrency, inAmount = entry.TokenSymbol, tokenAmount
		outCurrency, outAmount = "ETH", decimal.Zero
	}

	status := receiptStatus(entry)
	legs := []domain.Transaction{
		{
			ID:          domain.NewTxID(domain.SourceDEX, entry.Hash+"#in"),
			NativeID:    entry.Hash + "#in",
			Timestamp:   timestamp,
			Type:        domain.TxTypeWithdrawal,
			Source:      domain.SourceDEX,
			Currency:    inCurrency,
			Amount:      inAmount,
			Fee:         fee,
			FeeCurrency: "ETH",
			Status:      status,
			Raw:         payload.Data,
		},
		{
			ID:          domain.NewTxID(domain.SourceDEX, entry.Hash+"#out"),
			NativeID:    entry.Hash + "#out",
			Timestamp:   timestamp,
			Type:        domain.TxTypeDeposit,
			Source:      domain.SourceDEX,
			Currency:    outCurrency,
			Amount:      outAmount,
			Fee:         decimal.Zero,
			FeeCurrency: "ETH",
			Status:      status,
			Raw:         payload.Data,
		},
	}
	return legs, nil
}

// direction resolves deposit vs withdrawal relative to the tracked address
func (n *Ethereum) direction(from string) domain.TxType {
	if strings.ToLower(from) == n.address {
		return domain.TxTypeWithdrawal
	}
	return domain.TxTypeDeposit
}

// gasFee computes gasPrice * gasUsed in ETH
func gasFee(entry *etherscan.Transaction) (decimal.Decimal, error) {
	if entry.GasPrice == "" || entry.GasUsed == "" {
		return decimal.Zero, nil
	}

	gasPrice, err := domain.ParseWei(entry.GasPrice)
	if err != nil {
		return decimal.Zero, err
	}
	gasUsed, err := domain.ParseWei(entry.GasUsed)
	if err != nil {
		return decimal.Zero, err
	}

	return domain.WeiToETH(gasPrice.Mul(gasPrice, gasUsed)), nil
}

// tokenAmount scales the raw token value by the token's decimals
func tokenAmount(entry *etherscan.Transaction) (decimal.Decimal, error) {
	raw, err := decimal.NewFromString(entry.TokenValue)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid token value %q: %w", entry.TokenValue, err)
	}

	decimals := int32(0)
	if entry.TokenDecimal != "" {
		parsed, err := strconv.ParseInt(entry.TokenDecimal, 10, 32)
		if err != nil {
			return decimal.Zero, fmt.Errorf("invalid token decimals %q: %w", entry.TokenDecimal, err)
		}
		decimals = int32(parsed)
	}

	return raw.Shift(-decimals), nil
}

// receiptStatus maps the explorer receipt status onto the canonical enum.
// Pre-receipt (or pre-Byzantium) entries have no status and stay pending
// unless the explorer flagged an execution error.
func receiptStatus(entry *etherscan.Transaction) domain.TxStatus {
	switch entry.TxReceiptStatus {
	case "1":
		return domain.TxStatusConfirmed
	case "0":
		return domain.TxStatusFailed
	}
	if entry.IsError == "1" {
		return domain.TxStatusFailed
	}
	return domain.TxStatusPending
}

// inputSelector extracts the 4-byte function selector from call input data
func inputSelector(input string) string {
	if !strings.HasPrefix(input, "0x") {
		input = "0x" + input
	}
	if len(input) < 10 {
		return ""
	}
	return input[:10]
}

// parseUnixTimestamp parses a unix-seconds string into UTC time
func parseUnixTimestamp(value string) (time.Time, error) {
	seconds, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid block timestamp %q: %w", value, err)
	}
	return time.Unix(seconds, 0).UTC(), nil
}
