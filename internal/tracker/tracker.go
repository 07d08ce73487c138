// Package tracker orchestrates the ingestion pipeline: fetch raw payloads
// from a connector, normalize them into canonical records, and register
// each record against the store. Linking and chain queries are separate
// operations invoked explicitly by callers, never triggered by tracking.
package tracker

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/flowledger/crypto-tracker/internal/domain"
	"github.com/flowledger/crypto-tracker/internal/lineage"
	"github.com/flowledger/crypto-tracker/internal/logger"
	"github.com/flowledger/crypto-tracker/internal/normalizer"
	"github.com/flowledger/crypto-tracker/internal/providers/coinbase"
	"github.com/flowledger/crypto-tracker/internal/providers/ethereum"
	"github.com/flowledger/crypto-tracker/internal/providers/etherscan"
	"github.com/flowledger/crypto-tracker/internal/registrar"
	"github.com/flowledger/crypto-tracker/internal/registry"
	"github.com/flowledger/crypto-tracker/internal/store"
)

// TrackError reports one payload that failed normalization. The batch
// continues past it; partial success is the expected mode.
type TrackError struct {
	// Ref is the provider's reference for the failed payload
	Ref string `json:"ref"`
	// Reason is the failure description
	Reason string `json:"reason"`
}

// Result aggregates the outcome of one tracking run
type Result struct {
	Inserted   int          `json:"inserted"`
	Duplicates int          `json:"duplicates"`
	Errors     []TrackError `json:"errors,omitempty"`
}

// Tracker drives the ingestion pipeline and exposes the query surface
type Tracker struct {
	store     store.Store
	registrar *registrar.Registrar
	lineage   *lineage.Service
	etherscan etherscan.Client
	coinbase  coinbase.Client
	node      ethereum.Client
	dex       registry.DEXRegistry
}

// New creates a tracker. Any connector may be nil when the matching
// credentials are not configured; the corresponding track operation then
// fails fast instead of at request time.
func New(st store.Store, etherscanClient etherscan.Client, coinbaseClient coinbase.Client, node ethereum.Client, dex registry.DEXRegistry) *Tracker {
	return &Tracker{
		store:     st,
		registrar: registrar.New(st),
		lineage:   lineage.New(st),
		etherscan: etherscanClient,
		coinbase:  coinbaseClient,
		node:      node,
		dex:       dex,
	}
}

// TrackAddress ingests all transactions of an Ethereum address: external,
// internal, and DEX swaps. Re-running against an already-tracked address
// registers every record as a duplicate and inserts nothing new.
func (t *Tracker) TrackAddress(ctx context.Context, address string) (*Result, error) {
	if t.etherscan == nil {
		return nil, fmt.Errorf("blockchain connector not configured")
	}
	if !common.IsHexAddress(address) {
		return nil, fmt.Errorf("invalid ethereum address %q", address)
	}

	payloads, err := t.etherscan.AddressTransactions(ctx, address)
	if err != nil {
		return nil, err
	}

	result := t.ingest(ctx, payloads, normalizer.NewEthereum(address, t.dex))
	logger.Info("tracked ethereum address",
		zap.String("address", address),
		zap.Int("inserted", result.Inserted),
		zap.Int("duplicates", result.Duplicates),
		zap.Int("errors", len(result.Errors)),
	)
	return result, nil
}

// TrackTransaction ingests a single transaction by hash straight from the
// node, normalized relative to the given address. Useful for transactions
// too recent for the explorer index.
func (t *Tracker) TrackTransaction(ctx context.Context, address, hash string) (*Result, error) {
	if t.node == nil {
		return nil, fmt.Errorf("ethereum node connector not configured")
	}
	if !common.IsHexAddress(address) {
		return nil, fmt.Errorf("invalid ethereum address %q", address)
	}

	payload, err := t.node.TransactionPayload(ctx, hash)
	if err != nil {
		return nil, err
	}

	result := t.ingest(ctx, []domain.RawPayload{*payload}, normalizer.NewEthereum(address, t.dex))
	logger.Info("tracked single transaction",
		zap.String("hash", hash),
		zap.Int("inserted", result.Inserted),
		zap.Int("duplicates", result.Duplicates),
	)
	return result, nil
}

// TrackCoinbase ingests the transactions of every configured Coinbase account
func (t *Tracker) TrackCoinbase(ctx context.Context) (*Result, error) {
	if t.coinbase == nil {
		return nil, fmt.Errorf("exchange connector not configured")
	}

	payloads, err := t.coinbase.AccountTransactions(ctx)
	if err != nil {
		return nil, err
	}

	result := t.ingest(ctx, payloads, normalizer.NewCoinbase())
	logger.Info("tracked coinbase accounts",
		zap.Int("inserted", result.Inserted),
		zap.Int("duplicates", result.Duplicates),
		zap.Int("errors", len(result.Errors)),
	)
	return result, nil
}

// ingest runs normalize-then-register over a payload batch. A payload that
// fails normalization is reported and skipped; it never aborts the batch.
// Registration failures are store integrity errors and do abort.
func (t *Tracker) ingest(ctx context.Context, payloads []domain.RawPayload, n normalizer.Normalizer) *Result {
	result := &Result{}

	for _, payload := range payloads {
		records, err := n.Normalize(payload)
		if err != nil {
			var unrecognized *domain.UnrecognizedTypeError
			if !errors.As(err, &unrecognized) {
				logger.Warn("skipping malformed payload",
					zap.String("ref", payload.Ref),
					zap.Error(err),
				)
			}
			result.Errors = append(result.Errors, TrackError{
				Ref:    payload.Ref,
				Reason: err.Error(),
			})
			continue
		}

		for i := range records {
			outcome, err := t.registrar.Register(ctx, &records[i])
			if err != nil {
				result.Errors = append(result.Errors, TrackError{
					Ref:    payload.Ref,
					Reason: err.Error(),
				})
				continue
			}
			switch outcome {
			case registrar.Inserted:
				result.Inserted++
			case registrar.AlreadyExists:
				result.Duplicates++
			}
		}
	}

	return result
}

// Get retrieves a single canonical record
func (t *Tracker) Get(ctx context.Context, id domain.TxID) (*domain.Transaction, error) {
	tx, err := t.store.GetTransactionByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if tx == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}
	return tx, nil
}

// List returns persisted records newest first, bounded by the filter
func (t *Tracker) List(ctx context.Context, filter store.ListFilter) ([]domain.Transaction, error) {
	return t.store.ListTransactions(ctx, filter)
}

// Link records that child causally follows from parent
func (t *Tracker) Link(ctx context.Context, parentID, childID domain.TxID) error {
	return t.lineage.Link(ctx, parentID, childID)
}

// Chain reconstructs the lifecycle of a record, oldest ancestor first
func (t *Tracker) Chain(ctx context.Context, id domain.TxID) ([]domain.Transaction, error) {
	return t.lineage.Chain(ctx, id)
}
