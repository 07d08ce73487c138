// Package registrar is the identity and deduplication gate between
// normalization and persistence. Canonical ids are deterministic, so
// registering the same source event any number of times yields exactly one
// persisted record.
package registrar

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/flowledger/crypto-tracker/internal/domain"
	"github.com/flowledger/crypto-tracker/internal/logger"
	"github.com/flowledger/crypto-tracker/internal/store"
)

// Outcome is the result of registering a candidate record
type Outcome int

const (
	// Inserted means the candidate was persisted as a new record
	Inserted Outcome = iota
	// AlreadyExists means a record with the same id was already persisted;
	// this is a normal dedup outcome, not an error
	AlreadyExists
)

// Registrar registers candidate canonical records against the store
type Registrar struct {
	store store.Store
}

// New creates a registrar backed by the given store
func New(st store.Store) *Registrar {
	return &Registrar{store: st}
}

// Register persists a candidate record, deduplicating on its deterministic
// id. An existing record is never overwritten; the only mutation permitted
// on the duplicate path is a status refresh for records that were still
// pending (a re-fetched source event may have settled since).
func (r *Registrar) Register(ctx context.Context, tx *domain.Transaction) (Outcome, error) {
	if err := tx.Valid(); err != nil {
		return 0, fmt.Errorf("invalid candidate record: %w", err)
	}

	inserted, err := r.store.CreateTransaction(ctx, tx)
	if err != nil {
		return 0, fmt.Errorf("failed to register transaction: %w", err)
	}
	if inserted {
		return Inserted, nil
	}

	existing, err := r.store.GetTransactionByID(ctx, tx.ID)
	if err != nil {
		return 0, fmt.Errorf("failed to load existing transaction: %w", err)
	}
	if existing == nil {
		// Lost a race with a concurrent delete; the model has no deletes,
		// so treat it as a store integrity failure.
		return 0, fmt.Errorf("transaction %s vanished during registration", tx.ID)
	}

	if existing.Status.CanTransitionTo(tx.Status) {
		if err := r.store.UpdateTransactionStatus(ctx, tx.ID, tx.Status); err != nil {
			return 0, fmt.Errorf("failed to refresh transaction status: %w", err)
		}
		logger.Debug("refreshed transaction status",
			zap.String("id", string(tx.ID)),
			zap.String("from", string(existing.Status)),
			zap.String("to", string(tx.Status)),
		)
	}

	return AlreadyExists, nil
}
