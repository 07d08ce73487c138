package store

import (
	"context"
	"time"

	"github.com/flowledger/crypto-tracker/internal/domain"
)

// DefaultListLimit caps unbounded list queries
const DefaultListLimit = 100

// ListFilter narrows ListTransactions results. Zero values mean "no filter".
type ListFilter struct {
	Currency string
	Source   domain.Source
	Type     domain.TxType
	Since    *time.Time
	Limit    int
}

// Store defines the interface for database operations
type Store interface {
	// CreateTransaction inserts a canonical record; it reports false without
	// error when a record with the same id already exists
	CreateTransaction(ctx context.Context, tx *domain.Transaction) (bool, error)

	// GetTransactionByID retrieves a transaction by its canonical id,
	// returning nil when it does not exist
	GetTransactionByID(ctx context.Context, id domain.TxID) (*domain.Transaction, error)

	// GetTransactionBySourceNativeID retrieves a transaction by its source
	// and native identifier, returning nil when it does not exist
	GetTransactionBySourceNativeID(ctx context.Context, source domain.Source, nativeID string) (*domain.Transaction, error)

	// UpdateTransactionStatus updates the status of a persisted record
	UpdateTransactionStatus(ctx context.Context, id domain.TxID, status domain.TxStatus) error

	// SetTransactionParent sets the parent reference of a persisted record
	SetTransactionParent(ctx context.Context, id domain.TxID, parentID domain.TxID) error

	// ListTransactions lists persisted records newest first, bounded by the
	// filter's limit (DefaultListLimit when unset)
	ListTransactions(ctx context.Context, filter ListFilter) ([]domain.Transaction, error)

	// CountTransactions returns the total number of persisted records
	CountTransactions(ctx context.Context) (int64, error)
}
