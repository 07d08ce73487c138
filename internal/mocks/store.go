// Package mocks provides hand-written test doubles for the store and
// connector interfaces.
package mocks

import (
	"context"
	"sort"
	"sync"

	"github.com/flowledger/crypto-tracker/internal/domain"
	"github.com/flowledger/crypto-tracker/internal/store"
)

// MemoryStore is an in-memory store.Store for tests. Error fields, when
// set, force the matching method to fail.
type MemoryStore struct {
	mu           sync.Mutex
	transactions map[domain.TxID]domain.Transaction

	CreateErr error
	GetErr    error
	UpdateErr error
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		transactions: make(map[domain.TxID]domain.Transaction),
	}
}

// Seed inserts transactions without going through CreateTransaction
func (s *MemoryStore) Seed(transactions ...domain.Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, tx := range transactions {
		s.transactions[tx.ID] = tx
	}
}

// CreateTransaction inserts a record, reporting false when the id exists
func (s *MemoryStore) CreateTransaction(_ context.Context, tx *domain.Transaction) (bool, error) {
	if s.CreateErr != nil {
		return false, s.CreateErr
	}
	if err := tx.Valid(); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.transactions[tx.ID]; ok {
		return false, nil
	}
	s.transactions[tx.ID] = *tx
	return true, nil
}

// GetTransactionByID returns the record or nil when missing
func (s *MemoryStore) GetTransactionByID(_ context.Context, id domain.TxID) (*domain.Transaction, error) {
	if s.GetErr != nil {
		return nil, s.GetErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	tx, ok := s.transactions[id]
	if !ok {
		return nil, nil
	}
	return &tx, nil
}

// GetTransactionBySourceNativeID returns the record or nil when missing
func (s *MemoryStore) GetTransactionBySourceNativeID(_ context.Context, source domain.Source, nativeID string) (*domain.Transaction, error) {
	if s.GetErr != nil {
		return nil, s.GetErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, tx := range s.transactions {
		if tx.Source == source && tx.NativeID == nativeID {
			result := tx
			return &result, nil
		}
	}
	return nil, nil
}

// UpdateTransactionStatus updates the status of a stored record
func (s *MemoryStore) UpdateTransactionStatus(_ context.Context, id domain.TxID, status domain.TxStatus) error {
	if s.UpdateErr != nil {
		return s.UpdateErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	tx, ok := s.transactions[id]
	if !ok {
		return domain.ErrNotFound
	}
	tx.Status = status
	s.transactions[id] = tx
	return nil
}

// SetTransactionParent sets the parent reference of a stored record
func (s *MemoryStore) SetTransactionParent(_ context.Context, id domain.TxID, parentID domain.TxID) error {
	if s.UpdateErr != nil {
		return s.UpdateErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	tx, ok := s.transactions[id]
	if !ok {
		return domain.ErrNotFound
	}
	tx.ParentID = &parentID
	s.transactions[id] = tx
	return nil
}

// ListTransactions lists stored records newest first, bounded by the filter
func (s *MemoryStore) ListTransactions(_ context.Context, filter store.ListFilter) ([]domain.Transaction, error) {
	if s.GetErr != nil {
		return nil, s.GetErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var result []domain.Transaction
	for _, tx := range s.transactions {
		if filter.Currency != "" && tx.Currency != filter.Currency {
			continue
		}
		if filter.Source != "" && tx.Source != filter.Source {
			continue
		}
		if filter.Type != "" && tx.Type != filter.Type {
			continue
		}
		if filter.Since != nil && tx.Timestamp.Before(*filter.Since) {
			continue
		}
		result = append(result, tx)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Timestamp.After(result[j].Timestamp)
	})

	limit := filter.Limit
	if limit <= 0 || limit > store.DefaultListLimit {
		limit = store.DefaultListLimit
	}
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// CountTransactions returns the number of stored records
func (s *MemoryStore) CountTransactions(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.transactions)), nil
}
