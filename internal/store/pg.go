package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/flowledger/crypto-tracker/internal/domain"
	"github.com/flowledger/crypto-tracker/internal/store/schema"
)

type pgStore struct {
	db *gorm.DB
}

// NewPGStore creates a new PostgreSQL store instance
func NewPGStore(db *gorm.DB) Store {
	return &pgStore{db: db}
}

// Migrate creates or updates the database schema
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&schema.Transaction{}); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// ConfigureConnectionPool configures the connection pool settings for a GORM
// database connection. Zero values fall back to reasonable defaults.
func ConfigureConnectionPool(db *gorm.DB, maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	if maxOpenConns == 0 {
		maxOpenConns = 20
	}
	if maxIdleConns == 0 {
		maxIdleConns = 5
	}
	if connMaxLifetime == 0 {
		connMaxLifetime = 5 * time.Minute
	}
	if connMaxIdleTime == 0 {
		connMaxIdleTime = 10 * time.Minute
	}
	if maxIdleConns > maxOpenConns {
		maxIdleConns = maxOpenConns
	}

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)

	return nil
}

// CreateTransaction inserts a canonical record. Insertion is guarded by the
// primary key: concurrent writers racing on the same id resolve to a single
// row, and the loser observes inserted=false rather than an error.
func (s *pgStore) CreateTransaction(ctx context.Context, tx *domain.Transaction) (bool, error) {
	if err := tx.Valid(); err != nil {
		return false, fmt.Errorf("refusing to persist invalid transaction: %w", err)
	}

	row := schema.FromDomain(tx)
	result := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoNothing: true,
		}).
		Create(row)
	if result.Error != nil {
		return false, fmt.Errorf("failed to create transaction: %w", result.Error)
	}

	return result.RowsAffected > 0, nil
}

// GetTransactionByID retrieves a transaction by its canonical id
func (s *pgStore) GetTransactionByID(ctx context.Context, id domain.TxID) (*domain.Transaction, error) {
	var row schema.Transaction
	err := s.db.WithContext(ctx).Where("id = ?", string(id)).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return row.ToDomain(), nil
}

// GetTransactionBySourceNativeID retrieves a transaction by its source and
// native identifier
func (s *pgStore) GetTransactionBySourceNativeID(ctx context.Context, source domain.Source, nativeID string) (*domain.Transaction, error) {
	var row schema.Transaction
	err := s.db.WithContext(ctx).
		Where("source = ? AND native_id = ?", source, nativeID).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get transaction by native id: %w", err)
	}
	return row.ToDomain(), nil
}

// UpdateTransactionStatus updates the status of a persisted record
func (s *pgStore) UpdateTransactionStatus(ctx context.Context, id domain.TxID, status domain.TxStatus) error {
	result := s.db.WithContext(ctx).
		Model(&schema.Transaction{}).
		Where("id = ?", string(id)).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update transaction status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// SetTransactionParent sets the parent reference of a persisted record
func (s *pgStore) SetTransactionParent(ctx context.Context, id domain.TxID, parentID domain.TxID) error {
	result := s.db.WithContext(ctx).
		Model(&schema.Transaction{}).
		Where("id = ?", string(id)).
		Updates(map[string]interface{}{
			"parent_id":  string(parentID),
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to set transaction parent: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListTransactions lists persisted records newest first
func (s *pgStore) ListTransactions(ctx context.Context, filter ListFilter) ([]domain.Transaction, error) {
	limit := filter.Limit
	if limit <= 0 || limit > DefaultListLimit {
		limit = DefaultListLimit
	}

	query := s.db.WithContext(ctx).Model(&schema.Transaction{})
	if filter.Currency != "" {
		query = query.Where("currency = ?", filter.Currency)
	}
	if filter.Source != "" {
		query = query.Where("source = ?", filter.Source)
	}
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if filter.Since != nil {
		query = query.Where("timestamp >= ?", filter.Since.UTC())
	}

	var rows []schema.Transaction
	err := query.Order("timestamp DESC").Limit(limit).Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}

	transactions := make([]domain.Transaction, 0, len(rows))
	for i := range rows {
		transactions = append(transactions, *rows[i].ToDomain())
	}
	return transactions, nil
}

// CountTransactions returns the total number of persisted records
func (s *pgStore) CountTransactions(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&schema.Transaction{}).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}
	return count, nil
}
