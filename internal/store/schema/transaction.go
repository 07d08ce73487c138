package schema

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"github.com/flowledger/crypto-tracker/internal/domain"
)

// Transaction represents the transactions table - the canonical record every
// source normalizes into. Links are an implicit parent_id self-reference;
// the single-parent model needs no separate link table.
type Transaction struct {
	// ID is the deterministic source-qualified identifier (source:nativeID)
	ID string `gorm:"column:id;primaryKey;type:text"`
	// Source tags the provenance of the record
	Source domain.Source `gorm:"column:source;not null;type:text;uniqueIndex:idx_transactions_source_native,priority:1"`
	// NativeID is the source's own reference for the event
	NativeID string `gorm:"column:native_id;not null;type:text;uniqueIndex:idx_transactions_source_native,priority:2"`
	// Timestamp is the event time in UTC
	Timestamp time.Time `gorm:"column:timestamp;not null;type:timestamptz;index:idx_transactions_timestamp,sort:desc"`
	// Type is the canonical semantic action
	Type domain.TxType `gorm:"column:type;not null;type:text"`
	// Currency is the asset symbol of Amount
	Currency string `gorm:"column:currency;not null;type:text;index"`
	// Amount is the non-negative magnitude (fixed-precision, never float)
	Amount decimal.Decimal `gorm:"column:amount;not null;type:numeric(38,18)"`
	// Fee is the non-negative fee magnitude
	Fee decimal.Decimal `gorm:"column:fee;not null;type:numeric(38,18)"`
	// FeeCurrency is the asset symbol of Fee
	FeeCurrency string `gorm:"column:fee_currency;type:text"`
	// Status is the settlement status (pending, confirmed, failed)
	Status domain.TxStatus `gorm:"column:status;not null;type:text"`
	// Raw contains the original source payload as JSON for debugging
	Raw datatypes.JSON `gorm:"column:raw;type:jsonb"`
	// ParentID references the causal predecessor record, nil until linked
	ParentID *string `gorm:"column:parent_id;type:text;index"`
	// CreatedAt is the timestamp when this record was first persisted
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
	// UpdatedAt is the timestamp when this record was last updated
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now();type:timestamptz"`

	// Associations
	Parent *Transaction `gorm:"foreignKey:ParentID;references:ID"`
}

// TableName specifies the table name for the Transaction model
func (Transaction) TableName() string {
	return "transactions"
}

// FromDomain converts a canonical record into its row representation
func FromDomain(t *domain.Transaction) *Transaction {
	row := &Transaction{
		ID:          string(t.ID),
		Source:      t.Source,
		NativeID:    t.NativeID,
		Timestamp:   t.Timestamp.UTC(),
		Type:        t.Type,
		Currency:    t.Currency,
		Amount:      t.Amount,
		Fee:         t.Fee,
		FeeCurrency: t.FeeCurrency,
		Status:      t.Status,
	}
	if len(t.Raw) > 0 {
		row.Raw = datatypes.JSON(t.Raw)
	}
	if t.ParentID != nil {
		parentID := string(*t.ParentID)
		row.ParentID = &parentID
	}
	return row
}

// ToDomain converts a row back into the canonical record
func (r *Transaction) ToDomain() *domain.Transaction {
	t := &domain.Transaction{
		ID:          domain.TxID(r.ID),
		Source:      r.Source,
		NativeID:    r.NativeID,
		Timestamp:   r.Timestamp.UTC(),
		Type:        r.Type,
		Currency:    r.Currency,
		Amount:      r.Amount,
		Fee:         r.Fee,
		FeeCurrency: r.FeeCurrency,
		Status:      r.Status,
		Raw:         []byte(r.Raw),
	}
	if r.ParentID != nil {
		parentID := domain.TxID(*r.ParentID)
		t.ParentID = &parentID
	}
	return t
}
