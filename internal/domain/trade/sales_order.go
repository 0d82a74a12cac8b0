// Package trade holds the persisted sale order records the sync engine
// writes: the local side of the order store.
package trade

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrSaleOrderNotFound = errors.New("trade: sale order not found")
	ErrSaleOrderExists   = errors.New("trade: sale order name already exists")
	ErrSaleOrderNoLines  = errors.New("trade: sale order requires at least one line")
)

// SaleOrder is one persisted sale created from a marketplace order. Name is
// the prefixed external identifier and is globally unique: it is the
// idempotency key of the import pipelines.
type SaleOrder struct {
	ID   uuid.UUID `gorm:"type:uuid;primary_key"`
	Name string    `gorm:"type:varchar(60);not null;uniqueIndex"`

	// Origin is the unprefixed external order id; ExternalSource references
	// what produced the sale, e.g. "amazon.report_attachment,<id>".
	Origin         string `gorm:"type:varchar(50);not null;index"`
	ExternalSource string `gorm:"type:varchar(100)"`

	DateOrder         time.Time `gorm:"not null"`
	FBA               bool      `gorm:"not null;default:false"`
	PartnerID         uuid.UUID `gorm:"type:uuid;not null"`
	PartnerShippingID uuid.UUID `gorm:"type:uuid;not null"`
	Currency          string    `gorm:"type:varchar(3);not null"`
	Warehouse         string    `gorm:"type:varchar(50)"`
	Workflow          string    `gorm:"type:varchar(50)"`

	Lines []SaleOrderLine `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM.
func (SaleOrder) TableName() string { return "sale_orders" }

// SaleOrderLine is one line of a persisted sale order. The synthetic
// shipping line has an empty SKU and quantity one.
type SaleOrderLine struct {
	ID        uuid.UUID       `gorm:"type:uuid;primary_key"`
	OrderID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID uuid.UUID       `gorm:"type:uuid;not null"`
	ItemID    string          `gorm:"type:varchar(50)"`
	SKU       string          `gorm:"type:varchar(100)"`
	Name      string          `gorm:"type:varchar(255);not null"`
	Quantity  int             `gorm:"not null"`
	PriceUnit decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	CreatedAt time.Time       `gorm:"not null"`
	UpdatedAt time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM.
func (SaleOrderLine) TableName() string { return "sale_order_lines" }

// Validate checks the order can be persisted.
func (o *SaleOrder) Validate() error {
	if len(o.Lines) == 0 {
		return ErrSaleOrderNoLines
	}
	return nil
}

// SaleOrderRepository is the order store boundary the sync engine writes to.
type SaleOrderRepository interface {
	// Create persists a sale order with its lines in one transaction.
	// Returns ErrSaleOrderExists when the name is already taken.
	Create(ctx context.Context, order *SaleOrder) error

	// ExistsByName reports whether a sale with this name exists. This backs
	// the idempotency guard.
	ExistsByName(ctx context.Context, name string) (bool, error)

	// FindByName finds a sale order by its unique name, lines included.
	FindByName(ctx context.Context, name string) (*SaleOrder, error)

	// CountByExternalSource counts the sales produced by one source
	// reference, used for reprocessing diagnostics.
	CountByExternalSource(ctx context.Context, externalSource string) (int64, error)
}
