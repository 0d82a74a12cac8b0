package amazon

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ProductBinding maps one local product to one marketplace SKU, scoped per
// backend. The sync engine only ever reads bindings; they are maintained from
// the product catalogue side.
type ProductBinding struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key"`
	BackendID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_binding_backend_sku,priority:1;uniqueIndex:idx_binding_backend_product,priority:1"`
	ExternalID string    `gorm:"type:varchar(100);not null;uniqueIndex:idx_binding_backend_sku,priority:2"`
	ProductID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_binding_backend_product,priority:2"`
	CreatedAt  time.Time `gorm:"not null"`
	UpdatedAt  time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM.
func (ProductBinding) TableName() string { return "amazon_product_bindings" }

// NewProductBinding creates a binding between a local product and a SKU.
func NewProductBinding(backendID, productID uuid.UUID, externalID string) (*ProductBinding, error) {
	if backendID == uuid.Nil || productID == uuid.Nil {
		return nil, errors.New("amazon: binding requires backend and product")
	}
	if externalID == "" {
		return nil, errors.New("amazon: binding requires a SKU")
	}
	now := time.Now()
	return &ProductBinding{
		ID:         uuid.New(),
		BackendID:  backendID,
		ExternalID: externalID,
		ProductID:  productID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// ProductBindingRepository reads and maintains SKU bindings.
type ProductBindingRepository interface {
	// FindBySKU finds the binding of a SKU within one backend. Returns
	// ErrBindingNotFound when the SKU is unbound.
	FindBySKU(ctx context.Context, backendID uuid.UUID, sku string) (*ProductBinding, error)

	// FindAll returns all bindings of a backend.
	FindAll(ctx context.Context, backendID uuid.UUID) ([]ProductBinding, error)

	// Save creates or updates a binding.
	Save(ctx context.Context, binding *ProductBinding) error
}
