package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/erp/amazon-connector/internal/domain/amazon"
)

// GormProductBindingRepository implements ProductBindingRepository using GORM
type GormProductBindingRepository struct {
	db *gorm.DB
}

// NewGormProductBindingRepository creates a new GormProductBindingRepository
func NewGormProductBindingRepository(db *gorm.DB) *GormProductBindingRepository {
	return &GormProductBindingRepository{db: db}
}

// FindBySKU finds the binding of a SKU within one backend
func (r *GormProductBindingRepository) FindBySKU(ctx context.Context, backendID uuid.UUID, sku string) (*amazon.ProductBinding, error) {
	var binding amazon.ProductBinding
	err := r.db.WithContext(ctx).
		Where("backend_id = ? AND external_id = ?", backendID, sku).
		First(&binding).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, amazon.ErrBindingNotFound
		}
		return nil, err
	}
	return &binding, nil
}

// FindAll returns all bindings of a backend
func (r *GormProductBindingRepository) FindAll(ctx context.Context, backendID uuid.UUID) ([]amazon.ProductBinding, error) {
	var bindings []amazon.ProductBinding
	err := r.db.WithContext(ctx).
		Where("backend_id = ?", backendID).
		Order("external_id ASC").
		Find(&bindings).Error
	if err != nil {
		return nil, err
	}
	return bindings, nil
}

// Save creates or updates a binding
func (r *GormProductBindingRepository) Save(ctx context.Context, binding *amazon.ProductBinding) error {
	binding.UpdatedAt = time.Now()
	return r.db.WithContext(ctx).Save(binding).Error
}

// Ensure GormProductBindingRepository implements ProductBindingRepository
var _ amazon.ProductBindingRepository = (*GormProductBindingRepository)(nil)
