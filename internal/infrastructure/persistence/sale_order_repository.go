package persistence

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/erp/amazon-connector/internal/domain/trade"
)

// GormSaleOrderRepository implements SaleOrderRepository using GORM
type GormSaleOrderRepository struct {
	db *gorm.DB
}

// NewGormSaleOrderRepository creates a new GormSaleOrderRepository
func NewGormSaleOrderRepository(db *gorm.DB) *GormSaleOrderRepository {
	return &GormSaleOrderRepository{db: db}
}

// Create persists a sale order with its lines in one transaction. The unique
// name index turns a concurrent double import into ErrSaleOrderExists.
func (r *GormSaleOrderRepository) Create(ctx context.Context, order *trade.SaleOrder) error {
	if err := order.Validate(); err != nil {
		return err
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(order).Error
	})
	if err != nil {
		if isDuplicateError(err) {
			return trade.ErrSaleOrderExists
		}
		return err
	}
	return nil
}

// ExistsByName reports whether a sale with this name exists
func (r *GormSaleOrderRepository) ExistsByName(ctx context.Context, name string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&trade.SaleOrder{}).
		Where("name = ?", name).
		Count(&count).Error
	return count > 0, err
}

// FindByName finds a sale order by its unique name, lines included
func (r *GormSaleOrderRepository) FindByName(ctx context.Context, name string) (*trade.SaleOrder, error) {
	var order trade.SaleOrder
	err := r.db.WithContext(ctx).
		Preload("Lines").
		Where("name = ?", name).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, trade.ErrSaleOrderNotFound
		}
		return nil, err
	}
	return &order, nil
}

// CountByExternalSource counts the sales produced by one source reference
func (r *GormSaleOrderRepository) CountByExternalSource(ctx context.Context, externalSource string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&trade.SaleOrder{}).
		Where("external_source = ?", externalSource).
		Count(&count).Error
	return count, err
}

// Ensure GormSaleOrderRepository implements SaleOrderRepository
var _ trade.SaleOrderRepository = (*GormSaleOrderRepository)(nil)
