package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/erp/amazon-connector/internal/domain/amazon"
)

// GormBackendRepository implements BackendRepository using GORM
type GormBackendRepository struct {
	db *gorm.DB
}

// NewGormBackendRepository creates a new GormBackendRepository
func NewGormBackendRepository(db *gorm.DB) *GormBackendRepository {
	return &GormBackendRepository{db: db}
}

// FindByID finds a backend by its ID
func (r *GormBackendRepository) FindByID(ctx context.Context, id uuid.UUID) (*amazon.Backend, error) {
	var backend amazon.Backend
	if err := r.db.WithContext(ctx).First(&backend, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, amazon.ErrBackendNotFound
		}
		return nil, err
	}
	return &backend, nil
}

// FindAll returns every configured backend
func (r *GormBackendRepository) FindAll(ctx context.Context) ([]amazon.Backend, error) {
	var backends []amazon.Backend
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&backends).Error; err != nil {
		return nil, err
	}
	return backends, nil
}

// Save creates or updates a backend configuration
func (r *GormBackendRepository) Save(ctx context.Context, backend *amazon.Backend) error {
	backend.UpdatedAt = time.Now()
	return r.db.WithContext(ctx).Save(backend).Error
}

// UpdateReportWatermark persists the report watermark. The guard in the
// WHERE clause enforces monotonicity against concurrent passes.
func (r *GormBackendRepository) UpdateReportWatermark(ctx context.Context, id uuid.UUID, watermark time.Time) error {
	return r.db.WithContext(ctx).
		Model(&amazon.Backend{}).
		Where("id = ? AND report_import_from < ?", id, watermark).
		Updates(map[string]any{
			"report_import_from": watermark,
			"updated_at":         time.Now(),
		}).Error
}

// UpdateFBAWatermark persists the FBA watermark, same monotonic contract
func (r *GormBackendRepository) UpdateFBAWatermark(ctx context.Context, id uuid.UUID, watermark time.Time) error {
	return r.db.WithContext(ctx).
		Model(&amazon.Backend{}).
		Where("id = ? AND fba_import_from < ?", id, watermark).
		Updates(map[string]any{
			"fba_import_from": watermark,
			"updated_at":      time.Now(),
		}).Error
}

// Ensure GormBackendRepository implements BackendRepository
var _ amazon.BackendRepository = (*GormBackendRepository)(nil)
