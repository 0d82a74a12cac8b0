package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/erp/amazon-connector/internal/domain/amazon"
)

// GormAttachmentRepository implements AttachmentRepository using GORM
type GormAttachmentRepository struct {
	db *gorm.DB
}

// NewGormAttachmentRepository creates a new GormAttachmentRepository
func NewGormAttachmentRepository(db *gorm.DB) *GormAttachmentRepository {
	return &GormAttachmentRepository{db: db}
}

// Create stores a new attachment. The unique (backend, report id) index
// turns a concurrent double download into ErrAttachmentExists.
func (r *GormAttachmentRepository) Create(ctx context.Context, attachment *amazon.ReportAttachment) error {
	if err := r.db.WithContext(ctx).Create(attachment).Error; err != nil {
		if isDuplicateError(err) {
			return amazon.ErrAttachmentExists
		}
		return err
	}
	return nil
}

// Exists reports whether the (backend, report id) pair is attached
func (r *GormAttachmentRepository) Exists(ctx context.Context, backendID uuid.UUID, reportID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&amazon.ReportAttachment{}).
		Where("backend_id = ? AND amazon_report_id = ?", backendID, reportID).
		Count(&count).Error
	return count > 0, err
}

// FindByID finds an attachment by its ID
func (r *GormAttachmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*amazon.ReportAttachment, error) {
	var attachment amazon.ReportAttachment
	if err := r.db.WithContext(ctx).First(&attachment, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, amazon.ErrAttachmentNotFound
		}
		return nil, err
	}
	return &attachment, nil
}

// FindPending returns the pending attachments of a backend, oldest first
func (r *GormAttachmentRepository) FindPending(ctx context.Context, backendID uuid.UUID) ([]amazon.ReportAttachment, error) {
	var attachments []amazon.ReportAttachment
	err := r.db.WithContext(ctx).
		Where("backend_id = ? AND state = ?", backendID, amazon.AttachmentStatePending).
		Order("sync_date ASC, created_at ASC").
		Find(&attachments).Error
	if err != nil {
		return nil, err
	}
	return attachments, nil
}

// UpdateState persists a state transition
func (r *GormAttachmentRepository) UpdateState(ctx context.Context, attachment *amazon.ReportAttachment) error {
	return r.db.WithContext(ctx).
		Model(&amazon.ReportAttachment{}).
		Where("id = ?", attachment.ID).
		Updates(map[string]any{
			"state":         attachment.State,
			"state_message": attachment.StateMessage,
			"updated_at":    time.Now(),
		}).Error
}

// isDuplicateError recognises a unique constraint violation across the
// drivers in use (postgres in production, sqlite in tests).
func isDuplicateError(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "UNIQUE constraint")
}

// Ensure GormAttachmentRepository implements AttachmentRepository
var _ amazon.AttachmentRepository = (*GormAttachmentRepository)(nil)
