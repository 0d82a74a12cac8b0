package persistence

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/erp/amazon-connector/internal/domain/partner"
)

// GormPartnerRepository implements PartnerRepository using GORM
type GormPartnerRepository struct {
	db *gorm.DB
}

// NewGormPartnerRepository creates a new GormPartnerRepository
func NewGormPartnerRepository(db *gorm.DB) *GormPartnerRepository {
	return &GormPartnerRepository{db: db}
}

// FindByEmail finds the first partner with this exact email, active or not
func (r *GormPartnerRepository) FindByEmail(ctx context.Context, email string) (*partner.Partner, error) {
	var p partner.Partner
	err := r.db.WithContext(ctx).
		Where("email = ?", email).
		Order("created_at ASC").
		First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, partner.ErrPartnerNotFound
		}
		return nil, err
	}
	return &p, nil
}

// FindMatchingAddress finds a delivery address matching every field of the
// query. Inactive records match too: an archived address must be reused, not
// recreated. The nullable reference columns need explicit IS NULL handling.
func (r *GormPartnerRepository) FindMatchingAddress(ctx context.Context, query partner.AddressQuery) (*partner.Partner, error) {
	q := r.db.WithContext(ctx).
		Where("type = ?", partner.PartnerTypeDelivery).
		Where("name = ? AND phone = ? AND street = ? AND street2 = ? AND city = ? AND zip = ?",
			query.Name, query.Phone, query.Street, query.Street2, query.City, query.Zip)

	if query.CountryID != nil {
		q = q.Where("country_id = ?", *query.CountryID)
	} else {
		q = q.Where("country_id IS NULL")
	}
	if query.StateID != nil {
		q = q.Where("state_id = ?", *query.StateID)
	} else {
		q = q.Where("state_id IS NULL")
	}

	var p partner.Partner
	if err := q.Order("created_at ASC").First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, partner.ErrPartnerNotFound
		}
		return nil, err
	}
	return &p, nil
}

// Create stores a new partner
func (r *GormPartnerRepository) Create(ctx context.Context, p *partner.Partner) error {
	return r.db.WithContext(ctx).Create(p).Error
}

// Ensure GormPartnerRepository implements PartnerRepository
var _ partner.PartnerRepository = (*GormPartnerRepository)(nil)
