package persistence

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/erp/amazon-connector/internal/domain/partner"
)

// GormCountryRepository implements CountryRepository using GORM
type GormCountryRepository struct {
	db *gorm.DB
}

// NewGormCountryRepository creates a new GormCountryRepository
func NewGormCountryRepository(db *gorm.DB) *GormCountryRepository {
	return &GormCountryRepository{db: db}
}

// FindByCode finds a country by exact ISO code
func (r *GormCountryRepository) FindByCode(ctx context.Context, code string) (*partner.Country, error) {
	var country partner.Country
	err := r.db.WithContext(ctx).
		Where("code = ?", strings.ToUpper(strings.TrimSpace(code))).
		First(&country).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, partner.ErrCountryNotFound
		}
		return nil, err
	}
	return &country, nil
}

// FindStateByName finds a state by case-insensitive name
func (r *GormCountryRepository) FindStateByName(ctx context.Context, name string) (*partner.CountryState, error) {
	var state partner.CountryState
	err := r.db.WithContext(ctx).
		Where("LOWER(name) = LOWER(?)", strings.TrimSpace(name)).
		First(&state).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, partner.ErrStateNotFound
		}
		return nil, err
	}
	return &state, nil
}

// Ensure GormCountryRepository implements CountryRepository
var _ partner.CountryRepository = (*GormCountryRepository)(nil)
