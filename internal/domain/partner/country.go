package partner

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Country is reference data resolved by exact ISO code match. A country is
// mandatory on every imported address.
type Country struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	Code      string    `gorm:"type:varchar(2);not null;uniqueIndex"`
	Name      string    `gorm:"type:varchar(100);not null"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM.
func (Country) TableName() string { return "countries" }

// CountryState is a state or region of a country, resolved by
// case-insensitive name match.
type CountryState struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	CountryID uuid.UUID `gorm:"type:uuid;not null;index"`
	Code      string    `gorm:"type:varchar(10)"`
	Name      string    `gorm:"type:varchar(100);not null;index"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM.
func (CountryState) TableName() string { return "country_states" }

// CountryRepository resolves country and state reference data.
type CountryRepository interface {
	// FindByCode finds a country by exact ISO code. Returns
	// ErrCountryNotFound when the code is unknown.
	FindByCode(ctx context.Context, code string) (*Country, error)

	// FindStateByName finds a state by case-insensitive name. Returns
	// ErrStateNotFound when the name is unknown.
	FindStateByName(ctx context.Context, name string) (*CountryState, error)
}
