// Package partner holds customer and delivery-address records plus the
// country reference data used to resolve marketplace addresses.
package partner

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// PartnerType distinguishes the customer record from its delivery addresses.
type PartnerType string

const (
	PartnerTypeContact  PartnerType = "contact"
	PartnerTypeDelivery PartnerType = "delivery"
)

var (
	ErrPartnerNotFound = errors.New("partner: not found")
	ErrCountryNotFound = errors.New("partner: country not found")
	ErrStateNotFound   = errors.New("partner: state not found")
)

// Partner is a customer or one of its delivery addresses. Delivery addresses
// are parented to the customer they belong to. Archived addresses stay in the
// table with Active false; address resolution matches them too, so archiving
// never causes duplicate creation.
type Partner struct {
	ID       uuid.UUID   `gorm:"type:uuid;primary_key"`
	ParentID *uuid.UUID  `gorm:"type:uuid;index"`
	Type     PartnerType `gorm:"type:varchar(10);not null;default:'contact'"`
	Name     string      `gorm:"type:varchar(200);not null"`
	Email    string      `gorm:"type:varchar(200);index"`
	Phone    string      `gorm:"type:varchar(50)"`

	Street    string     `gorm:"type:varchar(200)"`
	Street2   string     `gorm:"type:varchar(200)"`
	City      string     `gorm:"type:varchar(100)"`
	Zip       string     `gorm:"type:varchar(20)"`
	CountryID *uuid.UUID `gorm:"type:uuid;index"`
	StateID   *uuid.UUID `gorm:"type:uuid"`

	Active    bool      `gorm:"not null;default:true"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM.
func (Partner) TableName() string { return "partners" }

// NewCustomer creates an active customer partner.
func NewCustomer(name, email, phone string) *Partner {
	now := time.Now()
	return &Partner{
		ID:        uuid.New(),
		Type:      PartnerTypeContact,
		Name:      name,
		Email:     email,
		Phone:     phone,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NewDeliveryAddress creates an active delivery address under a customer.
func NewDeliveryAddress(parentID uuid.UUID, query AddressQuery) *Partner {
	now := time.Now()
	parent := parentID
	return &Partner{
		ID:        uuid.New(),
		ParentID:  &parent,
		Type:      PartnerTypeDelivery,
		Name:      query.Name,
		Phone:     query.Phone,
		Street:    query.Street,
		Street2:   query.Street2,
		City:      query.City,
		Zip:       query.Zip,
		CountryID: query.CountryID,
		StateID:   query.StateID,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// AddressQuery is the exact-match predicate set for address resolution. All
// listed fields participate in the match; the country and state are already
// resolved to reference ids.
type AddressQuery struct {
	Name      string
	Phone     string
	Street    string
	Street2   string
	City      string
	Zip       string
	CountryID *uuid.UUID
	StateID   *uuid.UUID
}

// PartnerRepository persists customers and delivery addresses.
type PartnerRepository interface {
	// FindByEmail finds the first partner with this exact email, active or
	// not. Returns ErrPartnerNotFound when no partner matches.
	FindByEmail(ctx context.Context, email string) (*Partner, error)

	// FindMatchingAddress finds a delivery address matching every field of
	// the query, searching active and inactive records. Returns
	// ErrPartnerNotFound when nothing matches.
	FindMatchingAddress(ctx context.Context, query AddressQuery) (*Partner, error)

	// Create stores a new partner.
	Create(ctx context.Context, p *Partner) error
}
