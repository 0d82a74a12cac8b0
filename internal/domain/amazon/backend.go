package amazon

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// MarketplaceHost
// ---------------------------------------------------------------------------

// MarketplaceHost is the regional MWS endpoint a backend talks to.
type MarketplaceHost string

const (
	HostNorthAmerica MarketplaceHost = "mws.amazonservices.com"
	HostEurope       MarketplaceHost = "mws-eu.amazonservices.com"
	HostIndia        MarketplaceHost = "mws.amazonservices.in"
	HostChina        MarketplaceHost = "mws.amazonservices.com.cn"
	HostJapan        MarketplaceHost = "mws.amazonservices.jp"
)

// IsValid returns true if the host is one of the known regional endpoints.
func (h MarketplaceHost) IsValid() bool {
	switch h {
	case HostNorthAmerica, HostEurope, HostIndia, HostChina, HostJapan:
		return true
	default:
		return false
	}
}

// String returns the string representation of MarketplaceHost.
func (h MarketplaceHost) String() string { return string(h) }

// ---------------------------------------------------------------------------
// StatePolicy
// ---------------------------------------------------------------------------

// StatePolicy controls what happens when a shipping state cannot be resolved.
// Country resolution is always mandatory; the state is configurable because
// marketplaces routinely send free-form region names.
type StatePolicy string

const (
	// StatePolicyStrict aborts the order on an unresolvable state.
	StatePolicyStrict StatePolicy = "strict"
	// StatePolicyLenient logs a warning and leaves the state unset.
	StatePolicyLenient StatePolicy = "lenient"
)

// IsValid returns true if the policy is known.
func (p StatePolicy) IsValid() bool {
	return p == StatePolicyStrict || p == StatePolicyLenient
}

// ---------------------------------------------------------------------------
// Backend
// ---------------------------------------------------------------------------

// DefaultReportEncoding is the character encoding Amazon uses for flat-file
// reports unless the seller account says otherwise.
const DefaultReportEncoding = "ISO-8859-15"

// Backend is one marketplace seller account with its import configuration.
// The two watermarks are independent: reports and FBA orders are polled by
// separate pipelines with separate transaction boundaries.
type Backend struct {
	ID   uuid.UUID `gorm:"type:uuid;primary_key"`
	Name string    `gorm:"type:varchar(100);not null;uniqueIndex"`

	// Connection settings. AccessKeyRef names the credential vault entry
	// holding the secret key; the connector never stores the secret itself.
	Host         MarketplaceHost `gorm:"type:varchar(50);not null"`
	Merchant     string          `gorm:"type:varchar(50);not null"`
	Marketplace  string          `gorm:"type:varchar(50);not null"`
	AccessKeyRef string          `gorm:"type:varchar(100);not null"`

	// Import settings.
	Encoding          string      `gorm:"type:varchar(20);not null;default:'ISO-8859-15'"`
	PricelistCurrency string      `gorm:"type:varchar(3);not null"`
	ShippingProductID uuid.UUID   `gorm:"type:uuid;not null"`
	SalePrefix        string      `gorm:"type:varchar(20)"`
	WorkflowProcess   string      `gorm:"type:varchar(50)"`
	StatePolicy       StatePolicy `gorm:"type:varchar(10);not null;default:'strict'"`

	// FBA settings.
	FBA             bool   `gorm:"not null;default:false"`
	FBASalePrefix   string `gorm:"type:varchar(20)"`
	FBAWarehouse    string `gorm:"type:varchar(50)"`
	FBAWorkflow     string `gorm:"type:varchar(50)"`
	CallDelaySecond int    `gorm:"not null;default:4"`

	// Watermarks. Each only ever moves forward.
	ReportImportFrom time.Time `gorm:"not null"`
	FBAImportFrom    time.Time `gorm:"not null"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM.
func (Backend) TableName() string { return "amazon_backends" }

// NewBackend creates a backend with both watermarks initialised to now, so a
// fresh backend only imports data created after it was configured.
func NewBackend(name string, host MarketplaceHost, merchant, marketplace, accessKeyRef, currency string) (*Backend, error) {
	if name == "" {
		return nil, ErrBackendMissingName
	}
	if !host.IsValid() {
		return nil, ErrBackendInvalidHost
	}
	if accessKeyRef == "" {
		return nil, ErrBackendMissingAccess
	}
	if marketplace == "" || merchant == "" {
		return nil, ErrBackendMissingMarket
	}
	if currency == "" {
		return nil, ErrBackendInvalidCurr
	}

	now := time.Now()
	return &Backend{
		ID:                uuid.New(),
		Name:              name,
		Host:              host,
		Merchant:          merchant,
		Marketplace:       marketplace,
		AccessKeyRef:      accessKeyRef,
		Encoding:          DefaultReportEncoding,
		PricelistCurrency: currency,
		StatePolicy:       StatePolicyStrict,
		CallDelaySecond:   4,
		ReportImportFrom:  now,
		FBAImportFrom:     now,
		CreatedAt:         now,
		UpdatedAt:         now,
	}, nil
}

// Validate checks the backend configuration.
func (b *Backend) Validate() error {
	if b.Name == "" {
		return ErrBackendMissingName
	}
	if !b.Host.IsValid() {
		return ErrBackendInvalidHost
	}
	if b.AccessKeyRef == "" {
		return ErrBackendMissingAccess
	}
	if b.Marketplace == "" || b.Merchant == "" {
		return ErrBackendMissingMarket
	}
	if b.PricelistCurrency == "" {
		return ErrBackendInvalidCurr
	}
	if !b.StatePolicy.IsValid() {
		return ErrBackendInvalidPolicy
	}
	switch b.CallDelaySecond {
	case 2, 4, 6:
	default:
		return ErrBackendInvalidDelay
	}
	return nil
}

// SaleName computes the persisted order name for an external order id. The
// FBA and non-FBA pipelines use independent prefixes, so the same external id
// can exist once per fulfilment path; the resulting name is the idempotency
// key against the order store.
func (b *Backend) SaleName(externalID string, fba bool) string {
	if fba {
		return b.FBASalePrefix + externalID
	}
	return b.SalePrefix + externalID
}

// CallDelay returns the pause between two FBA order imports.
func (b *Backend) CallDelay() time.Duration {
	return time.Duration(b.CallDelaySecond) * time.Second
}

// AdvanceReportWatermark moves the report watermark forward to t. Returns
// false when t would regress the watermark, which leaves it untouched.
func (b *Backend) AdvanceReportWatermark(t time.Time) bool {
	if !t.After(b.ReportImportFrom) {
		return false
	}
	b.ReportImportFrom = t
	b.UpdatedAt = time.Now()
	return true
}

// AdvanceFBAWatermark moves the FBA watermark forward to t. Returns false
// when t would regress the watermark.
func (b *Backend) AdvanceFBAWatermark(t time.Time) bool {
	if !t.After(b.FBAImportFrom) {
		return false
	}
	b.FBAImportFrom = t
	b.UpdatedAt = time.Now()
	return true
}

// ---------------------------------------------------------------------------
// BackendRepository
// ---------------------------------------------------------------------------

// BackendRepository persists backend configurations and their watermarks.
// The watermark updates are separate operations because each one is its own
// commit point in the sync pipelines.
type BackendRepository interface {
	// FindByID finds a backend by its ID.
	FindByID(ctx context.Context, id uuid.UUID) (*Backend, error)

	// FindAll returns every configured backend.
	FindAll(ctx context.Context) ([]Backend, error)

	// Save creates or updates a backend configuration.
	Save(ctx context.Context, backend *Backend) error

	// UpdateReportWatermark persists the report watermark. The store enforces
	// monotonicity: a value at or below the current watermark is a no-op.
	UpdateReportWatermark(ctx context.Context, id uuid.UUID, watermark time.Time) error

	// UpdateFBAWatermark persists the FBA watermark, same monotonic contract.
	UpdateFBAWatermark(ctx context.Context, id uuid.UUID, watermark time.Time) error
}

// CredentialVault supplies the secret access key for a backend. It is an
// external collaborator; the connector only ever reads from it.
type CredentialVault interface {
	// SecretKey returns the secret for the backend's access key reference.
	SecretKey(ctx context.Context, ref string) (string, error)
}
