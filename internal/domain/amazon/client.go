package amazon

import (
	"context"
	"time"
)

// ---------------------------------------------------------------------------
// MarketplaceClient port
// ---------------------------------------------------------------------------

// ReportInfo describes one report available for download.
type ReportInfo struct {
	// ReportID is the marketplace report identifier, unique per backend.
	ReportID string
	// Type is the flat-file report type.
	Type ReportType
	// AvailableDate is when the report became available; it drives the
	// report watermark.
	AvailableDate time.Time
}

// ReportPage is one page of a report listing. NextToken is empty on the last
// page.
type ReportPage struct {
	Reports   []ReportInfo
	NextToken string
}

// OrderAddress is the shipping address of a marketplace order. Any component
// may be absent (empty).
type OrderAddress struct {
	Name          string
	AddressLine1  string
	AddressLine2  string
	AddressLine3  string
	City          string
	StateOrRegion string
	PostalCode    string
	CountryCode   string
	Phone         string
}

// Order is one order descriptor from the order listing API.
type Order struct {
	AmazonOrderID  string
	PurchaseDate   time.Time
	LastUpdateDate time.Time
	OrderStatus    string
	BuyerEmail     string
	BuyerName      string
	// ShippingAddress is nil when the marketplace withheld the address.
	ShippingAddress *OrderAddress
}

// OrderPage is one page of an order listing. NextToken is empty on the last
// page.
type OrderPage struct {
	Orders    []Order
	NextToken string
}

// OrderItem is one line of a marketplace order. The money fields are nil
// when the component is absent (e.g. free shipping).
type OrderItem struct {
	OrderItemID     string
	SellerSKU       string
	Title           string
	QuantityOrdered int
	ItemPrice       *Money
	ItemTax         *Money
	ShippingPrice   *Money
	ShippingTax     *Money
}

// OrderStatusShipped filters the FBA order listing to delivered sales.
const OrderStatusShipped = "Shipped"

// MarketplaceClient is the request/response boundary to the marketplace API.
// Implementations perform the actual network calls and surface failures as
// *APIError; a throttling condition is distinguishable via IsThrottled. The
// throttle-aware wrapper, not the implementations, owns retry behaviour.
type MarketplaceClient interface {
	// ListReports lists reports of the given types available since the given
	// time. Follow non-empty NextToken values with ListReportsByNextToken.
	ListReports(ctx context.Context, availableFrom time.Time, types []ReportType) (*ReportPage, error)

	// ListReportsByNextToken continues a report listing.
	ListReportsByNextToken(ctx context.Context, token string) (*ReportPage, error)

	// GetReport downloads the raw flat-file body of a report.
	GetReport(ctx context.Context, reportID string) ([]byte, error)

	// ListOrders lists orders of a marketplace updated after the given time,
	// filtered by status. Follow NextToken with ListOrdersByNextToken.
	ListOrders(ctx context.Context, updatedAfter time.Time, statuses []string, marketplaceID string) (*OrderPage, error)

	// ListOrdersByNextToken continues an order listing.
	ListOrdersByNextToken(ctx context.Context, token string) (*OrderPage, error)

	// ListOrderItems returns the line items of one order.
	ListOrderItems(ctx context.Context, amazonOrderID string) ([]OrderItem, error)
}

// ClientFactory builds a MarketplaceClient for a backend, resolving the
// secret key through the credential vault.
type ClientFactory interface {
	ClientFor(ctx context.Context, backend *Backend) (MarketplaceClient, error)
}
