package amazon

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Canonical sale (transient)
// ---------------------------------------------------------------------------

// PriceStrategy names the unit-price formula of an ingestion path. The two
// paths intentionally differ: flat-file reports carry tax inside the unit
// price while the order API keeps tax on the accounting side. They must never
// be unified.
type PriceStrategy string

const (
	// PriceTaxInclusive is (item price + item tax) / quantity; report path.
	PriceTaxInclusive PriceStrategy = "tax_inclusive"
	// PriceTaxExclusive is item price / quantity; order API path.
	PriceTaxExclusive PriceStrategy = "tax_exclusive"
)

// SaleData is the canonical, source-agnostic shape of one marketplace order.
// It is built fresh by a parser, completed by the entity resolver and then
// discarded; only the order store records derived from it are persisted.
type SaleData struct {
	// Origin is the external (Amazon) order identifier.
	Origin string
	// OrderDate is the marketplace purchase date.
	OrderDate time.Time
	// FBA marks the fulfilment path; it scopes the idempotency prefix.
	FBA bool
	// SourceRef names what produced this order, e.g. "amazon.report_attachment,<id>".
	SourceRef string
	// Buyer identifies the customer partner.
	Buyer Contact
	// Ship is the delivery address as sent by the marketplace.
	Ship DeliveryAddress
	// Lines are the ordered lines; zero-quantity lines were already dropped
	// by the parser.
	Lines []SaleLineData
	// Warehouse and Workflow are optional routing hints from the backend.
	Warehouse string
	Workflow  string
}

// Contact is the buyer contact subset relevant for partner resolution.
type Contact struct {
	Email string
	Name  string
	Phone string
}

// DeliveryAddress carries the raw shipping address fields. Empty string
// means the marketplace did not send the component.
type DeliveryAddress struct {
	Name    string
	Street  string
	Street2 string
	Street3 string
	City    string
	State   string
	Zip     string
	Country string
	Phone   string
}

// SaleLineData is one canonical order line. PriceUnit follows the price
// strategy of the path that produced it.
type SaleLineData struct {
	ItemID    string
	SKU       string
	Name      string
	Quantity  int
	PriceUnit decimal.Decimal
	// Shipping is this line's contribution to the order's shipping cost,
	// taxes included. The resolver folds all contributions into one
	// synthetic shipping line.
	Shipping decimal.Decimal
}

// LineName renders the display name of a line the way the order store
// expects it, with the SKU as a bracketed prefix.
func LineName(sku, title string) string {
	return fmt.Sprintf("[%s] %s", sku, title)
}

// ShippingTotal sums the shipping contributions of all lines.
func (s *SaleData) ShippingTotal() decimal.Decimal {
	total := decimal.Zero
	for _, line := range s.Lines {
		total = total.Add(line.Shipping)
	}
	return total
}
