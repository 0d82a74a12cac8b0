// Package amazon contains the application services of the marketplace sync
// engine: report polling, flat-file parsing, entity resolution and the
// creation of sale orders from marketplace data.
package amazon

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"

	"github.com/erp/amazon-connector/internal/domain/amazon"
)

// ---------------------------------------------------------------------------
// Flat-file decoding
// ---------------------------------------------------------------------------

// decodeReport converts a raw report payload from the backend's configured
// encoding to UTF-8. Amazon serves flat files in ISO-8859-15 by default.
func decodeReport(payload []byte, encodingName string) (string, error) {
	var enc encoding.Encoding
	switch strings.ToUpper(strings.TrimSpace(encodingName)) {
	case "", "UTF-8", "UTF8":
		return string(payload), nil
	case "ISO-8859-15", "LATIN-9":
		enc = charmap.ISO8859_15
	case "ISO-8859-1", "LATIN-1":
		enc = charmap.ISO8859_1
	case "WINDOWS-1252", "CP1252":
		enc = charmap.Windows1252
	default:
		return "", fmt.Errorf("amazon: unsupported report encoding %q", encodingName)
	}
	decoded, err := enc.NewDecoder().Bytes(payload)
	if err != nil {
		return "", fmt.Errorf("amazon: decoding report payload: %w", err)
	}
	return string(decoded), nil
}

// reportRecord is one data row of a flat-file report, indexed by its header.
type reportRecord struct {
	header map[string]int
	fields []string
}

// col returns the trimmed value of a named column, empty when the column is
// missing from the header or the row.
func (r reportRecord) col(name string) string {
	idx, ok := r.header[name]
	if !ok || idx >= len(r.fields) {
		return ""
	}
	return strings.TrimSpace(r.fields[idx])
}

// parseFlatFile splits a decoded report into header-indexed records. Blank
// lines are ignored. required lists the columns that must be present in the
// header for the file to be usable at all.
func parseFlatFile(text string, required []string) ([]reportRecord, error) {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) == "" {
		return nil, fmt.Errorf("amazon: report file has no header row")
	}

	header := make(map[string]int)
	for i, name := range strings.Split(lines[0], "\t") {
		header[strings.TrimSpace(name)] = i
	}
	for _, name := range required {
		if _, ok := header[name]; !ok {
			return nil, fmt.Errorf("amazon: report file is missing column %q", name)
		}
	}

	records := make([]reportRecord, 0, len(lines)-1)
	for _, line := range lines[1:] {
		if strings.TrimSpace(line) == "" {
			continue
		}
		records = append(records, reportRecord{
			header: header,
			fields: strings.Split(line, "\t"),
		})
	}
	return records, nil
}

// ---------------------------------------------------------------------------
// Order report parser
// ---------------------------------------------------------------------------

// Column names of the unshipped-orders flat file.
const (
	colOrderID     = "order-id"
	colOrderItemID = "order-item-id"
	colPurchase    = "purchase-date"
	colBuyerEmail  = "buyer-email"
	colBuyerName   = "buyer-name"
	colBuyerPhone  = "buyer-phone-number"
	colSKU         = "sku"
	colProductName = "product-name"
	colQuantity    = "quantity-purchased"
	colCurrency    = "currency"
	colItemPrice   = "item-price"
	colItemTax     = "item-tax"
	colShipPrice   = "shipping-price"
	colShipTax     = "shipping-tax"
	colShipName    = "recipient-name"
	colShipAddr1   = "ship-address-1"
	colShipAddr2   = "ship-address-2"
	colShipAddr3   = "ship-address-3"
	colShipCity    = "ship-city"
	colShipState   = "ship-state"
	colShipZip     = "ship-postal-code"
	colShipCountry = "ship-country"
	colShipPhone   = "ship-phone-number"
)

// orderReportColumns are the columns the parser cannot work without.
var orderReportColumns = []string{
	colOrderID, colOrderItemID, colPurchase, colSKU, colQuantity, colItemPrice,
}

// OrderReportParser turns an unshipped-orders flat file into canonical sale
// data. Rows are grouped by order id in file order; the per-unit price is tax
// inclusive, which is how this report states amounts.
type OrderReportParser struct{}

// NewOrderReportParser creates an OrderReportParser.
func NewOrderReportParser() *OrderReportParser { return &OrderReportParser{} }

// Strategy names the price formula of this parser.
func (p *OrderReportParser) Strategy() amazon.PriceStrategy { return amazon.PriceTaxInclusive }

// Parse decodes and parses a report payload into canonical sales. Rows
// without an order-item-id are summary noise and are skipped; zero-quantity
// lines are dropped, and an order left with no lines is dropped whole. Any
// malformed amount or currency mismatch fails the entire parse, since an
// attachment is consumed whole or not at all.
func (p *OrderReportParser) Parse(payload []byte, backend *amazon.Backend) ([]amazon.SaleData, error) {
	text, err := decodeReport(payload, backend.Encoding)
	if err != nil {
		return nil, err
	}
	records, err := parseFlatFile(text, orderReportColumns)
	if err != nil {
		return nil, err
	}

	var (
		order   []string
		byOrder = make(map[string]*amazon.SaleData)
	)
	for _, rec := range records {
		orderID := rec.col(colOrderID)
		if orderID == "" || rec.col(colOrderItemID) == "" {
			continue
		}

		sale, ok := byOrder[orderID]
		if !ok {
			orderDate, err := parseReportDate(rec.col(colPurchase))
			if err != nil {
				return nil, fmt.Errorf("amazon: order %s: %w", orderID, err)
			}
			sale = &amazon.SaleData{
				Origin:    orderID,
				OrderDate: orderDate,
				Buyer: amazon.Contact{
					Email: rec.col(colBuyerEmail),
					Name:  rec.col(colBuyerName),
					Phone: rec.col(colBuyerPhone),
				},
				Ship: amazon.DeliveryAddress{
					Name:    rec.col(colShipName),
					Street:  rec.col(colShipAddr1),
					Street2: rec.col(colShipAddr2),
					Street3: rec.col(colShipAddr3),
					City:    rec.col(colShipCity),
					State:   rec.col(colShipState),
					Zip:     rec.col(colShipZip),
					Country: rec.col(colShipCountry),
					Phone:   rec.col(colShipPhone),
				},
				Warehouse: "",
				Workflow:  backend.WorkflowProcess,
			}
			byOrder[orderID] = sale
			order = append(order, orderID)
		}

		line, err := p.parseLine(rec, backend, orderID)
		if err != nil {
			return nil, err
		}
		if line == nil {
			continue
		}
		sale.Lines = append(sale.Lines, *line)
	}

	sales := make([]amazon.SaleData, 0, len(order))
	for _, orderID := range order {
		sale := byOrder[orderID]
		if len(sale.Lines) == 0 {
			continue
		}
		sales = append(sales, *sale)
	}
	return sales, nil
}

// parseLine builds one canonical line from a report row. Returns nil for
// zero-quantity rows.
func (p *OrderReportParser) parseLine(rec reportRecord, backend *amazon.Backend, orderID string) (*amazon.SaleLineData, error) {
	sku := rec.col(colSKU)

	qty, err := strconv.Atoi(rec.col(colQuantity))
	if err != nil {
		return nil, fmt.Errorf("amazon: order %s: malformed quantity %q for SKU %q", orderID, rec.col(colQuantity), sku)
	}
	if qty == 0 {
		return nil, nil
	}

	if currency := rec.col(colCurrency); currency != "" && currency != backend.PricelistCurrency {
		return nil, &amazon.CurrencyMismatchError{
			SKU:               sku,
			ItemCurrency:      currency,
			PricelistCurrency: backend.PricelistCurrency,
			Backend:           backend.Name,
		}
	}

	itemPrice, err := parseReportAmount(rec.col(colItemPrice))
	if err != nil {
		return nil, fmt.Errorf("amazon: order %s: SKU %q: %w", orderID, sku, err)
	}
	itemTax, err := parseReportAmount(rec.col(colItemTax))
	if err != nil {
		return nil, fmt.Errorf("amazon: order %s: SKU %q: %w", orderID, sku, err)
	}
	shipPrice, err := parseReportAmount(rec.col(colShipPrice))
	if err != nil {
		return nil, fmt.Errorf("amazon: order %s: SKU %q: %w", orderID, sku, err)
	}
	shipTax, err := parseReportAmount(rec.col(colShipTax))
	if err != nil {
		return nil, fmt.Errorf("amazon: order %s: SKU %q: %w", orderID, sku, err)
	}

	return &amazon.SaleLineData{
		ItemID:    rec.col(colOrderItemID),
		SKU:       sku,
		Name:      amazon.LineName(sku, rec.col(colProductName)),
		Quantity:  qty,
		PriceUnit: itemPrice.Add(itemTax).Div(decimal.NewFromInt(int64(qty))),
		Shipping:  shipPrice.Add(shipTax),
	}, nil
}

// parseReportAmount parses a report money cell; an empty cell means zero.
func parseReportAmount(value string) (decimal.Decimal, error) {
	if value == "" {
		return decimal.Zero, nil
	}
	amount, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("malformed amount %q", value)
	}
	return amount, nil
}

// parseReportDate parses a report timestamp. Amazon writes RFC 3339 with a
// numeric offset, e.g. 2013-09-05T08:14:39+00:00.
func parseReportDate(value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("malformed date %q", value)
	}
	return t, nil
}

// ---------------------------------------------------------------------------
// Settlement report
// ---------------------------------------------------------------------------

// CountSettlementRows counts the data rows of a settlement flat file. The
// settlement pipeline records the row count for reconciliation; the rows
// themselves are not imported yet.
func CountSettlementRows(payload []byte, encodingName string) (int, error) {
	text, err := decodeReport(payload, encodingName)
	if err != nil {
		return 0, err
	}
	records, err := parseFlatFile(text, nil)
	if err != nil {
		return 0, err
	}
	return len(records), nil
}
