package amazon

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/erp/amazon-connector/internal/domain/amazon"
)

// FBAOrderParser turns an order API descriptor plus its items into canonical
// sale data. Unlike the flat-file report, the order API states amounts tax
// exclusive, so the per-unit price leaves tax out; the two formulas are
// separate on purpose and must stay separate.
type FBAOrderParser struct{}

// NewFBAOrderParser creates an FBAOrderParser.
func NewFBAOrderParser() *FBAOrderParser { return &FBAOrderParser{} }

// Strategy names the price formula of this parser.
func (p *FBAOrderParser) Strategy() amazon.PriceStrategy { return amazon.PriceTaxExclusive }

// BuildSale builds one canonical sale from an order and its items.
// Zero-quantity items are dropped; a sale may come back with no lines, in
// which case the caller skips it. The shipping address may be absent
// entirely, the marketplace withholds it on some fulfilment paths.
func (p *FBAOrderParser) BuildSale(backend *amazon.Backend, order amazon.Order, items []amazon.OrderItem) (*amazon.SaleData, error) {
	sale := &amazon.SaleData{
		Origin:    order.AmazonOrderID,
		OrderDate: order.PurchaseDate,
		FBA:       true,
		Buyer: amazon.Contact{
			Email: order.BuyerEmail,
			Name:  order.BuyerName,
		},
		Warehouse: backend.FBAWarehouse,
		Workflow:  backend.FBAWorkflow,
	}
	if addr := order.ShippingAddress; addr != nil {
		sale.Ship = amazon.DeliveryAddress{
			Name:    addr.Name,
			Street:  addr.AddressLine1,
			Street2: addr.AddressLine2,
			Street3: addr.AddressLine3,
			City:    addr.City,
			State:   addr.StateOrRegion,
			Zip:     addr.PostalCode,
			Country: addr.CountryCode,
			Phone:   addr.Phone,
		}
		if sale.Buyer.Name == "" {
			sale.Buyer.Name = addr.Name
		}
		if sale.Buyer.Phone == "" {
			sale.Buyer.Phone = addr.Phone
		}
	}

	for _, item := range items {
		if item.QuantityOrdered == 0 {
			continue
		}

		itemPrice, err := amazon.ExtractMoney(item.ItemPrice, backend, item.SellerSKU)
		if err != nil {
			return nil, fmt.Errorf("order %s: %w", order.AmazonOrderID, err)
		}
		shipPrice, err := amazon.ExtractMoney(item.ShippingPrice, backend, item.SellerSKU)
		if err != nil {
			return nil, fmt.Errorf("order %s: %w", order.AmazonOrderID, err)
		}
		shipTax, err := amazon.ExtractMoney(item.ShippingTax, backend, item.SellerSKU)
		if err != nil {
			return nil, fmt.Errorf("order %s: %w", order.AmazonOrderID, err)
		}

		sale.Lines = append(sale.Lines, amazon.SaleLineData{
			ItemID:    item.OrderItemID,
			SKU:       item.SellerSKU,
			Name:      amazon.LineName(item.SellerSKU, item.Title),
			Quantity:  item.QuantityOrdered,
			PriceUnit: itemPrice.Div(decimal.NewFromInt(int64(item.QuantityOrdered))),
			Shipping:  shipPrice.Add(shipTax),
		})
	}

	return sale, nil
}
