package amazon

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/erp/amazon-connector/internal/domain/amazon"
	"github.com/erp/amazon-connector/internal/domain/partner"
	"github.com/erp/amazon-connector/internal/domain/trade"
)

// shippingLineName labels the synthetic line that carries the order's
// shipping cost.
const shippingLineName = "Amazon Shipping"

// EntityResolver turns canonical sale data into a persistable sale order:
// it resolves the buyer to a customer partner, the shipping address to a
// delivery address, every SKU to a bound product, and folds the shipping
// contributions into one synthetic line.
type EntityResolver struct {
	partners  partner.PartnerRepository
	countries partner.CountryRepository
	bindings  amazon.ProductBindingRepository
	logger    *zap.Logger
}

// NewEntityResolver creates an EntityResolver.
func NewEntityResolver(
	partners partner.PartnerRepository,
	countries partner.CountryRepository,
	bindings amazon.ProductBindingRepository,
	logger *zap.Logger,
) *EntityResolver {
	return &EntityResolver{
		partners:  partners,
		countries: countries,
		bindings:  bindings,
		logger:    logger,
	}
}

// Resolve builds a sale order from canonical sale data. An order resolves
// whole or not at all: every unbound SKU is collected before failing, and a
// country that cannot be resolved is always fatal. An unresolvable state is
// fatal only under the backend's strict policy; the lenient policy logs a
// warning and imports the address without a state.
func (r *EntityResolver) Resolve(ctx context.Context, backend *amazon.Backend, sale *amazon.SaleData) (*trade.SaleOrder, error) {
	query, err := r.resolveAddress(ctx, backend, sale)
	if err != nil {
		return nil, err
	}

	customer, err := r.resolveCustomer(ctx, sale)
	if err != nil {
		return nil, err
	}

	shipping, err := r.resolveShipping(ctx, customer, query)
	if err != nil {
		return nil, err
	}

	lines, err := r.resolveLines(ctx, backend, sale)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	order := &trade.SaleOrder{
		ID:                uuid.New(),
		Name:              backend.SaleName(sale.Origin, sale.FBA),
		Origin:            sale.Origin,
		ExternalSource:    sale.SourceRef,
		DateOrder:         sale.OrderDate,
		FBA:               sale.FBA,
		PartnerID:         customer.ID,
		PartnerShippingID: shipping.ID,
		Currency:          backend.PricelistCurrency,
		Warehouse:         sale.Warehouse,
		Workflow:          sale.Workflow,
		Lines:             lines,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	for i := range order.Lines {
		order.Lines[i].OrderID = order.ID
	}
	return order, order.Validate()
}

// resolveAddress resolves the country and state references of the shipping
// address and returns the exact-match query for delivery address lookup. The
// third street component is folded into the second, the address store only
// has two.
func (r *EntityResolver) resolveAddress(ctx context.Context, backend *amazon.Backend, sale *amazon.SaleData) (partner.AddressQuery, error) {
	query := partner.AddressQuery{
		Name:    sale.Ship.Name,
		Phone:   sale.Ship.Phone,
		Street:  sale.Ship.Street,
		Street2: joinStreets(sale.Ship.Street2, sale.Ship.Street3),
		City:    sale.Ship.City,
		Zip:     sale.Ship.Zip,
	}

	if sale.Ship.Country != "" {
		country, err := r.countries.FindByCode(ctx, sale.Ship.Country)
		if err != nil {
			if errors.Is(err, partner.ErrCountryNotFound) {
				return query, fmt.Errorf("%w: %q in sale %s", amazon.ErrUnknownCountry, sale.Ship.Country, sale.Origin)
			}
			return query, err
		}
		query.CountryID = &country.ID
	}

	if sale.Ship.State != "" {
		state, err := r.countries.FindStateByName(ctx, sale.Ship.State)
		switch {
		case err == nil:
			query.StateID = &state.ID
		case errors.Is(err, partner.ErrStateNotFound):
			if backend.StatePolicy == amazon.StatePolicyStrict {
				return query, fmt.Errorf("%w: %q in sale %s", amazon.ErrUnknownState, sale.Ship.State, sale.Origin)
			}
			r.logger.Warn("unresolvable state on imported address, leaving it unset",
				zap.String("backend", backend.Name),
				zap.String("origin", sale.Origin),
				zap.String("state", sale.Ship.State))
		default:
			return query, err
		}
	}

	return query, nil
}

// resolveCustomer finds the buyer by exact email match or creates a new
// customer partner.
func (r *EntityResolver) resolveCustomer(ctx context.Context, sale *amazon.SaleData) (*partner.Partner, error) {
	if sale.Buyer.Email != "" {
		customer, err := r.partners.FindByEmail(ctx, sale.Buyer.Email)
		if err == nil {
			return customer, nil
		}
		if !errors.Is(err, partner.ErrPartnerNotFound) {
			return nil, err
		}
	}

	name := sale.Buyer.Name
	if name == "" {
		name = sale.Ship.Name
	}
	customer := partner.NewCustomer(name, sale.Buyer.Email, sale.Buyer.Phone)
	if err := r.partners.Create(ctx, customer); err != nil {
		return nil, err
	}
	r.logger.Info("created customer from marketplace order",
		zap.String("partner_id", customer.ID.String()),
		zap.String("email", customer.Email))
	return customer, nil
}

// resolveShipping finds an existing delivery address matching the query
// exactly, inactive records included, or creates one under the customer. An
// archived address that matches is reused as-is; archiving must never cause
// a duplicate.
func (r *EntityResolver) resolveShipping(ctx context.Context, customer *partner.Partner, query partner.AddressQuery) (*partner.Partner, error) {
	address, err := r.partners.FindMatchingAddress(ctx, query)
	if err == nil {
		return address, nil
	}
	if !errors.Is(err, partner.ErrPartnerNotFound) {
		return nil, err
	}

	address = partner.NewDeliveryAddress(customer.ID, query)
	if address.Name == "" {
		address.Name = customer.Name
	}
	if err := r.partners.Create(ctx, address); err != nil {
		return nil, err
	}
	return address, nil
}

// resolveLines maps every SKU to its bound product and appends the synthetic
// shipping line. All unbound SKUs are reported together.
func (r *EntityResolver) resolveLines(ctx context.Context, backend *amazon.Backend, sale *amazon.SaleData) ([]trade.SaleOrderLine, error) {
	var (
		lines   = make([]trade.SaleOrderLine, 0, len(sale.Lines)+1)
		unbound []string
		now     = time.Now()
	)
	for _, line := range sale.Lines {
		binding, err := r.bindings.FindBySKU(ctx, backend.ID, line.SKU)
		if err != nil {
			if errors.Is(err, amazon.ErrBindingNotFound) {
				unbound = append(unbound, line.SKU)
				continue
			}
			return nil, err
		}
		lines = append(lines, trade.SaleOrderLine{
			ID:        uuid.New(),
			ProductID: binding.ProductID,
			ItemID:    line.ItemID,
			SKU:       line.SKU,
			Name:      line.Name,
			Quantity:  line.Quantity,
			PriceUnit: line.PriceUnit,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}
	if len(unbound) > 0 {
		return nil, &amazon.UnboundSKUError{Origin: sale.Origin, SKUs: unbound}
	}

	if shipping := sale.ShippingTotal(); shipping.IsPositive() {
		lines = append(lines, trade.SaleOrderLine{
			ID:        uuid.New(),
			ProductID: backend.ShippingProductID,
			Name:      shippingLineName,
			Quantity:  1,
			PriceUnit: shipping,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}
	return lines, nil
}

// joinStreets collapses the optional third street component into the second.
func joinStreets(street2, street3 string) string {
	parts := make([]string, 0, 2)
	for _, s := range []string{street2, street3} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}
