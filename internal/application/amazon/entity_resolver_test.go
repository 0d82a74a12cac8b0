package amazon

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/erp/amazon-connector/internal/domain/amazon"
	"github.com/erp/amazon-connector/internal/domain/partner"
)

type resolverFixture struct {
	backend   *amazon.Backend
	partners  *fakePartnerRepo
	countries *fakeCountryRepo
	bindings  *fakeBindingRepo
	resolver  *EntityResolver
	logs      *observer.ObservedLogs
}

func newResolverFixture(t *testing.T) *resolverFixture {
	t.Helper()
	core, logs := observer.New(zap.WarnLevel)
	f := &resolverFixture{
		backend: &amazon.Backend{
			ID:                uuid.New(),
			Name:              "amazon-de",
			PricelistCurrency: "EUR",
			ShippingProductID: uuid.New(),
			SalePrefix:        "AMZ-",
			FBASalePrefix:     "FBA-",
			StatePolicy:       amazon.StatePolicyStrict,
		},
		partners:  &fakePartnerRepo{},
		countries: newFakeCountryRepo(),
		bindings:  newFakeBindingRepo(),
		logs:      logs,
	}
	f.countries.addCountry("DE")
	f.resolver = NewEntityResolver(f.partners, f.countries, f.bindings, zap.New(core))
	return f
}

func (f *resolverFixture) sale() *amazon.SaleData {
	return &amazon.SaleData{
		Origin:    "028-1234",
		OrderDate: time.Date(2024, 5, 2, 8, 0, 0, 0, time.UTC),
		SourceRef: "amazon.report_attachment,abc",
		Buyer:     amazon.Contact{Email: "buyer@example.com", Name: "Jane Buyer"},
		Ship: amazon.DeliveryAddress{
			Name:    "Jane Buyer",
			Street:  "Musterstr. 1",
			City:    "Berlin",
			Zip:     "10115",
			Country: "DE",
		},
		Lines: []amazon.SaleLineData{{
			ItemID:    "item-1",
			SKU:       "SKU-A",
			Name:      "[SKU-A] Blue Widget",
			Quantity:  2,
			PriceUnit: decimal.RequireFromString("9.99"),
		}},
	}
}

func TestEntityResolver_Resolve(t *testing.T) {
	ctx := context.Background()

	t.Run("creates customer, address and order", func(t *testing.T) {
		f := newResolverFixture(t)
		productID := f.bindings.bind(f.backend.ID, "SKU-A")

		order, err := f.resolver.Resolve(ctx, f.backend, f.sale())
		require.NoError(t, err)

		assert.Equal(t, "AMZ-028-1234", order.Name)
		assert.Equal(t, "028-1234", order.Origin)
		assert.Equal(t, "EUR", order.Currency)
		require.Len(t, order.Lines, 1)
		assert.Equal(t, productID, order.Lines[0].ProductID)
		assert.Equal(t, order.ID, order.Lines[0].OrderID)

		// one customer contact plus one delivery address under it
		require.Len(t, f.partners.partners, 2)
		customer, address := f.partners.partners[0], f.partners.partners[1]
		assert.Equal(t, partner.PartnerTypeContact, customer.Type)
		assert.Equal(t, customer.ID, order.PartnerID)
		assert.Equal(t, partner.PartnerTypeDelivery, address.Type)
		assert.Equal(t, customer.ID, *address.ParentID)
		assert.Equal(t, address.ID, order.PartnerShippingID)
		require.NotNil(t, address.CountryID)
	})

	t.Run("reuses customer matched by email", func(t *testing.T) {
		f := newResolverFixture(t)
		f.bindings.bind(f.backend.ID, "SKU-A")
		existing := partner.NewCustomer("Jane Buyer", "buyer@example.com", "")
		require.NoError(t, f.partners.Create(ctx, existing))

		order, err := f.resolver.Resolve(ctx, f.backend, f.sale())
		require.NoError(t, err)
		assert.Equal(t, existing.ID, order.PartnerID)
		// only the delivery address was created
		assert.Len(t, f.partners.partners, 2)
	})

	t.Run("reuses matching delivery address even when archived", func(t *testing.T) {
		f := newResolverFixture(t)
		f.bindings.bind(f.backend.ID, "SKU-A")
		customer := partner.NewCustomer("Jane Buyer", "buyer@example.com", "")
		require.NoError(t, f.partners.Create(ctx, customer))

		country := f.countries.countries["DE"]
		archived := partner.NewDeliveryAddress(customer.ID, partner.AddressQuery{
			Name:      "Jane Buyer",
			Street:    "Musterstr. 1",
			City:      "Berlin",
			Zip:       "10115",
			CountryID: &country.ID,
		})
		archived.Active = false
		require.NoError(t, f.partners.Create(ctx, archived))

		order, err := f.resolver.Resolve(ctx, f.backend, f.sale())
		require.NoError(t, err)
		assert.Equal(t, archived.ID, order.PartnerShippingID)
		assert.Len(t, f.partners.partners, 2)
	})

	t.Run("folds third street component into the second", func(t *testing.T) {
		f := newResolverFixture(t)
		f.bindings.bind(f.backend.ID, "SKU-A")
		sale := f.sale()
		sale.Ship.Street2 = "Building B"
		sale.Ship.Street3 = "Floor 3"

		_, err := f.resolver.Resolve(ctx, f.backend, sale)
		require.NoError(t, err)
		assert.Equal(t, "Building B Floor 3", f.partners.partners[1].Street2)
	})

	t.Run("unknown country is always fatal", func(t *testing.T) {
		f := newResolverFixture(t)
		f.bindings.bind(f.backend.ID, "SKU-A")
		sale := f.sale()
		sale.Ship.Country = "XX"

		_, err := f.resolver.Resolve(ctx, f.backend, sale)
		assert.ErrorIs(t, err, amazon.ErrUnknownCountry)
	})

	t.Run("unknown state under strict policy", func(t *testing.T) {
		f := newResolverFixture(t)
		f.bindings.bind(f.backend.ID, "SKU-A")
		sale := f.sale()
		sale.Ship.State = "Atlantis"

		_, err := f.resolver.Resolve(ctx, f.backend, sale)
		assert.ErrorIs(t, err, amazon.ErrUnknownState)
	})

	t.Run("unknown state under lenient policy warns and imports", func(t *testing.T) {
		f := newResolverFixture(t)
		f.backend.StatePolicy = amazon.StatePolicyLenient
		f.bindings.bind(f.backend.ID, "SKU-A")
		sale := f.sale()
		sale.Ship.State = "Atlantis"

		order, err := f.resolver.Resolve(ctx, f.backend, sale)
		require.NoError(t, err)
		assert.Nil(t, f.partners.partners[1].StateID)
		assert.NotNil(t, order)
		require.Equal(t, 1, f.logs.Len())
		assert.Contains(t, f.logs.All()[0].Message, "unresolvable state")
	})

	t.Run("state resolves case insensitively", func(t *testing.T) {
		f := newResolverFixture(t)
		f.bindings.bind(f.backend.ID, "SKU-A")
		state := f.countries.addState(f.countries.countries["DE"], "Berlin")
		sale := f.sale()
		sale.Ship.State = "BERLIN"

		_, err := f.resolver.Resolve(ctx, f.backend, sale)
		require.NoError(t, err)
		require.NotNil(t, f.partners.partners[1].StateID)
		assert.Equal(t, state.ID, *f.partners.partners[1].StateID)
	})

	t.Run("collects every unbound SKU before failing", func(t *testing.T) {
		f := newResolverFixture(t)
		f.bindings.bind(f.backend.ID, "SKU-B")
		sale := f.sale()
		sale.Lines = append(sale.Lines,
			amazon.SaleLineData{SKU: "SKU-B", Name: "[SKU-B] Bound", Quantity: 1},
			amazon.SaleLineData{SKU: "SKU-C", Name: "[SKU-C] Unbound", Quantity: 1},
		)

		_, err := f.resolver.Resolve(ctx, f.backend, sale)
		var unbound *amazon.UnboundSKUError
		require.ErrorAs(t, err, &unbound)
		assert.Equal(t, []string{"SKU-A", "SKU-C"}, unbound.SKUs)
		assert.Equal(t, "028-1234", unbound.Origin)
	})

	t.Run("positive shipping total becomes a synthetic line", func(t *testing.T) {
		f := newResolverFixture(t)
		f.bindings.bind(f.backend.ID, "SKU-A")
		sale := f.sale()
		sale.Lines[0].Shipping = decimal.RequireFromString("4.80")

		order, err := f.resolver.Resolve(ctx, f.backend, sale)
		require.NoError(t, err)
		require.Len(t, order.Lines, 2)

		shipping := order.Lines[1]
		assert.Equal(t, "Amazon Shipping", shipping.Name)
		assert.Equal(t, f.backend.ShippingProductID, shipping.ProductID)
		assert.Equal(t, 1, shipping.Quantity)
		assert.True(t, shipping.PriceUnit.Equal(decimal.RequireFromString("4.80")))
	})

	t.Run("zero shipping adds no synthetic line", func(t *testing.T) {
		f := newResolverFixture(t)
		f.bindings.bind(f.backend.ID, "SKU-A")

		order, err := f.resolver.Resolve(ctx, f.backend, f.sale())
		require.NoError(t, err)
		assert.Len(t, order.Lines, 1)
	})

	t.Run("FBA sale uses the FBA prefix", func(t *testing.T) {
		f := newResolverFixture(t)
		f.bindings.bind(f.backend.ID, "SKU-A")
		sale := f.sale()
		sale.FBA = true

		order, err := f.resolver.Resolve(ctx, f.backend, sale)
		require.NoError(t, err)
		assert.Equal(t, "FBA-028-1234", order.Name)
		assert.True(t, order.FBA)
	})
}
