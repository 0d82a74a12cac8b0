package amazon

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Money is a marketplace-native monetary value: an amount string plus an
// ISO 4217 currency code, exactly as the API sends it.
type Money struct {
	Amount       string
	CurrencyCode string
}

// ExtractMoney validates and converts a marketplace money value. A nil value
// yields zero, not an error: the API omits money nodes for free components.
//
// When a backend is supplied the currency code must equal the backend's
// pricelist currency; a mismatch is fatal and non-retryable since currency
// conversion is unsupported. sku names the offending line in the error.
func ExtractMoney(m *Money, backend *Backend, sku string) (decimal.Decimal, error) {
	if m == nil {
		return decimal.Zero, nil
	}
	if backend != nil && m.CurrencyCode != backend.PricelistCurrency {
		return decimal.Zero, &CurrencyMismatchError{
			SKU:               sku,
			ItemCurrency:      m.CurrencyCode,
			PricelistCurrency: backend.PricelistCurrency,
			Backend:           backend.Name,
		}
	}
	amount, err := decimal.NewFromString(m.Amount)
	if err != nil {
		return decimal.Zero, fmt.Errorf("amazon: malformed money amount %q: %w", m.Amount, err)
	}
	return amount, nil
}
