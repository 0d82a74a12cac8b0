package amazon

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// Backend errors
	ErrBackendNotFound       = errors.New("amazon: backend not found")
	ErrBackendInvalidHost    = errors.New("amazon: invalid marketplace host")
	ErrBackendMissingName    = errors.New("amazon: backend name is required")
	ErrBackendMissingAccess  = errors.New("amazon: access key reference is required")
	ErrBackendMissingMarket  = errors.New("amazon: marketplace identifier is required")
	ErrBackendInvalidPolicy  = errors.New("amazon: invalid state resolution policy")
	ErrBackendInvalidDelay   = errors.New("amazon: invalid inter-call delay")
	ErrBackendInvalidCurr    = errors.New("amazon: pricelist currency is required")

	// Attachment errors
	ErrAttachmentNotFound      = errors.New("amazon: report attachment not found")
	ErrAttachmentExists        = errors.New("amazon: report already attached for this backend")
	ErrAttachmentNotPending    = errors.New("amazon: report attachment already processed")
	ErrReportTypeUnsupported   = errors.New("amazon: unsupported report type")

	// Binding errors
	ErrBindingNotFound = errors.New("amazon: product binding not found")

	// Resolution errors
	ErrUnknownCountry = errors.New("amazon: unknown country code")
	ErrUnknownState   = errors.New("amazon: unknown state")
	ErrUnboundSKU     = errors.New("amazon: no matching product binding")

	// Marketplace errors
	ErrMarketplaceCall = errors.New("amazon: marketplace call failed")
)

// CurrencyMismatchError is raised when a line's money currency differs from
// the backend's pricelist currency. Conversion is not supported; the order
// must be fixed upstream, so the error carries everything needed for manual
// remediation.
type CurrencyMismatchError struct {
	SKU               string
	ItemCurrency      string
	PricelistCurrency string
	Backend           string
}

func (e *CurrencyMismatchError) Error() string {
	return fmt.Sprintf(
		"amazon: currency %q used by SKU %q differs from currency %q of the pricelist of backend %q; import with currency conversion is not supported",
		e.ItemCurrency, e.SKU, e.PricelistCurrency, e.Backend)
}

// UnboundSKUError aggregates every SKU of an order that has no product
// binding. An order is imported whole or not at all, so the resolver collects
// all offenders before failing once.
type UnboundSKUError struct {
	Origin string
	SKUs   []string
}

func (e *UnboundSKUError) Error() string {
	return fmt.Sprintf("amazon: no matching product binding for SKU(s) '%s' in sale %s",
		strings.Join(e.SKUs, ", "), e.Origin)
}

func (e *UnboundSKUError) Unwrap() error { return ErrUnboundSKU }

// APIError is a failed marketplace request. Code carries the MWS error code
// when the response body contained one.
type APIError struct {
	Status int
	Code   string
	Reason string
	Body   string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("amazon: marketplace error %s (status %d): %s", e.Code, e.Status, e.Reason)
	}
	return fmt.Sprintf("amazon: marketplace error (status %d): %s", e.Status, e.Reason)
}

func (e *APIError) Unwrap() error { return ErrMarketplaceCall }

// throttledCode is the MWS error code signalling a rate limit.
const throttledCode = "RequestThrottled"

// Throttled reports whether the error is the marketplace rate-limit signal.
func (e *APIError) Throttled() bool { return e.Code == throttledCode }

// IsThrottled reports whether err (or anything it wraps) is a marketplace
// throttling signal.
func IsThrottled(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Throttled()
}
