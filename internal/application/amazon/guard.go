package amazon

import (
	"context"

	"github.com/erp/amazon-connector/internal/domain/amazon"
	"github.com/erp/amazon-connector/internal/domain/trade"
)

// IdempotencyGuard decides whether an external order was already imported.
// The key is the prefixed sale name, so the FBA and report pipelines of one
// backend never collide while re-deliveries within a pipeline are skipped.
type IdempotencyGuard struct {
	orders trade.SaleOrderRepository
}

// NewIdempotencyGuard creates an IdempotencyGuard.
func NewIdempotencyGuard(orders trade.SaleOrderRepository) *IdempotencyGuard {
	return &IdempotencyGuard{orders: orders}
}

// ShouldSkip reports whether a sale with this external id already exists for
// the given fulfilment path of the backend.
func (g *IdempotencyGuard) ShouldSkip(ctx context.Context, backend *amazon.Backend, externalID string, fba bool) (bool, error) {
	return g.orders.ExistsByName(ctx, backend.SaleName(externalID, fba))
}
