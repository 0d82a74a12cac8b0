package amazon

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/erp/amazon-connector/internal/domain/amazon"
	"github.com/erp/amazon-connector/internal/domain/trade"
)

// SleepFunc pauses between marketplace calls. It must return early when the
// context is cancelled. Tests inject an instant implementation.
type SleepFunc func(ctx context.Context, d time.Duration)

// contextSleep is the default SleepFunc.
func contextSleep(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

// FBAImportResult summarises one FBA polling pass.
type FBAImportResult struct {
	Listed    int       `json:"listed"`
	Created   int       `json:"created"`
	Skipped   int       `json:"skipped"`
	Watermark time.Time `json:"watermark"`
}

// FBAImportService polls the order API for shipped FBA orders. Each order is
// fetched item by item with the backend's inter-call delay, resolved and
// written to the order store. The FBA watermark advances once per pass, to
// the newest last-update date listed, and only when the whole pass
// succeeded; already imported orders still push the watermark forward.
type FBAImportService struct {
	backends amazon.BackendRepository
	orders   trade.SaleOrderRepository
	clients  amazon.ClientFactory
	parser   *FBAOrderParser
	resolver *EntityResolver
	guard    *IdempotencyGuard
	sleep    SleepFunc
	logger   *zap.Logger
}

// NewFBAImportService creates an FBAImportService with the default
// context-aware sleep.
func NewFBAImportService(
	backends amazon.BackendRepository,
	orders trade.SaleOrderRepository,
	clients amazon.ClientFactory,
	parser *FBAOrderParser,
	resolver *EntityResolver,
	guard *IdempotencyGuard,
	logger *zap.Logger,
) *FBAImportService {
	return &FBAImportService{
		backends: backends,
		orders:   orders,
		clients:  clients,
		parser:   parser,
		resolver: resolver,
		guard:    guard,
		sleep:    contextSleep,
		logger:   logger,
	}
}

// WithSleep replaces the inter-call pause, used by tests.
func (s *FBAImportService) WithSleep(sleep SleepFunc) *FBAImportService {
	s.sleep = sleep
	return s
}

// ImportOrders runs one FBA polling pass for a backend.
func (s *FBAImportService) ImportOrders(ctx context.Context, backendID uuid.UUID) (*FBAImportResult, error) {
	backend, err := s.backends.FindByID(ctx, backendID)
	if err != nil {
		return nil, err
	}
	result := &FBAImportResult{Watermark: backend.FBAImportFrom}
	if !backend.FBA {
		s.logger.Debug("backend has no FBA fulfilment, skipping pass",
			zap.String("backend", backend.Name))
		return result, nil
	}
	client, err := s.clients.ClientFor(ctx, backend)
	if err != nil {
		return nil, err
	}

	orders, err := s.listOrders(ctx, client, backend)
	if err != nil {
		return nil, err
	}
	result.Listed = len(orders)
	if len(orders) == 0 {
		s.logger.Info("no shipped FBA orders since watermark",
			zap.String("backend", backend.Name),
			zap.Time("since", backend.FBAImportFrom))
		return result, nil
	}

	var newest time.Time
	for _, order := range orders {
		if order.LastUpdateDate.After(newest) {
			newest = order.LastUpdateDate
		}

		skip, err := s.guard.ShouldSkip(ctx, backend, order.AmazonOrderID, true)
		if err != nil {
			return nil, err
		}
		if skip {
			result.Skipped++
			s.logger.Debug("FBA order already imported, skipping",
				zap.String("backend", backend.Name),
				zap.String("origin", order.AmazonOrderID))
			continue
		}

		created, err := s.importOrder(ctx, client, backend, order)
		if err != nil {
			// The watermark stays put so the failed order is listed again
			// next pass.
			return nil, err
		}
		if created {
			result.Created++
		} else {
			result.Skipped++
		}
	}

	if backend.AdvanceFBAWatermark(newest) {
		if err := s.backends.UpdateFBAWatermark(ctx, backend.ID, newest); err != nil {
			return nil, err
		}
	}
	result.Watermark = backend.FBAImportFrom

	s.logger.Info("FBA polling pass finished",
		zap.String("backend", backend.Name),
		zap.Int("listed", result.Listed),
		zap.Int("created", result.Created),
		zap.Int("skipped", result.Skipped),
		zap.Time("watermark", result.Watermark))
	return result, nil
}

// listOrders walks every page of the shipped-orders listing since the FBA
// watermark.
func (s *FBAImportService) listOrders(ctx context.Context, client amazon.MarketplaceClient, backend *amazon.Backend) ([]amazon.Order, error) {
	page, err := client.ListOrders(ctx, backend.FBAImportFrom, []string{amazon.OrderStatusShipped}, backend.Marketplace)
	if err != nil {
		return nil, fmt.Errorf("listing FBA orders for backend %s: %w", backend.Name, err)
	}
	orders := page.Orders
	for page.NextToken != "" {
		s.sleep(ctx, backend.CallDelay())
		page, err = client.ListOrdersByNextToken(ctx, page.NextToken)
		if err != nil {
			return nil, fmt.Errorf("listing FBA orders for backend %s: %w", backend.Name, err)
		}
		orders = append(orders, page.Orders...)
	}
	return orders, nil
}

// importOrder fetches the items of one order, builds and resolves the sale
// and writes it to the order store. Returns false when the order produced no
// importable lines or lost a creation race.
func (s *FBAImportService) importOrder(ctx context.Context, client amazon.MarketplaceClient, backend *amazon.Backend, order amazon.Order) (bool, error) {
	s.sleep(ctx, backend.CallDelay())
	if err := ctx.Err(); err != nil {
		return false, err
	}

	items, err := client.ListOrderItems(ctx, order.AmazonOrderID)
	if err != nil {
		return false, fmt.Errorf("listing items of order %s: %w", order.AmazonOrderID, err)
	}

	sale, err := s.parser.BuildSale(backend, order, items)
	if err != nil {
		return false, err
	}
	if len(sale.Lines) == 0 {
		s.logger.Warn("FBA order has no importable lines, skipping",
			zap.String("backend", backend.Name),
			zap.String("origin", order.AmazonOrderID))
		return false, nil
	}
	sale.SourceRef = fmt.Sprintf("amazon.order_api,%s", order.AmazonOrderID)

	saleOrder, err := s.resolver.Resolve(ctx, backend, sale)
	if err != nil {
		return false, err
	}
	if err := s.orders.Create(ctx, saleOrder); err != nil {
		if errors.Is(err, trade.ErrSaleOrderExists) {
			return false, nil
		}
		return false, err
	}

	s.logger.Info("created sale order from FBA order",
		zap.String("backend", backend.Name),
		zap.String("name", saleOrder.Name),
		zap.Int("lines", len(saleOrder.Lines)))
	return true, nil
}
