package amazonmws

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/erp/amazon-connector/internal/domain/amazon"
)

// DefaultCooldown is how long a throttled call waits before its one retry.
// The marketplace restores request quota on a fixed schedule, so the
// cooldown is a constant rather than a backoff.
const DefaultCooldown = 60 * time.Second

// sleepFunc pauses between the throttled call and its retry. It must return
// early when the context is cancelled.
type sleepFunc func(ctx context.Context, d time.Duration)

func defaultSleep(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

// ThrottledClient wraps a MarketplaceClient with the rate-limit policy: a
// call that fails with the throttling signal waits out the cooldown and is
// retried exactly once. A second throttle surfaces to the caller.
type ThrottledClient struct {
	inner    amazon.MarketplaceClient
	cooldown time.Duration
	sleep    sleepFunc
	logger   *zap.Logger
}

// NewThrottledClient wraps a client with the default cooldown.
func NewThrottledClient(inner amazon.MarketplaceClient, logger *zap.Logger) *ThrottledClient {
	return &ThrottledClient{
		inner:    inner,
		cooldown: DefaultCooldown,
		sleep:    defaultSleep,
		logger:   logger,
	}
}

// WithCooldown overrides the cooldown, used by tests.
func (c *ThrottledClient) WithCooldown(d time.Duration) *ThrottledClient {
	c.cooldown = d
	return c
}

// withSleep overrides the pause, used by tests in this package.
func (c *ThrottledClient) withSleep(sleep sleepFunc) *ThrottledClient {
	c.sleep = sleep
	return c
}

// retry runs fn, and once more after the cooldown if it was throttled.
func (c *ThrottledClient) retry(ctx context.Context, action string, fn func() error) error {
	err := fn()
	if err == nil || !amazon.IsThrottled(err) {
		return err
	}

	c.logger.Warn("marketplace call throttled, waiting before retry",
		zap.String("action", action),
		zap.Duration("cooldown", c.cooldown))
	c.sleep(ctx, c.cooldown)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return fn()
}

func (c *ThrottledClient) ListReports(ctx context.Context, availableFrom time.Time, types []amazon.ReportType) (*amazon.ReportPage, error) {
	var page *amazon.ReportPage
	err := c.retry(ctx, "GetReportList", func() error {
		var err error
		page, err = c.inner.ListReports(ctx, availableFrom, types)
		return err
	})
	return page, err
}

func (c *ThrottledClient) ListReportsByNextToken(ctx context.Context, token string) (*amazon.ReportPage, error) {
	var page *amazon.ReportPage
	err := c.retry(ctx, "GetReportListByNextToken", func() error {
		var err error
		page, err = c.inner.ListReportsByNextToken(ctx, token)
		return err
	})
	return page, err
}

func (c *ThrottledClient) GetReport(ctx context.Context, reportID string) ([]byte, error) {
	var payload []byte
	err := c.retry(ctx, "GetReport", func() error {
		var err error
		payload, err = c.inner.GetReport(ctx, reportID)
		return err
	})
	return payload, err
}

func (c *ThrottledClient) ListOrders(ctx context.Context, updatedAfter time.Time, statuses []string, marketplaceID string) (*amazon.OrderPage, error) {
	var page *amazon.OrderPage
	err := c.retry(ctx, "ListOrders", func() error {
		var err error
		page, err = c.inner.ListOrders(ctx, updatedAfter, statuses, marketplaceID)
		return err
	})
	return page, err
}

func (c *ThrottledClient) ListOrdersByNextToken(ctx context.Context, token string) (*amazon.OrderPage, error) {
	var page *amazon.OrderPage
	err := c.retry(ctx, "ListOrdersByNextToken", func() error {
		var err error
		page, err = c.inner.ListOrdersByNextToken(ctx, token)
		return err
	})
	return page, err
}

func (c *ThrottledClient) ListOrderItems(ctx context.Context, amazonOrderID string) ([]amazon.OrderItem, error) {
	var items []amazon.OrderItem
	err := c.retry(ctx, "ListOrderItems", func() error {
		var err error
		items, err = c.inner.ListOrderItems(ctx, amazonOrderID)
		return err
	})
	return items, err
}

// Ensure ThrottledClient implements the marketplace port.
var _ amazon.MarketplaceClient = (*ThrottledClient)(nil)
