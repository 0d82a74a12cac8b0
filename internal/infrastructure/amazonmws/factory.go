package amazonmws

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/erp/amazon-connector/internal/domain/amazon"
)

// Factory builds throttled marketplace clients per backend, resolving the
// secret key through the credential vault at call time so rotated secrets
// take effect without a restart.
type Factory struct {
	vault      amazon.CredentialVault
	httpClient *http.Client
	cooldown   time.Duration
	logger     *zap.Logger
}

// NewFactory creates a client factory with the default throttle cooldown.
func NewFactory(vault amazon.CredentialVault, httpClient *http.Client, logger *zap.Logger) *Factory {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 120 * time.Second}
	}
	return &Factory{
		vault:      vault,
		httpClient: httpClient,
		cooldown:   DefaultCooldown,
		logger:     logger,
	}
}

// WithCooldown overrides the throttle cooldown of produced clients.
func (f *Factory) WithCooldown(d time.Duration) *Factory {
	f.cooldown = d
	return f
}

// ClientFor builds a client for one backend.
func (f *Factory) ClientFor(ctx context.Context, backend *amazon.Backend) (amazon.MarketplaceClient, error) {
	secret, err := f.vault.SecretKey(ctx, backend.AccessKeyRef)
	if err != nil {
		return nil, fmt.Errorf("amazonmws: resolving secret for backend %s: %w", backend.Name, err)
	}
	raw := NewClient(f.httpClient, backend, secret, f.logger)
	return NewThrottledClient(raw, f.logger).WithCooldown(f.cooldown), nil
}

// Ensure Factory implements the factory port.
var _ amazon.ClientFactory = (*Factory)(nil)
