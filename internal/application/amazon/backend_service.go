package amazon

import (
	"context"

	"github.com/google/uuid"

	"github.com/erp/amazon-connector/internal/domain/amazon"
)

// BackendService manages marketplace backend configurations and their SKU
// bindings.
type BackendService struct {
	backends amazon.BackendRepository
	bindings amazon.ProductBindingRepository
}

// NewBackendService creates a BackendService.
func NewBackendService(backends amazon.BackendRepository, bindings amazon.ProductBindingRepository) *BackendService {
	return &BackendService{backends: backends, bindings: bindings}
}

// CreateBackend validates and stores a new backend configuration.
func (s *BackendService) CreateBackend(ctx context.Context, backend *amazon.Backend) error {
	if err := backend.Validate(); err != nil {
		return err
	}
	return s.backends.Save(ctx, backend)
}

// GetBackend returns one backend by id.
func (s *BackendService) GetBackend(ctx context.Context, id uuid.UUID) (*amazon.Backend, error) {
	return s.backends.FindByID(ctx, id)
}

// ListBackends returns every configured backend.
func (s *BackendService) ListBackends(ctx context.Context) ([]amazon.Backend, error) {
	return s.backends.FindAll(ctx)
}

// UpdateBackend validates and stores changes to a backend. The watermarks
// are owned by the sync pipelines and are not touched here.
func (s *BackendService) UpdateBackend(ctx context.Context, backend *amazon.Backend) error {
	if err := backend.Validate(); err != nil {
		return err
	}
	return s.backends.Save(ctx, backend)
}

// BindSKU maps a marketplace SKU to a local product within a backend.
func (s *BackendService) BindSKU(ctx context.Context, backendID, productID uuid.UUID, sku string) (*amazon.ProductBinding, error) {
	if _, err := s.backends.FindByID(ctx, backendID); err != nil {
		return nil, err
	}
	binding, err := amazon.NewProductBinding(backendID, productID, sku)
	if err != nil {
		return nil, err
	}
	if err := s.bindings.Save(ctx, binding); err != nil {
		return nil, err
	}
	return binding, nil
}

// ListBindings returns the SKU bindings of a backend.
func (s *BackendService) ListBindings(ctx context.Context, backendID uuid.UUID) ([]amazon.ProductBinding, error) {
	return s.bindings.FindAll(ctx, backendID)
}
