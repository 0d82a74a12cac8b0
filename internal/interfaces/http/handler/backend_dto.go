package handler

import (
	"time"

	"github.com/google/uuid"

	"github.com/erp/amazon-connector/internal/domain/amazon"
)

// CreateBackendRequest is the payload for creating a backend
type CreateBackendRequest struct {
	Name              string `json:"name" binding:"required,max=100"`
	Host              string `json:"host" binding:"required"`
	Merchant          string `json:"merchant" binding:"required"`
	Marketplace       string `json:"marketplace" binding:"required"`
	AccessKeyRef      string `json:"access_key_ref" binding:"required"`
	PricelistCurrency string `json:"pricelist_currency" binding:"required,len=3"`
	ShippingProductID string `json:"shipping_product_id" binding:"required,uuid"`
	Encoding          string `json:"encoding"`
	SalePrefix        string `json:"sale_prefix"`
	WorkflowProcess   string `json:"workflow_process"`
	StatePolicy       string `json:"state_policy" binding:"omitempty,oneof=strict lenient"`
	FBA               bool   `json:"fba"`
	FBASalePrefix     string `json:"fba_sale_prefix"`
	FBAWarehouse      string `json:"fba_warehouse"`
	FBAWorkflow       string `json:"fba_workflow"`
	CallDelaySecond   int    `json:"call_delay_second" binding:"omitempty,oneof=2 4 6"`
}

// UpdateBackendRequest is the payload for updating a backend. The watermarks
// are owned by the sync pipelines and cannot be set over the API.
type UpdateBackendRequest struct {
	Host              string `json:"host" binding:"required"`
	Merchant          string `json:"merchant" binding:"required"`
	Marketplace       string `json:"marketplace" binding:"required"`
	AccessKeyRef      string `json:"access_key_ref" binding:"required"`
	PricelistCurrency string `json:"pricelist_currency" binding:"required,len=3"`
	ShippingProductID string `json:"shipping_product_id" binding:"required,uuid"`
	Encoding          string `json:"encoding"`
	SalePrefix        string `json:"sale_prefix"`
	WorkflowProcess   string `json:"workflow_process"`
	StatePolicy       string `json:"state_policy" binding:"omitempty,oneof=strict lenient"`
	FBA               bool   `json:"fba"`
	FBASalePrefix     string `json:"fba_sale_prefix"`
	FBAWarehouse      string `json:"fba_warehouse"`
	FBAWorkflow       string `json:"fba_workflow"`
	CallDelaySecond   int    `json:"call_delay_second" binding:"omitempty,oneof=2 4 6"`
}

// BindSKURequest is the payload for binding a SKU to a product
type BindSKURequest struct {
	SKU       string `json:"sku" binding:"required,max=100"`
	ProductID string `json:"product_id" binding:"required,uuid"`
}

// BackendResponse is the API shape of a backend
type BackendResponse struct {
	ID                uuid.UUID `json:"id"`
	Name              string    `json:"name"`
	Host              string    `json:"host"`
	Merchant          string    `json:"merchant"`
	Marketplace       string    `json:"marketplace"`
	AccessKeyRef      string    `json:"access_key_ref"`
	Encoding          string    `json:"encoding"`
	PricelistCurrency string    `json:"pricelist_currency"`
	ShippingProductID uuid.UUID `json:"shipping_product_id"`
	SalePrefix        string    `json:"sale_prefix"`
	WorkflowProcess   string    `json:"workflow_process"`
	StatePolicy       string    `json:"state_policy"`
	FBA               bool      `json:"fba"`
	FBASalePrefix     string    `json:"fba_sale_prefix"`
	FBAWarehouse      string    `json:"fba_warehouse"`
	FBAWorkflow       string    `json:"fba_workflow"`
	CallDelaySecond   int       `json:"call_delay_second"`
	ReportImportFrom  time.Time `json:"report_import_from"`
	FBAImportFrom     time.Time `json:"fba_import_from"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// NewBackendResponse maps a backend to its API shape
func NewBackendResponse(b *amazon.Backend) BackendResponse {
	return BackendResponse{
		ID:                b.ID,
		Name:              b.Name,
		Host:              b.Host.String(),
		Merchant:          b.Merchant,
		Marketplace:       b.Marketplace,
		AccessKeyRef:      b.AccessKeyRef,
		Encoding:          b.Encoding,
		PricelistCurrency: b.PricelistCurrency,
		ShippingProductID: b.ShippingProductID,
		SalePrefix:        b.SalePrefix,
		WorkflowProcess:   b.WorkflowProcess,
		StatePolicy:       string(b.StatePolicy),
		FBA:               b.FBA,
		FBASalePrefix:     b.FBASalePrefix,
		FBAWarehouse:      b.FBAWarehouse,
		FBAWorkflow:       b.FBAWorkflow,
		CallDelaySecond:   b.CallDelaySecond,
		ReportImportFrom:  b.ReportImportFrom,
		FBAImportFrom:     b.FBAImportFrom,
		CreatedAt:         b.CreatedAt,
		UpdatedAt:         b.UpdatedAt,
	}
}

// BindingResponse is the API shape of a product binding
type BindingResponse struct {
	ID        uuid.UUID `json:"id"`
	BackendID uuid.UUID `json:"backend_id"`
	SKU       string    `json:"sku"`
	ProductID uuid.UUID `json:"product_id"`
	CreatedAt time.Time `json:"created_at"`
}

// NewBindingResponse maps a binding to its API shape
func NewBindingResponse(b *amazon.ProductBinding) BindingResponse {
	return BindingResponse{
		ID:        b.ID,
		BackendID: b.BackendID,
		SKU:       b.ExternalID,
		ProductID: b.ProductID,
		CreatedAt: b.CreatedAt,
	}
}
