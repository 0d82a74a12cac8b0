package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	appamazon "github.com/erp/amazon-connector/internal/application/amazon"
	"github.com/erp/amazon-connector/internal/domain/amazon"
	"github.com/erp/amazon-connector/internal/interfaces/http/dto"
)

// BackendHandler handles backend configuration and sync trigger requests
type BackendHandler struct {
	BaseHandler
	backendService *appamazon.BackendService
	reportService  *appamazon.ReportImportService
	saleService    *appamazon.SaleImportService
	fbaService     *appamazon.FBAImportService
}

// NewBackendHandler creates a new backend handler
func NewBackendHandler(
	backendService *appamazon.BackendService,
	reportService *appamazon.ReportImportService,
	saleService *appamazon.SaleImportService,
	fbaService *appamazon.FBAImportService,
) *BackendHandler {
	return &BackendHandler{
		backendService: backendService,
		reportService:  reportService,
		saleService:    saleService,
		fbaService:     fbaService,
	}
}

// RegisterRoutes registers the backend routes
func (h *BackendHandler) RegisterRoutes(rg *gin.RouterGroup) {
	backends := rg.Group("/backends")
	{
		backends.POST("", h.CreateBackend)
		backends.GET("", h.ListBackends)
		backends.GET("/:id", h.GetBackend)
		backends.PUT("/:id", h.UpdateBackend)
		backends.GET("/:id/bindings", h.ListBindings)
		backends.POST("/:id/bindings", h.BindSKU)
		backends.POST("/:id/import-reports", h.ImportReports)
		backends.POST("/:id/process-reports", h.ProcessReports)
		backends.POST("/:id/import-fba", h.ImportFBA)
	}
	rg.POST("/attachments/:id/process", h.ProcessAttachment)
}

// CreateBackend creates a new backend configuration
func (h *BackendHandler) CreateBackend(c *gin.Context) {
	var req CreateBackendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	backend, err := amazon.NewBackend(
		req.Name,
		amazon.MarketplaceHost(req.Host),
		req.Merchant,
		req.Marketplace,
		req.AccessKeyRef,
		req.PricelistCurrency,
	)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	applyBackendRequest(backend, req.Encoding, req.SalePrefix, req.WorkflowProcess,
		req.StatePolicy, req.FBA, req.FBASalePrefix, req.FBAWarehouse, req.FBAWorkflow,
		req.CallDelaySecond, req.ShippingProductID)

	if err := h.backendService.CreateBackend(c.Request.Context(), backend); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, NewBackendResponse(backend))
}

// ListBackends lists every configured backend
func (h *BackendHandler) ListBackends(c *gin.Context) {
	backends, err := h.backendService.ListBackends(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	responses := make([]BackendResponse, len(backends))
	for i := range backends {
		responses[i] = NewBackendResponse(&backends[i])
	}
	h.Success(c, responses)
}

// GetBackend returns one backend
func (h *BackendHandler) GetBackend(c *gin.Context) {
	id, ok := h.backendID(c)
	if !ok {
		return
	}
	backend, err := h.backendService.GetBackend(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, NewBackendResponse(backend))
}

// UpdateBackend updates a backend configuration
func (h *BackendHandler) UpdateBackend(c *gin.Context) {
	id, ok := h.backendID(c)
	if !ok {
		return
	}
	var req UpdateBackendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	backend, err := h.backendService.GetBackend(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	backend.Host = amazon.MarketplaceHost(req.Host)
	backend.Merchant = req.Merchant
	backend.Marketplace = req.Marketplace
	backend.AccessKeyRef = req.AccessKeyRef
	backend.PricelistCurrency = req.PricelistCurrency
	applyBackendRequest(backend, req.Encoding, req.SalePrefix, req.WorkflowProcess,
		req.StatePolicy, req.FBA, req.FBASalePrefix, req.FBAWarehouse, req.FBAWorkflow,
		req.CallDelaySecond, req.ShippingProductID)

	if err := h.backendService.UpdateBackend(c.Request.Context(), backend); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, NewBackendResponse(backend))
}

// ListBindings lists the SKU bindings of a backend
func (h *BackendHandler) ListBindings(c *gin.Context) {
	id, ok := h.backendID(c)
	if !ok {
		return
	}
	bindings, err := h.backendService.ListBindings(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	responses := make([]BindingResponse, len(bindings))
	for i := range bindings {
		responses[i] = NewBindingResponse(&bindings[i])
	}
	h.Success(c, responses)
}

// BindSKU binds a marketplace SKU to a local product
func (h *BackendHandler) BindSKU(c *gin.Context) {
	id, ok := h.backendID(c)
	if !ok {
		return
	}
	var req BindSKURequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		h.BadRequest(c, "Invalid product ID")
		return
	}

	binding, err := h.backendService.BindSKU(c.Request.Context(), id, productID, req.SKU)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, NewBindingResponse(binding))
}

// ImportReports triggers one report polling pass
func (h *BackendHandler) ImportReports(c *gin.Context) {
	id, ok := h.backendID(c)
	if !ok {
		return
	}
	result, err := h.reportService.ImportReports(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// ProcessReports triggers one attachment processing pass
func (h *BackendHandler) ProcessReports(c *gin.Context) {
	id, ok := h.backendID(c)
	if !ok {
		return
	}
	result, err := h.saleService.ProcessPendingReports(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// ImportFBA triggers one FBA order polling pass
func (h *BackendHandler) ImportFBA(c *gin.Context) {
	id, ok := h.backendID(c)
	if !ok {
		return
	}
	result, err := h.fbaService.ImportOrders(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// ProcessAttachment reprocesses one pending attachment by id
func (h *BackendHandler) ProcessAttachment(c *gin.Context) {
	var req dto.IDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		h.BadRequest(c, "Invalid attachment ID")
		return
	}
	id, err := uuid.Parse(req.ID)
	if err != nil {
		h.BadRequest(c, "Invalid attachment ID")
		return
	}
	if err := h.saleService.ProcessAttachment(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// backendID parses the :id path parameter
func (h *BackendHandler) backendID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid backend ID")
		return uuid.Nil, false
	}
	return id, true
}

// applyBackendRequest copies the optional settings shared by create and
// update requests onto the backend.
func applyBackendRequest(
	backend *amazon.Backend,
	encoding, salePrefix, workflow, statePolicy string,
	fba bool,
	fbaSalePrefix, fbaWarehouse, fbaWorkflow string,
	callDelay int,
	shippingProductID string,
) {
	if encoding != "" {
		backend.Encoding = encoding
	}
	backend.SalePrefix = salePrefix
	backend.WorkflowProcess = workflow
	if statePolicy != "" {
		backend.StatePolicy = amazon.StatePolicy(statePolicy)
	}
	backend.FBA = fba
	backend.FBASalePrefix = fbaSalePrefix
	backend.FBAWarehouse = fbaWarehouse
	backend.FBAWorkflow = fbaWorkflow
	if callDelay != 0 {
		backend.CallDelaySecond = callDelay
	}
	if id, err := uuid.Parse(shippingProductID); err == nil {
		backend.ShippingProductID = id
	}
}
