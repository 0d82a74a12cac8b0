package amazon

// In-memory fakes for the repository and marketplace ports, shared by the
// service tests in this package.

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/erp/amazon-connector/internal/domain/amazon"
	"github.com/erp/amazon-connector/internal/domain/partner"
	"github.com/erp/amazon-connector/internal/domain/trade"
)

// ---------------------------------------------------------------------------
// Backend repository
// ---------------------------------------------------------------------------

type fakeBackendRepo struct {
	backends         map[uuid.UUID]*amazon.Backend
	reportWatermarks []time.Time
	fbaWatermarks    []time.Time
	watermarkErr     error
}

func newFakeBackendRepo(backends ...*amazon.Backend) *fakeBackendRepo {
	r := &fakeBackendRepo{backends: make(map[uuid.UUID]*amazon.Backend)}
	for _, b := range backends {
		r.backends[b.ID] = b
	}
	return r
}

func (r *fakeBackendRepo) FindByID(_ context.Context, id uuid.UUID) (*amazon.Backend, error) {
	b, ok := r.backends[id]
	if !ok {
		return nil, amazon.ErrBackendNotFound
	}
	return b, nil
}

func (r *fakeBackendRepo) FindAll(context.Context) ([]amazon.Backend, error) {
	out := make([]amazon.Backend, 0, len(r.backends))
	for _, b := range r.backends {
		out = append(out, *b)
	}
	return out, nil
}

func (r *fakeBackendRepo) Save(_ context.Context, b *amazon.Backend) error {
	r.backends[b.ID] = b
	return nil
}

func (r *fakeBackendRepo) UpdateReportWatermark(_ context.Context, _ uuid.UUID, watermark time.Time) error {
	if r.watermarkErr != nil {
		return r.watermarkErr
	}
	r.reportWatermarks = append(r.reportWatermarks, watermark)
	return nil
}

func (r *fakeBackendRepo) UpdateFBAWatermark(_ context.Context, _ uuid.UUID, watermark time.Time) error {
	if r.watermarkErr != nil {
		return r.watermarkErr
	}
	r.fbaWatermarks = append(r.fbaWatermarks, watermark)
	return nil
}

// ---------------------------------------------------------------------------
// Attachment repository
// ---------------------------------------------------------------------------

type fakeAttachmentRepo struct {
	attachments []*amazon.ReportAttachment
	createErr   error
}

func (r *fakeAttachmentRepo) Create(_ context.Context, a *amazon.ReportAttachment) error {
	if r.createErr != nil {
		return r.createErr
	}
	for _, existing := range r.attachments {
		if existing.BackendID == a.BackendID && existing.AmazonReportID == a.AmazonReportID {
			return amazon.ErrAttachmentExists
		}
	}
	r.attachments = append(r.attachments, a)
	return nil
}

func (r *fakeAttachmentRepo) Exists(_ context.Context, backendID uuid.UUID, reportID string) (bool, error) {
	for _, a := range r.attachments {
		if a.BackendID == backendID && a.AmazonReportID == reportID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeAttachmentRepo) FindByID(_ context.Context, id uuid.UUID) (*amazon.ReportAttachment, error) {
	for _, a := range r.attachments {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, amazon.ErrAttachmentNotFound
}

func (r *fakeAttachmentRepo) FindPending(_ context.Context, backendID uuid.UUID) ([]amazon.ReportAttachment, error) {
	var out []amazon.ReportAttachment
	for _, a := range r.attachments {
		if a.BackendID == backendID && a.State == amazon.AttachmentStatePending {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (r *fakeAttachmentRepo) UpdateState(_ context.Context, a *amazon.ReportAttachment) error {
	for _, existing := range r.attachments {
		if existing.ID == a.ID {
			existing.State = a.State
			existing.StateMessage = a.StateMessage
			return nil
		}
	}
	return amazon.ErrAttachmentNotFound
}

func (r *fakeAttachmentRepo) byReportID(reportID string) *amazon.ReportAttachment {
	for _, a := range r.attachments {
		if a.AmazonReportID == reportID {
			return a
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Sale order repository
// ---------------------------------------------------------------------------

type fakeSaleOrderRepo struct {
	orders    map[string]*trade.SaleOrder
	createErr error
}

func newFakeSaleOrderRepo() *fakeSaleOrderRepo {
	return &fakeSaleOrderRepo{orders: make(map[string]*trade.SaleOrder)}
}

func (r *fakeSaleOrderRepo) Create(_ context.Context, order *trade.SaleOrder) error {
	if r.createErr != nil {
		return r.createErr
	}
	if _, ok := r.orders[order.Name]; ok {
		return trade.ErrSaleOrderExists
	}
	r.orders[order.Name] = order
	return nil
}

func (r *fakeSaleOrderRepo) ExistsByName(_ context.Context, name string) (bool, error) {
	_, ok := r.orders[name]
	return ok, nil
}

func (r *fakeSaleOrderRepo) FindByName(_ context.Context, name string) (*trade.SaleOrder, error) {
	order, ok := r.orders[name]
	if !ok {
		return nil, trade.ErrSaleOrderNotFound
	}
	return order, nil
}

func (r *fakeSaleOrderRepo) CountByExternalSource(_ context.Context, externalSource string) (int64, error) {
	var n int64
	for _, order := range r.orders {
		if order.ExternalSource == externalSource {
			n++
		}
	}
	return n, nil
}

// ---------------------------------------------------------------------------
// Partner and country repositories
// ---------------------------------------------------------------------------

type fakePartnerRepo struct {
	partners []*partner.Partner
}

func (r *fakePartnerRepo) FindByEmail(_ context.Context, email string) (*partner.Partner, error) {
	for _, p := range r.partners {
		if p.Email == email {
			return p, nil
		}
	}
	return nil, partner.ErrPartnerNotFound
}

func (r *fakePartnerRepo) FindMatchingAddress(_ context.Context, q partner.AddressQuery) (*partner.Partner, error) {
	for _, p := range r.partners {
		if p.Type != partner.PartnerTypeDelivery {
			continue
		}
		if p.Name == q.Name && p.Phone == q.Phone &&
			p.Street == q.Street && p.Street2 == q.Street2 &&
			p.City == q.City && p.Zip == q.Zip &&
			uuidPtrEqual(p.CountryID, q.CountryID) && uuidPtrEqual(p.StateID, q.StateID) {
			return p, nil
		}
	}
	return nil, partner.ErrPartnerNotFound
}

func (r *fakePartnerRepo) Create(_ context.Context, p *partner.Partner) error {
	r.partners = append(r.partners, p)
	return nil
}

func uuidPtrEqual(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

type fakeCountryRepo struct {
	countries map[string]*partner.Country
	states    map[string]*partner.CountryState
}

func newFakeCountryRepo() *fakeCountryRepo {
	return &fakeCountryRepo{
		countries: make(map[string]*partner.Country),
		states:    make(map[string]*partner.CountryState),
	}
}

func (r *fakeCountryRepo) addCountry(code string) *partner.Country {
	c := &partner.Country{ID: uuid.New(), Code: code, Name: code}
	r.countries[code] = c
	return c
}

func (r *fakeCountryRepo) addState(country *partner.Country, name string) *partner.CountryState {
	s := &partner.CountryState{ID: uuid.New(), CountryID: country.ID, Name: name}
	r.states[strings.ToLower(name)] = s
	return s
}

func (r *fakeCountryRepo) FindByCode(_ context.Context, code string) (*partner.Country, error) {
	c, ok := r.countries[code]
	if !ok {
		return nil, partner.ErrCountryNotFound
	}
	return c, nil
}

func (r *fakeCountryRepo) FindStateByName(_ context.Context, name string) (*partner.CountryState, error) {
	s, ok := r.states[strings.ToLower(name)]
	if !ok {
		return nil, partner.ErrStateNotFound
	}
	return s, nil
}

// ---------------------------------------------------------------------------
// Product binding repository
// ---------------------------------------------------------------------------

type fakeBindingRepo struct {
	bindings map[string]*amazon.ProductBinding
}

func newFakeBindingRepo() *fakeBindingRepo {
	return &fakeBindingRepo{bindings: make(map[string]*amazon.ProductBinding)}
}

func (r *fakeBindingRepo) bind(backendID uuid.UUID, sku string) uuid.UUID {
	productID := uuid.New()
	r.bindings[backendID.String()+"|"+sku] = &amazon.ProductBinding{
		ID:         uuid.New(),
		BackendID:  backendID,
		ExternalID: sku,
		ProductID:  productID,
	}
	return productID
}

func (r *fakeBindingRepo) FindBySKU(_ context.Context, backendID uuid.UUID, sku string) (*amazon.ProductBinding, error) {
	b, ok := r.bindings[backendID.String()+"|"+sku]
	if !ok {
		return nil, amazon.ErrBindingNotFound
	}
	return b, nil
}

func (r *fakeBindingRepo) FindAll(_ context.Context, backendID uuid.UUID) ([]amazon.ProductBinding, error) {
	var out []amazon.ProductBinding
	for _, b := range r.bindings {
		if b.BackendID == backendID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (r *fakeBindingRepo) Save(_ context.Context, b *amazon.ProductBinding) error {
	r.bindings[b.BackendID.String()+"|"+b.ExternalID] = b
	return nil
}

// ---------------------------------------------------------------------------
// Marketplace client
// ---------------------------------------------------------------------------

type fakeClient struct {
	reportPages map[string]*amazon.ReportPage // keyed by next token, "" is the first page
	reports     map[string][]byte
	orderPages  map[string]*amazon.OrderPage
	items       map[string][]amazon.OrderItem

	listReportsErr error
	getReportErr   map[string]error
	listOrdersErr  error
	listItemsErr   map[string]error

	getReportCalls []string
	itemCalls      []string
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		reportPages: make(map[string]*amazon.ReportPage),
		reports:     make(map[string][]byte),
		orderPages:  make(map[string]*amazon.OrderPage),
		items:       make(map[string][]amazon.OrderItem),
		getReportErr: make(map[string]error),
		listItemsErr: make(map[string]error),
	}
}

func (c *fakeClient) ListReports(_ context.Context, _ time.Time, _ []amazon.ReportType) (*amazon.ReportPage, error) {
	if c.listReportsErr != nil {
		return nil, c.listReportsErr
	}
	if page, ok := c.reportPages[""]; ok {
		return page, nil
	}
	return &amazon.ReportPage{}, nil
}

func (c *fakeClient) ListReportsByNextToken(_ context.Context, token string) (*amazon.ReportPage, error) {
	page, ok := c.reportPages[token]
	if !ok {
		return nil, &amazon.APIError{Status: 400, Reason: "unknown next token"}
	}
	return page, nil
}

func (c *fakeClient) GetReport(_ context.Context, reportID string) ([]byte, error) {
	c.getReportCalls = append(c.getReportCalls, reportID)
	if err := c.getReportErr[reportID]; err != nil {
		return nil, err
	}
	return c.reports[reportID], nil
}

func (c *fakeClient) ListOrders(_ context.Context, _ time.Time, _ []string, _ string) (*amazon.OrderPage, error) {
	if c.listOrdersErr != nil {
		return nil, c.listOrdersErr
	}
	if page, ok := c.orderPages[""]; ok {
		return page, nil
	}
	return &amazon.OrderPage{}, nil
}

func (c *fakeClient) ListOrdersByNextToken(_ context.Context, token string) (*amazon.OrderPage, error) {
	page, ok := c.orderPages[token]
	if !ok {
		return nil, &amazon.APIError{Status: 400, Reason: "unknown next token"}
	}
	return page, nil
}

func (c *fakeClient) ListOrderItems(_ context.Context, amazonOrderID string) ([]amazon.OrderItem, error) {
	c.itemCalls = append(c.itemCalls, amazonOrderID)
	if err := c.listItemsErr[amazonOrderID]; err != nil {
		return nil, err
	}
	return c.items[amazonOrderID], nil
}

type fakeClientFactory struct {
	client *fakeClient
	err    error
}

func (f *fakeClientFactory) ClientFor(_ context.Context, _ *amazon.Backend) (amazon.MarketplaceClient, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.client, nil
}

// interface checks
var (
	_ amazon.BackendRepository        = (*fakeBackendRepo)(nil)
	_ amazon.AttachmentRepository     = (*fakeAttachmentRepo)(nil)
	_ trade.SaleOrderRepository       = (*fakeSaleOrderRepo)(nil)
	_ partner.PartnerRepository       = (*fakePartnerRepo)(nil)
	_ partner.CountryRepository       = (*fakeCountryRepo)(nil)
	_ amazon.ProductBindingRepository = (*fakeBindingRepo)(nil)
	_ amazon.MarketplaceClient        = (*fakeClient)(nil)
	_ amazon.ClientFactory            = (*fakeClientFactory)(nil)
)
