// Package amazonmws is the HTTP adapter to the Amazon Marketplace Web
// Service: request signing, the XML wire format and the throttling retry
// policy live here, behind the domain's MarketplaceClient port.
package amazonmws

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/erp/amazon-connector/internal/domain/amazon"
)

// maxResponseSize is the maximum allowed response size from the MWS API (10MB).
const maxResponseSize = 10 * 1024 * 1024

// API sections. MWS versions its APIs per section, each with its own path.
const (
	reportsPath    = "/"
	reportsVersion = "2009-01-01"
	ordersPath     = "/Orders/2013-09-01"
	ordersVersion  = "2013-09-01"
)

// fulfillmentChannelAFN restricts order listings to Amazon-fulfilled orders.
const fulfillmentChannelAFN = "AFN"

// mwsTimeFormat is the timestamp layout MWS expects in requests.
const mwsTimeFormat = "2006-01-02T15:04:05Z"

// Client talks to one regional MWS endpoint on behalf of one seller account.
// It implements the raw calls only; wrap it in a ThrottledClient to get the
// rate-limit retry policy.
type Client struct {
	httpClient  *http.Client
	host        string
	merchant    string
	marketplace string
	accessKey   string
	secretKey   string
	logger      *zap.Logger
}

// NewClient creates a raw MWS client for one backend's credentials.
func NewClient(httpClient *http.Client, backend *amazon.Backend, secretKey string, logger *zap.Logger) *Client {
	return &Client{
		httpClient:  httpClient,
		host:        backend.Host.String(),
		merchant:    backend.Merchant,
		marketplace: backend.Marketplace,
		accessKey:   backend.AccessKeyRef,
		secretKey:   secretKey,
		logger:      logger,
	}
}

// ---------------------------------------------------------------------------
// Reports API
// ---------------------------------------------------------------------------

// ListReports lists reports of the given types available since availableFrom.
func (c *Client) ListReports(ctx context.Context, availableFrom time.Time, types []amazon.ReportType) (*amazon.ReportPage, error) {
	params := url.Values{}
	params.Set("AvailableFromDate", availableFrom.UTC().Format(mwsTimeFormat))
	for i, t := range types {
		params.Set(fmt.Sprintf("ReportTypeList.Type.%d", i+1), t.String())
	}

	body, err := c.call(ctx, reportsPath, reportsVersion, "GetReportList", params)
	if err != nil {
		return nil, err
	}

	var resp getReportListResponse
	if err := xml.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("amazonmws: decoding GetReportList response: %w", err)
	}
	return resp.Result.toPage()
}

// ListReportsByNextToken fetches the next page of a report listing.
func (c *Client) ListReportsByNextToken(ctx context.Context, token string) (*amazon.ReportPage, error) {
	params := url.Values{}
	params.Set("NextToken", token)

	body, err := c.call(ctx, reportsPath, reportsVersion, "GetReportListByNextToken", params)
	if err != nil {
		return nil, err
	}

	var resp getReportListByNextTokenResponse
	if err := xml.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("amazonmws: decoding GetReportListByNextToken response: %w", err)
	}
	return resp.Result.toPage()
}

// GetReport downloads the raw flat-file payload of a report.
func (c *Client) GetReport(ctx context.Context, reportID string) ([]byte, error) {
	params := url.Values{}
	params.Set("ReportId", reportID)
	return c.call(ctx, reportsPath, reportsVersion, "GetReport", params)
}

// ---------------------------------------------------------------------------
// Orders API
// ---------------------------------------------------------------------------

// ListOrders lists Amazon-fulfilled orders updated after the given time.
func (c *Client) ListOrders(ctx context.Context, updatedAfter time.Time, statuses []string, marketplaceID string) (*amazon.OrderPage, error) {
	params := url.Values{}
	params.Set("LastUpdatedAfter", updatedAfter.UTC().Format(mwsTimeFormat))
	params.Set("FulfillmentChannel.Channel.1", fulfillmentChannelAFN)
	params.Set("MarketplaceId.Id.1", marketplaceID)
	for i, status := range statuses {
		params.Set(fmt.Sprintf("OrderStatus.Status.%d", i+1), status)
	}

	body, err := c.call(ctx, ordersPath, ordersVersion, "ListOrders", params)
	if err != nil {
		return nil, err
	}

	var resp listOrdersResponse
	if err := xml.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("amazonmws: decoding ListOrders response: %w", err)
	}
	return resp.Result.toPage()
}

// ListOrdersByNextToken fetches the next page of an order listing.
func (c *Client) ListOrdersByNextToken(ctx context.Context, token string) (*amazon.OrderPage, error) {
	params := url.Values{}
	params.Set("NextToken", token)

	body, err := c.call(ctx, ordersPath, ordersVersion, "ListOrdersByNextToken", params)
	if err != nil {
		return nil, err
	}

	var resp listOrdersByNextTokenResponse
	if err := xml.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("amazonmws: decoding ListOrdersByNextToken response: %w", err)
	}
	return resp.Result.toPage()
}

// ListOrderItems lists the items of one order.
func (c *Client) ListOrderItems(ctx context.Context, amazonOrderID string) ([]amazon.OrderItem, error) {
	params := url.Values{}
	params.Set("AmazonOrderId", amazonOrderID)

	body, err := c.call(ctx, ordersPath, ordersVersion, "ListOrderItems", params)
	if err != nil {
		return nil, err
	}

	var resp listOrderItemsResponse
	if err := xml.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("amazonmws: decoding ListOrderItems response: %w", err)
	}

	items := make([]amazon.OrderItem, 0, len(resp.Result.Items))
	for _, item := range resp.Result.Items {
		items = append(items, amazon.OrderItem{
			OrderItemID:     item.OrderItemID,
			SellerSKU:       item.SellerSKU,
			Title:           item.Title,
			QuantityOrdered: item.QuantityOrdered,
			ItemPrice:       item.ItemPrice.toMoney(),
			ItemTax:         item.ItemTax.toMoney(),
			ShippingPrice:   item.ShippingPrice.toMoney(),
			ShippingTax:     item.ShippingTax.toMoney(),
		})
	}
	return items, nil
}

// ---------------------------------------------------------------------------
// Transport
// ---------------------------------------------------------------------------

// call performs one signed MWS request and returns the response body. A
// non-200 response is decoded into an APIError carrying the MWS error code.
func (c *Client) call(ctx context.Context, path, version, action string, params url.Values) ([]byte, error) {
	values := url.Values{}
	for key, vals := range params {
		for _, v := range vals {
			values.Add(key, v)
		}
	}
	values.Set("AWSAccessKeyId", c.accessKey)
	values.Set("Action", action)
	values.Set("SellerId", c.merchant)
	values.Set("SignatureMethod", "HmacSHA256")
	values.Set("SignatureVersion", "2")
	values.Set("Timestamp", time.Now().UTC().Format(mwsTimeFormat))
	values.Set("Version", version)
	values.Set("Signature", c.sign(path, values))

	endpoint := "https://" + c.host + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(values.Encode()))
	if err != nil {
		return nil, fmt.Errorf("amazonmws: building %s request: %w", action, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("amazonmws: %s request failed: %w", action, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("amazonmws: reading %s response: %w", action, err)
	}

	c.logger.Debug("marketplace call",
		zap.String("action", action),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	if resp.StatusCode != http.StatusOK {
		return nil, newAPIError(resp.StatusCode, body)
	}
	return body, nil
}

// sign computes the Signature Version 2 HMAC-SHA256 signature over the
// sorted, RFC 3986 encoded parameter string.
func (c *Client) sign(path string, values url.Values) string {
	canonical := strings.Join([]string{
		http.MethodPost,
		c.host,
		path,
		strings.ReplaceAll(values.Encode(), "+", "%20"),
	}, "\n")

	mac := hmac.New(sha256.New, []byte(c.secretKey))
	mac.Write([]byte(canonical))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// newAPIError decodes an MWS error response body.
func newAPIError(status int, body []byte) *amazon.APIError {
	var parsed mwsErrorResponse
	apiErr := &amazon.APIError{Status: status, Body: string(body)}
	if err := xml.Unmarshal(body, &parsed); err == nil {
		apiErr.Code = parsed.Code
		apiErr.Reason = parsed.Message
	}
	if apiErr.Reason == "" {
		apiErr.Reason = http.StatusText(status)
	}
	return apiErr
}

// ---------------------------------------------------------------------------
// Wire format
// ---------------------------------------------------------------------------

type mwsErrorResponse struct {
	XMLName xml.Name `xml:"ErrorResponse"`
	Code    string   `xml:"Error>Code"`
	Message string   `xml:"Error>Message"`
}

type reportInfoXML struct {
	ReportID      string `xml:"ReportId"`
	ReportType    string `xml:"ReportType"`
	AvailableDate string `xml:"AvailableDate"`
}

type reportListResult struct {
	HasNext   bool            `xml:"HasNext"`
	NextToken string          `xml:"NextToken"`
	Reports   []reportInfoXML `xml:"ReportInfo"`
}

func (r *reportListResult) toPage() (*amazon.ReportPage, error) {
	page := &amazon.ReportPage{Reports: make([]amazon.ReportInfo, 0, len(r.Reports))}
	if r.HasNext {
		page.NextToken = r.NextToken
	}
	for _, info := range r.Reports {
		available, err := time.Parse(time.RFC3339, info.AvailableDate)
		if err != nil {
			return nil, fmt.Errorf("amazonmws: malformed report available date %q: %w", info.AvailableDate, err)
		}
		page.Reports = append(page.Reports, amazon.ReportInfo{
			ReportID:      info.ReportID,
			Type:          amazon.ReportType(info.ReportType),
			AvailableDate: available,
		})
	}
	return page, nil
}

type getReportListResponse struct {
	XMLName xml.Name         `xml:"GetReportListResponse"`
	Result  reportListResult `xml:"GetReportListResult"`
}

type getReportListByNextTokenResponse struct {
	XMLName xml.Name         `xml:"GetReportListByNextTokenResponse"`
	Result  reportListResult `xml:"GetReportListByNextTokenResult"`
}

type moneyXML struct {
	Amount       string `xml:"Amount"`
	CurrencyCode string `xml:"CurrencyCode"`
}

func (m *moneyXML) toMoney() *amazon.Money {
	if m == nil || (m.Amount == "" && m.CurrencyCode == "") {
		return nil
	}
	return &amazon.Money{Amount: m.Amount, CurrencyCode: m.CurrencyCode}
}

type addressXML struct {
	Name          string `xml:"Name"`
	AddressLine1  string `xml:"AddressLine1"`
	AddressLine2  string `xml:"AddressLine2"`
	AddressLine3  string `xml:"AddressLine3"`
	City          string `xml:"City"`
	StateOrRegion string `xml:"StateOrRegion"`
	PostalCode    string `xml:"PostalCode"`
	CountryCode   string `xml:"CountryCode"`
	Phone         string `xml:"Phone"`
}

type orderXML struct {
	AmazonOrderID   string      `xml:"AmazonOrderId"`
	PurchaseDate    string      `xml:"PurchaseDate"`
	LastUpdateDate  string      `xml:"LastUpdateDate"`
	OrderStatus     string      `xml:"OrderStatus"`
	BuyerEmail      string      `xml:"BuyerEmail"`
	BuyerName       string      `xml:"BuyerName"`
	ShippingAddress *addressXML `xml:"ShippingAddress"`
}

type orderListResult struct {
	NextToken string     `xml:"NextToken"`
	Orders    []orderXML `xml:"Orders>Order"`
}

func (r *orderListResult) toPage() (*amazon.OrderPage, error) {
	page := &amazon.OrderPage{
		Orders:    make([]amazon.Order, 0, len(r.Orders)),
		NextToken: r.NextToken,
	}
	for _, o := range r.Orders {
		purchase, err := time.Parse(time.RFC3339, o.PurchaseDate)
		if err != nil {
			return nil, fmt.Errorf("amazonmws: malformed purchase date %q: %w", o.PurchaseDate, err)
		}
		updated, err := time.Parse(time.RFC3339, o.LastUpdateDate)
		if err != nil {
			return nil, fmt.Errorf("amazonmws: malformed last update date %q: %w", o.LastUpdateDate, err)
		}
		order := amazon.Order{
			AmazonOrderID:  o.AmazonOrderID,
			PurchaseDate:   purchase,
			LastUpdateDate: updated,
			OrderStatus:    o.OrderStatus,
			BuyerEmail:     o.BuyerEmail,
			BuyerName:      o.BuyerName,
		}
		if a := o.ShippingAddress; a != nil {
			order.ShippingAddress = &amazon.OrderAddress{
				Name:          a.Name,
				AddressLine1:  a.AddressLine1,
				AddressLine2:  a.AddressLine2,
				AddressLine3:  a.AddressLine3,
				City:          a.City,
				StateOrRegion: a.StateOrRegion,
				PostalCode:    a.PostalCode,
				CountryCode:   a.CountryCode,
				Phone:         a.Phone,
			}
		}
		page.Orders = append(page.Orders, order)
	}
	return page, nil
}

type listOrdersResponse struct {
	XMLName xml.Name        `xml:"ListOrdersResponse"`
	Result  orderListResult `xml:"ListOrdersResult"`
}

type listOrdersByNextTokenResponse struct {
	XMLName xml.Name        `xml:"ListOrdersByNextTokenResponse"`
	Result  orderListResult `xml:"ListOrdersByNextTokenResult"`
}

type orderItemXML struct {
	OrderItemID     string    `xml:"OrderItemId"`
	SellerSKU       string    `xml:"SellerSKU"`
	Title           string    `xml:"Title"`
	QuantityOrdered int       `xml:"QuantityOrdered"`
	ItemPrice       *moneyXML `xml:"ItemPrice"`
	ItemTax         *moneyXML `xml:"ItemTax"`
	ShippingPrice   *moneyXML `xml:"ShippingPrice"`
	ShippingTax     *moneyXML `xml:"ShippingTax"`
}

type listOrderItemsResponse struct {
	XMLName xml.Name `xml:"ListOrderItemsResponse"`
	Result  struct {
		AmazonOrderID string         `xml:"AmazonOrderId"`
		Items         []orderItemXML `xml:"OrderItems>OrderItem"`
	} `xml:"ListOrderItemsResult"`
}

// Ensure Client implements the marketplace port.
var _ amazon.MarketplaceClient = (*Client)(nil)
