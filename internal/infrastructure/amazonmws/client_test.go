package amazonmws

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/erp/amazon-connector/internal/domain/amazon"
)

// newTestClient spins up a TLS test server and a Client pointed at it. The
// handler receives the decoded form of every request.
func newTestClient(t *testing.T, handler func(w http.ResponseWriter, form url.Values)) *Client {
	t.Helper()
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		handler(w, r.PostForm)
	}))
	t.Cleanup(server.Close)

	backend := &amazon.Backend{
		Host:         amazon.MarketplaceHost(strings.TrimPrefix(server.URL, "https://")),
		Merchant:     "MERCHANT123",
		Marketplace:  "A1PA6795UKMFR9",
		AccessKeyRef: "AKIAEXAMPLE",
	}
	return NewClient(server.Client(), backend, "secret-key", zap.NewNop())
}

func TestClient_ListReports(t *testing.T) {
	var form url.Values
	client := newTestClient(t, func(w http.ResponseWriter, f url.Values) {
		form = f
		fmt.Fprint(w, `<?xml version="1.0"?>
<GetReportListResponse>
  <GetReportListResult>
    <HasNext>true</HasNext>
    <NextToken>tok-1</NextToken>
    <ReportInfo>
      <ReportId>r1</ReportId>
      <ReportType>_GET_FLAT_FILE_ORDERS_DATA_</ReportType>
      <AvailableDate>2024-05-02T08:14:39+00:00</AvailableDate>
    </ReportInfo>
    <ReportInfo>
      <ReportId>r2</ReportId>
      <ReportType>_GET_V2_SETTLEMENT_REPORT_DATA_FLAT_FILE_V2_</ReportType>
      <AvailableDate>2024-05-02T09:00:00+00:00</AvailableDate>
    </ReportInfo>
  </GetReportListResult>
</GetReportListResponse>`)
	})

	since := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	page, err := client.ListReports(context.Background(), since, amazon.SupportedReportTypes())
	require.NoError(t, err)

	assert.Equal(t, "tok-1", page.NextToken)
	require.Len(t, page.Reports, 2)
	assert.Equal(t, "r1", page.Reports[0].ReportID)
	assert.Equal(t, amazon.ReportTypeOrders, page.Reports[0].Type)
	assert.Equal(t, time.Date(2024, 5, 2, 8, 14, 39, 0, time.UTC), page.Reports[0].AvailableDate.UTC())

	assert.Equal(t, "GetReportList", form.Get("Action"))
	assert.Equal(t, "2009-01-01", form.Get("Version"))
	assert.Equal(t, "2024-05-01T00:00:00Z", form.Get("AvailableFromDate"))
	assert.Equal(t, "_GET_FLAT_FILE_ORDERS_DATA_", form.Get("ReportTypeList.Type.1"))
	assert.Equal(t, "_GET_V2_SETTLEMENT_REPORT_DATA_FLAT_FILE_V2_", form.Get("ReportTypeList.Type.2"))
	assert.Equal(t, "MERCHANT123", form.Get("SellerId"))
	assert.Equal(t, "AKIAEXAMPLE", form.Get("AWSAccessKeyId"))
}

func TestClient_ListReportsByNextToken(t *testing.T) {
	var form url.Values
	client := newTestClient(t, func(w http.ResponseWriter, f url.Values) {
		form = f
		fmt.Fprint(w, `<GetReportListByNextTokenResponse>
  <GetReportListByNextTokenResult>
    <HasNext>false</HasNext>
    <NextToken>ignored-on-last-page</NextToken>
    <ReportInfo>
      <ReportId>r3</ReportId>
      <ReportType>_GET_FLAT_FILE_ORDERS_DATA_</ReportType>
      <AvailableDate>2024-05-02T10:00:00Z</AvailableDate>
    </ReportInfo>
  </GetReportListByNextTokenResult>
</GetReportListByNextTokenResponse>`)
	})

	page, err := client.ListReportsByNextToken(context.Background(), "tok-1")
	require.NoError(t, err)
	assert.Empty(t, page.NextToken)
	require.Len(t, page.Reports, 1)
	assert.Equal(t, "GetReportListByNextToken", form.Get("Action"))
	assert.Equal(t, "tok-1", form.Get("NextToken"))
}

func TestClient_GetReport(t *testing.T) {
	var form url.Values
	client := newTestClient(t, func(w http.ResponseWriter, f url.Values) {
		form = f
		fmt.Fprint(w, "order-id\torder-item-id\n028-111\titem-1")
	})

	payload, err := client.GetReport(context.Background(), "r1")
	require.NoError(t, err)
	assert.Equal(t, "order-id\torder-item-id\n028-111\titem-1", string(payload))
	assert.Equal(t, "GetReport", form.Get("Action"))
	assert.Equal(t, "r1", form.Get("ReportId"))
}

func TestClient_ListOrders(t *testing.T) {
	var form url.Values
	client := newTestClient(t, func(w http.ResponseWriter, f url.Values) {
		form = f
		fmt.Fprint(w, `<ListOrdersResponse>
  <ListOrdersResult>
    <NextToken>tok-2</NextToken>
    <Orders>
      <Order>
        <AmazonOrderId>028-111</AmazonOrderId>
        <PurchaseDate>2024-05-01T12:00:00Z</PurchaseDate>
        <LastUpdateDate>2024-05-02T12:00:00Z</LastUpdateDate>
        <OrderStatus>Shipped</OrderStatus>
        <BuyerEmail>buyer@example.com</BuyerEmail>
        <BuyerName>Jane Buyer</BuyerName>
        <ShippingAddress>
          <Name>Jane Buyer</Name>
          <AddressLine1>Musterstr. 1</AddressLine1>
          <City>Berlin</City>
          <PostalCode>10115</PostalCode>
          <CountryCode>DE</CountryCode>
        </ShippingAddress>
      </Order>
      <Order>
        <AmazonOrderId>028-222</AmazonOrderId>
        <PurchaseDate>2024-05-01T13:00:00Z</PurchaseDate>
        <LastUpdateDate>2024-05-02T13:00:00Z</LastUpdateDate>
        <OrderStatus>Shipped</OrderStatus>
      </Order>
    </Orders>
  </ListOrdersResult>
</ListOrdersResponse>`)
	})

	since := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	page, err := client.ListOrders(context.Background(), since, []string{amazon.OrderStatusShipped}, "A1PA6795UKMFR9")
	require.NoError(t, err)

	assert.Equal(t, "tok-2", page.NextToken)
	require.Len(t, page.Orders, 2)
	first := page.Orders[0]
	assert.Equal(t, "028-111", first.AmazonOrderID)
	assert.Equal(t, time.Date(2024, 5, 2, 12, 0, 0, 0, time.UTC), first.LastUpdateDate.UTC())
	require.NotNil(t, first.ShippingAddress)
	assert.Equal(t, "DE", first.ShippingAddress.CountryCode)
	// withheld address stays nil
	assert.Nil(t, page.Orders[1].ShippingAddress)

	assert.Equal(t, "ListOrders", form.Get("Action"))
	assert.Equal(t, "2013-09-01", form.Get("Version"))
	assert.Equal(t, "2024-05-01T00:00:00Z", form.Get("LastUpdatedAfter"))
	assert.Equal(t, "AFN", form.Get("FulfillmentChannel.Channel.1"))
	assert.Equal(t, "A1PA6795UKMFR9", form.Get("MarketplaceId.Id.1"))
	assert.Equal(t, "Shipped", form.Get("OrderStatus.Status.1"))
}

func TestClient_ListOrderItems(t *testing.T) {
	var form url.Values
	client := newTestClient(t, func(w http.ResponseWriter, f url.Values) {
		form = f
		fmt.Fprint(w, `<ListOrderItemsResponse>
  <ListOrderItemsResult>
    <AmazonOrderId>028-111</AmazonOrderId>
    <OrderItems>
      <OrderItem>
        <OrderItemId>item-1</OrderItemId>
        <SellerSKU>SKU-A</SellerSKU>
        <Title>Blue Widget</Title>
        <QuantityOrdered>2</QuantityOrdered>
        <ItemPrice><Amount>20.00</Amount><CurrencyCode>EUR</CurrencyCode></ItemPrice>
        <ShippingPrice><Amount>3.00</Amount><CurrencyCode>EUR</CurrencyCode></ShippingPrice>
      </OrderItem>
    </OrderItems>
  </ListOrderItemsResult>
</ListOrderItemsResponse>`)
	})

	items, err := client.ListOrderItems(context.Background(), "028-111")
	require.NoError(t, err)
	require.Len(t, items, 1)

	item := items[0]
	assert.Equal(t, "item-1", item.OrderItemID)
	assert.Equal(t, 2, item.QuantityOrdered)
	require.NotNil(t, item.ItemPrice)
	assert.Equal(t, "20.00", item.ItemPrice.Amount)
	assert.Equal(t, "EUR", item.ItemPrice.CurrencyCode)
	// absent money nodes decode to nil
	assert.Nil(t, item.ItemTax)
	assert.Nil(t, item.ShippingTax)

	assert.Equal(t, "ListOrderItems", form.Get("Action"))
	assert.Equal(t, "028-111", form.Get("AmazonOrderId"))
}

func TestClient_Signature(t *testing.T) {
	var form url.Values
	var host string
	client := newTestClient(t, func(w http.ResponseWriter, f url.Values) {
		form = f
		fmt.Fprint(w, "payload")
	})
	host = client.host

	_, err := client.GetReport(context.Background(), "r1")
	require.NoError(t, err)

	signature := form.Get("Signature")
	require.NotEmpty(t, signature)
	assert.Equal(t, "HmacSHA256", form.Get("SignatureMethod"))
	assert.Equal(t, "2", form.Get("SignatureVersion"))

	// recompute the signature over the sorted parameter string
	values := url.Values{}
	for key, vals := range form {
		if key == "Signature" {
			continue
		}
		for _, v := range vals {
			values.Add(key, v)
		}
	}
	canonical := strings.Join([]string{
		http.MethodPost,
		host,
		"/",
		strings.ReplaceAll(values.Encode(), "+", "%20"),
	}, "\n")
	mac := hmac.New(sha256.New, []byte("secret-key"))
	mac.Write([]byte(canonical))
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	assert.Equal(t, expected, signature)
}

func TestClient_ErrorResponses(t *testing.T) {
	t.Run("decodes the MWS error body", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, _ url.Values) {
			w.WriteHeader(http.StatusServiceUnavailable)
			fmt.Fprint(w, `<ErrorResponse>
  <Error>
    <Code>RequestThrottled</Code>
    <Message>Request is throttled</Message>
  </Error>
</ErrorResponse>`)
		})

		_, err := client.GetReport(context.Background(), "r1")
		require.Error(t, err)

		var apiErr *amazon.APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusServiceUnavailable, apiErr.Status)
		assert.Equal(t, "RequestThrottled", apiErr.Code)
		assert.Equal(t, "Request is throttled", apiErr.Reason)
		assert.True(t, amazon.IsThrottled(err))
	})

	t.Run("non-XML error body falls back to the status text", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, _ url.Values) {
			w.WriteHeader(http.StatusInternalServerError)
			fmt.Fprint(w, "nope")
		})

		_, err := client.GetReport(context.Background(), "r1")
		var apiErr *amazon.APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
		assert.Empty(t, apiErr.Code)
		assert.Equal(t, "Internal Server Error", apiErr.Reason)
		assert.False(t, amazon.IsThrottled(err))
	})

	t.Run("malformed report date surfaces a decode error", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, _ url.Values) {
			fmt.Fprint(w, `<GetReportListResponse>
  <GetReportListResult>
    <ReportInfo>
      <ReportId>r1</ReportId>
      <ReportType>_GET_FLAT_FILE_ORDERS_DATA_</ReportType>
      <AvailableDate>yesterday</AvailableDate>
    </ReportInfo>
  </GetReportListResult>
</GetReportListResponse>`)
		})

		_, err := client.ListReports(context.Background(), time.Now(), amazon.SupportedReportTypes())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "malformed report available date")
	})
}
