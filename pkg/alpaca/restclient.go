package alpaca

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

// RESTClient is a narrow trading-API client. Only order placement is
// exposed; historical data and account endpoints are out of scope here.
type RESTClient struct {
	baseURL    string
	key        string
	secret     string
	httpClient *http.Client
}

func NewRESTClient(baseURL, key, secret string, timeout time.Duration) *RESTClient {
	return &RESTClient{
		baseURL:    baseURL,
		key:        key,
		secret:     secret,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// OrderRequest is the body of POST /v2/orders. Quantities and prices travel
// as decimal strings on the wire.
type OrderRequest struct {
	Symbol      string `json:"symbol"`
	Qty         string `json:"qty"`
	Side        string `json:"side"`
	Type        string `json:"type"`
	TimeInForce string `json:"time_in_force"`
	LimitPrice  string `json:"limit_price,omitempty"`
}

// Order is the broker's description of a placed order.
type Order struct {
	ID            string    `json:"id"`
	ClientOrderID string    `json:"client_order_id"`
	Symbol        string    `json:"symbol"`
	Qty           string    `json:"qty"`
	FilledQty     string    `json:"filled_qty"`
	Side          string    `json:"side"`
	Type          string    `json:"type"`
	TimeInForce   string    `json:"time_in_force"`
	LimitPrice    string    `json:"limit_price"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// FormatQty renders a share quantity as a wire decimal string.
func FormatQty(qty float64) string {
	return strconv.FormatFloat(qty, 'f', -1, 64)
}

// FormatPrice renders a limit price as a wire decimal string.
func FormatPrice(price float64) string {
	return strconv.FormatFloat(price, 'f', 4, 64)
}

// PlaceOrder submits an order and returns the broker's response.
func (c *RESTClient) PlaceOrder(ctx context.Context, order OrderRequest) (*Order, error) {
	endpoint := c.baseURL + "/v2/orders"

	body, err := json.Marshal(order)
	if err != nil {
		return nil, fmt.Errorf("encode order: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("APCA-API-KEY-ID", c.key)
	req.Header.Set("APCA-API-SECRET-KEY", c.secret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		var apiErr apiError
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Message != "" {
			return nil, fmt.Errorf("order rejected: %s (code %d)", apiErr.Message, apiErr.Code)
		}
		return nil, fmt.Errorf("order rejected: %s", raw)
	}

	var placed Order
	if err := json.NewDecoder(resp.Body).Decode(&placed); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return &placed, nil
}
