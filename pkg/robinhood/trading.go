package robinhood

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"crypto-bridge/internal/errs"
)

// OrderRequest describes one order to place. Quantity and prices are
// decimal strings, matching the upstream wire format.
type OrderRequest struct {
	Symbol        string `json:"symbol"`
	Side          string `json:"side"`
	Quantity      string `json:"quantity"`
	Type          string `json:"type,omitempty"`
	TimeInForce   string `json:"time_in_force,omitempty"`
	Price         string `json:"price,omitempty"`
	StopPrice     string `json:"stop_price,omitempty"`
	ClientOrderID string `json:"client_order_id,omitempty"`
}

// GetTradingPairs fetches tradable pairs, optionally filtered by symbol.
func (c *Client) GetTradingPairs(ctx context.Context, symbols []string) (json.RawMessage, error) {
	params := url.Values{}
	if len(symbols) > 0 {
		params.Set("symbol", strings.Join(symbols, ","))
	}
	return c.Do(ctx, http.MethodGet, "/api/v1/crypto/trading/trading_pairs/", params, "")
}

// PlaceOrder submits a new order. Type defaults to market and
// time_in_force to gtc. Price only applies to limit orders. A client
// order ID is generated when the caller does not supply one.
func (c *Client) PlaceOrder(ctx context.Context, req OrderRequest) (json.RawMessage, error) {
	if req.Type == "" {
		req.Type = "market"
	}
	if req.TimeInForce == "" {
		req.TimeInForce = "gtc"
	}
	if req.Type != "limit" {
		req.Price = ""
	}
	if req.ClientOrderID == "" {
		req.ClientOrderID = uuid.NewString()
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, errs.Wrap(errs.KindInvalid, "encode order request", err)
	}
	return c.Do(ctx, http.MethodPost, "/api/v1/crypto/trading/orders/", nil, string(body))
}

// Orders fetches orders, optionally filtered by status.
func (c *Client) Orders(ctx context.Context, status string) (json.RawMessage, error) {
	params := url.Values{}
	if status != "" {
		params.Set("status", status)
	}
	return c.Do(ctx, http.MethodGet, "/api/v1/crypto/trading/orders/", params, "")
}

// GetOrder fetches a single order by ID.
func (c *Client) GetOrder(ctx context.Context, orderID string) (json.RawMessage, error) {
	return c.Do(ctx, http.MethodGet, fmt.Sprintf("/api/v1/crypto/trading/orders/%s/", orderID), nil, "")
}

// CancelOrder requests cancellation of an order. The upstream exposes
// cancellation as a POST on the order's cancel subresource.
func (c *Client) CancelOrder(ctx context.Context, orderID string) (json.RawMessage, error) {
	return c.Do(ctx, http.MethodPost, fmt.Sprintf("/api/v1/crypto/trading/orders/%s/cancel/", orderID), nil, "")
}
