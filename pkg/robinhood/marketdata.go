package robinhood

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"crypto-bridge/internal/errs"
)

// GetBestBidAsk fetches best bid/ask quotes, optionally filtered by
// symbol. Multiple symbols are comma-joined under a single parameter.
func (c *Client) GetBestBidAsk(ctx context.Context, symbols []string) (json.RawMessage, error) {
	params := url.Values{}
	if len(symbols) > 0 {
		params.Set("symbol", strings.Join(symbols, ","))
	}
	return c.Do(ctx, http.MethodGet, "/api/v1/crypto/marketdata/best_bid_ask/", params, "")
}

// BestBidAskBySymbol fetches quotes for the given symbols and keys each
// entry of the results array by its symbol field, the shape the
// broadcast poller consumes. Entries without a symbol are skipped.
func (c *Client) BestBidAskBySymbol(ctx context.Context, symbols []string) (map[string]json.RawMessage, error) {
	raw, err := c.GetBestBidAsk(ctx, symbols)
	if err != nil {
		return nil, err
	}
	var payload struct {
		Results []json.RawMessage `json:"results"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, errs.Wrap(errs.KindTransport, "decode best_bid_ask response", err)
	}
	quotes := make(map[string]json.RawMessage, len(payload.Results))
	for _, entry := range payload.Results {
		var key struct {
			Symbol string `json:"symbol"`
		}
		if err := json.Unmarshal(entry, &key); err != nil || key.Symbol == "" {
			continue
		}
		quotes[key.Symbol] = entry
	}
	return quotes, nil
}

// GetEstimatedPrice fetches the estimated execution price for one trade.
func (c *Client) GetEstimatedPrice(ctx context.Context, symbol, side, quantity string) (json.RawMessage, error) {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("side", side)
	params.Set("quantity", quantity)
	return c.Do(ctx, http.MethodGet, "/api/v1/crypto/marketdata/estimated_price/", params, "")
}
