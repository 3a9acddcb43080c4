package robinhood

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
)

// GetAccount fetches the crypto trading account details.
func (c *Client) GetAccount(ctx context.Context) (json.RawMessage, error) {
	return c.Do(ctx, http.MethodGet, "/api/v1/crypto/trading/accounts/", nil, "")
}

// GetHoldings fetches crypto holdings, optionally filtered by asset code.
// Multiple codes are comma-joined under a single asset_code parameter.
func (c *Client) GetHoldings(ctx context.Context, assetCodes []string) (json.RawMessage, error) {
	params := url.Values{}
	if len(assetCodes) > 0 {
		params.Set("asset_code", strings.Join(assetCodes, ","))
	}
	return c.Do(ctx, http.MethodGet, "/api/v1/crypto/trading/holdings/", params, "")
}
