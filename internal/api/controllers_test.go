package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"crypto-bridge/internal/errs"
	"crypto-bridge/internal/monitor"
	"crypto-bridge/pkg/robinhood"
)

type fakeBroker struct {
	mu         sync.Mutex
	data       json.RawMessage
	err        error
	auth       robinhood.AuthStatus
	gotCodes   []string
	gotSymbols []string
	gotStatus  string
	gotOrder   robinhood.OrderRequest
	gotOrderID string
	gotSide    string
	gotQty     string
}

func (f *fakeBroker) result() (json.RawMessage, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.data == nil {
		return json.RawMessage(`{}`), nil
	}
	return f.data, nil
}

func (f *fakeBroker) CheckAuth(ctx context.Context) robinhood.AuthStatus { return f.auth }

func (f *fakeBroker) GetAccount(ctx context.Context) (json.RawMessage, error) {
	return f.result()
}

func (f *fakeBroker) GetHoldings(ctx context.Context, assetCodes []string) (json.RawMessage, error) {
	f.mu.Lock()
	f.gotCodes = assetCodes
	f.mu.Unlock()
	return f.result()
}

func (f *fakeBroker) GetBestBidAsk(ctx context.Context, symbols []string) (json.RawMessage, error) {
	f.mu.Lock()
	f.gotSymbols = symbols
	f.mu.Unlock()
	return f.result()
}

func (f *fakeBroker) GetEstimatedPrice(ctx context.Context, symbol, side, quantity string) (json.RawMessage, error) {
	f.mu.Lock()
	f.gotSymbols = []string{symbol}
	f.gotSide = side
	f.gotQty = quantity
	f.mu.Unlock()
	return f.result()
}

func (f *fakeBroker) GetTradingPairs(ctx context.Context, symbols []string) (json.RawMessage, error) {
	f.mu.Lock()
	f.gotSymbols = symbols
	f.mu.Unlock()
	return f.result()
}

func (f *fakeBroker) PlaceOrder(ctx context.Context, req robinhood.OrderRequest) (json.RawMessage, error) {
	f.mu.Lock()
	f.gotOrder = req
	f.mu.Unlock()
	return f.result()
}

func (f *fakeBroker) Orders(ctx context.Context, status string) (json.RawMessage, error) {
	f.mu.Lock()
	f.gotStatus = status
	f.mu.Unlock()
	return f.result()
}

func (f *fakeBroker) GetOrder(ctx context.Context, orderID string) (json.RawMessage, error) {
	f.mu.Lock()
	f.gotOrderID = orderID
	f.mu.Unlock()
	return f.result()
}

func (f *fakeBroker) CancelOrder(ctx context.Context, orderID string) (json.RawMessage, error) {
	f.mu.Lock()
	f.gotOrderID = orderID
	f.mu.Unlock()
	return f.result()
}

type envelope struct {
	Status    string          `json:"status"`
	Data      json.RawMessage `json:"data"`
	Message   string          `json:"message"`
	ErrorType string          `json:"error_type"`
	Detail    string          `json:"detail"`
}

func newTestAPIServer(t *testing.T, broker *fakeBroker, cfg ServerConfig) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	server := NewServer(zap.NewNop(), broker, monitor.NewMetrics(), cfg)
	ts := httptest.NewServer(server.Router)
	t.Cleanup(ts.Close)
	return ts
}

func doJSONRequest(t *testing.T, method, url string, payload any, out any) int {
	t.Helper()

	var buf bytes.Buffer
	if payload != nil {
		if err := json.NewEncoder(&buf).Encode(payload); err != nil {
			t.Fatalf("encode payload: %v", err)
		}
	}

	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode response: %v", err)
		}
	}
	return resp.StatusCode
}

func TestRootEndpoint(t *testing.T) {
	ts := newTestAPIServer(t, &fakeBroker{}, ServerConfig{})

	var resp envelope
	status := doJSONRequest(t, http.MethodGet, ts.URL+"/", nil, &resp)
	if status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if resp.Status != "success" || resp.Message != "Server is running" {
		t.Fatalf("envelope = %+v", resp)
	}
	var data struct {
		Name   string `json:"name"`
		Status string `json:"status"`
	}
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if data.Status != "running" {
		t.Fatalf("data = %+v", data)
	}
}

func TestHealthEndpoint(t *testing.T) {
	ts := newTestAPIServer(t, &fakeBroker{}, ServerConfig{})

	var resp map[string]string
	if status := doJSONRequest(t, http.MethodGet, ts.URL+"/health", nil, &resp); status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if resp["status"] != "ok" {
		t.Fatalf("resp = %v", resp)
	}
}

func TestAuthStatusEndpoint(t *testing.T) {
	broker := &fakeBroker{auth: robinhood.AuthStatus{
		Status: "authenticated", Message: "Authentication successful", Timestamp: 1700000000,
	}}
	ts := newTestAPIServer(t, broker, ServerConfig{})

	var resp envelope
	if status := doJSONRequest(t, http.MethodGet, ts.URL+"/auth/status", nil, &resp); status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	var auth robinhood.AuthStatus
	if err := json.Unmarshal(resp.Data, &auth); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if auth.Status != "authenticated" || auth.Timestamp != 1700000000 {
		t.Fatalf("auth = %+v", auth)
	}
}

func TestAccountEndpointWrapsUpstreamData(t *testing.T) {
	broker := &fakeBroker{data: json.RawMessage(`{"account_number":"A1","status":"active"}`)}
	ts := newTestAPIServer(t, broker, ServerConfig{})

	var resp envelope
	if status := doJSONRequest(t, http.MethodGet, ts.URL+"/account", nil, &resp); status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if resp.Status != "success" || string(resp.Data) != `{"account_number":"A1","status":"active"}` {
		t.Fatalf("envelope = %+v", resp)
	}
}

func TestHoldingsPassesAssetCodes(t *testing.T) {
	broker := &fakeBroker{}
	ts := newTestAPIServer(t, broker, ServerConfig{})

	doJSONRequest(t, http.MethodGet, ts.URL+"/account/holdings?asset_code=BTC,ETH", nil, nil)

	broker.mu.Lock()
	defer broker.mu.Unlock()
	if len(broker.gotCodes) != 2 || broker.gotCodes[0] != "BTC" || broker.gotCodes[1] != "ETH" {
		t.Fatalf("asset codes = %v", broker.gotCodes)
	}
}

func TestEstimatedPriceRequiresParams(t *testing.T) {
	ts := newTestAPIServer(t, &fakeBroker{}, ServerConfig{})

	var resp envelope
	status := doJSONRequest(t, http.MethodGet, ts.URL+"/market/estimated-price?symbol=BTC-USD&side=ask", nil, &resp)
	if status != http.StatusBadRequest {
		t.Fatalf("status = %d", status)
	}
	if resp.Status != "error" || resp.ErrorType != "validation_error" {
		t.Fatalf("envelope = %+v", resp)
	}
}

func TestUpstreamErrorMapsToBadGateway(t *testing.T) {
	broker := &fakeBroker{err: errs.WithHTTP(errs.KindTransport, 404, "robinhood GET /api/v1/crypto/trading/accounts/: order not found")}
	ts := newTestAPIServer(t, broker, ServerConfig{})

	var resp envelope
	status := doJSONRequest(t, http.MethodGet, ts.URL+"/account", nil, &resp)
	if status != http.StatusBadGateway {
		t.Fatalf("status = %d", status)
	}
	if resp.ErrorType != "upstream_error" {
		t.Fatalf("error_type = %q", resp.ErrorType)
	}
	if !bytes.Contains([]byte(resp.Detail), []byte("404")) {
		t.Fatalf("detail lost upstream status: %q", resp.Detail)
	}
}

func TestNetworkErrorMapsToBadGateway(t *testing.T) {
	broker := &fakeBroker{err: errs.Wrap(errs.KindTransport, "robinhood GET /account", errors.New("connection refused"))}
	ts := newTestAPIServer(t, broker, ServerConfig{})

	var resp envelope
	status := doJSONRequest(t, http.MethodGet, ts.URL+"/account", nil, &resp)
	if status != http.StatusBadGateway {
		t.Fatalf("status = %d", status)
	}
	if resp.ErrorType != "network_error" {
		t.Fatalf("error_type = %q", resp.ErrorType)
	}
}

func TestUnknownErrorMapsToInternal(t *testing.T) {
	broker := &fakeBroker{err: errors.New("boom")}
	ts := newTestAPIServer(t, broker, ServerConfig{})

	var resp envelope
	status := doJSONRequest(t, http.MethodGet, ts.URL+"/account", nil, &resp)
	if status != http.StatusInternalServerError {
		t.Fatalf("status = %d", status)
	}
	if resp.ErrorType != "api_error" {
		t.Fatalf("error_type = %q", resp.ErrorType)
	}
}

func TestPlaceOrderValidation(t *testing.T) {
	ts := newTestAPIServer(t, &fakeBroker{}, ServerConfig{})

	var resp envelope
	status := doJSONRequest(t, http.MethodPost, ts.URL+"/trading/orders", map[string]any{
		"symbol": "BTC-USD",
		"side":   "buy",
	}, &resp)
	if status != http.StatusBadRequest {
		t.Fatalf("status = %d", status)
	}
	if resp.Detail != "Missing required fields: symbol, side, and quantity are required" {
		t.Fatalf("detail = %q", resp.Detail)
	}
}

func TestPlaceOrderForwardsAndCapitalizesSide(t *testing.T) {
	broker := &fakeBroker{data: json.RawMessage(`{"id":"o1"}`)}
	ts := newTestAPIServer(t, broker, ServerConfig{})

	var resp envelope
	status := doJSONRequest(t, http.MethodPost, ts.URL+"/trading/orders", map[string]any{
		"symbol":   "BTC-USD",
		"side":     "buy",
		"quantity": "0.001",
		"type":     "limit",
		"price":    "50000",
	}, &resp)
	if status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if resp.Message != "Buy order placed successfully" {
		t.Fatalf("message = %q", resp.Message)
	}

	broker.mu.Lock()
	defer broker.mu.Unlock()
	if broker.gotOrder.Symbol != "BTC-USD" || broker.gotOrder.Side != "buy" ||
		broker.gotOrder.Quantity != "0.001" || broker.gotOrder.Type != "limit" ||
		broker.gotOrder.Price != "50000" {
		t.Fatalf("order = %+v", broker.gotOrder)
	}
}

func TestOrdersStatusQuery(t *testing.T) {
	broker := &fakeBroker{}
	ts := newTestAPIServer(t, broker, ServerConfig{})

	doJSONRequest(t, http.MethodGet, ts.URL+"/trading/orders?status=open", nil, nil)

	broker.mu.Lock()
	defer broker.mu.Unlock()
	if broker.gotStatus != "open" {
		t.Fatalf("status filter = %q", broker.gotStatus)
	}
}

func TestCancelOrder(t *testing.T) {
	broker := &fakeBroker{}
	ts := newTestAPIServer(t, broker, ServerConfig{})

	var resp envelope
	status := doJSONRequest(t, http.MethodDelete, ts.URL+"/trading/orders/ord-123", nil, &resp)
	if status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if resp.Message != "Order cancelled successfully" {
		t.Fatalf("message = %q", resp.Message)
	}

	broker.mu.Lock()
	defer broker.mu.Unlock()
	if broker.gotOrderID != "ord-123" {
		t.Fatalf("order id = %q", broker.gotOrderID)
	}
}

func TestRateLimitRejectsBurst(t *testing.T) {
	ts := newTestAPIServer(t, &fakeBroker{}, ServerConfig{
		RateLimitEnabled:  true,
		RateLimitRequests: 2,
		RateLimitPeriod:   time.Minute,
	})

	for i := 0; i < 2; i++ {
		if status := doJSONRequest(t, http.MethodGet, ts.URL+"/health", nil, nil); status != http.StatusOK {
			t.Fatalf("request %d status = %d", i, status)
		}
	}
	var resp envelope
	status := doJSONRequest(t, http.MethodGet, ts.URL+"/health", nil, &resp)
	if status != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", status)
	}
	if resp.ErrorType != "rate_limit_exceeded" {
		t.Fatalf("error_type = %q", resp.ErrorType)
	}
}

func TestRequestIDHeaderEchoed(t *testing.T) {
	ts := newTestAPIServer(t, &fakeBroker{}, ServerConfig{})

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/health", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("X-Request-ID", "fixed-id")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	resp.Body.Close()
	if got := resp.Header.Get("X-Request-ID"); got != "fixed-id" {
		t.Fatalf("X-Request-ID = %q", got)
	}

	req, err = http.NewRequest(http.MethodGet, ts.URL+"/health", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	resp.Body.Close()
	if resp.Header.Get("X-Request-ID") == "" {
		t.Fatal("generated X-Request-ID missing")
	}
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestAPIServer(t, &fakeBroker{}, ServerConfig{})

	// Prime the counters with one request.
	doJSONRequest(t, http.MethodGet, ts.URL+"/health", nil, nil)

	var snap monitor.Snapshot
	if status := doJSONRequest(t, http.MethodGet, ts.URL+"/metrics", nil, &snap); status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if snap.APIRequests == 0 {
		t.Fatalf("snapshot = %+v", snap)
	}
}
