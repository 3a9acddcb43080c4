// Package robinhood implements an authenticated client for the Robinhood
// Crypto trading API. Every outbound request is signed with Ed25519 over
// the canonical message described in auth.go.
package robinhood

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"crypto-bridge/internal/errs"
)

// DefaultBaseURL is the production Robinhood Crypto API endpoint.
const DefaultBaseURL = "https://trading.robinhood.com"

const defaultTimeout = 10 * time.Second

// Recorder observes completed upstream calls. Implementations must be
// safe for concurrent use.
type Recorder interface {
	RecordUpstream(elapsed time.Duration, err error)
}

// Config holds Robinhood Crypto credentials and connection settings.
type Config struct {
	APIKey     string
	PrivateKey string        // base64-encoded 32-byte Ed25519 seed
	BaseURL    string        // defaults to DefaultBaseURL
	Timeout    time.Duration // defaults to 10s
	Recorder   Recorder      // optional
}

// Client is an authenticated Robinhood Crypto API client.
type Client struct {
	auth       *Authenticator
	baseURL    string
	httpClient *http.Client
	recorder   Recorder
}

// New validates the credentials and returns a ready client. Credential
// errors here are fatal for the process: a client is never constructed
// with a key it cannot sign with.
func New(cfg Config) (*Client, error) {
	auth, err := NewAuthenticator(cfg.APIKey, cfg.PrivateKey)
	if err != nil {
		return nil, err
	}
	base := cfg.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	return &Client{
		auth:       auth,
		baseURL:    strings.TrimRight(base, "/"),
		httpClient: &http.Client{Timeout: timeout},
		recorder:   cfg.Recorder,
	}, nil
}

// Do sends one signed request and returns the raw JSON response. A fresh
// timestamp and signature are computed per call; nothing is reused and
// nothing is retried. Query parameters ride on the URL for GET but are
// never part of the signed message. An empty 2xx body decodes as {}.
func (c *Client) Do(ctx context.Context, method, path string, params url.Values, body string) (json.RawMessage, error) {
	switch method {
	case http.MethodGet, http.MethodPost, http.MethodDelete:
	default:
		return nil, errs.Newf(errs.KindInvalid, "robinhood: unsupported method %q", method)
	}

	headers := c.auth.Headers(method, path, body, Timestamp())

	endpoint := c.baseURL + path
	if method == http.MethodGet && len(params) > 0 {
		endpoint += "?" + params.Encode()
	}
	var reader io.Reader
	if method == http.MethodPost && body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, errs.Wrap(errs.KindTransport, fmt.Sprintf("robinhood: build %s %s", method, path), err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	raw, err := c.roundTrip(req, method, path)
	if c.recorder != nil {
		c.recorder.RecordUpstream(time.Since(start), err)
	}
	return raw, err
}

func (c *Client) roundTrip(req *http.Request, method, path string) (json.RawMessage, error) {
	res, err := c.httpClient.Do(req)
	if err != nil {
		// No status code here: network-level failures stay
		// distinguishable from upstream rejections.
		return nil, errs.Wrap(errs.KindTransport, fmt.Sprintf("robinhood %s %s", method, path), err)
	}
	defer res.Body.Close()

	raw, _ := io.ReadAll(res.Body)
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		detail := fmt.Sprintf("robinhood %s %s: %s", method, path, strings.TrimSpace(string(raw)))
		return nil, errs.WithHTTP(errs.KindTransport, res.StatusCode, detail)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return json.RawMessage(`{}`), nil
	}
	return json.RawMessage(raw), nil
}
