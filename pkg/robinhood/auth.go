package robinhood

import (
	"context"
	"encoding/base64"
	"strconv"
	"time"

	"crypto-bridge/internal/errs"
)

// Authenticator produces the signed header set for outbound requests.
type Authenticator struct {
	apiKey string
	signer *Signer
}

// NewAuthenticator validates the credential pair and derives the signing key.
func NewAuthenticator(apiKey, privateKey string) (*Authenticator, error) {
	if apiKey == "" {
		return nil, errs.New(errs.KindConfig, "robinhood: api key is empty")
	}
	signer, err := NewSigner(privateKey)
	if err != nil {
		return nil, err
	}
	return &Authenticator{apiKey: apiKey, signer: signer}, nil
}

// Message builds the canonical signing payload: api key, timestamp,
// path, method, body, concatenated in that order with no separators.
// The ordering is a compatibility contract with the upstream verifier.
func (a *Authenticator) Message(method, path, body string, timestamp int64) []byte {
	return []byte(a.apiKey + strconv.FormatInt(timestamp, 10) + path + method + body)
}

// Headers signs one request and returns the three auth headers. The
// query string is never part of the signed payload, only the path.
func (a *Authenticator) Headers(method, path, body string, timestamp int64) map[string]string {
	sig := a.signer.Sign(a.Message(method, path, body, timestamp))
	return map[string]string{
		"x-api-key":   a.apiKey,
		"x-signature": base64.StdEncoding.EncodeToString(sig),
		"x-timestamp": strconv.FormatInt(timestamp, 10),
	}
}

// Timestamp returns the current UTC time in whole seconds.
func Timestamp() int64 {
	return time.Now().UTC().Unix()
}

// AuthStatus reports whether the configured credentials work upstream.
type AuthStatus struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}

// CheckAuth probes the accounts endpoint to verify the credentials.
func (c *Client) CheckAuth(ctx context.Context) AuthStatus {
	if _, err := c.GetAccount(ctx); err != nil {
		return AuthStatus{Status: "error", Message: err.Error(), Timestamp: Timestamp()}
	}
	return AuthStatus{Status: "authenticated", Message: "Authentication successful", Timestamp: Timestamp()}
}
