package stream

import "encoding/json"

// Frame types accepted from and pushed to clients.
const (
	TypePing         = "ping"
	TypePong         = "pong"
	TypeMarketData   = "market_data"
	TypeOrders       = "orders"
	TypeSubscription = "subscription"
	TypeError        = "error"
)

// Actions carried by market_data and orders control frames.
const (
	ActionSubscribe   = "subscribe"
	ActionUnsubscribe = "unsubscribe"
)

// Request is one inbound control frame.
type Request struct {
	Type    string   `json:"type"`
	Action  string   `json:"action,omitempty"`
	Symbols []string `json:"symbols,omitempty"`
}

// Ack confirms a subscription change.
type Ack struct {
	Type    string   `json:"type"`
	Status  string   `json:"status"`
	Message string   `json:"message"`
	Symbols []string `json:"symbols,omitempty"`
}

// ErrorFrame reports a protocol error in-band. The connection stays
// open; only the offending frame is rejected.
type ErrorFrame struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Pong answers a ping.
type Pong struct {
	Type string `json:"type"`
}

// MarketDataFrame carries one symbol's quote to its subscribers.
// Timestamp is UTC whole seconds.
type MarketDataFrame struct {
	Type      string          `json:"type"`
	Symbol    string          `json:"symbol"`
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp"`
}

// OrdersFrame carries the full order list to every order subscriber.
type OrdersFrame struct {
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp"`
}
