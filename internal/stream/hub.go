// Package stream implements the WebSocket push side of the bridge: the
// connection hub, the subscription registry, and the two background
// pollers that fan upstream data out to subscribers.
package stream

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"crypto-bridge/internal/monitor"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Hub owns the live connection set and routes inbound control frames to
// the subscription registry.
type Hub struct {
	log      *zap.Logger
	registry *Registry
	metrics  *monitor.Metrics

	mu      sync.Mutex
	clients map[*Client]bool
}

// NewHub creates a hub around the given registry. metrics may be nil.
func NewHub(log *zap.Logger, registry *Registry, metrics *monitor.Metrics) *Hub {
	return &Hub{
		log:      log,
		registry: registry,
		metrics:  metrics,
		clients:  make(map[*Client]bool),
	}
}

// Registry exposes the subscription registry shared with the poller.
func (h *Hub) Registry() *Registry { return h.registry }

// ClientCount reports the number of live connections.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// ServeWS upgrades one HTTP request and starts the connection's pumps.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	c := newClient(h, conn)
	h.mu.Lock()
	h.clients[c] = true
	total := len(h.clients)
	h.mu.Unlock()
	if h.metrics != nil {
		h.metrics.WSConnected()
	}
	h.log.Info("client connected", zap.Int("clients", total))
	go c.writePump()
	go c.readPump()
}

// disconnect tears one connection down: hub set, registry entries, send
// channel. Safe to call more than once; only the first call counts.
func (h *Hub) disconnect(c *Client) {
	h.mu.Lock()
	_, present := h.clients[c]
	delete(h.clients, c)
	total := len(h.clients)
	h.mu.Unlock()

	c.shutdown()
	h.registry.RemoveClient(c)

	if present {
		if h.metrics != nil {
			h.metrics.WSDisconnected()
		}
		h.log.Info("client disconnected", zap.Int("clients", total))
	}
}

// Close disconnects every client, used at process shutdown.
func (h *Hub) Close() {
	h.mu.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()
	for _, c := range clients {
		h.disconnect(c)
	}
}

// handleFrame dispatches one inbound control frame. Protocol errors are
// answered in-band; the connection always stays open.
func (h *Hub) handleFrame(c *Client, raw []byte) {
	var req Request
	if err := json.Unmarshal(raw, &req); err != nil {
		h.sendError(c, "Invalid JSON format")
		return
	}
	switch req.Type {
	case TypePing:
		h.sendJSON(c, Pong{Type: TypePong})
	case TypeMarketData:
		h.handleMarketData(c, req)
	case TypeOrders:
		h.handleOrders(c, req)
	default:
		h.sendError(c, fmt.Sprintf("Unknown message type: %s", req.Type))
	}
}

func (h *Hub) handleMarketData(c *Client, req Request) {
	if len(req.Symbols) == 0 {
		h.sendError(c, "No symbols provided for subscription")
		return
	}
	switch req.Action {
	case ActionSubscribe:
		h.registry.SubscribeMarketData(c, req.Symbols)
		h.sendJSON(c, Ack{
			Type:    TypeSubscription,
			Status:  "success",
			Message: fmt.Sprintf("Subscribed to %d symbols", len(req.Symbols)),
			Symbols: req.Symbols,
		})
	case ActionUnsubscribe:
		h.registry.UnsubscribeMarketData(c, req.Symbols)
		h.sendJSON(c, Ack{
			Type:    TypeSubscription,
			Status:  "success",
			Message: fmt.Sprintf("Unsubscribed from %d symbols", len(req.Symbols)),
			Symbols: req.Symbols,
		})
	}
}

func (h *Hub) handleOrders(c *Client, req Request) {
	switch req.Action {
	case ActionSubscribe:
		h.registry.SubscribeOrders(c)
		h.sendJSON(c, Ack{Type: TypeSubscription, Status: "success", Message: "Subscribed to order updates"})
	case ActionUnsubscribe:
		h.registry.UnsubscribeOrders(c)
		h.sendJSON(c, Ack{Type: TypeSubscription, Status: "success", Message: "Unsubscribed from order updates"})
	}
}

// BroadcastMarketData pushes one symbol's quote to the symbol's current
// subscriber set and returns the delivery count. A symbol with zero
// subscribers at fanout time is skipped silently.
func (h *Hub) BroadcastMarketData(symbol string, data json.RawMessage, timestamp int64) int {
	subs := h.registry.MarketDataSubscribers(symbol)
	if len(subs) == 0 {
		return 0
	}
	frame, err := json.Marshal(MarketDataFrame{Type: TypeMarketData, Symbol: symbol, Data: data, Timestamp: timestamp})
	if err != nil {
		h.log.Error("encode market data frame", zap.String("symbol", symbol), zap.Error(err))
		return 0
	}
	delivered := 0
	for _, c := range subs {
		if h.deliver(c, frame) {
			delivered++
		}
	}
	if h.metrics != nil {
		h.metrics.FramesDelivered(delivered)
	}
	return delivered
}

// BroadcastOrders pushes the identical order payload to every current
// order subscriber and returns the delivery count.
func (h *Hub) BroadcastOrders(data json.RawMessage, timestamp int64) int {
	subs := h.registry.OrderSubscribers()
	if len(subs) == 0 {
		return 0
	}
	frame, err := json.Marshal(OrdersFrame{Type: TypeOrders, Data: data, Timestamp: timestamp})
	if err != nil {
		h.log.Error("encode orders frame", zap.Error(err))
		return 0
	}
	delivered := 0
	for _, c := range subs {
		if h.deliver(c, frame) {
			delivered++
		}
	}
	if h.metrics != nil {
		h.metrics.FramesDelivered(delivered)
	}
	return delivered
}

// deliver queues one frame. A recipient that cannot accept it gets its
// disconnect cleanup; delivery to the remaining recipients proceeds.
func (h *Hub) deliver(c *Client, frame []byte) bool {
	if c.Send(frame) {
		return true
	}
	h.log.Warn("dropping unresponsive client")
	h.disconnect(c)
	return false
}

func (h *Hub) sendJSON(c *Client, v any) {
	frame, err := json.Marshal(v)
	if err != nil {
		h.log.Error("encode frame", zap.Error(err))
		return
	}
	h.deliver(c, frame)
}

func (h *Hub) sendError(c *Client, message string) {
	h.sendJSON(c, ErrorFrame{Type: TypeError, Message: message})
}
