package stream

import "sync"

// Registry tracks which connections want which data. A symbol key
// exists if and only if its subscriber set is non-empty; sets are
// pruned on the removal that empties them.
type Registry struct {
	mu      sync.RWMutex
	symbols map[string]map[*Client]bool
	orders  map[*Client]bool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		symbols: make(map[string]map[*Client]bool),
		orders:  make(map[*Client]bool),
	}
}

// SubscribeMarketData adds c to each symbol's subscriber set, creating
// sets as needed.
func (r *Registry) SubscribeMarketData(c *Client, symbols []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, sym := range symbols {
		if r.symbols[sym] == nil {
			r.symbols[sym] = make(map[*Client]bool)
		}
		r.symbols[sym][c] = true
	}
}

// UnsubscribeMarketData removes c from each named symbol's set.
func (r *Registry) UnsubscribeMarketData(c *Client, symbols []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, sym := range symbols {
		subs, ok := r.symbols[sym]
		if !ok {
			continue
		}
		delete(subs, c)
		if len(subs) == 0 {
			delete(r.symbols, sym)
		}
	}
}

// SubscribeOrders adds c to the order-update subscribers.
func (r *Registry) SubscribeOrders(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders[c] = true
}

// UnsubscribeOrders removes c from the order-update subscribers.
func (r *Registry) UnsubscribeOrders(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.orders, c)
}

// RemoveClient clears c from every symbol set and from the order
// subscribers. Idempotent; safe for a connection never registered.
func (r *Registry) RemoveClient(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for sym, subs := range r.symbols {
		if subs[c] {
			delete(subs, c)
			if len(subs) == 0 {
				delete(r.symbols, sym)
			}
		}
	}
	delete(r.orders, c)
}

// Symbols returns a snapshot of the subscribed symbol universe.
func (r *Registry) Symbols() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.symbols))
	for sym := range r.symbols {
		out = append(out, sym)
	}
	return out
}

// MarketDataSubscribers returns a snapshot of the connections currently
// subscribed to symbol. The copy lets callers fan out without holding
// the registry lock across sends.
func (r *Registry) MarketDataSubscribers(symbol string) []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	subs := r.symbols[symbol]
	out := make([]*Client, 0, len(subs))
	for c := range subs {
		out = append(out, c)
	}
	return out
}

// OrderSubscribers returns a snapshot of the order-update subscribers.
func (r *Registry) OrderSubscribers() []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Client, 0, len(r.orders))
	for c := range r.orders {
		out = append(out, c)
	}
	return out
}

// HasOrderSubscribers reports whether any connection wants order updates.
func (r *Registry) HasOrderSubscribers() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.orders) > 0
}
