package stream

import (
	"sort"
	"testing"
)

func sortedSymbols(r *Registry) []string {
	syms := r.Symbols()
	sort.Strings(syms)
	return syms
}

func TestSubscribeThenPartialUnsubscribe(t *testing.T) {
	r := NewRegistry()
	c := &Client{}

	r.SubscribeMarketData(c, []string{"BTC-USD", "ETH-USD"})
	if got := sortedSymbols(r); len(got) != 2 || got[0] != "BTC-USD" || got[1] != "ETH-USD" {
		t.Fatalf("symbols = %v", got)
	}

	r.UnsubscribeMarketData(c, []string{"ETH-USD"})
	if got := r.Symbols(); len(got) != 1 || got[0] != "BTC-USD" {
		t.Fatalf("symbols after unsubscribe = %v", got)
	}
	if subs := r.MarketDataSubscribers("BTC-USD"); len(subs) != 1 || subs[0] != c {
		t.Fatalf("BTC-USD subscribers = %v", subs)
	}
	if subs := r.MarketDataSubscribers("ETH-USD"); len(subs) != 0 {
		t.Fatalf("ETH-USD still has subscribers: %v", subs)
	}
}

func TestLastUnsubscribePrunesSymbol(t *testing.T) {
	r := NewRegistry()
	a, b := &Client{}, &Client{}

	r.SubscribeMarketData(a, []string{"BTC-USD"})
	r.SubscribeMarketData(b, []string{"BTC-USD"})
	r.UnsubscribeMarketData(a, []string{"BTC-USD"})
	if got := r.Symbols(); len(got) != 1 {
		t.Fatalf("symbol pruned too early: %v", got)
	}
	r.UnsubscribeMarketData(b, []string{"BTC-USD"})
	if got := r.Symbols(); len(got) != 0 {
		t.Fatalf("symbol not pruned after last unsubscribe: %v", got)
	}
}

func TestUnsubscribeUnknownSymbol(t *testing.T) {
	r := NewRegistry()
	c := &Client{}
	// Must not create an empty set for a symbol never subscribed.
	r.UnsubscribeMarketData(c, []string{"DOGE-USD"})
	if got := r.Symbols(); len(got) != 0 {
		t.Fatalf("symbols = %v", got)
	}
}

func TestRemoveClientIdempotent(t *testing.T) {
	r := NewRegistry()
	c := &Client{}

	r.SubscribeMarketData(c, []string{"BTC-USD", "ETH-USD"})
	r.SubscribeOrders(c)

	r.RemoveClient(c)
	if got := r.Symbols(); len(got) != 0 {
		t.Fatalf("symbols after remove = %v", got)
	}
	if r.HasOrderSubscribers() {
		t.Fatal("order subscription survived removal")
	}

	// Second removal is a no-op.
	r.RemoveClient(c)

	// Removing a connection that was never registered is also safe.
	r.RemoveClient(&Client{})
}

func TestRemoveClientKeepsOtherSubscribers(t *testing.T) {
	r := NewRegistry()
	a, b := &Client{}, &Client{}

	r.SubscribeMarketData(a, []string{"BTC-USD"})
	r.SubscribeMarketData(b, []string{"BTC-USD"})
	r.SubscribeOrders(a)
	r.SubscribeOrders(b)

	r.RemoveClient(a)
	if subs := r.MarketDataSubscribers("BTC-USD"); len(subs) != 1 || subs[0] != b {
		t.Fatalf("BTC-USD subscribers = %v", subs)
	}
	if subs := r.OrderSubscribers(); len(subs) != 1 || subs[0] != b {
		t.Fatalf("order subscribers = %v", subs)
	}
}

func TestOrderSubscriptionToggle(t *testing.T) {
	r := NewRegistry()
	c := &Client{}

	if r.HasOrderSubscribers() {
		t.Fatal("fresh registry has order subscribers")
	}
	r.SubscribeOrders(c)
	r.SubscribeOrders(c) // idempotent
	if subs := r.OrderSubscribers(); len(subs) != 1 {
		t.Fatalf("order subscribers = %d, want 1", len(subs))
	}
	r.UnsubscribeOrders(c)
	if r.HasOrderSubscribers() {
		t.Fatal("order subscription survived unsubscribe")
	}
	r.UnsubscribeOrders(c) // idempotent
}
