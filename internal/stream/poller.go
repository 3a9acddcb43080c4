package stream

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"crypto-bridge/internal/monitor"
)

// QuoteFetcher supplies per-symbol quotes for the market-data loop.
type QuoteFetcher interface {
	BestBidAskBySymbol(ctx context.Context, symbols []string) (map[string]json.RawMessage, error)
}

// OrderFetcher supplies the current order list for the order loop.
type OrderFetcher interface {
	Orders(ctx context.Context, status string) (json.RawMessage, error)
}

// PollerConfig sets the tick interval of each loop.
type PollerConfig struct {
	MarketDataInterval time.Duration
	OrdersInterval     time.Duration
}

// Poller drives the two broadcast loops. The loops tick independently;
// a failed cycle is logged and the next tick proceeds.
type Poller struct {
	log     *zap.Logger
	hub     *Hub
	quotes  QuoteFetcher
	orders  OrderFetcher
	cfg     PollerConfig
	metrics *monitor.Metrics
}

// NewPoller wires the poller to the hub and the upstream fetchers.
// Zero intervals fall back to 1s for market data and 2s for orders.
func NewPoller(log *zap.Logger, hub *Hub, quotes QuoteFetcher, orders OrderFetcher, cfg PollerConfig, metrics *monitor.Metrics) *Poller {
	if cfg.MarketDataInterval <= 0 {
		cfg.MarketDataInterval = time.Second
	}
	if cfg.OrdersInterval <= 0 {
		cfg.OrdersInterval = 2 * time.Second
	}
	return &Poller{log: log, hub: hub, quotes: quotes, orders: orders, cfg: cfg, metrics: metrics}
}

// Run blocks until ctx is cancelled, then waits for both loops to stop.
func (p *Poller) Run(ctx context.Context) {
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		p.loop(ctx, p.cfg.MarketDataInterval, p.pollMarketData)
	}()
	go func() {
		defer wg.Done()
		p.loop(ctx, p.cfg.OrdersInterval, p.pollOrders)
	}()
	wg.Wait()
}

func (p *Poller) loop(ctx context.Context, interval time.Duration, poll func(context.Context)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			poll(ctx)
		}
	}
}

// pollMarketData runs one market-data cycle: snapshot the subscribed
// symbols, skip the upstream fetch entirely when there are none, fetch
// once for the whole set, then fan out per symbol.
func (p *Poller) pollMarketData(ctx context.Context) {
	symbols := p.hub.Registry().Symbols()
	if len(symbols) == 0 {
		return
	}
	quotes, err := p.quotes.BestBidAskBySymbol(ctx, symbols)
	if err != nil {
		p.log.Warn("market data poll failed", zap.Error(err))
		if p.metrics != nil {
			p.metrics.PollError()
		}
		return
	}
	ts := now()
	for symbol, data := range quotes {
		p.hub.BroadcastMarketData(symbol, data, ts)
	}
	if p.metrics != nil {
		p.metrics.PollCycle()
	}
}

// pollOrders runs one order cycle: fetch the full order list once and
// broadcast the identical payload to every order subscriber.
func (p *Poller) pollOrders(ctx context.Context) {
	if !p.hub.Registry().HasOrderSubscribers() {
		return
	}
	orders, err := p.orders.Orders(ctx, "")
	if err != nil {
		p.log.Warn("order poll failed", zap.Error(err))
		if p.metrics != nil {
			p.metrics.PollError()
		}
		return
	}
	p.hub.BroadcastOrders(orders, now())
	if p.metrics != nil {
		p.metrics.PollCycle()
	}
}

func now() int64 {
	return time.Now().UTC().Unix()
}
