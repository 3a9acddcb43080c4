package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"crypto-bridge/internal/monitor"
	"crypto-bridge/pkg/robinhood"
)

// Broker is the slice of the upstream client the REST surface calls.
// *robinhood.Client satisfies it.
type Broker interface {
	CheckAuth(ctx context.Context) robinhood.AuthStatus
	GetAccount(ctx context.Context) (json.RawMessage, error)
	GetHoldings(ctx context.Context, assetCodes []string) (json.RawMessage, error)
	GetBestBidAsk(ctx context.Context, symbols []string) (json.RawMessage, error)
	GetEstimatedPrice(ctx context.Context, symbol, side, quantity string) (json.RawMessage, error)
	GetTradingPairs(ctx context.Context, symbols []string) (json.RawMessage, error)
	PlaceOrder(ctx context.Context, req robinhood.OrderRequest) (json.RawMessage, error)
	Orders(ctx context.Context, status string) (json.RawMessage, error)
	GetOrder(ctx context.Context, orderID string) (json.RawMessage, error)
	CancelOrder(ctx context.Context, orderID string) (json.RawMessage, error)
}

// ServerConfig carries the REST-surface knobs out of the process config.
type ServerConfig struct {
	RateLimitEnabled  bool
	RateLimitRequests int
	RateLimitPeriod   time.Duration
}

// Server wires the REST endpoints around the upstream client.
type Server struct {
	Router  *gin.Engine
	log     *zap.Logger
	broker  Broker
	metrics *monitor.Metrics
}

func NewServer(log *zap.Logger, broker Broker, metrics *monitor.Metrics, cfg ServerConfig) *Server {
	r := gin.New()

	// Middleware stack (order matters!)
	r.Use(gin.Recovery())        // Panic recovery (first)
	r.Use(RequestIDMiddleware()) // Request ID tracking
	r.Use(RequestLogger(log, metrics))
	if cfg.RateLimitEnabled {
		r.Use(RateLimitMiddleware(log, newIPRateLimiter(cfg.RateLimitRequests, cfg.RateLimitPeriod)))
	}
	r.Use(TimeoutMiddleware(30 * time.Second)) // Request timeout (30s)
	r.Use(CORSMiddleware())                    // CORS (last before routes)

	s := &Server{Router: r, log: log, broker: broker, metrics: metrics}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.Router.GET("/", s.root)
	s.Router.GET("/health", s.health)
	s.Router.GET("/metrics", s.getMetrics)
	s.Router.GET("/auth/status", s.authStatus)

	account := s.Router.Group("/account")
	{
		account.GET("", s.getAccount)
		account.GET("/holdings", s.getHoldings)
	}

	market := s.Router.Group("/market")
	{
		market.GET("/best-price", s.getBestPrice)
		market.GET("/estimated-price", s.getEstimatedPrice)
	}

	trading := s.Router.Group("/trading")
	{
		trading.GET("/pairs", s.getTradingPairs)
		trading.GET("/orders", s.getOrders)
		trading.POST("/orders", s.placeOrder)
		trading.GET("/orders/:id", s.getOrder)
		trading.DELETE("/orders/:id", s.cancelOrder)
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) getMetrics(c *gin.Context) {
	c.JSON(http.StatusOK, s.metrics.GetSnapshot())
}
