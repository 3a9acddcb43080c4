package api

import (
	"strings"

	"github.com/gin-gonic/gin"

	"crypto-bridge/pkg/robinhood"
)

type placeOrderRequest struct {
	Symbol        string `json:"symbol"`
	Side          string `json:"side"`
	Quantity      string `json:"quantity"`
	Type          string `json:"type"`
	Price         string `json:"price"`
	TimeInForce   string `json:"time_in_force"`
	StopPrice     string `json:"stop_price"`
	ClientOrderID string `json:"client_order_id"`
}

func (s *Server) root(c *gin.Context) {
	respondSuccess(c, gin.H{"name": "Robinhood Crypto Bridge", "status": "running"}, "Server is running")
}

func (s *Server) authStatus(c *gin.Context) {
	respondSuccess(c, s.broker.CheckAuth(c.Request.Context()), "")
}

func (s *Server) getAccount(c *gin.Context) {
	data, err := s.broker.GetAccount(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, data, "")
}

func (s *Server) getHoldings(c *gin.Context) {
	data, err := s.broker.GetHoldings(c.Request.Context(), splitCSV(c.Query("asset_code")))
	if err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, data, "")
}

func (s *Server) getBestPrice(c *gin.Context) {
	data, err := s.broker.GetBestBidAsk(c.Request.Context(), splitCSV(c.Query("symbol")))
	if err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, data, "")
}

func (s *Server) getEstimatedPrice(c *gin.Context) {
	symbol := c.Query("symbol")
	side := c.Query("side")
	quantity := c.Query("quantity")
	if symbol == "" || side == "" || quantity == "" {
		respondInvalid(c, "symbol, side, and quantity query parameters are required")
		return
	}

	data, err := s.broker.GetEstimatedPrice(c.Request.Context(), symbol, side, quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, data, "")
}

func (s *Server) getTradingPairs(c *gin.Context) {
	data, err := s.broker.GetTradingPairs(c.Request.Context(), splitCSV(c.Query("symbol")))
	if err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, data, "")
}

func (s *Server) getOrders(c *gin.Context) {
	data, err := s.broker.Orders(c.Request.Context(), c.Query("status"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, data, "")
}

func (s *Server) placeOrder(c *gin.Context) {
	var req placeOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalid(c, "invalid request body")
		return
	}
	if req.Symbol == "" || req.Side == "" || req.Quantity == "" {
		respondInvalid(c, "Missing required fields: symbol, side, and quantity are required")
		return
	}

	data, err := s.broker.PlaceOrder(c.Request.Context(), robinhood.OrderRequest{
		Symbol:        req.Symbol,
		Side:          req.Side,
		Quantity:      req.Quantity,
		Type:          req.Type,
		Price:         req.Price,
		TimeInForce:   req.TimeInForce,
		StopPrice:     req.StopPrice,
		ClientOrderID: req.ClientOrderID,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, data, capitalize(req.Side)+" order placed successfully")
}

func (s *Server) getOrder(c *gin.Context) {
	data, err := s.broker.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, data, "")
}

func (s *Server) cancelOrder(c *gin.Context) {
	data, err := s.broker.CancelOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, data, "Order cancelled successfully")
}

func splitCSV(val string) []string {
	if val == "" {
		return nil
	}
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}
