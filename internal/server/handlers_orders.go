package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"cryptodesk/internal/exchange"
	"cryptodesk/internal/models"
)

type placeOrderRequest struct {
	Symbol     string  `json:"symbol" binding:"required"`
	Type       string  `json:"type" binding:"required"`
	Price      float64 `json:"price"`
	Amount     float64 `json:"amount" binding:"required"`
	LotSize    int     `json:"lotSize"`
	TakeProfit float64 `json:"takeProfitPrice"`
	StopLoss   float64 `json:"stopLossPrice"`
}

// handleListOrders returns all simulated orders.
func (s *Server) handleListOrders(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"orders": s.engine.Orders()})
}

// handlePlaceOrder submits an order to the simulated exchange. Market
// orders price at the current market; limit/stop orders require a price.
func (s *Server) handlePlaceOrder(c *gin.Context) {
	var req placeOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	orderType := models.OrderType(req.Type)
	switch orderType {
	case models.OrderBuy, models.OrderSell, models.OrderBuyLimit,
		models.OrderSellLimit, models.OrderBuyStop, models.OrderSellStop:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown order type: " + req.Type})
		return
	}

	price := req.Price
	if orderType.IsMarket() {
		fetched, err := s.market.Price(c.Request.Context(), req.Symbol)
		if err != nil {
			s.writeError(c, err)
			return
		}
		price = fetched
	} else if price <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "price is required for limit and stop orders"})
		return
	}

	order, err := s.engine.PlaceOrder(exchange.PlaceRequest{
		Symbol:     req.Symbol,
		Pair:       req.Symbol + "/USDC",
		Type:       orderType,
		Price:      price,
		Amount:     req.Amount,
		LotSize:    req.LotSize,
		TakeProfit: req.TakeProfit,
		StopLoss:   req.StopLoss,
	})
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

// handleCancelOrder cancels an open order.
func (s *Server) handleCancelOrder(c *gin.Context) {
	order, err := s.engine.CancelOrder(c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// handleOrderBook returns a synthetic order book around the current
// market price.
func (s *Server) handleOrderBook(c *gin.Context) {
	symbol, ok := symbolFromParam(c)
	if !ok {
		return
	}

	mid, err := s.market.Price(c.Request.Context(), symbol)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.engine.Book(symbol, mid))
}

// handleAdvice returns a synthetic recommendation for a symbol.
func (s *Server) handleAdvice(c *gin.Context) {
	symbol, ok := symbolFromParam(c)
	if !ok {
		return
	}

	price, err := s.market.Price(c.Request.Context(), symbol)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.engine.Advise(symbol, price))
}
