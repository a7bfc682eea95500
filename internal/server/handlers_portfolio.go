package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	domainerrors "cryptodesk/internal/errors"
	"cryptodesk/internal/models"
	"cryptodesk/internal/monitor"
	"cryptodesk/internal/portfolio"
)

type openTradeRequest struct {
	Symbol     string  `json:"symbol" binding:"required"`
	Side       string  `json:"side" binding:"required"`
	Amount     float64 `json:"amount" binding:"required"`
	Price      float64 `json:"price"`
	TakeProfit float64 `json:"takeProfit"`
	StopLoss   float64 `json:"stopLoss"`
}

// handleBalance returns the simulated account balance.
func (s *Server) handleBalance(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"balance": s.portfolio.Balance()})
}

// handleListTrades returns all trades, open and closed.
func (s *Server) handleListTrades(c *gin.Context) {
	trades := s.portfolio.Trades()
	if c.Query("status") == string(models.TradeStatusOpen) {
		trades = s.portfolio.OpenTrades()
	}
	c.JSON(http.StatusOK, gin.H{"trades": trades})
}

// handleOpenTrade opens a simulated position. A missing price fills in
// the current market price.
func (s *Server) handleOpenTrade(c *gin.Context) {
	var req openTradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	price := req.Price
	if price <= 0 {
		fetched, err := s.market.Price(c.Request.Context(), req.Symbol)
		if err != nil {
			s.writeError(c, err)
			return
		}
		price = fetched
	}

	trade, err := s.portfolio.OpenTrade(c.Request.Context(), portfolio.OpenRequest{
		Symbol:     req.Symbol,
		Side:       models.Side(req.Side),
		Amount:     req.Amount,
		Price:      price,
		TakeProfit: req.TakeProfit,
		StopLoss:   req.StopLoss,
	})
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, trade)
}

// handleCloseTrade closes an open position at the current market price.
func (s *Server) handleCloseTrade(c *gin.Context) {
	id := c.Param("id")

	trade, ok := s.portfolio.Trade(id)
	if !ok {
		s.writeError(c, domainerrors.ErrTradeNotFound)
		return
	}

	current, err := s.market.BestAsk(c.Request.Context(), trade.Symbol)
	if err != nil {
		s.writeError(c, err)
		return
	}

	diff := current - trade.Price
	if trade.Side == models.SideSell {
		diff = -diff
	}
	profit := diff * trade.Amount

	closed, err := s.portfolio.CloseTrade(c.Request.Context(), id, profit, monitor.ReasonManual)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, closed)
}
