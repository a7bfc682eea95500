package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// feeRate is the flat fee charged on the notional of a swap quote.
var feeRate = decimal.NewFromFloat(0.001) // 0.1%

type tradeRequest struct {
	Type         string  `json:"type" binding:"required"`
	Token        string  `json:"token" binding:"required"`
	TokenAmount  string  `json:"token_amount" binding:"required"`
	PairToken    string  `json:"pair_token"`
	SlippageBips int64   `json:"slippage_bips"`
	Blockchain   string  `json:"blockchain"`
	UserAddress  string  `json:"user_address"`
	OrderType    string  `json:"order_type"`
	Price        float64 `json:"price"`
	TakeProfit   float64 `json:"take_profit"`
	StopLoss     float64 `json:"stop_loss"`
	LotSize      int     `json:"lot_size"`
}

type tradeResponse struct {
	QuoteID      string `json:"quoteId"`
	InputAmount  string `json:"inputAmount"`
	OutputAmount string `json:"outputAmount"`
	Price        string `json:"price"`
	Fee          string `json:"fee"`
	ExpiresAt    string `json:"expiresAt"`
	OrderType    string `json:"orderType"`
}

// handleTradingExecute prices a swap quote: notional at the current
// market price, a 0.1% fee, and the requested slippage allowance. The
// route always answers; a failed upstream price falls back to the
// configured default.
func (s *Server) handleTradingExecute(c *gin.Context) {
	var req tradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	amount, err := decimal.NewFromString(req.TokenAmount)
	if err != nil || amount.Sign() <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "token_amount must be a positive decimal"})
		return
	}
	if req.SlippageBips < 0 || req.SlippageBips > 10000 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "slippage_bips must be between 0 and 10000"})
		return
	}

	// Limit and stop quotes price at the requested level; market quotes
	// at the live price.
	var price decimal.Decimal
	if req.Price > 0 && req.OrderType != "" && req.OrderType != "MARKET" {
		price = decimal.NewFromFloat(req.Price)
	} else {
		price = decimal.NewFromFloat(s.market.PriceOrFallback(c.Request.Context(), req.Token))
	}

	notional := amount.Mul(price)
	fee := notional.Mul(feeRate)
	slippage := decimal.NewFromInt(req.SlippageBips).Div(decimal.NewFromInt(10000))
	output := notional.Sub(fee).Mul(decimal.NewFromInt(1).Sub(slippage))

	orderType := req.OrderType
	if orderType == "" {
		orderType = "MARKET"
	}

	c.JSON(http.StatusOK, tradeResponse{
		QuoteID:      uuid.NewString(),
		InputAmount:  amount.String(),
		OutputAmount: output.Round(8).String(),
		Price:        price.Round(8).String(),
		Fee:          fee.Round(8).String(),
		ExpiresAt:    time.Now().Add(30 * time.Second).UTC().Format(time.RFC3339),
		OrderType:    orderType,
	})
}
