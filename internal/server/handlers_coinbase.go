package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Static brokerage mock data. The dashboard renders these panels even
// when no brokerage account is connected.

var mockMarkets = []gin.H{
	{"id": "BTC-USDC", "base_currency": "BTC", "quote_currency": "USDC", "status": "online", "trading_disabled": false},
	{"id": "ETH-USDC", "base_currency": "ETH", "quote_currency": "USDC", "status": "online", "trading_disabled": false},
	{"id": "SOL-USDC", "base_currency": "SOL", "quote_currency": "USDC", "status": "online", "trading_disabled": false},
	{"id": "ADA-USDC", "base_currency": "ADA", "quote_currency": "USDC", "status": "online", "trading_disabled": false},
}

var mockAccounts = []gin.H{
	{"uuid": "9f3b1c4e-1a2b-4c5d-8e9f-0a1b2c3d4e5f", "name": "USDC Wallet", "currency": "USDC", "available_balance": gin.H{"value": "10000.00", "currency": "USDC"}},
	{"uuid": "2c7d8e1f-3b4c-5d6e-9f0a-1b2c3d4e5f60", "name": "BTC Wallet", "currency": "BTC", "available_balance": gin.H{"value": "0.25", "currency": "BTC"}},
	{"uuid": "7a1b2c3d-4e5f-6071-8293-a4b5c6d7e8f9", "name": "ETH Wallet", "currency": "ETH", "available_balance": gin.H{"value": "2.5", "currency": "ETH"}},
}

func (s *Server) handleCoinbaseMarkets(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"products": mockMarkets})
}

func (s *Server) handleCoinbaseAccounts(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"accounts": mockAccounts})
}

func (s *Server) handleCoinbaseOrderBook(c *gin.Context) {
	product := c.DefaultQuery("product_id", "BTC-USDC")
	c.JSON(http.StatusOK, gin.H{
		"pricebook": gin.H{
			"product_id": product,
			"bids": []gin.H{
				{"price": "49995.00", "size": "0.5"},
				{"price": "49990.00", "size": "1.2"},
				{"price": "49985.00", "size": "0.8"},
			},
			"asks": []gin.H{
				{"price": "50005.00", "size": "0.4"},
				{"price": "50010.00", "size": "1.0"},
				{"price": "50015.00", "size": "0.9"},
			},
			"time": time.Now().UTC().Format(time.RFC3339),
		},
	})
}

func (s *Server) handleCoinbaseTrades(c *gin.Context) {
	product := c.DefaultQuery("product_id", "BTC-USDC")
	now := time.Now().UTC()
	trades := []gin.H{
		{"trade_id": "1001", "product_id": product, "price": "50002.10", "size": "0.05", "side": "BUY", "time": now.Add(-5 * time.Second).Format(time.RFC3339)},
		{"trade_id": "1002", "product_id": product, "price": "49998.40", "size": "0.12", "side": "SELL", "time": now.Add(-11 * time.Second).Format(time.RFC3339)},
		{"trade_id": "1003", "product_id": product, "price": "50001.00", "size": "0.03", "side": "BUY", "time": now.Add(-19 * time.Second).Format(time.RFC3339)},
	}
	c.JSON(http.StatusOK, gin.H{"trades": trades})
}
