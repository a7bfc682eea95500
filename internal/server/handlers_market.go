package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"cryptodesk/internal/market"
)

// handlePrices returns current prices for all tracked symbols.
func (s *Server) handlePrices(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"prices": s.market.Prices(c.Request.Context())})
}

// handlePriceHistory proxies the historical market chart for a coin.
func (s *Server) handlePriceHistory(c *gin.Context) {
	coinID := c.Query("coinId")
	if coinID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "coinId is required"})
		return
	}

	days := 7
	if raw := c.Query("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > 365 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "days must be between 1 and 365"})
			return
		}
		days = parsed
	}

	points, err := s.market.History(c.Request.Context(), coinID, days)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"coinId": coinID, "days": days, "prices": points})
}

// symbolFromParam resolves and validates a symbol path parameter.
func symbolFromParam(c *gin.Context) (string, bool) {
	symbol := c.Param("symbol")
	if _, ok := market.CoinID(symbol); !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown symbol: " + symbol})
		return "", false
	}
	return symbol, true
}
