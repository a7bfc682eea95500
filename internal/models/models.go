// Package models provides domain models for the trading dashboard backend.
package models

import "time"

// Side represents the direction of a simulated position.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// OrderType represents the type of a simulated exchange order.
type OrderType string

const (
	OrderBuy       OrderType = "BUY"
	OrderSell      OrderType = "SELL"
	OrderBuyLimit  OrderType = "BUY_LIMIT"
	OrderSellLimit OrderType = "SELL_LIMIT"
	OrderBuyStop   OrderType = "BUY_STOP"
	OrderSellStop  OrderType = "SELL_STOP"
)

// IsBuy reports whether the order type is on the buy side.
func (t OrderType) IsBuy() bool {
	return t == OrderBuy || t == OrderBuyLimit || t == OrderBuyStop
}

// IsMarket reports whether the order type executes at market price.
func (t OrderType) IsMarket() bool {
	return t == OrderBuy || t == OrderSell
}

// Side returns the position side the order type maps to.
func (t OrderType) Side() Side {
	if t.IsBuy() {
		return SideBuy
	}
	return SideSell
}

// OrderStatus represents the lifecycle state of a simulated order.
type OrderStatus string

const (
	OrderStatusOpen      OrderStatus = "open"
	OrderStatusPartial   OrderStatus = "partial"
	OrderStatusFilled    OrderStatus = "filled"
	OrderStatusCanceled  OrderStatus = "canceled"
	OrderStatusTriggered OrderStatus = "triggered"
)

// TradeStatus represents the lifecycle state of a simulated position.
type TradeStatus string

const (
	TradeStatusOpen   TradeStatus = "open"
	TradeStatusClosed TradeStatus = "closed"
)

// Tick represents a point-in-time price observation for a symbol.
type Tick struct {
	Symbol    string    `json:"symbol"`
	Bid       float64   `json:"bid"`
	Ask       float64   `json:"ask"`
	Last      float64   `json:"last"`
	Timestamp time.Time `json:"timestamp"`
}

// PricePoint is a single point of a historical price series.
type PricePoint struct {
	Timestamp time.Time `json:"timestamp"`
	Price     float64   `json:"price"`
}
