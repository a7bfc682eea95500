package models

import "time"

// Order represents a simulated exchange order with its own fill lifecycle.
type Order struct {
	ID         string      `json:"id"`
	Symbol     string      `json:"symbol"`
	Pair       string      `json:"pair"`
	Type       OrderType   `json:"type"`
	Price      float64     `json:"price"`
	Amount     float64     `json:"amount"`
	LotSize    int         `json:"lotSize"`
	Total      float64     `json:"total"`
	Filled     float64     `json:"filled"`
	Status     OrderStatus `json:"status"`
	TakeProfit float64     `json:"takeProfitPrice,omitempty"`
	StopLoss   float64     `json:"stopLossPrice,omitempty"`
	PlacedAt   time.Time   `json:"timestamp"`
	FilledAt   *time.Time  `json:"filledAt,omitempty"`
}

// BookLevel is a single price level of the synthetic order book.
type BookLevel struct {
	Price  float64 `json:"price"`
	Amount float64 `json:"amount"`
}

// OrderBook is a synthetic order book snapshot around a mid price.
// Bids are sorted descending by price, asks ascending.
type OrderBook struct {
	Symbol      string      `json:"symbol"`
	MidPrice    float64     `json:"midPrice"`
	Bids        []BookLevel `json:"bids"`
	Asks        []BookLevel `json:"asks"`
	GeneratedAt time.Time   `json:"generatedAt"`
}

// BestBid returns the highest bid, or 0 when the book is empty.
func (b *OrderBook) BestBid() float64 {
	if len(b.Bids) == 0 {
		return 0
	}
	return b.Bids[0].Price
}

// BestAsk returns the lowest ask, or 0 when the book is empty.
func (b *OrderBook) BestAsk() float64 {
	if len(b.Asks) == 0 {
		return 0
	}
	return b.Asks[0].Price
}

// AdviceAction is a recommendation direction emitted by the advisor.
type AdviceAction string

const (
	AdviceBuy  AdviceAction = "BUY"
	AdviceSell AdviceAction = "SELL"
	AdviceHold AdviceAction = "HOLD"
)

// Advice is a synthetic trading recommendation with target/stop bands.
type Advice struct {
	Symbol      string       `json:"symbol"`
	Action      AdviceAction `json:"action"`
	Confidence  float64      `json:"confidence"`
	Price       float64      `json:"price"`
	TargetPrice float64      `json:"targetPrice,omitempty"`
	StopPrice   float64      `json:"stopPrice,omitempty"`
	GeneratedAt time.Time    `json:"generatedAt"`
}
