package models

import "time"

// Trade represents a simulated position tracked by the portfolio store.
// A Trade is distinct from an Order: Orders live in the exchange simulator
// and never touch the account balance.
type Trade struct {
	ID          string      `json:"id"`
	Symbol      string      `json:"symbol"`
	Side        Side        `json:"side"`
	Amount      float64     `json:"amount"`
	Price       float64     `json:"price"`
	TakeProfit  float64     `json:"takeProfit,omitempty"`
	StopLoss    float64     `json:"stopLoss,omitempty"`
	Status      TradeStatus `json:"status"`
	Profit      float64     `json:"profit"`
	CloseReason string      `json:"closeReason,omitempty"`
	OpenedAt    time.Time   `json:"openedAt"`
	ClosedAt    *time.Time  `json:"closedAt,omitempty"`
}

// Cost returns the account debit taken when the trade was opened.
func (t *Trade) Cost() float64 {
	return t.Price * t.Amount
}

// IsOpen reports whether the trade is still open.
func (t *Trade) IsOpen() bool {
	return t.Status == TradeStatusOpen
}

// Signal is a structured trade intent extracted from chat text or LLM
// output. Numeric fields stay strings because they prefill form inputs on
// the dashboard side.
type Signal struct {
	Type       OrderType `json:"type"`
	Token      string    `json:"token"`
	Amount     string    `json:"amount"`
	LotSize    int       `json:"lotSize"`
	Price      string    `json:"price,omitempty"`
	TakeProfit string    `json:"takeProfitPrice,omitempty"`
	StopLoss   string    `json:"stopLossPrice,omitempty"`
	Pair       string    `json:"pair"`

	// NeedsPrice is set when a limit/stop intent arrived without a price,
	// so the assistant asks a follow-up instead of defaulting.
	NeedsPrice bool `json:"-"`
}

// ChatThread is a persisted conversation with the assistant.
type ChatThread struct {
	ID        string        `json:"id"`
	Title     string        `json:"title"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
	Messages  []ChatMessage `json:"messages,omitempty"`
}

// ChatMessage is a single message within a chat thread.
type ChatMessage struct {
	ID        string    `json:"id"`
	ThreadID  string    `json:"threadId"`
	Role      string    `json:"role"` // "user" or "assistant"
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}
