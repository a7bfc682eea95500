// Package exchange provides the simulated exchange surface: a synthetic
// order book, order submission with a one-shot randomized fill, and a
// synthetic advisor.
package exchange

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	domainerrors "cryptodesk/internal/errors"
	"cryptodesk/internal/models"
)

// Config holds exchange engine configuration.
type Config struct {
	FillDelay  time.Duration
	BookLevels int
	BookSpread float64
	Logger     zerolog.Logger

	// Seed fixes the engine's randomness for tests. Zero means seeded
	// from the clock.
	Seed int64
}

// Engine is the simulated exchange. Orders submitted to it receive
// exactly one randomized fill after FillDelay; fills are supervised
// goroutines tied to the engine lifecycle, so none land after Stop.
type Engine struct {
	mu     sync.RWMutex
	orders map[string]*models.Order
	seq    []string // insertion order of order IDs

	rngMu sync.Mutex
	rng   *rand.Rand

	fillDelay  time.Duration
	bookLevels int
	bookSpread float64
	log        zerolog.Logger

	lifeMu sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// PlaceRequest holds parameters for submitting an order.
type PlaceRequest struct {
	Symbol     string
	Pair       string
	Type       models.OrderType
	Price      float64
	Amount     float64
	LotSize    int
	TakeProfit float64
	StopLoss   float64
}

// NewEngine creates a new simulated exchange engine.
func NewEngine(cfg Config) *Engine {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if cfg.BookLevels <= 0 {
		cfg.BookLevels = 10
	}
	if cfg.BookSpread <= 0 {
		cfg.BookSpread = 0.02
	}

	return &Engine{
		orders:     make(map[string]*models.Order),
		rng:        rand.New(rand.NewSource(seed)),
		fillDelay:  cfg.FillDelay,
		bookLevels: cfg.BookLevels,
		bookSpread: cfg.BookSpread,
		log:        cfg.Logger.With().Str("component", "exchange").Logger(),
	}
}

// Start binds the engine's fill scheduler to ctx.
func (e *Engine) Start(ctx context.Context) {
	e.lifeMu.Lock()
	defer e.lifeMu.Unlock()
	e.ctx, e.cancel = context.WithCancel(ctx)
}

// Stop cancels pending fills and waits for in-flight ones to settle.
func (e *Engine) Stop() {
	e.lifeMu.Lock()
	cancel := e.cancel
	e.lifeMu.Unlock()

	if cancel != nil {
		cancel()
	}
	e.wg.Wait()
}

// PlaceOrder validates and submits a simulated order. The fill arrives
// once, after the configured delay.
func (e *Engine) PlaceOrder(req PlaceRequest) (*models.Order, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	lotSize := req.LotSize
	if lotSize <= 0 {
		lotSize = 1
	}

	order := &models.Order{
		ID:         uuid.NewString(),
		Symbol:     req.Symbol,
		Pair:       req.Pair,
		Type:       req.Type,
		Price:      req.Price,
		Amount:     req.Amount,
		LotSize:    lotSize,
		Total:      req.Price * req.Amount * float64(lotSize),
		Status:     models.OrderStatusOpen,
		TakeProfit: req.TakeProfit,
		StopLoss:   req.StopLoss,
		PlacedAt:   time.Now(),
	}

	e.mu.Lock()
	e.orders[order.ID] = order
	e.seq = append(e.seq, order.ID)
	e.mu.Unlock()

	e.scheduleFill(order.ID)

	e.log.Info().
		Str("order_id", order.ID).
		Str("type", string(order.Type)).
		Str("pair", order.Pair).
		Float64("price", order.Price).
		Float64("amount", order.Amount).
		Msg("order placed")

	out := *order
	return &out, nil
}

// validateRequest applies the order form rules: positive amount, a price
// for non-market orders, and TP/SL on the correct side of the entry.
func validateRequest(req PlaceRequest) error {
	if req.Amount <= 0 {
		return domainerrors.NewValidationError("amount", req.Amount, "must be positive")
	}
	if req.Price <= 0 {
		return domainerrors.NewValidationError("price", req.Price, "must be positive")
	}

	if req.Type.IsBuy() {
		if req.TakeProfit != 0 && req.TakeProfit <= req.Price {
			return domainerrors.NewValidationError("takeProfit", req.TakeProfit, "must be above entry price for buy orders")
		}
		if req.StopLoss != 0 && req.StopLoss >= req.Price {
			return domainerrors.NewValidationError("stopLoss", req.StopLoss, "must be below entry price for buy orders")
		}
	} else {
		if req.TakeProfit != 0 && req.TakeProfit >= req.Price {
			return domainerrors.NewValidationError("takeProfit", req.TakeProfit, "must be below entry price for sell orders")
		}
		if req.StopLoss != 0 && req.StopLoss <= req.Price {
			return domainerrors.NewValidationError("stopLoss", req.StopLoss, "must be above entry price for sell orders")
		}
	}
	return nil
}

// scheduleFill runs the one-shot delayed fill under the engine context.
func (e *Engine) scheduleFill(orderID string) {
	e.lifeMu.Lock()
	ctx := e.ctx
	if ctx != nil {
		e.wg.Add(1)
	}
	e.lifeMu.Unlock()

	// Without Start the engine is in synchronous test mode: no timer,
	// the fill is applied by ApplyFillNow.
	if ctx == nil {
		return
	}

	go func() {
		defer e.wg.Done()

		timer := time.NewTimer(e.fillDelay)
		defer timer.Stop()

		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			e.applyFill(orderID)
		}
	}()
}

// ApplyFillNow forces the pending fill for an order. Test hook.
func (e *Engine) ApplyFillNow(orderID string) {
	e.applyFill(orderID)
}

// applyFill draws a single random fill for an order. Roughly 60% of
// orders fill fully, 30% partially (10-90% of the amount) and the rest
// stay open. The draw happens at most once per order.
func (e *Engine) applyFill(orderID string) {
	e.rngMu.Lock()
	roll := e.rng.Float64()
	fraction := 0.1 + e.rng.Float64()*0.8
	e.rngMu.Unlock()

	e.mu.Lock()
	defer e.mu.Unlock()

	order, ok := e.orders[orderID]
	if !ok || order.Status != models.OrderStatusOpen {
		// Canceled before the fill arrived, or already settled.
		return
	}

	now := time.Now()
	switch {
	case roll < 0.6:
		order.Filled = order.Amount
		order.Status = models.OrderStatusFilled
		order.FilledAt = &now
	case roll < 0.9:
		order.Filled = order.Amount * fraction
		order.Status = models.OrderStatusPartial
		order.FilledAt = &now
	default:
		// No liquidity this round; the order stays open.
	}

	e.log.Debug().
		Str("order_id", order.ID).
		Str("status", string(order.Status)).
		Float64("filled", order.Filled).
		Msg("fill applied")
}

// CancelOrder cancels an open or partially filled order. Orders that are
// filled, triggered or already canceled reject the transition.
func (e *Engine) CancelOrder(orderID string) (*models.Order, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	order, ok := e.orders[orderID]
	if !ok {
		return nil, domainerrors.ErrOrderNotFound
	}
	if order.Status != models.OrderStatusOpen && order.Status != models.OrderStatusPartial {
		return nil, domainerrors.NewOrderError(orderID, order.Symbol, "cancel",
			"order is not cancelable in status "+string(order.Status), domainerrors.ErrOrderNotOpen)
	}

	order.Status = models.OrderStatusCanceled
	out := *order
	return &out, nil
}

// Order returns a copy of the order with the given ID.
func (e *Engine) Order(orderID string) (*models.Order, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	order, ok := e.orders[orderID]
	if !ok {
		return nil, false
	}
	out := *order
	return &out, true
}

// Orders returns copies of all orders in insertion order.
func (e *Engine) Orders() []models.Order {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]models.Order, 0, len(e.seq))
	for _, id := range e.seq {
		out = append(out, *e.orders[id])
	}
	return out
}

// Book generates a synthetic order book snapshot around the mid price.
func (e *Engine) Book(symbol string, mid float64) models.OrderBook {
	e.rngMu.Lock()
	defer e.rngMu.Unlock()
	return buildBook(e.rng, symbol, mid, e.bookLevels, e.bookSpread)
}

// Advise produces a synthetic recommendation for a symbol at a price.
func (e *Engine) Advise(symbol string, price float64) models.Advice {
	e.rngMu.Lock()
	defer e.rngMu.Unlock()
	return advise(e.rng, symbol, price)
}
