// Package portfolio provides the simulated portfolio store: open positions
// and the account balance, with write-through persistence.
package portfolio

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	domainerrors "cryptodesk/internal/errors"
	"cryptodesk/internal/models"
	"cryptodesk/internal/store"
)

// Store is the single source of truth for the simulated portfolio.
// Every mutation runs under one mutex, so the balance check and the debit
// of OpenTrade are atomic with respect to concurrent calls.
type Store struct {
	mu      sync.Mutex
	balance float64
	trades  map[string]*models.Trade
	order   []string // insertion order of trade IDs

	db  store.DataStore // optional write-through persistence
	log zerolog.Logger
}

// Config holds portfolio store configuration.
type Config struct {
	InitialBalance float64
	DataStore      store.DataStore
	Logger         zerolog.Logger
}

// OpenRequest holds the parameters for opening a trade.
type OpenRequest struct {
	Symbol     string
	Side       models.Side
	Amount     float64
	Price      float64
	TakeProfit float64
	StopLoss   float64
}

// NewStore creates a portfolio store, restoring persisted state when a
// data store is configured.
func NewStore(cfg Config) (*Store, error) {
	s := &Store{
		balance: cfg.InitialBalance,
		trades:  make(map[string]*models.Trade),
		db:      cfg.DataStore,
		log:     cfg.Logger.With().Str("component", "portfolio").Logger(),
	}

	if s.db != nil {
		if err := s.restore(); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// restore loads the persisted balance and trades.
func (s *Store) restore() error {
	ctx := context.Background()

	balance, ok, err := s.db.GetBalance(ctx)
	if err != nil {
		return err
	}
	if ok {
		s.balance = balance
	}

	trades, err := s.db.GetTrades(ctx, store.TradeFilter{})
	if err != nil {
		return err
	}
	// GetTrades returns newest first; replay oldest first to keep
	// insertion order stable.
	for i := len(trades) - 1; i >= 0; i-- {
		t := trades[i]
		s.trades[t.ID] = &t
		s.order = append(s.order, t.ID)
	}

	s.log.Info().Int("trades", len(trades)).Float64("balance", s.balance).Msg("portfolio restored")
	return nil
}

// OpenTrade opens a new simulated position. The cost price*amount is
// debited from the balance; the call fails with ErrInsufficientFunds when
// the cost exceeds the current balance.
func (s *Store) OpenTrade(ctx context.Context, req OpenRequest) (*models.Trade, error) {
	if req.Amount <= 0 {
		return nil, domainerrors.NewValidationError("amount", req.Amount, "must be positive")
	}
	if req.Price <= 0 {
		return nil, domainerrors.NewValidationError("price", req.Price, "must be positive")
	}
	if req.Side != models.SideBuy && req.Side != models.SideSell {
		return nil, domainerrors.NewValidationError("side", req.Side, "must be buy or sell")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cost := req.Price * req.Amount
	if cost > s.balance {
		return nil, domainerrors.ErrInsufficientFunds
	}

	trade := &models.Trade{
		ID:         uuid.NewString(),
		Symbol:     req.Symbol,
		Side:       req.Side,
		Amount:     req.Amount,
		Price:      req.Price,
		TakeProfit: req.TakeProfit,
		StopLoss:   req.StopLoss,
		Status:     models.TradeStatusOpen,
		OpenedAt:   time.Now(),
	}

	s.balance -= cost
	s.trades[trade.ID] = trade
	s.order = append(s.order, trade.ID)

	s.persist(ctx, trade)

	s.log.Info().
		Str("trade_id", trade.ID).
		Str("symbol", trade.Symbol).
		Str("side", string(trade.Side)).
		Float64("amount", trade.Amount).
		Float64("price", trade.Price).
		Float64("balance", s.balance).
		Msg("trade opened")

	out := *trade
	return &out, nil
}

// CloseTrade closes an open trade with the given realized profit. The
// position principal plus the profit is credited back to the balance.
// Closing a trade that is not open is an error, never a double credit.
func (s *Store) CloseTrade(ctx context.Context, id string, profit float64, reason string) (*models.Trade, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	trade, ok := s.trades[id]
	if !ok {
		return nil, domainerrors.ErrTradeNotFound
	}
	if trade.Status != models.TradeStatusOpen {
		return nil, domainerrors.ErrTradeClosed
	}

	now := time.Now()
	trade.Status = models.TradeStatusClosed
	trade.Profit = profit
	trade.CloseReason = reason
	trade.ClosedAt = &now

	s.balance += trade.Cost() + profit

	s.persist(ctx, trade)

	s.log.Info().
		Str("trade_id", trade.ID).
		Float64("profit", profit).
		Str("reason", reason).
		Float64("balance", s.balance).
		Msg("trade closed")

	out := *trade
	return &out, nil
}

// UpdateProfit overwrites the unrealized profit of an open trade.
// It reports whether a trade was updated; missing or closed trades are a
// no-op.
func (s *Store) UpdateProfit(id string, profit float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	trade, ok := s.trades[id]
	if !ok || trade.Status != models.TradeStatusOpen {
		return false
	}
	trade.Profit = profit
	return true
}

// Balance returns the current account balance.
func (s *Store) Balance() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.balance
}

// Trade returns a copy of the trade with the given ID.
func (s *Store) Trade(id string) (*models.Trade, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	trade, ok := s.trades[id]
	if !ok {
		return nil, false
	}
	out := *trade
	return &out, true
}

// Trades returns copies of all trades in insertion order.
func (s *Store) Trades() []models.Trade {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Trade, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.trades[id])
	}
	return out
}

// OpenTrades returns copies of all open trades in insertion order.
func (s *Store) OpenTrades() []models.Trade {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.Trade
	for _, id := range s.order {
		if t := s.trades[id]; t.Status == models.TradeStatusOpen {
			out = append(out, *t)
		}
	}
	return out
}

// persist writes a trade and the balance through to the data store.
// Persistence failures are logged, not fatal: the in-memory state stays
// authoritative for the session.
func (s *Store) persist(ctx context.Context, trade *models.Trade) {
	if s.db == nil {
		return
	}
	if err := s.db.SaveTrade(ctx, trade); err != nil {
		s.log.Error().Err(err).Str("trade_id", trade.ID).Msg("persisting trade failed")
	}
	if err := s.db.SetBalance(ctx, s.balance); err != nil {
		s.log.Error().Err(err).Msg("persisting balance failed")
	}
}
