// Package monitor provides the position-monitoring loop: it re-prices
// open trades on a fixed interval and auto-closes them when take-profit
// or stop-loss thresholds are breached.
package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"cryptodesk/internal/models"
	"cryptodesk/internal/portfolio"
)

// Close reasons recorded on auto-closed trades.
const (
	ReasonTakeProfit = "take_profit"
	ReasonStopLoss   = "stop_loss"
	ReasonManual     = "manual"
)

// PriceSource supplies the current best ask for a symbol.
type PriceSource interface {
	BestAsk(ctx context.Context, symbol string) (float64, error)
}

// Config holds monitor configuration.
type Config struct {
	Portfolio *portfolio.Store
	Prices    PriceSource
	Interval  time.Duration
	Logger    zerolog.Logger
}

// Monitor is the polling loop over open trades. It is started and
// stopped with a context, so no trade mutation can happen after
// shutdown.
type Monitor struct {
	portfolio *portfolio.Store
	prices    PriceSource
	interval  time.Duration
	log       zerolog.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	started bool
}

// New creates a new position monitor.
func New(cfg Config) *Monitor {
	interval := cfg.Interval
	if interval <= 0 {
		interval = time.Second
	}
	return &Monitor{
		portfolio: cfg.Portfolio,
		prices:    cfg.Prices,
		interval:  interval,
		log:       cfg.Logger.With().Str("component", "monitor").Logger(),
	}
}

// Start launches the polling loop. Calling Start on a running monitor is
// a no-op.
func (m *Monitor) Start(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started {
		return
	}

	loopCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.done = make(chan struct{})
	m.started = true

	go m.loop(loopCtx)
}

// Stop terminates the loop and waits for the current tick to finish.
func (m *Monitor) Stop() {
	m.mu.Lock()
	if !m.started {
		m.mu.Unlock()
		return
	}
	cancel, done := m.cancel, m.done
	m.started = false
	m.mu.Unlock()

	cancel()
	<-done
}

func (m *Monitor) loop(ctx context.Context) {
	defer close(m.done)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Tick(ctx)
		}
	}
}

// Tick runs one monitoring pass: for every open trade, fetch the current
// price, recompute unrealized profit, then check TP/SL triggers. A fetch
// failure for one trade logs and skips that trade for this tick only.
func (m *Monitor) Tick(ctx context.Context) {
	for _, trade := range m.portfolio.OpenTrades() {
		current, err := m.prices.BestAsk(ctx, trade.Symbol)
		if err != nil {
			m.log.Warn().Err(err).
				Str("trade_id", trade.ID).
				Str("symbol", trade.Symbol).
				Msg("price fetch failed, skipping trade this tick")
			continue
		}

		profit := unrealizedProfit(&trade, current)
		m.portfolio.UpdateProfit(trade.ID, profit)

		if reason, hit := triggered(&trade, current); hit {
			// Realized profit uses the fetched price that tripped the
			// trigger, not the threshold price.
			if _, err := m.portfolio.CloseTrade(ctx, trade.ID, profit, reason); err != nil {
				m.log.Warn().Err(err).Str("trade_id", trade.ID).Msg("auto-close failed")
				continue
			}
			m.log.Info().
				Str("trade_id", trade.ID).
				Str("symbol", trade.Symbol).
				Str("reason", reason).
				Float64("price", current).
				Float64("profit", profit).
				Msg("trade auto-closed")
		}
	}
}

// unrealizedProfit recomputes (never accumulates) the profit of a trade
// at the current price.
func unrealizedProfit(trade *models.Trade, current float64) float64 {
	diff := current - trade.Price
	if trade.Side == models.SideSell {
		diff = -diff
	}
	return diff * trade.Amount
}

// triggered checks TP before SL; the first matching condition wins.
func triggered(trade *models.Trade, current float64) (string, bool) {
	if trade.Side == models.SideBuy {
		if trade.TakeProfit != 0 && current >= trade.TakeProfit {
			return ReasonTakeProfit, true
		}
		if trade.StopLoss != 0 && current <= trade.StopLoss {
			return ReasonStopLoss, true
		}
		return "", false
	}

	if trade.TakeProfit != 0 && current <= trade.TakeProfit {
		return ReasonTakeProfit, true
	}
	if trade.StopLoss != 0 && current >= trade.StopLoss {
		return ReasonStopLoss, true
	}
	return "", false
}
