package stream

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"cryptodesk/internal/models"
)

// QuoteSource supplies bid/ask quotes for the feeder.
type QuoteSource interface {
	BestQuote(ctx context.Context, symbol string) (bid, ask float64, err error)
}

// Feeder polls quotes for a set of symbols and publishes them to a hub
// as ticks.
type Feeder struct {
	hub      *Hub
	quotes   QuoteSource
	symbols  []string
	interval time.Duration
	log      zerolog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// FeederConfig holds feeder configuration.
type FeederConfig struct {
	Hub      *Hub
	Quotes   QuoteSource
	Symbols  []string
	Interval time.Duration
	Logger   zerolog.Logger
}

// NewFeeder creates a tick feeder.
func NewFeeder(cfg FeederConfig) *Feeder {
	interval := cfg.Interval
	if interval <= 0 {
		interval = time.Second
	}
	return &Feeder{
		hub:      cfg.Hub,
		quotes:   cfg.Quotes,
		symbols:  cfg.Symbols,
		interval: interval,
		log:      cfg.Logger.With().Str("component", "feeder").Logger(),
		done:     make(chan struct{}),
	}
}

// Start launches the polling loop. Second and later calls are no-ops.
func (f *Feeder) Start(ctx context.Context) {
	f.mu.Lock()
	if f.cancel != nil {
		f.mu.Unlock()
		return
	}
	ctx, f.cancel = context.WithCancel(ctx)
	f.mu.Unlock()

	go func() {
		defer close(f.done)
		ticker := time.NewTicker(f.interval)
		defer ticker.Stop()

		f.publishAll(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				f.publishAll(ctx)
			}
		}
	}()
}

// Stop cancels the loop and waits for it to exit. Stop without a prior
// Start is a no-op.
func (f *Feeder) Stop() {
	f.mu.Lock()
	cancel := f.cancel
	f.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-f.done
}

func (f *Feeder) publishAll(ctx context.Context) {
	now := time.Now()
	for _, symbol := range f.symbols {
		bid, ask, err := f.quotes.BestQuote(ctx, symbol)
		if err != nil {
			f.log.Debug().Err(err).Str("symbol", symbol).Msg("quote fetch failed")
			continue
		}
		f.hub.Publish(models.Tick{
			Symbol:    symbol,
			Bid:       bid,
			Ask:       ask,
			Last:      (bid + ask) / 2,
			Timestamp: now,
		})
	}
}
