package stream

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type staticQuotes struct {
	quotes map[string][2]float64
}

func (s *staticQuotes) BestQuote(ctx context.Context, symbol string) (float64, float64, error) {
	q, ok := s.quotes[symbol]
	if !ok {
		return 0, 0, fmt.Errorf("unknown symbol %s", symbol)
	}
	return q[0], q[1], nil
}

func TestFeederPublishesQuotes(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub(DefaultHubConfig(), zerolog.Nop())
	hub.Start(ctx)

	sub := hub.Subscribe("BTC")
	defer hub.Unsubscribe(sub)

	feeder := NewFeeder(FeederConfig{
		Hub:      hub,
		Quotes:   &staticQuotes{quotes: map[string][2]float64{"BTC": {49990, 50010}}},
		Symbols:  []string{"BTC"},
		Interval: 10 * time.Millisecond,
		Logger:   zerolog.Nop(),
	})
	feeder.Start(ctx)
	defer feeder.Stop()

	got := receiveTick(t, sub.Channel)
	if got.Symbol != "BTC" {
		t.Errorf("symbol = %s, want BTC", got.Symbol)
	}
	if got.Bid != 49990 || got.Ask != 50010 {
		t.Errorf("quote = %v/%v, want 49990/50010", got.Bid, got.Ask)
	}
	if got.Last != 50000 {
		t.Errorf("last = %v, want mid 50000", got.Last)
	}
}

func TestFeederSkipsFailingSymbols(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub(DefaultHubConfig(), zerolog.Nop())
	hub.Start(ctx)

	sub := hub.Subscribe(AllSymbols)
	defer hub.Unsubscribe(sub)

	feeder := NewFeeder(FeederConfig{
		Hub:      hub,
		Quotes:   &staticQuotes{quotes: map[string][2]float64{"ETH": {2990, 3010}}},
		Symbols:  []string{"DOGE", "ETH"}, // DOGE always fails
		Interval: 10 * time.Millisecond,
		Logger:   zerolog.Nop(),
	})
	feeder.Start(ctx)
	defer feeder.Stop()

	got := receiveTick(t, sub.Channel)
	if got.Symbol != "ETH" {
		t.Errorf("symbol = %s, want ETH (failing symbols skipped)", got.Symbol)
	}
}

func TestFeederStopWithoutStart(t *testing.T) {
	feeder := NewFeeder(FeederConfig{
		Hub:    NewHub(DefaultHubConfig(), zerolog.Nop()),
		Quotes: &staticQuotes{},
		Logger: zerolog.Nop(),
	})

	done := make(chan struct{})
	go func() {
		feeder.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop before Start must return immediately")
	}
}
