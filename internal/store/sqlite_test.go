package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"cryptodesk/internal/models"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveAndGetTrades(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	trade := &models.Trade{
		ID:         "t1",
		Symbol:     "BTC",
		Side:       models.SideBuy,
		Amount:     0.5,
		Price:      50000,
		TakeProfit: 55000,
		Status:     models.TradeStatusOpen,
		OpenedAt:   time.Now().Add(-time.Minute),
	}
	if err := s.SaveTrade(ctx, trade); err != nil {
		t.Fatalf("SaveTrade: %v", err)
	}

	trades, err := s.GetTrades(ctx, TradeFilter{})
	if err != nil {
		t.Fatalf("GetTrades: %v", err)
	}
	if len(trades) != 1 {
		t.Fatalf("trades = %d, want 1", len(trades))
	}

	got := trades[0]
	if got.ID != "t1" || got.Symbol != "BTC" || got.Side != models.SideBuy {
		t.Errorf("trade = %+v", got)
	}
	if got.TakeProfit != 55000 {
		t.Errorf("take profit = %v, want 55000", got.TakeProfit)
	}
	if got.StopLoss != 0 {
		t.Errorf("stop loss = %v, want 0 (stored as NULL)", got.StopLoss)
	}
	if got.ClosedAt != nil {
		t.Error("ClosedAt should be nil for open trades")
	}
}

func TestSaveTradeUpsertsOnClose(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	trade := &models.Trade{
		ID:       "t1",
		Symbol:   "ETH",
		Side:     models.SideBuy,
		Amount:   1,
		Price:    3000,
		Status:   models.TradeStatusOpen,
		OpenedAt: time.Now(),
	}
	if err := s.SaveTrade(ctx, trade); err != nil {
		t.Fatalf("SaveTrade: %v", err)
	}

	now := time.Now()
	trade.Status = models.TradeStatusClosed
	trade.Profit = 42
	trade.CloseReason = "take_profit"
	trade.ClosedAt = &now
	if err := s.SaveTrade(ctx, trade); err != nil {
		t.Fatalf("SaveTrade update: %v", err)
	}

	trades, err := s.GetTrades(ctx, TradeFilter{})
	if err != nil {
		t.Fatalf("GetTrades: %v", err)
	}
	if len(trades) != 1 {
		t.Fatalf("upsert duplicated the row: %d trades", len(trades))
	}
	got := trades[0]
	if got.Status != models.TradeStatusClosed || got.Profit != 42 || got.CloseReason != "take_profit" {
		t.Errorf("trade after upsert = %+v", got)
	}
	if got.ClosedAt == nil {
		t.Error("ClosedAt should be set after close")
	}
}

func TestGetTradesFilters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	for i, tr := range []*models.Trade{
		{ID: "a", Symbol: "BTC", Side: models.SideBuy, Amount: 1, Price: 1, Status: models.TradeStatusOpen},
		{ID: "b", Symbol: "ETH", Side: models.SideBuy, Amount: 1, Price: 1, Status: models.TradeStatusClosed},
		{ID: "c", Symbol: "BTC", Side: models.SideSell, Amount: 1, Price: 1, Status: models.TradeStatusClosed},
	} {
		tr.OpenedAt = base.Add(time.Duration(i) * time.Minute)
		if err := s.SaveTrade(ctx, tr); err != nil {
			t.Fatalf("SaveTrade %s: %v", tr.ID, err)
		}
	}

	btc, err := s.GetTrades(ctx, TradeFilter{Symbol: "BTC"})
	if err != nil {
		t.Fatalf("GetTrades: %v", err)
	}
	if len(btc) != 2 {
		t.Errorf("BTC trades = %d, want 2", len(btc))
	}

	closed, err := s.GetTrades(ctx, TradeFilter{Status: models.TradeStatusClosed})
	if err != nil {
		t.Fatalf("GetTrades: %v", err)
	}
	if len(closed) != 2 {
		t.Errorf("closed trades = %d, want 2", len(closed))
	}

	limited, err := s.GetTrades(ctx, TradeFilter{Limit: 1})
	if err != nil {
		t.Fatalf("GetTrades: %v", err)
	}
	if len(limited) != 1 {
		t.Fatalf("limited trades = %d, want 1", len(limited))
	}
	// Newest first.
	if limited[0].ID != "c" {
		t.Errorf("newest trade = %s, want c", limited[0].ID)
	}
}

func TestBalanceRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, ok, err := s.GetBalance(ctx)
	if err != nil {
		t.Fatalf("GetBalance: %v", err)
	}
	if ok {
		t.Fatal("fresh store must report no stored balance")
	}

	if err := s.SetBalance(ctx, 9876.54); err != nil {
		t.Fatalf("SetBalance: %v", err)
	}
	balance, ok, err := s.GetBalance(ctx)
	if err != nil {
		t.Fatalf("GetBalance: %v", err)
	}
	if !ok || balance != 9876.54 {
		t.Errorf("balance = %v/%v, want 9876.54/true", balance, ok)
	}

	// Overwrites, never accumulates rows.
	if err := s.SetBalance(ctx, 123); err != nil {
		t.Fatalf("SetBalance: %v", err)
	}
	balance, _, _ = s.GetBalance(ctx)
	if balance != 123 {
		t.Errorf("balance = %v, want 123", balance)
	}
}

func TestThreadsAndMessages(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	now := time.Now().Truncate(time.Second)
	thread := &models.ChatThread{ID: "th1", Title: "buy btc", CreatedAt: now, UpdatedAt: now}
	if err := s.SaveThread(ctx, thread); err != nil {
		t.Fatalf("SaveThread: %v", err)
	}

	for i, msg := range []*models.ChatMessage{
		{ID: "m1", ThreadID: "th1", Role: "user", Content: "buy 1 btc"},
		{ID: "m2", ThreadID: "th1", Role: "assistant", Content: "opening the order form"},
	} {
		msg.CreatedAt = now.Add(time.Duration(i+1) * time.Second)
		if err := s.AppendMessage(ctx, msg); err != nil {
			t.Fatalf("AppendMessage %s: %v", msg.ID, err)
		}
	}

	got, err := s.GetThread(ctx, "th1")
	if err != nil {
		t.Fatalf("GetThread: %v", err)
	}
	if got == nil {
		t.Fatal("thread not found")
	}
	if len(got.Messages) != 2 {
		t.Fatalf("messages = %d, want 2", len(got.Messages))
	}
	if got.Messages[0].Role != "user" || got.Messages[1].Role != "assistant" {
		t.Errorf("messages out of order: %+v", got.Messages)
	}

	missing, err := s.GetThread(ctx, "nope")
	if err != nil {
		t.Fatalf("GetThread missing: %v", err)
	}
	if missing != nil {
		t.Errorf("missing thread = %+v, want nil", missing)
	}

	threads, err := s.ListThreads(ctx)
	if err != nil {
		t.Fatalf("ListThreads: %v", err)
	}
	if len(threads) != 1 || threads[0].ID != "th1" {
		t.Errorf("threads = %+v", threads)
	}
}

func TestHighScore(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	high, err := s.GetHighScore(ctx)
	if err != nil {
		t.Fatalf("GetHighScore: %v", err)
	}
	if high != 0 {
		t.Errorf("fresh high score = %d, want 0", high)
	}

	if _, err := s.SubmitScore(ctx, 100); err != nil {
		t.Fatalf("SubmitScore: %v", err)
	}
	high, err = s.SubmitScore(ctx, 50)
	if err != nil {
		t.Fatalf("SubmitScore: %v", err)
	}
	if high != 100 {
		t.Errorf("high score = %d, want 100 (lower scores never regress it)", high)
	}

	high, err = s.SubmitScore(ctx, 250)
	if err != nil {
		t.Fatalf("SubmitScore: %v", err)
	}
	if high != 250 {
		t.Errorf("high score = %d, want 250", high)
	}
}
