package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cryptodesk/internal/chat"
	"cryptodesk/internal/config"
	"cryptodesk/internal/exchange"
	"cryptodesk/internal/market"
	"cryptodesk/internal/models"
	"cryptodesk/internal/portfolio"
	"cryptodesk/internal/store"
	"cryptodesk/internal/stream"
)

// memStore is an in-memory DataStore for handler tests.
type memStore struct {
	mu        sync.Mutex
	trades    map[string]models.Trade
	balance   *float64
	threads   map[string]*models.ChatThread
	highScore int64
}

func newMemStore() *memStore {
	return &memStore{
		trades:  make(map[string]models.Trade),
		threads: make(map[string]*models.ChatThread),
	}
}

func (m *memStore) SaveTrade(ctx context.Context, trade *models.Trade) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trades[trade.ID] = *trade
	return nil
}

func (m *memStore) GetTrades(ctx context.Context, filter store.TradeFilter) ([]models.Trade, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Trade
	for _, t := range m.trades {
		out = append(out, t)
	}
	return out, nil
}

func (m *memStore) SetBalance(ctx context.Context, balance float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balance = &balance
	return nil
}

func (m *memStore) GetBalance(ctx context.Context) (float64, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.balance == nil {
		return 0, false, nil
	}
	return *m.balance, true, nil
}

func (m *memStore) SaveThread(ctx context.Context, thread *models.ChatThread) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *thread
	m.threads[thread.ID] = &cp
	return nil
}

func (m *memStore) AppendMessage(ctx context.Context, msg *models.ChatMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	thread, ok := m.threads[msg.ThreadID]
	if !ok {
		return nil
	}
	thread.Messages = append(thread.Messages, *msg)
	thread.UpdatedAt = msg.CreatedAt
	return nil
}

func (m *memStore) GetThread(ctx context.Context, threadID string) (*models.ChatThread, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	thread, ok := m.threads[threadID]
	if !ok {
		return nil, nil
	}
	cp := *thread
	return &cp, nil
}

func (m *memStore) ListThreads(ctx context.Context) ([]models.ChatThread, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.ChatThread
	for _, t := range m.threads {
		out = append(out, *t)
	}
	return out, nil
}

func (m *memStore) GetHighScore(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.highScore, nil
}

func (m *memStore) SubmitScore(ctx context.Context, score int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if score > m.highScore {
		m.highScore = score
	}
	return m.highScore, nil
}

func (m *memStore) Close() error { return nil }

// mockCoinGecko serves fixed prices for the tracked coins.
func mockCoinGecko(t *testing.T) *httptest.Server {
	t.Helper()
	prices := map[string]float64{
		"bitcoin":  50000,
		"ethereum": 3000,
		"solana":   150,
		"cardano":  0.5,
	}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/simple/price":
			id := r.URL.Query().Get("ids")
			price, ok := prices[id]
			if !ok {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			json.NewEncoder(w).Encode(map[string]map[string]float64{id: {"usd": price}})
		default:
			json.NewEncoder(w).Encode(map[string][][2]float64{
				"prices": {{1700000000000, 49000}, {1700003600000, 49500}},
			})
		}
	}))
}

type testEnv struct {
	server *Server
	router http.Handler
	pf     *portfolio.Store
	engine *exchange.Engine
	db     *memStore
}

func newTestEnv(t *testing.T, balance float64) *testEnv {
	t.Helper()

	upstream := mockCoinGecko(t)
	t.Cleanup(upstream.Close)

	logger := zerolog.Nop()
	db := newMemStore()

	marketClient := market.NewClient(market.Config{
		BaseURL:        upstream.URL,
		RequestTimeout: 2 * time.Second,
		CacheTTL:       time.Minute,
		RateLimit:      1000,
		RateLimitBurst: 1000,
		FallbackPrice:  50000,
		Logger:         logger,
	})

	pf, err := portfolio.NewStore(portfolio.Config{
		InitialBalance: balance,
		DataStore:      db,
		Logger:         logger,
	})
	require.NoError(t, err)

	// The engine stays in synchronous mode: fills are applied explicitly.
	engine := exchange.NewEngine(exchange.Config{
		BookLevels: 10,
		BookSpread: 0.02,
		Logger:     logger,
		Seed:       1,
	})

	chatSvc := chat.NewService(chat.Config{
		Prices:    marketClient,
		DataStore: db,
		Logger:    logger,
	})

	hub := stream.NewHub(stream.DefaultHubConfig(), logger)

	cfg := &config.Config{}
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 8080

	srv := New(Deps{
		Config:    cfg,
		Logger:    logger,
		Portfolio: pf,
		Engine:    engine,
		Market:    marketClient,
		Chat:      chatSvc,
		DataStore: db,
		Hub:       hub,
	})

	return &testEnv{
		server: srv,
		router: srv.Router(),
		pf:     pf,
		engine: engine,
		db:     db,
	}
}

func (e *testEnv) request(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t, 10000)
	rec := env.request(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPricesEndpoint(t *testing.T) {
	env := newTestEnv(t, 10000)

	rec := env.request(t, http.MethodGet, "/api/crypto/prices", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Prices map[string]float64 `json:"prices"`
	}
	decode(t, rec, &body)
	assert.Equal(t, 50000.0, body.Prices["BTC"])
	assert.Equal(t, 3000.0, body.Prices["ETH"])
	assert.Len(t, body.Prices, 4)
}

func TestPriceHistoryEndpoint(t *testing.T) {
	env := newTestEnv(t, 10000)

	rec := env.request(t, http.MethodGet, "/api/crypto/prices/history?coinId=bitcoin&days=7", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		CoinID string             `json:"coinId"`
		Days   int                `json:"days"`
		Prices []models.PricePoint `json:"prices"`
	}
	decode(t, rec, &body)
	assert.Equal(t, "bitcoin", body.CoinID)
	assert.Equal(t, 7, body.Days)
	assert.Len(t, body.Prices, 2)

	rec = env.request(t, http.MethodGet, "/api/crypto/prices/history", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "missing coinId")

	rec = env.request(t, http.MethodGet, "/api/crypto/prices/history?coinId=bitcoin&days=9999", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "days out of range")
}

func TestChatEndpointExtractsSignal(t *testing.T) {
	env := newTestEnv(t, 10000)

	rec := env.request(t, http.MethodPost, "/api/chat", map[string]string{
		"message": "Buy 0.5 ETH with TP at 3000 and SL at 2800",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		ThreadID string         `json:"threadId"`
		Response string         `json:"response"`
		Signal   *models.Signal `json:"signal"`
	}
	decode(t, rec, &body)

	assert.NotEmpty(t, body.ThreadID)
	assert.NotEmpty(t, body.Response)
	require.NotNil(t, body.Signal)
	assert.Equal(t, models.OrderBuy, body.Signal.Type)
	assert.Equal(t, "ETH", body.Signal.Token)
	assert.Equal(t, "0.5", body.Signal.Amount)
	assert.Empty(t, body.Signal.Price)
	assert.Equal(t, "3000", body.Signal.TakeProfit)
	assert.Equal(t, "2800", body.Signal.StopLoss)
	assert.Equal(t, "ETH/USDC", body.Signal.Pair)

	// The thread is persisted and retrievable with both messages.
	rec = env.request(t, http.MethodGet, "/api/chat/threads/"+body.ThreadID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var thread models.ChatThread
	decode(t, rec, &thread)
	assert.Len(t, thread.Messages, 2)
}

func TestChatEndpointValidation(t *testing.T) {
	env := newTestEnv(t, 10000)

	rec := env.request(t, http.MethodPost, "/api/chat", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChatThreadNotFound(t *testing.T) {
	env := newTestEnv(t, 10000)

	rec := env.request(t, http.MethodGet, "/api/chat/threads/does-not-exist", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTradingExecuteQuote(t *testing.T) {
	env := newTestEnv(t, 10000)

	rec := env.request(t, http.MethodPost, "/api/trading/execute", map[string]any{
		"type":          "swap",
		"token":         "BTC",
		"token_amount":  "2",
		"slippage_bips": 50,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var body tradeResponse
	decode(t, rec, &body)

	assert.NotEmpty(t, body.QuoteID)
	assert.Equal(t, "2", body.InputAmount)
	assert.Equal(t, "50000", body.Price)
	// fee = 2 * 50000 * 0.001
	assert.Equal(t, "100", body.Fee)
	// output = (100000 - 100) * (1 - 0.005)
	assert.Equal(t, "99400.5", body.OutputAmount)
	assert.Equal(t, "MARKET", body.OrderType)

	expires, err := time.Parse(time.RFC3339, body.ExpiresAt)
	require.NoError(t, err)
	assert.True(t, expires.After(time.Now()))
}

func TestTradingExecuteLimitPrice(t *testing.T) {
	env := newTestEnv(t, 10000)

	rec := env.request(t, http.MethodPost, "/api/trading/execute", map[string]any{
		"type":         "swap",
		"token":        "ETH",
		"token_amount": "1",
		"order_type":   "BUY_LIMIT",
		"price":        2900,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var body tradeResponse
	decode(t, rec, &body)
	assert.Equal(t, "2900", body.Price)
	assert.Equal(t, "BUY_LIMIT", body.OrderType)
}

func TestTradingExecuteValidation(t *testing.T) {
	env := newTestEnv(t, 10000)

	rec := env.request(t, http.MethodPost, "/api/trading/execute", map[string]any{
		"type":         "swap",
		"token":        "BTC",
		"token_amount": "-1",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.request(t, http.MethodPost, "/api/trading/execute", map[string]any{
		"type":          "swap",
		"token":         "BTC",
		"token_amount":  "1",
		"slippage_bips": 20000,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPortfolioLifecycle(t *testing.T) {
	env := newTestEnv(t, 10000)

	// Balance starts at the configured value.
	rec := env.request(t, http.MethodGet, "/api/portfolio/balance", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var balanceBody struct {
		Balance float64 `json:"balance"`
	}
	decode(t, rec, &balanceBody)
	assert.Equal(t, 10000.0, balanceBody.Balance)

	// Open a trade at an explicit price.
	rec = env.request(t, http.MethodPost, "/api/portfolio/trades", map[string]any{
		"symbol": "ETH",
		"side":   "buy",
		"amount": 2,
		"price":  3000,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var trade models.Trade
	decode(t, rec, &trade)
	assert.Equal(t, models.TradeStatusOpen, trade.Status)

	// Close it; the market best ask is 3000*1.001 = 3003.
	rec = env.request(t, http.MethodPost, "/api/portfolio/trades/"+trade.ID+"/close", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var closed models.Trade
	decode(t, rec, &closed)
	assert.Equal(t, models.TradeStatusClosed, closed.Status)
	assert.InDelta(t, 6, closed.Profit, 1e-6)

	// Closing again conflicts.
	rec = env.request(t, http.MethodPost, "/api/portfolio/trades/"+trade.ID+"/close", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestOpenTradeInsufficientFunds(t *testing.T) {
	env := newTestEnv(t, 100)

	rec := env.request(t, http.MethodPost, "/api/portfolio/trades", map[string]any{
		"symbol": "BTC",
		"side":   "buy",
		"amount": 1,
		"price":  50000,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestCloseUnknownTrade(t *testing.T) {
	env := newTestEnv(t, 10000)

	rec := env.request(t, http.MethodPost, "/api/portfolio/trades/missing/close", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestOrderLifecycle(t *testing.T) {
	env := newTestEnv(t, 10000)

	rec := env.request(t, http.MethodPost, "/api/orders", map[string]any{
		"symbol": "BTC",
		"type":   "BUY_LIMIT",
		"price":  49000,
		"amount": 0.5,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var order models.Order
	decode(t, rec, &order)
	assert.Equal(t, models.OrderStatusOpen, order.Status)
	assert.Equal(t, "BTC/USDC", order.Pair)

	// Listed.
	rec = env.request(t, http.MethodGet, "/api/orders", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Orders []models.Order `json:"orders"`
	}
	decode(t, rec, &list)
	require.Len(t, list.Orders, 1)

	// Canceled.
	rec = env.request(t, http.MethodDelete, "/api/orders/"+order.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// A second cancel conflicts.
	rec = env.request(t, http.MethodDelete, "/api/orders/"+order.ID, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Unknown orders are 404.
	rec = env.request(t, http.MethodDelete, "/api/orders/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPlaceOrderValidation(t *testing.T) {
	env := newTestEnv(t, 10000)

	// Limit order without a price.
	rec := env.request(t, http.MethodPost, "/api/orders", map[string]any{
		"symbol": "BTC",
		"type":   "BUY_LIMIT",
		"amount": 0.5,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Unknown order type.
	rec = env.request(t, http.MethodPost, "/api/orders", map[string]any{
		"symbol": "BTC",
		"type":   "ICEBERG",
		"amount": 0.5,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Buy take profit below entry.
	rec = env.request(t, http.MethodPost, "/api/orders", map[string]any{
		"symbol":          "BTC",
		"type":            "BUY_LIMIT",
		"price":           50000,
		"amount":          0.5,
		"takeProfitPrice": 49000,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMarketOrderUsesLivePrice(t *testing.T) {
	env := newTestEnv(t, 10000)

	rec := env.request(t, http.MethodPost, "/api/orders", map[string]any{
		"symbol": "ETH",
		"type":   "BUY",
		"amount": 1,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var order models.Order
	decode(t, rec, &order)
	assert.Equal(t, 3000.0, order.Price)
}

func TestOrderBookEndpoint(t *testing.T) {
	env := newTestEnv(t, 10000)

	rec := env.request(t, http.MethodGet, "/api/orderbook/BTC", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var book models.OrderBook
	decode(t, rec, &book)
	assert.Equal(t, "BTC", book.Symbol)
	assert.Equal(t, 50000.0, book.MidPrice)
	assert.Len(t, book.Bids, 10)
	assert.Len(t, book.Asks, 10)

	rec = env.request(t, http.MethodGet, "/api/orderbook/DOGE", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdviceEndpoint(t *testing.T) {
	env := newTestEnv(t, 10000)

	rec := env.request(t, http.MethodGet, "/api/orders/advice/ETH", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var advice models.Advice
	decode(t, rec, &advice)
	assert.Equal(t, "ETH", advice.Symbol)
	assert.Contains(t, []models.AdviceAction{models.AdviceBuy, models.AdviceSell, models.AdviceHold}, advice.Action)
}

func TestCoinbaseMockEndpoints(t *testing.T) {
	env := newTestEnv(t, 10000)

	for _, path := range []string{
		"/api/coinbase/markets",
		"/api/coinbase/accounts",
		"/api/coinbase/orderbook",
		"/api/coinbase/trades",
	} {
		rec := env.request(t, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.NotEmpty(t, rec.Body.String(), path)
	}
}

func TestGameScore(t *testing.T) {
	env := newTestEnv(t, 10000)

	rec := env.request(t, http.MethodGet, "/api/game/score", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var scoreBody struct {
		HighScore    int64 `json:"highScore"`
		SessionScore int64 `json:"sessionScore"`
	}
	decode(t, rec, &scoreBody)
	assert.Equal(t, int64(0), scoreBody.HighScore)

	rec = env.request(t, http.MethodPost, "/api/game/score", map[string]any{"score": 250})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Set-Cookie"))

	// Lower submissions do not regress the high score.
	rec = env.request(t, http.MethodPost, "/api/game/score", map[string]any{"score": 100})
	require.Equal(t, http.StatusOK, rec.Code)
	var submitBody struct {
		HighScore int64 `json:"highScore"`
		Score     int64 `json:"score"`
	}
	decode(t, rec, &submitBody)
	assert.Equal(t, int64(250), submitBody.HighScore)
	assert.Equal(t, int64(100), submitBody.Score)

	rec = env.request(t, http.MethodPost, "/api/game/score", map[string]any{"score": -5})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Zero is a legitimate score and must not trip validation.
	rec = env.request(t, http.MethodPost, "/api/game/score", map[string]any{"score": 0})
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &submitBody)
	assert.Equal(t, int64(250), submitBody.HighScore)
	assert.Equal(t, int64(0), submitBody.Score)
}
