package store

import (
	"context"
	"sort"
	"sync"

	"cryptodesk/internal/models"
)

// MemoryStore implements DataStore entirely in memory. It backs the
// degraded mode used when the SQLite store cannot be opened: every
// operation works, nothing survives a restart.
type MemoryStore struct {
	mu        sync.Mutex
	trades    map[string]models.Trade
	balance   *float64
	threads   map[string]*models.ChatThread
	highScore int64
}

// NewMemoryStore creates an empty in-memory data store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		trades:  make(map[string]models.Trade),
		threads: make(map[string]*models.ChatThread),
	}
}

// SaveTrade inserts or replaces a trade.
func (m *MemoryStore) SaveTrade(ctx context.Context, trade *models.Trade) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trades[trade.ID] = *trade
	return nil
}

// GetTrades returns trades matching the filter, newest first.
func (m *MemoryStore) GetTrades(ctx context.Context, filter TradeFilter) ([]models.Trade, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var trades []models.Trade
	for _, t := range m.trades {
		if filter.Symbol != "" && t.Symbol != filter.Symbol {
			continue
		}
		if filter.Status != "" && t.Status != filter.Status {
			continue
		}
		trades = append(trades, t)
	}
	sort.Slice(trades, func(i, j int) bool {
		return trades[i].OpenedAt.After(trades[j].OpenedAt)
	})
	if filter.Limit > 0 && len(trades) > filter.Limit {
		trades = trades[:filter.Limit]
	}
	return trades, nil
}

// SetBalance stores the current account balance.
func (m *MemoryStore) SetBalance(ctx context.Context, balance float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balance = &balance
	return nil
}

// GetBalance returns the stored balance. The second return value is
// false when no balance has ever been stored.
func (m *MemoryStore) GetBalance(ctx context.Context) (float64, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.balance == nil {
		return 0, false, nil
	}
	return *m.balance, true, nil
}

// SaveThread inserts or updates a chat thread. Messages already
// appended to a stored thread are kept on update.
func (m *MemoryStore) SaveThread(ctx context.Context, thread *models.ChatThread) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.threads[thread.ID]; ok {
		existing.Title = thread.Title
		existing.UpdatedAt = thread.UpdatedAt
		return nil
	}
	cp := *thread
	cp.Messages = append([]models.ChatMessage(nil), thread.Messages...)
	m.threads[thread.ID] = &cp
	return nil
}

// AppendMessage appends a message to its thread and bumps updated_at.
func (m *MemoryStore) AppendMessage(ctx context.Context, msg *models.ChatMessage) error {
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

// GetThread returns a thread with its messages in chronological order,
// or nil when the thread does not exist.
func (m *MemoryStore) GetThread(ctx context.Context, threadID string) (*models.ChatThread, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	thread, ok := m.threads[threadID]
	if !ok {
		return nil, nil
	}
	cp := *thread
	cp.Messages = append([]models.ChatMessage(nil), thread.Messages...)
	sort.SliceStable(cp.Messages, func(i, j int) bool {
		return cp.Messages[i].CreatedAt.Before(cp.Messages[j].CreatedAt)
	})
	return &cp, nil
}

// ListThreads returns all threads, most recently active first.
func (m *MemoryStore) ListThreads(ctx context.Context) ([]models.ChatThread, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var threads []models.ChatThread
	for _, t := range m.threads {
		cp := *t
		cp.Messages = nil
		threads = append(threads, cp)
	}
	sort.Slice(threads, func(i, j int) bool {
		return threads[i].UpdatedAt.After(threads[j].UpdatedAt)
	})
	return threads, nil
}

// GetHighScore returns the best recorded game score, 0 when none exists.
func (m *MemoryStore) GetHighScore(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.highScore, nil
}

// SubmitScore records a score and returns the resulting high score.
func (m *MemoryStore) SubmitScore(ctx context.Context, score int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if score > m.highScore {
		m.highScore = score
	}
	return m.highScore, nil
}

// Close is a no-op.
func (m *MemoryStore) Close() error { return nil }

// Ensure MemoryStore implements DataStore
var _ DataStore = (*MemoryStore)(nil)
