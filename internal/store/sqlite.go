package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"cryptodesk/internal/models"
)

// SQLiteStore implements DataStore using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite-based data store.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool for concurrent access
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	store := &SQLiteStore{db: db}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// initSchema creates all required tables and indexes.
func (s *SQLiteStore) initSchema() error {
	schema := `
	-- Simulated positions
	CREATE TABLE IF NOT EXISTS trades (
		id TEXT PRIMARY KEY,
		symbol TEXT NOT NULL,
		side TEXT NOT NULL,
		amount REAL NOT NULL,
		price REAL NOT NULL,
		take_profit REAL,
		stop_loss REAL,
		status TEXT NOT NULL,
		profit REAL NOT NULL DEFAULT 0,
		close_reason TEXT,
		opened_at DATETIME NOT NULL,
		closed_at DATETIME
	);
	CREATE INDEX IF NOT EXISTS idx_trades_status ON trades(status);
	CREATE INDEX IF NOT EXISTS idx_trades_symbol ON trades(symbol);

	-- Singleton key-value state (account balance)
	CREATE TABLE IF NOT EXISTS meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	-- Chat threads and messages
	CREATE TABLE IF NOT EXISTS chat_threads (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS chat_messages (
		id TEXT PRIMARY KEY,
		thread_id TEXT NOT NULL,
		role TEXT NOT NULL,
		content TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		FOREIGN KEY (thread_id) REFERENCES chat_threads(id)
	);
	CREATE INDEX IF NOT EXISTS idx_chat_messages_thread ON chat_messages(thread_id);

	-- Mini-game high score
	CREATE TABLE IF NOT EXISTS game_scores (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		score INTEGER NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// SaveTrade inserts or updates a trade row.
func (s *SQLiteStore) SaveTrade(ctx context.Context, trade *models.Trade) error {
	query := `
	INSERT INTO trades (id, symbol, side, amount, price, take_profit, stop_loss, status, profit, close_reason, opened_at, closed_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		status = excluded.status,
		profit = excluded.profit,
		close_reason = excluded.close_reason,
		closed_at = excluded.closed_at`

	var closedAt interface{}
	if trade.ClosedAt != nil {
		closedAt = *trade.ClosedAt
	}

	_, err := s.db.ExecContext(ctx, query,
		trade.ID, trade.Symbol, string(trade.Side), trade.Amount, trade.Price,
		nullableFloat(trade.TakeProfit), nullableFloat(trade.StopLoss),
		string(trade.Status), trade.Profit, trade.CloseReason, trade.OpenedAt, closedAt)
	if err != nil {
		return fmt.Errorf("saving trade %s: %w", trade.ID, err)
	}
	return nil
}

// GetTrades returns trades matching the filter, newest first.
func (s *SQLiteStore) GetTrades(ctx context.Context, filter TradeFilter) ([]models.Trade, error) {
	query := `SELECT id, symbol, side, amount, price, take_profit, stop_loss, status, profit, close_reason, opened_at, closed_at
	          FROM trades WHERE 1=1`
	args := []interface{}{}

	if filter.Symbol != "" {
		query += " AND symbol = ?"
		args = append(args, filter.Symbol)
	}
	if filter.Status != "" {
		query += " AND status = ?"
		args = append(args, string(filter.Status))
	}
	query += " ORDER BY opened_at DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying trades: %w", err)
	}
	defer rows.Close()

	var trades []models.Trade
	for rows.Next() {
		var t models.Trade
		var side, status string
		var tp, sl sql.NullFloat64
		var reason sql.NullString
		var closedAt sql.NullTime

		if err := rows.Scan(&t.ID, &t.Symbol, &side, &t.Amount, &t.Price,
			&tp, &sl, &status, &t.Profit, &reason, &t.OpenedAt, &closedAt); err != nil {
			return nil, fmt.Errorf("scanning trade: %w", err)
		}

		t.Side = models.Side(side)
		t.Status = models.TradeStatus(status)
		if tp.Valid {
			t.TakeProfit = tp.Float64
		}
		if sl.Valid {
			t.StopLoss = sl.Float64
		}
		if reason.Valid {
			t.CloseReason = reason.String
		}
		if closedAt.Valid {
			ts := closedAt.Time
			t.ClosedAt = &ts
		}
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

// SetBalance persists the current account balance.
func (s *SQLiteStore) SetBalance(ctx context.Context, balance float64) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO meta (key, value) VALUES ('balance', ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		fmt.Sprintf("%g", balance))
	if err != nil {
		return fmt.Errorf("saving balance: %w", err)
	}
	return nil
}

// GetBalance returns the persisted balance. The second return value is
// false when no balance has ever been stored.
func (s *SQLiteStore) GetBalance(ctx context.Context) (float64, bool, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = 'balance'`).Scan(&raw)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("loading balance: %w", err)
	}

	var balance float64
	if _, err := fmt.Sscanf(raw, "%g", &balance); err != nil {
		return 0, false, fmt.Errorf("parsing stored balance %q: %w", raw, err)
	}
	return balance, true, nil
}

// SaveThread inserts or updates a chat thread.
func (s *SQLiteStore) SaveThread(ctx context.Context, thread *models.ChatThread) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO chat_threads (id, title, created_at, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET title = excluded.title, updated_at = excluded.updated_at`,
		thread.ID, thread.Title, thread.CreatedAt, thread.UpdatedAt)
	if err != nil {
		return fmt.Errorf("saving thread %s: %w", thread.ID, err)
	}
	return nil
}

// AppendMessage appends a message to a thread and bumps its updated_at.
func (s *SQLiteStore) AppendMessage(ctx context.Context, msg *models.ChatMessage) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO chat_messages (id, thread_id, role, content, created_at) VALUES (?, ?, ?, ?, ?)`,
		msg.ID, msg.ThreadID, msg.Role, msg.Content, msg.CreatedAt); err != nil {
		return fmt.Errorf("inserting message: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE chat_threads SET updated_at = ? WHERE id = ?`,
		msg.CreatedAt, msg.ThreadID); err != nil {
		return fmt.Errorf("touching thread: %w", err)
	}

	return tx.Commit()
}

// GetThread returns a thread with its messages in chronological order.
func (s *SQLiteStore) GetThread(ctx context.Context, threadID string) (*models.ChatThread, error) {
	thread := &models.ChatThread{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, title, created_at, updated_at FROM chat_threads WHERE id = ?`, threadID).
		Scan(&thread.ID, &thread.Title, &thread.CreatedAt, &thread.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading thread %s: %w", threadID, err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, thread_id, role, content, created_at FROM chat_messages
		 WHERE thread_id = ? ORDER BY created_at ASC`, threadID)
	if err != nil {
		return nil, fmt.Errorf("loading messages for %s: %w", threadID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var m models.ChatMessage
		if err := rows.Scan(&m.ID, &m.ThreadID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		thread.Messages = append(thread.Messages, m)
	}
	return thread, rows.Err()
}

// ListThreads returns all threads, most recently active first.
func (s *SQLiteStore) ListThreads(ctx context.Context) ([]models.ChatThread, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, created_at, updated_at FROM chat_threads ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing threads: %w", err)
	}
	defer rows.Close()

	var threads []models.ChatThread
	for rows.Next() {
		var t models.ChatThread
		if err := rows.Scan(&t.ID, &t.Title, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning thread: %w", err)
		}
		threads = append(threads, t)
	}
	return threads, rows.Err()
}

// GetHighScore returns the best recorded game score, 0 when none exists.
func (s *SQLiteStore) GetHighScore(ctx context.Context) (int64, error) {
	var best sql.NullInt64
	err := s.db.QueryRowContext(ctx, `SELECT MAX(score) FROM game_scores`).Scan(&best)
	if err != nil {
		return 0, fmt.Errorf("loading high score: %w", err)
	}
	if !best.Valid {
		return 0, nil
	}
	return best.Int64, nil
}

// SubmitScore records a score and returns the resulting high score.
func (s *SQLiteStore) SubmitScore(ctx context.Context, score int64) (int64, error) {
	if _, err := s.db.ExecContext(ctx, `INSERT INTO game_scores (score) VALUES (?)`, score); err != nil {
		return 0, fmt.Errorf("recording score: %w", err)
	}
	return s.GetHighScore(ctx)
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func nullableFloat(v float64) interface{} {
	if v == 0 {
		return nil
	}
	return v
}

// Ensure SQLiteStore implements DataStore
var _ DataStore = (*SQLiteStore)(nil)
