// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"

	"cryptodesk/internal/models"
)

// DataStore defines the interface for data persistence.
type DataStore interface {
	// Portfolio
	SaveTrade(ctx context.Context, trade *models.Trade) error
	GetTrades(ctx context.Context, filter TradeFilter) ([]models.Trade, error)
	SetBalance(ctx context.Context, balance float64) error
	GetBalance(ctx context.Context) (float64, bool, error)

	// Chat threads
	SaveThread(ctx context.Context, thread *models.ChatThread) error
	AppendMessage(ctx context.Context, msg *models.ChatMessage) error
	GetThread(ctx context.Context, threadID string) (*models.ChatThread, error)
	ListThreads(ctx context.Context) ([]models.ChatThread, error)

	// Game scores
	GetHighScore(ctx context.Context) (int64, error)
	SubmitScore(ctx context.Context, score int64) (int64, error)

	// Lifecycle
	Close() error
}

// TradeFilter represents filters for querying trades.
type TradeFilter struct {
	Symbol string
	Status models.TradeStatus
	Limit  int
}
