// Package chat provides the AI assistant: persisted threads, LLM-backed
// responses with injected market context, and trade-signal extraction.
package chat

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"cryptodesk/internal/models"
	"cryptodesk/internal/signal"
	"cryptodesk/internal/store"
)

const systemPromptTemplate = `You are a trading assistant on a cryptocurrency dashboard.
Current market prices:
%s
Answer questions about the market concisely. When the user expresses a
concrete trade intent, append a machine-readable block to your answer:
%s
{"type":"BUY|SELL|BUY_LIMIT|SELL_LIMIT|BUY_STOP|SELL_STOP","token":"BTC","amount":"0.1","lotSize":1,"price":"","takeProfitPrice":"","stopLossPrice":"","pair":"BTC/USDC"}
%s
Only include the block for actual trade intents. For limit or stop
orders without a price, ask for the price instead of emitting a block.`

// historyLimit caps how many prior messages are replayed to the model.
const historyLimit = 20

// PriceLister supplies current prices for the market context injection.
type PriceLister interface {
	Prices(ctx context.Context) map[string]float64
}

// Reply is the assistant's answer to one message.
type Reply struct {
	ThreadID string         `json:"threadId"`
	Response string         `json:"response"`
	Signal   *models.Signal `json:"signal,omitempty"`
}

// Service handles assistant conversations.
type Service struct {
	llm    LLMClient // nil when no backend is configured
	prices PriceLister
	db     store.DataStore
	log    zerolog.Logger
}

// Config holds chat service configuration.
type Config struct {
	LLM       LLMClient
	Prices    PriceLister
	DataStore store.DataStore
	Logger    zerolog.Logger
}

// NewService creates a new chat service.
func NewService(cfg Config) *Service {
	return &Service{
		llm:    cfg.LLM,
		prices: cfg.Prices,
		db:     cfg.DataStore,
		log:    cfg.Logger.With().Str("component", "chat").Logger(),
	}
}

// SendMessage appends a user message to a thread (creating the thread
// when threadID is empty), produces the assistant response and returns
// it with any extracted trade signal.
func (s *Service) SendMessage(ctx context.Context, threadID, message string) (*Reply, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, fmt.Errorf("empty message")
	}

	thread, err := s.loadOrCreateThread(ctx, threadID, message)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	userMsg := &models.ChatMessage{
		ID:        uuid.NewString(),
		ThreadID:  thread.ID,
		Role:      "user",
		Content:   message,
		CreatedAt: now,
	}
	if err := s.db.AppendMessage(ctx, userMsg); err != nil {
		return nil, err
	}

	response, sig := s.respond(ctx, thread, message)

	assistantMsg := &models.ChatMessage{
		ID:        uuid.NewString(),
		ThreadID:  thread.ID,
		Role:      "assistant",
		Content:   response,
		CreatedAt: now.Add(time.Millisecond), // keep ordering stable within the thread
	}
	if err := s.db.AppendMessage(ctx, assistantMsg); err != nil {
		return nil, err
	}

	return &Reply{ThreadID: thread.ID, Response: response, Signal: sig}, nil
}

// Thread returns a thread with its messages.
func (s *Service) Thread(ctx context.Context, threadID string) (*models.ChatThread, error) {
	return s.db.GetThread(ctx, threadID)
}

// Threads lists all threads.
func (s *Service) Threads(ctx context.Context) ([]models.ChatThread, error) {
	return s.db.ListThreads(ctx)
}

func (s *Service) loadOrCreateThread(ctx context.Context, threadID, firstMessage string) (*models.ChatThread, error) {
	if threadID != "" {
		thread, err := s.db.GetThread(ctx, threadID)
		if err != nil {
			return nil, err
		}
		if thread != nil {
			return thread, nil
		}
		// Unknown thread id from the client: start fresh under a new id.
	}

	now := time.Now()
	thread := &models.ChatThread{
		ID:        uuid.NewString(),
		Title:     threadTitle(firstMessage),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.db.SaveThread(ctx, thread); err != nil {
		return nil, err
	}
	return thread, nil
}

// respond produces the assistant answer: LLM when configured, local
// pattern matching otherwise. LLM failures degrade to the local path
// instead of erroring the request.
func (s *Service) respond(ctx context.Context, thread *models.ChatThread, message string) (string, *models.Signal) {
	if s.llm != nil {
		response, err := s.llm.Chat(ctx, s.systemPrompt(ctx), recentHistory(thread), message)
		if err == nil {
			sig, clean, exErr := signal.ExtractDelimited(response)
			if exErr != nil {
				s.log.Warn().Err(exErr).Msg("signal block extraction failed")
				return response, nil
			}
			return clean, sig
		}
		s.log.Warn().Err(err).Msg("llm request failed, falling back to pattern matching")
	}

	return s.localRespond(ctx, message)
}

// localRespond is the offline assistant: regex signal extraction plus a
// canned market summary.
func (s *Service) localRespond(ctx context.Context, message string) (string, *models.Signal) {
	sig := signal.Extract(message)
	if sig == nil {
		return s.marketSummary(ctx), nil
	}

	if sig.NeedsPrice {
		return fmt.Sprintf("At what price should I set the %s order for %s?",
			strings.ToLower(strings.ReplaceAll(string(sig.Type), "_", " ")), sig.Token), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Prepared a %s signal for %s %s on %s.",
		sig.Type, sig.Amount, sig.Token, sig.Pair)
	if sig.Price != "" {
		fmt.Fprintf(&b, " Entry at %s.", sig.Price)
	}
	if sig.TakeProfit != "" {
		fmt.Fprintf(&b, " Take profit at %s.", sig.TakeProfit)
	}
	if sig.StopLoss != "" {
		fmt.Fprintf(&b, " Stop loss at %s.", sig.StopLoss)
	}
	b.WriteString(" Review and confirm in the order form.")
	return b.String(), sig
}

func (s *Service) systemPrompt(ctx context.Context) string {
	return fmt.Sprintf(systemPromptTemplate, s.marketContext(ctx), signal.BlockStart, signal.BlockEnd)
}

// marketContext renders current prices for prompt injection.
func (s *Service) marketContext(ctx context.Context) string {
	prices := s.prices.Prices(ctx)

	symbols := make([]string, 0, len(prices))
	for sym := range prices {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)

	var b strings.Builder
	for _, sym := range symbols {
		fmt.Fprintf(&b, "- %s: $%.2f\n", sym, prices[sym])
	}
	return b.String()
}

func (s *Service) marketSummary(ctx context.Context) string {
	return "Current market prices:\n" + s.marketContext(ctx) +
		"Tell me what you would like to trade, for example: \"buy 0.5 ETH with TP at 3000\"."
}

// recentHistory returns the most recent messages of a thread, capped at
// historyLimit, oldest first.
func recentHistory(thread *models.ChatThread) []models.ChatMessage {
	msgs := thread.Messages
	if len(msgs) > historyLimit {
		msgs = msgs[len(msgs)-historyLimit:]
	}
	return msgs
}

// threadTitle derives a short thread title from the first message.
func threadTitle(message string) string {
	const maxLen = 48
	title := strings.TrimSpace(message)
	if len(title) > maxLen {
		title = title[:maxLen] + "…"
	}
	return title
}
