// Package server provides the HTTP API the dashboard frontend talks to.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"cryptodesk/internal/chat"
	"cryptodesk/internal/config"
	domainerrors "cryptodesk/internal/errors"
	"cryptodesk/internal/exchange"
	"cryptodesk/internal/market"
	"cryptodesk/internal/portfolio"
	"cryptodesk/internal/store"
	"cryptodesk/internal/stream"
)

// Server wires the API handlers to the application services.
type Server struct {
	cfg       *config.Config
	log       zerolog.Logger
	portfolio *portfolio.Store
	engine    *exchange.Engine
	market    *market.Client
	chat      *chat.Service
	db        store.DataStore
	hub       *stream.Hub
}

// Deps holds the services the server depends on.
type Deps struct {
	Config    *config.Config
	Logger    zerolog.Logger
	Portfolio *portfolio.Store
	Engine    *exchange.Engine
	Market    *market.Client
	Chat      *chat.Service
	DataStore store.DataStore
	Hub       *stream.Hub
}

// New creates a new API server.
func New(deps Deps) *Server {
	return &Server{
		cfg:       deps.Config,
		log:       deps.Logger.With().Str("component", "server").Logger(),
		portfolio: deps.Portfolio,
		engine:    deps.Engine,
		market:    deps.Market,
		chat:      deps.Chat,
		db:        deps.DataStore,
		hub:       deps.Hub,
	}
}

// Router builds the gin handler with all API routes.
func (s *Server) Router() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(s.requestLogger())

	api := r.Group("/api")
	{
		api.POST("/chat", s.handleChat)
		api.GET("/chat/threads", s.handleListThreads)
		api.GET("/chat/threads/:id", s.handleGetThread)

		crypto := api.Group("/crypto")
		{
			crypto.GET("/prices", s.handlePrices)
			crypto.GET("/prices/history", s.handlePriceHistory)
		}

		api.POST("/trading/execute", s.handleTradingExecute)

		pf := api.Group("/portfolio")
		{
			pf.GET("/balance", s.handleBalance)
			pf.GET("/trades", s.handleListTrades)
			pf.POST("/trades", s.handleOpenTrade)
			pf.POST("/trades/:id/close", s.handleCloseTrade)
		}

		api.GET("/orders", s.handleListOrders)
		api.POST("/orders", s.handlePlaceOrder)
		api.DELETE("/orders/:id", s.handleCancelOrder)
		api.GET("/orderbook/:symbol", s.handleOrderBook)
		api.GET("/orders/advice/:symbol", s.handleAdvice)

		cb := api.Group("/coinbase")
		{
			cb.GET("/markets", s.handleCoinbaseMarkets)
			cb.GET("/accounts", s.handleCoinbaseAccounts)
			cb.GET("/orderbook", s.handleCoinbaseOrderBook)
			cb.GET("/trades", s.handleCoinbaseTrades)
		}

		game := api.Group("/game")
		{
			game.GET("/score", s.handleGetScore)
			game.POST("/score", s.handleSubmitScore)
		}

		api.GET("/stream", s.handleStream)
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	return r
}

// Run serves the API until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.cfg.Server.Addr(),
		Handler: s.Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", srv.Addr).Msg("api server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// requestLogger logs one line per request.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	}
}

// writeError maps domain errors to HTTP status codes.
func (s *Server) writeError(c *gin.Context, err error) {
	var status int
	var validationErr *domainerrors.ValidationError
	var orderErr *domainerrors.OrderError

	switch {
	case domainerrors.As(err, &validationErr):
		status = http.StatusBadRequest
	case domainerrors.Is(err, domainerrors.ErrInsufficientFunds):
		status = http.StatusUnprocessableEntity
	case domainerrors.Is(err, domainerrors.ErrTradeNotFound),
		domainerrors.Is(err, domainerrors.ErrOrderNotFound),
		domainerrors.Is(err, domainerrors.ErrThreadNotFound),
		domainerrors.Is(err, domainerrors.ErrSymbolNotFound):
		status = http.StatusNotFound
	case domainerrors.Is(err, domainerrors.ErrTradeClosed),
		domainerrors.Is(err, domainerrors.ErrOrderNotOpen),
		domainerrors.As(err, &orderErr):
		status = http.StatusConflict
	default:
		status = http.StatusInternalServerError
		s.log.Error().Err(err).Msg("request failed")
	}

	c.JSON(status, gin.H{"error": err.Error()})
}
