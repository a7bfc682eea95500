// Package market provides market data access: a CoinGecko REST client
// with caching and rate limiting, plus a simulated fallback feed.
package market

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	domainerrors "cryptodesk/internal/errors"
	"cryptodesk/internal/models"
	"cryptodesk/pkg/utils"
)

// coinIDs maps ticker symbols to CoinGecko coin ids.
var coinIDs = map[string]string{
	"BTC": "bitcoin",
	"ETH": "ethereum",
	"SOL": "solana",
	"ADA": "cardano",
}

// TrackedSymbols returns the symbols the dashboard follows.
func TrackedSymbols() []string {
	return []string{"BTC", "ETH", "SOL", "ADA"}
}

// CoinID resolves a ticker symbol to its CoinGecko id.
func CoinID(symbol string) (string, bool) {
	id, ok := coinIDs[symbol]
	return id, ok
}

// Config holds market client configuration.
type Config struct {
	BaseURL        string
	RequestTimeout time.Duration
	CacheTTL       time.Duration
	RateLimit      float64
	RateLimitBurst int
	FallbackPrice  float64
	Logger         zerolog.Logger
}

// Client fetches prices from CoinGecko with a cache in front and the
// simulated feed behind: a failed upstream call degrades to the random
// walk instead of an error surfacing to every consumer.
type Client struct {
	http     *resty.Client
	limiter  *rate.Limiter
	cache    *ttlCache[string, float64]
	feed     *SimFeed
	fallback float64
	log      zerolog.Logger
}

// NewClient creates a new market data client.
func NewClient(cfg Config) *Client {
	httpClient := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.RequestTimeout)

	return &Client{
		http:     httpClient,
		limiter:  rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateLimitBurst),
		cache:    newTTLCache[string, float64](cfg.CacheTTL),
		feed:     NewSimFeed(),
		fallback: cfg.FallbackPrice,
		log:      cfg.Logger.With().Str("component", "market").Logger(),
	}
}

// Price returns the current USD price for a tracked symbol. Resolution
// order: cache, upstream, simulated feed. It only errors for unknown
// symbols.
func (c *Client) Price(ctx context.Context, symbol string) (float64, error) {
	coinID, ok := coinIDs[symbol]
	if !ok {
		return 0, fmt.Errorf("%w: %s", domainerrors.ErrSymbolNotFound, symbol)
	}

	if price, ok := c.cache.get(symbol); ok {
		return price, nil
	}

	price, err := c.fetchPrice(ctx, coinID)
	if err != nil {
		c.log.Warn().Err(err).Str("symbol", symbol).Msg("upstream price fetch failed, using simulated feed")
		return c.feed.Price(symbol), nil
	}

	c.cache.set(symbol, price)
	c.feed.Anchor(symbol, price)
	return price, nil
}

// Prices returns current prices for all tracked symbols.
func (c *Client) Prices(ctx context.Context) map[string]float64 {
	out := make(map[string]float64, len(coinIDs))
	for _, symbol := range TrackedSymbols() {
		price, err := c.Price(ctx, symbol)
		if err != nil {
			continue
		}
		out[symbol] = price
	}
	return out
}

// BestQuote returns a synthetic best bid/ask derived from the current
// price with a fixed 10 bps half-spread.
func (c *Client) BestQuote(ctx context.Context, symbol string) (bid, ask float64, err error) {
	price, err := c.Price(ctx, symbol)
	if err != nil {
		return 0, 0, err
	}
	return price * 0.999, price * 1.001, nil
}

// BestAsk returns the synthetic best ask for a symbol.
func (c *Client) BestAsk(ctx context.Context, symbol string) (float64, error) {
	_, ask, err := c.BestQuote(ctx, symbol)
	return ask, err
}

// PriceOrFallback returns the upstream price, or the configured fallback
// when the symbol is unknown or every source fails. Used by the swap
// quoting route, which must always answer.
func (c *Client) PriceOrFallback(ctx context.Context, symbol string) float64 {
	price, err := c.Price(ctx, symbol)
	if err != nil || price <= 0 {
		return c.fallback
	}
	return price
}

// History returns the historical price series for a coin id.
func (c *Client) History(ctx context.Context, coinID string, days int) ([]models.PricePoint, error) {
	if days <= 0 {
		days = 1
	}

	type chartResponse struct {
		Prices [][2]float64 `json:"prices"`
	}

	resp, err := utils.RetryWithResult(ctx, utils.DefaultRetryConfig(), func() (*resty.Response, error) {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		result := &chartResponse{}
		resp, err := c.http.R().
			SetContext(ctx).
			SetQueryParams(map[string]string{
				"vs_currency": "usd",
				"days":        fmt.Sprintf("%d", days),
			}).
			SetResult(result).
			Get(fmt.Sprintf("/coins/%s/market_chart", coinID))
		if err != nil {
			return nil, err
		}
		if resp.IsError() {
			return nil, domainerrors.NewUpstreamError("coingecko", resp.StatusCode(), "market chart request failed", nil)
		}
		return resp, nil
	})
	if err != nil {
		return nil, err
	}

	chart := resp.Result().(*chartResponse)
	points := make([]models.PricePoint, 0, len(chart.Prices))
	for _, p := range chart.Prices {
		points = append(points, models.PricePoint{
			Timestamp: time.UnixMilli(int64(p[0])),
			Price:     p[1],
		})
	}
	return points, nil
}

// fetchPrice queries the upstream simple-price endpoint.
func (c *Client) fetchPrice(ctx context.Context, coinID string) (float64, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, err
	}

	result := map[string]map[string]float64{}
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"ids":           coinID,
			"vs_currencies": "usd",
		}).
		SetResult(&result).
		Get("/simple/price")
	if err != nil {
		return 0, err
	}
	if resp.IsError() {
		return 0, domainerrors.NewUpstreamError("coingecko", resp.StatusCode(), "simple price request failed", nil)
	}

	price, ok := result[coinID]["usd"]
	if !ok || price <= 0 {
		return 0, domainerrors.ErrPriceUnavailable
	}
	return price, nil
}
