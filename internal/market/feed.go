package market

import (
	"hash/fnv"
	"math/rand"
	"sync"
)

// basePrices seed the simulated feed with plausible levels per symbol.
var basePrices = map[string]float64{
	"BTC": 50000,
	"ETH": 3000,
	"SOL": 150,
	"ADA": 0.5,
}

// SimFeed is a per-symbol random-walk price feed. It backs the dashboard
// when the upstream provider is unreachable, so polling loops and the
// order-book simulator keep producing data instead of halting.
type SimFeed struct {
	mu     sync.Mutex
	prices map[string]float64
	rngs   map[string]*rand.Rand
}

// NewSimFeed creates a simulated feed seeded per symbol, so offline runs
// are reproducible.
func NewSimFeed() *SimFeed {
	return &SimFeed{
		prices: make(map[string]float64),
		rngs:   make(map[string]*rand.Rand),
	}
}

// Price advances the random walk for symbol and returns the new price.
// Each step moves at most 0.2% from the previous price.
func (f *SimFeed) Price(symbol string) float64 {
	f.mu.Lock()
	defer f.mu.Unlock()

	rng, ok := f.rngs[symbol]
	if !ok {
		h := fnv.New64a()
		h.Write([]byte(symbol))
		rng = rand.New(rand.NewSource(int64(h.Sum64())))
		f.rngs[symbol] = rng

		base, ok := basePrices[symbol]
		if !ok {
			base = 100
		}
		f.prices[symbol] = base
	}

	step := (rng.Float64()*2 - 1) * 0.002
	price := f.prices[symbol] * (1 + step)
	f.prices[symbol] = price
	return price
}

// Anchor pins the walk for symbol to a known-good upstream price, so the
// simulation resumes from reality after an outage.
func (f *SimFeed) Anchor(symbol string, price float64) {
	if price <= 0 {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rngs[symbol]; !ok {
		h := fnv.New64a()
		h.Write([]byte(symbol))
		f.rngs[symbol] = rand.New(rand.NewSource(int64(h.Sum64())))
	}
	f.prices[symbol] = price
}
