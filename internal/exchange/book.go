package exchange

import (
	"math/rand"
	"sort"
	"time"

	"cryptodesk/internal/models"
)

// buildBook generates a synthetic order book around a mid price: levels
// bids within spread below the mid (sorted descending) and levels asks
// within spread above it (ascending). Level amounts are uniform in
// [0.1, 2.1).
func buildBook(rng *rand.Rand, symbol string, mid float64, levels int, spread float64) models.OrderBook {
	book := models.OrderBook{
		Symbol:      symbol,
		MidPrice:    mid,
		Bids:        make([]models.BookLevel, 0, levels),
		Asks:        make([]models.BookLevel, 0, levels),
		GeneratedAt: time.Now(),
	}

	for i := 0; i < levels; i++ {
		book.Bids = append(book.Bids, models.BookLevel{
			Price:  mid * (1 - rng.Float64()*spread),
			Amount: 0.1 + rng.Float64()*2,
		})
		book.Asks = append(book.Asks, models.BookLevel{
			Price:  mid * (1 + rng.Float64()*spread),
			Amount: 0.1 + rng.Float64()*2,
		})
	}

	sort.Slice(book.Bids, func(i, j int) bool { return book.Bids[i].Price > book.Bids[j].Price })
	sort.Slice(book.Asks, func(i, j int) bool { return book.Asks[i].Price < book.Asks[j].Price })

	return book
}
