package exchange

import (
	"math/rand"
	"time"

	"cryptodesk/internal/models"
)

// advise produces a synthetic recommendation. The direction is a random
// pick; the target band is 5-20% favorable and the stop band 2-7%
// adverse relative to the chosen direction.
func advise(rng *rand.Rand, symbol string, price float64) models.Advice {
	actions := []models.AdviceAction{models.AdviceBuy, models.AdviceSell, models.AdviceHold}
	action := actions[rng.Intn(len(actions))]

	advice := models.Advice{
		Symbol:      symbol,
		Action:      action,
		Confidence:  60 + rng.Float64()*35,
		Price:       price,
		GeneratedAt: time.Now(),
	}

	if action == models.AdviceHold {
		return advice
	}

	favorable := 0.05 + rng.Float64()*0.15
	adverse := 0.02 + rng.Float64()*0.05

	if action == models.AdviceBuy {
		advice.TargetPrice = price * (1 + favorable)
		advice.StopPrice = price * (1 - adverse)
	} else {
		advice.TargetPrice = price * (1 - favorable)
		advice.StopPrice = price * (1 + adverse)
	}
	return advice
}
