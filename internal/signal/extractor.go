// Package signal converts free-text trade intents into structured
// signals, either by pattern matching on user input or by extracting a
// delimited JSON block from LLM output.
package signal

import (
	"regexp"
	"strings"

	"cryptodesk/internal/models"
)

// tokenAliases maps substrings to ticker symbols. Checked in order so
// longer aliases win over their ticker prefixes.
var tokenAliases = []struct {
	alias  string
	symbol string
}{
	{"bitcoin", "BTC"},
	{"ethereum", "ETH"},
	{"solana", "SOL"},
	{"cardano", "ADA"},
	{"btc", "BTC"},
	{"eth", "ETH"},
	{"sol", "SOL"},
	{"ada", "ADA"},
}

var (
	takeProfitRe = regexp.MustCompile(`(?:take\s*profit|tp)[^0-9]*([0-9]+(?:\.[0-9]+)?)`)
	stopLossRe   = regexp.MustCompile(`(?:stop\s*loss|sl)[^0-9]*([0-9]+(?:\.[0-9]+)?)`)
	lotSizeRe    = regexp.MustCompile(`(?:lot\s*size|lot|size)[^0-9]*([0-9])`)
	priceAtRe    = regexp.MustCompile(`(?:at|@)\s*\$?([0-9]+(?:\.[0-9]+)?)`)
	numberRe     = regexp.MustCompile(`[0-9]+(?:\.[0-9]+)?`)
)

const defaultAmount = "0.1"

// Extract parses a chat message into a trade signal. It returns nil when
// the message carries no buy/sell intent at all.
func Extract(message string) *models.Signal {
	text := strings.ToLower(message)

	hasBuy := strings.Contains(text, "buy")
	hasSell := strings.Contains(text, "sell")
	if !hasBuy && !hasSell {
		return nil
	}

	sig := &models.Signal{LotSize: 1}

	// Exit prices and lot size come out first so their numbers cannot be
	// mistaken for the amount or entry price.
	if m := takeProfitRe.FindStringSubmatch(text); m != nil {
		sig.TakeProfit = m[1]
		text = strings.Replace(text, m[0], " ", 1)
	}
	if m := stopLossRe.FindStringSubmatch(text); m != nil {
		sig.StopLoss = m[1]
		text = strings.Replace(text, m[0], " ", 1)
	}
	if m := lotSizeRe.FindStringSubmatch(text); m != nil {
		sig.LotSize = int(m[1][0] - '0')
		text = strings.Replace(text, m[0], " ", 1)
	}

	isLimit := strings.Contains(text, "limit")
	isStop := strings.Contains(text, "stop")

	switch {
	case hasSell && isLimit:
		sig.Type = models.OrderSellLimit
	case hasSell && isStop:
		sig.Type = models.OrderSellStop
	case hasSell:
		sig.Type = models.OrderSell
	case isLimit:
		sig.Type = models.OrderBuyLimit
	case isStop:
		sig.Type = models.OrderBuyStop
	default:
		sig.Type = models.OrderBuy
	}

	// Entry price applies to limit/stop orders only; market orders
	// execute at whatever the book shows.
	if isLimit || isStop {
		if m := priceAtRe.FindStringSubmatch(text); m != nil {
			sig.Price = m[1]
			text = strings.Replace(text, m[0], " ", 1)
		} else {
			sig.NeedsPrice = true
		}
	}

	sig.Token = detectToken(text)
	sig.Pair = sig.Token + "/USDC"

	if m := numberRe.FindString(text); m != "" {
		sig.Amount = m
	} else {
		sig.Amount = defaultAmount
	}

	return sig
}

// detectToken finds the first known token alias in the text, defaulting
// to BTC.
func detectToken(text string) string {
	for _, t := range tokenAliases {
		if strings.Contains(text, t.alias) {
			return t.symbol
		}
	}
	return "BTC"
}
