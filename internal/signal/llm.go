package signal

import (
	"encoding/json"
	"fmt"
	"strings"

	"cryptodesk/internal/models"
)

// Delimiters the assistant is instructed to wrap its signal block with.
const (
	BlockStart = "TRADE_SIGNAL_START"
	BlockEnd   = "TRADE_SIGNAL_END"
)

// ExtractDelimited pulls a TRADE_SIGNAL_START...TRADE_SIGNAL_END JSON
// block out of LLM output. It returns the parsed signal (nil when no
// block is present) and the response text with the block removed.
func ExtractDelimited(response string) (*models.Signal, string, error) {
	start := strings.Index(response, BlockStart)
	if start < 0 {
		return nil, response, nil
	}
	end := strings.Index(response[start:], BlockEnd)
	if end < 0 {
		return nil, response, fmt.Errorf("unterminated signal block")
	}
	end += start

	raw := strings.TrimSpace(response[start+len(BlockStart) : end])
	clean := strings.TrimSpace(response[:start] + response[end+len(BlockEnd):])

	// Models sometimes wrap the JSON in a code fence inside the block.
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	raw = strings.TrimSpace(raw)

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return nil, clean, fmt.Errorf("parsing signal block: %w", err)
	}

	sig := &models.Signal{
		Type:       models.OrderType(asString(fields["type"])),
		Token:      strings.ToUpper(asString(fields["token"])),
		Amount:     asString(fields["amount"]),
		Price:      asString(fields["price"]),
		TakeProfit: asString(fields["takeProfitPrice"]),
		StopLoss:   asString(fields["stopLossPrice"]),
		Pair:       asString(fields["pair"]),
		LotSize:    asInt(fields["lotSize"], 1),
	}

	if sig.Token == "" {
		sig.Token = "BTC"
	}
	if sig.Pair == "" {
		sig.Pair = sig.Token + "/USDC"
	}
	if sig.Amount == "" {
		sig.Amount = defaultAmount
	}
	if sig.Type == "" {
		sig.Type = models.OrderBuy
	}

	return sig, clean, nil
}

// asString coerces a JSON string or number field to its text form.
func asString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

// asInt coerces a JSON number or numeric string field to an int.
func asInt(raw json.RawMessage, fallback int) int {
	if len(raw) == 0 {
		return fallback
	}
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return n
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		var v int
		if _, err := fmt.Sscanf(s, "%d", &v); err == nil {
			return v
		}
	}
	return fallback
}
