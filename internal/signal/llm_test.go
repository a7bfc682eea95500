package signal

import (
	"strings"
	"testing"

	"cryptodesk/internal/models"
)

func TestExtractDelimitedNoBlock(t *testing.T) {
	sig, clean, err := ExtractDelimited("BTC is trading around $50,000 today.")
	if err != nil {
		t.Fatalf("err = %v", err)
	}
	if sig != nil {
		t.Errorf("sig = %+v, want nil", sig)
	}
	if clean != "BTC is trading around $50,000 today." {
		t.Errorf("clean = %q, text must pass through untouched", clean)
	}
}

func TestExtractDelimitedBlock(t *testing.T) {
	response := `Placing that order for you.
TRADE_SIGNAL_START
{"type":"BUY_LIMIT","token":"eth","amount":"0.5","price":"2900","takeProfitPrice":"3000","stopLossPrice":"2800","pair":"ETH/USDC","lotSize":2}
TRADE_SIGNAL_END
Let me know if you want to adjust anything.`

	sig, clean, err := ExtractDelimited(response)
	if err != nil {
		t.Fatalf("err = %v", err)
	}
	if sig == nil {
		t.Fatal("expected a signal")
	}

	if sig.Type != models.OrderBuyLimit {
		t.Errorf("type = %s, want BUY_LIMIT", sig.Type)
	}
	if sig.Token != "ETH" {
		t.Errorf("token = %s, want ETH (uppercased)", sig.Token)
	}
	if sig.Amount != "0.5" || sig.Price != "2900" {
		t.Errorf("amount/price = %s/%s, want 0.5/2900", sig.Amount, sig.Price)
	}
	if sig.TakeProfit != "3000" || sig.StopLoss != "2800" {
		t.Errorf("brackets = %s/%s, want 3000/2800", sig.TakeProfit, sig.StopLoss)
	}
	if sig.LotSize != 2 {
		t.Errorf("lot size = %d, want 2", sig.LotSize)
	}

	if strings.Contains(clean, "TRADE_SIGNAL") {
		t.Errorf("clean text still contains the block: %q", clean)
	}
	if !strings.Contains(clean, "Placing that order") || !strings.Contains(clean, "adjust anything") {
		t.Errorf("surrounding text lost: %q", clean)
	}
}

func TestExtractDelimitedCodeFence(t *testing.T) {
	response := "TRADE_SIGNAL_START\n```json\n{\"type\":\"SELL\",\"token\":\"SOL\",\"amount\":\"10\"}\n```\nTRADE_SIGNAL_END"

	sig, _, err := ExtractDelimited(response)
	if err != nil {
		t.Fatalf("err = %v", err)
	}
	if sig == nil {
		t.Fatal("expected a signal")
	}
	if sig.Type != models.OrderSell || sig.Token != "SOL" || sig.Amount != "10" {
		t.Errorf("sig = %+v", sig)
	}
}

func TestExtractDelimitedNumericFields(t *testing.T) {
	// Models sometimes emit numbers instead of strings.
	response := `TRADE_SIGNAL_START
{"type":"BUY","token":"BTC","amount":0.25,"price":49500,"lotSize":"3"}
TRADE_SIGNAL_END`

	sig, _, err := ExtractDelimited(response)
	if err != nil {
		t.Fatalf("err = %v", err)
	}
	if sig.Amount != "0.25" {
		t.Errorf("amount = %s, want 0.25", sig.Amount)
	}
	if sig.Price != "49500" {
		t.Errorf("price = %s, want 49500", sig.Price)
	}
	if sig.LotSize != 3 {
		t.Errorf("lot size = %d, want 3", sig.LotSize)
	}
}

func TestExtractDelimitedDefaults(t *testing.T) {
	sig, _, err := ExtractDelimited("TRADE_SIGNAL_START\n{}\nTRADE_SIGNAL_END")
	if err != nil {
		t.Fatalf("err = %v", err)
	}
	if sig.Type != models.OrderBuy {
		t.Errorf("type = %s, want BUY default", sig.Type)
	}
	if sig.Token != "BTC" || sig.Pair != "BTC/USDC" {
		t.Errorf("token/pair = %s/%s, want BTC/BTC/USDC", sig.Token, sig.Pair)
	}
	if sig.Amount != "0.1" {
		t.Errorf("amount = %s, want 0.1", sig.Amount)
	}
	if sig.LotSize != 1 {
		t.Errorf("lot size = %d, want 1", sig.LotSize)
	}
}

func TestExtractDelimitedUnterminated(t *testing.T) {
	_, _, err := ExtractDelimited("TRADE_SIGNAL_START\n{\"type\":\"BUY\"}")
	if err == nil {
		t.Fatal("unterminated block must error")
	}
}

func TestExtractDelimitedBadJSON(t *testing.T) {
	sig, clean, err := ExtractDelimited("Before. TRADE_SIGNAL_START not json TRADE_SIGNAL_END After.")
	if err == nil {
		t.Fatal("invalid JSON must error")
	}
	if sig != nil {
		t.Errorf("sig = %+v, want nil", sig)
	}
	if strings.Contains(clean, "TRADE_SIGNAL") {
		t.Errorf("clean must still strip the block: %q", clean)
	}
}
