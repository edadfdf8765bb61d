package tick

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Tick is one price observation. Change24h is only present when the feed
// sent the structured form.
type Tick struct {
	Price     decimal.Decimal     `json:"price"`
	Change24h decimal.NullDecimal `json:"change24h"`
}

// UnmarshalJSON accepts either a bare number (60000) or an object
// ({"price": 60000, "change24h": 1.5}).
func (t *Tick) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '{' {
		var obj struct {
			Price     *decimal.Decimal    `json:"price"`
			Change24h decimal.NullDecimal `json:"change24h"`
		}
		if err := json.Unmarshal(b, &obj); err != nil {
			return fmt.Errorf("tick object: %w", err)
		}
		if obj.Price == nil {
			return fmt.Errorf("tick object: missing price")
		}
		t.Price = *obj.Price
		t.Change24h = obj.Change24h
		return nil
	}

	var price decimal.Decimal
	if err := json.Unmarshal(b, &price); err != nil {
		return fmt.Errorf("tick price: %w", err)
	}
	t.Price = price
	t.Change24h = decimal.NullDecimal{}
	return nil
}

// Set maps feed keys ("BTCUSDT") to ticks.
type Set map[string]Tick

// Key is the feed key for a base asset
func Key(base string) string { return base + "USDT" }

// Lookup returns the tick for a base asset. Missing or non-positive prices
// are reported as absent.
func (s Set) Lookup(base string) (Tick, bool) {
	t, ok := s[Key(base)]
	if !ok || !t.Price.IsPositive() {
		return Tick{}, false
	}
	return t, true
}

// Of builds a set from plain prices; handy for tests and the mock feeder
func Of(prices map[string]decimal.Decimal) Set {
	s := make(Set, len(prices))
	for k, p := range prices {
		s[k] = Tick{Price: p}
	}
	return s
}
