package order

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestSplitPair(t *testing.T) {
	tests := []struct {
		in          string
		base, quote string
	}{
		{"BTC/USDT", "BTC", "USDT"},
		{"ETH/BTC", "ETH", "BTC"},
		{"SOL", "SOL", "USDT"},
		{"SOL/", "SOL/", "USDT"},
	}
	for _, tt := range tests {
		base, quote := SplitPair(tt.in)
		assert.Equal(t, tt.base, base, tt.in)
		assert.Equal(t, tt.quote, quote, tt.in)
	}
}

func TestSpecValidate(t *testing.T) {
	ok := Spec{Symbol: "BTC/USDT", Side: Buy, Type: Limit, Price: d("60000"), Amount: d("0.1")}

	tests := []struct {
		name    string
		mutate  func(*Spec)
		wantErr bool
	}{
		{"valid limit", func(*Spec) {}, false},
		{"valid market with tpsl", func(s *Spec) {
			s.Type = Market
			s.TakeProfit = decimal.NewNullDecimal(d("65000"))
			s.StopLoss = decimal.NewNullDecimal(d("55000"))
		}, false},
		{"tpsl cannot be placed", func(s *Spec) { s.Type = TPSL }, true},
		{"unknown type", func(s *Spec) { s.Type = "stop" }, true},
		{"bad side", func(s *Spec) { s.Side = "long" }, true},
		{"zero price", func(s *Spec) { s.Price = decimal.Zero }, true},
		{"negative amount", func(s *Spec) { s.Amount = d("-1") }, true},
		{"same base and quote", func(s *Spec) { s.Symbol = "USDT/USDT" }, true},
		{"non-positive stop", func(s *Spec) { s.StopLoss = decimal.NewNullDecimal(decimal.Zero) }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := ok
			tt.mutate(&s)
			err := s.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidSpec)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestOrderHelpers(t *testing.T) {
	o := Order{Symbol: "ETH/USDT", Side: Sell, Price: d("3000"), Amount: d("2")}
	assert.Equal(t, "ETH", o.Base())
	assert.Equal(t, "USDT", o.Quote())
	assert.True(t, o.Notional().Equal(d("6000")))
	assert.Equal(t, Buy, o.Side.Opposite())
	assert.Equal(t, "SELL", o.Side.Upper())
	assert.False(t, o.HasProtection())

	o.StopLoss = decimal.NewNullDecimal(d("2500"))
	assert.True(t, o.HasProtection())
	assert.True(t, Filled.Terminal())
	assert.False(t, Open.Terminal())
}
