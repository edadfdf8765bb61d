// Package mockdata produces the synthetic display data of the market pages
// and a random-walk price source. Every generator is explicitly seeded so
// output is reproducible.
package mockdata

import (
	"math/rand"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/swiftex-io/lintex-legolas/pkg/app/core/tick"
)

// Point is one vertex of a sparkline path.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// DepthBar is one bar of the order-depth strip.
type DepthBar struct {
	Height float64 `json:"height"` // percent of the strip
	Side   string  `json:"side"`   // "bid" or "ask"
}

// Generator is safe for concurrent use.
type Generator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewGenerator(seed int64) *Generator {
	return &Generator{rng: rand.New(rand.NewSource(seed))}
}

func (g *Generator) float() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rng.Float64()
}

// Sparkline returns n points spread across a 100-wide, 30-high box
func (g *Generator) Sparkline(n int) []Point {
	out := make([]Point, n)
	for i := range out {
		out[i] = Point{X: float64(i) * 8.3, Y: 15 + (g.float()-0.5)*15}
	}
	return out
}

// MarketCap returns a fake capitalisation in billions, two decimals
func (g *Generator) MarketCap() decimal.Decimal {
	return decimal.NewFromFloat(g.float() * 500).Round(2)
}

// Turnover returns a fake 24h turnover in billions, two decimals
func (g *Generator) Turnover() decimal.Decimal {
	return decimal.NewFromFloat(g.float() * 2).Round(2)
}

// Depth returns n bars; every third bar is an ask
func (g *Generator) Depth(n int) []DepthBar {
	out := make([]DepthBar, n)
	for i := range out {
		side := "bid"
		if i%3 == 0 {
			side = "ask"
		}
		out[i] = DepthBar{Height: 30 + g.float()*70, Side: side}
	}
	return out
}

// Walk is a random-walk price source over a fixed set of base assets.
type Walk struct {
	mu     sync.Mutex
	rng    *rand.Rand
	bps    int64
	prices map[string]decimal.Decimal
	opens  map[string]decimal.Decimal
	order  []string
}

// NewWalk starts a walk at the given prices. volatilityBps bounds each step:
// 25 means a move of at most 0.25% per tick.
func NewWalk(seed int64, volatilityBps int64, start map[string]decimal.Decimal, symbols []string) *Walk {
	w := &Walk{
		rng:    rand.New(rand.NewSource(seed)),
		bps:    volatilityBps,
		prices: make(map[string]decimal.Decimal),
		opens:  make(map[string]decimal.Decimal),
	}
	for _, sym := range symbols {
		p, ok := start[sym]
		if !ok || !p.IsPositive() || sym == "USDT" {
			continue
		}
		w.prices[sym] = p
		w.opens[sym] = p
		w.order = append(w.order, sym)
	}
	return w
}

// Next advances every price by one step and returns the structured ticks.
// change24h is measured against the starting price.
func (w *Walk) Next() tick.Set {
	w.mu.Lock()
	defer w.mu.Unlock()

	out := make(tick.Set, len(w.order))
	scale := decimal.New(w.bps, -4)
	hundred := decimal.NewFromInt(100)
	for _, sym := range w.order {
		step := decimal.NewFromFloat(w.rng.Float64()*2 - 1).Mul(scale)
		p := w.prices[sym].Mul(decimal.NewFromInt(1).Add(step)).Round(8)
		if !p.IsPositive() {
			p = w.prices[sym]
		}
		w.prices[sym] = p

		change := p.Sub(w.opens[sym]).Div(w.opens[sym]).Mul(hundred).Round(2)
		out[tick.Key(sym)] = tick.Tick{Price: p, Change24h: decimal.NewNullDecimal(change)}
	}
	return out
}
