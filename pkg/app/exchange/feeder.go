package exchange

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/swiftex-io/lintex-legolas/pkg/app/mockdata"
)

// FeederConfig controls the mock price feed
type FeederConfig struct {
	Interval      time.Duration // time between tick sets
	Seed          int64         // random-walk seed
	VolatilityBps int64         // max move per tick, in basis points
}

// DefaultFeederConfig returns a calm once-a-second feed
func DefaultFeederConfig() FeederConfig {
	return FeederConfig{
		Interval:      time.Second,
		Seed:          1,
		VolatilityBps: 25,
	}
}

// VolatileFeederConfig moves prices fast enough to trip limits and stops
// within a short demo
func VolatileFeederConfig() FeederConfig {
	return FeederConfig{
		Interval:      250 * time.Millisecond,
		Seed:          1,
		VolatilityBps: 150,
	}
}

// FeedProfileVolatile selects VolatileFeederConfig in FeederConfigFor
const FeedProfileVolatile = "volatile"

// FeederConfigFor applies a named profile on top of base. The volatile
// profile replaces the interval and volatility and keeps base's seed.
func FeederConfigFor(profile string, base FeederConfig) FeederConfig {
	if profile != FeedProfileVolatile {
		return base
	}
	cfg := VolatileFeederConfig()
	cfg.Seed = base.Seed
	return cfg
}

// StartTickFeeder starts a background goroutine that walks the listed prices
// and feeds each tick set to Evaluate.
// Returns a cancel function to stop the feeder
func StartTickFeeder(ctx context.Context, x *Exchange, cfg FeederConfig) context.CancelFunc {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultFeederConfig().Interval
	}

	start := make(map[string]decimal.Decimal)
	var symbols []string
	for _, a := range x.Balances() {
		start[a.Symbol] = a.Price
		symbols = append(symbols, a.Symbol)
	}
	walk := mockdata.NewWalk(cfg.Seed, cfg.VolatilityBps, start, symbols)

	feedCtx, cancel := context.WithCancel(ctx)

	go func() {
		ticker := time.NewTicker(cfg.Interval)
		defer ticker.Stop()

		startTime := time.Now()
		total := 0

		x.logger.Info("tick_feeder_started",
			zap.Duration("interval", cfg.Interval),
			zap.Int64("volatility_bps", cfg.VolatilityBps),
			zap.Int("symbols", len(symbols)))

		for {
			select {
			case <-feedCtx.Done():
				x.logger.Info("tick_feeder_stopped",
					zap.Int("tick_sets", total),
					zap.Duration("elapsed", time.Since(startTime).Round(time.Second)))
				return

			case <-ticker.C:
				x.Evaluate(walk.Next())
				total++
			}
		}
	}()

	return cancel
}
