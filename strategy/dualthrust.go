// Package strategy evaluates the Dual Thrust breakout strategy against a
// derived Bar series: a rolling range, upper/lower bands, and discrete
// buy/sell signals, restricted to a configurable trading window.
package strategy

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mkhoshkam/powerreplay/internal/replayerr"
	"github.com/mkhoshkam/powerreplay/timeseries"
)

// Config holds the Dual Thrust parameters for one product.
type Config struct {
	Lookback int             // n: number of bars strictly preceding t used for HH/LL
	K1       decimal.Decimal // upper-band coefficient, > 0
	K2       decimal.Decimal // lower-band coefficient, > 0

	DeliveryStart time.Time     // D
	OpenOffset    time.Duration // trading window opens at D - OpenOffset
	CloseOffset   time.Duration // trading window closes at D - CloseOffset
}

// NewConfig validates cfg and returns it, or a *replayerr.ConfigError if
// OpenOffset < CloseOffset or either is negative.
func NewConfig(cfg Config) (Config, error) {
	if cfg.OpenOffset < 0 {
		return Config{}, &replayerr.ConfigError{Field: "OpenOffset", Err: fmt.Errorf("must be >= 0, got %s", cfg.OpenOffset)}
	}
	if cfg.CloseOffset < 0 {
		return Config{}, &replayerr.ConfigError{Field: "CloseOffset", Err: fmt.Errorf("must be >= 0, got %s", cfg.CloseOffset)}
	}
	if cfg.OpenOffset < cfg.CloseOffset {
		return Config{}, &replayerr.ConfigError{Field: "OpenOffset", Err: fmt.Errorf("must be >= CloseOffset (%s), got %s", cfg.CloseOffset, cfg.OpenOffset)}
	}
	return cfg, nil
}

// Signal is one Dual Thrust decision point. Upper and Lower are nil when
// the bar has fewer than Lookback prior bars (insufficient history).
type Signal struct {
	Time  time.Time
	Value int // +1 buy, -1 sell, 0 neither
	Upper *decimal.Decimal
	Lower *decimal.Decimal
}

// Evaluate computes Dual Thrust signals for bars, restricted to
// [D - OpenOffset, D - CloseOffset]. Bars outside that window are not
// represented in the result at all; bars inside it with fewer than
// Lookback prior bars are emitted with Value 0 and nil bands.
func Evaluate(bars []timeseries.Bar, cfg Config) []Signal {
	if len(bars) == 0 {
		return nil
	}

	windowStart := cfg.DeliveryStart.Add(-cfg.OpenOffset)
	windowEnd := cfg.DeliveryStart.Add(-cfg.CloseOffset)

	var signals []Signal
	for i, bar := range bars {
		if bar.Time.Before(windowStart) || bar.Time.After(windowEnd) {
			continue
		}
		if i < cfg.Lookback {
			signals = append(signals, Signal{Time: bar.Time})
			continue
		}

		hh, ll, ok := rollingRange(bars[i-cfg.Lookback : i])
		c := bars[i-1].Mid
		if !ok || c == nil || bar.BestBid == nil || bar.BestAsk == nil {
			signals = append(signals, Signal{Time: bar.Time})
			continue
		}

		rangeVal := hh.Sub(*c).Abs()
		if alt := c.Sub(*ll).Abs(); alt.GreaterThan(rangeVal) {
			rangeVal = alt
		}

		upper := c.Add(cfg.K1.Mul(rangeVal))
		lower := c.Sub(cfg.K2.Mul(rangeVal))

		value := 0
		switch {
		case bar.BestBid.GreaterThan(upper):
			value = 1
		case bar.BestAsk.LessThan(lower):
			value = -1
		}

		signals = append(signals, Signal{Time: bar.Time, Value: value, Upper: &upper, Lower: &lower})
	}
	return signals
}

// rollingRange returns HH (max best ask) and LL (min best bid) over prior,
// and whether both were observed at least once (a window with only
// missing best prices yields ok=false).
func rollingRange(prior []timeseries.Bar) (hh, ll *decimal.Decimal, ok bool) {
	for _, bar := range prior {
		if bar.BestAsk != nil && (hh == nil || bar.BestAsk.GreaterThan(*hh)) {
			hh = bar.BestAsk
		}
		if bar.BestBid != nil && (ll == nil || bar.BestBid.LessThan(*ll)) {
			ll = bar.BestBid
		}
	}
	return hh, ll, hh != nil && ll != nil
}
