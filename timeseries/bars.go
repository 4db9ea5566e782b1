// Package timeseries derives a uniform-frequency Bar series from one
// product's tick and trade streams.
package timeseries

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mkhoshkam/powerreplay/book"
	"github.com/mkhoshkam/powerreplay/event"
	"github.com/mkhoshkam/powerreplay/matching"
)

var two = decimal.NewFromInt(2)

// Bar is one fixed-duration aggregate of a product's activity. Mid and
// VWAP are nil when undefined (an absent side, or zero combined depth,
// respectively) rather than NaN — the replay core never uses floating
// point for prices, so "missing" is represented explicitly.
type Bar struct {
	Time time.Time

	BestBid    *decimal.Decimal
	BestAsk    *decimal.Decimal
	BestBidQty int64
	BestAskQty int64

	Mid  *decimal.Decimal
	VWAP *decimal.Decimal

	TradedQty int64
	BuyVol    int64
	SellVol   int64

	TotalBidDepth int64
	TotalAskDepth int64
}

// Build derives a Bar series for product at frequency freq from the full
// tick and trade tables of a replay run. Returns nil when the product has
// no ticks at all (spec §7: UnknownProduct is an empty result, not an
// error).
func Build(ticks []matching.Tick, trades []book.Trade, product time.Time, freq time.Duration) []Bar {
	productTicks := make([]matching.Tick, 0, len(ticks))
	for _, t := range ticks {
		if t.ProductKey.Equal(product) {
			productTicks = append(productTicks, t)
		}
	}
	if len(productTicks) == 0 {
		return nil
	}
	sort.SliceStable(productTicks, func(i, j int) bool { return productTicks[i].Time.Before(productTicks[j].Time) })

	productTrades := make([]book.Trade, 0, len(trades))
	for _, tr := range trades {
		if tr.ProductKey.Equal(product) {
			productTrades = append(productTrades, tr)
		}
	}
	sort.Slice(productTrades, func(i, j int) bool { return productTrades[i].Time.Before(productTrades[j].Time) })

	start := productTicks[0].Time.Truncate(freq)
	end := productTicks[len(productTicks)-1].Time.Truncate(freq)
	if len(productTrades) > 0 {
		lastTrade := productTrades[len(productTrades)-1].Time.Truncate(freq)
		if lastTrade.After(end) {
			end = lastTrade
		}
	}

	var bars []Bar
	var carried matching.TopOfBook
	var haveCarried bool

	tickIdx, tradeIdx := 0, 0
	for bucket := start; !bucket.After(end); bucket = bucket.Add(freq) {
		bucketEnd := bucket.Add(freq)

		var lastInBar *matching.TopOfBook
		var bidDepthSum, askDepthSum int64
		for tickIdx < len(productTicks) && productTicks[tickIdx].Time.Before(bucketEnd) {
			tob := productTicks[tickIdx].TopOfBook
			lastInBar = &tob
			if tob.HasBid {
				bidDepthSum += tob.BestBidQty
			}
			if tob.HasAsk {
				askDepthSum += tob.BestAskQty
			}
			tickIdx++
		}
		if lastInBar != nil {
			carried = *lastInBar
			haveCarried = true
		}

		var tradedQty, buyVol, sellVol int64
		for tradeIdx < len(productTrades) && productTrades[tradeIdx].Time.Before(bucketEnd) {
			tr := productTrades[tradeIdx]
			tradedQty += tr.Quantity
			switch tr.AggressorSide {
			case event.Buy:
				buyVol += tr.Quantity
			case event.Sell:
				sellVol += tr.Quantity
			}
			tradeIdx++
		}

		bar := Bar{
			Time:          bucket,
			TradedQty:     tradedQty,
			BuyVol:        buyVol,
			SellVol:       sellVol,
			TotalBidDepth: bidDepthSum,
			TotalAskDepth: askDepthSum,
		}
		if haveCarried {
			if carried.HasBid {
				p := carried.BestBid
				bar.BestBid = &p
				bar.BestBidQty = carried.BestBidQty
			}
			if carried.HasAsk {
				p := carried.BestAsk
				bar.BestAsk = &p
				bar.BestAskQty = carried.BestAskQty
			}
			bar.Mid = mid(bar.BestBid, bar.BestAsk)
			bar.VWAP = vwap(bar.BestBid, bar.BestBidQty, bar.BestAsk, bar.BestAskQty)
		}

		bars = append(bars, bar)
	}

	return bars
}

func mid(bid, ask *decimal.Decimal) *decimal.Decimal {
	if bid == nil || ask == nil {
		return nil
	}
	m := bid.Add(*ask).Div(two)
	return &m
}

func vwap(bid *decimal.Decimal, bidQty int64, ask *decimal.Decimal, askQty int64) *decimal.Decimal {
	if bid == nil || ask == nil {
		return nil
	}
	denom := bidQty + askQty
	if denom == 0 {
		return nil
	}
	num := bid.Mul(decimal.NewFromInt(bidQty)).Add(ask.Mul(decimal.NewFromInt(askQty)))
	v := num.Div(decimal.NewFromInt(denom))
	return &v
}
