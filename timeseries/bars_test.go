package timeseries

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mkhoshkam/powerreplay/book"
	"github.com/mkhoshkam/powerreplay/event"
	"github.com/mkhoshkam/powerreplay/matching"
)

var product = time.Date(2021, 6, 26, 12, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func tickAt(minute int, bid, ask string, bidQty, askQty int64) matching.Tick {
	return matching.Tick{
		Time:       time.Date(2021, 6, 26, 10, minute, 0, 0, time.UTC),
		ProductKey: product,
		TopOfBook: matching.TopOfBook{
			BestBid: dec(bid), HasBid: bid != "", BestBidQty: bidQty,
			BestAsk: dec(ask), HasAsk: ask != "", BestAskQty: askQty,
		},
	}
}

func TestBuildForwardFillsAcrossEmptyBars(t *testing.T) {
	ticks := []matching.Tick{
		tickAt(0, "50.0", "51.0", 10, 10),
	}
	bars := Build(ticks, nil, product, time.Minute)
	if len(bars) != 1 {
		t.Fatalf("expected 1 bar, got %d", len(bars))
	}

	// Extend the window by supplying a later trade so a bar with no tick
	// of its own must forward-fill the prior top of book.
	trades := []book.Trade{
		{Time: time.Date(2021, 6, 26, 10, 2, 0, 0, time.UTC), ProductKey: product, Price: dec("50.5"), Quantity: 3, AggressorSide: event.Buy},
	}
	bars = Build(ticks, trades, product, time.Minute)
	if len(bars) != 3 {
		t.Fatalf("expected 3 bars (10:00,10:01,10:02), got %d", len(bars))
	}
	for i, b := range bars {
		if b.BestBid == nil || !b.BestBid.Equal(dec("50.0")) {
			t.Fatalf("bar %d: expected forward-filled best bid 50.0, got %v", i, b.BestBid)
		}
		if b.BestAsk == nil || !b.BestAsk.Equal(dec("51.0")) {
			t.Fatalf("bar %d: expected forward-filled best ask 51.0, got %v", i, b.BestAsk)
		}
	}
	if bars[2].TradedQty != 3 || bars[2].BuyVol != 3 {
		t.Fatalf("expected bar 2 to carry the trade, got %+v", bars[2])
	}
}

func TestBuildMidAndVWAPUndefinedWhenOneSideMissing(t *testing.T) {
	ticks := []matching.Tick{
		{
			Time:       time.Date(2021, 6, 26, 10, 0, 0, 0, time.UTC),
			ProductKey: product,
			TopOfBook:  matching.TopOfBook{HasBid: true, BestBid: dec("50.0"), BestBidQty: 10},
		},
	}
	bars := Build(ticks, nil, product, time.Minute)
	if len(bars) != 1 {
		t.Fatalf("expected 1 bar, got %d", len(bars))
	}
	if bars[0].Mid != nil || bars[0].VWAP != nil {
		t.Fatalf("expected nil mid/vwap with only one side present, got mid=%v vwap=%v", bars[0].Mid, bars[0].VWAP)
	}
}

func TestBuildMidWithinBidAsk(t *testing.T) {
	ticks := []matching.Tick{tickAt(0, "50.0", "52.0", 10, 10)}
	bars := Build(ticks, nil, product, time.Minute)
	if len(bars) != 1 {
		t.Fatalf("expected 1 bar, got %d", len(bars))
	}
	b := bars[0]
	if b.Mid == nil || b.BestBid.GreaterThan(*b.Mid) || b.Mid.GreaterThan(*b.BestAsk) {
		t.Fatalf("expected best_bid <= mid <= best_ask, got bid=%v mid=%v ask=%v", b.BestBid, b.Mid, b.BestAsk)
	}
}

func TestBuildVolumeSplitByAggressorSide(t *testing.T) {
	ticks := []matching.Tick{tickAt(0, "50.0", "51.0", 10, 10)}
	trades := []book.Trade{
		{Time: time.Date(2021, 6, 26, 10, 0, 30, 0, time.UTC), ProductKey: product, Price: dec("50.5"), Quantity: 4, AggressorSide: event.Buy},
		{Time: time.Date(2021, 6, 26, 10, 0, 45, 0, time.UTC), ProductKey: product, Price: dec("50.5"), Quantity: 2, AggressorSide: event.Sell},
	}
	bars := Build(ticks, trades, product, time.Minute)
	if len(bars) != 1 {
		t.Fatalf("expected 1 bar, got %d", len(bars))
	}
	if bars[0].BuyVol != 4 || bars[0].SellVol != 2 || bars[0].TradedQty != 6 {
		t.Fatalf("unexpected volumes: %+v", bars[0])
	}
}

func TestBuildUnknownProductIsEmpty(t *testing.T) {
	ticks := []matching.Tick{tickAt(0, "50.0", "51.0", 10, 10)}
	other := time.Date(2021, 6, 27, 12, 0, 0, 0, time.UTC)
	bars := Build(ticks, nil, other, time.Minute)
	if bars != nil {
		t.Fatalf("expected nil bars for unknown product, got %+v", bars)
	}
}
