// Package matching dispatches a sorted event.Event sequence against one
// book.Book per delivery product, producing the trade and tick streams
// the Replay Driver accumulates.
//
// Each book.Book keeps its own order index (InitialId -> resting order)
// rather than the Engine holding a single cross-book index: an event's DeliveryStart is stable across the Add/Modify/Delete
// revisions of a given InitialId, so looking a resting order up always
// starts from the right book, and a per-book index is equivalent to (and
// simpler than) one shared index keyed additionally by product.
package matching

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/mkhoshkam/powerreplay/book"
	"github.com/mkhoshkam/powerreplay/event"
)

// TopOfBook is the four-tuple the tick stream tracks: best bid/ask prices
// and their aggregate quantities at that price. A missing side is
// represented by Has{Bid,Ask} = false rather than a zero price.
type TopOfBook struct {
	BestBid    decimal.Decimal
	HasBid     bool
	BestBidQty int64
	BestAsk    decimal.Decimal
	HasAsk     bool
	BestAskQty int64
}

// Equal reports whether two TopOfBook values represent the same
// quadruple (spec §4.3: a tick is only emitted when this changes).
func (t TopOfBook) Equal(o TopOfBook) bool {
	if t.HasBid != o.HasBid || t.HasAsk != o.HasAsk {
		return false
	}
	if t.HasBid && (!t.BestBid.Equal(o.BestBid) || t.BestBidQty != o.BestBidQty) {
		return false
	}
	if t.HasAsk && (!t.BestAsk.Equal(o.BestAsk) || t.BestAskQty != o.BestAskQty) {
		return false
	}
	return true
}

// Tick is a top-of-book snapshot emitted when the quadruple changes.
type Tick struct {
	Time       time.Time
	ProductKey time.Time
	TopOfBook
}

// Engine dispatches events to one Book per product and emits the
// resulting trades and ticks. It is a pure synchronous transducer: one
// Dispatch call produces zero or more Trades and zero or one Tick, with
// no deferred work and no I/O (spec §4.3, §5).
type Engine struct {
	books    map[time.Time]*book.Book
	lastTick map[time.Time]TopOfBook
}

// NewEngine returns an Engine with no books yet created.
func NewEngine() *Engine {
	return &Engine{
		books:    map[time.Time]*book.Book{},
		lastTick: map[time.Time]TopOfBook{},
	}
}

func (e *Engine) getOrCreateBook(productKey time.Time) *book.Book {
	b, ok := e.books[productKey]
	if !ok {
		b = book.NewBook(productKey)
		e.books[productKey] = b
	}
	return b
}

// Book returns the book for a product, if one has been created.
func (e *Engine) Book(productKey time.Time) (*book.Book, bool) {
	b, ok := e.books[productKey]
	return b, ok
}

// Products returns the set of products this engine has created a book
// for, in no particular order.
func (e *Engine) Products() []time.Time {
	products := make([]time.Time, 0, len(e.books))
	for p := range e.books {
		products = append(products, p)
	}
	return products
}

// Dispatch applies a single event per spec §4.3:
//
//  1. If the event's InitialId is resting, apply its removal or in-place
//     update first, so a Modify sees the prior resting order.
//  2. If the action is Add or Modify with positive quantity and the
//     update was not handled in place, cross the incoming quantity
//     against the opposite side, then rest any residual at the event's
//     price with EnqueueTime = TransactionTime.
//  3. Recompute top-of-book for the product and emit a Tick if it
//     changed.
func (e *Engine) Dispatch(ev event.Event) ([]book.Trade, *Tick) {
	b := e.getOrCreateBook(ev.ProductKey())

	existing, known := b.Lookup(ev.InitialID)
	mutatedInPlace := false

	switch ev.Action {
	case event.Delete:
		b.Cancel(ev.InitialID)
	case event.Modify:
		switch {
		case known && ev.Quantity > 0 && existing.Price.Equal(ev.Price) && ev.Quantity < existing.RemainingQuantity:
			b.MutateQuantity(ev.InitialID, ev.Quantity)
			mutatedInPlace = true
		case known:
			b.Cancel(ev.InitialID)
		}
	case event.Add:
		if known {
			b.Cancel(ev.InitialID)
		}
	case event.Other:
		if known {
			b.Cancel(ev.InitialID)
		}
	}

	var trades []book.Trade
	if !mutatedInPlace && (ev.Action == event.Add || ev.Action == event.Modify) && ev.Quantity > 0 {
		execs, residual := b.Cross(ev.Side, ev.Price, ev.Quantity, ev.TransactionTime)
		trades = execs
		if residual > 0 {
			b.Insert(&book.RestingOrder{
				InitialID:         ev.InitialID,
				Side:              ev.Side,
				Price:             ev.Price,
				RemainingQuantity: residual,
				EnqueueTime:       ev.TransactionTime,
			})
		}
	}

	tick := e.recomputeTick(b, ev.TransactionTime)
	return trades, tick
}

func (e *Engine) recomputeTick(b *book.Book, at time.Time) *Tick {
	var cur TopOfBook
	if price, qty, ok := b.BestBid(); ok {
		cur.HasBid = true
		cur.BestBid = price
		cur.BestBidQty = qty
	}
	if price, qty, ok := b.BestAsk(); ok {
		cur.HasAsk = true
		cur.BestAsk = price
		cur.BestAskQty = qty
	}

	// A product with no tick emitted yet implicitly starts from the empty
	// quadruple (map lookup on a missing key yields the zero TopOfBook),
	// so an event that leaves the book empty — e.g. a Delete of an unknown
	// id as the very first event for a product — emits no tick (spec
	// scenario E), exactly as if the state had not changed.
	prev := e.lastTick[b.ProductKey]
	if cur.Equal(prev) {
		return nil
	}
	e.lastTick[b.ProductKey] = cur
	return &Tick{Time: at, ProductKey: b.ProductKey, TopOfBook: cur}
}
