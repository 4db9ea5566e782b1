package book

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mkhoshkam/powerreplay/event"
)

// Book maintains the bid and ask ladders for a single delivery product.
//
// Bids are ordered by price descending then enqueue time ascending; asks
// by price ascending then enqueue time ascending. Post-event invariant:
// the best resting bid price is always strictly less than the best
// resting ask price (the book never crosses) and every resting order has
// RemainingQuantity > 0.
type Book struct {
	ProductKey time.Time

	bids []*priceLevel // descending by price
	asks []*priceLevel // ascending by price

	index map[int64]*orderLocation
}

// NewBook returns an empty book for the given product.
func NewBook(productKey time.Time) *Book {
	return &Book{
		ProductKey: productKey,
		index:      map[int64]*orderLocation{},
	}
}

// locate finds the index of the price level matching price, and whether it
// was found. descending selects the ladder's sort direction (bids
// descending, asks ascending). If not found, idx is the position at which
// a new level for price should be inserted to preserve order.
func locate(levels []*priceLevel, price decimal.Decimal, descending bool) (idx int, found bool) {
	n := len(levels)
	idx = sort.Search(n, func(i int) bool {
		if descending {
			return levels[i].price.LessThanOrEqual(price)
		}
		return levels[i].price.GreaterThanOrEqual(price)
	})
	if idx < n && levels[idx].price.Equal(price) {
		return idx, true
	}
	return idx, false
}

func (b *Book) ladder(side event.Side) ([]*priceLevel, bool) {
	if side == event.Buy {
		return b.bids, true
	}
	return b.asks, false
}

func (b *Book) setLadder(side event.Side, levels []*priceLevel) {
	if side == event.Buy {
		b.bids = levels
	} else {
		b.asks = levels
	}
}

// levelFor returns the price level for (side, price), creating it if
// necessary.
func (b *Book) levelFor(side event.Side, price decimal.Decimal) *priceLevel {
	levels, descending := b.ladder(side)
	idx, found := locate(levels, price, descending)
	if found {
		return levels[idx]
	}
	lvl := newPriceLevel(price)
	levels = append(levels, nil)
	copy(levels[idx+1:], levels[idx:])
	levels[idx] = lvl
	b.setLadder(side, levels)
	return lvl
}

func (b *Book) dropLevelIfEmpty(side event.Side, lvl *priceLevel) {
	if lvl.orders.Len() > 0 {
		return
	}
	levels, descending := b.ladder(side)
	idx, found := locate(levels, lvl.price, descending)
	if !found {
		return
	}
	levels = append(levels[:idx], levels[idx+1:]...)
	b.setLadder(side, levels)
}

// Insert places o on its side's ladder, appending it to the back of its
// price level's FIFO, except when one or more resting orders at the same
// price already share o.EnqueueTime and have a larger InitialID: ties at
// identical enqueue time are broken by ascending InitialID (spec §4.2,
// §9), so o is threaded in just ahead of those.
func (b *Book) Insert(o *RestingOrder) {
	lvl := b.levelFor(o.Side, o.Price)

	elem := lvl.orders.PushBack(o)
	for {
		prev := elem.Prev()
		if prev == nil {
			break
		}
		prevOrder := prev.Value.(*RestingOrder)
		if !prevOrder.EnqueueTime.Equal(o.EnqueueTime) || prevOrder.InitialID < o.InitialID {
			break
		}
		lvl.orders.MoveBefore(elem, prev)
	}

	b.index[o.InitialID] = &orderLocation{side: o.Side, level: lvl, elem: elem}
}

// Cancel removes the resting order identified by initialID, if any. It is
// a no-op, not an error, when the id is unknown (spec §4.2 edge case).
func (b *Book) Cancel(initialID int64) (*RestingOrder, bool) {
	loc, ok := b.index[initialID]
	if !ok {
		return nil, false
	}
	order := loc.elem.Value.(*RestingOrder)
	loc.level.orders.Remove(loc.elem)
	b.dropLevelIfEmpty(loc.side, loc.level)
	delete(b.index, initialID)
	return order, true
}

// MutateQuantity decrements the resting order identified by initialID to
// newQuantity in place, preserving its position (and hence its time
// priority). The caller is responsible for ensuring newQuantity is less
// than the order's current RemainingQuantity (spec §4.2: "if ... the new
// quantity is less than the old, mutate in place").
func (b *Book) MutateQuantity(initialID int64, newQuantity int64) (*RestingOrder, bool) {
	loc, ok := b.index[initialID]
	if !ok {
		return nil, false
	}
	order := loc.elem.Value.(*RestingOrder)
	order.RemainingQuantity = newQuantity
	return order, true
}

// Lookup returns the resting order for initialID without mutating it.
func (b *Book) Lookup(initialID int64) (*RestingOrder, bool) {
	loc, ok := b.index[initialID]
	if !ok {
		return nil, false
	}
	return loc.elem.Value.(*RestingOrder), true
}

// crosses reports whether an aggressor on side, with limit price limit,
// can execute against the best level of the opposite book.
func crosses(side event.Side, limit decimal.Decimal, bestOpposite decimal.Decimal) bool {
	if side == event.Buy {
		return bestOpposite.LessThanOrEqual(limit)
	}
	return bestOpposite.GreaterThanOrEqual(limit)
}

// Cross walks the opposite side of the book while it crosses limit,
// executing against resting orders in price-time order. Each execution
// trades min(residual, resting.RemainingQuantity) at the resting order's
// price; a fully consumed resting order is removed, otherwise its
// RemainingQuantity is decremented. Returns the executions (in the order
// they occurred) and any quantity left unexecuted.
func (b *Book) Cross(side event.Side, limit decimal.Decimal, quantity int64, at time.Time) ([]Trade, int64) {
	opposite := event.Sell
	if side == event.Sell {
		opposite = event.Buy
	}

	var trades []Trade
	residual := quantity

	for residual > 0 {
		levels, _ := b.ladder(opposite)
		if len(levels) == 0 {
			break
		}
		best := levels[0]
		if !crosses(side, limit, best.price) {
			break
		}

		front := best.orders.Front()
		resting := front.Value.(*RestingOrder)

		execQty := resting.RemainingQuantity
		if residual < execQty {
			execQty = residual
		}

		trades = append(trades, Trade{
			Time:          at,
			ProductKey:    b.ProductKey,
			Price:         resting.Price,
			Quantity:      execQty,
			AggressorSide: side,
		})

		residual -= execQty
		resting.RemainingQuantity -= execQty

		if resting.RemainingQuantity == 0 {
			best.orders.Remove(front)
			delete(b.index, resting.InitialID)
			b.dropLevelIfEmpty(opposite, best)
		}
	}

	return trades, residual
}

// BestBid returns the best resting bid price and its aggregate quantity at
// that price, and whether a bid is resting at all.
func (b *Book) BestBid() (decimal.Decimal, int64, bool) {
	return bestOf(b.bids)
}

// BestAsk returns the best resting ask price and its aggregate quantity at
// that price, and whether an ask is resting at all.
func (b *Book) BestAsk() (decimal.Decimal, int64, bool) {
	return bestOf(b.asks)
}

func bestOf(levels []*priceLevel) (decimal.Decimal, int64, bool) {
	if len(levels) == 0 {
		return decimal.Zero, 0, false
	}
	lvl := levels[0]
	var qty int64
	for e := lvl.orders.Front(); e != nil; e = e.Next() {
		qty += e.Value.(*RestingOrder).RemainingQuantity
	}
	return lvl.price, qty, true
}
